package actions

import (
	"strings"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/history"
	"github.com/matzehuels/postkit/pkg/layout"
	"github.com/matzehuels/postkit/pkg/post"
)

// InsertTextNode adds a floating text node at (X, Y). The id is generated
// when empty.
func (e Env) InsertTextNode(a InsertTextNodeArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		id := a.ID
		if id == "" {
			id = e.NewID()
		}
		if err := errors.ValidateID(id); err != nil {
			return err
		}
		if _, exists := s.Block(id); exists {
			return errors.New(errors.ErrCodeInvalidArgs, "block %q already exists", id)
		}
		if a.Template != "" {
			if _, err := e.Presets.Catalog().Template(a.Template); err != nil {
				return err
			}
		}

		tb := post.NewTextBlock(id, a.Text)
		tb.Format = post.FormatSticker
		tb.Layout = post.LayoutText
		tb.Config.Template = a.Template
		tb.SetFrame(geometry.Rect{Width: e.Width / 2, Height: post.DefaultTextHeight})
		s.InlineNodes[id] = post.EditableNode{
			Block:    tb,
			Position: post.NodePosition{X: a.X, Y: a.Y, Scale: 1},
		}
		return nil
	}
}

// DeleteBlock removes a grid block and its row when the row empties.
func (e Env) DeleteBlock(a DeleteBlockArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		if _, ok := s.Blocks[a.BlockID]; !ok {
			return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", a.BlockID)
		}
		delete(s.Blocks, a.BlockID)
		s.Positions = s.Positions.Remove(a.BlockID)
		s.Arrange(e.Width)
		return nil
	}
}

// DeleteNode removes a floating node.
func (e Env) DeleteNode(a DeleteNodeArgs) history.Mutator {
	return func(s *post.Schema) error {
		if _, ok := s.InlineNodes[a.NodeID]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", a.NodeID)
		}
		delete(s.InlineNodes, a.NodeID)
		return nil
	}
}

// UpdateBlockFrame stores the measured frame of a grid block or node.
func (e Env) UpdateBlockFrame(a UpdateBlockFrameArgs) history.Mutator {
	return func(s *post.Schema) error {
		b, ok := s.Block(a.BlockID)
		if !ok {
			return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", a.BlockID)
		}
		if a.Frame.Width < 0 || a.Frame.Height < 0 {
			return errors.New(errors.ErrCodeInvalidArgs, "frame of %q has a negative size", a.BlockID)
		}
		b.Base().SetFrame(a.Frame)
		return nil
	}
}

// UpdateNodeFrame sets the transform of a floating node.
func (e Env) UpdateNodeFrame(a UpdateNodeFrameArgs) history.Mutator {
	return func(s *post.Schema) error {
		n, ok := s.InlineNodes[a.NodeID]
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", a.NodeID)
		}
		if a.Scale <= 0 {
			return errors.New(errors.ErrCodeInvalidArgs, "scale of %q must be positive, got %v", a.NodeID, a.Scale)
		}
		n.Position = post.NodePosition{X: a.X, Y: a.Y, Scale: a.Scale, Rotate: a.Rotate}
		s.InlineNodes[a.NodeID] = n
		return nil
	}
}

// OnChangeBlockText sets the value of a text block. A floating node whose
// trimmed text is empty is deleted; an empty grid block stays as a
// placeholder.
func (e Env) OnChangeBlockText(a TextArgs) history.Mutator {
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(a.BlockID)
		if err != nil {
			return err
		}
		if _, isNode := s.InlineNodes[a.BlockID]; isNode && strings.TrimSpace(a.Text) == "" {
			delete(s.InlineNodes, a.BlockID)
			return nil
		}
		tb.Value = a.Text
		return nil
	}
}

// ChangeTextColor sets the text color override.
func (e Env) ChangeTextColor(a ColorArgs) history.Mutator {
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(a.BlockID)
		if err != nil {
			return err
		}
		if err := errors.ValidateColor(a.Color); err != nil {
			return err
		}
		tb.Config.Overrides.Color = a.Color
		return nil
	}
}

// ChangeTextBackground sets the background color override.
func (e Env) ChangeTextBackground(a ColorArgs) history.Mutator {
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(a.BlockID)
		if err != nil {
			return err
		}
		if err := errors.ValidateColor(a.Color); err != nil {
			return err
		}
		tb.Config.Overrides.BackgroundColor = a.Color
		return nil
	}
}

// ChangeTextAlign sets the alignment override.
func (e Env) ChangeTextAlign(a AlignArgs) history.Mutator {
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(a.BlockID)
		if err != nil {
			return err
		}
		if err := errors.ValidateTextAlign(a.Align); err != nil {
			return err
		}
		tb.Config.Overrides.TextAlign = a.Align
		return nil
	}
}

// ChangeBorderType sets the border of a text block.
func (e Env) ChangeBorderType(a BorderArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(a.BlockID)
		if err != nil {
			return err
		}
		if _, err := e.Presets.Catalog().Border(a.Border); err != nil {
			return err
		}
		tb.Config.Border = a.Border
		return nil
	}
}

// ChangeTemplate sets the template of a text block.
func (e Env) ChangeTemplate(a TemplateArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(a.BlockID)
		if err != nil {
			return err
		}
		if _, err := e.Presets.Catalog().Template(a.Template); err != nil {
			return err
		}
		tb.Config.Template = a.Template
		return nil
	}
}

// SetLayout runs the layout engine over the grid. Blocks the layout leaves
// out are deleted so that the document stays consistent; floating nodes are
// untouched.
func (e Env) SetLayout(a SetLayoutArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		format, err := post.ParseFormat(string(a.Format))
		if err != nil {
			return err
		}
		l, err := post.ParseLayout(string(a.Layout))
		if err != nil {
			return err
		}
		engine := layout.New(layout.WithWidth(e.Width), layout.WithIDGenerator(e.NewID))
		blocks, positions := engine.LayoutBlocksInPost(format, l, s.Blocks, s.Positions)
		for id := range blocks {
			if !positions.Contains(id) {
				delete(blocks, id)
			}
		}
		s.Blocks = blocks
		s.Positions = positions
		return nil
	}
}

// CommitSnap installs a snap candidate verbatim and removes the dragged
// block from the floating nodes.
func (e Env) CommitSnap(a CommitSnapArgs) history.Mutator {
	return func(s *post.Schema) error {
		n := 0
		for _, id := range a.Positions.IDs() {
			if id == a.BlockID {
				n++
			}
		}
		if n != 1 {
			return errors.New(errors.ErrCodeInvalidArgs, "snap candidate must place %q exactly once, got %d", a.BlockID, n)
		}
		s.Blocks = a.Blocks.Clone()
		s.Positions = a.Positions.Clone()
		delete(s.InlineNodes, a.BlockID)
		if s.Blocks == nil {
			s.Blocks = post.BlockMap{}
		}
		return s.Validate()
	}
}

// InsertImageBlock appends a resolved image as a new full-width row.
func (e Env) InsertImageBlock(a InsertImageBlockArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		id := a.ID
		if id == "" {
			id = e.NewID()
		}
		if err := errors.ValidateID(id); err != nil {
			return err
		}
		if _, exists := s.Block(id); exists {
			return errors.New(errors.ErrCodeInvalidArgs, "block %q already exists", id)
		}
		if a.Image.Width <= 0 || a.Image.Height <= 0 || a.Image.URI == "" {
			return errors.New(errors.ErrCodeInvalidArgs, "image needs a uri and a positive size")
		}
		img := post.BuildImageBlock(id, a.Image)
		size := img.IntrinsicSize().FitWidth(e.Width)
		img.SetFrame(geometry.Rect{Width: size.Width, Height: size.Height})
		s.Blocks[id] = img
		s.Positions = append(s.Positions, post.Row{id})
		s.Arrange(e.Width)
		return nil
	}
}

// DetachBlock moves a grid block out of the grid into a floating node.
func (e Env) DetachBlock(a DetachBlockArgs) history.Mutator {
	e = e.withDefaults()
	return func(s *post.Schema) error {
		b, ok := s.Blocks[a.BlockID]
		if !ok {
			return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", a.BlockID)
		}
		if post.IsImagePlaceholder(b) {
			return errors.New(errors.ErrCodeNotImageBlock, "block %q is a placeholder without an image", a.BlockID)
		}
		delete(s.Blocks, a.BlockID)
		s.Positions = s.Positions.Remove(a.BlockID)
		s.InlineNodes[a.BlockID] = post.EditableNode{
			Block:    b,
			Position: post.NodePosition{X: a.X, Y: a.Y, Scale: 1},
		}
		s.Arrange(e.Width)
		return nil
	}
}

// ChangeFormat sets the presentation format of a block.
func (e Env) ChangeFormat(a ChangeFormatArgs) history.Mutator {
	return func(s *post.Schema) error {
		format, err := post.ParseFormat(string(a.Format))
		if err != nil {
			return err
		}
		b, ok := s.Block(a.BlockID)
		if !ok {
			return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", a.BlockID)
		}
		if post.IsImagePlaceholder(b) && format != post.FormatPost {
			return errors.New(errors.ErrCodeInvalidFormat, "placeholder %q must stay in the post format", a.BlockID)
		}
		b.Base().Format = format
		return nil
	}
}
