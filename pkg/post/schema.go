package post

import (
	"sort"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
)

const (
	// DefaultWidth is the post width in post units.
	DefaultWidth = 360.0
	// DefaultTextHeight is the height given to a text block that has not
	// been measured yet.
	DefaultTextHeight = 64.0
)

// BlockMap maps block ids to blocks.
type BlockMap map[string]Block

// Clone returns a deep copy.
func (m BlockMap) Clone() BlockMap {
	if m == nil {
		return nil
	}
	out := make(BlockMap, len(m))
	for id, b := range m {
		out[id] = b.Clone()
	}
	return out
}

// IDs returns the block ids sorted.
func (m BlockMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodePosition is the free-form transform of a floating node.
type NodePosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Scale  float64 `json:"scale"`
	Rotate float64 `json:"rotate"`
}

// EditableNode is a block detached from the grid.
type EditableNode struct {
	Block    Block        `json:"block"`
	Position NodePosition `json:"position"`
}

// Clone returns a deep copy.
func (n EditableNode) Clone() EditableNode {
	out := n
	if n.Block != nil {
		out.Block = n.Block.Clone()
	}
	return out
}

// Bounds returns the on-canvas bounding box of the node: the block frame
// scaled and rotated around its center, then moved to the node position.
func (n EditableNode) Bounds() geometry.Rect {
	if n.Block == nil {
		return geometry.Rect{}
	}
	scale := n.Position.Scale
	if scale == 0 {
		scale = 1
	}
	size := n.Block.Base().FrameRect().Size()
	r := geometry.Rect{X: n.Position.X, Y: n.Position.Y, Width: size.Width, Height: size.Height}
	return r.ScaleAround(scale).Rotate(n.Position.Rotate)
}

// NodeMap maps node ids to floating nodes.
type NodeMap map[string]EditableNode

// Clone returns a deep copy.
func (m NodeMap) Clone() NodeMap {
	if m == nil {
		return nil
	}
	out := make(NodeMap, len(m))
	for id, n := range m {
		out[id] = n.Clone()
	}
	return out
}

// IDs returns the node ids sorted.
func (m NodeMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Schema is the document: grid blocks, their arrangement and the floating
// nodes.
type Schema struct {
	Blocks      BlockMap     `json:"blocks"`
	Positions   PositionList `json:"positions"`
	InlineNodes NodeMap      `json:"inlineNodes"`
}

// New returns an empty document.
func New() *Schema {
	return &Schema{Blocks: BlockMap{}, Positions: PositionList{}, InlineNodes: NodeMap{}}
}

// Clone returns a deep copy. Nil collections come back empty.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		Blocks:      s.Blocks.Clone(),
		Positions:   s.Positions.Clone(),
		InlineNodes: s.InlineNodes.Clone(),
	}
	out.normalize()
	return out
}

func (s *Schema) normalize() {
	if s.Blocks == nil {
		s.Blocks = BlockMap{}
	}
	if s.Positions == nil {
		s.Positions = PositionList{}
	}
	if s.InlineNodes == nil {
		s.InlineNodes = NodeMap{}
	}
}

// Block looks id up among the grid blocks, then among the floating nodes.
func (s *Schema) Block(id string) (Block, bool) {
	if b, ok := s.Blocks[id]; ok {
		return b, true
	}
	if n, ok := s.InlineNodes[id]; ok && n.Block != nil {
		return n.Block, true
	}
	return nil, false
}

// TextBlock returns the text block stored under id, in the grid or as a
// node. It fails when id is unknown or names an image block.
func (s *Schema) TextBlock(id string) (*TextBlock, error) {
	b, ok := s.Block(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", id)
	}
	tb, ok := b.(*TextBlock)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotTextBlock, "block %q is not a text block", id)
	}
	return tb, nil
}

// Bounds returns the union of every grid frame and node bounding box.
func (s *Schema) Bounds() geometry.Rect {
	var out geometry.Rect
	for _, b := range s.Blocks {
		out = out.Union(b.Base().FrameRect())
	}
	for _, n := range s.InlineNodes {
		out = out.Union(n.Bounds())
	}
	return out
}

// Arrange recomputes the grid frames from the row structure.
func (s *Schema) Arrange(width float64) {
	Arrange(s.Blocks, s.Positions, width)
}

// Arrange lays rows out top to bottom and blocks left to right within a
// row. Each row is as tall as its tallest block. Measured sizes are kept;
// unmeasured blocks get an equal share of the row width.
func Arrange(blocks BlockMap, positions PositionList, width float64) {
	y := 0.0
	for _, row := range positions {
		if len(row) == 0 {
			continue
		}
		colWidth := width / float64(len(row))
		x, height := 0.0, 0.0
		for _, id := range row {
			b, ok := blocks[id]
			if !ok {
				continue
			}
			base := b.Base()
			f := base.FrameRect()
			if f.Width <= 0 {
				f.Width = colWidth
			}
			if f.Height <= 0 {
				f.Height = defaultHeight(b, f.Width)
			}
			base.SetFrame(f.WithOrigin(x, y))
			x += f.Width
			height = max(height, f.Height)
		}
		y += height
	}
}

func defaultHeight(b Block, width float64) float64 {
	switch b := b.(type) {
	case *TextBlock:
		return DefaultTextHeight
	case *ImageBlock:
		if size := b.IntrinsicSize(); !size.IsEmpty() {
			return size.FitWidth(width).Height
		}
		return width
	}
	return 0
}

// Validate checks the structural invariants of the document.
func (s *Schema) Validate() error {
	for id, b := range s.Blocks {
		if err := validateBlock(id, b); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(s.Blocks))
	for i, row := range s.Positions {
		if len(row) == 0 {
			return errors.New(errors.ErrCodeInvalidDocument, "row %d is empty", i)
		}
		for _, id := range row {
			if _, ok := s.Blocks[id]; !ok {
				return errors.New(errors.ErrCodeInvalidDocument, "position references unknown block %q", id)
			}
			if seen[id] {
				return errors.New(errors.ErrCodeInvalidDocument, "block %q appears more than once in positions", id)
			}
			seen[id] = true
		}
	}

	for id, n := range s.InlineNodes {
		if n.Block == nil {
			return errors.New(errors.ErrCodeInvalidDocument, "node %q has no block", id)
		}
		if err := validateBlock(id, n.Block); err != nil {
			return err
		}
		if seen[id] {
			return errors.New(errors.ErrCodeInvalidDocument, "block %q is both in the grid and a floating node", id)
		}
	}

	for id := range s.Blocks {
		if seen[id] {
			continue
		}
		if _, ok := s.InlineNodes[id]; !ok {
			return errors.New(errors.ErrCodeInvalidDocument, "block %q is missing from positions", id)
		}
	}
	return nil
}

func validateBlock(id string, b Block) error {
	if b == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "block %q is nil", id)
	}
	base := b.Base()
	if base.ID != id {
		return errors.New(errors.ErrCodeInvalidDocument, "block stored under %q has id %q", id, base.ID)
	}
	if err := errors.ValidateID(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "block %q", id)
	}
	if !base.Format.Valid() {
		return errors.New(errors.ErrCodeInvalidDocument, "block %q has invalid format %q", id, base.Format)
	}
	if base.Layout != "" && !base.Layout.Valid() {
		return errors.New(errors.ErrCodeInvalidDocument, "block %q has invalid layout %q", id, base.Layout)
	}
	switch b := b.(type) {
	case *ImageBlock:
		if b.Value == nil && base.Format != FormatPost {
			return errors.New(errors.ErrCodeInvalidDocument, "image placeholder %q must use the post format", id)
		}
	case *TextBlock:
		o := b.Config.Overrides
		for _, c := range []string{o.Color, o.BackgroundColor} {
			if err := errors.ValidateColor(c); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDocument, err, "block %q", id)
			}
		}
		if err := errors.ValidateTextAlign(o.TextAlign); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "block %q", id)
		}
	}
	return nil
}
