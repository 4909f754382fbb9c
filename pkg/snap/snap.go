// Package snap computes where a dragged block can dock into the grid.
//
// For a dragged block near a target block, [Engine.SnapBlock] builds the
// document that results from inserting the block above, below, left or
// right of the target. [Engine.GetSnapPoints] wraps the four candidates with
// guide geometry and [Engine.GetAllSnapPoints] runs it against every block,
// merging candidates that produce the same arrangement.
//
// All functions are pure: they clone their inputs and may be called on
// every drag frame to preview candidates.
package snap

import (
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
)

// Direction is the side of the target block the dragged block docks to.
type Direction string

// Directions.
const (
	Top    Direction = "top"
	Bottom Direction = "bottom"
	Left   Direction = "left"
	Right  Direction = "right"
)

// Directions lists every direction in candidate order.
var Directions = []Direction{Top, Bottom, Left, Right}

// DefaultIndicatorSize is the size of the on-screen guide marker.
const DefaultIndicatorSize = 32.0

// Value is a candidate document.
type Value struct {
	Blocks    post.BlockMap     `json:"blocks"`
	Positions post.PositionList `json:"positions"`
}

// SnapPoint is a candidate document plus the geometry of its guide.
type SnapPoint struct {
	Direction Direction `json:"direction"`
	// Key is the canonical form of Value.Positions.
	Key   string `json:"key"`
	Value Value  `json:"value"`
	// Indicator is the center of the guide marker, just outside the target.
	Indicator geometry.Point `json:"indicator"`
	// Background is the frame of the dragged block inside the candidate.
	Background geometry.Rect `json:"background"`
}

// Engine computes snap candidates for a post of a given width.
type Engine struct {
	width float64
	size  float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndicatorSize sets the guide marker size used by
// [Engine.GetAllSnapPoints]. Non-positive values are ignored.
func WithIndicatorSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.size = size
		}
	}
}

// New returns an engine for a post of width w. A non-positive width falls
// back to [post.DefaultWidth].
func New(w float64, opts ...Option) *Engine {
	if w <= 0 {
		w = post.DefaultWidth
	}
	e := &Engine{width: w, size: DefaultIndicatorSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New(post.DefaultWidth)

// SnapBlock runs the default engine. See [Engine.SnapBlock].
func SnapBlock(dir Direction, target, dragged post.Block, blocks post.BlockMap, positions post.PositionList) Value {
	return defaultEngine.SnapBlock(dir, target, dragged, blocks, positions)
}

// GetSnapPoints runs the default engine. See [Engine.GetSnapPoints].
func GetSnapPoints(target, dragged post.Block, blocks post.BlockMap, positions post.PositionList, size float64) []SnapPoint {
	return defaultEngine.GetSnapPoints(target, dragged, blocks, positions, size)
}

// GetAllSnapPoints runs the default engine. See [Engine.GetAllSnapPoints].
func GetAllSnapPoints(dragged post.Block, blocks post.BlockMap, positions post.PositionList) []SnapPoint {
	return defaultEngine.GetAllSnapPoints(dragged, blocks, positions)
}

// SnapBlock returns the document in which dragged sits next to target in
// direction dir.
//
// The dragged block is first removed from the row it occupies. For top and
// bottom it becomes a full-width row of its own above or below the target's
// row, or at the very start or end when the target is not in the grid. For
// left and right it joins the target's row and every block of that row is
// rescaled to the new column width.
func (e *Engine) SnapBlock(dir Direction, target, dragged post.Block, blocks post.BlockMap, positions post.PositionList) Value {
	out := blocks.Clone()
	if out == nil {
		out = post.BlockMap{}
	}
	d := dock(dragged.Clone())
	id := d.Base().ID
	out[id] = d

	rows := positions.Remove(id)
	targetRow, targetCol := rows.Find(target.Base().ID)

	switch dir {
	case Top, Bottom:
		e.fullWidth(d)
		at := len(rows)
		switch {
		case targetRow >= 0 && dir == Top:
			at = targetRow
		case targetRow >= 0:
			at = targetRow + 1
		case dir == Top:
			at = 0
		}
		rows = insertRow(rows, at, post.Row{id})

	case Left, Right:
		if targetRow < 0 {
			e.fullWidth(d)
			if dir == Left {
				rows = insertRow(rows, 0, post.Row{id})
			} else {
				rows = append(rows, post.Row{id})
			}
			break
		}
		row := rows[targetRow]
		at := targetCol
		if dir == Right {
			at++
		}
		at = min(max(at, 0), len(row))

		next := make(post.Row, 0, len(row)+1)
		next = append(next, row[:at]...)
		next = append(next, id)
		next = append(next, row[at:]...)
		rows[targetRow] = next

		colWidth := e.width / float64(len(next))
		for _, rid := range next {
			if b, ok := out[rid]; ok {
				fitColumn(b, colWidth)
			}
		}
	}

	post.Arrange(out, rows, e.width)
	return Value{Blocks: out, Positions: rows}
}

// dock prepares a block for the grid. Text blocks re-flow: they take the
// post format and lose fixed width and line count overrides.
func dock(b post.Block) post.Block {
	if tb, ok := b.(*post.TextBlock); ok {
		tb.Format = post.FormatPost
		tb.Layout = post.LayoutVerticalMediaText
		tb.Config.Overrides.MaxWidth = nil
		tb.Config.Overrides.NumberOfLines = nil
	}
	return b
}

// fullWidth resizes b to span the post. Images are fitted to the width
// from their intrinsic size.
func (e *Engine) fullWidth(b post.Block) {
	switch b := b.(type) {
	case *post.TextBlock:
		b.SetFrame(geometry.Rect{Width: e.width, Height: textHeight(b)})
	case *post.ImageBlock:
		size := b.IntrinsicSize()
		if size.IsEmpty() {
			b.SetFrame(geometry.Rect{Width: e.width, Height: e.width})
			return
		}
		if b.Value != nil {
			b.Config.Dimensions.Crop = geometry.Rect{Width: size.Width, Height: size.Height}
		}
		fitted := size.FitWidth(e.width)
		b.SetFrame(geometry.Rect{Width: fitted.Width, Height: fitted.Height})
	}
}

// fitColumn rescales b to colWidth keeping the aspect ratio of its frame.
func fitColumn(b post.Block, colWidth float64) {
	switch b := b.(type) {
	case *post.TextBlock:
		b.SetFrame(geometry.Rect{Width: colWidth, Height: textHeight(b)})
	case *post.ImageBlock:
		size := b.FrameRect().Size()
		if size.IsEmpty() {
			size = b.IntrinsicSize()
		}
		if size.IsEmpty() {
			b.SetFrame(geometry.Rect{Width: colWidth, Height: colWidth})
			return
		}
		fitted := size.FitWidth(colWidth)
		b.SetFrame(geometry.Rect{Width: fitted.Width, Height: fitted.Height})
	}
}

func textHeight(b *post.TextBlock) float64 {
	if f := b.Frame; f != nil && f.Height > 0 {
		return f.Height
	}
	return post.DefaultTextHeight
}

func insertRow(rows post.PositionList, at int, row post.Row) post.PositionList {
	out := make(post.PositionList, 0, len(rows)+1)
	out = append(out, rows[:at]...)
	out = append(out, row)
	return append(out, rows[at:]...)
}

// GetSnapPoints returns one candidate per direction for docking dragged next
// to target. It returns nil when the target has no measured frame, when the
// target is the dragged block, or when there is nothing else to snap
// against.
func (e *Engine) GetSnapPoints(target, dragged post.Block, blocks post.BlockMap, positions post.PositionList, size float64) []SnapPoint {
	frame := target.Base().FrameRect()
	if frame.IsEmpty() {
		return nil
	}
	draggedID := dragged.Base().ID
	if target.Base().ID == draggedID {
		return nil
	}
	total := len(blocks)
	if _, ok := blocks[draggedID]; !ok {
		total++
	}
	if total <= 1 {
		return nil
	}

	points := make([]SnapPoint, 0, len(Directions))
	for _, dir := range Directions {
		v := e.SnapBlock(dir, target, dragged, blocks, positions)
		points = append(points, SnapPoint{
			Direction:  dir,
			Key:        v.Positions.Key(),
			Value:      v,
			Indicator:  indicator(dir, frame, size),
			Background: v.Blocks[draggedID].Base().FrameRect(),
		})
	}
	return points
}

func indicator(dir Direction, r geometry.Rect, size float64) geometry.Point {
	half := size / 2
	switch dir {
	case Top:
		return geometry.Point{X: r.MidX(), Y: r.Top() - half}
	case Bottom:
		return geometry.Point{X: r.MidX(), Y: r.MaxY() + half}
	case Left:
		return geometry.Point{X: r.Left() - half, Y: r.MidY()}
	default:
		return geometry.Point{X: r.MaxX() + half, Y: r.MidY()}
	}
}

// GetAllSnapPoints collects the candidates against every grid block, in grid
// order, and merges those with the same key.
func (e *Engine) GetAllSnapPoints(dragged post.Block, blocks post.BlockMap, positions post.PositionList) []SnapPoint {
	var all []SnapPoint
	for _, id := range positions.IDs() {
		target, ok := blocks[id]
		if !ok {
			continue
		}
		all = append(all, e.GetSnapPoints(target, dragged, blocks, positions, e.size)...)
	}
	return Merge(all)
}
