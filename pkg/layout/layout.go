// Package layout maps a (format, layout) pair onto a concrete grid of blocks.
//
// The engine reuses existing blocks of the matching kind so that content
// survives layout switches, synthesizes placeholders for missing slots and
// rescales reused images to the target slot. It is pure and deterministic:
// feeding its output back in yields the same arrangement.
//
//	blocks, positions := layout.LayoutBlocksInPost(post.FormatPost, post.LayoutVerticalTextMedia, blocks, positions)
package layout

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
)

type slotKind int

const (
	slotText slotKind = iota
	slotMedia
)

type boxKind int

const (
	boxFull boxKind = iota
	boxVertical
	boxHorizontal
)

type slot struct {
	kind slotKind
	box  boxKind
}

var (
	fullText  = slot{slotText, boxFull}
	fullMedia = slot{slotMedia, boxFull}
	vertText  = slot{slotText, boxVertical}
	vertMedia = slot{slotMedia, boxVertical}
	horzText  = slot{slotText, boxHorizontal}
	horzMedia = slot{slotMedia, boxHorizontal}
)

// shapes describes the rows of every canonical layout.
var shapes = map[post.Layout][][]slot{
	post.LayoutText:                 {{fullText}},
	post.LayoutMedia:                {{fullMedia}},
	post.LayoutHorizontalTextMedia:  {{horzText, horzMedia}},
	post.LayoutVerticalTextMedia:    {{vertText}, {vertMedia}},
	post.LayoutVerticalMediaText:    {{vertMedia}, {vertText}},
	post.LayoutHorizontalMediaMedia: {{horzMedia, horzMedia}},
	post.LayoutVerticalMediaMedia:   {{vertMedia}, {vertMedia}},
	post.LayoutHorizontalTextText:   {{horzText, horzText}},
}

// Engine lays blocks out for a post of a given width.
type Engine struct {
	width float64
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithWidth sets the post width. Non-positive values are ignored.
func WithWidth(w float64) Option {
	return func(e *Engine) {
		if w > 0 {
			e.width = w
		}
	}
}

// WithIDGenerator sets the function used to name synthesized placeholders.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

// New returns an engine for [post.DefaultWidth] that names placeholders with
// random UUIDs.
func New(opts ...Option) *Engine {
	e := &Engine{width: post.DefaultWidth, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Width returns the post width.
func (e *Engine) Width() float64 { return e.width }

var defaultEngine = New()

// LayoutBlocksInPost runs the default engine. See [Engine.LayoutBlocksInPost].
func LayoutBlocksInPost(format post.Format, layout post.Layout, blocks post.BlockMap, positions post.PositionList) (post.BlockMap, post.PositionList) {
	return defaultEngine.LayoutBlocksInPost(format, layout, blocks, positions)
}

// LayoutBlocksInPost arranges blocks into the shape of layout.
//
// The returned map holds a copy of every input block plus the synthesized
// placeholders. Blocks that do not fit the shape stay in the map but are
// left out of the positions. An unknown layout or format yields an empty
// arrangement. The inputs are never modified.
func (e *Engine) LayoutBlocksInPost(format post.Format, layout post.Layout, blocks post.BlockMap, positions post.PositionList) (post.BlockMap, post.PositionList) {
	shape, ok := shapes[layout]
	if !ok || !format.Valid() {
		return post.BlockMap{}, post.PositionList{}
	}

	out := blocks.Clone()
	if out == nil {
		out = post.BlockMap{}
	}
	texts, images := e.candidates(out, positions)

	result := make(post.PositionList, 0, len(shape))
	for _, row := range shape {
		ids := make(post.Row, 0, len(row))
		for _, s := range row {
			var b post.Block
			switch s.kind {
			case slotText:
				b, texts = e.placeText(s, format, layout, texts)
			case slotMedia:
				b, images = e.placeImage(s, format, layout, images)
			}
			out[b.Base().ID] = b
			ids = append(ids, b.Base().ID)
		}
		result = append(result, ids)
	}

	post.Arrange(out, result, e.width)
	return out, result
}

// candidates returns the reusable text and image blocks in reuse order:
// grid order first, then blocks outside the grid by id. Images holding a
// value come before placeholders.
func (e *Engine) candidates(blocks post.BlockMap, positions post.PositionList) (texts []*post.TextBlock, images []*post.ImageBlock) {
	order := make([]string, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))
	for _, id := range positions.IDs() {
		if _, ok := blocks[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range blocks {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	var placeholders []*post.ImageBlock
	for _, id := range order {
		switch b := blocks[id].(type) {
		case *post.TextBlock:
			texts = append(texts, b)
		case *post.ImageBlock:
			if b.Value != nil {
				images = append(images, b)
			} else {
				placeholders = append(placeholders, b)
			}
		}
	}
	return texts, append(images, placeholders...)
}

func (e *Engine) placeText(s slot, format post.Format, layout post.Layout, pool []*post.TextBlock) (post.Block, []*post.TextBlock) {
	var tb *post.TextBlock
	if len(pool) > 0 {
		tb, pool = pool[0], pool[1:]
	} else {
		tb = post.NewTextBlock(e.newID(), "")
		tb.AutoInserted = true
	}
	tb.Format = format
	tb.Layout = layout

	height := post.DefaultTextHeight
	if f := tb.Frame; f != nil && f.Height > 0 {
		height = f.Height
	}
	tb.SetFrame(geometry.Rect{Width: e.box(s.box).Width, Height: height})
	return tb, pool
}

func (e *Engine) placeImage(s slot, format post.Format, layout post.Layout, pool []*post.ImageBlock) (post.Block, []*post.ImageBlock) {
	var img *post.ImageBlock
	if len(pool) > 0 {
		img, pool = pool[0], pool[1:]
	} else {
		img = post.NewImagePlaceholder(e.newID())
	}
	img.Layout = layout
	// Placeholders only exist in the post format.
	if img.Value != nil {
		img.Format = format
	}
	e.resize(img, e.box(s.box), e.box(altBox(s.box)))
	return img, pool
}

// resize fits img into the native box. The image is width-sensitive when the
// native and alt boxes differ more in width than in height; aspect-fit or
// aspect-fill is picked by the smaller deviation on that axis, ties going
// to fit.
func (e *Engine) resize(img *post.ImageBlock, native, alt geometry.Size) {
	if img.Value == nil {
		img.SetFrame(geometry.Rect{Width: native.Width, Height: native.Height})
		return
	}
	size := img.IntrinsicSize()
	if size.IsEmpty() {
		img.SetFrame(geometry.Rect{Width: native.Width, Height: native.Height})
		return
	}
	img.Config.Dimensions.Width = size.Width
	img.Config.Dimensions.Height = size.Height

	fit := size.AspectFit(native)
	fill := size.AspectFill(native)
	widthSensitive := math.Abs(native.Width-alt.Width) >= math.Abs(native.Height-alt.Height)

	var dFit, dFill float64
	if widthSensitive {
		dFit, dFill = math.Abs(fit.Width-native.Width), math.Abs(fill.Width-native.Width)
	} else {
		dFit, dFill = math.Abs(fit.Height-native.Height), math.Abs(fill.Height-native.Height)
	}

	if dFill < dFit {
		scale := fill.Width / size.Width
		cw, ch := native.Width/scale, native.Height/scale
		img.Config.Dimensions.Crop = geometry.Rect{
			X:      (size.Width - cw) / 2,
			Y:      (size.Height - ch) / 2,
			Width:  cw,
			Height: ch,
		}
		img.SetFrame(geometry.Rect{Width: native.Width, Height: native.Height})
		return
	}
	img.Config.Dimensions.Crop = geometry.Rect{Width: size.Width, Height: size.Height}
	img.SetFrame(geometry.Rect{Width: fit.Width, Height: fit.Height})
}

// box returns the target size of a slot.
func (e *Engine) box(k boxKind) geometry.Size {
	w := e.width
	switch k {
	case boxVertical:
		return geometry.Size{Width: w, Height: w * 0.75}
	case boxHorizontal:
		return geometry.Size{Width: w / 2, Height: w * 2 / 3}
	default:
		return geometry.Size{Width: w, Height: w * 1.25}
	}
}

func altBox(k boxKind) boxKind {
	switch k {
	case boxHorizontal:
		return boxVertical
	default:
		return boxHorizontal
	}
}
