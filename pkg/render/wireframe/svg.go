// Package wireframe renders a post document as a structural SVG preview.
//
// Grid blocks are drawn at their frames, floating nodes with their
// translate, rotate and scale transform, and snap guides as markers just
// outside their target. Text is drawn on one line with an approximate font
// size; the output shows structure, not typography.
//
//	svg := wireframe.RenderSVG(doc,
//	    wireframe.WithPresets(catalog),
//	    wireframe.WithGuides(points, activeKey),
//	)
package wireframe

import (
	"bytes"
	"fmt"
	"math"

	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/presets"
	"github.com/matzehuels/postkit/pkg/snap"
)

const css = `
    .block { stroke: #8a8a8e; stroke-width: 1; }
    .image { fill: #dfe3ea; }
    .placeholder { fill: none; stroke-dasharray: 6 4; }
    .label { font-family: -apple-system, 'Helvetica Neue', sans-serif; dominant-baseline: middle; }
    .guide { fill: #ffffff; stroke: #0a84ff; stroke-width: 2; }
    .guide.active { fill: #0a84ff; }
    .candidate { fill: none; stroke: #0a84ff; stroke-dasharray: 4 3; }`

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	width   float64
	catalog *presets.Catalog
	guides  []snap.SnapPoint
	active  string
	padding float64
}

// WithWidth sets the post width. Defaults to post.DefaultWidth.
func WithWidth(w float64) Option {
	return func(r *renderer) {
		if w > 0 {
			r.width = w
		}
	}
}

// WithPresets resolves template colors and borders from src.
func WithPresets(src presets.Source) Option {
	return func(r *renderer) {
		if src != nil {
			r.catalog = src.Catalog()
		}
	}
}

// WithGuides draws the snap guides of points. The guide whose key equals
// active is highlighted together with its candidate frame.
func WithGuides(points []snap.SnapPoint, active string) Option {
	return func(r *renderer) {
		r.guides = points
		r.active = active
	}
}

// RenderSVG returns the SVG preview of s.
func RenderSVG(s *post.Schema, opts ...Option) []byte {
	r := renderer{width: post.DefaultWidth, catalog: presets.Default(), padding: snap.DefaultIndicatorSize}
	for _, opt := range opts {
		opt(&r)
	}

	view := r.viewBox(s)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		view.X, view.Y, view.Width, view.Height, view.Width, view.Height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", css)
	fmt.Fprintf(&buf, `  <rect class="post" x="0" y="0" width="%.1f" height="%.1f" fill="#ffffff"/>`+"\n",
		r.width, gridHeight(s))

	for _, id := range s.Positions.IDs() {
		if b, ok := s.Blocks[id]; ok {
			r.block(&buf, b, b.Base().FrameRect(), "")
		}
	}
	for _, id := range s.InlineNodes.IDs() {
		n := s.InlineNodes[id]
		if n.Block == nil {
			continue
		}
		r.node(&buf, n)
	}
	for _, g := range r.guides {
		r.guide(&buf, g)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) viewBox(s *post.Schema) geometry.Rect {
	bounds := geometry.Rect{Width: r.width, Height: max(gridHeight(s), post.DefaultTextHeight)}
	for _, n := range s.InlineNodes {
		bounds = bounds.Union(n.Bounds())
	}
	for _, g := range r.guides {
		half := r.padding / 2
		bounds = bounds.Union(geometry.Rect{X: g.Indicator.X - half, Y: g.Indicator.Y - half, Width: r.padding, Height: r.padding})
	}
	return bounds
}

func gridHeight(s *post.Schema) float64 {
	var h float64
	for _, b := range s.Blocks {
		h = max(h, b.Base().FrameRect().MaxY())
	}
	return h
}

func (r *renderer) node(buf *bytes.Buffer, n post.EditableNode) {
	f := n.Block.Base().FrameRect()
	local := geometry.Rect{Width: f.Width, Height: f.Height}
	scale := n.Position.Scale
	if scale <= 0 {
		scale = 1
	}
	cx, cy := local.MidX(), local.MidY()
	fmt.Fprintf(buf, `  <g class="node" id="node-%s" transform="translate(%.1f %.1f) rotate(%.1f %.1f %.1f) translate(%.1f %.1f) scale(%.3f) translate(%.1f %.1f)">`+"\n",
		escape(n.Block.Base().ID), n.Position.X, n.Position.Y, n.Position.Rotate, cx, cy, cx, cy, scale, -cx, -cy)
	r.block(buf, n.Block, local, "  ")
	buf.WriteString("  </g>\n")
}

func (r *renderer) block(buf *bytes.Buffer, b post.Block, f geometry.Rect, indent string) {
	id := escape(b.Base().ID)
	switch v := b.(type) {
	case *post.TextBlock:
		fill, color := r.textColors(v)
		stroke, radius := r.border(v.Config.Border)
		fmt.Fprintf(buf, `%s  <rect class="block text" id="block-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke-width="%.1f"/>`+"\n",
			indent, id, f.X, f.Y, f.Width, f.Height, radius, fill, stroke)
		r.text(buf, v, f, color, indent)
	case *post.ImageBlock:
		if v.Value == nil {
			fmt.Fprintf(buf, `%s  <rect class="block placeholder" id="block-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
				indent, id, f.X, f.Y, f.Width, f.Height)
			return
		}
		fmt.Fprintf(buf, `%s  <rect class="block image" id="block-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
			indent, id, f.X, f.Y, f.Width, f.Height)
		label := fmt.Sprintf("%.0f×%.0f", v.Value.Width, v.Value.Height)
		size := fontSize(f.Width, f.Height, len(label), 0)
		fmt.Fprintf(buf, `%s  <text class="label" x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" fill="#5a5a5e">%s</text>`+"\n",
			indent, f.MidX(), f.MidY(), size, escape(label))
	}
}

func (r *renderer) text(buf *bytes.Buffer, b *post.TextBlock, f geometry.Rect, color, indent string) {
	if b.Value == "" {
		return
	}
	var template float64
	if t, err := r.catalog.Template(b.Config.Template); err == nil {
		template = t.FontSize
	}
	if b.Config.Overrides.FontSize != nil {
		template = *b.Config.Overrides.FontSize
	}
	size := fontSize(f.Width, f.Height, len([]rune(b.Value)), template)

	x, anchor := f.MidX(), "middle"
	switch b.Config.Overrides.TextAlign {
	case "left", "justify":
		x, anchor = f.X+textInset, "start"
	case "right":
		x, anchor = f.MaxX()-textInset, "end"
	}
	fmt.Fprintf(buf, `%s  <text class="label" x="%.1f" y="%.1f" font-size="%.1f" text-anchor="%s" fill="%s">%s</text>`+"\n",
		indent, x, f.MidY(), size, anchor, color, escape(truncate(b.Value, f.Width, size)))
}

func (r *renderer) textColors(b *post.TextBlock) (fill, color string) {
	fill, color = "transparent", "#111111"
	if t, err := r.catalog.Template(b.Config.Template); err == nil {
		fill, color = or(t.Background, fill), or(t.Color, color)
	}
	o := b.Config.Overrides
	return or(o.BackgroundColor, fill), or(o.Color, color)
}

func (r *renderer) border(name string) (width, radius float64) {
	if name == "" {
		return 1, 0
	}
	bd, err := r.catalog.Border(name)
	if err != nil {
		return 1, 0
	}
	return bd.Width, math.Min(bd.Radius, 999)
}

func (r *renderer) guide(buf *bytes.Buffer, g snap.SnapPoint) {
	class := "guide"
	if g.Key == r.active {
		class += " active"
		bg := g.Background
		fmt.Fprintf(buf, `  <rect class="candidate" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
			bg.X, bg.Y, bg.Width, bg.Height)
	}
	fmt.Fprintf(buf, `  <circle class="%s" data-key="%s" data-direction="%s" cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
		class, escape(g.Key), g.Direction, g.Indicator.X, g.Indicator.Y, r.padding/2)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
