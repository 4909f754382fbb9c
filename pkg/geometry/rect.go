// Package geometry provides the axis-aligned rectangle and point primitives
// used by the layout and snap engines.
//
// All values are immutable by convention: every operation returns a new
// value and never mutates its receiver. Coordinates are in post units with
// the origin at the top-left corner and y growing downwards.
package geometry

import "math"

const eps = 1e-9

// Point is a position in post coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceSquared returns the squared Euclidean distance between a and b.
// Threshold comparisons square the radius instead of taking a square root.
func DistanceSquared(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Within reports whether b lies within radius of a.
func Within(a, b Point, radius float64) bool {
	return DistanceSquared(a, b) <= radius*radius
}

// Size is a width/height pair without an origin.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the size has zero or negative area.
func (s Size) IsEmpty() bool { return s.Width <= 0 || s.Height <= 0 }

// AspectFit scales s uniformly so that it fits entirely inside box.
func (s Size) AspectFit(box Size) Size {
	if s.IsEmpty() {
		return box
	}
	f := math.Min(box.Width/s.Width, box.Height/s.Height)
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// AspectFill scales s uniformly so that it covers box entirely.
func (s Size) AspectFill(box Size) Size {
	if s.IsEmpty() {
		return box
	}
	f := math.Max(box.Width/s.Width, box.Height/s.Height)
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// FitWidth scales s uniformly so that its width equals width.
func (s Size) FitWidth(width float64) Size {
	if s.IsEmpty() {
		return Size{Width: width, Height: s.Height}
	}
	return Size{Width: width, Height: s.Height * width / s.Width}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FromEdges builds a rect from its left, top, right and bottom edges.
func FromEdges(left, top, right, bottom float64) Rect {
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// MaxX returns the x coordinate of the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the y coordinate of the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// MidX returns the horizontal center.
func (r Rect) MidX() float64 { return r.X + r.Width/2 }

// MidY returns the vertical center.
func (r Rect) MidY() float64 { return r.Y + r.Height/2 }

// Center returns the center point.
func (r Rect) Center() Point { return Point{X: r.MidX(), Y: r.MidY()} }

// Size returns the width/height of the rect.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// IsEmpty reports whether the rect has zero or negative area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Intersects reports whether r and o overlap with a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).IsEmpty()
}

// Union returns the smallest rect containing both rects. Empty rects are
// ignored so that a zero Rect can be used as the identity.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return FromEdges(
		math.Min(r.X, o.X),
		math.Min(r.Y, o.Y),
		math.Max(r.MaxX(), o.MaxX()),
		math.Max(r.MaxY(), o.MaxY()),
	)
}

// UnionAll folds Union over rects.
func UnionAll(rects ...Rect) Rect {
	var out Rect
	for _, r := range rects {
		out = out.Union(r)
	}
	return out
}

// Intersect returns the overlapping area of r and o, or the zero Rect when
// they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	left := math.Max(r.X, o.X)
	top := math.Max(r.Y, o.Y)
	right := math.Min(r.MaxX(), o.MaxX())
	bottom := math.Min(r.MaxY(), o.MaxY())
	if right-left <= eps || bottom-top <= eps {
		return Rect{}
	}
	return FromEdges(left, top, right, bottom)
}

// Scale multiplies origin and size by f.
func (r Rect) Scale(f float64) Rect {
	return r.ScaleXY(f, f)
}

// ScaleXY multiplies the horizontal and vertical components independently.
func (r Rect) ScaleXY(fx, fy float64) Rect {
	return Rect{X: r.X * fx, Y: r.Y * fy, Width: r.Width * fx, Height: r.Height * fy}
}

// Inflate grows the rect by dx on the left and right and by dy on the top
// and bottom. Negative values shrink it.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// Translate moves the rect by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// WithOrigin returns r moved to (x, y).
func (r Rect) WithOrigin(x, y float64) Rect {
	return Rect{X: x, Y: y, Width: r.Width, Height: r.Height}
}

// WithSize returns r resized, keeping its origin.
func (r Rect) WithSize(s Size) Rect {
	return Rect{X: r.X, Y: r.Y, Width: s.Width, Height: s.Height}
}

// ScaleAround scales the rect by f around its center.
func (r Rect) ScaleAround(f float64) Rect {
	w, h := r.Width*f, r.Height*f
	return Rect{X: r.MidX() - w/2, Y: r.MidY() - h/2, Width: w, Height: h}
}

// Rotate returns the axis-aligned bounding box of r rotated by deg degrees
// around its center.
func (r Rect) Rotate(deg float64) Rect {
	rad := deg * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	w := r.Width*cos + r.Height*sin
	h := r.Width*sin + r.Height*cos
	return Rect{X: r.MidX() - w/2, Y: r.MidY() - h/2, Width: w, Height: h}
}

// Equal reports whether r and o are equal within a small tolerance.
func (r Rect) Equal(o Rect) bool {
	return math.Abs(r.X-o.X) < eps && math.Abs(r.Y-o.Y) < eps &&
		math.Abs(r.Width-o.Width) < eps && math.Abs(r.Height-o.Height) < eps
}
