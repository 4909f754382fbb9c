package post

import (
	"github.com/matzehuels/postkit/pkg/errors"
)

// Format is the presentation context of a block.
type Format string

// Block formats.
const (
	FormatPost    Format = "post"
	FormatSticker Format = "sticker"
	FormatComment Format = "comment"
)

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatPost, FormatSticker, FormatComment:
		return true
	}
	return false
}

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: post, sticker, comment)", s)
	}
	return f, nil
}

// Layout names one of the canonical grid shapes of a post.
type Layout string

// Canonical layouts.
const (
	LayoutText                 Layout = "text"
	LayoutMedia                Layout = "media"
	LayoutHorizontalTextMedia  Layout = "horizontalTextMedia"
	LayoutVerticalTextMedia    Layout = "verticalTextMedia"
	LayoutVerticalMediaText    Layout = "verticalMediaText"
	LayoutHorizontalMediaMedia Layout = "horizontalMediaMedia"
	LayoutVerticalMediaMedia   Layout = "verticalMediaMedia"
	LayoutHorizontalTextText   Layout = "horizontalTextText"
)

// Layouts lists every canonical layout in a stable order.
var Layouts = []Layout{
	LayoutText,
	LayoutMedia,
	LayoutHorizontalTextMedia,
	LayoutVerticalTextMedia,
	LayoutVerticalMediaText,
	LayoutHorizontalMediaMedia,
	LayoutVerticalMediaMedia,
	LayoutHorizontalTextText,
}

// Valid reports whether l is one of the canonical layouts.
func (l Layout) Valid() bool {
	for _, known := range Layouts {
		if l == known {
			return true
		}
	}
	return false
}

// IsHorizontal reports whether the layout places its slots side by side.
func (l Layout) IsHorizontal() bool {
	switch l {
	case LayoutHorizontalTextMedia, LayoutHorizontalMediaMedia, LayoutHorizontalTextText:
		return true
	}
	return false
}

// ParseLayout converts a string into a Layout.
func ParseLayout(s string) (Layout, error) {
	l := Layout(s)
	if !l.Valid() {
		return "", errors.New(errors.ErrCodeInvalidLayout, "invalid layout: %q", s)
	}
	return l, nil
}

// Kind discriminates the Block sum type.
type Kind string

// Block kinds.
const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)
