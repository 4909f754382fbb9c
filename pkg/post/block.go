package post

import (
	"github.com/matzehuels/postkit/pkg/geometry"
)

// Block is a text or image unit of content with a stable id.
//
// The set of implementations is closed: *TextBlock and *ImageBlock. Consumers
// switch on the concrete type.
type Block interface {
	// Base returns the fields shared by every block kind. The pointer aliases
	// the block, so writes through it mutate the block.
	Base() *BlockBase
	// Kind returns the discriminator used in the JSON encoding.
	Kind() Kind
	// Clone returns a deep copy.
	Clone() Block

	sealed()
}

// BlockBase holds the fields common to every block kind.
type BlockBase struct {
	ID           string `json:"id"`
	Format       Format `json:"format"`
	Layout       Layout `json:"layout"`
	Required     bool   `json:"required,omitempty"`
	AutoInserted bool   `json:"autoInserted,omitempty"`
	// Frame is computed by the layout and snap engines; it is never the
	// source of truth for the arrangement.
	Frame *geometry.Rect `json:"frame,omitempty"`
}

// FrameRect returns the frame or the zero Rect when it is not measured yet.
func (b *BlockBase) FrameRect() geometry.Rect {
	if b.Frame == nil {
		return geometry.Rect{}
	}
	return *b.Frame
}

// SetFrame stores a copy of r as the block frame.
func (b *BlockBase) SetFrame(r geometry.Rect) {
	b.Frame = &r
}

func (b BlockBase) clone() BlockBase {
	out := b
	if b.Frame != nil {
		f := *b.Frame
		out.Frame = &f
	}
	return out
}

// TextOverrides are per-block styling overrides on top of the template.
type TextOverrides struct {
	Color           string   `json:"color,omitempty" toml:"color"`
	BackgroundColor string   `json:"backgroundColor,omitempty" toml:"background_color"`
	TextAlign       string   `json:"textAlign,omitempty" toml:"text_align"`
	FontSize        *float64 `json:"fontSize,omitempty" toml:"font_size"`
	MaxWidth        *float64 `json:"maxWidth,omitempty" toml:"max_width"`
	NumberOfLines   *int     `json:"numberOfLines,omitempty" toml:"number_of_lines"`
}

func (o TextOverrides) clone() TextOverrides {
	out := o
	if o.FontSize != nil {
		v := *o.FontSize
		out.FontSize = &v
	}
	if o.MaxWidth != nil {
		v := *o.MaxWidth
		out.MaxWidth = &v
	}
	if o.NumberOfLines != nil {
		v := *o.NumberOfLines
		out.NumberOfLines = &v
	}
	return out
}

// TextConfig is the configuration of a text block.
type TextConfig struct {
	Template  string        `json:"template,omitempty"`
	Border    string        `json:"border,omitempty"`
	Overrides TextOverrides `json:"overrides"`
}

// TextBlock is a block holding a string value.
type TextBlock struct {
	BlockBase
	Value  string     `json:"value"`
	Config TextConfig `json:"config"`
}

func (b *TextBlock) Base() *BlockBase { return &b.BlockBase }
func (b *TextBlock) Kind() Kind       { return KindText }
func (b *TextBlock) sealed()          {}

// Clone returns a deep copy of the text block.
func (b *TextBlock) Clone() Block {
	out := *b
	out.BlockBase = b.BlockBase.clone()
	out.Config.Overrides = b.Config.Overrides.clone()
	return &out
}

// ImageContainer is a resolved image (or video poster) handed over by the
// image/export subsystem.
type ImageContainer struct {
	URI      string  `json:"uri"`
	MimeType string  `json:"mimeType,omitempty"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Duration float64 `json:"duration,omitempty"`
}

// ImageRect is the intrinsic size of an image plus the visible crop region
// in intrinsic coordinates.
type ImageRect struct {
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Crop   geometry.Rect `json:"crop"`
}

// ImageConfig is the configuration of an image block.
type ImageConfig struct {
	Dimensions ImageRect `json:"dimensions"`
}

// ImageBlock is a block holding an image. A nil Value marks a placeholder
// awaiting an image.
type ImageBlock struct {
	BlockBase
	Value  *ImageContainer `json:"value"`
	Config ImageConfig     `json:"config"`
}

func (b *ImageBlock) Base() *BlockBase { return &b.BlockBase }
func (b *ImageBlock) Kind() Kind       { return KindImage }
func (b *ImageBlock) sealed()          {}

// Clone returns a deep copy of the image block.
func (b *ImageBlock) Clone() Block {
	out := *b
	out.BlockBase = b.BlockBase.clone()
	if b.Value != nil {
		v := *b.Value
		out.Value = &v
	}
	return &out
}

// IntrinsicSize returns the natural size of the image, falling back to the
// container metadata and then to the current frame.
func (b *ImageBlock) IntrinsicSize() geometry.Size {
	if d := b.Config.Dimensions; d.Width > 0 && d.Height > 0 {
		return geometry.Size{Width: d.Width, Height: d.Height}
	}
	if v := b.Value; v != nil && v.Width > 0 && v.Height > 0 {
		return geometry.Size{Width: v.Width, Height: v.Height}
	}
	return b.FrameRect().Size()
}

// ImageMetadata is what the image subsystem reports for a picked image.
type ImageMetadata struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	MimeType string  `json:"mimeType"`
	URI      string  `json:"uri"`
	Duration float64 `json:"duration,omitempty"`
}

// NewTextBlock returns a grid text block in the post format.
func NewTextBlock(id, value string) *TextBlock {
	return &TextBlock{
		BlockBase: BlockBase{ID: id, Format: FormatPost, Layout: LayoutVerticalMediaText},
		Value:     value,
	}
}

// NewImagePlaceholder returns an image block without an image. Placeholders
// only exist in the post format.
func NewImagePlaceholder(id string) *ImageBlock {
	return &ImageBlock{
		BlockBase: BlockBase{ID: id, Format: FormatPost, Layout: LayoutMedia, AutoInserted: true},
	}
}

// BuildImageBlock returns an image block for resolved image metadata. The
// frame is the intrinsic size scaled to the post width.
func BuildImageBlock(id string, meta ImageMetadata) *ImageBlock {
	b := &ImageBlock{
		BlockBase: BlockBase{ID: id, Format: FormatPost, Layout: LayoutMedia},
		Value: &ImageContainer{
			URI:      meta.URI,
			MimeType: meta.MimeType,
			Width:    meta.Width,
			Height:   meta.Height,
			Duration: meta.Duration,
		},
		Config: ImageConfig{Dimensions: ImageRect{
			Width:  meta.Width,
			Height: meta.Height,
			Crop:   geometry.Rect{Width: meta.Width, Height: meta.Height},
		}},
	}
	size := geometry.Size{Width: meta.Width, Height: meta.Height}.FitWidth(DefaultWidth)
	b.SetFrame(geometry.Rect{Width: size.Width, Height: size.Height})
	return b
}

// IsTextBlock reports whether b is a text block.
func IsTextBlock(b Block) bool {
	_, ok := b.(*TextBlock)
	return ok
}

// IsImageBlock reports whether b is an image block, placeholder or not.
func IsImageBlock(b Block) bool {
	_, ok := b.(*ImageBlock)
	return ok
}

// IsImageBlockWithImage reports whether b is an image block holding an image.
func IsImageBlockWithImage(b Block) bool {
	img, ok := b.(*ImageBlock)
	return ok && img.Value != nil
}

// IsImagePlaceholder reports whether b is an image block awaiting an image.
func IsImagePlaceholder(b Block) bool {
	img, ok := b.(*ImageBlock)
	return ok && img.Value == nil
}
