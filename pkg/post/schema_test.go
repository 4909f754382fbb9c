package post

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
)

func sample() *Schema {
	s := New()
	s.Blocks["t1"] = NewTextBlock("t1", "hello")
	s.Blocks["img1"] = BuildImageBlock("img1", ImageMetadata{Width: 400, Height: 200, URI: "file:///a.jpg", MimeType: "image/jpeg"})
	s.Blocks["t2"] = NewTextBlock("t2", "world")
	s.Positions = PositionList{{"t1"}, {"img1", "t2"}}
	s.InlineNodes["n1"] = EditableNode{
		Block:    NewTextBlock("n1", "floating"),
		Position: NodePosition{X: 10, Y: 20, Scale: 1},
	}
	return s
}

func TestPositionListHelpers(t *testing.T) {
	p := PositionList{{"a"}, {"b", "c"}, {"d"}}

	if row, col := p.Find("c"); row != 1 || col != 1 {
		t.Errorf("Find(c) = (%d, %d), want (1, 1)", row, col)
	}
	if row, col := p.Find("zz"); row != -1 || col != -1 {
		t.Errorf("Find(zz) = (%d, %d), want (-1, -1)", row, col)
	}
	if got := p.Key(); got != "a|b,c|d" {
		t.Errorf("Key() = %q, want %q", got, "a|b,c|d")
	}
	if got := p.Remove("a").Key(); got != "b,c|d" {
		t.Errorf("Remove(a).Key() = %q, want %q", got, "b,c|d")
	}
	if got := p.Remove("b").Key(); got != "a|c|d" {
		t.Errorf("Remove(b).Key() = %q, want %q", got, "a|c|d")
	}
	if got := p.IDs(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("IDs() = %v", got)
	}

	c := p.Clone()
	c[1][0] = "x"
	if p[1][0] != "b" {
		t.Error("Clone() shares row storage with the original")
	}
}

func TestRowUnmarshal(t *testing.T) {
	var p PositionList
	if err := json.Unmarshal([]byte(`["a", ["b", "c"]]`), &p); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got := p.Key(); got != "a|b,c" {
		t.Errorf("Key() = %q, want %q", got, "a|b,c")
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(out) != `[["a"],["b","c"]]` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Schema)
		ok     bool
	}{
		{"valid", func(s *Schema) {}, true},
		{"unknown id in positions", func(s *Schema) { s.Positions = append(s.Positions, Row{"ghost"}) }, false},
		{"duplicate id", func(s *Schema) { s.Positions = append(s.Positions, Row{"t1"}) }, false},
		{"missing from positions", func(s *Schema) { s.Positions = s.Positions.Remove("t2") }, false},
		{"empty row", func(s *Schema) { s.Positions = append(s.Positions, Row{}) }, false},
		{"id mismatch", func(s *Schema) { s.Blocks["t1"].Base().ID = "other" }, false},
		{"node also in grid", func(s *Schema) {
			s.InlineNodes["t1"] = EditableNode{Block: NewTextBlock("t1", "x")}
		}, false},
		{"sticker placeholder", func(s *Schema) {
			p := NewImagePlaceholder("p")
			p.Format = FormatSticker
			s.Blocks["p"] = p
			s.Positions = append(s.Positions, Row{"p"})
		}, false},
		{"post placeholder", func(s *Schema) {
			s.Blocks["p"] = NewImagePlaceholder("p")
			s.Positions = append(s.Positions, Row{"p"})
		}, true},
		{"bad color", func(s *Schema) {
			s.Blocks["t1"].(*TextBlock).Config.Overrides.Color = "red"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sample()
			tt.mutate(s)
			err := s.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidDocument) {
				t.Errorf("Validate() code = %v, want INVALID_DOCUMENT", errors.GetCode(err))
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sample()
	c := s.Clone()

	c.Blocks["t1"].(*TextBlock).Value = "changed"
	c.Blocks["img1"].Base().Frame.Width = 1
	c.InlineNodes["n1"].Block.(*TextBlock).Value = "changed"
	c.Positions[0][0] = "x"

	if s.Blocks["t1"].(*TextBlock).Value != "hello" {
		t.Error("text value shared")
	}
	if s.Blocks["img1"].Base().Frame.Width != DefaultWidth {
		t.Error("frame shared")
	}
	if s.InlineNodes["n1"].Block.(*TextBlock).Value != "floating" {
		t.Error("node block shared")
	}
	if s.Positions[0][0] != "t1" {
		t.Error("positions shared")
	}
}

func TestArrange(t *testing.T) {
	s := sample()
	s.Arrange(DefaultWidth)

	t1 := s.Blocks["t1"].Base().FrameRect()
	if !t1.Equal(geometry.Rect{X: 0, Y: 0, Width: DefaultWidth, Height: DefaultTextHeight}) {
		t.Errorf("t1 frame = %+v", t1)
	}

	img := s.Blocks["img1"].Base().FrameRect()
	if img.X != 0 || img.Y != DefaultTextHeight {
		t.Errorf("img1 origin = (%v, %v), want (0, %v)", img.X, img.Y, DefaultTextHeight)
	}

	t2 := s.Blocks["t2"].Base().FrameRect()
	if t2.X != img.Width || t2.Y != img.Y {
		t.Errorf("t2 origin = (%v, %v), want (%v, %v)", t2.X, t2.Y, img.Width, img.Y)
	}
}

func TestSchemaBlockLookup(t *testing.T) {
	s := sample()
	if _, ok := s.Block("t1"); !ok {
		t.Error("Block(t1) not found")
	}
	if _, ok := s.Block("n1"); !ok {
		t.Error("Block(n1) not found among nodes")
	}
	if _, ok := s.Block("zz"); ok {
		t.Error("Block(zz) found")
	}

	if _, err := s.TextBlock("img1"); !errors.Is(err, errors.ErrCodeNotTextBlock) {
		t.Errorf("TextBlock(img1) error = %v, want NOT_TEXT_BLOCK", err)
	}
	if _, err := s.TextBlock("zz"); !errors.Is(err, errors.ErrCodeBlockNotFound) {
		t.Errorf("TextBlock(zz) error = %v, want BLOCK_NOT_FOUND", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := sample()
	s.Blocks["p"] = NewImagePlaceholder("p")
	s.Positions = append(s.Positions, Row{"p"})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
	if _, ok := got.Blocks["img1"].(*ImageBlock); !ok {
		t.Errorf("img1 decoded as %T", got.Blocks["img1"])
	}
	if !IsImagePlaceholder(got.Blocks["p"]) {
		t.Error("placeholder lost its nil value")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"blocks":{"a":{"type":"video","id":"a"}},"positions":[["a"]]}`))
	if !errors.Is(err, errors.ErrCodeInvalidDocument) {
		t.Errorf("Decode() error = %v, want INVALID_DOCUMENT", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	s := sample()
	s.Arrange(DefaultWidth)

	e := s.Export()
	for id, b := range e.Blocks {
		if b.Base().Frame != nil {
			t.Errorf("export kept frame of %s", id)
		}
	}
	if s.Blocks["t1"].Base().Frame == nil {
		t.Error("Export() cleared the frames of the live document")
	}

	back, err := FromExport(e, DefaultWidth)
	if err != nil {
		t.Fatalf("FromExport() error: %v", err)
	}
	if back.Positions.Key() != s.Positions.Key() {
		t.Errorf("positions = %q, want %q", back.Positions.Key(), s.Positions.Key())
	}
	if back.Blocks["t1"].Base().Frame == nil {
		t.Error("FromExport() did not lay out the grid")
	}
}

func TestPredicates(t *testing.T) {
	text := NewTextBlock("t", "")
	img := BuildImageBlock("i", ImageMetadata{Width: 10, Height: 10, URI: "u"})
	ph := NewImagePlaceholder("p")

	tests := []struct {
		name                          string
		b                             Block
		isText, isImage, hasImg, isPh bool
	}{
		{"text", text, true, false, false, false},
		{"image", img, false, true, true, false},
		{"placeholder", ph, false, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsTextBlock(tt.b) != tt.isText {
				t.Errorf("IsTextBlock = %v, want %v", !tt.isText, tt.isText)
			}
			if IsImageBlock(tt.b) != tt.isImage {
				t.Errorf("IsImageBlock = %v, want %v", !tt.isImage, tt.isImage)
			}
			if IsImageBlockWithImage(tt.b) != tt.hasImg {
				t.Errorf("IsImageBlockWithImage = %v, want %v", !tt.hasImg, tt.hasImg)
			}
			if IsImagePlaceholder(tt.b) != tt.isPh {
				t.Errorf("IsImagePlaceholder = %v, want %v", !tt.isPh, tt.isPh)
			}
		})
	}
}
