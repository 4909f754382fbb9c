package actions

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/history"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/snap"
)

func testEnv() Env {
	n := 0
	return Env{NewID: func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}}
}

func dispatch(t *testing.T, m *history.Manager, reg *Registry, typ ActionType, args string) error {
	t.Helper()
	mut, err := reg.Build(typ, json.RawMessage(args))
	if err != nil {
		return err
	}
	return m.Dispatch(string(typ), mut)
}

func gridDoc() *post.Schema {
	s := post.New()
	s.Blocks["t"] = post.NewTextBlock("t", "title")
	s.Blocks["img"] = post.BuildImageBlock("img", post.ImageMetadata{Width: 400, Height: 400, URI: "u"})
	s.Positions = post.PositionList{{"t"}, {"img"}}
	s.Arrange(post.DefaultWidth)
	return s
}

func TestInsertThenEmptyTextDeletesNode(t *testing.T) {
	m := history.New(post.New())
	reg := NewRegistry(testEnv())

	if err := dispatch(t, m, reg, InsertTextNode, `{"x":10,"y":20,"id":"a"}`); err != nil {
		t.Fatalf("insertTextNode: %v", err)
	}
	n, ok := m.Schema().InlineNodes["a"]
	if !ok {
		t.Fatal("node a missing")
	}
	if n.Position.X != 10 || n.Position.Y != 20 {
		t.Errorf("position = (%v, %v), want (10, 20)", n.Position.X, n.Position.Y)
	}

	if err := dispatch(t, m, reg, OnChangeBlockText, `{"blockId":"a","text":""}`); err != nil {
		t.Fatalf("onChangeBlockText: %v", err)
	}
	if _, ok := m.Schema().InlineNodes["a"]; ok {
		t.Error("node a still present after emptying its text")
	}
}

func TestEmptyGridTextIsKept(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())

	if err := dispatch(t, m, reg, OnChangeBlockText, `{"blockId":"t","text":"   "}`); err != nil {
		t.Fatal(err)
	}
	tb, ok := m.Schema().Blocks["t"].(*post.TextBlock)
	if !ok {
		t.Fatal("grid text block was deleted")
	}
	if tb.Value != "   " {
		t.Errorf("value = %q, want the new whitespace text", tb.Value)
	}
}

func TestTextActionsAssertTextBlock(t *testing.T) {
	cases := []struct {
		typ  ActionType
		args string
	}{
		{ChangeTextColor, `{"blockId":"%s","color":"#fff"}`},
		{ChangeTextBackground, `{"blockId":"%s","color":"#000"}`},
		{ChangeTextAlign, `{"blockId":"%s","align":"center"}`},
		{ChangeBorderType, `{"blockId":"%s","border":"thin"}`},
		{ChangeTemplate, `{"blockId":"%s","template":"bold"}`},
		{OnChangeBlockText, `{"blockId":"%s","text":"x"}`},
	}

	for _, tt := range cases {
		t.Run(string(tt.typ), func(t *testing.T) {
			m := history.New(gridDoc())
			reg := NewRegistry(testEnv())
			before := m.Schema()

			err := dispatch(t, m, reg, tt.typ, fmt.Sprintf(tt.args, "missing"))
			if !errors.Is(err, errors.ErrCodeBlockNotFound) {
				t.Errorf("missing block: error = %v, want BLOCK_NOT_FOUND", err)
			}
			err = dispatch(t, m, reg, tt.typ, fmt.Sprintf(tt.args, "img"))
			if !errors.Is(err, errors.ErrCodeNotTextBlock) {
				t.Errorf("image block: error = %v, want NOT_TEXT_BLOCK", err)
			}
			if m.Schema() != before || m.CanUndo() {
				t.Error("failed actions changed the document")
			}

			if err := dispatch(t, m, reg, tt.typ, fmt.Sprintf(tt.args, "t")); err != nil {
				t.Errorf("text block: %v", err)
			}
		})
	}
}

func TestStylingActions(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())

	steps := []struct {
		typ  ActionType
		args string
	}{
		{ChangeTextColor, `{"blockId":"t","color":"#ff0000"}`},
		{ChangeTextBackground, `{"blockId":"t","color":"transparent"}`},
		{ChangeTextAlign, `{"blockId":"t","align":"right"}`},
		{ChangeBorderType, `{"blockId":"t","border":"rounded"}`},
		{ChangeTemplate, `{"blockId":"t","template":"quote"}`},
	}
	for _, s := range steps {
		if err := dispatch(t, m, reg, s.typ, s.args); err != nil {
			t.Fatalf("%s: %v", s.typ, err)
		}
	}

	tb := m.Schema().Blocks["t"].(*post.TextBlock)
	o := tb.Config.Overrides
	if o.Color != "#ff0000" || o.BackgroundColor != "transparent" || o.TextAlign != "right" {
		t.Errorf("overrides = %+v", o)
	}
	if tb.Config.Border != "rounded" || tb.Config.Template != "quote" {
		t.Errorf("config = %+v", tb.Config)
	}

	if err := dispatch(t, m, reg, ChangeTextColor, `{"blockId":"t","color":""}`); err != nil {
		t.Fatal(err)
	}
	if c := m.Schema().Blocks["t"].(*post.TextBlock).Config.Overrides.Color; c != "" {
		t.Errorf("color = %q, want cleared", c)
	}

	invalid := []struct {
		typ  ActionType
		args string
		code errors.Code
	}{
		{ChangeTextColor, `{"blockId":"t","color":"red"}`, errors.ErrCodeInvalidArgs},
		{ChangeTextAlign, `{"blockId":"t","align":"middle"}`, errors.ErrCodeInvalidArgs},
		{ChangeBorderType, `{"blockId":"t","border":"zigzag"}`, errors.ErrCodeInvalidPreset},
		{ChangeTemplate, `{"blockId":"t","template":"comic"}`, errors.ErrCodeInvalidPreset},
	}
	for _, tt := range invalid {
		if err := dispatch(t, m, reg, tt.typ, tt.args); !errors.Is(err, tt.code) {
			t.Errorf("%s %s: error = %v, want %s", tt.typ, tt.args, err, tt.code)
		}
	}
}

func TestDeleteActions(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())

	if err := dispatch(t, m, reg, DeleteBlock, `{"blockId":"t"}`); err != nil {
		t.Fatal(err)
	}
	s := m.Schema()
	if _, ok := s.Blocks["t"]; ok || s.Positions.Key() != "img" {
		t.Errorf("after delete: blocks %v positions %q", s.Blocks.IDs(), s.Positions.Key())
	}
	if y := s.Blocks["img"].Base().FrameRect().Y; y != 0 {
		t.Errorf("img y = %v, want 0 after the row above was removed", y)
	}

	if err := dispatch(t, m, reg, DeleteBlock, `{"blockId":"t"}`); !errors.Is(err, errors.ErrCodeBlockNotFound) {
		t.Errorf("second delete error = %v, want BLOCK_NOT_FOUND", err)
	}
	if err := dispatch(t, m, reg, DeleteNode, `{"nodeId":"n"}`); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("delete missing node error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestFrameActions(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())
	_ = dispatch(t, m, reg, InsertTextNode, `{"id":"n","x":1,"y":2}`)

	if err := dispatch(t, m, reg, UpdateNodeFrame, `{"nodeId":"n","x":50,"y":60,"scale":2,"rotate":45}`); err != nil {
		t.Fatal(err)
	}
	want := post.NodePosition{X: 50, Y: 60, Scale: 2, Rotate: 45}
	if got := m.Schema().InlineNodes["n"].Position; got != want {
		t.Errorf("position = %+v, want %+v", got, want)
	}
	if err := dispatch(t, m, reg, UpdateNodeFrame, `{"nodeId":"n","x":0,"y":0,"scale":0}`); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("zero scale error = %v, want INVALID_ARGS", err)
	}

	if err := dispatch(t, m, reg, UpdateBlockFrame, `{"blockId":"n","frame":{"x":0,"y":0,"width":120,"height":40}}`); err != nil {
		t.Fatal(err)
	}
	if got := m.Schema().InlineNodes["n"].Block.Base().FrameRect(); !got.Equal(geometry.Rect{Width: 120, Height: 40}) {
		t.Errorf("node frame = %+v", got)
	}

	if !reg.Spec(UpdateNodeFrame).IgnorableForUndo || !reg.Spec(UpdateBlockFrame).IgnorableForUndo {
		t.Error("frame updates should be ignorable for undo")
	}
	if reg.Spec(InsertTextNode).IgnorableForUndo {
		t.Error("insertTextNode should be tracked")
	}
}

func TestSetLayoutPrunesOrphans(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())

	if err := dispatch(t, m, reg, SetLayout, `{"format":"post","layout":"media"}`); err != nil {
		t.Fatal(err)
	}
	s := m.Schema()
	if s.Positions.Key() != "img" {
		t.Errorf("positions = %q, want img", s.Positions.Key())
	}
	if _, ok := s.Blocks["t"]; ok {
		t.Error("orphaned text block kept")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("document invalid after setLayout: %v", err)
	}

	if err := dispatch(t, m, reg, SetLayout, `{"format":"post","layout":"diagonal"}`); !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("unknown layout error = %v, want INVALID_LAYOUT", err)
	}
	if err := dispatch(t, m, reg, SetLayout, `{"format":"story","layout":"media"}`); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format error = %v, want INVALID_FORMAT", err)
	}
}

func TestCommitSnap(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())
	_ = dispatch(t, m, reg, InsertTextNode, `{"id":"n","x":0,"y":0,"text":"hello"}`)

	s := m.Schema()
	dragged := s.InlineNodes["n"].Block
	v := snap.SnapBlock(snap.Bottom, s.Blocks["t"], dragged, s.Blocks, s.Positions)

	if err := m.Dispatch(string(CommitSnap), reg.Env().CommitSnap(CommitSnapArgs{BlockID: "n", Blocks: v.Blocks, Positions: v.Positions})); err != nil {
		t.Fatalf("commitSnap: %v", err)
	}
	got := m.Schema()
	if got.Positions.Key() != "t|n|img" {
		t.Errorf("positions = %q, want t|n|img", got.Positions.Key())
	}
	if _, ok := got.InlineNodes["n"]; ok {
		t.Error("dragged node still floating")
	}
	if got.Blocks["n"].Base().Format != post.FormatPost {
		t.Error("snapped text kept its node format")
	}

	m.Undo()
	if _, ok := m.Schema().InlineNodes["n"]; !ok {
		t.Error("undo did not restore the floating node")
	}

	bad := CommitSnapArgs{BlockID: "n", Blocks: v.Blocks, Positions: post.PositionList{{"t"}, {"img"}}}
	if err := m.Dispatch(string(CommitSnap), reg.Env().CommitSnap(bad)); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("candidate without the block: error = %v, want INVALID_ARGS", err)
	}
}

func TestInsertImageAndDetach(t *testing.T) {
	m := history.New(gridDoc())
	reg := NewRegistry(testEnv())

	if err := dispatch(t, m, reg, InsertImageBlock, `{"image":{"width":800,"height":400,"uri":"file:///b.jpg","mimeType":"image/jpeg"}}`); err != nil {
		t.Fatal(err)
	}
	s := m.Schema()
	if s.Positions.Key() != "t|img|id-1" {
		t.Fatalf("positions = %q", s.Positions.Key())
	}
	if f := s.Blocks["id-1"].Base().FrameRect(); f.Width != post.DefaultWidth || f.Height != post.DefaultWidth/2 {
		t.Errorf("image frame = %+v", f)
	}
	if err := dispatch(t, m, reg, InsertImageBlock, `{"image":{"width":0,"height":400,"uri":"x"}}`); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("zero width error = %v, want INVALID_ARGS", err)
	}

	if err := dispatch(t, m, reg, DetachBlock, `{"blockId":"t","x":5,"y":6}`); err != nil {
		t.Fatal(err)
	}
	s = m.Schema()
	if _, ok := s.InlineNodes["t"]; !ok || s.Positions.Contains("t") {
		t.Error("detached block not moved to the floating nodes")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("document invalid after detach: %v", err)
	}
}

func TestChangeFormat(t *testing.T) {
	s := gridDoc()
	s.Blocks["p"] = post.NewImagePlaceholder("p")
	s.Positions = append(s.Positions, post.Row{"p"})
	m := history.New(s)
	reg := NewRegistry(testEnv())

	if err := dispatch(t, m, reg, ChangeFormat, `{"blockId":"t","format":"comment"}`); err != nil {
		t.Fatal(err)
	}
	if f := m.Schema().Blocks["t"].Base().Format; f != post.FormatComment {
		t.Errorf("format = %v, want comment", f)
	}
	if err := dispatch(t, m, reg, ChangeFormat, `{"blockId":"p","format":"sticker"}`); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("placeholder sticker error = %v, want INVALID_FORMAT", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(Env{})

	if _, err := reg.Build("teleport", nil); !errors.Is(err, errors.ErrCodeUnknownAction) {
		t.Errorf("Build(teleport) error = %v, want UNKNOWN_ACTION", err)
	}
	if _, err := reg.Build(DeleteBlock, json.RawMessage(`{"blockId":`)); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("Build(bad json) error = %v, want INVALID_ARGS", err)
	}
	if got := len(reg.Types()); got != 16 {
		t.Errorf("len(Types()) = %d, want 16", got)
	}

	err := reg.Register(Spec{Type: "noop", Factory: func(Env, json.RawMessage) (history.Mutator, error) {
		return func(*post.Schema) error { return nil }, nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Lookup("noop"); !ok {
		t.Error("registered action not found")
	}
	if err := reg.Register(Spec{Type: "broken"}); err == nil {
		t.Error("Register() without a factory should fail")
	}
}
