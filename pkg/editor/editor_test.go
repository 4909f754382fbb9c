package editor

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/snap"
)

func testDoc() *post.Schema {
	s := post.New()
	s.Blocks["t"] = post.NewTextBlock("t", "title")
	s.Blocks["img"] = post.BuildImageBlock("img", post.ImageMetadata{Width: 400, Height: 400, URI: "file:///a.jpg"})
	s.Positions = post.PositionList{{"t"}, {"img"}}
	s.Arrange(post.DefaultWidth)
	return s
}

func testOptions() Options {
	n := 0
	return Options{NewID: func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}}
}

func do(t *testing.T, ed *Editor, typ actions.ActionType, args string) {
	t.Helper()
	if err := ed.Do(typ, json.RawMessage(args)); err != nil {
		t.Fatalf("Do(%s): %v", typ, err)
	}
}

func TestEditorDoUndoRedo(t *testing.T) {
	ed := New(testDoc(), testOptions())

	do(t, ed, actions.InsertTextNode, `{"x":10,"y":20}`)
	if _, ok := ed.Schema().InlineNodes["gen-1"]; !ok {
		t.Fatal("generated node id not used")
	}
	do(t, ed, actions.ChangeTextColor, `{"blockId":"gen-1","color":"#abc"}`)

	if !ed.Undo() {
		t.Fatal("Undo() = false")
	}
	if c := ed.Schema().InlineNodes["gen-1"].Block.(*post.TextBlock).Config.Overrides.Color; c != "" {
		t.Errorf("color after undo = %q, want empty", c)
	}
	if !ed.CanRedo() || !ed.Redo() {
		t.Fatal("Redo() failed")
	}
	if c := ed.Schema().InlineNodes["gen-1"].Block.(*post.TextBlock).Config.Overrides.Color; c != "#abc" {
		t.Errorf("color after redo = %q, want #abc", c)
	}

	if err := ed.Do("explode", nil); !errors.Is(err, errors.ErrCodeUnknownAction) {
		t.Errorf("unknown action error = %v, want UNKNOWN_ACTION", err)
	}
}

func TestEditorSkipIgnorable(t *testing.T) {
	tests := []struct {
		skip bool
		want int
	}{
		{skip: false, want: 2},
		{skip: true, want: 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("skip=%v", tt.skip), func(t *testing.T) {
			opts := testOptions()
			opts.SkipIgnorable = tt.skip
			ed := New(nil, opts)
			do(t, ed, actions.InsertTextNode, `{"id":"n","x":0,"y":0}`)
			do(t, ed, actions.UpdateNodeFrame, `{"nodeId":"n","x":40,"y":40,"scale":1}`)

			if got := len(ed.Commits()); got != tt.want {
				t.Errorf("len(Commits()) = %d, want %d", got, tt.want)
			}
			if x := ed.Schema().InlineNodes["n"].Position.X; x != 40 {
				t.Errorf("node x = %v, want 40", x)
			}
		})
	}
}

func TestEditorApplyLayout(t *testing.T) {
	ed := New(testDoc(), testOptions())

	if err := ed.ApplyLayout(post.FormatPost, post.LayoutVerticalTextMedia); err != nil {
		t.Fatal(err)
	}
	if got := ed.Schema().Positions.Key(); got != "t|img" {
		t.Errorf("positions = %q, want t|img", got)
	}
	if err := ed.ApplyLayout(post.FormatPost, "spiral"); !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("unknown layout error = %v, want INVALID_LAYOUT", err)
	}
	if err := ed.Schema().Validate(); err != nil {
		t.Errorf("document invalid after layout: %v", err)
	}
}

func TestEditorSnapPoints(t *testing.T) {
	ed := New(testDoc(), testOptions())
	do(t, ed, actions.InsertTextNode, `{"id":"n","x":0,"y":500}`)

	points, err := ed.SnapPoints("n", geometry.Rect{})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) == 0 {
		t.Fatal("no snap points for a node over a two-block grid")
	}
	for _, p := range points {
		if err := (&post.Schema{Blocks: p.Value.Blocks, Positions: p.Value.Positions, InlineNodes: post.NodeMap{}}).Validate(); err != nil {
			t.Errorf("candidate %q invalid: %v", p.Key, err)
		}
	}

	if _, err := ed.SnapPoints("ghost", geometry.Rect{}); !errors.Is(err, errors.ErrCodeBlockNotFound) {
		t.Errorf("missing block error = %v, want BLOCK_NOT_FOUND", err)
	}
}

func TestEditorExport(t *testing.T) {
	ed := New(testDoc(), testOptions())
	e := ed.Export()
	if e.Positions.Key() != "t|img" {
		t.Errorf("export positions = %q", e.Positions.Key())
	}
	if e.Blocks["t"].Base().Frame != nil {
		t.Error("export kept a grid frame")
	}
	if ed.Schema().Blocks["t"].Base().Frame == nil {
		t.Error("export stripped the live document")
	}
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	was := !m.stopped
	m.stopped = true
	return was
}

type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualTimers) AfterFunc(_ time.Duration, f func()) snap.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *manualTimers) fireLast() {
	m.mu.Lock()
	t := m.timers[len(m.timers)-1]
	m.mu.Unlock()
	if !t.stopped {
		t.f()
	}
}

type fakeNow struct{ t time.Time }

func newFakeNow() *fakeNow { return &fakeNow{t: time.Unix(1000, 0)} }

func (f *fakeNow) Now() time.Time          { return f.t }
func (f *fakeNow) Advance(d time.Duration) { f.t = f.t.Add(d) }

func nodeAt(ed *Editor, id string) (x, y float64) {
	p := ed.Schema().InlineNodes[id].Position
	return p.X, p.Y
}

type snapRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *snapRecorder) OnDispatch(string, int, int, time.Duration, error) {}
func (r *snapRecorder) OnUndo(string, int)                                 {}
func (r *snapRecorder) OnRedo(string, int)                                 {}
func (r *snapRecorder) OnSnapActivated(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func dragSetup(t *testing.T) (*Editor, *DragController, *manualTimers, *fakeNow, *snapRecorder) {
	t.Helper()
	rec := &snapRecorder{}
	opts := testOptions()
	opts.Hooks = rec
	ed := New(testDoc(), opts)
	do(t, ed, actions.InsertTextNode, `{"id":"n","x":0,"y":500,"text":"hi"}`)

	timers := &manualTimers{}
	clock := newFakeNow()
	c := NewDragController(ed,
		WithMeasureDebounce(0),
		WithClock(clock.Now),
		WithActivatorOptions(snap.WithAfterFunc(timers.AfterFunc)),
	)
	return ed, c, timers, clock, rec
}

func TestDragSnapsIntoGrid(t *testing.T) {
	ed, c, timers, clock, rec := dragSetup(t)

	if err := c.Start("n", geometry.Rect{X: 0, Y: 500, Width: 180, Height: 64}); err != nil {
		t.Fatal(err)
	}
	// The bottom guide of img sits at (180, 440); this frame is centered on it.
	frame := geometry.Rect{X: 90, Y: 408, Width: 180, Height: 64}
	if err := c.Move(DragEvent{BlockID: "n", IsPanning: true, X: 90, Y: 408, Frame: frame}); err != nil {
		t.Fatal(err)
	}
	clock.Advance(10 * time.Millisecond)
	if err := c.Move(DragEvent{BlockID: "n", IsPanning: true, X: 91, Y: 409, Frame: frame}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Active(); ok {
		t.Fatal("snap active before the dwell elapsed")
	}
	timers.fireLast()
	active, ok := c.Active()
	if !ok || active.Key != "t|img|n" {
		t.Fatalf("Active() = %q, %v, want t|img|n", active.Key, ok)
	}

	committed, err := c.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if committed == nil || committed.Key != "t|img|n" {
		t.Fatalf("Stop() committed %v, want t|img|n", committed)
	}
	s := ed.Schema()
	if s.Positions.Key() != "t|img|n" {
		t.Errorf("positions = %q, want t|img|n", s.Positions.Key())
	}
	if _, ok := s.InlineNodes["n"]; ok {
		t.Error("snapped node still floating")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("document invalid after snap: %v", err)
	}
	if got := len(ed.Commits()); got != 2 {
		t.Errorf("len(Commits()) = %d, want 2 (insert + gesture)", got)
	}
	if len(rec.keys) == 0 || rec.keys[0] != "t|img|n" {
		t.Errorf("snap hooks = %v", rec.keys)
	}

	ed.Undo()
	if x, y := nodeAt(ed, "n"); x != 0 || y != 500 {
		t.Errorf("node after undo at (%v, %v), want (0, 500)", x, y)
	}
	if ed.Schema().Positions.Key() != "t|img" {
		t.Errorf("positions after undo = %q", ed.Schema().Positions.Key())
	}
}

func TestDragThrottlesNodeMoves(t *testing.T) {
	ed, c, _, clock, _ := dragSetup(t)

	if err := c.Start("n", geometry.Rect{}); err != nil {
		t.Fatal(err)
	}
	steps := []struct {
		advance time.Duration
		x       float64
		wantX   float64
	}{
		{0, 10, 10},
		{10 * time.Millisecond, 20, 10},
		{10 * time.Millisecond, 30, 10},
		{15 * time.Millisecond, 40, 40},
		{5 * time.Millisecond, 50, 40},
	}
	for i, s := range steps {
		clock.Advance(s.advance)
		if err := c.Move(DragEvent{IsPanning: true, X: s.x, Y: 600}); err != nil {
			t.Fatal(err)
		}
		if x, _ := nodeAt(ed, "n"); x != s.wantX {
			t.Errorf("step %d: node x = %v, want %v", i, x, s.wantX)
		}
	}

	if _, err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if x, y := nodeAt(ed, "n"); x != 50 || y != 600 {
		t.Errorf("node after stop at (%v, %v), want the last move (50, 600)", x, y)
	}
	if got := len(ed.Commits()); got != 2 {
		t.Errorf("len(Commits()) = %d, want 2", got)
	}
	ed.Undo()
	if x, y := nodeAt(ed, "n"); x != 0 || y != 500 {
		t.Errorf("undo left node at (%v, %v), want (0, 500)", x, y)
	}
}

func TestDragLeavingCandidateDoesNotSnap(t *testing.T) {
	ed, c, timers, _, rec := dragSetup(t)

	_ = c.Start("n", geometry.Rect{})
	near := geometry.Rect{X: 90, Y: 408, Width: 180, Height: 64}
	_ = c.Move(DragEvent{IsPanning: true, X: 90, Y: 408, Frame: near})
	timers.fireLast()
	if _, ok := c.Active(); !ok {
		t.Fatal("candidate not activated")
	}

	far := geometry.Rect{X: 90, Y: 900, Width: 180, Height: 64}
	_ = c.Move(DragEvent{IsPanning: true, X: 90, Y: 900, Frame: far})
	if _, ok := c.Active(); ok {
		t.Error("candidate still active after leaving its radius")
	}

	if p, err := c.Stop(); err != nil || p != nil {
		t.Errorf("Stop() = %v, %v, want no snap", p, err)
	}
	if _, ok := ed.Schema().InlineNodes["n"]; !ok {
		t.Error("node left the floating layer")
	}
	if len(rec.keys) != 2 || rec.keys[1] != "" {
		t.Errorf("snap hooks = %q, want activation then deactivation", rec.keys)
	}
}

func TestDragErrors(t *testing.T) {
	_, c, _, _, _ := dragSetup(t)

	if err := c.Move(DragEvent{}); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("Move() before Start error = %v", err)
	}
	if _, err := c.Stop(); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("Stop() before Start error = %v", err)
	}
	if err := c.Start("ghost", geometry.Rect{}); !errors.Is(err, errors.ErrCodeBlockNotFound) {
		t.Errorf("Start(ghost) error = %v", err)
	}
	if err := c.Start("n", geometry.Rect{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Start("n", geometry.Rect{}); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("second Start() error = %v", err)
	}
	if err := c.Move(DragEvent{BlockID: "t"}); !errors.Is(err, errors.ErrCodeInvalidArgs) {
		t.Errorf("Move() for another block error = %v", err)
	}
	if _, err := c.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
	if c.Dragging() {
		t.Error("still dragging after Stop")
	}
}

func TestDragGridBlock(t *testing.T) {
	ed, c, timers, _, _ := dragSetup(t)

	if err := c.Start("t", geometry.Rect{}); err != nil {
		t.Fatal(err)
	}
	// Centered on the bottom guide of img.
	_ = c.Move(DragEvent{IsPanning: true, Frame: geometry.Rect{X: 0, Y: 408, Width: 360, Height: 64}})
	timers.fireLast()
	if _, err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if got := ed.Schema().Positions.Key(); got != "img|t" {
		t.Errorf("positions = %q, want img|t", got)
	}
}

func backgroundOf(points []snap.SnapPoint, key string) (geometry.Rect, bool) {
	for _, p := range points {
		if p.Key == key {
			return p.Background, true
		}
	}
	return geometry.Rect{}, false
}

func TestDragCommitsCandidateOfLatestMeasurement(t *testing.T) {
	opts := testOptions()
	ed := New(testDoc(), opts)
	do(t, ed, actions.InsertTextNode, `{"id":"n","x":0,"y":500,"text":"hi"}`)

	timers := &manualTimers{}
	c := NewDragController(ed,
		WithMeasureDebounce(5*time.Millisecond),
		WithActivatorOptions(snap.WithAfterFunc(timers.AfterFunc)),
	)
	const key = "t|img|n"

	if err := c.Start("n", geometry.Rect{}); err != nil {
		t.Fatal(err)
	}
	stale, ok := backgroundOf(c.Points(), key)
	if !ok {
		t.Fatalf("no %s candidate at start", key)
	}

	// Taller than the stored 64, still centered on the bottom guide of img.
	tall := geometry.Rect{X: 90, Y: 380, Width: 180, Height: 120}
	if err := c.Move(DragEvent{BlockID: "n", IsPanning: true, X: 90, Y: 380, Frame: tall}); err != nil {
		t.Fatal(err)
	}

	var fresh geometry.Rect
	deadline := time.Now().Add(2 * time.Second)
	for {
		if bg, ok := backgroundOf(c.Points(), key); ok && bg != stale {
			fresh = bg
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("candidates were not recomputed after the measurement")
		}
		time.Sleep(time.Millisecond)
	}

	timers.fireLast()
	active, ok := c.Active()
	if !ok || active.Key != key {
		t.Fatalf("Active() = %q, %v, want %s", active.Key, ok, key)
	}
	if active.Background != fresh {
		t.Errorf("active background = %+v, want the remeasured %+v (stale %+v)", active.Background, fresh, stale)
	}

	committed, err := c.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if committed == nil {
		t.Fatal("Stop() committed nothing")
	}
	want := committed.Value.Blocks["n"].Base().FrameRect()
	if got := ed.Schema().Blocks["n"].Base().FrameRect(); got.Height != tall.Height || got != want {
		t.Errorf("committed frame of n = %+v, want height %v", got, tall.Height)
	}
}
