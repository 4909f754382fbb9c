package editor

import (
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/snap"
)

const (
	// DefaultNodeThrottle is the minimum interval between two committed node
	// moves during a drag.
	DefaultNodeThrottle = 30 * time.Millisecond
	// DefaultMeasureDebounce is how long the frame must stay unchanged
	// before it is measured and the snap candidates are recomputed.
	DefaultMeasureDebounce = 20 * time.Millisecond
)

// DragEvent is one pointer update of a drag gesture.
type DragEvent struct {
	BlockID   string        `json:"blockId"`
	IsPanning bool          `json:"isPanning"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Frame     geometry.Rect `json:"frame"`
}

// DragOption configures a DragController.
type DragOption func(*DragController)

// WithThrottle sets the node move throttle interval.
func WithThrottle(d time.Duration) DragOption {
	return func(c *DragController) { c.throttle = d }
}

// WithMeasureDebounce sets the measurement debounce delay. Zero measures on
// every move.
func WithMeasureDebounce(d time.Duration) DragOption {
	return func(c *DragController) { c.debounceDelay = d }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) DragOption {
	return func(c *DragController) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocker sets the lock guarding the editor. Every controller method and
// every deferred callback holds it while touching the editor. Defaults to a
// private mutex.
func WithLocker(l sync.Locker) DragOption {
	return func(c *DragController) {
		if l != nil {
			c.mu = l
		}
	}
}

// WithActivatorOptions configures the snap activator.
func WithActivatorOptions(opts ...snap.ActivatorOption) DragOption {
	return func(c *DragController) { c.activatorOpts = append(c.activatorOpts, opts...) }
}

// OnSnapChange registers a callback run when the active snap candidate
// changes, with nil on deactivation. It must not call back into the
// controller.
func OnSnapChange(f func(*snap.SnapPoint)) DragOption {
	return func(c *DragController) { c.onSnap = f }
}

// DragController drives one drag gesture at a time over an editor.
type DragController struct {
	mu            sync.Locker
	ed            *Editor
	throttle      time.Duration
	debounceDelay time.Duration
	now           func() time.Time
	measure       func(func())
	activatorOpts []snap.ActivatorOption
	activator     *snap.Activator
	onSnap        func(*snap.SnapPoint)

	dragging bool
	blockID  string
	isNode   bool
	gesture  uint64
	lastMove time.Time
	pending  *DragEvent
	points   []snap.SnapPoint
	point    geometry.Point
}

// NewDragController returns a controller for ed.
func NewDragController(ed *Editor, opts ...DragOption) *DragController {
	c := &DragController{
		mu:            &sync.Mutex{},
		ed:            ed,
		throttle:      DefaultNodeThrottle,
		debounceDelay: DefaultMeasureDebounce,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.debounceDelay > 0 {
		c.measure = debounce.New(c.debounceDelay)
	} else {
		c.measure = func(f func()) { f() }
	}
	c.activator = snap.NewActivator(append(c.activatorOpts, snap.OnChange(c.snapChanged))...)
	return c
}

func (c *DragController) snapChanged(p *snap.SnapPoint) {
	if p == nil {
		c.ed.opts.Hooks.OnSnapActivated("")
	} else {
		c.ed.opts.Hooks.OnSnapActivated(p.Key)
		c.ed.opts.Logger.Debug("snap activated", "key", p.Key, "direction", p.Direction)
	}
	if c.onSnap != nil {
		c.onSnap(p)
	}
}

// Start begins dragging blockID, a floating node or a grid block, and opens
// an undo group for the gesture.
func (c *DragController) Start(blockID string, frame geometry.Rect) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dragging {
		return errors.New(errors.ErrCodeInvalidArgs, "drag of %q already in progress", c.blockID)
	}
	s := c.ed.Schema()
	if _, ok := s.Block(blockID); !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", blockID)
	}
	points, err := c.ed.SnapPoints(blockID, frame)
	if err != nil {
		return err
	}
	_, c.isNode = s.InlineNodes[blockID]
	c.dragging = true
	c.blockID = blockID
	c.gesture++
	c.lastMove = time.Time{}
	c.pending = nil
	c.points = points
	c.point = frame.Center()
	// Opened before any move is committed so the whole gesture is one step.
	c.ed.SetUndoGroup(true)
	c.ed.opts.Logger.Debug("drag started", "block", blockID, "candidates", len(points))
	return nil
}

// Move feeds a pointer update. Node moves are committed at most once per
// throttle interval; the latest skipped move is kept and committed by the
// next move past the interval or by Stop.
func (c *DragController) Move(ev DragEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dragging {
		return errors.New(errors.ErrCodeInvalidArgs, "no drag in progress")
	}
	if ev.BlockID != "" && ev.BlockID != c.blockID {
		return errors.New(errors.ErrCodeInvalidArgs, "drag event for %q while dragging %q", ev.BlockID, c.blockID)
	}
	c.point = dragPoint(ev)

	if ev.IsPanning && c.isNode {
		now := c.now()
		if now.Sub(c.lastMove) >= c.throttle {
			c.pending = nil
			c.lastMove = now
			if err := c.moveNode(ev); err != nil {
				return err
			}
		} else {
			e := ev
			c.pending = &e
		}
	}

	if !ev.Frame.IsEmpty() {
		gesture := c.gesture
		frame := ev.Frame
		c.measure(func() { c.measured(gesture, frame) })
	}

	c.activator.Update(c.point, c.points)
	return nil
}

// measured runs after the debounce delay, possibly on another goroutine.
// The activator is re-fed with the new candidates so that a pending or
// active snap never refers to a frame that is no longer measured.
func (c *DragController) measured(gesture uint64, frame geometry.Rect) {
	if c.debounceDelay > 0 {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	if !c.dragging || gesture != c.gesture {
		return
	}
	if c.isNode {
		size := geometry.Rect{Width: frame.Width, Height: frame.Height}
		mut := c.ed.registry.Env().UpdateBlockFrame(actions.UpdateBlockFrameArgs{BlockID: c.blockID, Frame: size})
		if err := c.ed.DoMutator(string(actions.UpdateBlockFrame), mut); err != nil {
			c.ed.opts.Logger.Warn("measure failed", "block", c.blockID, "error", err)
			return
		}
	}
	points, err := c.ed.SnapPoints(c.blockID, frame)
	if err != nil {
		c.ed.opts.Logger.Warn("snap points failed", "block", c.blockID, "error", err)
		return
	}
	c.points = points
	c.activator.Update(c.point, points)
}

func (c *DragController) moveNode(ev DragEvent) error {
	n := c.ed.Schema().InlineNodes[c.blockID]
	mut := c.ed.registry.Env().UpdateNodeFrame(actions.UpdateNodeFrameArgs{
		NodeID: c.blockID,
		X:      ev.X,
		Y:      ev.Y,
		Scale:  orOne(n.Position.Scale),
		Rotate: n.Position.Rotate,
	})
	return c.ed.DoMutator(string(actions.UpdateNodeFrame), mut)
}

// Stop ends the gesture. When a snap candidate is active it is committed
// and returned. The undo group is closed in every case.
func (c *DragController) Stop() (*snap.SnapPoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dragging {
		return nil, errors.New(errors.ErrCodeInvalidArgs, "no drag in progress")
	}
	defer func() {
		c.dragging = false
		c.pending = nil
		c.points = nil
		c.ed.SetUndoGroup(false)
	}()

	active, ok := c.activator.Active()
	c.activator.Cancel()

	if c.pending != nil {
		if err := c.moveNode(*c.pending); err != nil {
			return nil, err
		}
	}
	if !ok {
		c.ed.opts.Logger.Debug("drag stopped", "block", c.blockID)
		return nil, nil
	}
	if err := c.ed.CommitSnap(c.blockID, active); err != nil {
		return nil, err
	}
	c.ed.opts.Logger.Debug("drag snapped", "block", c.blockID, "key", active.Key)
	return &active, nil
}

// Dragging reports whether a gesture is in progress.
func (c *DragController) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Points returns the current snap candidates.
func (c *DragController) Points() []snap.SnapPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]snap.SnapPoint(nil), c.points...)
}

// Active returns the active snap candidate, if any.
func (c *DragController) Active() (snap.SnapPoint, bool) {
	return c.activator.Active()
}

// dragPoint is the center of the dragged frame, or the pointer when the
// frame is not measured yet.
func dragPoint(ev DragEvent) geometry.Point {
	if ev.Frame.IsEmpty() {
		return geometry.Point{X: ev.X, Y: ev.Y}
	}
	return ev.Frame.Center()
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
