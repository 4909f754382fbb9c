package snap

import (
	"sync"
	"time"

	"github.com/matzehuels/postkit/pkg/geometry"
)

const (
	// DefaultActivationDelay is how long the drag point must stay near a
	// candidate before it activates.
	DefaultActivationDelay = 200 * time.Millisecond
	// DefaultActivationRadius is the distance from a guide marker within
	// which the drag point counts as near.
	DefaultActivationRadius = 48.0
)

// Timer is a pending callback that can be stopped.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Activator tracks which candidate the drag point dwells on.
//
// A candidate activates only after the point stays within its radius for
// the full delay. It deactivates as soon as the point leaves the radius.
// Every state change cancels the pending timer, and a generation counter
// makes sure a timer that already fired but lost the race to Cancel does
// not activate a stale candidate.
type Activator struct {
	mu        sync.Mutex
	radius    float64
	delay     time.Duration
	afterFunc AfterFunc
	onChange  func(*SnapPoint)

	gen     uint64
	timer   Timer
	pending *SnapPoint
	active  *SnapPoint
}

// ActivatorOption configures an Activator.
type ActivatorOption func(*Activator)

// WithRadius sets the activation radius.
func WithRadius(r float64) ActivatorOption {
	return func(a *Activator) { a.radius = r }
}

// WithDelay sets the dwell time before activation.
func WithDelay(d time.Duration) ActivatorOption {
	return func(a *Activator) { a.delay = d }
}

// WithAfterFunc replaces the timer factory, mainly for tests.
func WithAfterFunc(f AfterFunc) ActivatorOption {
	return func(a *Activator) {
		if f != nil {
			a.afterFunc = f
		}
	}
}

// OnChange registers a callback run whenever the active candidate changes.
// It receives nil on deactivation and is never called with the lock held.
func OnChange(f func(*SnapPoint)) ActivatorOption {
	return func(a *Activator) { a.onChange = f }
}

// NewActivator returns an activator with the default radius and delay.
func NewActivator(opts ...ActivatorOption) *Activator {
	a := &Activator{
		radius:    DefaultActivationRadius,
		delay:     DefaultActivationDelay,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update feeds the current drag point and the current candidates.
func (a *Activator) Update(p geometry.Point, points []SnapPoint) {
	a.mu.Lock()
	var notify func()
	defer func() {
		a.mu.Unlock()
		if notify != nil {
			notify()
		}
	}()

	if a.active != nil {
		if cur, ok := find(points, a.active.Key); ok && geometry.Within(p, cur.Indicator, a.radius) {
			a.active = &cur
			a.stopLocked()
			return
		}
		a.active = nil
		notify = a.notifier(nil)
	}

	near, ok := nearest(p, points, a.radius)
	if !ok {
		a.stopLocked()
		return
	}
	if a.pending != nil && a.pending.Key == near.Key {
		a.pending = &near
		return
	}

	a.stopLocked()
	a.pending = &near
	gen := a.gen
	a.timer = a.afterFunc(a.delay, func() { a.fire(gen) })
}

func (a *Activator) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.pending == nil {
		a.mu.Unlock()
		return
	}
	a.active = a.pending
	a.pending = nil
	a.timer = nil
	notify := a.notifier(a.active)
	a.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Active returns the active candidate, if any.
func (a *Activator) Active() (SnapPoint, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return SnapPoint{}, false
	}
	return *a.active, true
}

// Pending reports whether a candidate is waiting for its delay to elapse.
func (a *Activator) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Cancel stops any pending activation and forgets the active candidate
// without notifying.
func (a *Activator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.active = nil
}

// stopLocked cancels the pending timer. The generation bump invalidates a
// callback that is already running.
func (a *Activator) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	a.pending = nil
}

func (a *Activator) notifier(p *SnapPoint) func() {
	if a.onChange == nil {
		return nil
	}
	f := a.onChange
	if p == nil {
		return func() { f(nil) }
	}
	cp := *p
	return func() { f(&cp) }
}

func find(points []SnapPoint, key string) (SnapPoint, bool) {
	for _, p := range points {
		if p.Key == key {
			return p, true
		}
	}
	return SnapPoint{}, false
}

// nearest returns the candidate whose indicator is closest to p within
// radius. Squared distances are compared directly.
func nearest(p geometry.Point, points []SnapPoint, radius float64) (SnapPoint, bool) {
	limit := radius * radius
	best, found := SnapPoint{}, false
	bestDist := 0.0
	for _, sp := range points {
		d := geometry.DistanceSquared(p, sp.Indicator)
		if d > limit {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = sp, d, true
		}
	}
	return best, found
}
