package editor

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/post"
)

// Session is an editor shared by concurrent callers.
type Session struct {
	ID      string
	Created time.Time

	mu      sync.Mutex
	editor  *Editor
	drag    *DragController
	touched time.Time
	now     func() time.Time
}

// With runs f with exclusive access to the session's editor.
func (s *Session) With(f func(*Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	return f(s.editor)
}

// WithHistory is With for undo and redo. It refuses while a drag is in
// progress: stepping the history would close the gesture's undo group and
// leave the controller committing ungrouped moves.
func (s *Session) WithHistory(f func(*Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	if s.drag.dragging {
		return errors.New(errors.ErrCodeDragInProgress, "%q is being dragged; stop the drag first", s.drag.blockID)
	}
	return f(s.editor)
}

// Drag returns the session's drag controller. Its methods lock the session
// themselves and must not be called from inside With.
func (s *Session) Drag() *DragController { return s.drag }

// Touched returns the time of the last access.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Registry holds open sessions keyed by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	dragOpts []DragOption
	now      func() time.Time
}

// NewRegistry returns an empty registry. Every session gets an editor built
// with opts and a drag controller built with dragOpts.
func NewRegistry(opts Options, dragOpts ...DragOption) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
		dragOpts: dragOpts,
		now:      time.Now,
	}
}

// Create opens a session on a copy of initial.
func (r *Registry) Create(initial *post.Schema) *Session {
	now := r.now()
	s := &Session{
		ID:      uuid.NewString(),
		Created: now,
		editor:  New(initial, r.opts),
		touched: now,
		now:     r.now,
	}
	s.drag = NewDragController(s.editor, append(r.dragOpts, WithLocker(&s.mu))...)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session called id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	return s, nil
}

// Delete closes the session called id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	delete(r.sessions, id)
	return nil
}

// IDs returns the open session ids sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PurgeIdle closes sessions untouched for longer than maxIdle and returns
// how many were closed. Sessions with a drag in progress are kept.
func (r *Registry) PurgeIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.Touched().Before(cutoff) && !s.drag.Dragging() {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
