// Package history applies document mutations as tracked, invertible patches
// and keeps a bounded undo stack.
//
// Mutators run against a deep copy of the current document. When a mutator
// fails the copy is discarded and the document is left unchanged. While an
// undo group is open, every dispatch collapses the commits of the group into
// one, so a continuous gesture becomes a single undo step.
//
// A Manager is not safe for concurrent use; callers serialize access.
package history

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/postkit/pkg/observability"
	"github.com/matzehuels/postkit/pkg/post"
)

// DefaultCap is the maximum number of commits kept on the undo stack.
const DefaultCap = 100

// Mutator changes a document in place. Returning an error abandons the
// change.
type Mutator func(s *post.Schema) error

// Commit is one recorded, invertible mutation step.
type Commit struct {
	Patches []Patch `json:"patches"`
	Version int     `json:"version"`
	Action  string  `json:"action"`
}

// Manager owns the current document and its undo stack.
type Manager struct {
	schema  *post.Schema
	commits []Commit
	redo    []Commit
	version int

	grouping   bool
	groupAfter int

	cap    int
	logger *log.Logger
	hooks  observability.EditorHooks
}

// Option configures a Manager.
type Option func(*Manager)

// WithCap sets the undo stack size. Non-positive values are ignored.
func WithCap(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cap = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithHooks sets the hooks receiving dispatch and undo events.
func WithHooks(h observability.EditorHooks) Option {
	return func(m *Manager) { m.hooks = observability.EditorOrNoop(h) }
}

// New returns a manager starting from a copy of initial. A nil initial
// document starts empty.
func New(initial *post.Schema, opts ...Option) *Manager {
	if initial == nil {
		initial = post.New()
	}
	m := &Manager{
		schema:  initial.Clone(),
		version: -1,
		cap:     DefaultCap,
		logger:  log.New(io.Discard),
		hooks:   observability.NoopEditorHooks{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schema returns the current document. It must not be modified; use
// Dispatch.
func (m *Manager) Schema() *post.Schema { return m.schema }

// Version returns the version of the latest dispatch, -1 before the first.
func (m *Manager) Version() int { return m.version }

// Commits returns a copy of the undo stack, oldest first.
func (m *Manager) Commits() []Commit {
	return append([]Commit(nil), m.commits...)
}

// CanUndo reports whether there is a commit to undo.
func (m *Manager) CanUndo() bool { return len(m.commits) > 0 }

// CanRedo reports whether there is an undone commit to redo.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Grouping reports whether an undo group is open.
func (m *Manager) Grouping() bool { return m.grouping }

// Dispatch applies mutate to a copy of the document and records the change
// as a commit. A dispatch clears the redo stack.
func (m *Manager) Dispatch(action string, mutate Mutator) error {
	start := time.Now()
	next, patches, err := m.run(mutate)
	if err != nil {
		m.hooks.OnDispatch(action, m.version, 0, time.Since(start), err)
		return err
	}

	m.schema = next
	m.version++
	m.commits = append(m.commits, Commit{Patches: patches, Version: m.version, Action: action})
	m.redo = nil
	if m.grouping {
		m.collapse()
	}
	if len(m.commits) > m.cap {
		m.commits = append([]Commit(nil), m.commits[len(m.commits)-m.cap:]...)
	}

	m.hooks.OnDispatch(action, m.version, len(patches), time.Since(start), nil)
	return nil
}

// DispatchUntracked applies mutate without recording a commit. It is meant
// for high-frequency cosmetic updates that a later tracked action
// supersedes.
func (m *Manager) DispatchUntracked(action string, mutate Mutator) error {
	next, _, err := m.run(mutate)
	if err != nil {
		m.hooks.OnDispatch(action, m.version, 0, 0, err)
		return err
	}
	m.schema = next
	m.logger.Debug("untracked dispatch", "action", action)
	return nil
}

func (m *Manager) run(mutate Mutator) (*post.Schema, []Patch, error) {
	draft := m.schema.Clone()
	if err := mutate(draft); err != nil {
		return nil, nil, err
	}
	return draft, Diff(m.schema, draft), nil
}

// collapse merges the commits made since the group opened into one commit
// at the version of the first of them.
func (m *Manager) collapse() {
	first := len(m.commits)
	for i, c := range m.commits {
		if c.Version > m.groupAfter {
			first = i
			break
		}
	}
	if len(m.commits)-first < 2 {
		return
	}
	group := m.commits[first:]
	merged := Commit{Version: group[0].Version, Action: group[len(group)-1].Action}
	for _, c := range group {
		merged.Patches = append(merged.Patches, c.Patches...)
	}
	m.commits = append(m.commits[:first], merged)
}

// SetUndoGroup opens or closes an undo group. Opening records the current
// version; only commits made after it join the group. Open the group before
// the gesture's first mutation, otherwise that mutation stays a separate
// undo step. Opening an open group and closing a closed one are no-ops.
func (m *Manager) SetUndoGroup(active bool) {
	if active == m.grouping {
		return
	}
	m.grouping = active
	if active {
		m.groupAfter = m.version
		m.logger.Debug("undo group opened", "after", m.groupAfter)
		return
	}
	m.logger.Debug("undo group closed")
}

// Undo reverts the latest commit and closes any open group. It reports
// whether there was anything to undo.
func (m *Manager) Undo() bool {
	m.grouping = false
	if len(m.commits) == 0 {
		return false
	}
	c := m.commits[len(m.commits)-1]
	m.commits = m.commits[:len(m.commits)-1]
	m.schema = Revert(m.schema, c.Patches)
	m.redo = append(m.redo, c)
	m.hooks.OnUndo(c.Action, c.Version)
	return true
}

// Redo re-applies the latest undone commit. It reports whether there was
// anything to redo.
func (m *Manager) Redo() bool {
	if len(m.redo) == 0 {
		return false
	}
	c := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.schema = Apply(m.schema, c.Patches)
	m.commits = append(m.commits, c)
	m.hooks.OnRedo(c.Action, c.Version)
	return true
}
