// Package editor ties the document model, the action catalog, the undo
// manager and the layout and snap engines into editing sessions.
//
// An [Editor] is one open document. It is not safe for concurrent use;
// front-ends that serve several clients keep editors in a [Registry], which
// serializes access per session.
//
// Drag gestures go through a [DragController], which throttles node moves,
// debounces frame measurement, tracks the snap candidate the pointer dwells
// on and commits it when the gesture ends. The whole gesture is a single
// undo step.
package editor

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/history"
	"github.com/matzehuels/postkit/pkg/observability"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/presets"
	"github.com/matzehuels/postkit/pkg/snap"
)

// Options configures an Editor. The zero value is usable.
type Options struct {
	// Width is the post width. Defaults to post.DefaultWidth.
	Width float64
	// HistoryCap bounds the undo stack. Defaults to history.DefaultCap.
	HistoryCap int
	// IndicatorSize is the snap guide marker size.
	IndicatorSize float64
	// Presets provides templates and borders. Defaults to presets.Default().
	Presets presets.Source
	// NewID names new blocks and nodes. Defaults to uuid.NewString.
	NewID func() string
	// SkipIgnorable keeps actions flagged IgnorableForUndo off the undo
	// stack.
	SkipIgnorable bool

	Logger *log.Logger
	Hooks  observability.EditorHooks
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = post.DefaultWidth
	}
	if o.IndicatorSize <= 0 {
		o.IndicatorSize = snap.DefaultIndicatorSize
	}
	if o.Presets == nil {
		o.Presets = presets.Default()
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.Hooks = observability.EditorOrNoop(o.Hooks)
	return o
}

// Editor is one editing session over a document.
type Editor struct {
	opts     Options
	history  *history.Manager
	registry *actions.Registry
	snap     *snap.Engine
}

// New opens an editor on a copy of initial. A nil document starts empty.
func New(initial *post.Schema, opts Options) *Editor {
	opts = opts.withDefaults()
	return &Editor{
		opts: opts,
		history: history.New(initial,
			history.WithCap(opts.HistoryCap),
			history.WithLogger(opts.Logger),
			history.WithHooks(opts.Hooks),
		),
		registry: actions.NewRegistry(actions.Env{
			Presets: opts.Presets,
			NewID:   opts.NewID,
			Width:   opts.Width,
		}),
		snap: snap.New(opts.Width, snap.WithIndicatorSize(opts.IndicatorSize)),
	}
}

// Schema returns the current document. Callers must not modify it.
func (e *Editor) Schema() *post.Schema { return e.history.Schema() }

// Version returns the version of the latest tracked dispatch.
func (e *Editor) Version() int { return e.history.Version() }

// Commits returns the undo stack, oldest first.
func (e *Editor) Commits() []history.Commit { return e.history.Commits() }

// Registry returns the action registry, for registering custom actions.
func (e *Editor) Registry() *actions.Registry { return e.registry }

// Width returns the post width.
func (e *Editor) Width() float64 { return e.opts.Width }

// Do runs a named action with JSON arguments.
func (e *Editor) Do(t actions.ActionType, args json.RawMessage) error {
	spec, ok := e.registry.Lookup(t)
	if !ok {
		return errors.New(errors.ErrCodeUnknownAction, "unknown action %q", t)
	}
	mut, err := spec.Factory(e.registry.Env(), args)
	if err != nil {
		return err
	}
	if spec.IgnorableForUndo && e.opts.SkipIgnorable {
		return e.history.DispatchUntracked(string(t), mut)
	}
	return e.DoMutator(string(t), mut)
}

// DoMutator runs a mutator as a tracked action called name.
func (e *Editor) DoMutator(name string, mut history.Mutator) error {
	if err := e.history.Dispatch(name, mut); err != nil {
		e.opts.Logger.Debug("action rejected", "action", name, "error", err)
		return err
	}
	e.opts.Logger.Debug("action applied", "action", name, "version", e.history.Version())
	return nil
}

// Undo reverts the latest commit.
func (e *Editor) Undo() bool { return e.history.Undo() }

// Redo re-applies the latest undone commit.
func (e *Editor) Redo() bool { return e.history.Redo() }

// CanUndo reports whether Undo would change the document.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change the document.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// SetUndoGroup opens or closes an undo group. Open it before the first
// mutation of the gesture it should cover.
func (e *Editor) SetUndoGroup(active bool) { e.history.SetUndoGroup(active) }

// ApplyLayout arranges the grid into a canonical layout.
func (e *Editor) ApplyLayout(format post.Format, layout post.Layout) error {
	mut := e.registry.Env().SetLayout(actions.SetLayoutArgs{Format: format, Layout: layout})
	return e.DoMutator(string(actions.SetLayout), mut)
}

// SnapPoints returns the merged snap candidates for dragging blockID with
// the given frame. An empty frame keeps the stored one.
func (e *Editor) SnapPoints(blockID string, frame geometry.Rect) ([]snap.SnapPoint, error) {
	s := e.history.Schema()
	b, ok := s.Block(blockID)
	if !ok {
		return nil, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", blockID)
	}
	dragged := b.Clone()
	if !frame.IsEmpty() {
		dragged.Base().SetFrame(frame)
	}
	return e.snap.GetAllSnapPoints(dragged, s.Blocks, s.Positions), nil
}

// CommitSnap installs a snap candidate for blockID.
func (e *Editor) CommitSnap(blockID string, p snap.SnapPoint) error {
	mut := e.registry.Env().CommitSnap(actions.CommitSnapArgs{
		BlockID:   blockID,
		Blocks:    p.Value.Blocks,
		Positions: p.Value.Positions,
	})
	return e.DoMutator(string(actions.CommitSnap), mut)
}

// Export returns the serializable view of the current document.
func (e *Editor) Export() post.Export { return e.history.Schema().Export() }
