// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks are passed explicitly to the components that emit events; there is
// no process-wide registry. A component that receives a nil hook uses the
// matching no-op implementation.
//
// # Usage
//
// Wire hooks when constructing the components:
//
//	hooks := observability.NewLogHooks(logger)
//	mgr := history.New(doc, history.WithHooks(hooks))
//	svc := drafts.New(store, drafts.WithHooks(hooks))
//
// Components call hooks to emit events:
//
//	hooks.OnDispatch(action, version, len(patches), time.Since(start), err)
//
// The editing hooks carry no context: the editor runs synchronously on the
// caller's goroutine. Store hooks do, since persistence is I/O bound.
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from an editing session.
type EditorHooks interface {
	// OnDispatch records a dispatched action. err is set when the mutator
	// failed and the draft was discarded.
	OnDispatch(action string, version, patches int, duration time.Duration, err error)

	// OnUndo records an undone commit.
	OnUndo(action string, version int)

	// OnRedo records a redone commit.
	OnRedo(action string, version int)

	// OnSnapActivated records a snap candidate becoming active (key set) or
	// inactive (empty key).
	OnSnapActivated(key string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from draft persistence.
type StoreHooks interface {
	// OnSave records a draft write.
	OnSave(ctx context.Context, key string, size int, err error)

	// OnLoad records a draft read. hit is false when the key was missing.
	OnLoad(ctx context.Context, key string, hit bool, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnDispatch(string, int, int, time.Duration, error) {}
func (NoopEditorHooks) OnUndo(string, int)                                 {}
func (NoopEditorHooks) OnRedo(string, int)                                 {}
func (NoopEditorHooks) OnSnapActivated(string)                             {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSave(context.Context, string, int, error)  {}
func (NoopStoreHooks) OnLoad(context.Context, string, bool, error) {}

// EditorOrNoop returns h, or a no-op implementation when h is nil.
func EditorOrNoop(h EditorHooks) EditorHooks {
	if h == nil {
		return NoopEditorHooks{}
	}
	return h
}

// StoreOrNoop returns h, or a no-op implementation when h is nil.
func StoreOrNoop(h StoreHooks) StoreHooks {
	if h == nil {
		return NoopStoreHooks{}
	}
	return h
}
