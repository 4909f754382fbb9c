package observability

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements EditorHooks and StoreHooks by writing debug-level
// structured log lines.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger. A nil logger discards.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnDispatch(action string, version, patches int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("dispatch failed", "action", action, "error", err)
		return
	}
	h.logger.Debug("dispatched", "action", action, "version", version, "patches", patches, "took", d)
}

func (h *LogHooks) OnUndo(action string, version int) {
	h.logger.Debug("undo", "action", action, "version", version)
}

func (h *LogHooks) OnRedo(action string, version int) {
	h.logger.Debug("redo", "action", action, "version", version)
}

func (h *LogHooks) OnSnapActivated(key string) {
	if key == "" {
		h.logger.Debug("snap cleared")
		return
	}
	h.logger.Debug("snap active", "key", key)
}

func (h *LogHooks) OnSave(_ context.Context, key string, size int, err error) {
	if err != nil {
		h.logger.Warn("draft save failed", "key", key, "error", err)
		return
	}
	h.logger.Debug("draft saved", "key", key, "bytes", size)
}

func (h *LogHooks) OnLoad(_ context.Context, key string, hit bool, err error) {
	if err != nil {
		h.logger.Warn("draft load failed", "key", key, "error", err)
		return
	}
	h.logger.Debug("draft loaded", "key", key, "hit", hit)
}
