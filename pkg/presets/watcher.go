package presets

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 250 * time.Millisecond

// Watcher keeps a catalog in sync with its TOML file. Invalid edits are
// logged and the previous catalog stays in place.
type Watcher struct {
	path     string
	current  atomic.Pointer[Catalog]
	fs       *fsnotify.Watcher
	logger   *log.Logger
	onReload func(*Catalog)
	debounce func(func())
}

// Watch loads path and starts watching its directory. Editors often replace
// files instead of writing them in place, so the directory is watched and
// events are filtered by name.
func Watch(path string, logger *log.Logger, onReload func(*Catalog)) (*Watcher, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve presets path: %w", err)
	}
	c, err := Load(abs)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		fs:       fw,
		logger:   logger,
		onReload: onReload,
		debounce: debounce.New(reloadDelay),
	}
	w.current.Store(c)
	return w, nil
}

// Catalog returns the latest valid catalog.
func (w *Watcher) Catalog() *Catalog {
	return w.current.Load()
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != w.path {
				continue
			}
			w.debounce(w.reload)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("presets watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		w.logger.Warn("keeping previous presets", "path", w.path, "error", err)
		return
	}
	w.current.Store(c)
	w.logger.Info("presets reloaded", "path", w.path, "templates", len(c.Templates), "borders", len(c.Borders))
	if w.onReload != nil {
		w.onReload(c)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
