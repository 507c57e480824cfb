// Package watch keeps the maturity cache coherent with edits made outside
// the process. It watches the specification root and every feature
// directory and invalidates the cached record when a maturity file changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/theplant/speckit-extension/internal/maturity"
	"github.com/theplant/speckit-extension/internal/specdoc"
)

const eventChannelBuffer = 100

// contentOps are the operations that can change what a file holds.
const contentOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Invalidator drops the cached maturity record of a specification.
type Invalidator interface {
	Invalidate(specPath string)
}

// Kind classifies a reported change.
type Kind string

// Change kinds.
const (
	KindMaturity Kind = "maturity"
	KindSpec     Kind = "spec"
)

// Event is a change to a file the watcher cares about.
type Event struct {
	Path string
	Kind Kind
	Op   fsnotify.Op
}

// Watcher invalidates cache entries on maturity file changes and reports
// them, along with specification document changes, on Events.
type Watcher struct {
	root    string
	cache   Invalidator
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	events  chan Event
	done    chan struct{}

	dropped atomic.Int64
}

// New creates a watcher for the specification root.
func New(root string, cache Invalidator, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:    root,
		cache:   cache,
		watcher: fsw,
		logger:  logger,
		events:  make(chan Event, eventChannelBuffer),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the channel of reported changes. It is closed when the
// watcher stops. Events are dropped when nobody reads them.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Dropped returns the number of events discarded because Events was full.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}

// Start watches the root and its feature directories, then processes
// events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		w.watcher.Close()
		return err
	}
	if err := w.watcher.Add(w.root); err != nil {
		w.watcher.Close()
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		w.watcher.Close()
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(w.root, e.Name()))
		}
	}

	go w.run(ctx)

	w.logger.Info("watching specifications", "root", w.root, "dirs", len(w.watcher.WatchList()))
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watcher stopped", "root", w.root)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	dir := filepath.Dir(path)

	if dir == filepath.Clean(w.root) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addDir(path)
			}
		}
		return
	}

	switch filepath.Base(path) {
	case maturity.FileName, maturity.LegacyFileName:
		if event.Op&contentOps == 0 {
			return
		}
		w.cache.Invalidate(filepath.Join(dir, specdoc.SpecFileName))
		w.logger.Debug("maturity cache invalidated", "path", path, "op", event.Op.String())
		w.send(Event{Path: path, Kind: KindMaturity, Op: event.Op})

	case specdoc.SpecFileName:
		if event.Op&contentOps == 0 {
			return
		}
		w.send(Event{Path: path, Kind: KindSpec, Op: event.Op})
	}
}

// addDir watches a feature directory. Hidden directories are skipped.
func (w *Watcher) addDir(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("failed to watch directory", "path", path, "error", err)
		return
	}
	w.logger.Debug("watching directory", "path", path)
}

func (w *Watcher) send(e Event) {
	select {
	case w.events <- e:
	default:
		w.dropped.Add(1)
	}
}
