// Package watch renames video files as they arrive in a directory tree.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/trentmillar/plex-file-namer/internal/batch"
)

// DefaultSettle is how long a file must stay unchanged before it is processed.
const DefaultSettle = 5 * time.Second

// Processor handles one file.
type Processor interface {
	Process(ctx context.Context, path string) (batch.Result, error)
}

// Watcher feeds new video files to a Processor.
type Watcher struct {
	proc     Processor
	exts     map[string]struct{}
	settle   time.Duration
	onResult func(batch.Result)
	logger   *slog.Logger

	pending  map[string]time.Time
	produced map[string]bool
}

// New builds a watcher for files with the given extensions.
func New(proc Processor, exts map[string]struct{}, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		proc:     proc,
		exts:     exts,
		settle:   DefaultSettle,
		logger:   logger,
		pending:  map[string]time.Time{},
		produced: map[string]bool{},
	}
}

// WithSettle changes the quiet period before a file is processed.
func (w *Watcher) WithSettle(d time.Duration) *Watcher {
	w.settle = d
	return w
}

// OnResult registers a callback for each processed file.
func (w *Watcher) OnResult(fn func(batch.Result)) *Watcher {
	w.onResult = fn
	return w
}

// Run watches root and its subdirectories until ctx is done. Cancellation is
// not an error.
func (w *Watcher) Run(ctx context.Context, root string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, root); err != nil {
		return err
	}
	w.logger.Info("watching for new files", "root", root, "settle", w.settle.String())

	tick := w.settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case now := <-ticker.C:
			if err := w.flush(ctx, now); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			w.logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(fw, path); err != nil {
				w.logger.Warn("could not watch new directory", "path", path, "error", err)
			}
			// files moved in together with the folder raise no events of their own
			w.queueExisting(path)
			return
		}
		w.queue(path)
	case ev.Has(fsnotify.Write):
		if _, ok := w.pending[path]; ok {
			w.pending[path] = time.Now()
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, path)
	}
}

func (w *Watcher) queueExisting(dir string) {
	files, err := batch.Discover(dir, w.exts)
	if err != nil {
		w.logger.Warn("could not list new directory", "path", dir, "error", err)
		return
	}
	for _, f := range files {
		w.queue(f)
	}
}

func (w *Watcher) queue(path string) {
	if !batch.IsVideo(path, w.exts) {
		return
	}
	if w.produced[path] {
		// our own rename landing
		delete(w.produced, path)
		return
	}
	w.pending[path] = time.Now()
}

// flush processes the files that have been quiet for the settle period.
func (w *Watcher) flush(ctx context.Context, now time.Time) error {
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)

		res, err := w.proc.Process(ctx, path)
		if err != nil {
			return err
		}
		if res.Status == batch.StatusRenamed {
			w.produced[filepath.Clean(res.Destination)] = true
		}
		if res.Err != nil {
			w.logger.Debug("file not renamed", "path", path, "status", res.Status.String(), "error", res.Err)
		}
		if w.onResult != nil {
			w.onResult(res)
		}
	}
	return nil
}
