package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets editors finish writing before the directory is re-read.
const reloadDelay = 100 * time.Millisecond

// Watcher is a Source backed by a directory that is reloaded on change.
// A reload that fails validation keeps the previous catalog.
type Watcher struct {
	dir     string
	current atomic.Pointer[Catalog]
	watcher *fsnotify.Watcher
	reloads atomic.Int64
}

// LoadDir loads a catalog from a directory without watching it.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// NewWatcher loads dir and starts watching it for changes.
func NewWatcher(dir string) (*Watcher, error) {
	c, err := LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load content dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch content dir: %w", err)
	}

	w := &Watcher{dir: dir, watcher: fw}
	w.current.Store(c)
	slog.Info("Content watcher initialized", "dir", dir, "domains", len(c.Domains()))
	return w, nil
}

// Catalog returns the most recently loaded catalog.
func (w *Watcher) Catalog() *Catalog {
	return w.current.Load()
}

// Reloads returns how many successful reloads have happened.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isContentFile(filepath.Base(event.Name)) {
				continue
			}
			time.Sleep(reloadDelay)
			w.reload(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Content watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(trigger string) {
	c, err := LoadDir(w.dir)
	if err != nil {
		slog.Warn("Content reload failed, keeping previous catalog", "file", trigger, "error", err)
		return
	}
	w.current.Store(c)
	w.reloads.Add(1)
	slog.Info("Content reloaded", "file", trigger, "domains", len(c.Domains()))
}

// Close stops watching the directory.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
