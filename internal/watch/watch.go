// Package watch re-runs the incremental index build whenever files under
// the indexed root change. Events are debounced so an editor save burst
// costs one build, and each build is the same synchronous single-writer
// cycle the index command runs.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ihavespoons/quarry/internal/index"
	"github.com/ihavespoons/quarry/internal/scan"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher drives debounced incremental rebuilds for one engine.
type Watcher struct {
	eng      *index.Engine
	opts     scan.Options
	debounce time.Duration

	// OnResult receives the outcome of each triggered build. Nil means
	// results are discarded.
	OnResult func(*index.IndexResult, error)
}

// New returns a watcher over eng's root using opts for every rebuild.
func New(eng *index.Engine, opts scan.Options) *Watcher {
	return &Watcher{
		eng:      eng,
		opts:     opts,
		debounce: defaultDebounce,
	}
}

// Run watches until ctx is cancelled. It returns only on setup failure or
// cancellation (nil).
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addDirs(fw, w.eng.Root()); err != nil {
		return fmt.Errorf("watch directories: %w", err)
	}

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories must be watched before anything inside
			// them changes.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addDirs(fw, event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if w.OnResult != nil {
				w.OnResult(nil, err)
			}

		case <-rebuild:
			res, err := w.eng.IndexDirectory(w.opts, false)
			if w.OnResult != nil {
				w.OnResult(res, err)
			}
		}
	}
}

// addDirs registers root and its non-excluded subdirectories. Missing
// paths (a Create event for a plain file, or a path already gone) are
// ignored.
func (w *Watcher) addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root {
			if scan.DefaultExcludedDir(name) {
				return filepath.SkipDir
			}
			if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
		}
		return fw.Add(path)
	})
}
