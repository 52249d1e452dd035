// Package watch reports file changes under a set of directories, batching
// bursts of events into a single notification.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a batch
// is delivered.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the sorted, de-duplicated paths changed since the last
// batch. It runs on the watcher goroutine; events arriving meanwhile are
// delivered in the next batch.
type Handler func(ctx context.Context, changed []string)

// Watcher watches directory trees. Directories created after start are
// added automatically.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
}

// New starts watching roots recursively. Missing roots are skipped with a
// warning; at least one root must exist.
func New(roots []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := 0
	for _, root := range roots {
		if root == "" {
			continue
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			logger.Warn("watcher: skipping missing directory", slog.String("root", root))
			continue
		}
		if err := addDirsRecursive(fsw, root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
		watched++
	}
	if watched == 0 {
		_ = fsw.Close()
		return nil, errors.New("watch: no directory to watch")
	}

	return &Watcher{fsw: fsw, debounce: debounce, log: logger}, nil
}

// Run delivers change batches to fn until ctx is canceled. It always
// releases the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
			return
		}
		timer.Reset(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.log.Debug("watcher: stopped")
			return nil

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			w.log.Debug("watcher: changes", slog.Int("count", len(changed)))
			fn(ctx, changed)

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirsRecursive(w.fsw, ev.Name); err != nil {
						w.log.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", err.Error()))
					}
				}
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// ignored filters editor swap and backup files and hidden entries.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
