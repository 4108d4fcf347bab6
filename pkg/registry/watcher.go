package registry

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jingkaihe/skilldeck/pkg/logger"
	"github.com/jingkaihe/skilldeck/pkg/skills"
)

// DefaultDebounce is the quiet period before a filesystem change triggers
// a rescan
const DefaultDebounce = 500 * time.Millisecond

type refresher interface {
	Refresh(ctx context.Context) (*RefreshResult, error)
}

// Watcher rescans the skill roots when they change on disk. Bursts of
// events coalesce into a single refresh after a quiet period.
type Watcher struct {
	service  refresher
	roots    []skills.Root
	debounce time.Duration
}

// NewWatcher creates a watcher over the given roots. A non-positive
// debounce falls back to DefaultDebounce.
func NewWatcher(service refresher, roots []skills.Root, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		service:  service,
		roots:    roots,
		debounce: debounce,
	}
}

// Start watches the roots until the context is done. Each quiet period
// after a change triggers one refresh, then the watch set is re-armed so
// newly created skill folders are covered.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fw.Close()

	w.addWatchDirs(ctx, fw)

	refresh := make(chan struct{}, 1)
	go w.debounceEvents(ctx, fw, refresh)

	logger.G(ctx).WithField("roots", len(w.roots)).Info("Watching skill roots for changes")

	for {
		select {
		case <-refresh:
			if _, err := w.service.Refresh(ctx); err != nil {
				logger.G(ctx).WithError(err).Error("Failed to refresh skill index")
			}
			w.addWatchDirs(ctx, fw)
		case <-ctx.Done():
			return nil
		}
	}
}

// debounceEvents coalesces filesystem events into refresh triggers. A new
// event during the quiet period restarts the timer.
func (w *Watcher) debounceEvents(ctx context.Context, fw *fsnotify.Watcher, refresh chan<- struct{}) {
	var timer *time.Timer

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.G(ctx).WithFields(logrus.Fields{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("Skill root change detected")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case refresh <- struct{}{}:
				case <-ctx.Done():
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.G(ctx).WithError(err).Error("File watcher error")
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// addWatchDirs watches each root and its immediate subdirectories. Changes
// inside a skill folder, like an edited SKILL.md, surface through the
// per-folder watches. Missing roots are skipped.
func (w *Watcher) addWatchDirs(ctx context.Context, fw *fsnotify.Watcher) {
	log := logger.G(ctx)
	for _, root := range w.roots {
		if err := fw.Add(root.Path); err != nil {
			log.WithField("root", root.Path).WithError(err).Debug("Failed to watch root")
			continue
		}

		entries, err := os.ReadDir(root.Path)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(root.Path, entry.Name())
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				continue
			}
			if err := fw.Add(path); err != nil {
				log.WithField("directory", path).WithError(err).Debug("Failed to watch skill directory")
			}
		}
	}
}
