// Package watch re-runs a callback when a project file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce absorbs the burst of events editors emit for one save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches a single file.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Logger   zerolog.Logger

	onReady func() // test hook, called once the watch is registered
}

// New creates a Watcher for path with the default debounce.
func New(path string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		Path:     path,
		Debounce: DefaultDebounce,
		Logger:   logger,
	}
}

// Run blocks until ctx is cancelled, calling onChange after each settled
// write to the file. The directory is watched rather than the file so that
// editors that save by rename are still seen. Errors from onChange are
// logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func() error) error {
	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.Path, err)
	}
	dir := filepath.Dir(target)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.Logger.Debug().Str("file", target).Msg("watching for changes")
	if w.onReady != nil {
		w.onReady()
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.Logger.Debug().Str("op", ev.Op.String()).Msg("file event")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			// keep watching
			w.Logger.Warn().Err(err).Msg("watch error")

		case <-fire:
			fire = nil
			if err := onChange(); err != nil {
				w.Logger.Warn().Err(err).Str("file", target).Msg("reload failed")
			}
		}
	}
}
