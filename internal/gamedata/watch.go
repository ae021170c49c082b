package gamedata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports YAML changes under the data directory. Bursts of events
// (editors write, rename and chmod in quick succession) are collapsed into
// one callback per Debounce window.
type Watcher struct {
	Debounce time.Duration

	paths    Paths
	onChange func(path string)
	log      *slog.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher watches every data directory that exists under l's base dir.
func NewWatcher(l *Loader, onChange func(path string), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	added := 0
	for _, dir := range l.paths.Dirs() {
		if err := fsw.Add(dir); err != nil {
			logger.Debug("data dir not watched", "dir", dir, "err", err)
			continue
		}
		added++
	}
	if added == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("no data directory to watch under %s", l.paths.BaseDir)
	}
	return &Watcher{
		Debounce: 200 * time.Millisecond,
		paths:    l.paths,
		onChange: onChange,
		log:      logger,
		fs:       fsw,
	}, nil
}

// Run delivers change callbacks until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			w.log.Warn("close file watcher", "err", err)
		}
	}()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".yaml" || ev.Op == fsnotify.Chmod {
				continue
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.log.Info("game data changed", "path", pending)
			if w.onChange != nil {
				w.onChange(pending)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "err", err)
		}
	}
}
