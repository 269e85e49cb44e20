package bench

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the event bursts editors emit per save.
const DefaultDebounce = 250 * time.Millisecond

// WatchScenario blocks watching a scenario file and invokes onChange
// after each modification settles. It watches the containing
// directory rather than the file: editors commonly save by writing a
// temp file and renaming it over the original, which would silently
// drop a watch on the file itself. onChange runs on the watch
// goroutine, so a slow callback delays later notifications.
//
// WatchScenario returns nil once ctx is canceled.
func WatchScenario(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Debug("watching scenario", "path", abs, "debounce", debounce)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(fsEvent.Name) != abs {
				continue
			}
			if !fsEvent.Op.Has(fsnotify.Write) && !fsEvent.Op.Has(fsnotify.Create) && !fsEvent.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			pending = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("scenario watch error", "error", err)

		case <-pending:
			pending = nil
			logger.Info("scenario changed", "path", abs)
			onChange()
		}
	}
}
