package registry

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch invalidates the cache whenever the file at path is created, written,
// renamed or removed, then calls onReload (if non-nil). The directory is
// watched rather than the file so editors that replace files atomically are
// handled. Watch blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, path string, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	target := filepath.Clean(path)

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(target))
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	reload := func() {
		r.Invalidate()
		r.logger.Info("hook configuration changed, cache invalidated", "path", target)

		if onReload != nil {
			onReload()
		}
	}

	defer func() {
		mu.Lock()
		defer mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, reload)
			} else {
				timer.Reset(watchDebounce)
			}
			mu.Unlock()

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			r.logger.Warn("config watcher error", "error", werr.Error())
		}
	}
}
