package daemon

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"appdeck/internal/logging"
)

// overrideWatcher signals when any override file is written, created,
// renamed or removed. Directories are watched rather than files because
// atomic saves replace the file and would orphan a file watch.
type overrideWatcher struct {
	watcher *fsnotify.Watcher
	names   map[string]struct{}
	changes chan struct{}
	logger  *slog.Logger
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newOverrideWatcher(files []string, logger *slog.Logger) (*overrideWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no override files to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	ow := &overrideWatcher{
		watcher: w,
		names:   make(map[string]struct{}, len(files)),
		changes: make(chan struct{}, 1),
		logger:  logger,
		done:    make(chan struct{}),
	}
	dirs := make(map[string]struct{})
	for _, file := range files {
		ow.names[filepath.Clean(file)] = struct{}{}
		dirs[filepath.Dir(file)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	ow.wg.Add(1)
	go func() {
		defer ow.wg.Done()
		ow.run()
	}()
	return ow, nil
}

func (w *overrideWatcher) Changes() <-chan struct{} { return w.changes }

func (w *overrideWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, watched := w.names[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("override watcher error", logging.Error(err))
		}
	}
}

func (w *overrideWatcher) Close() {
	w.once.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
		w.wg.Wait()
	})
}
