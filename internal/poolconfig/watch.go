package poolconfig

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-loads a config file whenever it (or the directory entry
// backing it) changes, debouncing the flurry of events most editors and
// container-mounted ConfigMaps produce on a single logical save.
type Watcher struct {
	path    string
	logger  *slog.Logger
	updates chan Config
}

// NewWatcher starts watching path's parent directory (not the file
// itself, so the watch survives editors that replace the file via
// rename-into-place) and returns a Watcher whose Updates channel receives
// a freshly loaded Config after each settled change. The returned
// context.CancelFunc stops the watch and closes the channel.
func NewWatcher(ctx context.Context, path string, logger *slog.Logger) (*Watcher, context.CancelFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, nil, err
	}

	w := &Watcher{path: path, logger: logger, updates: make(chan Config, 1)}
	watchCtx, cancel := context.WithCancel(ctx)

	go w.run(watchCtx, fsw)

	return w, cancel, nil
}

// Updates returns the channel of successfully reloaded configs.
func (w *Watcher) Updates() <-chan Config {
	return w.updates
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer fsw.Close()
	defer close(w.updates)

	const debounce = 200 * time.Millisecond
	var pending *time.Timer

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, func() {
				cfg, err := Load(w.path)
				if err != nil {
					w.logger.Warn("config reload failed, keeping previous config",
						"path", w.path, "error", err)
					return
				}
				select {
				case w.updates <- cfg:
				case <-ctx.Done():
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
