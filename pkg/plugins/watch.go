package plugins

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultWatchDebounce coalesces bursts of filesystem events
const DefaultWatchDebounce = 500 * time.Millisecond

// DirectoryWatcher reports changes under plugin directories.
//
// A Discoverer caches its inventory for its lifetime; hosts that want to pick up
// installed or removed plugins create a new Discoverer when the watcher fires.
type DirectoryWatcher struct {
	watcher  *fsnotify.Watcher
	roots    map[string]struct{}
	debounce time.Duration
	log      *logrus.Logger
}

// NewDirectoryWatcher watches each existing directory and its immediate
// subdirectories. Missing directories are skipped.
func NewDirectoryWatcher(directories []string, debounce time.Duration, log *logrus.Logger) (*DirectoryWatcher, error) {
	if log == nil {
		log = logrus.New()
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &DirectoryWatcher{
		watcher:  watcher,
		roots:    make(map[string]struct{}, len(directories)),
		debounce: debounce,
		log:      log,
	}

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := w.addTree(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *DirectoryWatcher) addTree(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		w.log.Debugf("Not watching missing plugin directory: %s", dir)
		return nil
	}

	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.roots[filepath.Clean(dir)] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Warnf("Failed to read plugin directory %s: %v", dir, err)
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := w.watcher.Add(filepath.Join(dir, entry.Name())); err != nil {
			w.log.Warnf("Failed to watch plugin directory %s: %v", entry.Name(), err)
		}
	}

	return nil
}

// Run calls onChange once per burst of events until ctx is done or Close is called
func (w *DirectoryWatcher) Run(ctx context.Context, onChange func()) error {
	var (
		timer   *time.Timer
		pending <-chan time.Time
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

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 && w.isRoot(filepath.Dir(event.Name)) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.log.Warnf("Failed to watch new plugin directory %s: %v", event.Name, err)
					}
				}
			}

			w.log.WithFields(logrus.Fields{
				"path": event.Name,
				"op":   event.Op.String(),
			}).Debug("Plugin directory changed")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("Plugin directory watcher error: %v", err)
		}
	}
}

// isRoot reports whether dir is one of the watched plugin directories.
// Only immediate plugin subdirectories are watched below a root.
func (w *DirectoryWatcher) isRoot(dir string) bool {
	_, ok := w.roots[filepath.Clean(dir)]
	return ok
}

// Close stops watching
func (w *DirectoryWatcher) Close() error {
	return w.watcher.Close()
}
