package tui

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gerunddev/planbridge/internal/log"
)

// DirWatcher signals when files change in a set of plan directories.
type DirWatcher struct {
	watcher *fsnotify.Watcher
	changes chan struct{}
	stopCh  chan struct{}
	once    sync.Once
}

// NewDirWatcher watches dirs. Directories that cannot be watched, for
// example because they do not exist yet, are skipped.
func NewDirWatcher(dirs []string) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Debug("not watching plan directory", "dir", dir, "error", err)
		}
	}

	w := &DirWatcher{
		watcher: watcher,
		changes: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per burst of file events. The channel is
// closed when the watcher stops.
func (w *DirWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching.
func (w *DirWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *DirWatcher) loop() {
	defer close(w.changes)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
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
			log.Warn("plan watcher error", "error", err)
		}
	}
}
