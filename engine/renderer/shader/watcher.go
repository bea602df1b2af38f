package shader

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates Library entries when their files change on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	lib     Library
	done    chan struct{}
	wg      sync.WaitGroup

	// OnInvalidate, when set before events arrive, is called with the names each change invalidated.
	OnInvalidate func(names []string)
}

// NewWatcher starts watching dir for .wgsl changes.
//
// Parameters:
//   - lib: the library to invalidate
//   - dir: the shader directory
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the directory could not be watched
func NewWatcher(lib Library, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		lib:     lib,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	common.Logger().Info("watching shaders", slog.String("dir", dir))
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".wgsl") {
				continue
			}
			switch {
			case event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename:
				names := w.lib.Invalidate(filepath.Base(event.Name))
				common.Logger().Debug("shader changed", slog.String("file", event.Name), slog.Any("invalidated", names))
				if w.OnInvalidate != nil {
					w.OnInvalidate(names)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", slog.Any("error", err))
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
