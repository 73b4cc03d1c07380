package input

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// FileWatcher reports changes to one workbook file. It watches the parent
// directory, since editors and SMB mounts replace files by rename, and
// debounces bursts of write events into a single notification.
type FileWatcher struct {
	path     string
	debounce time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

func NewFileWatcher(path string, debounce time.Duration) *FileWatcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &FileWatcher{
		path:     path,
		debounce: debounce,
		stopChan: make(chan struct{}),
	}
}

func (w *FileWatcher) Start(ctx context.Context) (<-chan string, <-chan error) {
	pathChan := make(chan string, 1)
	errChan := make(chan error, 10)

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		close(pathChan)
		return pathChan, errChan
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	go func() {
		defer close(pathChan)
		defer close(errChan)

		fw, err := fsnotify.NewWatcher()
		if err != nil {
			log.Error().Err(err).Msg("Failed to create file watcher")
			errChan <- err
			return
		}
		defer fw.Close()

		dir := filepath.Dir(w.path)
		if err := fw.Add(dir); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("Failed to watch directory")
			errChan <- err
			return
		}

		log.Info().
			Str("path", w.path).
			Dur("debounce", w.debounce).
			Msg("Watching workbook for changes")

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
					timerC = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(w.debounce)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Watcher error")
				errChan <- err
			case <-timerC:
				timer = nil
				timerC = nil
				select {
				case pathChan <- w.path:
				default:
					// A notification is already pending; the next analysis
					// will pick up the latest file state anyway.
				}
			}
		}
	}()

	return pathChan, errChan
}

func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	w.running = false
	return nil
}

func (w *FileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
