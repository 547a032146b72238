package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"orgreg/internal/log"
)

// Watcher monitors the credentials file and reloads the provider when it
// changes on disk. Events are debounced so editors that write in bursts
// trigger a single reload.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	provider  *Provider
	debounce  time.Duration
	onReload  chan struct{}
	done      chan struct{}
}

// NewWatcher creates a credentials file watcher for the provider.
func NewWatcher(provider *Provider, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = time.Second
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		provider:  provider,
		debounce:  debounce,
		onReload:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the credentials file's directory.
// Returns a channel that receives a signal after each successful reload.
func (w *Watcher) Start() (<-chan struct{}, error) {
	// Watch the directory, not the file: editors replace files on save
	// and a direct file watch dies with the old inode
	dir := filepath.Dir(w.provider.Path())
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	return w.onReload, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				pending = false
				if err := w.provider.Reload(); err != nil {
					// Keep the previous credentials and keep watching
					log.ErrorErr(log.CatSession, "credentials reload failed", err,
						"path", w.provider.Path())
					continue
				}
				// Non-blocking send - drop if channel full
				select {
				case w.onReload <- struct{}{}:
				default:
				}
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event touches the credentials file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.provider.Path())
}
