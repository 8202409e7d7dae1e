package config

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/syncaccess/internal/logging"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("config watcher closed")

// Watcher reloads the configuration whenever its file changes.
type Watcher struct {
	loader   *Loader
	watcher  *fsnotify.Watcher
	file     string
	debounce time.Duration
	onChange func(*Config, error)
	log      *logging.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce coalesces bursts of file events into one reload.
// Default is 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchLogger sets the logger for watcher diagnostics.
func WithWatchLogger(l *logging.Logger) WatchOption {
	return func(w *Watcher) {
		w.log = l
	}
}

// Watch starts watching the loader's file. onChange receives every reload
// result, including failed ones; the previous configuration stays in force
// until a reload succeeds.
//
// The containing directory is watched, so editors that save by replacing
// the file are seen too.
func Watch(loader *Loader, onChange func(*Config, error), opts ...WatchOption) (*Watcher, error) {
	file, err := filepath.Abs(loader.Path())
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(file)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		loader:   loader,
		watcher:  fsw,
		file:     file,
		debounce: 100 * time.Millisecond,
		onChange: onChange,
		log:      logging.Nop(),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error: %v", err)
		}
	}
}

// schedule arms or re-arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	cfg, err := w.loader.Load()
	if err != nil {
		w.log.Warn("config reload failed: %v", err)
	} else {
		w.log.Info("config reloaded from %s", w.file)
	}
	if w.onChange != nil {
		w.onChange(cfg, err)
	}
}

// Close stops watching. Closing twice returns ErrWatcherClosed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.watcher.Close()
	w.closedWg.Wait()
	return err
}
