package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the configuration file and pushes the runtime-safe
// subset to a channel whenever the file changes and still validates.
// A broken edit is logged and skipped; the previous settings stay in
// effect until the file is fixed.
type Watcher struct {
	cfile    string
	realhw   bool
	reloads  chan RuntimeConfig
	fswatch  *fsnotify.Watcher
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(cfile string, realhw bool) *Watcher {
	return &Watcher{
		cfile:    cfile,
		realhw:   realhw,
		reloads:  make(chan RuntimeConfig, 1),
		stopChan: make(chan struct{}),
	}
}

// Reloads returns the channel delivering reloaded runtime settings.
func (w *Watcher) Reloads() <-chan RuntimeConfig {
	return w.reloads
}

func (w *Watcher) Start() error {
	fswatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: editors replace the file on
	// save and the watch on the old inode would go stale.
	if err := fswatch.Add(filepath.Dir(w.cfile)); err != nil {
		fswatch.Close()
		return err
	}
	w.fswatch = fswatch

	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *Watcher) Stop() {
	if w.fswatch == nil {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
	w.fswatch.Close()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fswatch.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.cfile) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			conf, err := ReadConfig(w.cfile, w.realhw)
			if err != nil {
				slog.Warn("config reload skipped", "error", err)
				continue
			}
			slog.Info("config file changed, applying runtime settings", "file", w.cfile)
			// Only the latest reload matters, drop a pending one.
			select {
			case <-w.reloads:
			default:
			}
			w.reloads <- conf.Runtime()
		case err, ok := <-w.fswatch.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
