package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/rendermanager/engine/core"
)

/**
 * @brief Reloads a config file whenever it is written and passes the new
 * config to every subscriber. Invalid files are logged and ignored, the last
 * good config stays in effect.
 */
type Watcher struct {
	path string

	mutex       sync.RWMutex
	current     *Config
	subscribers []func(*Config)

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	isClosed bool
}

func NewWatcher(path string, initial *Config) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, editors often replace the file instead of writing it.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		current:  initial,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.start()
	return w, nil
}

func (w *Watcher) Subscribe(fn func(*Config)) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.subscribers = append(w.subscribers, fn)
}

func (w *Watcher) Current() *Config {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.current
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return errors.New("config watcher already closed")
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	<-w.stopped
	return nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e := <-w.fsnotify.Events:
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.reload()
			}

		case err := <-w.fsnotify.Errors:
			if err != nil {
				core.LogError("%s", err)
			}

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		core.LogWarn("keeping previous config: %s", err)
		return
	}

	w.mutex.Lock()
	w.current = cfg
	subscribers := append([]func(*Config){}, w.subscribers...)
	w.mutex.Unlock()

	core.LogInfo("config %s reloaded", w.path)
	for _, fn := range subscribers {
		fn(cfg)
	}
}
