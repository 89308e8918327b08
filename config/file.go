package config

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/nlog"
)

// LoadFile reads a YAML override file into a Config, starting from
// DefaultConfig so an incomplete file only overrides what it sets.
func LoadFile(path string) (Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, cos.Wrap(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, cos.Wrap(err, "parse config file %s", path)
	}
	return c, nil
}

// Watcher hot-reloads a Config whenever its backing file changes, the same
// fsnotify-driven pattern the teacher's own config reload path uses.
type Watcher struct {
	mu     sync.RWMutex
	cur    Config
	path   string
	fsw    *fsnotify.Watcher
	stopCh chan struct{}
}

// WatchFile loads path once and then reloads it on every write/create event
// until Close is called.
func WatchFile(path string) (*Watcher, error) {
	c, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, cos.Wrap(err, "fsnotify.NewWatcher")
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, cos.Wrap(err, "watch %s", path)
	}
	w := &Watcher{cur: c, path: path, fsw: fsw, stopCh: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c, err := LoadFile(w.path)
			if err != nil {
				nlog.Warningf("config: reload %s failed: %v", w.path, err)
				continue
			}
			w.mu.Lock()
			w.cur = c
			w.mu.Unlock()
			nlog.Infof("config: reloaded %s", w.path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			nlog.Warningf("config: watch error: %v", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}

func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.fsw.Close()
}
