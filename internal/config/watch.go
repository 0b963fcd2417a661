package config

import (
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Store holds a hot-reloadable Settings snapshot behind atomic.Pointer, so
// readers never block on a reload and a reload never hands out a
// partially-updated Settings (spec §6 "config changes take effect via
// atomic snapshot swap, never in-place mutation").
type Store struct {
	path    string
	log     *logger.Logger
	current atomic.Pointer[Settings]

	mu        sync.Mutex
	listeners []func(prev, next *Settings)

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads path once and wires an fsnotify watcher for hot reload.
// Validation failures during watch leave the previous snapshot active,
// matching the ConfigInvalid propagation policy (spec §7: "previous
// version stays active").
func NewStore(path string, log *logger.Logger) (*Store, error) {
	settings, err := LoadFile(path)
	if err != nil {
		return nil, corerrors.Wrap(corerrors.ConfigInvalid, "initial config load failed", err)
	}
	if err := Validate(settings); err != nil {
		return nil, err
	}

	s := &Store{path: path, log: log, done: make(chan struct{})}
	s.current.Store(settings)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, corerrors.Wrap(corerrors.Internal, "failed to start config watcher", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, corerrors.Wrap(corerrors.ConfigInvalid, "failed to watch config file", err)
	}
	s.watcher = w

	go s.loop()
	return s, nil
}

// Get returns the current immutable snapshot. Callers must not mutate it.
func (s *Store) Get() *Settings {
	return s.current.Load()
}

// OnChange registers a callback invoked after every successful reload with
// the previous and next snapshots, so subsystems (registry, matcher,
// pipeline) can diff and re-wire rather than restart (spec §6).
func (s *Store) OnChange(fn func(prev, next *Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) loop() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.With("error", err).Warnw("config watcher error")
		case <-s.done:
			return
		}
	}
}

func (s *Store) reload() {
	next, err := LoadFile(s.path)
	if err != nil {
		s.log.With("error", err).Warnw("config reload failed, keeping previous version")
		return
	}
	if err := Validate(next); err != nil {
		s.log.With("error", err).Warnw("config reload rejected by validation, keeping previous version")
		return
	}

	prev := s.current.Swap(next)

	s.mu.Lock()
	listeners := append([]func(prev, next *Settings){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
	s.log.Infow("config reloaded")
}

// Close stops the watcher goroutine.
func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
