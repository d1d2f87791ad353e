package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a config file and publishes each valid revision into a
// [Runtime], so threshold and sensor-toggle changes take effect without a
// restart. Polling (rather than fsnotify) keeps the dependency surface
// small and behaves identically across platforms and bind mounts.
type Watcher struct {
	path     string
	interval time.Duration
	runtime  *Runtime
	onSwap   func(old, next *Config)

	done     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOnSwap registers a callback invoked after each successful reload,
// outside any internal lock, with the outgoing and incoming snapshots.
func WithOnSwap(fn func(old, next *Config)) WatcherOption {
	return func(w *Watcher) {
		w.onSwap = fn
	}
}

// NewWatcher loads the file at path, seeds rt with it, and starts polling
// in a background goroutine. Invalid revisions written later are logged
// and skipped; the runtime keeps serving the last valid snapshot.
func NewWatcher(path string, rt *Runtime, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		runtime:  rt,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, hash, mtime, err := w.loadAndHash()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	if err := rt.Replace(cfg); err != nil {
		return nil, err
	}
	w.lastHash = hash
	w.lastMtime = mtime

	go w.poll()
	return w, nil
}

// Stop terminates the polling goroutine. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check re-reads the file when its mtime moved and swaps the runtime
// snapshot when the content hash actually differs.
func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	cfg, hash, newMtime, err := w.loadAndHash()
	if err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.lastHash {
		// Touched but unchanged.
		w.lastMtime = newMtime
		w.mu.Unlock()
		return
	}
	w.lastHash = hash
	w.lastMtime = newMtime
	w.mu.Unlock()

	old := w.runtime.Current()
	if err := w.runtime.Replace(cfg); err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		return
	}

	slog.Info("config watcher: configuration reloaded", "path", w.path)

	if w.onSwap != nil {
		w.onSwap(old, cfg)
	}
}

// loadAndHash reads the file once and returns the parsed config alongside
// the content hash and modification time used for change detection.
func (w *Watcher) loadAndHash() (*Config, [sha256.Size]byte, time.Time, error) {
	var zero [sha256.Size]byte

	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, zero, time.Time{}, err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, zero, time.Time{}, err
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, zero, time.Time{}, err
	}
	return cfg, sha256.Sum256(data), info.ModTime(), nil
}
