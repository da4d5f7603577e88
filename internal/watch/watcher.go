// Package watch polls the documents directory and reruns the pipeline when
// literate sources change. Polling keeps the watcher dependency-free on
// platforms where inotify-style APIs are unavailable inside the editor
// sandbox.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Config configures the document watcher.
type Config struct {
	// Dir is the documents directory to poll.
	Dir string
	// Pattern limits watched files (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	// Interval is the polling period.
	Interval time.Duration
	// Debounce is the quiet period required before a batch of changes is
	// reported. Rapid successive saves collapse into one callback.
	Debounce time.Duration
}

// Watcher monitors literate documents for modification and removal.
type Watcher struct {
	cfg    Config
	logger interfaces.Logger

	mu         sync.Mutex
	onChange   func(paths []string)
	running    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
	pending    map[string]struct{}
	lastEvent  time.Time
}

func New(cfg Config, logger interfaces.Logger) *Watcher {
	if cfg.Pattern == "" {
		cfg.Pattern = "*.md"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Watcher{
		cfg:        cfg,
		logger:     logger,
		timestamps: make(map[string]time.Time),
		pending:    make(map[string]struct{}),
	}
}

// OnChange sets the callback invoked with the batch of changed paths.
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until the context is cancelled or Stop is called. Calling
// Start on a running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			w.poll()
		}
	}
}

// Stop terminates a running watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.walk(func(path string, modTime time.Time) {
		w.timestamps[path] = modTime
	})
}

// poll detects modified and removed documents, accumulates them, and fires
// the callback once the debounce window has been quiet.
func (w *Watcher) poll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]struct{})
	w.walk(func(path string, modTime time.Time) {
		seen[path] = struct{}{}
		last, exists := w.timestamps[path]
		if !exists || modTime.After(last) {
			w.timestamps[path] = modTime
			w.pending[path] = struct{}{}
			w.lastEvent = time.Now()
		}
	})

	for path := range w.timestamps {
		if _, ok := seen[path]; !ok {
			delete(w.timestamps, path)
			w.pending[path] = struct{}{}
			w.lastEvent = time.Now()
		}
	}

	if len(w.pending) == 0 || w.onChange == nil {
		return
	}
	if time.Since(w.lastEvent) < w.cfg.Debounce {
		return
	}

	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	w.pending = make(map[string]struct{})
	callback := w.onChange
	w.logger.Debug("watch.changes", "count", len(batch))

	// Release the lock while user code runs.
	w.mu.Unlock()
	callback(batch)
	w.mu.Lock()
}

func (w *Watcher) walk(visit func(path string, modTime time.Time)) {
	root := w.cfg.Dir
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if !w.cfg.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.matches(path) {
			return nil
		}
		visit(path, info.ModTime())
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	pattern := filepath.ToSlash(w.cfg.Pattern)
	target := filepath.ToSlash(path)
	if !strings.Contains(pattern, "/") {
		target = filepath.Base(path)
	}
	ok, err := doublestar.PathMatch(pattern, target)
	if err != nil {
		return false
	}
	return ok
}
