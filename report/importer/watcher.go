package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/report"
)

// DefaultDebounce is how long the Watcher waits for a burst of file events
// to settle before submitting.
const DefaultDebounce = 200 * time.Millisecond

// Submitter accepts pipeline input. *report.Pipeline implements it.
type Submitter interface {
	Submit(raw core.Result[report.URL, error])
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// Watcher submits a file to a pipeline when it starts and again whenever
// the file is written, created or renamed into place.
type Watcher struct {
	path     string
	target   Submitter
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	trigger  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a Watcher for path. Call Start to begin watching.
func NewWatcher(path string, target Submitter, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watched path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		path:     abs,
		target:   target,
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start submits the file once and begins watching its directory. Watching
// the directory survives editors that replace files instead of writing
// them in place.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.logger.Info("Starting file watcher", "path", w.path)
	w.submit()

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.submitLoop(ctx)
	return nil
}

// Stop stops watching and waits for the watcher goroutines to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping file watcher", "path", w.path)
		close(w.stop)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				w.logger.Debug("Watched file changed", "path", event.Name, "op", event.Op.String())
				w.schedule()
			case event.Has(fsnotify.Remove):
				w.logger.Warn("Watched file removed", "path", event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

// submitLoop coalesces triggers that arrive within the debounce interval.
func (w *Watcher) submitLoop(ctx context.Context) {
	defer w.wg.Done()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.submit)
		}
	}
}

func (w *Watcher) schedule() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) submit() {
	raw := Import(w.path)
	if raw.IsFailure() {
		w.logger.Warn("Watched file could not be imported", "path", w.path, "error", raw.Error())
	}
	w.target.Submit(raw)
}
