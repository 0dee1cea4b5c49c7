package catalog

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-composer/framework/container"
)

// Watcher holds the current catalog built from a file and rebuilds it when
// the file changes. A failed reload keeps the previous catalog.
type Watcher struct {
	mu       sync.RWMutex
	catalog  *container.Catalog
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*container.Catalog)
	onError  []func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads the catalog at path. Call Watch to follow changes.
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	c, err := LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Watcher{
		catalog: c,
		path:    absPath,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Current returns the latest successfully built catalog.
func (w *Watcher) Current() *container.Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.catalog
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Reload rebuilds the catalog from disk and notifies listeners.
func (w *Watcher) Reload() error {
	w.logger.Info().Str("path", w.path).Msg("reloading catalog")

	c, err := LoadCatalog(w.path)
	if err != nil {
		w.logger.Error().Err(err).Msg("catalog reload failed, keeping old catalog")
		w.mu.RLock()
		listeners := append([]func(error){}, w.onError...)
		w.mu.RUnlock()
		for _, fn := range listeners {
			fn(err)
		}
		return fmt.Errorf("reload catalog: %w", err)
	}

	w.mu.Lock()
	old := w.catalog
	w.catalog = c
	listeners := append([]func(*container.Catalog){}, w.onChange...)
	w.mu.Unlock()

	w.logChanges(old, c)

	for _, fn := range listeners {
		fn(c)
	}

	w.logger.Info().Msg("catalog reloaded successfully")
	return nil
}

// OnChange registers a callback run after every successful reload.
func (w *Watcher) OnChange(fn func(*container.Catalog)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// OnReloadError registers a callback run after every failed reload.
func (w *Watcher) OnReloadError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = append(w.onError, fn)
}

// Watch starts following the catalog file. Writes and creates trigger a
// reload.
func (w *Watcher) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors that save atomically replace the file.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	go w.watchLoop(watcher)

	w.logger.Info().Str("path", w.path).Msg("watching catalog for changes")
	return nil
}

// Stop ends the watch loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *Watcher) watchLoop(watcher *fsnotify.Watcher) {
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("catalog file changed")

				if err := w.Reload(); err != nil {
					w.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) logChanges(old, cur *container.Catalog) {
	before, after := old.Stats(), cur.Stats()
	for _, kind := range []container.DeclKind{container.ModuleRef, container.ComponentRef, container.SelectorRef, container.RegistrarRef} {
		if before[kind] != after[kind] {
			w.logger.Info().
				Str("kind", kind.String()).
				Int("old", before[kind]).
				Int("new", after[kind]).
				Msg("catalog entries changed")
		}
	}
}
