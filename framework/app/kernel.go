// Package app wires configuration, catalog, resolver, cache and metrics into
// one application serving the inspection API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-composer/framework/cache"
	"github.com/km-arc/go-composer/framework/catalog"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/metrics"
	"github.com/km-arc/go-composer/framework/routing"
)

// Version is reported by /healthz and the CLI.
const Version = "0.1.0"

const shutdownTimeout = 30 * time.Second

// Application is the top-level application, modelled on Laravel's Application.
type Application struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Router  *routing.Router
	Metrics *metrics.Collector

	props   container.Properties
	watcher *catalog.Watcher

	mu       sync.RWMutex
	resolver *container.Resolver
	cache    *cache.Cache
}

// New bootstraps the application from cfg: the catalog is loaded from
// CATALOG_PATH and followed when CATALOG_WATCH is set.
//
//	cfg := config.Load()
//	application, err := app.New(cfg, logging.New(cfg.Log), config.Properties(".env"))
//	application.Run(ctx)
func New(cfg *config.Config, logger zerolog.Logger, props container.Properties) (*Application, error) {
	w, err := catalog.NewWatcher(cfg.Catalog.Path, logger.With().Str("component", "catalog").Logger())
	if err != nil {
		return nil, err
	}

	a := NewWithCatalog(cfg, logger, w.Current(), props)
	a.watcher = w

	w.OnChange(a.swap)
	w.OnReloadError(a.Metrics.ObserveCatalogReload)

	if cfg.Catalog.Watch {
		if err := w.Watch(); err != nil {
			w.Stop()
			return nil, err
		}
	}
	return a, nil
}

// NewWithCatalog bootstraps the application around an already built catalog.
func NewWithCatalog(cfg *config.Config, logger zerolog.Logger, c *container.Catalog, props container.Properties) *Application {
	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Router:  routing.New(logger),
		Metrics: metrics.New(),
		props:   props,
	}

	a.resolver = a.newResolver(c)
	if cfg.Cache.Enabled {
		a.cache = cache.New(a.resolver,
			cache.WithRecorder(a.Metrics),
			cache.WithLogger(logger.With().Str("component", "cache").Logger()),
		)
	}

	a.routes()
	return a
}

func (a *Application) newResolver(c *container.Catalog) *container.Resolver {
	return container.NewResolver(c,
		container.WithPolicy(a.Config.Policy()),
		container.WithMaxSelectorDepth(a.Config.Resolver.MaxSelectorDepth),
		container.WithProperties(a.props),
		container.WithLogger(a.Logger.With().Str("component", "resolver").Logger()),
		container.WithObserver(a.Metrics),
	)
}

// swap installs a freshly loaded catalog.
func (a *Application) swap(c *container.Catalog) {
	r := a.newResolver(c)

	a.mu.Lock()
	a.resolver = r
	a.mu.Unlock()

	if a.cache != nil {
		a.cache.Reset(r)
	}
	a.Metrics.ObserveCatalogReload(nil)
}

// Catalog returns the catalog currently served.
func (a *Application) Catalog() *container.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver.Catalog()
}

// Resolve runs (or reuses) a resolution pass for root under policy.
func (a *Application) Resolve(ctx context.Context, root string, policy container.Policy) (*container.Result, error) {
	a.mu.RLock()
	r := a.resolver
	a.mu.RUnlock()

	// Roots come from request paths. Rejecting unknown ones here keeps them
	// out of the cache and out of the per-root metric labels.
	if kind, err := r.Catalog().Classify(root); err != nil || kind != container.ModuleRef {
		return nil, fmt.Errorf("%w: root %q is not a module", container.ErrUnknownTarget, root)
	}

	if a.cache != nil {
		return a.cache.Get(ctx, root, policy)
	}
	return r.With(container.WithPolicy(policy)).Resolve(ctx, root)
}

// Run serves HTTP on APP_PORT until ctx is cancelled, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.App.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", srv.Addr).
			Str("app", a.Config.App.Name).
			Str("env", a.Config.App.Env).
			Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	a.Close()
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Reload rebuilds the catalog from CATALOG_PATH now, without waiting for a
// file event.
func (a *Application) Reload() error {
	if a.watcher == nil {
		return errors.New("application was built without a catalog file")
	}
	return a.watcher.Reload()
}

// Close stops following the catalog file.
func (a *Application) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
