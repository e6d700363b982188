// Package runtime wires the application together and manages the HTTP
// server lifecycle.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/insightlabs/analytics-dashboard/internal/auth"
	"github.com/insightlabs/analytics-dashboard/internal/cache"
	"github.com/insightlabs/analytics-dashboard/internal/config"
	"github.com/insightlabs/analytics-dashboard/internal/datasource"
	"github.com/insightlabs/analytics-dashboard/internal/httpapi"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

// Application holds the wired components and the HTTP server.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *http.Server
	repo       *datasource.Repository
	store      cache.Store
}

// NewApplication loads configuration and builds the full dependency graph:
// logger, data source repository, cache store and facade, authenticator,
// router, HTTP server.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.DisableAuth {
		log.Warn("DISABLE_AUTH is set; all requests bypass authentication. Never use this in production")
	}

	repo, err := datasource.NewRepository(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure data source: %w", err)
	}

	store, err := cache.NewStore(cfg)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("configure cache store: %w", err)
	}
	facade := cache.NewFacade(store, repo, cfg.CacheTimeout, log)

	authn := auth.New(cfg)
	router := httpapi.NewRouter(cfg, log, authn, facade)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: srv,
		repo:       repo,
		store:      store,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("dashboard listening on %s (env=%s source=%s cache=%s)",
			a.httpServer.Addr, a.cfg.AppEnv, a.cfg.DataSource, a.cfg.CacheType)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and releases backend handles.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := a.repo.Close(); err != nil {
		a.log.WithError(err).Warn("error closing data source")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("error closing cache store")
		}
	}
	return nil
}
