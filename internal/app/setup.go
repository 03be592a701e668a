// Package app wires configuration into the running services shared by the
// server and the ops CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"scribe/internal/artifacts"
	"scribe/internal/config"
	"scribe/internal/domain/repositories"
	transRepo "scribe/internal/domain/repositories/translation"
	transSvc "scribe/internal/domain/services/translation"
	"scribe/internal/render/chromium"
	"scribe/internal/render/cpdf"
	"scribe/internal/render/htmlpage"
	"scribe/internal/repository/postgres"
	postgresTrans "scribe/internal/repository/postgres/translation"
	"scribe/internal/repository/sqlite"
	"scribe/internal/service/auth"
	"scribe/internal/service/export"
	"scribe/internal/service/printing"
	"scribe/internal/service/translation"
	"scribe/internal/tasks"
	"scribe/internal/tasks/converter"
)

// App holds the wired services.
type App struct {
	Catalog    *tasks.Catalog
	Store      transSvc.ContentStore
	Reconciler transSvc.Reconciler
	Pipeline   *export.Pipeline
	Printer    *printing.Dispatcher // nil when no print service is configured
	Layout     *artifacts.Layout

	closers []func()
}

// Close releases storage connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Storage is one backend's repositories.
type Storage struct {
	Documents transRepo.DocumentRepository
	Versions  transRepo.VersionRepository
	Particles transRepo.ParticleRepository
	TxManager repositories.TransactionManager
	Close     func()
}

// OpenStorage connects the configured backend and makes sure its schema exists.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLiteDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", "driver", cfg.StoreDriver, "path", store.Path())
		return &Storage{
			Documents: store.Documents(),
			Versions:  store.Versions(),
			Particles: store.Particles(),
			TxManager: store.TransactionManager(),
			Close:     func() { store.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: 25, MinConns: 5})
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database connected",
			"driver", cfg.StoreDriver,
			"table_prefix", cfg.TablePrefix,
			"max_conns", 25,
			"min_conns", 5,
		)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		return &Storage{
			Documents: postgresTrans.NewDocumentRepository(repoConfig),
			Versions:  postgresTrans.NewVersionRepository(repoConfig),
			Particles: postgresTrans.NewParticleRepository(repoConfig),
			TxManager: postgres.NewTransactionManager(pool, logger),
			Close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Build creates every service from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{}

	registry := converter.NewRegistry()
	catalog, err := tasks.NewCatalog(cfg.TaskCatalog, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("load task catalog: %w", err)
	}
	app.Catalog = catalog

	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, storage.Close)

	authorizer := auth.NewOwnerBasedAuthorizer(storage.Documents)
	app.Store = translation.NewContentStore(
		storage.Documents,
		storage.Versions,
		storage.Particles,
		storage.TxManager,
		catalog,
		authorizer,
		logger,
	)
	app.Reconciler = translation.NewReconciler(
		storage.Documents,
		storage.Versions,
		storage.Particles,
		storage.TxManager,
		app.Store,
		logger,
	)

	app.Layout = artifacts.NewLayout(cfg.MediaRoot, cfg.CanonicalOwner)
	pipeline, err := NewPipeline(cfg, app.Store, catalog, app.Layout, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Pipeline = pipeline

	if cfg.Print.Address != "" {
		app.Printer, err = printing.NewDispatcher(cfg.Print.Address, cfg.Print.Timeout, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
	} else {
		logger.Warn("PRINT_SYSTEM_ADDRESS not set, printing disabled")
	}

	return app, nil
}

// NewPipeline wires the export pipeline with the real render backends.
func NewPipeline(cfg *config.Config, store transSvc.ContentStore, taskSource tasks.Source, layout *artifacts.Layout, logger *slog.Logger) (*export.Pipeline, error) {
	paper, ok := chromium.PaperByName(cfg.Render.Paper)
	if !ok {
		return nil, fmt.Errorf("unknown paper size %q", cfg.Render.Paper)
	}

	renderer, err := htmlpage.NewRenderer()
	if err != nil {
		return nil, err
	}

	rasterizer := chromium.NewRasterizer(chromium.Options{
		Bin:       cfg.Render.ChromiumPath,
		NoSandbox: cfg.Render.NoSandbox,
		Timeout:   cfg.Render.Timeout,
		JSDelay:   cfg.Render.JSDelay,
		Paper:     paper,
		Margin:    cfg.Render.Margin,
		Scale:     cfg.Render.Scale,
		TempDir:   cfg.Render.WorkDir,
	}, logger)
	annotator := cpdf.NewAnnotator(cfg.Render.CPDFPath, cfg.Render.WorkDir, cpdf.ExecRunner{})

	return export.NewPipeline(
		store,
		taskSource,
		layout,
		renderer,
		rasterizer,
		annotator,
		export.Policy{
			RasterizeAttempts:    cfg.Render.Attempts,
			RetryBackoff:         cfg.Render.RetryBackoff,
			PageNumbersRequired:  cfg.Render.PageNumbersRequired,
			MaxConcurrentRenders: cfg.Render.MaxConcurrent,
			LaunchRate:           cfg.Render.LaunchRate,
		},
		logger,
	), nil
}
