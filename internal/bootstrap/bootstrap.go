// Package bootstrap wires the infrastructure to the core use cases for both
// binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/diagnostiq/qft-results/internal/config"
	"github.com/diagnostiq/qft-results/internal/core/ports"
	"github.com/diagnostiq/qft-results/internal/core/usecase"
	"github.com/diagnostiq/qft-results/internal/infrastructure/importer/spreadsheet"
	"github.com/diagnostiq/qft-results/internal/infrastructure/queue/nats"
	"github.com/diagnostiq/qft-results/internal/infrastructure/report/csvreport"
	"github.com/diagnostiq/qft-results/internal/infrastructure/report/excelreport"
	"github.com/diagnostiq/qft-results/internal/infrastructure/report/pdfreport"
	"github.com/diagnostiq/qft-results/internal/infrastructure/repository/postgres"
	"github.com/diagnostiq/qft-results/internal/infrastructure/repository/sqlite"
	"github.com/diagnostiq/qft-results/internal/infrastructure/resilience"
	"github.com/diagnostiq/qft-results/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Sessions ports.SessionRepository
	Jobs     ports.ExportJobRepository

	ImportUC  ports.ResultImporter
	SessionUC ports.SessionService
	SearchUC  ports.SampleSearcher
	ExportUC  ports.ExportService
	RenderUC  ports.ExportProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, sessions, jobs, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	artifacts, err := localfs.New(cfg.ArtifactDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init artifact store: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	parser := spreadsheet.NewParser()
	renderers := []ports.ReportRenderer{
		csvreport.NewRenderer(),
		excelreport.NewRenderer(),
		pdfreport.NewRenderer(),
	}

	return &App{
		Config:   cfg,
		Queue:    queue,
		Sessions: sessions,
		Jobs:     jobs,

		ImportUC:  usecase.NewImportResultsUseCase(sessions, parser),
		SessionUC: usecase.NewSessionUseCase(sessions),
		SearchUC:  usecase.NewSearchUseCase(sessions),
		ExportUC:  usecase.NewExportUseCase(sessions, jobs, queue, artifacts),
		RenderUC:  usecase.NewRenderExportUseCase(sessions, jobs, renderers, artifacts, cfg.Display()),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (*sql.DB, ports.SessionRepository, ports.ExportJobRepository, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		sessions := postgres.NewSessionRepository(db)
		if err := sessions.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return db, sessions, postgres.NewExportJobRepository(db), nil
	case "sqlite":
		db, err := sqlite.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		sessions := sqlite.NewSessionRepository(db)
		if err := sessions.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return db, sessions, sqlite.NewExportJobRepository(db), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
