// Package bootstrap wires infrastructure into the use cases for both
// binaries. The API and worker share the same App; each uses the parts it
// needs.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/papaclick/papaclick-engine/internal/config"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
	"github.com/papaclick/papaclick-engine/internal/core/usecase"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/catalog"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/classifier/remotemodel"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/export/excel"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/queue/nats"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/repository/postgres"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/resilience"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue   *nats.Queue
	Querier ports.ClassificationQuerier

	SubmitUC *usecase.SubmitClassificationUseCase
	ReviewUC *usecase.ReviewClassificationUseCase
	StatsUC  *usecase.StatisticsUseCase
	TrailUC  *usecase.AuditTrailUseCase
	ExportUC *usecase.ExportReportUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, monitor ports.AuditMonitor) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	repo := postgres.NewClassificationRepository(db)
	auditLog := postgres.NewAuditRepository(db)
	statsReader := postgres.NewStatsRepository(db)
	varieties := postgres.NewVarietyRepository(db)

	seed, err := catalog.LoadSeed(cfg.VarietySeedPath)
	if err != nil {
		return nil, fmt.Errorf("load variety seed: %w", err)
	}
	if err := varieties.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed varieties: %w", err)
	}

	images, err := localfs.New(cfg.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	model := remotemodel.New(cfg.ModelURL, executor)
	renderer := excel.NewRenderer()

	submitUC := usecase.NewSubmitClassificationUseCase(repo, auditLog, varieties, model, images, queue, monitor)
	reviewUC := usecase.NewReviewClassificationUseCase(repo, auditLog, queue, monitor)
	queryUC := usecase.NewQueryClassificationsUseCase(repo)
	statsUC := usecase.NewStatisticsUseCase(repo, statsReader)
	trailUC := usecase.NewAuditTrailUseCase(auditLog)
	exportUC := usecase.NewExportReportUseCase(repo, statsUC, renderer, auditLog, monitor)

	return &App{
		Config: cfg,

		Queue:   queue,
		Querier: queryUC,

		SubmitUC: submitUC,
		ReviewUC: reviewUC,
		StatsUC:  statsUC,
		TrailUC:  trailUC,
		ExportUC: exportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
