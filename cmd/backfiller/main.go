package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/mechlink/mechlink/internal/adapters/nats"
	"github.com/mechlink/mechlink/internal/adapters/nominatim"
	"github.com/mechlink/mechlink/internal/adapters/postgres"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/core/usecases"
	"github.com/mechlink/mechlink/internal/pkg/config"
	"github.com/mechlink/mechlink/internal/pkg/logging"
	"github.com/mechlink/mechlink/internal/workflows"
)

const backfillWorkflowID = "coordinate-backfill"

func main() {
	cfg, err := config.Load("mechlink-backfiller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, workshop updates will not be announced", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	timeout := time.Duration(cfg.Geocoding.TimeoutSeconds) * time.Second
	geocoding := usecases.NewGeocodingService(
		nominatim.New(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent, timeout),
		nil,
		usecases.GeocodingOptions{Timeout: timeout, DefaultRegion: cfg.Geocoding.DefaultRegion},
	)
	backfill := usecases.NewBackfillService(postgres.NewWorkshopRepo(db), geocoding, publisher)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.CoordinateBackfillWorkflow)
	w.RegisterActivity(&workflows.BackfillActivities{Backfill: backfill})

	if cfg.Temporal.BackfillCron != "" {
		_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:           backfillWorkflowID,
			TaskQueue:    cfg.Temporal.TaskQueue,
			CronSchedule: cfg.Temporal.BackfillCron,
		}, workflows.CoordinateBackfillWorkflow, workflows.BackfillInput{
			BatchSize: cfg.Temporal.BackfillBatchSize,
			Pause:     time.Second,
		})
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		switch {
		case err == nil:
			slog.Info("backfill schedule registered", "cron", cfg.Temporal.BackfillCron)
		case errors.As(err, &started):
			slog.Info("backfill schedule already registered", "cron", cfg.Temporal.BackfillCron)
		default:
			log.Fatalf("start backfill workflow: %v", err)
		}
	}

	slog.Info("backfill worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
