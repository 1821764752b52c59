package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	natsadapter "github.com/mechlink/mechlink/internal/adapters/nats"
	"github.com/mechlink/mechlink/internal/adapters/postgres"
	"github.com/mechlink/mechlink/internal/core/domain"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/core/usecases"
	"github.com/mechlink/mechlink/internal/pkg/config"
	"github.com/mechlink/mechlink/internal/pkg/logging"
)

// importer loads workshops from a JSON array file and upserts them.
//
//	importer -file data/workshops.json
//
// Records are listed as active unless -activate=false, in which case their
// own is_active value is kept.
func main() {
	file := flag.String("file", "data/workshops.json", "JSON file with an array of workshops")
	activate := flag.Bool("activate", true, "mark every imported workshop active")
	flag.Parse()

	cfg, err := config.Load("mechlink-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var workshops []domain.Workshop
	if err := json.Unmarshal(data, &workshops); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}
	if *activate {
		for i := range workshops {
			workshops[i].IsActive = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, imports will not be announced", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	svc := usecases.NewWorkshopService(postgres.NewWorkshopRepo(db), nil, nil, publisher)

	start := time.Now()
	n, err := svc.Import(ctx, workshops)
	if err != nil {
		log.Fatalf("import stopped after %d workshops: %v", n, err)
	}
	slog.Info("import complete", "file", *file, "workshops", n, "took", time.Since(start).String())
}
