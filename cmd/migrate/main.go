package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mechlink/mechlink/internal/adapters/postgres"
	"github.com/mechlink/mechlink/internal/pkg/config"
	"github.com/mechlink/mechlink/internal/pkg/logging"
)

const usage = "usage: migrate <up|status> [dir]"

// migrate applies migrations/*.sql in lexical order. Applied file names are
// recorded in schema_migrations so reruns only apply new files.
func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("mechlink-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	dir := "migrations"
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	files, err := migrationFiles(dir)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	if _, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		log.Fatalf("create schema_migrations: %v", err)
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		n := 0
		for _, f := range files {
			name := filepath.Base(f)
			if applied[name] {
				continue
			}
			if err := apply(ctx, db, f, name); err != nil {
				log.Fatalf("%s: %v", name, err)
			}
			slog.Info("migration applied", "name", name)
			n++
		}
		slog.Info("migrations up to date", "applied", n, "total", len(files))
	case "status":
		for _, f := range files {
			name := filepath.Base(f)
			state := "pending"
			if applied[name] {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, name)
		}
	default:
		log.Fatalf("unknown command %q; %s", os.Args[1], usage)
	}
}

func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func appliedMigrations(ctx context.Context, db *postgres.DB) (map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

// apply runs one file and records it in the same transaction.
func apply(ctx context.Context, db *postgres.DB, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
		return err
	})
}
