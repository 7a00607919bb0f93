package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lockstock/trivia-engine/internal/config"
	"github.com/lockstock/trivia-engine/internal/observability"
	"github.com/lockstock/trivia-engine/internal/repo"
	"github.com/lockstock/trivia-engine/internal/sysutil"
)

var flagDBPath string

// app bundles the dependencies every command needs: loaded config, an open
// migrated database, and a shutdown hook flushing traces and closing the DB.
type app struct {
	cfg config.Config
	db  *gorm.DB

	otelShutdown func(context.Context) error
}

// newApp loads configuration, wires logging, opens the database, and starts
// optional observability. Callers must defer a.close(ctx).
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	dbPath := sysutil.FirstNonEmpty(flagDBPath, cfg.DBPath)
	db, err := repo.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}

	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	log.Debug().Str("db", dbPath).Msg("engine initialized")
	return &app{cfg: cfg, db: db, otelShutdown: shutdown}, nil
}

func (a *app) close(ctx context.Context) {
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// serveMetrics exposes the Prometheus registry for scrape-while-running
// commands such as long generate batches.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
	}
}
