// Command dashboard serves the read-only JSON API over the report files.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alisaleks/Agenda-App/internal/config"
	"github.com/alisaleks/Agenda-App/internal/handler"
	"github.com/alisaleks/Agenda-App/internal/metrics"
	"github.com/alisaleks/Agenda-App/internal/server"
	"github.com/alisaleks/Agenda-App/internal/store"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		logger.Error("failed to load report timezone", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	reports := &store.Store{
		Dir:    cfg.OutputDir,
		Format: report.Format(cfg.OutputFormat),
		Today:  func() timeutil.Date { return timeutil.DateOf(time.Now().In(loc)) },
		OnLoad: func(kind store.Kind, stale bool) {
			m.FileLoaded(string(kind), stale)
			if stale {
				logger.Warn("serving fallback report file", "kind", kind)
			}
		},
	}

	router := server.NewRouter(cfg, logger, m.Registry,
		handler.HealthHandler{Reports: reports},
		handler.ReportHandler{Store: reports, Logger: logger},
	)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
