package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/neo/internal/config"
	"github.com/JonMunkholm/neo/internal/core"
	"github.com/JonMunkholm/neo/internal/logging"
	"github.com/JonMunkholm/neo/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"neo_path", cfg.Data.NEOPath,
		"cad_path", cfg.Data.CADPath,
		"reload_interval", cfg.Data.ReloadInterval.String(),
		"strict_events", cfg.Data.StrictEvents,
	)

	service, err := core.NewService(core.ServiceConfig{
		NEOPath: cfg.Data.NEOPath,
		CADPath: cfg.Data.CADPath,
		BodyColumns: core.BodyColumns{
			Designation: cfg.Columns.NEODesignation,
			Name:        cfg.Columns.NEOName,
			Diameter:    cfg.Columns.NEODiameter,
			Hazardous:   cfg.Columns.NEOHazardous,
		},
		EventColumns: core.EventColumns{
			Designation: cfg.Columns.CADDesignation,
			Time:        cfg.Columns.CADTime,
			Distance:    cfg.Columns.CADDistance,
			Velocity:    cfg.Columns.CADVelocity,
		},
		HazardTokens: cfg.Columns.HazardTrueValues,
		StrictEvents: cfg.Data.StrictEvents,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// A failed first load is not fatal; the API reports 503 until a reload succeeds.
	if _, err := service.Load(context.Background()); err != nil {
		msg := core.MapError(err)
		slog.Error("initial load failed", "error", err, "code", msg.Code, "action", msg.Action)
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartReloadScheduler(jobCtx, cfg.Data.ReloadInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
