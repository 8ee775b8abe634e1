package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/smeta/internal/api"
	"github.com/dgallion1/smeta/internal/config"
	"github.com/dgallion1/smeta/internal/extract"
	"github.com/dgallion1/smeta/internal/pipeline"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./smeta.yaml or ~/.smeta/smeta.yaml)")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extractor := extract.NewExtractor(log, extract.NewParseStats(time.Hour))

	// Initialize pipeline.
	orch, err := pipeline.NewOrchestrator(cfg, extractor, log)
	if err != nil {
		log.Error("initialize pipeline", "error", err)
		os.Exit(1)
	}
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, extractor, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}

		orch.Stop()
	}()

	log.Info("starting smeta server",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"cache_size", cfg.CacheSize,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
