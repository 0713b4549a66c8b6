package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twquant/internal/api"
	"twquant/internal/backend"
	"twquant/internal/config"
	"twquant/internal/prefs"
	"twquant/internal/session"
	"twquant/internal/util"
	"twquant/internal/watchlist"
)

func main() {
	// Load config.
	cfgPath := "config/twquant.yaml"
	if p := os.Getenv("TWQUANT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Setup logging. The file sink rotates; stdout stays plain.
	var w io.Writer = os.Stdout
	if cfg.Logging.File != "" {
		w = io.MultiWriter(os.Stdout, util.FileWriter(cfg.Logging.File))
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, w)
	util.SetDefault(logger)

	// Wire the gateway.
	remote := backend.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		cfg.Backend.RateLimitPerMin,
		logger,
	)
	store := prefs.Open(cfg.Storage.SQLitePath, logger)
	defer store.Close()

	state := session.New(cfg.UI.PageSize, logger)
	watch := watchlist.NewService(remote, store, logger)
	srv := api.NewServer(remote, state, store, watch, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Warm reference data; a cold backend only delays it.
	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	srv.Init(initCtx)
	initCancel()

	go srv.Hub().Run()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("twquant gateway listening", "addr", httpServer.Addr, "backend", cfg.Backend.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down twquant gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
