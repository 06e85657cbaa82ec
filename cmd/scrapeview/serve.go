package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/api"
	"github.com/use-agent/scrapeview/cache"
	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/session"
	"github.com/use-agent/scrapeview/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the result view over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("host", "", "listen host (default 0.0.0.0)")
	f.Int("port", 0, "listen port (default 8090)")
	f.String("mode", "", "gin mode: debug, release or test")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// ── 2. Initialise structured logging ────────────────────────────
	logger, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("scrapeview starting",
		zap.String("addr", cfg.Addr()),
		zap.String("mode", cfg.Server.Mode),
		zap.String("backend", cfg.Backend.URL),
		zap.Bool("auth", cfg.Auth.Enabled),
	)

	// ── 3. Initialise controller and session ────────────────────────
	notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret, logger)
	sess := session.New(newController(cfg, logger), export.New(nil), notifier, logger)
	if notifier.Enabled() {
		logger.Info("webhook notifications enabled", zap.String("url", cfg.Webhook.URL))
	}

	// ── 4. Initialise export store ──────────────────────────────────
	store := cache.New(cfg.Export.MaxEntries, cfg.Export.TTL)
	defer store.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(sess, store, cfg, logger, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		logger.Error("HTTP server error", zap.Error(err))
		return errors.Wrap(err, "listen")
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	// In-flight requests get 5 seconds.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced shutdown", zap.Error(err))
	} else {
		logger.Info("HTTP server drained gracefully")
	}

	logger.Info("scrapeview stopped")
	return nil
}
