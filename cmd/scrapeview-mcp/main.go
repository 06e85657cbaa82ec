// Command scrapeview-mcp exposes the scrape viewer as MCP tools over stdio.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/client"
	"github.com/use-agent/scrapeview/config"
	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/logging"
	"github.com/use-agent/scrapeview/session"
	"github.com/use-agent/scrapeview/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs always go to a file.
	logCfg := cfg.Log
	if logCfg.File == "" {
		logCfg.File = filepath.Join(os.TempDir(), "scrapeview-mcp.log")
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cl := client.New(cfg.Backend.URL,
		client.WithAPIKey(cfg.Backend.APIKey),
		client.WithLogger(logger),
	)
	notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret, logger)
	sess := session.New(controller.New(cl, logger), export.New(nil), notifier, logger)

	s := newServer(sess, cfg.Export.Dir)
	logger.Info("mcp server starting", zap.String("backend", cfg.Backend.URL))

	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp server error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
