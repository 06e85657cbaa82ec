package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/client"
	"github.com/use-agent/scrapeview/config"
	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/logging"
)

// settings backs every command; flags are bound onto it in init.
var settings = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "scrapeview",
	Short: "Submit pages to a scraping backend and browse the structured result",
	Long: `scrapeview submits a URL to a scraping backend (POST /scrape) and renders the
structured result as a collapsible section tree.

Every setting can also be given as an environment variable with the
SCRAPEVIEW_ prefix, e.g. SCRAPEVIEW_BACKEND_URL.`,
	SilenceUsage: true,
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"backend":         config.KeyBackendURL,
	"backend-api-key": config.KeyBackendAPIKey,
	"log-level":       config.KeyLogLevel,
	"log-format":      config.KeyLogFormat,
	"log-file":        config.KeyLogFile,
	"export-dir":      config.KeyExportDir,
	"webhook-url":     config.KeyWebhookURL,
	"host":            config.KeyHost,
	"port":            config.KeyPort,
	"mode":            config.KeyMode,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("backend", "", "scraping backend base URL (default http://127.0.0.1:8000)")
	pf.String("backend-api-key", "", "API key sent to the backend as X-API-Key")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: json or console")
	pf.String("log-file", "", "write logs to this rotating file instead of stderr")
	pf.String("export-dir", "", "directory export files are written to")
	pf.String("webhook-url", "", "endpoint notified of scrape and export events")

	rootCmd.AddCommand(tuiCmd, serveCmd, getCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bindFlags binds every known flag of cmd onto settings.
func bindFlags(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := settings.BindPFlag(key, f); err != nil {
			bindErr = errors.Wrapf(err, "bind flag %s", f.Name)
		}
	})
	return bindErr
}

// loadConfig binds cmd's flags and builds the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := bindFlags(cmd); err != nil {
		return nil, err
	}
	return config.FromViper(settings)
}

// newLogger builds the logger; fallbackFile is used when no log file is
// configured and stderr must stay clean.
func newLogger(cfg *config.Config, fallbackFile string) (*zap.Logger, error) {
	logCfg := cfg.Log
	if logCfg.File == "" && fallbackFile != "" {
		logCfg.File = fallbackFile
	}
	return logging.New(logCfg)
}

// newController wires the backend client into a request controller.
func newController(cfg *config.Config, logger *zap.Logger) *controller.Controller {
	cl := client.New(cfg.Backend.URL,
		client.WithAPIKey(cfg.Backend.APIKey),
		client.WithLogger(logger),
	)
	return controller.New(cl, logger)
}

// tuiLogFile is where the TUI logs unless told otherwise.
func tuiLogFile() string {
	return filepath.Join(os.TempDir(), "scrapeview.log")
}
