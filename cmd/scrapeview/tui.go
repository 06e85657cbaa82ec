package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [url]",
	Short: "Browse scrape results in an interactive terminal UI",
	Long: `Open the interactive viewer. Logs go to a rotating file (--log-file,
or scrapeview.log in the temp directory) so they never tear the screen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

// runTUI starts the terminal UI and returns any start/run error.
func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, tuiLogFile())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := tui.Options{ExportDir: cfg.Export.Dir, Logger: logger}
	if len(args) == 1 {
		opts.InitialURL = args[0]
	}
	logger.Info("tui starting", zap.String("backend", cfg.Backend.URL))

	model := tui.New(newController(cfg, logger), export.New(nil), opts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()
	return errors.WithStack(err)
}
