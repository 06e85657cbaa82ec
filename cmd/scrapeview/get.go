package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/render"
	"github.com/use-agent/scrapeview/session"
)

type getOptions struct {
	expandAll bool
	expand    []string
	markdown  bool
	showJSON  bool
	export    bool
}

var getOpts getOptions

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Scrape one URL and print the result tree",
	Example: `  scrapeview get https://example.com
  scrapeview get https://example.com --expand hero-0 --markdown
  scrapeview get https://example.com --expand-all --export`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	f := getCmd.Flags()
	f.BoolVar(&getOpts.expandAll, "expand-all", false, "expand every section")
	f.StringSliceVar(&getOpts.expand, "expand", nil, "section ids to expand")
	f.BoolVar(&getOpts.markdown, "markdown", false, "print Markdown instead of terminal text")
	f.BoolVar(&getOpts.showJSON, "json", false, "include each expanded section's JSON")
	f.BoolVar(&getOpts.export, "export", false, "write the result to the export directory")
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, tuiLogFile())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sess := session.New(newController(cfg, logger), export.New(nil), nil, logger)

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Scraping " + args[0]
	s.Start()
	v, err := sess.Submit(cmd.Context(), args[0])
	s.Stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	logger.Info("scraped", zap.String("url", v.Target), zap.Int64("elapsed_ms", v.ElapsedMs))

	if err := applyExpansion(sess, getOpts); err != nil {
		return err
	}
	printTree(cmd.OutOrStdout(), sess.Tree(), getOpts)

	if getOpts.export {
		a, err := sess.Export()
		if err != nil {
			return err
		}
		path, err := a.WriteTo(cfg.Export.Dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Exported to", path)
	}
	return nil
}

// applyExpansion expands the sections requested on the command line.
func applyExpansion(sess *session.Session, o getOptions) error {
	if o.expandAll {
		_, err := sess.ExpandAll()
		return err
	}
	if len(o.expand) == 0 {
		return nil
	}
	_, err := sess.Expand(o.expand...)
	return errors.WithMessage(err, "expand")
}

func printTree(w io.Writer, tree *render.Tree, o getOptions) {
	if o.markdown {
		fmt.Fprint(w, render.Markdown(tree, render.MarkdownOptions{ShowJSON: o.showJSON}))
		return
	}
	fmt.Fprintln(w, render.Text(tree, render.TextOptions{ShowJSON: o.showJSON}))
}
