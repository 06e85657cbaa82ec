// Command benchmark measures scraping backend latency and how stable the
// returned content is across repeated runs of the same URL.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/use-agent/scrapeview/client"
	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/simhash"
)

var (
	backendURL = flag.String("backend", "http://127.0.0.1:8000", "scraping backend base URL")
	apiKey     = flag.String("api-key", "", "API key sent as X-API-Key")
	runs       = flag.Int("runs", 3, "runs per URL")
	output     = flag.String("output", "benchmark-results.json", "JSON report path")
)

// defaultTargets cover a few site shapes when no URLs are given.
var defaultTargets = []string{
	"https://example.com",
	"https://go.dev/blog/go1.21",
	"https://go.dev/doc/effective_go",
	"https://www.bbc.com/news",
}

type runResult struct {
	Run           int    `json:"run"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	Sections      int    `json:"sections"`
	PartialErrors int    `json:"partial_errors"`
	Fingerprint   uint64 `json:"fingerprint"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

type urlResult struct {
	URL  string      `json:"url"`
	Runs []runResult `json:"runs"`

	// AvgMs is nil when no run succeeded.
	AvgMs *float64 `json:"avg_ms,omitempty"`
	// MaxDistance is the largest fingerprint distance between successful runs.
	MaxDistance int  `json:"max_distance"`
	Stable      bool `json:"stable"`
}

type report struct {
	Timestamp  string      `json:"timestamp"`
	Backend    string      `json:"backend"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = defaultTargets
	}

	fmt.Println("=== scrapeview backend benchmark ===")
	fmt.Printf("Backend:   %s\n", *backendURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n\n", *output)

	ctrl := controller.New(client.New(*backendURL, client.WithAPIKey(*apiKey)), nil)
	rep := report{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Backend:    *backendURL,
		RunsPerURL: *runs,
	}

	for _, target := range targets {
		fmt.Printf("Benchmarking %s ...\n", target)
		ur := urlResult{URL: target}
		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := runOnce(ctrl, target, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d sections\n", rr.ElapsedMs, rr.Sections)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}
		summarize(&ur)
		rep.Results = append(rep.Results, ur)
		fmt.Println()
	}

	fmt.Println(summaryTable(rep.Results))

	if err := writeJSON(*output, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func runOnce(ctrl *controller.Controller, target string, run int) runResult {
	rr := runResult{Run: run}
	st, err := ctrl.Submit(context.Background(), target)
	rr.ElapsedMs = st.Elapsed.Milliseconds()
	if err != nil {
		rr.Error = err.Error()
		return rr
	}

	rr.Success = true
	rr.Sections = len(st.Result.Sections)
	rr.PartialErrors = len(st.Result.Errors)
	rr.Fingerprint = simhash.OfResult(st.Result)
	return rr
}

// summarize fills the averages and stability of ur from its runs.
func summarize(ur *urlResult) {
	var ok []runResult
	for _, r := range ur.Runs {
		if r.Success {
			ok = append(ok, r)
		}
	}
	ur.AvgMs, ur.MaxDistance, ur.Stable = nil, 0, false
	if len(ok) == 0 {
		return
	}

	var total float64
	for _, r := range ok {
		total += float64(r.ElapsedMs)
	}
	avg := total / float64(len(ok))
	ur.AvgMs = &avg

	for i := range ok {
		for j := i + 1; j < len(ok); j++ {
			ur.MaxDistance = max(ur.MaxDistance, simhash.Distance(ok[i].Fingerprint, ok[j].Fingerprint))
		}
	}
	ur.Stable = ur.MaxDistance <= simhash.Threshold
}

func summaryTable(results []urlResult) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("URL", "Avg Latency", "Succeeded", "Max Distance", "Content")

	for _, r := range results {
		succeeded := 0
		for _, run := range r.Runs {
			if run.Success {
				succeeded++
			}
		}
		ratio := strconv.Itoa(succeeded) + "/" + strconv.Itoa(len(r.Runs))
		if r.AvgMs == nil {
			t.Row(truncateURL(r.URL, 40), "FAILED", ratio, "-", "-")
			continue
		}
		content := "stable"
		if !r.Stable {
			content = "varies"
		}
		t.Row(truncateURL(r.URL, 40), fmt.Sprintf("%dms", int64(*r.AvgMs)), ratio, strconv.Itoa(r.MaxDistance), content)
	}
	return t.Render()
}

func truncateURL(u string, n int) string {
	if len(u) <= n {
		return u
	}
	return u[:n-3] + "..."
}

func writeJSON(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write report")
}
