package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/models"
)

type fixedScraper struct {
	result *models.ScrapeResult
	err    error
}

func (f fixedScraper) Scrape(context.Context, string) (*models.ScrapeResult, error) {
	return f.result, f.err
}

func TestRunOnce(t *testing.T) {
	ctrl := controller.New(fixedScraper{result: &models.ScrapeResult{
		Sections: []models.Section{{ID: "a", Content: models.Content{Text: "hello world"}}},
		Errors:   []models.PhaseError{{Phase: "click", Message: "selector not found"}},
	}}, nil)

	rr := runOnce(ctrl, "https://example.com", 2)
	assert.True(t, rr.Success)
	assert.Equal(t, 2, rr.Run)
	assert.Equal(t, 1, rr.Sections)
	assert.Equal(t, 1, rr.PartialErrors)
	assert.NotZero(t, rr.Fingerprint)

	failing := controller.New(fixedScraper{err: models.NewRequestError("Navigation timeout", 504, nil)}, nil)
	rr = runOnce(failing, "https://example.com", 1)
	assert.False(t, rr.Success)
	assert.Equal(t, "Navigation timeout", rr.Error)
}

func TestSummarize(t *testing.T) {
	ur := urlResult{Runs: []runResult{
		{Success: true, ElapsedMs: 100, Fingerprint: 0b0000},
		{Success: true, ElapsedMs: 300, Fingerprint: 0b0011},
		{Success: false, ElapsedMs: 9000},
	}}
	summarize(&ur)

	require.NotNil(t, ur.AvgMs)
	assert.InDelta(t, 200, *ur.AvgMs, 0.001)
	assert.Equal(t, 2, ur.MaxDistance)
	assert.True(t, ur.Stable)

	ur.Runs[1].Fingerprint = 0xFF
	summarize(&ur)
	assert.Equal(t, 8, ur.MaxDistance)
	assert.False(t, ur.Stable)
}

func TestSummarize_AllFailed(t *testing.T) {
	ur := urlResult{Runs: []runResult{{Error: "boom"}}}
	summarize(&ur)
	assert.Nil(t, ur.AvgMs)
	assert.False(t, ur.Stable)
	assert.Contains(t, summaryTable([]urlResult{ur}), "FAILED")
}

func TestTruncateURL(t *testing.T) {
	assert.Equal(t, "short", truncateURL("short", 10))
	assert.Equal(t, "https:...", truncateURL("https://example.com", 9))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeJSON(path, report{Backend: "http://b", RunsPerURL: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "http://b", got.Backend)
}
