package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/session"
)

type stubScraper struct {
	result *models.ScrapeResult
	err    error
	calls  int
}

func (s *stubScraper) Scrape(context.Context, string) (*models.ScrapeResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestSession(sc *stubScraper) *session.Session {
	now := func() time.Time { return time.UnixMilli(1700000000000) }
	return session.New(controller.New(sc, nil), export.New(now), nil, nil)
}

func sampleResult() *models.ScrapeResult {
	return &models.ScrapeResult{
		URL: "https://example.com/",
		Sections: []models.Section{
			{ID: "nav-0", Type: "nav", Label: "Menu", Content: models.Content{Text: "menu text"}},
			{ID: "main-1", Type: "main", Label: "Article", Content: models.Content{Text: "article text"}},
		},
	}
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args

	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestScrapeAndToggle(t *testing.T) {
	sess := newTestSession(&stubScraper{result: sampleResult()})

	out, isErr := call(t, handleScrape(sess), map[string]any{"url": "https://example.com"})
	require.False(t, isErr, out)
	assert.Contains(t, out, "## Sections (2)")
	assert.Contains(t, out, "### ▶ `NAV` Menu")
	assert.NotContains(t, out, "menu text")

	out, isErr = call(t, handleToggle(sess), map[string]any{"id": "main-1"})
	require.False(t, isErr, out)
	assert.Contains(t, out, "### ▼ `MAIN` Article")
	assert.Contains(t, out, "article text")
	assert.NotContains(t, out, "menu text")

	out, _ = call(t, handleView(sess), nil)
	assert.Contains(t, out, "article text")
}

func TestScrape_ExpandAll(t *testing.T) {
	sess := newTestSession(&stubScraper{result: sampleResult()})

	out, isErr := call(t, handleScrape(sess), map[string]any{"url": "https://example.com", "expand_all": true})
	require.False(t, isErr, out)
	assert.Contains(t, out, "menu text")
	assert.Contains(t, out, "article text")

	out, _ = call(t, handleSetExpansion(sess), map[string]any{"mode": "none"})
	assert.NotContains(t, out, "menu text")

	out, _ = call(t, handleSetExpansion(sess), map[string]any{"mode": "all"})
	assert.Contains(t, out, "menu text")
}

func TestScrape_Errors(t *testing.T) {
	sc := &stubScraper{err: models.NewRequestError("Navigation timeout", 504, nil)}
	sess := newTestSession(sc)

	out, isErr := call(t, handleScrape(sess), map[string]any{})
	assert.True(t, isErr)
	assert.Equal(t, "url is required", out)

	out, isErr = call(t, handleScrape(sess), map[string]any{"url": "   "})
	assert.True(t, isErr)
	assert.Equal(t, "Please enter a URL", out)
	assert.Zero(t, sc.calls)

	out, isErr = call(t, handleScrape(sess), map[string]any{"url": "https://example.com"})
	assert.True(t, isErr)
	assert.Equal(t, "Navigation timeout", out)

	out, isErr = call(t, handleView(sess), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "- **Error:** Navigation timeout")
}

func TestScrape_RequiresScheme(t *testing.T) {
	sc := &stubScraper{result: sampleResult()}
	sess := newTestSession(sc)

	out, isErr := call(t, handleScrape(sess), map[string]any{"url": "example.com"})
	assert.True(t, isErr)
	assert.Contains(t, out, "must start with http:// or https://")
	assert.Zero(t, sc.calls)
}

func TestToggle_NoResult(t *testing.T) {
	sess := newTestSession(&stubScraper{result: sampleResult()})

	out, isErr := call(t, handleToggle(sess), map[string]any{"id": "nav-0"})
	assert.True(t, isErr)
	assert.Equal(t, session.ErrNoResult.Error(), out)

	_, isErr = call(t, handleSetExpansion(sess), map[string]any{"mode": "sideways"})
	assert.True(t, isErr)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	sess := newTestSession(&stubScraper{result: sampleResult()})

	_, isErr := call(t, handleExport(sess, dir), nil)
	assert.True(t, isErr)

	call(t, handleScrape(sess), map[string]any{"url": "https://example.com"})

	out, isErr := call(t, handleExport(sess, dir), nil)
	require.False(t, isErr, out)
	assert.Contains(t, out, "scrape-result-1700000000000.json")

	path := out[strings.Index(out, " to ")+len(" to "):]
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"id": "main-1"`)
}

func TestNewServer(t *testing.T) {
	s := newServer(newTestSession(&stubScraper{}), t.TempDir())
	require.NotNil(t, s)
}
