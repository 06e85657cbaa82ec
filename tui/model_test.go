package tui

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/models"
)

type stubScraper struct {
	calls  atomic.Int32
	result *models.ScrapeResult
	err    error
}

func (s *stubScraper) Scrape(ctx context.Context, target string) (*models.ScrapeResult, error) {
	s.calls.Add(1)
	return s.result, s.err
}

func sample() *models.ScrapeResult {
	return &models.ScrapeResult{
		URL: "https://example.com/",
		Sections: []models.Section{
			{ID: "a", Type: "header", Label: "Top", Content: models.Content{Text: "alpha body"}},
			{ID: "b", Type: "main", Label: "Middle", Content: models.Content{Text: "beta body"}},
		},
	}
}

func newModel(t *testing.T, sc *stubScraper) Model {
	t.Helper()
	now := func() time.Time { return time.UnixMilli(1700000000000) }
	return New(controller.New(sc, nil), export.New(now), Options{ExportDir: t.TempDir()})
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// findMsg runs cmd, expanding batches, and returns the first T produced.
func findMsg[T any](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	var zero T
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case T:
			return msg
		}
	}
	t.Fatal("message not produced")
	return zero
}

func submit(t *testing.T, m Model, url string) Model {
	t.Helper()
	m = typeText(m, url)
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.pending)
	done := findMsg[scrapeDoneMsg](t, cmd)
	m, _ = send(m, done)
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_SubmitShowsCollapsedResult(t *testing.T) {
	sc := &stubScraper{result: sample()}
	m := submit(t, newModel(t, sc), "https://example.com")

	assert.False(t, m.pending)
	assert.Equal(t, controller.PhaseSucceeded, m.state.Phase)
	assert.Equal(t, focusTree, m.focus)
	assert.Equal(t, 0, m.expanded.Len())

	view := m.View()
	assert.Contains(t, view, "Sections (2)")
	assert.Contains(t, view, "Top")
	assert.NotContains(t, view, "alpha body")
}

func TestModel_ToggleAndCursor(t *testing.T) {
	m := submit(t, newModel(t, &stubScraper{result: sample()}), "https://example.com")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.expanded.IsExpanded("a"))
	assert.Contains(t, m.View(), "alpha body")

	m, _ = press(m, runes("j"))
	m, _ = press(m, runes(" "))
	assert.True(t, m.expanded.IsExpanded("b"))

	m, _ = press(m, runes("j"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last section")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.expanded.IsExpanded("b"))
	assert.True(t, m.expanded.IsExpanded("a"))

	m, _ = press(m, runes("c"))
	assert.Equal(t, 0, m.expanded.Len())

	m, _ = press(m, runes("e"))
	assert.Equal(t, []string{"a", "b"}, m.expanded.IDs())
}

func TestModel_ValidationErrorNoCall(t *testing.T) {
	sc := &stubScraper{result: sample()}
	m := submit(t, newModel(t, sc), "not a url")

	assert.Zero(t, sc.calls.Load())
	assert.Equal(t, controller.PhaseFailed, m.state.Phase)
	assert.Equal(t, focusInput, m.focus)
	assert.Contains(t, m.View(), "Please enter a valid URL")
}

func TestModel_RequestErrorClearsResult(t *testing.T) {
	sc := &stubScraper{result: sample()}
	m := submit(t, newModel(t, sc), "https://example.com")
	require.NotNil(t, m.state.Result)

	sc.result, sc.err = nil, models.NewRequestError("Navigation timeout", 504, nil)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.state.Result, "previous result hidden as soon as a new request starts")

	m, _ = send(m, findMsg[scrapeDoneMsg](t, cmd))
	assert.Nil(t, m.state.Result)
	assert.Contains(t, m.View(), "Navigation timeout")
	assert.NotContains(t, m.View(), "Sections (")
}

func TestModel_SecondSubmitWhilePendingIgnored(t *testing.T) {
	sc := &stubScraper{result: sample()}
	m := typeText(newModel(t, sc), "https://example.com")

	m, first := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, first)

	m, second := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, second)
	assert.True(t, m.pending)
	assert.Contains(t, m.View(), "Scraping https://example.com")

	m, _ = send(m, findMsg[scrapeDoneMsg](t, first))
	assert.EqualValues(t, 1, sc.calls.Load())
	assert.Equal(t, controller.PhaseSucceeded, m.state.Phase)
}

func TestModel_NewResultResetsExpansion(t *testing.T) {
	sc := &stubScraper{result: sample()}
	m := submit(t, newModel(t, sc), "https://example.com")
	m, _ = press(m, runes("e"))
	require.Equal(t, 2, m.expanded.Len())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(m, findMsg[scrapeDoneMsg](t, cmd))

	assert.Equal(t, 0, m.expanded.Len())
	assert.Equal(t, 0, m.cursor)
}

func TestModel_Export(t *testing.T) {
	m := submit(t, newModel(t, &stubScraper{result: sample()}), "https://example.com")

	m, cmd := press(m, runes("x"))
	done := findMsg[exportDoneMsg](t, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, filepath.Join(m.opts.ExportDir, "scrape-result-1700000000000.json"), done.path)

	_, err := os.Stat(done.path)
	assert.NoError(t, err)

	m, _ = send(m, done)
	assert.Contains(t, m.View(), "Exported to")
}

func TestModel_QuitKeys(t *testing.T) {
	m := newModel(t, &stubScraper{})

	// "q" is typed into the input while it has focus.
	m, _ = press(m, runes("q"))
	assert.Equal(t, "q", m.input.Value())

	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_RescrapeReportsUnchanged(t *testing.T) {
	m := submit(t, newModel(t, &stubScraper{result: sample()}), "https://example.com")
	assert.NotContains(t, m.View(), "content unchanged")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(m, findMsg[scrapeDoneMsg](t, cmd))

	assert.True(t, m.change.Rescrape)
	assert.Contains(t, m.View(), "content unchanged")
}

func TestCursorLine(t *testing.T) {
	content := "Sections (3)\n" +
		"  ▶ HEADER Top\n" +
		"> ▼ MAIN Body\n" +
		"      Text:\n" +
		"        a > b\n" +
		"> ▶ FOOTER quoted > marker\n"
	assert.Equal(t, 2, cursorLine(content))
	assert.Equal(t, -1, cursorLine("  ▶ HEADER Top\n      > indented\n"))
}
