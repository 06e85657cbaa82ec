// Package tui is the interactive terminal front end: a URL input, a
// request status line, and the collapsible result tree.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/expansion"
	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/render"
	"github.com/use-agent/scrapeview/simhash"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))
)

// focus is the widget receiving keys.
type focus int

const (
	focusInput focus = iota
	focusTree
)

// chrome is the number of lines around the viewport.
const chrome = 6

// scrapeDoneMsg carries the outcome of a submission back to Update.
type scrapeDoneMsg struct {
	state controller.State
	err   error
}

// exportDoneMsg reports a written artifact.
type exportDoneMsg struct {
	path string
	err  error
}

// Options configures a Model.
type Options struct {
	ExportDir string
	Logger    *zap.Logger

	// InitialURL is submitted on start when set.
	InitialURL string
}

// Model is the Bubble Tea model. Update runs on the program's single event
// loop, which owns the expansion state; backend calls run as commands so
// toggling stays responsive while a request is in flight.
type Model struct {
	ctrl     *controller.Controller
	exporter *export.Service
	opts     Options
	logger   *zap.Logger

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	focus    focus

	// pending is set between submit and scrapeDoneMsg.
	pending bool
	target  string

	state    controller.State
	expanded expansion.State
	cursor   int
	showJSON bool

	// tracker compares each result with the previous one for its target.
	tracker simhash.Tracker
	change  simhash.Change

	notice string
	width  int
	height int
}

// New creates the model.
func New(ctrl *controller.Controller, exporter *export.Service, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.New(nil)
	}

	in := textinput.New()
	in.Placeholder = "https://example.com"
	in.Prompt = "🌐 "
	in.CharLimit = 2048
	in.Width = 60
	in.SetValue(opts.InitialURL)
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = infoStyle

	return Model{
		ctrl:     ctrl,
		exporter: exporter,
		opts:     opts,
		logger:   logger,
		input:    in,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		help:     help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if strings.TrimSpace(m.opts.InitialURL) != "" {
		return tea.Batch(textinput.Blink, func() tea.Msg { return tea.KeyMsg{Type: tea.KeyEnter} })
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(20, msg.Width-8)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-chrome)
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateTree(msg)

	case scrapeDoneMsg:
		return m.settle(msg), nil

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render("Export failed: " + msg.err.Error())
		} else {
			m.notice = infoStyle.Render("Exported to " + msg.path)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		return m.submit()
	case key.Matches(msg, keys.Focus):
		if m.state.Result != nil {
			m.setFocus(focusTree)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ids := m.state.Result.SectionIDs()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Focus):
		m.setFocus(focusInput)
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(ids)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if m.cursor < len(ids) {
			m.expanded = m.expanded.Toggle(ids[m.cursor])
		}
	case key.Matches(msg, keys.ExpandAll):
		m.expanded = m.expanded.ExpandAll(ids)
	case key.Matches(msg, keys.CollapseAll):
		m.expanded = expansion.Empty()
	case key.Matches(msg, keys.JSON):
		m.showJSON = !m.showJSON
	case key.Matches(msg, keys.Export):
		return m, m.export()
	case key.Matches(msg, keys.PageUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
		return m, nil
	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

// submit starts a scrape unless one is already pending; a second submit
// while busy is ignored rather than queued.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.pending || m.ctrl.Busy() {
		m.notice = subtleStyle.Render("A request is already in flight")
		return m, nil
	}

	raw := m.input.Value()
	ctrl := m.ctrl
	m.pending = true
	m.target = strings.TrimSpace(raw)
	m.notice = ""
	// The previous result and error are gone from the moment of submission.
	m.state = controller.State{Phase: controller.PhaseValidating, Seq: m.state.Seq}
	m.expanded = expansion.Empty()
	m.cursor = 0
	m.refresh()

	run := func() tea.Msg {
		st, err := ctrl.Submit(context.Background(), raw)
		return scrapeDoneMsg{state: st, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

// settle applies a finished submission.
func (m Model) settle(msg scrapeDoneMsg) Model {
	if errors.Is(msg.err, models.ErrBusy) {
		// Another submitter holds the controller; nothing changed.
		m.pending = false
		m.notice = subtleStyle.Render("A request is already in flight")
		return m
	}

	m.pending = false
	m.state = msg.state
	m.expanded = expansion.Empty()
	m.cursor = 0

	m.change = simhash.Change{}
	if m.state.Result != nil {
		m.change = m.tracker.Observe(m.state.Target, m.state.Result)
		m.setFocus(focusTree)
		m.logger.Info("result displayed",
			zap.String("url", m.state.Target),
			zap.Int("sections", len(m.state.Result.Sections)),
			zap.String("fingerprint", m.change.Fingerprint),
		)
	} else {
		m.setFocus(focusInput)
	}
	m.refresh()
	return m
}

func (m Model) export() tea.Cmd {
	result := m.state.Result
	if result == nil {
		return nil
	}
	exporter, dir := m.exporter, m.opts.ExportDir
	return func() tea.Msg {
		a, err := exporter.Export(result)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := a.WriteTo(dir)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// selectedID is the section under the cursor, or "".
func (m Model) selectedID() string {
	ids := m.state.Result.SectionIDs()
	if m.focus != focusTree || m.cursor >= len(ids) {
		return ""
	}
	return ids[m.cursor]
}

// tree renders the current result with the current expansion.
func (m Model) tree() *render.Tree {
	return render.Render(m.state.Result, m.expanded)
}

// refresh re-renders the viewport content and keeps the cursor visible.
func (m *Model) refresh() {
	content := render.Text(m.tree(), render.TextOptions{
		Selected: m.selectedID(),
		ShowJSON: m.showJSON,
	})
	m.viewport.SetContent(content)

	if m.focus != focusTree {
		return
	}
	i := cursorLine(content)
	switch {
	case i < 0:
	case i < m.viewport.YOffset:
		m.viewport.SetYOffset(i)
	case i >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(i - m.viewport.Height + 1)
	}
}

// cursorLine returns the index of the first line holding the section cursor,
// or -1. Section headers are the only unindented lines carrying it.
func cursorLine(content string) int {
	for i, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, " ") && strings.Contains(line, "> ") {
			return i
		}
	}
	return -1
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("scrapeview") + "\n")
	sb.WriteString(m.input.View() + "\n")
	sb.WriteString(m.statusLine() + "\n\n")

	if m.state.Result != nil {
		sb.WriteString(m.viewport.View() + "\n")
	}

	var h help.KeyMap = inputHelp{}
	if m.focus == focusTree {
		h = treeHelp{}
	}
	sb.WriteString(m.help.View(h))
	return sb.String()
}

func (m Model) statusLine() string {
	switch {
	case m.pending:
		return fmt.Sprintf("%s Scraping %s...", m.spinner.View(), m.target)
	case m.notice != "":
		return m.notice
	case m.state.Phase == controller.PhaseFailed && m.state.Err != nil:
		return errorStyle.Render(m.state.Err.Error())
	case m.state.Phase == controller.PhaseSucceeded:
		line := fmt.Sprintf("Scraped %s in %s", m.state.Target, m.state.Elapsed.Round(time.Millisecond))
		switch {
		case m.change.Changed:
			line += " · content changed since last scrape"
		case m.change.Rescrape:
			line += " · content unchanged"
		}
		return infoStyle.Render(line)
	default:
		return subtleStyle.Render("Enter a URL to scrape")
	}
}
