// Package session binds one request controller to its expansion state and
// export service so concurrent surfaces (HTTP, MCP) see consistent views.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/controller"
	"github.com/use-agent/scrapeview/expansion"
	"github.com/use-agent/scrapeview/export"
	"github.com/use-agent/scrapeview/models"
	"github.com/use-agent/scrapeview/render"
	"github.com/use-agent/scrapeview/simhash"
	"github.com/use-agent/scrapeview/webhook"
)

var (
	// ErrNoResult is returned by operations that need a displayed result.
	ErrNoResult = errors.New("no scrape result available")

	// ErrUnknownSection is returned when toggling an id the result lacks.
	ErrUnknownSection = errors.New("unknown section")
)

// View is a consistent snapshot of the session for display.
type View struct {
	Phase     string       `json:"phase"`
	Busy      bool         `json:"busy"`
	Seq       uint64       `json:"seq"`
	Target    string       `json:"target,omitempty"`
	Error     *ViewError   `json:"error,omitempty"`
	ElapsedMs int64        `json:"elapsed_ms,omitempty"`
	Expanded  []string     `json:"expanded"`
	Tree      *render.Tree `json:"tree,omitempty"`

	// Change is set on a succeeded view.
	Change *simhash.Change `json:"change,omitempty"`
}

// ViewError is the top-level error of a failed submission.
type ViewError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Markdown renders the tree, or a short status block when there is none.
func (v View) Markdown(opts render.MarkdownOptions) string {
	if v.Tree != nil {
		return render.Markdown(v.Tree, opts)
	}

	var sb strings.Builder
	sb.WriteString("## No result\n\n")
	sb.WriteString("- **Phase:** " + v.Phase + "\n")
	if v.Target != "" {
		sb.WriteString("- **Target:** " + render.EscapeMarkdown(v.Target) + "\n")
	}
	if v.Error != nil {
		sb.WriteString("- **Error:** " + render.EscapeMarkdown(v.Error.Message) + "\n")
	}
	return sb.String()
}

// Session is safe for concurrent use. Its lock is held only while reading
// or swapping values, never across the backend call, so toggles and views
// are served while a submission is in flight.
type Session struct {
	ctrl     *controller.Controller
	exporter *export.Service
	notifier *webhook.Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	expanded expansion.State
	// resultSeq is the controller Seq the expansion state belongs to.
	resultSeq uint64
	tracker   simhash.Tracker
	change    *simhash.Change
}

// New creates a Session over ctrl and installs its transition observer.
// notifier may be nil.
func New(ctrl *controller.Controller, exporter *export.Service, notifier *webhook.Notifier, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.New(nil)
	}
	s := &Session{
		ctrl:     ctrl,
		exporter: exporter,
		notifier: notifier,
		logger:   logger,
	}
	ctrl.SetObserver(s.observe)
	return s
}

// Submit forwards to the controller and returns the resulting view. The
// error is the controller's: a validation error, a request error, or
// models.ErrBusy.
func (s *Session) Submit(ctx context.Context, rawInput string) (View, error) {
	_, err := s.ctrl.Submit(ctx, rawInput)
	return s.View(), err
}

// Toggle flips the expansion of section id in the current result.
func (s *Session) Toggle(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	if st.Result == nil {
		return s.viewLocked(st), ErrNoResult
	}
	if _, ok := st.Result.Section(id); !ok {
		return s.viewLocked(st), errors.Wrapf(ErrUnknownSection, "section %q", id)
	}

	s.expanded = s.expanded.Toggle(id)
	return s.viewLocked(st), nil
}

// ExpandAll expands every section of the current result.
func (s *Session) ExpandAll() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	if st.Result == nil {
		return s.viewLocked(st), ErrNoResult
	}
	s.expanded = s.expanded.ExpandAll(st.Result.SectionIDs())
	return s.viewLocked(st), nil
}

// Expand marks the given sections expanded, leaving already expanded ones as
// they are. Every id must name a section of the current result; on error the
// state is unchanged.
func (s *Session) Expand(ids ...string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	if st.Result == nil {
		return s.viewLocked(st), ErrNoResult
	}
	for _, id := range ids {
		if _, ok := st.Result.Section(id); !ok {
			return s.viewLocked(st), errors.Wrapf(ErrUnknownSection, "section %q", id)
		}
	}

	s.expanded = s.expanded.ExpandAll(ids)
	return s.viewLocked(st), nil
}

// CollapseAll resets the expansion state.
func (s *Session) CollapseAll() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.syncLocked()
	s.expanded = expansion.Empty()
	return s.viewLocked(st)
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(s.syncLocked())
}

// Snapshot returns the controller state with the expansion that belongs
// to it.
func (s *Session) Snapshot() (controller.State, expansion.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.syncLocked()
	return st, s.expanded
}

// Tree renders the current result, or nil when there is none.
func (s *Session) Tree() *render.Tree {
	st, exp := s.Snapshot()
	return render.Render(st.Result, exp)
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.ctrl.Busy()
}

// Export serializes the full current result.
func (s *Session) Export() (*export.Artifact, error) {
	st, _ := s.Snapshot()
	if st.Result == nil {
		return nil, ErrNoResult
	}

	a, err := s.exporter.Export(st.Result)
	if err != nil {
		return nil, err
	}
	s.logger.Info("result exported", zap.String("name", a.Name), zap.Int("size", a.Size()))
	s.notifier.Notify(webhook.NewEvent(webhook.EventExportCreated, st.Seq, webhook.ExportData{
		Name: a.Name,
		Size: a.Size(),
	}))
	return a, nil
}

// syncLocked reads the controller state and drops the expansion state when
// it belongs to an older submission. Callers hold s.mu.
func (s *Session) syncLocked() controller.State {
	st := s.ctrl.State()
	s.resetLocked(st.Seq)
	return st
}

func (s *Session) viewLocked(st controller.State) View {
	v := View{
		Phase:     st.Phase.String(),
		Busy:      st.Busy(),
		Seq:       st.Seq,
		Target:    st.Target,
		ElapsedMs: st.Elapsed.Milliseconds(),
		Expanded:  s.expanded.IDs(),
		Tree:      render.Render(st.Result, s.expanded),
	}
	if st.Phase == controller.PhaseSucceeded {
		v.Change = s.change
	}
	if v.Expanded == nil {
		v.Expanded = []string{}
	}
	if st.Err != nil {
		v.Error = &ViewError{Kind: models.ErrorKind(st.Err), Message: st.Err.Error()}
	}
	return v
}

// resetLocked drops per-result state when seq is a newer submission.
func (s *Session) resetLocked(seq uint64) {
	if seq == s.resultSeq {
		return
	}
	s.expanded = expansion.Empty()
	s.change = nil
	s.resultSeq = seq
}

// observe resets per-result state on every new submission, fingerprints
// new results and emits outcome notifications.
func (s *Session) observe(st controller.State) {
	s.mu.Lock()
	s.resetLocked(st.Seq)
	var change simhash.Change
	if st.Phase == controller.PhaseSucceeded {
		change = s.tracker.Observe(st.Target, st.Result)
		s.change = &change
	}
	s.mu.Unlock()

	switch st.Phase {
	case controller.PhaseSucceeded:
		if change.Rescrape {
			s.logger.Info("rescrape compared",
				zap.String("url", st.Target),
				zap.Int("distance", change.Distance),
				zap.Bool("changed", change.Changed),
			)
		}
		s.notifier.Notify(webhook.NewEvent(webhook.EventScrapeSucceeded, st.Seq, webhook.ScrapeData{
			URL:         st.Target,
			Sections:    len(st.Result.Sections),
			Errors:      len(st.Result.Errors),
			ElapsedMs:   st.Elapsed.Milliseconds(),
			Fingerprint: change.Fingerprint,
			Changed:     change.Changed,
		}))
	case controller.PhaseFailed:
		// Validation failures never reached the backend.
		if st.Target == "" {
			return
		}
		s.notifier.Notify(webhook.NewEvent(webhook.EventScrapeFailed, st.Seq, webhook.ScrapeData{
			URL:       st.Target,
			Error:     st.Err.Error(),
			ElapsedMs: st.Elapsed.Milliseconds(),
		}))
	}
}
