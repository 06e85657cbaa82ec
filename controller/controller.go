// Package controller owns the lifecycle of a scrape request: input
// validation, the single in-flight request, and the mapping of backend
// outcomes into an explicit state machine.
package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/models"
)

// Phase is a state of the request state machine.
//
//	Idle ──submit──▶ Validating ──invalid──▶ Failed
//	                     │
//	                   valid
//	                     ▼
//	                  InFlight ──ok──▶ Succeeded
//	                     └────error──▶ Failed
//
// Succeeded and Failed are left by the next accepted submission.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseInFlight
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseInFlight:
		return "in_flight"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the controller. Only the fields valid
// for Phase are set: Result only when Succeeded, Err only when Failed.
type State struct {
	Phase Phase

	// Target is the normalized URL of the current submission, empty while
	// Idle or after a validation failure.
	Target string

	Result *models.ScrapeResult
	Err    error

	// Seq counts accepted submissions; a result's Seq identifies it across
	// snapshots.
	Seq uint64

	// Elapsed is the duration of the backend call once it finished.
	Elapsed time.Duration
}

// Busy reports whether a request is outstanding in this snapshot.
func (s State) Busy() bool {
	return s.Phase == PhaseValidating || s.Phase == PhaseInFlight
}

// Scraper is the backend call. *client.Client satisfies it.
type Scraper interface {
	Scrape(ctx context.Context, target string) (*models.ScrapeResult, error)
}

// Observer is called after every state transition, outside any lock.
type Observer func(State)

// Controller serialises scrape submissions. At most one request is in
// flight; a submission arriving meanwhile is rejected with models.ErrBusy
// and has no other effect.
type Controller struct {
	scraper  Scraper
	logger   *zap.Logger
	observer Observer

	busy atomic.Bool

	mu    sync.RWMutex
	state State
}

// New creates a Controller in the Idle phase.
func New(scraper Scraper, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		scraper: scraper,
		logger:  logger,
	}
}

// SetObserver installs fn as the transition observer. Call before the first
// Submit.
func (c *Controller) SetObserver(fn Observer) {
	c.observer = fn
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Busy reports whether a submission is being processed.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Submit validates rawInput and, when valid, issues exactly one backend
// request and waits for it.
//
// Each accepted call ends in exactly one of Succeeded (result replaced) or
// Failed (error set). The returned error is the validation or request error
// of the call, or models.ErrBusy when the call was rejected because another
// request is in flight. The in-flight request is never cancelled by the
// controller itself.
func (c *Controller) Submit(ctx context.Context, rawInput string) (State, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("submission rejected, request in flight")
		return c.State(), models.ErrBusy
	}
	defer c.busy.Store(false)

	// ── 1. Validate ─────────────────────────────────────────────────
	seq := c.State().Seq + 1
	c.transition(State{Phase: PhaseValidating, Seq: seq})

	target, err := NormalizeURL(rawInput)
	if err != nil {
		c.logger.Info("input rejected", zap.String("input", rawInput), zap.Error(err))
		return c.transition(State{Phase: PhaseFailed, Err: err, Seq: seq}), err
	}

	// ── 2. Request ──────────────────────────────────────────────────
	c.transition(State{Phase: PhaseInFlight, Target: target, Seq: seq})
	start := time.Now()
	result, err := c.scraper.Scrape(ctx, target)
	elapsed := time.Since(start)
	if err == nil && result == nil {
		err = models.NewRequestError("Scraping backend returned no result", 0, nil)
	}

	// ── 3. Settle ───────────────────────────────────────────────────
	if err != nil {
		if models.ErrorKind(err) != "request" {
			err = models.NewRequestError(err.Error(), 0, err)
		}
		c.logger.Warn("scrape failed",
			zap.String("url", target),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return c.transition(State{Phase: PhaseFailed, Target: target, Err: err, Seq: seq, Elapsed: elapsed}), err
	}

	c.logger.Info("scrape succeeded",
		zap.String("url", target),
		zap.Int("sections", len(result.Sections)),
		zap.Int("partial_errors", len(result.Errors)),
		zap.Duration("elapsed", elapsed),
	)
	return c.transition(State{Phase: PhaseSucceeded, Target: target, Result: result, Seq: seq, Elapsed: elapsed}), nil
}

// transition swaps in next and notifies the observer.
func (c *Controller) transition(next State) State {
	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	if c.observer != nil {
		c.observer(next)
	}
	return next
}
