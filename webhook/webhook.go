package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Event types.
const (
	EventScrapeSucceeded = "scrape.succeeded"
	EventScrapeFailed    = "scrape.failed"
	EventExportCreated   = "export.created"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Scrapeview-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// ScrapeData is the Data of scrape.* events.
type ScrapeData struct {
	URL       string `json:"url"`
	Sections  int    `json:"sections,omitempty"`
	Errors    int    `json:"errors,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`

	// Fingerprint is the content SimHash of a succeeded scrape; Changed
	// reports a rescrape whose content moved past the similarity threshold.
	Fingerprint string `json:"fingerprint,omitempty"`
	Changed     bool   `json:"changed,omitempty"`
}

// ExportData is the Data of export.created events.
type ExportData struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ string, seq uint64, data any) *Event {
	return &Event{Type: typ, Seq: seq, Timestamp: time.Now().Unix(), Data: data}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "webhook: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "webhook: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Scrapeview-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook: deliver")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifier delivers events to one configured endpoint. A nil Notifier or
// one with an empty URL drops every event.
type Notifier struct {
	URL    string
	Secret string
	Logger *zap.Logger

	// Delays between attempts; the first entry is the initial wait.
	Delays []time.Duration
}

// DefaultDelays retries after 1s, 5s and 30s.
var DefaultDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// NewNotifier returns a Notifier with the default retry schedule.
func NewNotifier(url, secret string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{URL: url, Secret: secret, Logger: logger, Delays: DefaultDelays}
}

// Enabled reports whether events will be sent.
func (n *Notifier) Enabled() bool {
	return n != nil && n.URL != ""
}

// Notify delivers the event in the background. The returned channel is
// closed once delivery succeeded or retries ran out.
func (n *Notifier) Notify(event *Event) <-chan struct{} {
	done := make(chan struct{})
	if !n.Enabled() || event == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		n.deliverWithRetry(event)
	}()
	return done
}

func (n *Notifier) deliverWithRetry(event *Event) {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delays := n.Delays
	if len(delays) == 0 {
		delays = []time.Duration{0}
	}

	for attempt, delay := range delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, n.URL, n.Secret, event)
		cancel()
		if err == nil {
			logger.Info("webhook delivered",
				zap.String("url", n.URL),
				zap.String("event", event.Type),
				zap.Uint64("seq", event.Seq),
				zap.Int("attempt", attempt+1),
			)
			return
		}
		logger.Warn("webhook delivery failed",
			zap.String("url", n.URL),
			zap.String("event", event.Type),
			zap.Uint64("seq", event.Seq),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	logger.Error("webhook delivery exhausted all retries",
		zap.String("url", n.URL),
		zap.String("event", event.Type),
		zap.Uint64("seq", event.Seq),
	)
}
