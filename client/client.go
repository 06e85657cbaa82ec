// Package client talks to the scraping backend over its POST /scrape
// contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/use-agent/scrapeview/models"
)

// Doer issues HTTP requests. *http.Client satisfies it; tests inject fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxErrorBody caps how much of a failure body is read looking for detail.
const maxErrorBody = 64 << 10

// Client calls the scraping backend.
type Client struct {
	baseURL string
	apiKey  string
	doer    Doer
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the HTTP transport.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithAPIKey sends key as X-API-Key on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for the backend at baseURL.
//
// The default transport is traced with otelhttp and carries no timeout:
// a submitted scrape runs until the backend answers.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scrape submits target to the backend and decodes the result.
//
// Every failure is a *models.RequestError whose Message is user-displayable:
// the backend's detail when it sent one, otherwise a generic fallback.
func (c *Client) Scrape(ctx context.Context, target string) (*models.ScrapeResult, error) {
	body, err := json.Marshal(models.ScrapeRequest{URL: target})
	if err != nil {
		return nil, models.NewRequestError("", 0, errors.Wrap(err, "marshal request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, models.NewRequestError("", 0, errors.Wrap(err, "create request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "scrapeview/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("url", target), zap.Error(err))
		return nil, models.NewRequestError(err.Error(), 0, errors.Wrap(err, "backend request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.failure(resp, target)
	}

	var decoded models.ScrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, models.NewRequestError("Invalid response from scraping backend", resp.StatusCode,
			errors.Wrap(err, "decode response"))
	}
	if decoded.Result == nil {
		return nil, models.NewRequestError("Scraping backend returned no result", resp.StatusCode,
			errors.New("response has no result field"))
	}
	if err := decoded.Result.Validate(); err != nil {
		return nil, models.NewRequestError("Scraping backend returned an invalid result: "+err.Error(),
			resp.StatusCode, errors.Wrap(err, "validate result"))
	}

	c.logger.Debug("backend scrape completed",
		zap.String("url", target),
		zap.Int("sections", len(decoded.Result.Sections)),
		zap.Int("partial_errors", len(decoded.Result.Errors)),
	)
	return decoded.Result, nil
}

// failure maps a non-success response to a RequestError.
func (c *Client) failure(resp *http.Response, target string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body models.FailureResponse
	// A non-JSON body simply yields no detail.
	_ = json.Unmarshal(raw, &body)

	c.logger.Warn("backend returned failure status",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.String("detail", body.Message()),
	)
	return models.NewRequestError(body.Message(), resp.StatusCode,
		errors.Errorf("backend status %d", resp.StatusCode))
}
