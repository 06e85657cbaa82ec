// Package export serializes a complete ScrapeResult into a downloadable
// JSON artifact.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/use-agent/scrapeview/models"
)

// NamePrefix starts every artifact name.
const NamePrefix = "scrape-result-"

// Artifact is one exported file held in memory.
type Artifact struct {
	Name      string
	Body      []byte
	CreatedAt time.Time
}

// Size is the body length in bytes.
func (a *Artifact) Size() int {
	return len(a.Body)
}

// WriteTo writes the artifact into dir and returns the file path.
func (a *Artifact) WriteTo(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create export dir %s", dir)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// envelope mirrors the backend's success body so an exported file can be
// fed back to anything that understands the /scrape contract.
type envelope struct {
	Result *models.ScrapeResult `json:"result"`
}

// Service builds artifacts. The zero value uses the wall clock.
type Service struct {
	now func() time.Time

	mu   sync.Mutex
	last int64 // epoch millis of the previous artifact
}

// New returns a Service. A nil clock means time.Now.
func New(now func() time.Time) *Service {
	return &Service{now: now}
}

// Export serializes the full result, never the displayed subset. A nil
// result yields no artifact and no error.
func (s *Service) Export(result *models.ScrapeResult) (*Artifact, error) {
	if result == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	// Encode appends the trailing newline.
	if err := enc.Encode(envelope{Result: result}); err != nil {
		return nil, errors.Wrap(err, "encode scrape result")
	}

	created := s.stamp()
	return &Artifact{
		Name:      FileName(created),
		Body:      buf.Bytes(),
		CreatedAt: created,
	}, nil
}

// stamp returns the creation time of the next artifact. Names are keyed by
// millisecond, so a stamp that would repeat or precede the previous one is
// moved one millisecond past it and no two artifacts share a name.
func (s *Service) stamp() time.Time {
	t := s.clock()
	if s == nil {
		return t
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms := t.UnixMilli(); ms <= s.last {
		t = time.UnixMilli(s.last + 1).In(t.Location())
	}
	s.last = t.UnixMilli()
	return t
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now()
	}
	return s.now()
}

// FileName is the artifact name for an export created at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("%s%d.json", NamePrefix, t.UnixMilli())
}
