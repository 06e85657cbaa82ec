package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ScrapeResult is the root of a completed scrape as returned by the backend.
//
// A ScrapeResult is replaced wholesale on every new request and is never
// mutated after decoding; renderers and exporters only read it.
type ScrapeResult struct {
	// URL is the normalized target the backend scraped.
	URL string `json:"url"`

	// Meta holds page-level metadata. Every field is nullable.
	Meta Meta `json:"meta"`

	// ScrapedAt is the instant the backend finished.
	ScrapedAt Timestamp `json:"scrapedAt"`

	// Interactions is nil when the scrape mode performed no interaction.
	Interactions *Interactions `json:"interactions,omitempty"`

	// Errors are non-fatal issues reported alongside usable content.
	Errors []PhaseError `json:"errors"`

	// Sections are in document order. The order is meaningful.
	Sections []Section `json:"sections"`
}

// Meta holds page metadata. A nil field means the backend reported null
// or omitted the field.
type Meta struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Canonical   *string `json:"canonical,omitempty"`
}

// Interactions records what the backend did to the page before extraction.
type Interactions struct {
	Clicks  []string `json:"clicks"`
	Scrolls int      `json:"scrolls"`
	Pages   []string `json:"pages"`
}

// PhaseError is a scraping-phase failure reported inside a result.
type PhaseError struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// Section is one extracted content block from a page or frame.
type Section struct {
	// ID is unique within one ScrapeResult and keys expansion state.
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	SourceURL string  `json:"sourceUrl"`
	Content   Content `json:"content"`
	RawHTML   string  `json:"rawHtml"`

	// Truncated is set upstream when content was size-limited.
	Truncated bool `json:"truncated"`
}

// Content is the structured sub-content of a section.
type Content struct {
	Headings []string   `json:"headings"`
	Text     string     `json:"text"`
	Links    []Link     `json:"links"`
	Images   []Image    `json:"images"`
	Lists    [][]string `json:"lists"`
	Tables   []Table    `json:"tables"`
}

// Link represents a hyperlink extracted from a section.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Image represents an image element extracted from a section.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Table is an extracted table, row-major.
type Table struct {
	Rows [][]string `json:"rows"`
}

// Section looks up a section by id.
func (r *ScrapeResult) Section(id string) (Section, bool) {
	if r == nil {
		return Section{}, false
	}
	for _, s := range r.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// SectionIDs returns the section ids in document order.
func (r *ScrapeResult) SectionIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// Validate checks the structural invariants a result must hold before it
// is displayed: every section has a non-empty id, ids are unique, and the
// scroll count is non-negative.
func (r *ScrapeResult) Validate() error {
	if r == nil {
		return errors.New("result is null")
	}
	seen := make(map[string]struct{}, len(r.Sections))
	for i, s := range r.Sections {
		if s.ID == "" {
			return errors.Errorf("section %d has an empty id", i)
		}
		if _, dup := seen[s.ID]; dup {
			return errors.Errorf("duplicate section id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	if r.Interactions != nil && r.Interactions.Scrolls < 0 {
		return errors.Errorf("negative scroll count %d", r.Interactions.Scrolls)
	}
	return nil
}

// Timestamp accepts either an ISO-8601 string or an epoch number and keeps
// the original JSON form so an export reproduces exactly what the backend
// sent.
type Timestamp struct {
	Time time.Time
	raw  json.RawMessage
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// 1e11 seconds is year 5138, so anything larger must be milliseconds.
const epochMillisThreshold = 1e11

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.raw = append(json.RawMessage(nil), data...)
	t.Time = time.Time{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return errors.Wrap(err, "decode scrapedAt string")
		}
		// An unparseable string is kept verbatim; the instant is display-only.
		if parsed, err := parseISO(s); err == nil {
			t.Time = parsed
		}
		return nil
	}

	epoch, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return errors.Wrapf(err, "parse scrapedAt %s", trimmed)
	}
	if epoch >= epochMillisThreshold {
		t.Time = time.UnixMilli(int64(epoch)).UTC()
	} else {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		t.Time = time.Unix(sec, nsec).UTC()
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// IsZero reports whether no instant is known.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}

// String renders the instant in UTC RFC 3339 form. When only an
// unparseable string was received it is returned verbatim; with nothing
// known it returns "".
func (t Timestamp) String() string {
	if !t.Time.IsZero() {
		return t.Time.UTC().Format(time.RFC3339)
	}
	var s string
	if len(t.raw) > 0 && json.Unmarshal(t.raw, &s) == nil {
		return s
	}
	return ""
}

// NewTimestamp wraps a time for results built in code.
func NewTimestamp(tm time.Time) Timestamp {
	return Timestamp{Time: tm}
}

// isoLayouts covers RFC 3339 plus the zone-less form Python's
// datetime.isoformat emits.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseISO(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range isoLayouts {
		tm, err := time.Parse(layout, s)
		if err == nil {
			return tm, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
