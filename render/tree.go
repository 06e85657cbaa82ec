// Package render projects a scrape result and its expansion state into a
// display tree, and formats that tree as terminal text, Markdown, or HTML.
//
// Every function here is pure: the output depends only on the arguments,
// never on call order or previous renders, and inputs are never modified.
package render

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/use-agent/scrapeview/expansion"
	"github.com/use-agent/scrapeview/models"
)

// Display bounds. They limit what is shown, never what is stored or
// exported.
const (
	MaxLinks     = 10
	MaxImages    = 5
	MaxTableRows = 5
	MaxRawHTML   = 1000 // characters

	NotAvailable = "N/A"
	Ellipsis     = "..."
)

// Tree is the visible projection of one ScrapeResult.
type Tree struct {
	URL  string  `json:"url"`
	Meta []Field `json:"meta"`

	// Interactions is nil when the result carries none.
	Interactions *InteractionsBlock `json:"interactions,omitempty"`

	// Errors is nil when the result reported no partial errors.
	Errors []models.PhaseError `json:"errors,omitempty"`

	Sections []SectionNode `json:"sections"`
}

// Field is a labelled scalar row.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// InteractionsBlock summarises the backend's page interactions.
type InteractionsBlock struct {
	Clicks         int      `json:"clicks"`
	Scrolls        int      `json:"scrolls"`
	Pages          int      `json:"pages"`
	ClickSelectors []string `json:"clickSelectors,omitempty"`
}

// SectionNode is a section header plus, when expanded, its body.
type SectionNode struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Label    string       `json:"label"`
	Expanded bool         `json:"expanded"`
	Body     *SectionBody `json:"body,omitempty"`
}

// Marker is the toggle affordance shown next to the header.
func (n SectionNode) Marker() string {
	if n.Expanded {
		return "▼"
	}
	return "▶"
}

// SectionBody holds the sub-blocks of an expanded section. Empty blocks are
// left zero so formatters can skip them.
type SectionBody struct {
	Fields   []Field        `json:"fields"`
	Headings []string       `json:"headings,omitempty"`
	Text     string         `json:"text,omitempty"`
	Links    *Bounded[Item] `json:"links,omitempty"`
	Images   *Bounded[Item] `json:"images,omitempty"`
	Lists    [][]string     `json:"lists,omitempty"`
	Tables   []TableView    `json:"tables,omitempty"`
	RawHTML  *RawMarkup     `json:"rawHtml,omitempty"`
	JSON     string         `json:"json"`
}

// Item is a labelled reference, a link or an image.
type Item struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

// Bounded is the shown prefix of a collection plus what was left out.
type Bounded[T any] struct {
	Shown     []T `json:"shown"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// TableView is one table with its rows bounded.
type TableView struct {
	Rows Bounded[[]string] `json:"rows"`
}

// RawMarkup is the displayed prefix of a section's raw HTML.
type RawMarkup struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

// Render builds the display tree. It returns nil for a nil result.
func Render(result *models.ScrapeResult, state expansion.State) *Tree {
	if result == nil {
		return nil
	}

	tree := &Tree{
		URL:      result.URL,
		Meta:     metaFields(result),
		Sections: make([]SectionNode, 0, len(result.Sections)),
	}

	if in := result.Interactions; in != nil {
		tree.Interactions = &InteractionsBlock{
			Clicks:         len(in.Clicks),
			Scrolls:        in.Scrolls,
			Pages:          len(in.Pages),
			ClickSelectors: copyStrings(in.Clicks),
		}
	}

	if len(result.Errors) > 0 {
		tree.Errors = append([]models.PhaseError(nil), result.Errors...)
	}

	for _, s := range result.Sections {
		node := SectionNode{
			ID:       s.ID,
			Type:     s.Type,
			Label:    s.Label,
			Expanded: state.IsExpanded(s.ID),
		}
		if node.Expanded {
			node.Body = sectionBody(s)
		}
		tree.Sections = append(tree.Sections, node)
	}

	return tree
}

// Section returns the node for id.
func (t *Tree) Section(id string) (SectionNode, bool) {
	if t == nil {
		return SectionNode{}, false
	}
	for _, n := range t.Sections {
		if n.ID == id {
			return n, true
		}
	}
	return SectionNode{}, false
}

func metaFields(r *models.ScrapeResult) []Field {
	fields := []Field{
		{Label: "URL", Value: orNA(r.URL)},
		{Label: "Title", Value: orNAPtr(r.Meta.Title)},
		{Label: "Description", Value: orNAPtr(r.Meta.Description)},
		{Label: "Language", Value: orNAPtr(r.Meta.Language)},
	}
	if r.Meta.Canonical != nil && *r.Meta.Canonical != "" {
		fields = append(fields, Field{Label: "Canonical", Value: *r.Meta.Canonical})
	}
	fields = append(fields, Field{Label: "Scraped At", Value: orNA(r.ScrapedAt.String())})
	return fields
}

func sectionBody(s models.Section) *SectionBody {
	c := s.Content
	body := &SectionBody{
		Fields: []Field{
			{Label: "ID", Value: s.ID},
			{Label: "Source URL", Value: orNA(s.SourceURL)},
			{Label: "Truncated", Value: yesNo(s.Truncated)},
		},
		Headings: copyStrings(c.Headings),
		Text:     c.Text,
		JSON:     sectionJSON(s),
	}

	if len(c.Links) > 0 {
		items := make([]Item, 0, len(c.Links))
		for _, l := range c.Links {
			items = append(items, Item{Label: firstNonEmpty(l.Text, l.Href), Target: l.Href})
		}
		b := bound(items, MaxLinks)
		body.Links = &b
	}

	if len(c.Images) > 0 {
		items := make([]Item, 0, len(c.Images))
		for _, img := range c.Images {
			items = append(items, Item{Label: firstNonEmpty(img.Alt, img.Src), Target: img.Src})
		}
		b := bound(items, MaxImages)
		body.Images = &b
	}

	if len(c.Lists) > 0 {
		body.Lists = make([][]string, 0, len(c.Lists))
		for _, l := range c.Lists {
			body.Lists = append(body.Lists, copyStrings(l))
		}
	}

	if len(c.Tables) > 0 {
		body.Tables = make([]TableView, 0, len(c.Tables))
		for _, tbl := range c.Tables {
			rows := make([][]string, 0, len(tbl.Rows))
			for _, r := range tbl.Rows {
				rows = append(rows, copyStrings(r))
			}
			body.Tables = append(body.Tables, TableView{Rows: bound(rows, MaxTableRows)})
		}
	}

	if s.RawHTML != "" {
		text, cut := truncateChars(s.RawHTML, MaxRawHTML)
		body.RawHTML = &RawMarkup{Text: text, Truncated: cut}
	}

	return body
}

// bound keeps the first limit items.
func bound[T any](items []T, limit int) Bounded[T] {
	shown := items
	if len(shown) > limit {
		shown = shown[:limit]
	}
	return Bounded[T]{
		Shown:     append([]T(nil), shown...),
		Total:     len(items),
		Remaining: len(items) - len(shown),
	}
}

// truncateChars cuts s to at most n characters (runes).
func truncateChars(s string, n int) (string, bool) {
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

func sectionJSON(s models.Section) string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// RemainderLabel is the "... and N more" line for a bounded collection.
func RemainderLabel(remaining int, noun string) string {
	if noun == "" {
		return Ellipsis + " and " + strconv.Itoa(remaining) + " more"
	}
	return Ellipsis + " and " + strconv.Itoa(remaining) + " more " + noun
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func orNAPtr(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return orNA(*s)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}
