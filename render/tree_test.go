package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapeview/expansion"
	"github.com/use-agent/scrapeview/models"
)

func strPtr(s string) *string { return &s }

func fixture() *models.ScrapeResult {
	links := make([]models.Link, 0, 15)
	for i := range 15 {
		links = append(links, models.Link{Href: fmt.Sprintf("https://example.com/%d", i), Text: fmt.Sprintf("link %d", i)})
	}
	links[3].Text = ""

	images := make([]models.Image, 0, 7)
	for i := range 7 {
		images = append(images, models.Image{Src: fmt.Sprintf("/img/%d.png", i), Alt: fmt.Sprintf("image %d", i)})
	}
	images[0].Alt = ""

	rows := make([][]string, 0, 8)
	for i := range 8 {
		rows = append(rows, []string{fmt.Sprintf("r%d", i), "x"})
	}

	return &models.ScrapeResult{
		URL:  "https://example.com/",
		Meta: models.Meta{Title: strPtr("Example"), Language: strPtr("")},
		Errors: []models.PhaseError{
			{Phase: "click", Message: "selector not found"},
		},
		Sections: []models.Section{
			{
				ID:        "hero-0",
				Type:      "hero",
				Label:     "Welcome",
				SourceURL: "https://example.com/",
				Truncated: true,
				RawHTML:   strings.Repeat("é", 1200),
				Content: models.Content{
					Headings: []string{"Welcome", "Subtitle"},
					Text:     "Hello world",
					Links:    links,
					Images:   images,
					Lists:    [][]string{{"a", "b"}, {"c"}},
					Tables:   []models.Table{{Rows: rows}},
				},
			},
			{
				ID:      "footer-1",
				Type:    "footer",
				Label:   "Footer",
				RawHTML: "<footer>short</footer>",
			},
		},
	}
}

func TestRender_NilResult(t *testing.T) {
	assert.Nil(t, Render(nil, expansion.Empty()))
	assert.Empty(t, Text(nil, TextOptions{}))
	assert.Empty(t, Markdown(nil, MarkdownOptions{}))
}

func TestRender_MetaFallbacks(t *testing.T) {
	tree := Render(fixture(), expansion.Empty())

	got := map[string]string{}
	for _, f := range tree.Meta {
		got[f.Label] = f.Value
	}
	assert.Equal(t, "Example", got["Title"])
	assert.Equal(t, NotAvailable, got["Description"])
	assert.Equal(t, NotAvailable, got["Language"])
	assert.Equal(t, NotAvailable, got["Scraped At"])
	assert.NotContains(t, got, "Canonical")
}

func TestRender_CollapsedByDefault(t *testing.T) {
	tree := Render(fixture(), expansion.Empty())

	require.Len(t, tree.Sections, 2)
	for _, n := range tree.Sections {
		assert.False(t, n.Expanded)
		assert.Nil(t, n.Body)
		assert.Equal(t, "▶", n.Marker())
	}
	assert.Equal(t, "hero-0", tree.Sections[0].ID)
	assert.Equal(t, "footer-1", tree.Sections[1].ID)
}

func TestRender_ExpandedBodyIsBounded(t *testing.T) {
	tree := Render(fixture(), expansion.Of("hero-0"))

	hero := tree.Sections[0]
	require.True(t, hero.Expanded)
	require.NotNil(t, hero.Body)
	assert.Nil(t, tree.Sections[1].Body)

	b := hero.Body
	assert.Equal(t, []Field{
		{Label: "ID", Value: "hero-0"},
		{Label: "Source URL", Value: "https://example.com/"},
		{Label: "Truncated", Value: "Yes"},
	}, b.Fields)
	assert.Equal(t, []string{"Welcome", "Subtitle"}, b.Headings)

	require.NotNil(t, b.Links)
	assert.Len(t, b.Links.Shown, MaxLinks)
	assert.Equal(t, 15, b.Links.Total)
	assert.Equal(t, 5, b.Links.Remaining)
	assert.Equal(t, "https://example.com/3", b.Links.Shown[3].Label, "empty link text falls back to href")

	require.NotNil(t, b.Images)
	assert.Len(t, b.Images.Shown, MaxImages)
	assert.Equal(t, 2, b.Images.Remaining)
	assert.Equal(t, "/img/0.png", b.Images.Shown[0].Label, "empty alt falls back to src")

	require.Len(t, b.Tables, 1)
	assert.Len(t, b.Tables[0].Rows.Shown, MaxTableRows)
	assert.Equal(t, 3, b.Tables[0].Rows.Remaining)

	require.NotNil(t, b.RawHTML)
	assert.True(t, b.RawHTML.Truncated)
	assert.Equal(t, MaxRawHTML, len([]rune(b.RawHTML.Text)))

	assert.Contains(t, b.JSON, `"id": "hero-0"`)
}

func TestRender_EmptyBlocksOmitted(t *testing.T) {
	tree := Render(fixture(), expansion.Of("footer-1"))

	b := tree.Sections[1].Body
	require.NotNil(t, b)
	assert.Empty(t, b.Headings)
	assert.Empty(t, b.Text)
	assert.Nil(t, b.Links)
	assert.Nil(t, b.Images)
	assert.Empty(t, b.Lists)
	assert.Empty(t, b.Tables)
	require.NotNil(t, b.RawHTML)
	assert.False(t, b.RawHTML.Truncated)
	assert.Equal(t, "<footer>short</footer>", b.RawHTML.Text)
}

func TestRender_DoesNotTruncateSource(t *testing.T) {
	r := fixture()
	Render(r, expansion.Of("hero-0", "footer-1"))

	assert.Len(t, r.Sections[0].Content.Links, 15)
	assert.Len(t, r.Sections[0].Content.Tables[0].Rows, 8)
	assert.Len(t, []rune(r.Sections[0].RawHTML), 1200)
}

func TestRender_IsPure(t *testing.T) {
	r := fixture()
	state := expansion.Of("hero-0")

	first := Render(r, state)
	// An unrelated render in between must not influence the next one.
	Render(r, expansion.Of("footer-1"))
	second := Render(r, state)

	assert.Equal(t, first, second)
	assert.Equal(t, Text(first, TextOptions{Selected: "hero-0"}), Text(second, TextOptions{Selected: "hero-0"}))
	assert.Equal(t, Markdown(first, MarkdownOptions{}), Markdown(second, MarkdownOptions{}))
}

func TestRender_PartialErrorsAlongsideSections(t *testing.T) {
	r := &models.ScrapeResult{
		URL:    "https://example.com",
		Errors: []models.PhaseError{{Phase: "click", Message: "selector not found"}},
		Sections: []models.Section{{
			ID: "s-0", Type: "section", Label: "Main",
			Content: models.Content{Text: "body text"},
		}},
	}

	tree := Render(r, expansion.Of("s-0"))

	assert.Equal(t, []models.PhaseError{{Phase: "click", Message: "selector not found"}}, tree.Errors)
	require.Len(t, tree.Sections, 1)
	assert.Equal(t, "Main", tree.Sections[0].Label)
	require.NotNil(t, tree.Sections[0].Body)
	assert.Equal(t, "body text", tree.Sections[0].Body.Text)

	md := Markdown(tree, MarkdownOptions{})
	assert.Contains(t, md, "## Errors")
	assert.Contains(t, md, "**click:** selector not found")
	assert.Equal(t, 1, strings.Count(md, "selector not found"))
}

func TestRender_NoErrorsNoInteractions(t *testing.T) {
	tree := Render(&models.ScrapeResult{URL: "u"}, expansion.Empty())
	assert.Nil(t, tree.Errors)
	assert.Nil(t, tree.Interactions)

	md := Markdown(tree, MarkdownOptions{})
	assert.NotContains(t, md, "## Errors")
	assert.NotContains(t, md, "## Interactions")
}

func TestRender_Interactions(t *testing.T) {
	r := &models.ScrapeResult{
		Interactions: &models.Interactions{Clicks: []string{"#more", ".tab"}, Scrolls: 3, Pages: []string{"p1"}},
	}
	tree := Render(r, expansion.Empty())

	require.NotNil(t, tree.Interactions)
	assert.Equal(t, InteractionsBlock{Clicks: 2, Scrolls: 3, Pages: 1, ClickSelectors: []string{"#more", ".tab"}}, *tree.Interactions)
}

func TestMarkdown_EscapesScrapedText(t *testing.T) {
	r := &models.ScrapeResult{
		Sections: []models.Section{{
			ID: "s", Type: "section", Label: "<script>alert(1)</script>",
			Content: models.Content{Links: []models.Link{{Href: "javascript:alert(1)", Text: "[x](y)"}}},
		}},
	}
	tree := Render(r, expansion.Of("s"))

	md := Markdown(tree, MarkdownOptions{})
	assert.NotContains(t, md, "<script>")
	assert.Contains(t, md, `\[x\](y)`)

	page := string(HTML(tree, "scrape", MarkdownOptions{}))
	assert.NotContains(t, page, "<script>")
	assert.NotContains(t, page, `href="javascript:`)
}

func TestRemainderLabel(t *testing.T) {
	assert.Equal(t, "... and 5 more", RemainderLabel(5, ""))
	assert.Equal(t, "... and 3 more rows", RemainderLabel(3, "rows"))
}
