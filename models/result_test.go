package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResult = `{
  "url": "https://example.com/",
  "meta": {"title": "Example", "description": null, "language": "en"},
  "scrapedAt": "2025-01-02T03:04:05Z",
  "errors": [{"phase": "click", "message": "selector not found"}],
  "sections": [
    {
      "id": "hero-0",
      "type": "hero",
      "label": "Welcome",
      "sourceUrl": "https://example.com/",
      "truncated": false,
      "rawHtml": "<section>hi</section>",
      "content": {
        "headings": ["Welcome"],
        "text": "hi",
        "links": [{"href": "/a", "text": "A"}],
        "images": [],
        "lists": [["one", "two"]],
        "tables": [{"rows": [["h1", "h2"], ["c1", "c2"]]}]
      }
    }
  ]
}`

func TestScrapeResult_Decode(t *testing.T) {
	var r ScrapeResult
	require.NoError(t, json.Unmarshal([]byte(sampleResult), &r))

	require.NotNil(t, r.Meta.Title)
	assert.Equal(t, "Example", *r.Meta.Title)
	assert.Nil(t, r.Meta.Description)
	assert.Nil(t, r.Interactions)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), r.ScrapedAt.Time.UTC())
	require.Len(t, r.Sections, 1)
	assert.Equal(t, [][]string{{"h1", "h2"}, {"c1", "c2"}}, r.Sections[0].Content.Tables[0].Rows)
	assert.NoError(t, r.Validate())
}

func TestTimestamp_Forms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2025-01-02T03:04:05Z"`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"python isoformat", `"2025-01-02T03:04:05.123456"`, time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)},
		{"epoch seconds", `1735787045`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"epoch millis", `1735787045000`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tc.in), &ts))
			assert.True(t, tc.want.Equal(ts.Time), "got %s", ts.Time)

			out, err := json.Marshal(ts)
			require.NoError(t, err)
			assert.Equal(t, tc.in, string(out))
		})
	}
}

func TestTimestamp_UnparseableStringKept(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.True(t, ts.IsZero())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"yesterday"`, string(out))
}

func TestScrapeResult_Validate(t *testing.T) {
	r := &ScrapeResult{Sections: []Section{{ID: "a"}, {ID: "b"}, {ID: "a"}}}
	assert.ErrorContains(t, r.Validate(), `duplicate section id "a"`)

	r = &ScrapeResult{Sections: []Section{{ID: ""}}}
	assert.ErrorContains(t, r.Validate(), "empty id")

	r = &ScrapeResult{Interactions: &Interactions{Scrolls: -1}}
	assert.ErrorContains(t, r.Validate(), "negative scroll count")

	var nilResult *ScrapeResult
	assert.Error(t, nilResult.Validate())
}

func TestScrapeResult_SectionLookup(t *testing.T) {
	r := &ScrapeResult{Sections: []Section{{ID: "nav-0", Label: "Nav"}, {ID: "footer-1"}}}

	s, ok := r.Section("nav-0")
	require.True(t, ok)
	assert.Equal(t, "Nav", s.Label)

	_, ok = r.Section("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"nav-0", "footer-1"}, r.SectionIDs())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "validation", ErrorKind(NewValidationError(ReasonEmpty, " ")))
	assert.Equal(t, "request", ErrorKind(NewRequestError("", 500, nil)))
	assert.Equal(t, "busy", ErrorKind(ErrBusy))
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, DefaultRequestErrorMessage, NewRequestError("  ", 0, nil).Message)
}
