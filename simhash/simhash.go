// Package simhash fingerprints scrape results so a rescrape of the same page
// can report whether its content changed.
package simhash

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"

	"github.com/use-agent/scrapeview/models"
)

// Threshold is the largest distance at which two results count as unchanged.
const Threshold = 3

// Fingerprint computes a 64-bit SimHash over the words of text. Words are
// lower-cased and stripped of surrounding punctuation; empty input gives 0.
func Fingerprint(text string) uint64 {
	var weights [64]int
	var seen bool

	for _, word := range strings.Fields(text) {
		word = strings.ToLower(strings.TrimFunc(word, unicode.IsPunct))
		if word == "" {
			continue
		}
		seen = true
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum64()
		for i := range weights {
			if sum&(1<<uint(i)) != 0 {
				weights[i]++
			} else {
				weights[i]--
			}
		}
	}
	if !seen {
		return 0
	}

	var fp uint64
	for i, w := range weights {
		if w > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// OfResult fingerprints the visible content of a result: section labels,
// headings, text, link texts, list items and table cells, in order.
// Scrape time and raw HTML do not contribute.
func OfResult(r *models.ScrapeResult) uint64 {
	if r == nil {
		return 0
	}

	var sb strings.Builder
	add := func(s string) {
		sb.WriteString(s)
		sb.WriteByte(' ')
	}
	for _, s := range r.Sections {
		add(s.Label)
		for _, h := range s.Content.Headings {
			add(h)
		}
		add(s.Content.Text)
		for _, l := range s.Content.Links {
			add(l.Text)
		}
		for _, list := range s.Content.Lists {
			for _, item := range list {
				add(item)
			}
		}
		for _, t := range s.Content.Tables {
			for _, row := range t.Rows {
				for _, cell := range row {
					add(cell)
				}
			}
		}
	}
	return Fingerprint(sb.String())
}

// Distance is the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether a and b are within threshold bits of each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Change compares one result with the previous result for the same target.
type Change struct {
	Fingerprint string `json:"fingerprint"`
	// Rescrape is set when an earlier result for the same target exists;
	// Distance and Changed are meaningful only then.
	Rescrape bool `json:"rescrape"`
	Distance int  `json:"distance,omitempty"`
	Changed  bool `json:"changed"`
}

// Tracker remembers the fingerprint of the last observed result. It is not
// safe for concurrent use.
type Tracker struct {
	target string
	last   uint64
	seen   bool
}

// Observe fingerprints r, compares it with the previous result when that one
// was for the same target, and remembers it.
func (t *Tracker) Observe(target string, r *models.ScrapeResult) Change {
	fp := OfResult(r)
	c := Change{Fingerprint: fmt.Sprintf("%016x", fp)}
	if t.seen && t.target == target {
		c.Rescrape = true
		c.Distance = Distance(t.last, fp)
		c.Changed = c.Distance > Threshold
	}
	t.target, t.last, t.seen = target, fp, true
	return c
}
