// Package highlight finds query-term occurrences in result previews.
// Uses Aho-Corasick so one pass over the text covers every term.
package highlight

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Span is one matched region of a preview, in byte offsets.
type Span struct {
	Position int    `json:"position"`
	Length   int    `json:"length"`
	Text     string `json:"text"`
}

// Highlighter scans text for a fixed set of terms.
type Highlighter struct {
	ac    ahocorasick.AhoCorasick
	empty bool
}

// New compiles a matcher for the given terms. Blank terms are dropped;
// matching is ASCII case-insensitive.
func New(terms []string) *Highlighter {
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			patterns = append(patterns, t)
		}
	}

	h := &Highlighter{empty: len(patterns) == 0}
	if h.empty {
		return h
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	h.ac = builder.Build(patterns)
	return h
}

// Spans returns every term occurrence in text, left to right.
func (h *Highlighter) Spans(text string) []Span {
	if h.empty || text == "" {
		return nil
	}

	matches := h.ac.FindAll(text)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{
			Position: m.Start(),
			Length:   m.End() - m.Start(),
			Text:     text[m.Start():m.End()],
		})
	}
	return spans
}
