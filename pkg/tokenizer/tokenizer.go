// Package tokenizer converts raw note text into searchable tokens.
// Output is deterministic for a given input, which the index relies on
// for reproducible rebuilds.
package tokenizer

import (
	"regexp"
	"strings"
)

// defaultChordPattern matches chord-like codes (root, optional accidental,
// optional quality, optional extension digits). Extracted from original-case
// text because case is significant for this token class. The bare "m"
// shorthand must sort after the longer qualities: Go regexp alternation
// takes the leftmost branch, and "Cmaj7" should not stop at "Cm".
var defaultChordPattern = regexp.MustCompile(`[A-G](?:[b#])?(?:maj|min|dim|aug|sus|add|m)?(?:\d+)?`)

// specialCharPattern strips punctuation, keeping hyphens intact.
var specialCharPattern = regexp.MustCompile(`[^\w\s-]`)

// stopWords is the fixed filter set. Queries and documents go through the
// same list, so membership changes invalidate every persisted index.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
		"between", "both", "but", "by", "can", "could", "did", "do", "does", "doing",
		"down", "during", "each", "few", "for", "from", "further", "had", "has", "have",
		"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
		"i", "if", "in", "into", "is", "it", "its", "itself", "just", "me", "might", "more",
		"most", "my", "myself", "no", "nor", "not", "of", "off", "on", "once", "only", "or",
		"other", "our", "ours", "ourselves", "out", "over", "own", "same", "so", "some",
		"such", "than", "that", "the", "their", "theirs", "them", "themselves", "then",
		"there", "these", "they", "this", "those", "to", "too", "under", "until", "up",
		"very", "was", "we", "were", "what", "when", "where", "which", "while", "who",
		"whom", "why", "with", "would", "you", "your", "yours", "yourself", "yourselves",
	} {
		stopWords[w] = struct{}{}
	}
}

// Result holds everything extracted from one document.
type Result struct {
	// Words are the surviving tokens in document order, duplicates kept
	// so callers can count per-document frequency.
	Words []string
	// Phrases are 2-word and 3-word contiguous windows over Words.
	Phrases []string
	// Chords are special-token matches in their original case.
	Chords []string
	// Positions maps a lower-cased token to character offsets in the
	// lower-cased text. Words record only their first occurrence.
	Positions map[string][]int
}

// Tokenizer splits text into words, phrases and chord tokens.
// The zero value is not usable; construct with New.
type Tokenizer struct {
	chordPattern *regexp.Regexp
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithChordPattern overrides the special-token grammar. The intended
// grammar is domain-specific, so callers indexing non-musical content
// can plug in their own code pattern.
func WithChordPattern(re *regexp.Regexp) Option {
	return func(t *Tokenizer) {
		t.chordPattern = re
	}
}

// New creates a Tokenizer with the default chord grammar.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{chordPattern: defaultChordPattern}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsStopWord reports whether the lower-cased token is filtered out.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Tokenize extracts words, phrases and chord tokens from text.
// Pure: no I/O, no shared state, same output for the same input.
func (t *Tokenizer) Tokenize(text string) Result {
	res := Result{Positions: make(map[string][]int)}
	lower := strings.ToLower(text)

	// Chords come from the original-case text, one position per match.
	if t.chordPattern != nil {
		for _, loc := range t.chordPattern.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			res.Chords = append(res.Chords, match)
			key := strings.ToLower(match)
			res.Positions[key] = append(res.Positions[key], loc[0])
		}
	}

	raw := strings.Fields(specialCharPattern.ReplaceAllString(lower, " "))
	for _, token := range raw {
		if IsStopWord(token) || len(token) <= 1 {
			continue
		}
		if _, seen := res.Positions[token]; !seen {
			if idx := strings.Index(lower, token); idx >= 0 {
				res.Positions[token] = []int{idx}
			}
		}
		res.Words = append(res.Words, token)
	}

	// Sliding 2- and 3-word windows. Stop words are already gone, so a
	// phrase never spans a removed word.
	for i := 0; i < len(res.Words)-1; i++ {
		res.Phrases = append(res.Phrases, res.Words[i]+" "+res.Words[i+1])
		if i < len(res.Words)-2 {
			res.Phrases = append(res.Phrases, res.Words[i]+" "+res.Words[i+1]+" "+res.Words[i+2])
		}
	}

	return res
}

// Frequencies counts per-document occurrences of each word in a Result.
func (r Result) Frequencies() map[string]int {
	freq := make(map[string]int, len(r.Words))
	for _, w := range r.Words {
		freq[w]++
	}
	return freq
}
