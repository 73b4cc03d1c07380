// Package match implements article-to-log-row correlation.
//
// This file provides keyword extraction from article titles. Extracted
// keywords drive the keyword-substring matching strategy: a log row belongs
// to the first article whose keyword occurs verbatim in one of the row's
// eligible fields.
//
// Extraction Strategy:
//   - Split the title on whitespace and a fixed punctuation set
//   - Drop tokens shorter than 2 runes
//   - Drop particles and connectives from the stopword table
//   - Deduplicate, preserving first-seen order
//
// An empty result set is valid: that article simply matches nothing, which is
// the intended outcome for all-stopword titles.
//
// Thread Safety: KeywordExtractor is stateless and safe for concurrent use.
package match

import (
	"unicode"
	"unicode/utf8"
)

// minKeywordRunes is the shortest token kept as a keyword, in runes.
// Single-syllable fragments match far too much Korean log text.
const minKeywordRunes = 2

// Stopwords is the particle/connective table excluded from keyword sets.
// Single-rune particles are listed for completeness even though the length
// filter already removes them.
var Stopwords = map[string]bool{
	"및": true, "의": true, "을": true, "를": true, "이": true, "가": true,
	"은": true, "는": true, "에": true, "와": true, "과": true, "로": true,
	"등": true, "더": true, "또": true,
	"에서": true, "으로": true, "부터": true, "까지": true,
	"관련": true, "대한": true, "통한": true, "위한": true, "따른": true,
	"대해": true, "관한": true, "위해": true, "또한": true, "그리고": true,
	"하는": true, "있는": true, "된다": true, "한다": true,
	"and": true, "or": true, "of": true, "the": true, "for": true,
	"in": true, "on": true, "to": true, "with": true,
}

// splitPunct is the fixed punctuation set that separates tokens, in addition
// to Unicode whitespace.
var splitPunct = map[rune]bool{
	'·': true, '-': true, '/': true,
	'[': true, ']': true, '(': true, ')': true,
	'{': true, '}': true, '<': true, '>': true,
	'「': true, '」': true, '『': true, '』': true,
	'〈': true, '〉': true, '《': true, '》': true,
	',': true, '.': true, ':': true, ';': true,
	'!': true, '?': true, '…': true,
	'"': true, '\'': true, '“': true, '”': true, '‘': true, '’': true,
}

// KeywordExtractor tokenizes article titles into significant keywords.
type KeywordExtractor struct {
	extra map[string]bool
}

// NewKeywordExtractor creates a keyword extractor. Any extra stopwords extend
// the built-in table for this instance only.
func NewKeywordExtractor(extraStopwords ...string) *KeywordExtractor {
	e := &KeywordExtractor{}
	for _, s := range extraStopwords {
		if s == "" {
			continue
		}
		if e.extra == nil {
			e.extra = make(map[string]bool)
		}
		e.extra[s] = true
	}
	return e
}

// Extract returns the title's keyword set in first-seen order.
//
// Parameters:
//   - title: Article title to tokenize
//
// Returns:
//   - Deduplicated keywords of length >= 2 runes, stopwords removed
//   - Empty slice for empty or all-stopword titles (valid, not an error)
func (e *KeywordExtractor) Extract(title string) []string {
	if title == "" {
		return nil
	}

	var keywords []string
	seen := make(map[string]bool)

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		token := title[start:end]
		start = -1
		if utf8.RuneCountInString(token) < minKeywordRunes {
			return
		}
		if Stopwords[token] || e.extra[token] || seen[token] {
			return
		}
		seen[token] = true
		keywords = append(keywords, token)
	}

	for i, r := range title {
		if unicode.IsSpace(r) || splitPunct[r] {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(title))

	return keywords
}
