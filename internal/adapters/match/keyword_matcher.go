package match

import (
	"strings"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/ahocorasick"
)

type threatKeywords struct {
	threatID int
	keywords []string
}

// KeywordMatcher assigns log rows to articles by keyword substring. Matching
// is case-sensitive; a row belongs to the first article, in workbook order,
// with any keyword occurring in any of the row's keyword fields.
type KeywordMatcher struct {
	order     []threatKeywords
	preFilter *ahocorasick.Matcher
}

// NewKeywordMatcher extracts keywords from every article title and builds the
// prefilter automaton. Articles whose titles yield no keywords are skipped.
func NewKeywordMatcher(threats []domain.Threat, extraStopwords ...string) *KeywordMatcher {
	extractor := NewKeywordExtractor(extraStopwords...)

	var order []threatKeywords
	var patterns []string
	for _, t := range threats {
		keywords := extractor.Extract(t.Title)
		if len(keywords) == 0 {
			continue
		}
		order = append(order, threatKeywords{threatID: t.ID, keywords: keywords})
		patterns = append(patterns, keywords...)
	}

	return &KeywordMatcher{
		order:     order,
		preFilter: ahocorasick.New(patterns),
	}
}

func (m *KeywordMatcher) Name() string {
	return "keyword"
}

func (m *KeywordMatcher) Strategy() domain.MatchStrategy {
	return domain.StrategyKeyword
}

// Match reports the first article owning a keyword found in the row's fields.
// The prefilter rejects the common no-keyword case in a single pass; the
// confirm scan then preserves article order so ties resolve to the earliest
// article.
func (m *KeywordMatcher) Match(row domain.Row) domain.MatchResult {
	fields := row.KeywordFields()

	hit := false
	for _, field := range fields {
		if field != "" && m.preFilter.Match(field) {
			hit = true
			break
		}
	}
	if !hit {
		return domain.NoMatch()
	}

	for _, tk := range m.order {
		for _, keyword := range tk.keywords {
			for _, field := range fields {
				if field != "" && strings.Contains(field, keyword) {
					return domain.MatchResult{Matched: true, ThreatID: tk.threatID}
				}
			}
		}
	}

	return domain.NoMatch()
}
