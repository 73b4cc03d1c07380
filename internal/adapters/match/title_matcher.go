package match

import (
	"strings"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/lru"
)

// titlePrefixRunes is the prefix length used by the fallback containment
// pass, in runes. Labeled sheets often truncate long article titles; the
// first eight runes of a normalized title are distinctive enough to recover
// those references.
const titlePrefixRunes = 8

// titleCacheSize bounds the per-batch memo of resolved cells. Labeled
// sheets repeat the same article cell for every row of an article, so the
// working set is roughly the article count.
const titleCacheSize = 512

type titleEntry struct {
	threatID int
	norm     string
	prefix   string
}

// TitleMatcher resolves labeled log rows through their article-title cell.
// Resolution is two-pass: an article whose normalized title contains the
// normalized cell wins first; otherwise an article whose normalized title
// prefix occurs inside the cell wins. Both passes honor article order.
type TitleMatcher struct {
	entries []titleEntry
	cache   *lru.Cache[string, domain.MatchResult]
}

// NewTitleMatcher precomputes normalized titles and prefixes. Articles whose
// titles normalize to empty are skipped; they can never be referenced.
func NewTitleMatcher(threats []domain.Threat) *TitleMatcher {
	entries := make([]titleEntry, 0, len(threats))
	for _, t := range threats {
		norm := t.NormalizedTitle()
		if norm == "" {
			continue
		}
		entries = append(entries, titleEntry{
			threatID: t.ID,
			norm:     norm,
			prefix:   t.TitlePrefix(titlePrefixRunes),
		})
	}
	return &TitleMatcher{
		entries: entries,
		cache:   lru.New[string, domain.MatchResult](titleCacheSize),
	}
}

func (m *TitleMatcher) Name() string {
	return "title"
}

func (m *TitleMatcher) Strategy() domain.MatchStrategy {
	return domain.StrategyTitle
}

// Match resolves the row's article-title cell. A row with an empty cell is
// unmatched. A non-empty cell that resolves to no article still carries its
// raw text so downstream aggregation can group such rows together.
//
// Results are memoized per raw cell. The matcher lives for one batch and
// its articles never change, so a memoized result cannot go stale.
func (m *TitleMatcher) Match(row domain.Row) domain.MatchResult {
	raw := row.ArticleRef()
	if raw == "" {
		return domain.NoMatch()
	}
	if res, ok := m.cache.Get(raw); ok {
		return res
	}
	res := m.resolve(raw)
	m.cache.Put(raw, res)
	return res
}

func (m *TitleMatcher) resolve(raw string) domain.MatchResult {
	query := domain.NormalizeTitle(raw)
	if query == "" {
		return domain.NoMatch()
	}

	for _, e := range m.entries {
		if strings.Contains(e.norm, query) {
			return domain.MatchResult{Matched: true, ThreatID: e.threatID, GroupTitle: raw}
		}
	}
	for _, e := range m.entries {
		if strings.Contains(query, e.prefix) {
			return domain.MatchResult{Matched: true, ThreatID: e.threatID, GroupTitle: raw}
		}
	}

	return domain.MatchResult{Matched: true, GroupTitle: raw}
}
