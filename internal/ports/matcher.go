// Package ports defines the correlation engine interfaces.
//
// RowMatcher is the primary interface for pairing log rows with articles.
package ports

import (
	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

// RowMatcher decides which article a log row concerns.
//
// Implementations:
//   - KeywordMatcher: keyword-substring matching over per-kind field subsets
//     (Aho-Corasick prefiltered)
//   - TitleMatcher: normalized-title containment with a fixed-length prefix
//     fallback, for rows that carry an article-title column
//
// A matcher is built once per ingestion batch from that batch's article list
// and is immutable afterwards.
type RowMatcher interface {
	// Match pairs the row with an article.
	//
	// Parameters:
	//   - row: normalized log row (immutable, do not modify)
	//
	// Returns:
	//   - MatchResult; Matched=false means the row joins no detection
	//
	// Contract:
	//   - MUST NOT modify the row
	//   - MUST resolve to the FIRST matching article in stored order;
	//     there is no ranking among multiple plausible matches
	Match(row domain.Row) domain.MatchResult

	// Name returns the matcher's identifier for logging and stats.
	Name() string

	// Strategy returns the matching strategy this matcher implements.
	Strategy() domain.MatchStrategy
}
