package domain

type LayoutVariant string

const (
	// LayoutPositional: one sheet per article, log columns read by position.
	LayoutPositional LayoutVariant = "positional"
	// LayoutLabeled: header-matched columns, rows tagged with an article title.
	LayoutLabeled LayoutVariant = "labeled"
)

// Workbook is the parsed form of one uploaded spreadsheet, before any
// correlation has run: the article list plus the three raw row tables.
type Workbook struct {
	Source  string
	Variant LayoutVariant
	Sheets  int
	Threats []Threat
	Mail    []MailRow
	Ndr     []NdrRow
	Waf     []WafRow
}

func (w *Workbook) Empty() bool {
	return w == nil || (len(w.Threats) == 0 && len(w.Mail) == 0 &&
		len(w.Ndr) == 0 && len(w.Waf) == 0)
}

func (w *Workbook) RowCount() int {
	if w == nil {
		return 0
	}
	return len(w.Mail) + len(w.Ndr) + len(w.Waf)
}

type MatchStrategy string

const (
	StrategyKeyword MatchStrategy = "keyword"
	StrategyTitle   MatchStrategy = "title"
)

// MatchResult pairs one log row with the article it concerns.
// Matched=false excludes the row from aggregation entirely. ThreatID 0
// with a non-empty GroupTitle keeps the row in an unresolved labeled
// group that aggregates under its raw title.
type MatchResult struct {
	Matched    bool
	ThreatID   int
	GroupTitle string
}

func NoMatch() MatchResult {
	return MatchResult{}
}
