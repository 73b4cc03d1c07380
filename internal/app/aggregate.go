package app

import (
	"fmt"
	"strings"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/ports"
)

// Aggregator folds matched log rows into per-(article, kind) detection
// candidates. Candidates carry no final IDs; Reduce assigns those after the
// merge pass. Feed order is significant: candidates come back in
// first-encounter order, so callers feed mail rows, then NDR, then WAF.
type Aggregator struct {
	matcher ports.RowMatcher
	titles  map[int]string

	groups map[groupKey]*group
	order  []groupKey
}

type groupKey struct {
	threatID int
	rawTitle string
	kind     domain.LogKind
}

type group struct {
	threatID int
	title    string
	kind     domain.LogKind
	count    int
	action   string
	detail   *detailAccum
}

func NewAggregator(matcher ports.RowMatcher, threats []domain.Threat) *Aggregator {
	titles := make(map[int]string, len(threats))
	for _, t := range threats {
		titles[t.ID] = t.Title
	}
	return &Aggregator{
		matcher: matcher,
		titles:  titles,
		groups:  make(map[groupKey]*group),
	}
}

// Add matches one row and folds it into its group. It reports whether the row
// matched; unmatched rows contribute to nothing.
func (a *Aggregator) Add(row domain.Row) bool {
	result := a.matcher.Match(row)
	if !result.Matched {
		return false
	}

	key := groupKey{threatID: result.ThreatID, kind: row.Kind()}
	if result.ThreatID == 0 {
		key.rawTitle = result.GroupTitle
	}

	g, ok := a.groups[key]
	if !ok {
		g = &group{
			threatID: result.ThreatID,
			title:    a.groupTitle(result),
			kind:     row.Kind(),
			detail:   newDetailAccum(),
		}
		a.groups[key] = g
		a.order = append(a.order, key)
	}

	g.count += row.Volume()
	if g.action == "" {
		g.action = row.ActionValue()
	}
	g.detail.add(row.DetailPairs())
	return true
}

// groupTitle resolves the display title for a group: the article's own title
// when one matched, otherwise the raw title string the rows carried.
func (a *Aggregator) groupTitle(result domain.MatchResult) string {
	if result.ThreatID > 0 {
		if title, ok := a.titles[result.ThreatID]; ok {
			return title
		}
	}
	return result.GroupTitle
}

// Candidates returns one detection candidate per group, in first-encounter
// order, with the detail map finalized and the action-volume entry appended.
func (a *Aggregator) Candidates() []domain.Detection {
	candidates := make([]domain.Detection, 0, len(a.order))
	for _, key := range a.order {
		g := a.groups[key]

		detail := g.detail.build()
		detail.Set(detailKeyActionVolume, actionVolume(g.kind, g.count))

		candidates = append(candidates, domain.Detection{
			ThreatID: g.threatID,
			Type:     detectionType(g.kind),
			Title:    g.title,
			Label:    detectionLabel(detectionType(g.kind), g.title, g.count),
			Count:    g.count,
			Action:   actionFor(g.kind, g.action),
			Source:   sourceFor(g.kind),
			Detail:   detail,
		})
	}
	return candidates
}

// detailKeyActionVolume is the detail entry summarizing what was done and how
// often, always the last entry appended per kind.
const detailKeyActionVolume = "조치량"

// detailAccum collects distinct non-empty values per detail field, keeping
// both field order and per-field value order as first seen.
type detailAccum struct {
	order []string
	vals  map[string][]string
	seen  map[string]map[string]bool
}

func newDetailAccum() *detailAccum {
	return &detailAccum{
		vals: make(map[string][]string),
		seen: make(map[string]map[string]bool),
	}
}

func (d *detailAccum) add(pairs []domain.DetailPair) {
	for _, p := range pairs {
		set, ok := d.seen[p.Key]
		if !ok {
			set = make(map[string]bool)
			d.seen[p.Key] = set
			d.order = append(d.order, p.Key)
		}
		if p.Value == "" || set[p.Value] {
			continue
		}
		set[p.Value] = true
		d.vals[p.Key] = append(d.vals[p.Key], p.Value)
	}
}

func (d *detailAccum) build() *domain.Detail {
	detail := domain.NewDetail()
	for _, key := range d.order {
		detail.Set(key, strings.Join(d.vals[key], ", "))
	}
	return detail
}

func detectionType(kind domain.LogKind) domain.DetectionType {
	switch kind {
	case domain.KindMail:
		return domain.DetectionMail
	case domain.KindNDR:
		return domain.DetectionNDR
	default:
		return domain.DetectionWAF
	}
}

func detectionLabel(t domain.DetectionType, title string, count int) string {
	switch t {
	case domain.DetectionMail:
		return fmt.Sprintf("[Mail] %s 관련 메일 %d건 유입", title, count)
	case domain.DetectionNDR:
		return fmt.Sprintf("[NDR] %s 관련 이벤트 %d건 탐지", title, count)
	case domain.DetectionNDRWAF:
		return fmt.Sprintf("[NDR+WAF] %s 관련 이벤트 %d건 탐지/차단", title, count)
	default:
		return fmt.Sprintf("[WAF] %s 관련 요청 %d건 차단", title, count)
	}
}

func actionVolume(kind domain.LogKind, count int) string {
	switch kind {
	case domain.KindMail:
		return fmt.Sprintf("유입 %d건", count)
	case domain.KindNDR:
		return fmt.Sprintf("탐지 %d건", count)
	default:
		return fmt.Sprintf("차단 %d건", count)
	}
}

func actionFor(kind domain.LogKind, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch kind {
	case domain.KindMail:
		return "유입"
	case domain.KindNDR:
		return "탐지"
	default:
		return "차단"
	}
}

func sourceFor(kind domain.LogKind) string {
	switch kind {
	case domain.KindMail:
		return "메일게이트웨이"
	case domain.KindNDR:
		return "NDR"
	default:
		return "WAF"
	}
}
