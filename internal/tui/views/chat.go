package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/sanitize"
)

type ChatLine struct {
	FromUser bool
	Text     string
}

// Chat is the query pane: free-text questions against the loaded batch,
// answered from the dataset without leaving the dashboard.
type Chat struct {
	Width        int
	VisibleCount int
	Input        []rune
	History      []ChatLine
}

func NewChat(visibleCount int) *Chat {
	return &Chat{
		Width:        100,
		VisibleCount: visibleCount,
	}
}

func (c *Chat) Type(runes []rune) {
	c.Input = append(c.Input, runes...)
}

func (c *Chat) Backspace() {
	if len(c.Input) > 0 {
		c.Input = c.Input[:len(c.Input)-1]
	}
}

// Submit answers the pending input against ds and clears the input line.
func (c *Chat) Submit(ds *domain.Dataset) {
	q := strings.TrimSpace(string(c.Input))
	c.Input = c.Input[:0]
	if q == "" {
		return
	}
	c.History = append(c.History, ChatLine{FromUser: true, Text: q})
	for _, line := range Answer(ds, q) {
		c.History = append(c.History, ChatLine{Text: line})
	}
	if keep := c.VisibleCount * 4; len(c.History) > keep {
		c.History = c.History[len(c.History)-keep:]
	}
}

// Answer resolves one query against the dataset. Recognized forms:
// 도움말, 현황, 기사 <번호>, 검색 <키워드>, 미매칭; anything else is
// treated as a keyword search over article titles.
func Answer(ds *domain.Dataset, q string) []string {
	if ds == nil {
		return []string{"아직 적재된 배치가 없습니다. 먼저 워크북을 분석하세요."}
	}

	fields := strings.Fields(q)
	if len(fields) == 0 {
		return nil
	}
	head := strings.ToLower(fields[0])

	switch {
	case head == "help" || head == "도움말" || head == "?":
		return []string{
			"현황            배치 요약",
			"기사 <번호>     기사 정보와 탐지 현황",
			"검색 <키워드>   기사 제목 검색",
			"미매칭          매칭되지 않은 행 통계",
		}

	case head == "현황" || head == "요약" || head == "summary":
		counts := ds.CountByType()
		lines := []string{
			fmt.Sprintf("입력 %s · 기사 %d건 · 탐지 %d건", ds.Source, len(ds.Threats), len(ds.Detections)),
		}
		for _, ty := range typeOrder {
			if n := counts[ty]; n > 0 {
				lines = append(lines, fmt.Sprintf("  %s %d건", ty, n))
			}
		}
		if u := ds.Stats.TotalUnmatched(); u > 0 {
			lines = append(lines, fmt.Sprintf("미매칭 %d행", u))
		}
		return lines

	case (head == "기사" || head == "article") && len(fields) >= 2:
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return []string{"기사 번호를 숫자로 입력하세요. 예: 기사 3"}
		}
		t, ok := ds.ThreatByID(id)
		if !ok {
			return []string{fmt.Sprintf("%d번 기사가 없습니다.", id)}
		}
		lines := []string{
			fmt.Sprintf("[%d] %s", t.ID, t.Title),
			fmt.Sprintf("  %s · %s", t.Date, t.Source),
		}
		if len(t.Tags) > 0 {
			lines = append(lines, "  태그: "+strings.Join(t.Tags, ", "))
		}
		dets := ds.DetectionsForThreat(id)
		if len(dets) == 0 {
			lines = append(lines, "  탐지 이력이 없습니다.")
			return lines
		}
		for _, d := range dets {
			lines = append(lines, fmt.Sprintf("  %s %d건 (%s)", d.Type, d.Count, d.Source))
		}
		return lines

	case (head == "검색" || head == "search") && len(fields) >= 2:
		return searchAnswer(ds, strings.Join(fields[1:], " "))

	case head == "미매칭" || head == "unmatched":
		s := ds.Stats
		return []string{
			fmt.Sprintf("Mail %d/%d행 미매칭", s.Mail.Unmatched, s.Mail.Rows),
			fmt.Sprintf("NDR  %d/%d행 미매칭", s.NDR.Unmatched, s.NDR.Rows),
			fmt.Sprintf("WAF  %d/%d행 미매칭", s.WAF.Unmatched, s.WAF.Rows),
		}
	}

	return searchAnswer(ds, q)
}

func searchAnswer(ds *domain.Dataset, keyword string) []string {
	hits := ds.SearchThreats(keyword)
	if len(hits) == 0 {
		return []string{fmt.Sprintf("%q와 일치하는 기사가 없습니다. (도움말: ?)", keyword)}
	}
	lines := []string{fmt.Sprintf("%q 검색 결과 %d건:", keyword, len(hits))}
	for i, t := range hits {
		if i == 5 {
			lines = append(lines, fmt.Sprintf("  … 외 %d건", len(hits)-5))
			break
		}
		lines = append(lines, fmt.Sprintf("  [%d] %s", t.ID, t.Title))
	}
	return lines
}

func (c *Chat) Render() string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#404040"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("#00b8ff"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff41"))
	text := lipgloss.NewStyle().Foreground(lipgloss.Color("#e5e5e5"))

	var lines []string
	if len(c.History) == 0 {
		lines = append(lines, dim.Italic(true).Render("  배치에 질문을 입력하세요. (도움말: ?)"))
	}

	history := c.History
	if len(history) > c.VisibleCount {
		history = history[len(history)-c.VisibleCount:]
	}
	for _, l := range history {
		if l.FromUser {
			lines = append(lines, cyan.Render("  ❯ ")+text.Render(sanitize.SanitizeForTerminal(l.Text)))
			continue
		}
		for _, wrapped := range wrapCells(l.Text, max(c.Width-6, 20)) {
			lines = append(lines, green.Render("    "+sanitize.SanitizeForTerminal(wrapped)))
		}
	}

	lines = append(lines, "")
	lines = append(lines, dim.Render("  "+strings.Repeat("─", max(c.Width-4, 10))))
	lines = append(lines, fmt.Sprintf("  %s%s%s",
		cyan.Bold(true).Render("메시지> "),
		text.Render(sanitize.SanitizeForTerminal(string(c.Input))),
		green.Blink(true).Render("█")))

	return strings.Join(lines, "\n")
}
