package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/sanitize"
)

// ThreatList renders the ingested articles with a per-article detection
// bar so the busiest threats stand out at a glance.
type ThreatList struct {
	Threats       []domain.Threat
	Counts        map[int]int
	VisibleCount  int
	ScrollPos     int
	Width         int
	SelectedIndex int
}

func NewThreatList(visibleCount int) *ThreatList {
	return &ThreatList{
		VisibleCount: visibleCount,
		Width:        100,
	}
}

// Update replaces the article rows and the detection counts keyed by
// article id, clamping selection to the new bounds.
func (v *ThreatList) Update(threats []domain.Threat, counts map[int]int) {
	v.Threats = threats
	v.Counts = counts
	if v.SelectedIndex >= len(threats) {
		v.SelectedIndex = len(threats) - 1
	}
	if v.SelectedIndex < 0 {
		v.SelectedIndex = 0
	}
	v.ensureSelectionVisible()
}

func (v *ThreatList) MoveUp() {
	if v.SelectedIndex > 0 {
		v.SelectedIndex--
	}
	v.ensureSelectionVisible()
}

func (v *ThreatList) MoveDown() {
	if v.SelectedIndex < len(v.Threats)-1 {
		v.SelectedIndex++
	}
	v.ensureSelectionVisible()
}

func (v *ThreatList) ensureSelectionVisible() {
	if len(v.Threats) <= v.VisibleCount {
		v.ScrollPos = 0
		return
	}
	if v.SelectedIndex < v.ScrollPos {
		v.ScrollPos = v.SelectedIndex
	}
	if v.SelectedIndex >= v.ScrollPos+v.VisibleCount {
		v.ScrollPos = v.SelectedIndex - v.VisibleCount + 1
	}
	maxScroll := len(v.Threats) - v.VisibleCount
	if v.ScrollPos > maxScroll {
		v.ScrollPos = maxScroll
	}
	if v.ScrollPos < 0 {
		v.ScrollPos = 0
	}
}

func (v *ThreatList) GetSelected() *domain.Threat {
	if v.SelectedIndex >= 0 && v.SelectedIndex < len(v.Threats) {
		return &v.Threats[v.SelectedIndex]
	}
	return nil
}

func (v *ThreatList) Render() string {
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff41"))
	greenDim := lipgloss.NewStyle().Foreground(lipgloss.Color("#00aa2a"))
	amber := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb000"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3333"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#404040"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	text := lipgloss.NewStyle().Foreground(lipgloss.Color("#e5e5e5"))
	selected := lipgloss.NewStyle().Background(lipgloss.Color("#003300")).Foreground(lipgloss.Color("#00ff41"))

	if len(v.Threats) == 0 {
		return dim.Italic(true).Render("  No articles loaded")
	}

	var lines []string
	lines = append(lines, muted.Bold(true).Render(fmt.Sprintf("  %-3s  %-10s  %-12s  %-12s  %s",
		"#", "DATE", "SOURCE", "DETECTIONS", "TITLE")))
	lines = append(lines, dim.Render("  "+strings.Repeat("─", max(v.Width-4, 10))))

	maxCount := 0
	for _, t := range v.Threats {
		if c := v.Counts[t.ID]; c > maxCount {
			maxCount = c
		}
	}

	startIdx := v.ScrollPos
	endIdx := startIdx + v.VisibleCount
	if endIdx > len(v.Threats) {
		endIdx = len(v.Threats)
	}

	for i := startIdx; i < endIdx; i++ {
		t := v.Threats[i]
		count := v.Counts[t.ID]
		isSelected := i == v.SelectedIndex

		prefix := "  "
		idStyle := muted
		titleStyle := text
		if isSelected {
			prefix = "▶ "
			idStyle = selected
			titleStyle = selected
		}

		countStyle := greenDim
		switch {
		case count >= 3 || (maxCount > 0 && float64(count)/float64(maxCount) > 0.7):
			countStyle = red.Bold(true)
		case count >= 2 || (maxCount > 0 && float64(count)/float64(maxCount) > 0.4):
			countStyle = amber.Bold(true)
		case count >= 1:
			countStyle = green
		}

		barWidth := 6
		fillWidth := 0
		if maxCount > 0 {
			fillWidth = count * barWidth / maxCount
		}
		if fillWidth > barWidth {
			fillWidth = barWidth
		}
		bar := strings.Repeat("█", fillWidth) + strings.Repeat("░", barWidth-fillWidth)

		date := sanitize.String(t.Date, 10)
		source := sanitize.String(t.Source, 12)
		title := sanitize.String(t.Title, maxTitleRunes(v.Width))

		lines = append(lines, fmt.Sprintf("%s%s  %s  %s  %s  %s",
			prefix,
			idStyle.Render(fmt.Sprintf("%-3d", t.ID)),
			muted.Render(padDisplay(date, 10)),
			text.Render(padDisplay(source, 12)),
			countStyle.Render(fmt.Sprintf("%s %4d", bar, count)),
			titleStyle.Render(title),
		))
	}

	if len(v.Threats) > v.VisibleCount {
		lines = append(lines, dim.Render(fmt.Sprintf("  [%d-%d of %d]",
			startIdx+1, endIdx, len(v.Threats))))
	}

	return strings.Join(lines, "\n")
}
