package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/sanitize"
)

// DetectionList renders the filtered detection table with a movable
// selection. Rows keep batch order (detection ids ascending).
type DetectionList struct {
	Detections    []domain.Detection
	Filter        domain.DetectionType
	VisibleCount  int
	ScrollPos     int
	Width         int
	SelectedIndex int
}

func NewDetectionList(visibleCount int) *DetectionList {
	return &DetectionList{
		VisibleCount:  visibleCount,
		Width:         100,
		SelectedIndex: 0,
	}
}

func (d *DetectionList) Update(detections []domain.Detection, filter domain.DetectionType) {
	d.Detections = detections
	d.Filter = filter
	if d.SelectedIndex >= len(detections) {
		d.SelectedIndex = len(detections) - 1
	}
	if d.SelectedIndex < 0 {
		d.SelectedIndex = 0
	}
	d.ensureSelectionVisible()
}

func (d *DetectionList) MoveUp() {
	if d.SelectedIndex > 0 {
		d.SelectedIndex--
	}
	d.ensureSelectionVisible()
}

func (d *DetectionList) MoveDown() {
	if d.SelectedIndex < len(d.Detections)-1 {
		d.SelectedIndex++
	}
	d.ensureSelectionVisible()
}

func (d *DetectionList) ensureSelectionVisible() {
	if len(d.Detections) <= d.VisibleCount {
		d.ScrollPos = 0
		return
	}
	if d.SelectedIndex < d.ScrollPos {
		d.ScrollPos = d.SelectedIndex
	}
	if d.SelectedIndex >= d.ScrollPos+d.VisibleCount {
		d.ScrollPos = d.SelectedIndex - d.VisibleCount + 1
	}
	maxScroll := len(d.Detections) - d.VisibleCount
	if d.ScrollPos > maxScroll {
		d.ScrollPos = maxScroll
	}
	if d.ScrollPos < 0 {
		d.ScrollPos = 0
	}
}

func (d *DetectionList) GetSelected() *domain.Detection {
	if d.SelectedIndex >= 0 && d.SelectedIndex < len(d.Detections) {
		return &d.Detections[d.SelectedIndex]
	}
	return nil
}

func (d *DetectionList) Render() string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#404040"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	text := lipgloss.NewStyle().Foreground(lipgloss.Color("#e5e5e5"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff41"))
	selected := lipgloss.NewStyle().Background(lipgloss.Color("#003300")).Foreground(lipgloss.Color("#00ff41"))

	if len(d.Detections) == 0 {
		if d.Filter != "" {
			return dim.Italic(true).Render(fmt.Sprintf("  No %s detections in this batch", d.Filter))
		}
		return dim.Italic(true).Render("  No detections in this batch")
	}

	var lines []string

	lines = append(lines, muted.Bold(true).Render(
		fmt.Sprintf("  %-3s  %-8s  %6s  %-10s  %-9s  %s",
			"#", "TYPE", "COUNT", "ACTION", "SOURCE", "ARTICLE")))
	lines = append(lines, dim.Render("  "+strings.Repeat("─", max(d.Width-4, 10))))

	startIdx := d.ScrollPos
	endIdx := startIdx + d.VisibleCount
	if endIdx > len(d.Detections) {
		endIdx = len(d.Detections)
	}

	for i := startIdx; i < endIdx; i++ {
		det := d.Detections[i]
		isSelected := i == d.SelectedIndex

		prefix := "  "
		idStyle := muted
		titleStyle := text
		if isSelected {
			prefix = "▶ "
			idStyle = selected
			titleStyle = selected
		}

		title := sanitize.String(det.Title, maxTitleRunes(d.Width))
		action := sanitize.String(det.Action, 10)
		source := sanitize.String(det.Source, 9)

		countStyle := green
		if det.Count >= 50 {
			countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3333")).Bold(true)
		} else if det.Count >= 10 {
			countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb000")).Bold(true)
		}

		line := fmt.Sprintf("%s%s  %s  %s  %s  %s  %s",
			prefix,
			idStyle.Render(fmt.Sprintf("%-3d", det.ID)),
			typeStyle(det.Type).Render(fmt.Sprintf("%-8s", det.Type)),
			countStyle.Render(fmt.Sprintf("%6d", det.Count)),
			text.Render(padDisplay(action, 10)),
			muted.Render(padDisplay(source, 9)),
			titleStyle.Render(title),
		)
		lines = append(lines, line)
	}

	if len(d.Detections) > d.VisibleCount {
		lines = append(lines, dim.Render(fmt.Sprintf("  [%d-%d of %d]",
			startIdx+1, endIdx, len(d.Detections))))
	}

	return strings.Join(lines, "\n")
}

func maxTitleRunes(width int) int {
	n := width - 52
	if n < 12 {
		n = 12
	}
	return n
}

func typeStyle(t domain.DetectionType) lipgloss.Style {
	switch t {
	case domain.DetectionMail:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#00b8ff"))
	case domain.DetectionNDR:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb000"))
	case domain.DetectionWAF:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3333"))
	case domain.DetectionNDRWAF:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff41")).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
}

// padDisplay pads to a display-cell width; wide Korean runes count as two
// cells, so byte or rune padding would misalign the table.
func padDisplay(s string, cells int) string {
	w := lipgloss.Width(s)
	if w >= cells {
		return s
	}
	return s + strings.Repeat(" ", cells-w)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
