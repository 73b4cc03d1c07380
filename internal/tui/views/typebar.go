package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

var (
	barColorDim   = lipgloss.Color("#404040")
	barColorGhost = lipgloss.Color("#252525")
)

var typeOrder = []domain.DetectionType{
	domain.DetectionMail,
	domain.DetectionNDR,
	domain.DetectionWAF,
	domain.DetectionNDRWAF,
}

// TypeBar renders a one-line stacked bar showing how the current batch
// splits across detection types, with a per-type legend.
type TypeBar struct {
	Counts map[domain.DetectionType]int
	Width  int
}

func NewTypeBar(width int) *TypeBar {
	if width <= 0 {
		width = 60
	}
	return &TypeBar{Width: width}
}

func (t *TypeBar) Update(counts map[domain.DetectionType]int) {
	t.Counts = counts
}

func (t *TypeBar) SetWidth(width int) {
	if width > 0 {
		t.Width = width
	}
}

func (t *TypeBar) Render() string {
	dim := lipgloss.NewStyle().Foreground(barColorDim)
	ghost := lipgloss.NewStyle().Foreground(barColorGhost)

	budget := t.Width / 3
	if budget < 16 {
		budget = 16
	}

	total := 0
	for _, ty := range typeOrder {
		total += t.Counts[ty]
	}
	if total == 0 {
		return " " + ghost.Render(strings.Repeat("░", budget)) + dim.Render("  no detections")
	}

	var b strings.Builder
	b.WriteString(" ")

	// Stacked segments in canonical type order; every non-zero type
	// gets at least one cell so small slices stay visible.
	used := 0
	for _, ty := range typeOrder {
		c := t.Counts[ty]
		if c == 0 {
			continue
		}
		cells := c * budget / total
		if cells < 1 {
			cells = 1
		}
		if used+cells > budget {
			cells = budget - used
		}
		if cells <= 0 {
			continue
		}
		b.WriteString(typeStyle(ty).Render(strings.Repeat("█", cells)))
		used += cells
	}
	if used < budget {
		b.WriteString(ghost.Render(strings.Repeat("░", budget-used)))
	}

	parts := make([]string, 0, len(typeOrder))
	for _, ty := range typeOrder {
		c := t.Counts[ty]
		label := fmt.Sprintf("%s %d", ty, c)
		if c == 0 {
			parts = append(parts, dim.Render(label))
			continue
		}
		parts = append(parts, typeStyle(ty).Render(label))
	}
	b.WriteString("  " + strings.Join(parts, dim.Render(" · ")))

	return b.String()
}
