package views

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/sanitize"
)

type Status struct {
	Width     int
	Dataset   *domain.Dataset
	Batches   int
	StartTime time.Time
	lastBatch time.Time
}

func NewStatus(width int) *Status {
	return &Status{Width: width, StartTime: time.Now()}
}

func (s *Status) Update(ds *domain.Dataset, batches int) {
	s.Dataset = ds
	s.Batches = batches
	s.lastBatch = time.Now()
}

func (s *Status) Render() string {
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff41"))
	greenDim := lipgloss.NewStyle().Foreground(lipgloss.Color("#00aa2a"))
	amber := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb000"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3333"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	border := lipgloss.NewStyle().Foreground(lipgloss.Color("#2a2a2a"))

	hb := s.heartbeat(green, greenDim, amber, red)

	source := "-"
	threats, detections, unmatched := 0, 0, 0
	if s.Dataset != nil {
		source = sanitize.String(filepath.Base(s.Dataset.Source), 24)
		threats = len(s.Dataset.Threats)
		detections = len(s.Dataset.Detections)
		unmatched = s.Dataset.Stats.TotalUnmatched()
	}

	um := green
	if unmatched >= 10 {
		um = red.Bold(true)
	} else if unmatched > 0 {
		um = amber.Bold(true)
	}

	uptime := time.Since(s.StartTime).Round(time.Second)
	sep := border.Render(" │ ")

	items := []string{
		hb,
		muted.Render("SRC:") + " " + green.Render(source),
		muted.Render("BATCH:") + " " + green.Render(fmt.Sprintf("%d", s.Batches)),
		muted.Render("ART:") + " " + green.Render(fmtLarge(int64(threats))),
		muted.Render("DET:") + " " + green.Render(fmtLarge(int64(detections))),
		muted.Render("UNMATCHED:") + " " + um.Render(fmtLarge(int64(unmatched))),
		muted.Render("UP:") + " " + green.Render(fmtUptime(uptime)),
	}

	line := ""
	for i, item := range items {
		if i > 0 {
			line += sep
		}
		line += item
	}

	return lipgloss.NewStyle().
		Width(s.Width).
		Padding(0, 1).
		Background(lipgloss.Color("#0a0a0a")).
		Render(line)
}

// heartbeat fades as the last batch ages. Batches arrive on file saves,
// so the thresholds are in minutes, not milliseconds.
func (s *Status) heartbeat(active, dim, warn, crit lipgloss.Style) string {
	var icon string
	var style lipgloss.Style

	elapsed := time.Since(s.lastBatch)
	switch {
	case s.lastBatch.IsZero():
		icon, style = "○", crit
	case elapsed < 10*time.Second:
		icon, style = "●", active.Bold(true)
	case elapsed < time.Minute:
		icon, style = "●", dim
	case elapsed < 10*time.Minute:
		icon, style = "○", warn
	default:
		icon, style = "○", crit
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("#707070")).Render("SYS:") + " " + style.Render(icon)
}

func fmtLarge(n int64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

func fmtUptime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
