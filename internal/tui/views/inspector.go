package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/pkg/sanitize"
)

var (
	inspColorPrimary = lipgloss.Color("#00ff41")
	inspColorAmber   = lipgloss.Color("#ffb000")
	inspColorRed     = lipgloss.Color("#ff3333")
	inspColorText    = lipgloss.Color("#e5e5e5")
	inspColorDim     = lipgloss.Color("#404040")
	inspColorBorder  = lipgloss.Color("#00ff41")
	inspColorBg      = lipgloss.Color("#0a1f0a")
)

// DetailInspector is the modal overlay showing one detection in full,
// including its ordered detail fields and the matched article.
type DetailInspector struct {
	Detection *domain.Detection
	Threat    *domain.Threat
	Width     int
	Height    int
	ScrollY   int
	Visible   bool
}

func NewDetailInspector() *DetailInspector {
	return &DetailInspector{
		Width:  80,
		Height: 24,
	}
}

// SetDetection opens the inspector for det. threat may be nil when the
// detection groups under an unresolved article label.
func (p *DetailInspector) SetDetection(det *domain.Detection, threat *domain.Threat) {
	p.Detection = det
	p.Threat = threat
	p.ScrollY = 0
	p.Visible = det != nil
}

func (p *DetailInspector) SetDimensions(width, height int) {
	p.Width = width
	p.Height = height
}

func (p *DetailInspector) ScrollUp() {
	if p.ScrollY > 0 {
		p.ScrollY--
	}
}

func (p *DetailInspector) ScrollDown() {
	p.ScrollY++
}

func (p *DetailInspector) Close() {
	p.Detection = nil
	p.Threat = nil
	p.Visible = false
}

func (p *DetailInspector) Render() string {
	if p.Detection == nil {
		return ""
	}

	det := p.Detection
	contentWidth := p.Width - 4

	header := lipgloss.NewStyle().
		Foreground(inspColorPrimary).
		Bold(true)
	label := lipgloss.NewStyle().
		Foreground(inspColorAmber).
		Width(12)
	value := lipgloss.NewStyle().
		Foreground(inspColorText)
	dimText := lipgloss.NewStyle().
		Foreground(inspColorDim)
	codeBlock := lipgloss.NewStyle().
		Foreground(inspColorPrimary).
		Background(inspColorBg)
	critical := lipgloss.NewStyle().
		Foreground(inspColorRed).
		Bold(true)

	var lines []string

	title := "╔═══ DETECTION INSPECTOR ═══╗"
	lines = append(lines, header.Render(title))
	lines = append(lines, dimText.Render(strings.Repeat("─", contentWidth)))

	lines = append(lines, header.Render("▶ DETECTION"))
	lines = append(lines, fmt.Sprintf("%s %s",
		label.Render("Type:"),
		typeStyle(det.Type).Bold(true).Render(string(det.Type))))

	articleStyle := value
	article := det.Title
	if !det.HasThreat() {
		articleStyle = critical
		article = "(미등록) " + article
	}
	lines = append(lines, fmt.Sprintf("%s %s",
		label.Render("Article:"),
		articleStyle.Render(sanitize.String(article, contentWidth-13))))
	if det.Label != "" {
		lines = append(lines, fmt.Sprintf("%s %s",
			label.Render("Label:"),
			value.Render(sanitize.String(det.Label, contentWidth-13))))
	}

	countStyle := value
	if det.Count >= 50 {
		countStyle = critical
	} else if det.Count >= 10 {
		countStyle = lipgloss.NewStyle().Foreground(inspColorAmber).Bold(true)
	}
	lines = append(lines, fmt.Sprintf("%s %s",
		label.Render("Count:"),
		countStyle.Render(fmt.Sprintf("%d", det.Count))))
	if det.Action != "" {
		lines = append(lines, fmt.Sprintf("%s %s",
			label.Render("Action:"),
			value.Render(sanitize.String(det.Action, contentWidth-13))))
	}
	lines = append(lines, fmt.Sprintf("%s %s",
		label.Render("Source:"),
		value.Render(sanitize.String(det.Source, contentWidth-13))))

	if keys := det.Detail.Keys(); len(keys) > 0 {
		lines = append(lines, "")
		lines = append(lines, dimText.Render(strings.Repeat("─", contentWidth)))
		lines = append(lines, header.Render("▶ DETAILS"))

		keyWidth := 0
		for _, k := range keys {
			if w := lipgloss.Width(k); w > keyWidth {
				keyWidth = w
			}
		}
		for _, k := range keys {
			v, _ := det.Detail.Get(k)
			lines = append(lines, fmt.Sprintf("%s  %s",
				lipgloss.NewStyle().Foreground(inspColorAmber).Render(padDisplay(k, keyWidth)),
				codeBlock.Render(sanitize.String(v, contentWidth-keyWidth-2))))
		}
	}

	if p.Threat != nil {
		t := p.Threat
		lines = append(lines, "")
		lines = append(lines, dimText.Render(strings.Repeat("─", contentWidth)))
		lines = append(lines, header.Render("▶ ARTICLE"))
		lines = append(lines, fmt.Sprintf("%s %s",
			label.Render("Date:"),
			value.Render(sanitize.String(t.Date, 20))))
		lines = append(lines, fmt.Sprintf("%s %s",
			label.Render("Source:"),
			value.Render(sanitize.String(t.Source, contentWidth-13))))
		if len(t.Tags) > 0 {
			lines = append(lines, fmt.Sprintf("%s %s",
				label.Render("Tags:"),
				value.Render(sanitize.String(strings.Join(t.Tags, ", "), contentWidth-13))))
		}
		if t.Body != "" {
			lines = append(lines, "")
			for _, para := range strings.Split(t.Body, "\n") {
				for _, line := range wrapCells(para, contentWidth) {
					lines = append(lines, codeBlock.Render(sanitize.SanitizeForTerminal(line)))
				}
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, dimText.Render(strings.Repeat("─", contentWidth)))
	lines = append(lines, dimText.Render("[ESC] Close   [↑/↓] Scroll"))
	if p.ScrollY > 0 && p.ScrollY < len(lines) {
		lines = lines[p.ScrollY:]
	}
	if len(lines) > p.Height-2 {
		lines = lines[:p.Height-2]
	}

	content := strings.Join(lines, "\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(inspColorBorder).
		Padding(0, 1).
		Width(p.Width).
		Height(p.Height)

	return boxStyle.Render(content)
}

// wrapCells breaks s into lines of at most width display cells. Wide
// runes count as two cells, so a byte or rune split would overflow the
// box on Korean text.
func wrapCells(s string, width int) []string {
	if width < 4 {
		width = 4
	}
	var out []string
	var b strings.Builder
	cells := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if cells+w > width {
			out = append(out, b.String())
			b.Reset()
			cells = 0
		}
		b.WriteRune(r)
		cells += w
	}
	if b.Len() > 0 || len(out) == 0 {
		out = append(out, b.String())
	}
	return out
}
