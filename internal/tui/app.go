package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/tui/views"
)

const uiTickInterval = time.Second

type App struct {
	model      *Model
	typebar    *views.TypeBar
	threats    *views.ThreatList
	detections *views.DetectionList
	chat       *views.Chat
	status     *views.Status
	inspector  *views.DetailInspector

	ready    bool
	quitting bool
	width    int
	height   int

	datasetChan chan *domain.Dataset
}

func NewApp() *App {
	return &App{
		model:       NewModel(),
		typebar:     views.NewTypeBar(80),
		threats:     views.NewThreatList(15),
		detections:  views.NewDetectionList(15),
		chat:        views.NewChat(15),
		status:      views.NewStatus(100),
		inspector:   views.NewDetailInspector(),
		datasetChan: make(chan *domain.Dataset, 8),
	}
}

type tickMsg time.Time
type datasetMsg *domain.Dataset

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, a.tick(), a.listenForDatasets())
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(uiTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) listenForDatasets() tea.Cmd {
	return func() tea.Msg { return datasetMsg(<-a.datasetChan) }
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.inspector.Visible {
			switch msg.String() {
			case "esc", "q":
				a.inspector.Close()
				return a, nil
			case "up", "k":
				a.inspector.ScrollUp()
			case "down", "j":
				a.inspector.ScrollDown()
			}
			return a, nil
		}

		// The chat pane owns the keyboard while focused; only ctrl+c,
		// tab and esc escape it, everything else is input.
		if a.model.ActivePane == PaneChat {
			switch msg.String() {
			case "ctrl+c":
				a.quitting = true
				return a, tea.Quit
			case "tab":
				a.model.NextPane()
				return a, nil
			case "esc":
				a.model.ActivePane = PaneThreats
				return a, nil
			case "enter":
				a.chat.Submit(a.model.Dataset())
				return a, nil
			case "backspace":
				a.chat.Backspace()
				return a, nil
			}
			switch msg.Type {
			case tea.KeyRunes:
				a.chat.Type(msg.Runes)
			case tea.KeySpace:
				a.chat.Type([]rune{' '})
			}
			return a, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "tab":
			a.model.NextPane()
		case "up", "k":
			if a.model.ActivePane == PaneDetections {
				a.detections.MoveUp()
			} else {
				a.threats.MoveUp()
			}
		case "down", "j":
			if a.model.ActivePane == PaneDetections {
				a.detections.MoveDown()
			} else {
				a.threats.MoveDown()
			}
		case "enter":
			if a.model.ActivePane == PaneDetections {
				if sel := a.detections.GetSelected(); sel != nil {
					var t *domain.Threat
					if ds := a.model.Dataset(); ds != nil && sel.HasThreat() {
						if th, ok := ds.ThreatByID(sel.ThreatID); ok {
							t = &th
						}
					}
					a.inspector.SetDetection(sel, t)
				}
			}
		case "1":
			a.setFilter("")
		case "2":
			a.setFilter(domain.DetectionMail)
		case "3":
			a.setFilter(domain.DetectionNDR)
		case "4":
			a.setFilter(domain.DetectionWAF)
		case "5":
			a.setFilter(domain.DetectionNDRWAF)
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.ready = true
		a.model.SetDimensions(msg.Width, msg.Height)
		a.threats.Width = msg.Width - 4
		a.detections.Width = msg.Width - 4
		a.chat.Width = msg.Width - 4
		a.status.Width = msg.Width
		a.typebar.SetWidth(msg.Width - 4)

		contentHeight := msg.Height - 12
		if contentHeight < 5 {
			contentHeight = 5
		}
		a.threats.VisibleCount = contentHeight
		a.detections.VisibleCount = contentHeight
		a.chat.VisibleCount = contentHeight

		a.inspector.SetDimensions(msg.Width-4, msg.Height-2)
	case tickMsg:
		return a, a.tick()
	case datasetMsg:
		a.model.SetDataset(msg)
		a.refreshViews()
		return a, a.listenForDatasets()
	}
	return a, nil
}

func (a *App) setFilter(t domain.DetectionType) {
	a.model.SetFilter(t)
	a.detections.Update(a.model.Detections(), t)
}

func (a *App) refreshViews() {
	ds := a.model.Dataset()
	if ds == nil {
		return
	}
	a.typebar.Update(ds.CountByType())
	a.threats.Update(a.model.Threats(), a.model.DetectionCounts())
	a.detections.Update(a.model.Detections(), a.model.Filter())
	a.status.Update(ds, a.model.Batches())
}

func (a *App) View() string {
	if a.quitting {
		return "\n  Session terminated.\n\n"
	}
	if !a.ready {
		return "\n  Initializing...\n\n"
	}

	if a.inspector.Visible {
		return a.inspector.Render()
	}

	dim := lipgloss.NewStyle().Foreground(ColorDim)
	muted := lipgloss.NewStyle().Foreground(ColorMuted)

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(dim.Render(strings.Repeat(HLine, a.width)))
	b.WriteString("\n")

	b.WriteString(a.typebar.Render())
	b.WriteString("\n\n")

	pane := a.model.ActivePane
	var content string
	switch pane {
	case PaneDetections:
		content = a.detections.Render()
	case PaneChat:
		content = a.chat.Render()
	default:
		content = a.threats.Render()
	}
	paneTitle := pane.String()
	if pane == PaneDetections && a.model.Filter() != "" {
		paneTitle += " · " + string(a.model.Filter())
	}
	b.WriteString(muted.Render("  " + paneTitle))
	b.WriteString("\n")
	b.WriteString(content)

	b.WriteString("\n\n")
	b.WriteString(a.status.Render())
	b.WriteString("\n")
	b.WriteString(a.renderHelp())

	return b.String()
}

func (a *App) renderHeader() string {
	green := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	amber := lipgloss.NewStyle().Foreground(ColorAmber)
	dim := lipgloss.NewStyle().Foreground(ColorDim)

	title := green.Render("THREATTREND")

	status := dim.Render("WAITING")
	source := "-"
	if ds := a.model.Dataset(); ds != nil {
		source = filepath.Base(ds.Source)
		status = green.Render("LOADED")
		if ds.Stats.TotalUnmatched() > 0 {
			status = amber.Render(fmt.Sprintf("UNMATCHED %d", ds.Stats.TotalUnmatched()))
		}
	}

	return fmt.Sprintf("  %s  %s  %s %s",
		title, status,
		dim.Render("SRC:"), source)
}

func (a *App) renderHelp() string {
	dim := lipgloss.NewStyle().Foreground(ColorDim)
	key := lipgloss.NewStyle().Foreground(ColorPrimaryDim)
	pane := a.model.ActivePane
	switch pane {
	case PaneChat:
		return dim.Render(fmt.Sprintf("  %s [%s]  %s send  %s leave  %s quit",
			key.Render("TAB"), pane, key.Render("ENTER"), key.Render("ESC"), key.Render("CTRL+C")))
	case PaneDetections:
		return dim.Render(fmt.Sprintf("  %s [%s]  %s scroll  %s inspect  %s filter  %s quit",
			key.Render("TAB"), pane, key.Render("↑↓"), key.Render("ENTER"), key.Render("1-5"), key.Render("q")))
	default:
		return dim.Render(fmt.Sprintf("  %s [%s]  %s scroll  %s quit",
			key.Render("TAB"), pane, key.Render("↑↓"), key.Render("q")))
	}
}

// OnDataset delivers a freshly analyzed batch to the UI loop. The send
// never blocks the pipeline; a dropped batch is superseded by the next
// save anyway.
func (a *App) OnDataset(ds *domain.Dataset) {
	select {
	case a.datasetChan <- ds:
	default:
	}
}

func (a *App) GetModel() *Model { return a.model }

func (a *App) Run() error { p := tea.NewProgram(a, tea.WithAltScreen()); _, err := p.Run(); return err }
