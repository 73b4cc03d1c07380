package tui

import (
	"sync"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

type Pane int

const (
	PaneThreats Pane = iota
	PaneDetections
	PaneChat
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PaneThreats:
		return "ARTICLES"
	case PaneDetections:
		return "DETECTIONS"
	case PaneChat:
		return "CHAT"
	}
	return "?"
}

// Model holds the shared TUI state: the current batch, the active pane and
// the detection-type filter. Batches arrive whole and replace the previous
// one; the model never mutates a Dataset.
type Model struct {
	Width  int
	Height int

	ActivePane Pane

	mu      sync.RWMutex
	dataset *domain.Dataset
	filter  domain.DetectionType
	batches int
}

func NewModel() *Model {
	return &Model{
		Width:  120,
		Height: 40,
	}
}

func (m *Model) SetDataset(ds *domain.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataset = ds
	m.batches++
}

func (m *Model) Dataset() *domain.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset
}

func (m *Model) Batches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batches
}

func (m *Model) Threats() []domain.Threat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dataset == nil {
		return nil
	}
	return m.dataset.Threats
}

// Detections returns the current batch's detections, narrowed to the active
// filter when one is set.
func (m *Model) Detections() []domain.Detection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dataset == nil {
		return nil
	}
	if m.filter == "" {
		return m.dataset.Detections
	}
	return m.dataset.DetectionsByType(m.filter)
}

// DetectionCounts returns the number of detections per threat id, for the
// article table's activity column.
func (m *Model) DetectionCounts() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int]int)
	if m.dataset == nil {
		return counts
	}
	for _, det := range m.dataset.Detections {
		if det.HasThreat() {
			counts[det.ThreatID]++
		}
	}
	return counts
}

func (m *Model) Filter() domain.DetectionType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetFilter sets the detection-type filter; the zero value shows all types.
func (m *Model) SetFilter(t domain.DetectionType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = t
}

func (m *Model) NextPane() {
	m.ActivePane = (m.ActivePane + 1) % paneCount
}

func (m *Model) SetDimensions(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Width = width
	m.Height = height
}
