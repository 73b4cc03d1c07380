package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dataset is one complete ingestion batch: the ordered article list, the
// ordered detection list, and the ingest statistics. A new upload replaces
// the entire Dataset atomically; nothing is ever patched in place.
type Dataset struct {
	BatchID    uuid.UUID   `json:"batch_id"`
	Source     string      `json:"source"`
	LoadedAt   time.Time   `json:"loaded_at"`
	Threats    []Threat    `json:"threats"`
	Detections []Detection `json:"detections"`
	Stats      IngestStats `json:"stats"`
}

func NewDataset(source string) *Dataset {
	return &Dataset{
		BatchID:  uuid.New(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
	}
}

func (d *Dataset) Empty() bool {
	return d == nil || (len(d.Threats) == 0 && len(d.Detections) == 0)
}

func (d *Dataset) ThreatByID(id int) (Threat, bool) {
	if d == nil {
		return Threat{}, false
	}
	for _, t := range d.Threats {
		if t.ID == id {
			return t, true
		}
	}
	return Threat{}, false
}

// SearchThreats returns threats whose title contains the keyword,
// case-insensitively, in stored order.
func (d *Dataset) SearchThreats(keyword string) []Threat {
	if d == nil || strings.TrimSpace(keyword) == "" {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(keyword))
	var out []Threat
	for _, t := range d.Threats {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t)
		}
	}
	return out
}

func (d *Dataset) DetectionsByType(t DetectionType) []Detection {
	if d == nil {
		return nil
	}
	var out []Detection
	for _, det := range d.Detections {
		if det.Type == t {
			out = append(out, det)
		}
	}
	return out
}

func (d *Dataset) CountByType() map[DetectionType]int {
	counts := make(map[DetectionType]int)
	if d == nil {
		return counts
	}
	for _, det := range d.Detections {
		counts[det.Type]++
	}
	return counts
}

// DetectionsForThreat returns detections referencing the threat id, in stored
// order.
func (d *Dataset) DetectionsForThreat(id int) []Detection {
	if d == nil || id <= 0 {
		return nil
	}
	var out []Detection
	for _, det := range d.Detections {
		if det.ThreatID == id {
			out = append(out, det)
		}
	}
	return out
}

type KindStats struct {
	Rows      int `json:"rows"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// IngestStats surfaces what ingestion and matching saw. Unmatched rows are
// silent in the detection output; these counters are the only place they show.
type IngestStats struct {
	Variant string    `json:"variant"`
	Sheets  int       `json:"sheets"`
	Threats int       `json:"threats"`
	Mail    KindStats `json:"mail"`
	NDR     KindStats `json:"ndr"`
	WAF     KindStats `json:"waf"`
}

func (s *IngestStats) ForKind(k LogKind) *KindStats {
	switch k {
	case KindMail:
		return &s.Mail
	case KindNDR:
		return &s.NDR
	case KindWAF:
		return &s.WAF
	}
	return nil
}

func (s IngestStats) TotalRows() int {
	return s.Mail.Rows + s.NDR.Rows + s.WAF.Rows
}

func (s IngestStats) TotalMatched() int {
	return s.Mail.Matched + s.NDR.Matched + s.WAF.Matched
}

func (s IngestStats) TotalUnmatched() int {
	return s.Mail.Unmatched + s.NDR.Unmatched + s.WAF.Unmatched
}
