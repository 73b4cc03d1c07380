package app

import (
	"fmt"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

// Reduce turns per-kind candidates into the final detection list. Candidates
// arrive in mail, NDR, WAF order; a WAF candidate whose article group already
// produced an NDR detection folds into that record at its position, becoming
// a combined NDR+WAF detection. The fold never runs the other way, and mail
// detections are never merged with anything. IDs are assigned sequentially
// once the list is final.
func Reduce(candidates []domain.Detection) []domain.Detection {
	out := make([]domain.Detection, 0, len(candidates))
	ndrAt := make(map[string]int)

	for _, c := range candidates {
		if c.Type == domain.DetectionWAF {
			if pos, ok := ndrAt[c.GroupKey()]; ok {
				out[pos] = foldWaf(out[pos], c)
				continue
			}
		}
		if c.Type == domain.DetectionNDR {
			ndrAt[c.GroupKey()] = len(out)
		}
		out = append(out, c)
	}

	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// foldWaf merges a WAF candidate into the NDR detection of the same article
// group. The merged detail keeps every NDR entry, gains the WAF entries after
// them, and the action-volume entry is recomputed in place to report both
// sides of the split.
func foldWaf(ndr, waf domain.Detection) domain.Detection {
	merged := ndr
	merged.Type = domain.DetectionNDRWAF
	merged.Count = ndr.Count + waf.Count
	merged.Action = "탐지/차단"
	merged.Source = "NDR/WAF"
	merged.Label = detectionLabel(domain.DetectionNDRWAF, merged.Title, merged.Count)

	detail := ndr.Detail.Clone()
	for _, key := range waf.Detail.Keys() {
		if key == detailKeyActionVolume {
			continue
		}
		value, _ := waf.Detail.Get(key)
		detail.Set(key, value)
	}
	detail.Set(detailKeyActionVolume, fmt.Sprintf("NDR 탐지 %d건 / WAF 차단 %d건", ndr.Count, waf.Count))
	merged.Detail = detail

	return merged
}
