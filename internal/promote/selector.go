// Package promote selects promotion candidates and runs the review workflow
// that reconciles them into the target document.
package promote

import "github.com/memoir-dev/memoir/internal/model"

// Default promotion gates.
const (
	DefaultMinConfidence    = 0.8
	DefaultMinPositiveRatio = 0.7
)

// Select returns the promotion-eligible records in store iteration order:
// active status, confidence at or above the gate, and positive ratio at or
// above the ratio gate. Unreinforced records carry the neutral ratio 0.5, so
// under the default 0.7 gate a record never passes on its seed confidence
// alone; promotion requires observed positive signal.
func Select(records []*model.Memory, minConfidence, minPositiveRatio float64) []*model.Memory {
	var out []*model.Memory
	for _, m := range records {
		if m.Metadata.Status != model.StatusActive {
			continue
		}
		if m.Metadata.Confidence < minConfidence {
			continue
		}
		if m.PositiveRatio() < minPositiveRatio {
			continue
		}
		out = append(out, m)
	}
	return out
}
