// ABOUTME: Running sync calibration between an output and an input device
// ABOUTME: Confidence weighted average that trusts early measurements less
package calibration

import "math"

const (
	// Measurements below this confidence are discarded.
	MinMeasurementConfidence = 0.3

	// Stored offsets below this confidence are not applied.
	MinApplyConfidence = 0.5

	measurementDecay = 0.7
)

// Entry accumulates offset measurements for one device pair.
type Entry struct {
	OutputID     string  `yaml:"output_id"`
	InputID      string  `yaml:"input_id"`
	OffsetSecs   float64 `yaml:"offset_secs"`
	Confidence   float64 `yaml:"confidence"`
	Measurements uint32  `yaml:"measurement_count"`
	UpdatedMs    int64   `yaml:"last_updated_ms,omitempty"`
}

// NewEntry returns an empty calibration for the pair.
func NewEntry(outputID, inputID string) Entry {
	return Entry{OutputID: outputID, InputID: inputID}
}

// Update folds a measured offset into the running average. It reports
// whether the measurement was used.
func (e *Entry) Update(offsetSecs, confidence float64) bool {
	if confidence < MinMeasurementConfidence || math.IsNaN(offsetSecs) || math.IsInf(offsetSecs, 0) {
		return false
	}

	if e.Measurements == 0 {
		e.OffsetSecs = offsetSecs
		e.Confidence = confidence
	} else {
		decay := math.Pow(measurementDecay, float64(e.Measurements))
		weight := confidence*(1-decay) + decay
		e.OffsetSecs = (e.OffsetSecs*e.Confidence + offsetSecs*weight) / (e.Confidence + weight)
		e.Confidence = (e.Confidence + confidence) / 2
	}
	e.Measurements++
	return true
}

// Trusted reports whether the entry is confident enough to apply.
func (e Entry) Trusted() bool {
	return e.Measurements > 0 && e.Confidence >= MinApplyConfidence
}
