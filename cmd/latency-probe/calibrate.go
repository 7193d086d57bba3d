// ABOUTME: Calibration store maintenance for the probe CLI
// ABOUTME: Records measured sync offsets, lists and forgets stored device pairs
package main

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-latency/internal/calibration"
)

// recordOffset folds one measurement into the store at path and saves it.
func recordOffset(path, outputID, inputID string, offsetSecs, confidence float64, w io.Writer) error {
	store := calibration.Load(path)
	entry, accepted := store.Record(outputID, inputID, offsetSecs, confidence)
	if !accepted {
		return fmt.Errorf("measurement rejected: confidence %.2f below %.2f or offset not finite",
			confidence, calibration.MinMeasurementConfidence)
	}
	if err := store.Save(path); err != nil {
		return err
	}

	_, trusted := store.Offset(outputID, inputID)
	_, err := fmt.Fprintf(w, "Recorded %s: offset %.1fms, confidence %.2f, %d measurements (applied: %v)\n",
		calibration.Key(outputID, inputID), entry.OffsetSecs*1000, entry.Confidence, entry.Measurements, trusted)
	return err
}

// forgetOffset removes the pair from the store at path.
func forgetOffset(path, outputID, inputID string, w io.Writer) error {
	store := calibration.Load(path)
	if _, ok := store.Get(outputID, inputID); !ok {
		_, err := fmt.Fprintf(w, "No calibration for %s\n", calibration.Key(outputID, inputID))
		return err
	}
	store.Remove(outputID, inputID)
	if err := store.Save(path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Removed %s\n", calibration.Key(outputID, inputID))
	return err
}

// listOffsets prints every stored pair.
func listOffsets(path string, w io.Writer) error {
	entries := calibration.Load(path).Entries()
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No stored calibrations")
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%-40s %8.1fms  conf %.2f  n=%d  trusted=%v\n",
			calibration.Key(e.OutputID, e.InputID), e.OffsetSecs*1000, e.Confidence, e.Measurements, e.Trusted()); err != nil {
			return err
		}
	}
	return nil
}
