// ABOUTME: CSV latency trace parsing and replay through a corrector
// ABOUTME: Drives a manual clock so replays are deterministic
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

// traceRow is one recorded callback. HasRaw is false when the backend
// delivered no timestamps for it.
type traceRow struct {
	At     float64
	Raw    float64
	HasRaw bool
}

var errTraceOrder = errors.New("trace timestamps must not go backwards")

// readTrace parses "seconds_since_start,raw_latency_secs" rows. A header
// row and blank lines are skipped.
func readTrace(r io.Reader) ([]traceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var rows []traceRow
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		line++

		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		at, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("trace row %d: time: %w", line, err)
		}

		row := traceRow{At: at}
		if len(rec) > 1 && strings.TrimSpace(rec[1]) != "" {
			raw, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("trace row %d: latency: %w", line, err)
			}
			row.Raw, row.HasRaw = raw, true
		}

		if n := len(rows); n > 0 && at < rows[n-1].At {
			return nil, fmt.Errorf("trace row %d: %w", line, errTraceOrder)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// replay feeds rows into c while moving clock, writing one line per row.
func replay(rows []traceRow, c *latency.Corrector, clock *latency.ManualClock, start time.Time, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%10s %10s %12s %s\n", "time_s", "raw_ms", "corrected_ms", "phase"); err != nil {
		return err
	}

	for _, row := range rows {
		clock.Set(start.Add(time.Duration(math.Round(row.At * float64(time.Second)))))

		var secs float64
		raw := "-"
		if row.HasRaw {
			d := time.Duration(math.Round(row.Raw * float64(time.Second)))
			secs = c.UpdateFromLatency(d, row.Raw >= 0)
			raw = fmt.Sprintf("%.3f", row.Raw*1000)
		} else {
			secs = c.UpdateFromLatency(0, false)
		}

		if _, err := fmt.Fprintf(w, "%10.3f %10s %12.3f %s\n", row.At, raw, secs*1000, c.Phase()); err != nil {
			return err
		}
	}
	return nil
}
