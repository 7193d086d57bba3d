// ABOUTME: Replays a recorded latency trace through the corrector
// ABOUTME: Prints the corrected value and phase for every callback in the trace
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/resonate-latency/internal/config"
	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

var (
	tracePath  = flag.String("trace", "", "CSV trace: seconds_since_start,raw_latency_secs")
	hintSecs   = flag.Float64("hint", 0, "Device latency hint in seconds (0 for none)")
	transport  = flag.String("transport", "unknown", "Hint transport: wired, wireless, airplay, continuity-wireless")
	configPath = flag.String("config", "", "YAML configuration file for correction and tuning")
	verbose    = flag.Bool("v", false, "Log corrector changes to stderr")
)

func main() {
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: latency-replay -trace file.csv [-hint secs] [-transport kind] [-config file]")
		os.Exit(2)
	}

	logrus.SetOutput(os.Stderr)
	if !*verbose {
		logrus.SetLevel(logrus.WarnLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	f, err := os.Open(*tracePath)
	if err != nil {
		logrus.Fatalf("Failed to open trace: %v", err)
	}
	defer f.Close()

	rows, err := readTrace(f)
	if err != nil {
		logrus.Fatalf("Failed to read trace: %v", err)
	}

	var hint *latency.Hint
	if *hintSecs > 0 {
		hint = latency.NewHint(*hintSecs, latency.ParseTransportKind(*transport))
	}

	start := time.Unix(0, 0)
	clock := latency.NewManualClock(start)
	corrector := latency.NewCorrector(hint, cfg.Correction,
		latency.WithClock(clock),
		latency.WithTuning(cfg.Tuning),
		latency.WithLogger(logrus.WithField("trace", *tracePath)),
	)

	if err := replay(rows, corrector, clock, start, os.Stdout); err != nil {
		logrus.Fatalf("Replay failed: %v", err)
	}
}
