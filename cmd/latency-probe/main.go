// ABOUTME: Prints the latency hint and input estimate for a described device
// ABOUTME: Useful for checking transport classification without playing audio
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/resonate-latency/internal/calibration"
	"github.com/Resonate-Protocol/resonate-latency/internal/config"
	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

var (
	platform      = flag.String("platform", "generic", "Platform rules: generic, macos or windows")
	deviceName    = flag.String("device-name", "", "Output device name")
	transportCode = flag.String("transport-code", "", "Core Audio transport type, e.g. blue, airp, bltn")
	bus           = flag.String("bus", "", "Windows bus enumerator, e.g. USB, BTHENUM")
	latencyFrames = flag.Uint("latency-frames", 0, "Device latency in frames")
	safetyFrames  = flag.Uint("safety-frames", 0, "Device safety offset in frames")
	deviceBuffer  = flag.Uint("device-buffer-frames", 0, "Device buffer size in frames")
	streamFrames  = flag.Uint("stream-frames", 0, "Stream latency in frames")
	nominalRate   = flag.Float64("nominal-rate", 0, "Device nominal sample rate")
	sampleRate    = flag.Uint("sample-rate", 48000, "Stream sample rate")
	bufferFrames  = flag.Uint("buffer-frames", 512, "Requested buffer size in frames")
	inputName     = flag.String("input", "", "Input device name (defaults to -device-name)")

	calibFile  = flag.String("calibration-file", calibration.DefaultFilename, "Sync calibration store")
	recordSecs = flag.Float64("record-offset", 0, "Measured sync offset in seconds to store for -device-name/-input")
	confidence = flag.Float64("confidence", 0.8, "Confidence of the -record-offset measurement (0..1)")
	forget     = flag.Bool("forget", false, "Remove the stored calibration for -device-name/-input")
	list       = flag.Bool("list", false, "List stored calibrations")
)

func main() {
	flag.Parse()
	logrus.SetLevel(logrus.WarnLevel)

	if done, err := runCalibration(); done {
		if err != nil {
			fmt.Fprintf(os.Stderr, "calibration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg := config.Default()
	cfg.Device = config.DeviceConfig{
		Platform:            *platform,
		Name:                *deviceName,
		TransportCode:       *transportCode,
		BusEnumerator:       *bus,
		LatencyFrames:       uint32(*latencyFrames),
		SafetyOffsetFrames:  uint32(*safetyFrames),
		BufferFrames:        uint32(*deviceBuffer),
		StreamLatencyFrames: uint32(*streamFrames),
		NominalSampleRate:   *nominalRate,
		InputName:           *inputName,
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid device description: %v\n", err)
		os.Exit(2)
	}

	probe, err := cfg.Probe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	resolver := latency.NewResolver(probe, cfg.Tuning)
	rate, frames := uint32(*sampleRate), uint32(*bufferFrames)

	fmt.Printf("Platform:   %s\n", probe.Platform())
	fmt.Printf("Stream:     %dHz, %d frames\n", rate, frames)

	hint := resolver.OutputHint(rate, frames)
	if hint == nil {
		fmt.Println("Output:     no hint available")
	} else {
		fmt.Printf("Output:     %.1fms (%s, probably wireless: %v)\n",
			hint.Seconds*1000, hint.Transport, hint.IsProbablyWireless())
	}

	corrector := latency.NewCorrector(hint, cfg.Correction, latency.WithTuning(cfg.Tuning))
	fmt.Printf("Initial:    %.1fms compensation\n", corrector.InitialCompensationSecs()*1000)

	in := resolver.InputLatency(rate, frames)
	fmt.Printf("Input:      %.1fms (device %.1fms + buffer %.1fms, %s)\n",
		in.TotalSecs*1000, in.DeviceSecs*1000, in.BufferSecs*1000, in.Transport)
}

// runCalibration handles the store maintenance flags. It reports whether one
// of them was given.
func runCalibration() (bool, error) {
	recording := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "record-offset" {
			recording = true
		}
	})

	outputID := calibration.DeviceID(*deviceName)
	inputID := calibration.DeviceID(*inputName)
	switch {
	case *list:
		return true, listOffsets(*calibFile, os.Stdout)
	case *forget:
		return true, forgetOffset(*calibFile, outputID, inputID, os.Stdout)
	case recording:
		return true, recordOffset(*calibFile, outputID, inputID, *recordSecs, *confidence, os.Stdout)
	}
	return false, nil
}
