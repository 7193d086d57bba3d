// ABOUTME: Latency monitor application orchestration
// ABOUTME: Plays a source, feeds device timings into a corrector and publishes status
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/resonate-latency/internal/calibration"
	"github.com/Resonate-Protocol/resonate-latency/internal/config"
	"github.com/Resonate-Protocol/resonate-latency/internal/ui"
	"github.com/Resonate-Protocol/resonate-latency/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-latency/pkg/audio/source"
	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

const (
	statusInterval     = 250 * time.Millisecond
	defaultChunkFrames = 512
)

// Options holds the runtime wiring that is not part of the config file
type Options struct {
	File      string
	SessionID string

	// Status receives TUI updates. Nil disables the status loop.
	Status  func(ui.StatusMsg)
	Control *ui.Control

	// Reporter receives every corrector decision in addition to the monitor
	Reporter latency.Reporter

	Logger *logrus.Entry
}

// Monitor plays audio and tracks the output latency of the device
type Monitor struct {
	cfg  *config.Config
	opts Options
	log  *logrus.Entry

	newOutput  func(backend string) (output.Output, error)
	openSource func(path string, toneRate int) (source.Source, error)

	src       source.Source
	out       output.Output
	corrector *latency.Corrector
	hint      *latency.Hint
	input     latency.InputInfo
	bias      *float64

	generated atomic.Int64 // frames handed to the output

	mu      sync.Mutex
	last    latency.Decision
	hasLast bool
}

// New creates a monitor for cfg
func New(cfg *config.Config, opts Options) *Monitor {
	log := opts.Logger
	if log == nil {
		log = logrus.WithField("component", "monitor")
	}
	return &Monitor{
		cfg:        cfg,
		opts:       opts,
		log:        log,
		newOutput:  output.New,
		openSource: source.Open,
	}
}

// Run opens the source and output and blocks until ctx is done or playback fails
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := m.playLoop(ctx); err != nil {
			errc <- err
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		m.correctLoop(ctx)
	}()

	if m.opts.Status != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.statusLoop(ctx)
		}()
	}

	<-ctx.Done()

	// Closing the output unblocks a pending Write
	closeErr := m.out.Close()
	wg.Wait()
	if err := m.src.Close(); err != nil {
		closeErr = errors.Join(closeErr, err)
	}
	if closeErr != nil {
		m.log.WithError(closeErr).Warn("Error closing audio")
	}

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

func (m *Monitor) open() error {
	cfg := m.cfg
	log := m.log.WithField("function", "open")

	src, err := m.openSource(m.opts.File, cfg.Output.SampleRate)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	src = source.NewResampled(src, cfg.Output.SampleRate)
	format := src.Format()

	out, err := m.newOutput(cfg.Output.Backend)
	if err != nil {
		_ = src.Close()
		return err
	}
	if err := out.Open(format.SampleRate, format.Channels, cfg.Output.BitDepth); err != nil {
		_ = src.Close()
		return fmt.Errorf("open output: %w", err)
	}
	m.src, m.out = src, out

	probe, err := cfg.Probe()
	if err != nil {
		_ = out.Close()
		_ = src.Close()
		return err
	}
	resolver := latency.NewResolver(probe, cfg.Tuning)
	rate := uint32(format.SampleRate)
	frames := uint32(m.chunkFrames())

	m.hint = resolver.OutputHint(rate, frames)
	m.input = resolver.InputLatency(rate, frames)

	m.corrector = latency.NewCorrector(m.hint, cfg.Correction,
		latency.WithTuning(cfg.Tuning),
		latency.WithLogger(m.log),
		latency.WithReporter(m),
	)
	m.applyCalibration()
	if hs, ok := m.opts.Reporter.(interface{ SetHint(*latency.Hint) }); ok {
		hs.SetHint(m.hint)
	}

	fields := logrus.Fields{
		"source":          src.Title(),
		"format":          format.String(),
		"backend":         cfg.Output.Backend,
		"input_latency":   fmt.Sprintf("%.1fms", m.input.TotalSecs*1000),
		"input_transport": m.input.Transport.String(),
		"initial_ms":      fmt.Sprintf("%.1f", m.corrector.InitialCompensationSecs()*1000),
	}
	if m.hint != nil {
		fields["hint_ms"] = fmt.Sprintf("%.1f", m.hint.Seconds*1000)
		fields["transport"] = m.hint.Transport.String()
	}
	log.WithFields(fields).Info("Audio output opened")

	m.publish(ui.StatusMsg{
		SessionID:       m.opts.SessionID,
		Backend:         cfg.Output.Backend,
		Title:           src.Title(),
		SampleRate:      format.SampleRate,
		Channels:        format.Channels,
		BitDepth:        cfg.Output.BitDepth,
		DeviceName:      cfg.Device.Name,
		Hint:            m.hint,
		InitialSecs:     m.corrector.InitialCompensationSecs(),
		CalibrationSecs: m.bias,
	})
	return nil
}

// applyCalibration seeds the estimator bias from a trusted stored offset
func (m *Monitor) applyCalibration() {
	path := m.cfg.Calibration.File
	if path == "" {
		return
	}

	store := calibration.Load(path)
	outputID := calibration.DeviceID(m.cfg.Device.Name)
	inputID := calibration.DeviceID(m.cfg.Device.InputName)
	off := calibration.ApplyOffset(m.corrector.Estimator().BiasSecs(), outputID, inputID, store)
	if off <= 0 {
		return
	}

	m.corrector.Estimator().SetBiasSecs(off)
	bias := m.corrector.Estimator().BiasSecs()
	m.bias = &bias
	m.log.WithFields(logrus.Fields{
		"function": "applyCalibration",
		"output":   outputID,
		"input":    inputID,
		"bias_ms":  fmt.Sprintf("%.1f", bias*1000),
	}).Info("Applied stored sync calibration")
}

func (m *Monitor) chunkFrames() int {
	if m.cfg.Output.BufferFrames > 0 {
		return m.cfg.Output.BufferFrames
	}
	return defaultChunkFrames
}

func (m *Monitor) playLoop(ctx context.Context) error {
	channels := m.src.Format().Channels
	buf := make([]int32, m.chunkFrames()*channels)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := m.src.Read(buf)
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		if n == 0 {
			continue
		}

		if err := m.out.Write(buf[:n]); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("write output: %w", err)
		}
		m.generated.Add(int64(n / channels))
	}
}

// correctLoop owns the corrector; nothing else touches it while Run is active
func (m *Monitor) correctLoop(ctx context.Context) {
	var reset <-chan struct{}
	if m.opts.Control != nil {
		reset = m.opts.Control.Reset
	}

	timings := m.out.Timings()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-timings:
			m.corrector.UpdateFromCallback(t)
		case <-reset:
			m.corrector.Estimator().Reset()
			m.log.WithField("function", "correctLoop").Info("Latency estimator reset")
		}
	}
}

func (m *Monitor) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.publish(m.Status())
		}
	}
}

// Report implements latency.Reporter
func (m *Monitor) Report(d latency.Decision) {
	m.mu.Lock()
	m.last = d
	m.hasLast = true
	m.mu.Unlock()

	if m.opts.Reporter != nil {
		m.opts.Reporter.Report(d)
	}
}

// LastDecision returns the most recent corrector decision
func (m *Monitor) LastDecision() (latency.Decision, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasLast
}

// Hint returns the device hint resolved when the output was opened
func (m *Monitor) Hint() *latency.Hint {
	return m.hint
}

// Status builds a TUI update from the current playback state
func (m *Monitor) Status() ui.StatusMsg {
	format := m.src.Format()
	buffered := m.out.Buffered()

	var msg ui.StatusMsg
	var deviceSecs float64
	if d, ok := m.LastDecision(); ok {
		msg.Decision = &d
		deviceSecs = d.Seconds
	}

	generatedSecs := float64(m.generated.Load()) / float64(format.SampleRate)
	msg.PlayheadSecs = latency.AudiblePlayhead(generatedSecs, buffered, uint32(format.SampleRate), deviceSecs)
	msg.Buffered = int(format.FrameDuration(buffered) / time.Millisecond)
	return msg
}

func (m *Monitor) publish(msg ui.StatusMsg) {
	if m.opts.Status != nil {
		m.opts.Status(msg)
	}
}
