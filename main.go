// ABOUTME: Entry point for the Resonate latency monitor
// ABOUTME: Parses CLI flags, plays audio and shows the corrected output latency
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/resonate-latency/internal/app"
	"github.com/Resonate-Protocol/resonate-latency/internal/config"
	"github.com/Resonate-Protocol/resonate-latency/internal/metrics"
	"github.com/Resonate-Protocol/resonate-latency/internal/ui"
	"github.com/Resonate-Protocol/resonate-latency/internal/version"
)

var (
	audioFile    = flag.String("file", "", "MP3 or FLAC file to play (default: test tone)")
	tone         = flag.Bool("tone", false, "Play a 440Hz test tone even if -file is set")
	backend      = flag.String("backend", "", "Output backend: oto or malgo")
	sampleRate   = flag.Int("sample-rate", 0, "Output sample rate in Hz")
	bufferFrames = flag.Int("buffer-frames", 0, "Requested device buffer size in frames")
	deviceName   = flag.String("device-name", "", "Output device name used for transport classification")
	configPath   = flag.String("config", "", "YAML configuration file")
	calibFile    = flag.String("calibration-file", "", "Sync calibration store")
	metricsAddr  = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logFile      = flag.String("log-file", "", "Log file path")
	logLevel     = flag.String("log-level", "", "Log level: debug, info, warn, error")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	useTUI := !*noTUI

	// Set up logging
	if cfg.Log.File == "" {
		cfg.Log.File = config.Default().Log.File
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		logrus.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	}

	sessionID := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{
		"session": sessionID,
		"version": version.Version,
	})
	log.Infof("Starting %s", version.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter := metrics.NewReporter()
	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, cfg.Metrics.Addr, reporter, log)
	}

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control
	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.WithError(err).Error("TUI exited")
			}
			cancel()
		}()
	}

	opts := app.Options{
		File:      *audioFile,
		SessionID: sessionID,
		Control:   ctrl,
		Reporter:  reporter,
		Logger:    log.WithField("component", "monitor"),
	}
	if *tone {
		opts.File = ""
	}
	if tuiProg != nil {
		opts.Status = func(msg ui.StatusMsg) { tuiProg.Send(msg) }
	}
	monitor := app.New(cfg, opts)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		var quit <-chan struct{}
		if ctrl != nil {
			quit = ctrl.Quit
		}
		select {
		case <-sigChan:
			log.Info("Shutdown signal received")
		case <-quit:
			log.Info("Received quit signal from TUI")
		case <-ctx.Done():
		}
		cancel()
	}()

	runErr := monitor.Run(ctx)

	if tuiProg != nil {
		tuiProg.Quit()
		tuiProg.Wait()
	}

	if runErr != nil {
		log.WithError(runErr).Error("Monitor stopped")
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
	log.Info("Monitor stopped")
}

// applyFlags lets explicitly set flags override the config file
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Output.Backend = *backend
		case "sample-rate":
			cfg.Output.SampleRate = *sampleRate
		case "buffer-frames":
			cfg.Output.BufferFrames = *bufferFrames
		case "device-name":
			cfg.Device.Name = *deviceName
		case "calibration-file":
			cfg.Calibration.File = *calibFile
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "log-file":
			cfg.Log.File = *logFile
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
}

func serveMetrics(ctx context.Context, addr string, reporter *metrics.Reporter, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reporter.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Metrics server failed")
	}
}
