// ABOUTME: Functional options shared by Estimator and Corrector
// ABOUTME: Injects clock, tuning, logger and decision reporter
package latency

import "github.com/sirupsen/logrus"

type settings struct {
	clock    Clock
	tuning   Tuning
	logger   *logrus.Entry
	reporter Reporter
}

// Option configures an Estimator or Corrector.
type Option func(*settings)

// WithClock replaces the wall clock, typically with a ManualClock.
func WithClock(clock Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTuning overrides the control loop constants.
func WithTuning(tuning Tuning) Option {
	return func(s *settings) {
		s.tuning = tuning
	}
}

// WithLogger sets the entry used for latency change logs. Ignored by Estimator.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReporter receives every corrector decision. Ignored by Estimator.
func WithReporter(reporter Reporter) Option {
	return func(s *settings) {
		s.reporter = reporter
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		clock:  SystemClock{},
		tuning: DefaultTuning(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger().WithField("component", "latency")
	}
	return s
}
