// ABOUTME: Sentinel errors reported by device probes
// ABOUTME: The resolver absorbs these and degrades to buffer-based estimates
package latency

import "errors"

var (
	// ErrNoDevice indicates that no default audio device is available.
	ErrNoDevice = errors.New("no audio device available")

	// ErrNoIntrospection indicates the platform cannot report device latency.
	ErrNoIntrospection = errors.New("device latency introspection not supported")
)

// ErrInvalidConfig is wrapped by every correction config validation failure.
var ErrInvalidConfig = errors.New("invalid latency correction config")
