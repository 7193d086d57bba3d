// ABOUTME: Platform device introspection capability
// ABOUTME: DeviceProbe abstracts Core Audio, WASAPI and name-only platforms
package latency

import (
	"fmt"
	"strings"
)

// Platform selects which introspection rules apply.
type Platform int

const (
	PlatformGeneric Platform = iota
	PlatformMacOS
	PlatformWindows
)

// String returns the platform name
func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macos"
	case PlatformWindows:
		return "windows"
	default:
		return "generic"
	}
}

// ParsePlatform parses a platform name as produced by String.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "generic", "linux":
		return PlatformGeneric, nil
	case "macos", "darwin":
		return PlatformMacOS, nil
	case "windows":
		return PlatformWindows, nil
	default:
		return PlatformGeneric, fmt.Errorf("unknown platform %q", s)
	}
}

// DeviceProperties is what a platform can report about an audio device.
// Zero values mean "not reported".
type DeviceProperties struct {
	Name string

	// Core Audio kAudioDevicePropertyTransportType
	TransportCode uint32

	// Windows PKEY_Device_EnumeratorName
	BusEnumerator string

	LatencyFrames       uint32
	SafetyOffsetFrames  uint32
	BufferFrames        uint32
	StreamLatencyFrames uint32 // max over the device's streams in this direction
	NominalSampleRate   float64
}

func (p DeviceProperties) effectiveRate(requested uint32) float64 {
	if p.NominalSampleRate > 0 {
		return p.NominalSampleRate
	}
	return float64(requested)
}

// DeviceProbe queries the default audio devices of a platform.
type DeviceProbe interface {
	Platform() Platform
	OutputDevice() (DeviceProperties, error)
	InputDevice() (DeviceProperties, error)
}

// GenericProbe is used where no structured device metadata exists.
// Name feeds the Bluetooth name heuristic.
type GenericProbe struct {
	Name string
}

// Platform returns PlatformGeneric
func (GenericProbe) Platform() Platform {
	return PlatformGeneric
}

// OutputDevice returns only the configured name
func (g GenericProbe) OutputDevice() (DeviceProperties, error) {
	return DeviceProperties{Name: g.Name}, nil
}

// InputDevice returns only the configured name
func (g GenericProbe) InputDevice() (DeviceProperties, error) {
	return DeviceProperties{Name: g.Name}, nil
}

// StaticProbe reports fixed device properties.
type StaticProbe struct {
	Kind      Platform
	Output    DeviceProperties
	Input     DeviceProperties
	OutputErr error
	InputErr  error
}

// Platform returns the configured platform
func (s StaticProbe) Platform() Platform {
	return s.Kind
}

// OutputDevice returns the configured output properties
func (s StaticProbe) OutputDevice() (DeviceProperties, error) {
	return s.Output, s.OutputErr
}

// InputDevice returns the configured input properties
func (s StaticProbe) InputDevice() (DeviceProperties, error) {
	return s.Input, s.InputErr
}
