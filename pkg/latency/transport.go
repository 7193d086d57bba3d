// ABOUTME: Transport classification for audio endpoints
// ABOUTME: Maps Core Audio codes, bus enumerators and device names to a TransportKind
package latency

import "strings"

// TransportKind describes how an audio endpoint is connected.
type TransportKind int

const (
	TransportUnknown TransportKind = iota
	TransportWired
	TransportWireless
	TransportAirPlay
	TransportContinuityWireless
)

// String returns the transport name
func (k TransportKind) String() string {
	switch k {
	case TransportWired:
		return "wired"
	case TransportWireless:
		return "wireless"
	case TransportAirPlay:
		return "airplay"
	case TransportContinuityWireless:
		return "continuity-wireless"
	default:
		return "unknown"
	}
}

// IsWireless reports whether the transport adds radio or network buffering.
func (k TransportKind) IsWireless() bool {
	switch k {
	case TransportWireless, TransportAirPlay, TransportContinuityWireless:
		return true
	}
	return false
}

// ParseTransportKind is the inverse of String. Unrecognized names map to TransportUnknown.
func ParseTransportKind(s string) TransportKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wired":
		return TransportWired
	case "wireless", "bluetooth":
		return TransportWireless
	case "airplay":
		return TransportAirPlay
	case "continuity-wireless", "continuity":
		return TransportContinuityWireless
	default:
		return TransportUnknown
	}
}

// fourCC packs a four character Core Audio code.
func fourCC(code string) uint32 {
	return uint32(code[0])<<24 | uint32(code[1])<<16 | uint32(code[2])<<8 | uint32(code[3])
}

// Core Audio kAudioDeviceTransportType values
var (
	coreAudioAirPlay            = fourCC("airp")
	coreAudioBluetooth          = fourCC("blue")
	coreAudioBluetoothLE        = fourCC("blea")
	coreAudioContinuityWireless = fourCC("ccwl")
)

// ClassifyCoreAudioTransport maps a kAudioDevicePropertyTransportType value.
func ClassifyCoreAudioTransport(code uint32) TransportKind {
	switch code {
	case 0:
		return TransportUnknown
	case coreAudioAirPlay:
		return TransportAirPlay
	case coreAudioBluetooth, coreAudioBluetoothLE:
		return TransportWireless
	case coreAudioContinuityWireless:
		return TransportContinuityWireless
	default:
		// built-in, USB, HDMI, DisplayPort, aggregate, virtual, AVB, Thunderbolt, continuity wired
		return TransportWired
	}
}

// ClassifyBusEnumerator maps a Windows device bus enumerator name.
func ClassifyBusEnumerator(enumerator string) TransportKind {
	if enumerator == "" {
		return TransportUnknown
	}
	lower := strings.ToLower(enumerator)
	if strings.Contains(lower, "bthenum") || strings.Contains(lower, "bluetooth") {
		return TransportWireless
	}
	return TransportWired
}

// bluetoothNameFragments are lowercase substrings that identify common wireless headsets.
var bluetoothNameFragments = []string{
	"airpod",
	"bluetooth",
	"bt ",
	"wireless",
	"bose",
	"sony wh",
	"sony wf",
	"jabra",
	"beats",
	"galaxy buds",
	"pixel buds",
	"anker",
	"jbl ",
	"soundcore",
	"tozo",
	"raycon",
	"skullcandy",
	"sennheiser momentum",
	"audio-technica ath-m50xbt",
	"marshall",
	"b&o",
	"bang & olufsen",
	"shokz",
	"aftershokz",
}

// IsLikelyBluetoothName reports whether a device name looks like a Bluetooth endpoint.
func IsLikelyBluetoothName(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range bluetoothNameFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// ClassifyDevice picks the most specific transport information the platform offers.
func ClassifyDevice(props DeviceProperties, platform Platform) TransportKind {
	switch platform {
	case PlatformMacOS:
		return ClassifyCoreAudioTransport(props.TransportCode)
	case PlatformWindows:
		if kind := ClassifyBusEnumerator(props.BusEnumerator); kind != TransportUnknown {
			return kind
		}
		if IsLikelyBluetoothName(props.Name) {
			return TransportWireless
		}
		return TransportUnknown
	default:
		if IsLikelyBluetoothName(props.Name) {
			return TransportWireless
		}
		return TransportUnknown
	}
}
