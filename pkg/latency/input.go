// ABOUTME: One-shot capture path latency estimate
// ABOUTME: Device latency plus buffer latency, with a wireless floor for Bluetooth microphones
package latency

// InputInfo describes the latency of a capture device.
type InputInfo struct {
	DeviceSecs float64
	BufferSecs float64
	TotalSecs  float64
	Transport  TransportKind
}

// NewInputInfo builds an InputInfo, deriving TotalSecs
func NewInputInfo(deviceSecs, bufferSecs float64, transport TransportKind) InputInfo {
	return InputInfo{
		DeviceSecs: deviceSecs,
		BufferSecs: bufferSecs,
		TotalSecs:  deviceSecs + bufferSecs,
		Transport:  transport,
	}
}

// InputInfoFromBuffer accounts for the capture buffer alone.
func InputInfoFromBuffer(sampleRate, bufferFrames uint32) InputInfo {
	var bufferSecs float64
	if sampleRate > 0 {
		bufferSecs = float64(bufferFrames) / float64(sampleRate)
	}
	return NewInputInfo(0, bufferSecs, TransportUnknown)
}

// EstimateInputLatency estimates capture latency using only a device name.
func EstimateInputLatency(sampleRate, bufferFrames uint32, deviceName string) InputInfo {
	return NewResolver(GenericProbe{Name: deviceName}, DefaultTuning()).InputLatency(sampleRate, bufferFrames)
}

// InputLatency estimates the latency of the probe's default capture device.
// It never fails; missing data degrades to the buffer-only estimate.
func (r *Resolver) InputLatency(sampleRate, bufferFrames uint32) InputInfo {
	if sampleRate == 0 {
		return NewInputInfo(0, 0, TransportUnknown)
	}

	props, err := r.probe.InputDevice()
	if err != nil {
		return InputInfoFromBuffer(sampleRate, bufferFrames)
	}

	platform := r.probe.Platform()
	transport := ClassifyDevice(props, platform)

	switch platform {
	case PlatformMacOS:
		frames := props.BufferFrames
		if frames == 0 {
			frames = bufferFrames
		}
		rate := props.effectiveRate(sampleRate)
		deviceFrames := uint64(props.LatencyFrames) + uint64(props.SafetyOffsetFrames) + uint64(props.StreamLatencyFrames)
		return NewInputInfo(float64(deviceFrames)/rate, float64(frames)/rate, transport)

	case PlatformWindows:
		deviceSecs := r.tuning.WiredInputSecs
		if transport == TransportWireless {
			deviceSecs = r.tuning.WirelessInputSecs
		}
		return NewInputInfo(deviceSecs, float64(bufferFrames)/float64(sampleRate), transport)

	default:
		info := InputInfoFromBuffer(sampleRate, bufferFrames)
		if transport == TransportWireless {
			info = NewInputInfo(r.tuning.WirelessInputSecs, info.BufferSecs, transport)
		}
		return info
	}
}
