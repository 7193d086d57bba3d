// ABOUTME: FLAC file source using mewkiz/flac
// ABOUTME: Interleaves subframes and normalizes any bit depth to 24-bit, looping at EOF
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
)

// FLAC reads from a FLAC file
type FLAC struct {
	file   *os.File
	stream *flac.Stream
	format audio.Format
	title  string

	// decoded but not yet returned samples from the last frame
	pending []int32
}

// NewFLAC opens a FLAC file
func NewFLAC(path string) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	s := &FLAC{
		file:   f,
		stream: stream,
		format: audio.Format{
			SampleRate: int(stream.Info.SampleRate),
			Channels:   int(stream.Info.NChannels),
			BitDepth:   int(stream.Info.BitsPerSample),
		},
		title: titleFromPath(path),
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewFLAC",
		"title":    s.title,
		"format":   s.format.String(),
	}).Info("Loaded FLAC")

	return s, nil
}

// Read decodes frames until samples is full
func (s *FLAC) Read(samples []int32) (int, error) {
	n := 0
	for n < len(samples) {
		if len(s.pending) == 0 {
			if err := s.decodeFrame(); err != nil {
				return n, err
			}
			continue
		}
		copied := copy(samples[n:], s.pending)
		s.pending = s.pending[copied:]
		n += copied
	}
	return n, nil
}

func (s *FLAC) decodeFrame() error {
	frame, err := s.stream.ParseNext()
	if errors.Is(err, io.EOF) {
		return s.rewind()
	}
	if err != nil {
		return fmt.Errorf("failed to parse FLAC frame: %w", err)
	}

	channels := s.format.Channels
	blockSize := int(frame.BlockSize)
	out := s.pending[:0]
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < channels; ch++ {
			out = append(out, to24Bit(frame.Subframes[ch].Samples[i], s.format.BitDepth))
		}
	}
	s.pending = out
	return nil
}

func (s *FLAC) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to restart stream: %w", err)
	}
	s.stream = stream
	return nil
}

// to24Bit shifts a sample of the given bit depth into the 24-bit range
func to24Bit(sample int32, bitDepth int) int32 {
	shift := bitDepth - 24
	switch {
	case shift > 0:
		return sample >> shift
	case shift < 0:
		return sample << -shift
	default:
		return sample
	}
}

func (s *FLAC) Format() audio.Format { return s.format }
func (s *FLAC) Title() string        { return s.title }
func (s *FLAC) Close() error         { return s.file.Close() }
