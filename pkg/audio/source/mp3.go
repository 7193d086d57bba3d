// ABOUTME: MP3 file source using go-mp3
// ABOUTME: Decodes 16-bit stereo and widens to the 24-bit range, looping at EOF
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
	"github.com/sirupsen/logrus"
)

// MP3 reads from an MP3 file
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
	format  audio.Format
	title   string
	buf     []byte
}

// NewMP3 opens an MP3 file
func NewMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	// go-mp3 always produces 16-bit stereo
	s := &MP3{
		file:    f,
		decoder: decoder,
		format:  audio.Format{SampleRate: decoder.SampleRate(), Channels: 2, BitDepth: 16},
		title:   titleFromPath(path),
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewMP3",
		"title":    s.title,
		"format":   s.format.String(),
	}).Info("Loaded MP3")

	return s, nil
}

// Read decodes up to len(samples) samples
func (s *MP3) Read(samples []int32) (int, error) {
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := s.decoder.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	count := n / 2
	for i := 0; i < count; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}

	if errors.Is(err, io.EOF) {
		if rewindErr := s.rewind(); rewindErr != nil {
			return count, rewindErr
		}
	}
	return count, nil
}

func (s *MP3) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to restart decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3) Format() audio.Format { return s.format }
func (s *MP3) Title() string        { return s.title }
func (s *MP3) Close() error         { return s.file.Close() }
