// ABOUTME: PCM source abstraction for the latency monitor
// ABOUTME: Opens MP3 or FLAC files, or a sine tone when no file is given
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/resonate-latency/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without a decoder
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Source produces interleaved int32 PCM in the 24-bit range.
type Source interface {
	// Read fills samples and returns how many were written. File sources
	// loop at end of stream.
	Read(samples []int32) (int, error)

	Format() audio.Format

	// Title is a display name, usually the file name without extension
	Title() string

	Close() error
}

// Open picks a decoder by file extension. An empty path yields a 440Hz tone
// at toneRate.
func Open(path string, toneRate int) (Source, error) {
	if path == "" {
		return NewTone(440, toneRate, 2), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3(path)
	case ".flac":
		return NewFLAC(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac)", ErrUnsupportedFormat, ext)
	}
}

func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
