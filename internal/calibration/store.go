// ABOUTME: YAML persistence for device pair calibrations
// ABOUTME: Missing or unreadable files fall back to an empty store
package calibration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is written to every saved store.
const CurrentVersion = 1

// DefaultFilename is used when the configured path is a directory.
const DefaultFilename = "sync_calibrations.yaml"

// Store holds calibrations keyed by device pair.
type Store struct {
	Version      int              `yaml:"version"`
	Calibrations map[string]Entry `yaml:"calibrations"`

	now func() time.Time
}

// NewStore returns an empty store at the current version.
func NewStore() *Store {
	return &Store{
		Version:      CurrentVersion,
		Calibrations: make(map[string]Entry),
		now:          time.Now,
	}
}

// DefaultDeviceID names the system default device in store keys.
const DefaultDeviceID = "default"

// DeviceID returns the store identifier for a device name.
func DeviceID(name string) string {
	if name == "" {
		return DefaultDeviceID
	}
	return name
}

// Key joins the device identifiers.
func Key(outputID, inputID string) string {
	return outputID + "|" + inputID
}

// Load reads the store at path. Any failure is logged and yields an empty store.
func Load(path string) *Store {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logrus.WithFields(logrus.Fields{
				"function": "Load",
				"path":     path,
				"error":    err.Error(),
			}).Warn("Failed to read calibration store, starting empty")
		}
		return NewStore()
	}

	store := NewStore()
	if err := yaml.Unmarshal(data, store); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     path,
			"error":    err.Error(),
		}).Warn("Failed to parse calibration store, starting empty")
		return NewStore()
	}
	if store.Calibrations == nil {
		store.Calibrations = make(map[string]Entry)
	}
	if store.Version == 0 {
		store.Version = CurrentVersion
	}
	return store
}

// Save writes the store to path, creating parent directories.
func (s *Store) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("calibration: create %q: %w", dir, err)
		}
	}

	s.Version = CurrentVersion
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("calibration: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("calibration: write %q: %w", path, err)
	}
	return nil
}

// Get returns the stored entry for the pair.
func (s *Store) Get(outputID, inputID string) (Entry, bool) {
	e, ok := s.Calibrations[Key(outputID, inputID)]
	return e, ok
}

// Offset returns the stored offset only when it is trusted.
func (s *Store) Offset(outputID, inputID string) (float64, bool) {
	e, ok := s.Get(outputID, inputID)
	if !ok || !e.Trusted() {
		return 0, false
	}
	return e.OffsetSecs, true
}

// Put replaces the entry for e's device pair.
func (s *Store) Put(e Entry) {
	if s.Calibrations == nil {
		s.Calibrations = make(map[string]Entry)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	e.UpdatedMs = now().UnixMilli()
	s.Calibrations[Key(e.OutputID, e.InputID)] = e
}

// Record folds a measurement into the pair's entry and stores the result.
// It reports whether the measurement was accepted.
func (s *Store) Record(outputID, inputID string, offsetSecs, confidence float64) (Entry, bool) {
	e, ok := s.Get(outputID, inputID)
	if !ok {
		e = NewEntry(outputID, inputID)
	}
	if !e.Update(offsetSecs, confidence) {
		return e, false
	}
	s.Put(e)
	return e, true
}

// Remove deletes the pair's entry.
func (s *Store) Remove(outputID, inputID string) {
	delete(s.Calibrations, Key(outputID, inputID))
}

// Entries returns all entries sorted by key.
func (s *Store) Entries() []Entry {
	keys := make([]string, 0, len(s.Calibrations))
	for k := range s.Calibrations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Calibrations[k])
	}
	return out
}

// ApplyOffset adds the trusted offset for the pair to base. Empty identifiers
// leave base unchanged.
func ApplyOffset(base float64, outputID, inputID string, store *Store) float64 {
	if outputID == "" || inputID == "" || store == nil {
		return base
	}
	if off, ok := store.Offset(outputID, inputID); ok {
		return base + off
	}
	return base
}
