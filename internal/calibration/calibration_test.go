package calibration

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryUpdate(t *testing.T) {
	e := NewEntry("out", "in")

	require.True(t, e.Update(0.05, 0.8))
	assert.InDelta(t, 0.05, e.OffsetSecs, 1e-9)
	assert.InDelta(t, 0.8, e.Confidence, 1e-9)

	require.True(t, e.Update(0.06, 0.9))
	// weight = 0.9*(1-0.7) + 0.7 = 0.97
	assert.InDelta(t, (0.05*0.8+0.06*0.97)/(0.8+0.97), e.OffsetSecs, 1e-9)
	assert.Greater(t, e.OffsetSecs, 0.05)
	assert.Less(t, e.OffsetSecs, 0.06)
	assert.InDelta(t, 0.85, e.Confidence, 1e-9)
	assert.Equal(t, uint32(2), e.Measurements)
}

func TestEntryUpdateRejectsWeakOrInvalid(t *testing.T) {
	e := NewEntry("out", "in")
	assert.False(t, e.Update(0.05, 0.29))
	assert.False(t, e.Update(math.NaN(), 0.9))
	assert.False(t, e.Update(math.Inf(1), 0.9))
	assert.Equal(t, uint32(0), e.Measurements)
	assert.False(t, e.Trusted())
}

func TestStoreOffsetRequiresConfidence(t *testing.T) {
	s := NewStore()

	s.Put(Entry{OutputID: "cam", InputID: "mic", OffsetSecs: 0.05, Confidence: 0.3, Measurements: 1})
	_, ok := s.Offset("cam", "mic")
	assert.False(t, ok)

	s.Put(Entry{OutputID: "cam", InputID: "mic", OffsetSecs: 0.05, Confidence: 0.8, Measurements: 3})
	off, ok := s.Offset("cam", "mic")
	require.True(t, ok)
	assert.InDelta(t, 0.05, off, 1e-9)
}

func TestStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", DefaultFilename)

	s := NewStore()
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	s.Record("speaker", "mic", 0.042, 0.85)
	require.NoError(t, s.Save(path))

	loaded := Load(path)
	assert.Equal(t, CurrentVersion, loaded.Version)
	got, ok := loaded.Get("speaker", "mic")
	require.True(t, ok)
	assert.InDelta(t, 0.042, got.OffsetSecs, 1e-9)
	assert.Equal(t, uint32(1), got.Measurements)
	assert.Equal(t, int64(1700000000000), got.UpdatedMs)
}

func TestLoadFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()

	missing := Load(filepath.Join(dir, "missing.yaml"))
	assert.Empty(t, missing.Calibrations)
	assert.Equal(t, CurrentVersion, missing.Version)

	corrupt := filepath.Join(dir, "corrupt.yaml")
	require.NoError(t, os.WriteFile(corrupt, []byte("calibrations: [not, a, map"), 0o644))
	s := Load(corrupt)
	assert.Empty(t, s.Calibrations)
	assert.NotNil(t, s.Calibrations)
}

func TestStoreRemoveAndEntries(t *testing.T) {
	s := NewStore()
	s.Record("b", "mic", 0.01, 0.9)
	s.Record("a", "mic", 0.02, 0.9)
	_, accepted := s.Record("c", "mic", 0.03, 0.1)
	assert.False(t, accepted, "weak measurements are never stored")

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].OutputID)
	assert.Equal(t, "b", entries[1].OutputID)

	s.Remove("a", "mic")
	assert.Len(t, s.Entries(), 1)
	_, ok := s.Get("a", "mic")
	assert.False(t, ok)
}

func TestDeviceID(t *testing.T) {
	assert.Equal(t, DefaultDeviceID, DeviceID(""))
	assert.Equal(t, "AirPods Pro", DeviceID("AirPods Pro"))
}

func TestApplyOffset(t *testing.T) {
	s := NewStore()
	s.Record("out", "in", 0.04, 0.9)

	assert.InDelta(t, 0.14, ApplyOffset(0.1, "out", "in", s), 1e-9)
	assert.InDelta(t, 0.1, ApplyOffset(0.1, "out", "", s), 1e-9)
	assert.InDelta(t, 0.1, ApplyOffset(0.1, "other", "in", s), 1e-9)
	assert.InDelta(t, 0.1, ApplyOffset(0.1, "out", "in", nil), 1e-9)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "out|in", Key("out", "in"))
}
