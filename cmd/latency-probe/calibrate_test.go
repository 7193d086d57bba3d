package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/resonate-latency/internal/calibration"
)

func TestRecordOffsetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal", calibration.DefaultFilename)
	var out bytes.Buffer

	require.NoError(t, recordOffset(path, "AirPods Pro", "default", 0.05, 0.8, &out))
	require.NoError(t, recordOffset(path, "AirPods Pro", "default", 0.06, 0.9, &out))
	assert.Contains(t, out.String(), "AirPods Pro|default")
	assert.Contains(t, out.String(), "applied: true")

	off, ok := calibration.Load(path).Offset("AirPods Pro", "default")
	require.True(t, ok)
	assert.Greater(t, off, 0.05)
	assert.Less(t, off, 0.06)
}

func TestRecordOffsetRejectsWeakMeasurement(t *testing.T) {
	path := filepath.Join(t.TempDir(), calibration.DefaultFilename)
	var out bytes.Buffer

	err := recordOffset(path, "speaker", "mic", 0.05, 0.1, &out)
	require.Error(t, err)
	assert.Empty(t, calibration.Load(path).Entries())
}

func TestForgetAndListOffsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), calibration.DefaultFilename)
	var out bytes.Buffer

	require.NoError(t, listOffsets(path, &out))
	assert.Contains(t, out.String(), "No stored calibrations")

	require.NoError(t, recordOffset(path, "speaker", "mic", 0.03, 0.9, &out))
	out.Reset()
	require.NoError(t, listOffsets(path, &out))
	assert.Contains(t, out.String(), "speaker|mic")
	assert.Contains(t, out.String(), "30.0ms")

	out.Reset()
	require.NoError(t, forgetOffset(path, "speaker", "mic", &out))
	assert.Contains(t, out.String(), "Removed speaker|mic")
	assert.Empty(t, calibration.Load(path).Entries())

	out.Reset()
	require.NoError(t, forgetOffset(path, "speaker", "mic", &out))
	assert.Contains(t, out.String(), "No calibration")
}
