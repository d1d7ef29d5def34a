package capturefile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/scopecap/pkg/models"
)

func testCapture(t *testing.T, ts time.Time, n int) *models.Capture {
	t.Helper()

	var channels [4][]float64
	for ch := range channels {
		channels[ch] = make([]float64, n)
		for i := range channels[ch] {
			channels[ch][i] = float64(ch+1)*0.5 + float64(i)*0.001
		}
	}
	timeNs := make([]float64, n)
	for i := range timeNs {
		timeNs[i] = float64(i) * 2000
	}
	return models.NewCapture(ts, 500000, channels, timeNs)
}

func TestWriteReadRoundTrip(t *testing.T) {
	ts := time.Date(2025, 4, 11, 13, 35, 48, 0, time.Local)
	want := testCapture(t, ts, 70000) // spans more than one write batch

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	got, err := Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, want.SamplingRate, got.SamplingRate)
	assert.Equal(t, "ns", got.TimeUnit)
	assert.Equal(t, "mV", got.VoltageUnit)
	assert.Equal(t, want.Len(), got.Len())
	assert.Equal(t, want.Time, got.Time)
	for ch := range want.Channels {
		assert.Equal(t, want.Channels[ch], got.Channels[ch], "channel %s", models.ChannelNames[ch])
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	c := testCapture(t, time.Date(2025, 4, 11, 13, 35, 48, 0, time.Local), 100)

	path, err := WriteFile(dir, c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "acquisition_2025-04-11_13-35-48.parquet"), path)

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Len())
}

func TestWriteRejectsRaggedCapture(t *testing.T) {
	c := testCapture(t, time.Now(), 10)
	c.Channels[2] = c.Channels[2][:9]

	var buf bytes.Buffer
	err := Write(&buf, c)
	assert.ErrorContains(t, err, "channel C has 9 samples")
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()

	_, err := Latest(dir)
	assert.ErrorIs(t, err, ErrNoCaptures)

	for _, ts := range []time.Time{
		time.Date(2025, 4, 11, 13, 35, 48, 0, time.Local),
		time.Date(2025, 4, 11, 13, 45, 0, 0, time.Local),
		time.Date(2025, 4, 10, 9, 0, 0, 0, time.Local),
	} {
		_, err := WriteFile(dir, testCapture(t, ts, 10))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	files, err := List(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, "acquisition_2025-04-11_13-45-00.parquet", filepath.Base(latest))
}

func TestLatestMixedPrefixes(t *testing.T) {
	dir := t.TempDir()

	legacy := testCapture(t, time.Date(2025, 4, 11, 13, 0, 0, 0, time.Local), 10)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, legacy))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aquisition_2025-04-11_13-00-00.parquet"), buf.Bytes(), 0644))

	_, err := WriteFile(dir, testCapture(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local), 10))
	require.NoError(t, err)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, "acquisition_2025-06-01_09-00-00.parquet", filepath.Base(latest))

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "aquisition_2025-04-11_13-00-00.parquet", filepath.Base(files[0]))
}

func TestListFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "run-b.parquet")
	newer := filepath.Join(dir, "run-a.parquet")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	files, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{older, newer}, files)
}

func TestFileTimestamp(t *testing.T) {
	ts, ok := FileTimestamp("/data/aquisition_2025-04-11_13-35-48.parquet")
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2025, 4, 11, 13, 35, 48, 0, time.Local)))

	_, ok = FileTimestamp("notes.parquet")
	assert.False(t, ok)
}
