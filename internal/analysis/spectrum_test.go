package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/scopecap/pkg/models"
)

const tolerance = 1e-9

func constantCapture(n int, fs float64, levels [4]float64) *models.Capture {
	var channels [4][]float64
	for ch := range channels {
		channels[ch] = make([]float64, n)
		for i := range channels[ch] {
			channels[ch][i] = levels[ch]
		}
	}
	return models.NewCapture(time.Now(), fs, channels, TimeAxis(n, 1e9/fs))
}

func TestMagnitudeSinusoidPeak(t *testing.T) {
	const (
		n         = 1000
		fs        = 1000.0
		frequency = 50.0
		amplitude = 3.0
	)
	x := make([]float64, n)
	for i := range x {
		x[i] = amplitude * math.Sin(2*math.Pi*frequency*float64(i)/fs)
	}

	mag, err := Magnitude(x)
	require.NoError(t, err)
	require.Len(t, mag, n)

	assert.InDelta(t, amplitude, mag[50], tolerance)
	assert.InDelta(t, amplitude, mag[n-50], tolerance, "mirror bin of the unfolded spectrum")
	assert.InDelta(t, 0, mag[0], tolerance)
	assert.InDelta(t, 0, mag[49], tolerance)
}

func TestMagnitudeDCIsNotHalved(t *testing.T) {
	x := make([]float64, 64)
	for i := range x {
		x[i] = 1.5 + math.Cos(2*math.Pi*4*float64(i)/64)
	}

	mag, err := Magnitude(x)
	require.NoError(t, err)
	assert.InDelta(t, 2*1.5, mag[0], tolerance)
	assert.InDelta(t, 1, mag[4], tolerance)
}

func TestMagnitudeEmpty(t *testing.T) {
	_, err := Magnitude(nil)
	assert.Error(t, err)
}

func TestFrequencyAxis(t *testing.T) {
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, FrequencyAxis(8, 5))
	assert.Equal(t, []float64{0}, FrequencyAxis(8, 1))
	assert.Nil(t, FrequencyAxis(8, 0))

	freqs := FrequencyAxis(1e6, 1000)
	require.Len(t, freqs, 1000)
	assert.Equal(t, 0.0, freqs[0])
	assert.Equal(t, 1e6, freqs[999])
}

func TestComputeSpectrumAllZero(t *testing.T) {
	c := constantCapture(1000, 1e6, [4]float64{})

	s, err := ComputeSpectrum(c)
	require.NoError(t, err)
	require.Len(t, s.Frequencies, 1000)
	assert.Equal(t, 1e6, s.Frequencies[999])

	for ch, mags := range s.Magnitudes {
		require.Len(t, mags, 1000)
		for k, m := range mags {
			if m != 0 {
				t.Fatalf("channel %s bin %d = %v, want 0", models.ChannelNames[ch], k, m)
			}
		}
	}
}

func TestComputeSpectrumConstantChannel(t *testing.T) {
	c := constantCapture(100, 10, [4]float64{5, 0, 0, 0})

	s, err := ComputeSpectrum(c)
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.Frequencies[0])
	// DC bin carries 2/N * sum = twice the 5 mV level.
	assert.InDelta(t, 10, s.Magnitudes[0][0], tolerance)
	for k := 1; k < 100; k++ {
		assert.InDelta(t, 0, s.Magnitudes[0][k], tolerance, "bin %d", k)
	}
}

func TestSpectrumPoints(t *testing.T) {
	c := constantCapture(11, 10, [4]float64{1, 2, 3, 4})
	s, err := ComputeSpectrum(c)
	require.NoError(t, err)

	points := s.Points(1, 5)
	require.Len(t, points, 6)
	assert.Equal(t, 5.0, points[5].Frequency)
	assert.InDelta(t, 4, points[0].Magnitude, tolerance)

	assert.Len(t, s.Points(1, 0), 11)
}

func TestComputeTimeSeries(t *testing.T) {
	c := constantCapture(100, 10, [4]float64{5, 0, 0, 0})

	ts, err := ComputeTimeSeries(c)
	require.NoError(t, err)
	require.Len(t, ts.Seconds, 100)
	assert.Equal(t, 0.0, ts.Seconds[0])
	assert.InDelta(t, 9.9, ts.Seconds[99], tolerance)
	for _, v := range ts.Channels[0] {
		assert.Equal(t, 5.0, v)
	}
}
