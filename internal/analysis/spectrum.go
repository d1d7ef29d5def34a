// Package analysis computes the views plotted from a capture: the time
// series in seconds and the per-channel DFT magnitude spectrum.
package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RMahshie/scopecap/pkg/models"
)

// Spectrum holds the magnitude spectrum of every channel of a capture.
//
// Frequencies runs linearly from 0 to the sampling rate inclusive, with one
// point per time-domain sample. The axis is not folded at Nyquist, so the
// upper half mirrors the lower half.
type Spectrum struct {
	SamplingRate float64
	Frequencies  []float64
	Magnitudes   [4][]float64
}

// Magnitude returns |X_k| * 2 / N for the full N-point DFT of x. A sinusoid of
// amplitude A with an integer number of periods reports A in its bin. The DC
// bin is not halved and so reads twice the signal mean.
func Magnitude(x []float64) ([]float64, error) {
	n := len(x)
	if n == 0 {
		return nil, errors.New("empty sequence")
	}

	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}
	coeffs := fourier.NewCmplxFFT(n).Coefficients(nil, seq)

	scale := 2 / float64(n)
	mag := make([]float64, n)
	for i, c := range coeffs {
		mag[i] = cmplx.Abs(c) * scale
	}
	return mag, nil
}

// FrequencyAxis returns n points spaced linearly over [0, samplingRate].
func FrequencyAxis(samplingRate float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	freqs := make([]float64, n)
	if n == 1 {
		return freqs
	}
	step := samplingRate / float64(n-1)
	for i := range freqs {
		freqs[i] = float64(i) * step
	}
	freqs[n-1] = samplingRate
	return freqs
}

// ComputeSpectrum transforms each channel of c independently.
func ComputeSpectrum(c *models.Capture) (*Spectrum, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &Spectrum{
		SamplingRate: c.SamplingRate,
		Frequencies:  FrequencyAxis(c.SamplingRate, c.Len()),
	}
	for i, ch := range c.Channels {
		mag, err := Magnitude(ch)
		if err != nil {
			return nil, err
		}
		s.Magnitudes[i] = mag
	}
	return s, nil
}

// Points returns the bins of channel ch (0..3) up to maxFrequency. A
// maxFrequency of 0 returns every bin.
func (s *Spectrum) Points(ch int, maxFrequency float64) []models.FrequencyPoint {
	mags := s.Magnitudes[ch]
	points := make([]models.FrequencyPoint, 0, len(mags))
	for i, f := range s.Frequencies {
		if maxFrequency > 0 && f > maxFrequency {
			break
		}
		points = append(points, models.FrequencyPoint{Frequency: f, Magnitude: mags[i]})
	}
	return points
}
