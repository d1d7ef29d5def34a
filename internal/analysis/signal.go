package analysis

import "github.com/RMahshie/scopecap/pkg/models"

// TimeSeries is a capture with its time axis converted to seconds.
type TimeSeries struct {
	Seconds  []float64
	Channels [4][]float64
}

// ComputeTimeSeries converts the nanosecond time axis of c to seconds. The
// channel traces are shared with c, not copied.
func ComputeTimeSeries(c *models.Capture) (*TimeSeries, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ts := &TimeSeries{
		Seconds:  make([]float64, c.Len()),
		Channels: c.Channels,
	}
	for i, ns := range c.Time {
		ts.Seconds[i] = ns / 1e9
	}
	return ts, nil
}

// TimeAxis returns n sample times in nanoseconds spaced intervalNs apart,
// starting at 0.
func TimeAxis(n int, intervalNs float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * intervalNs
	}
	return t
}
