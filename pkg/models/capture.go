package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout used in capture file names and the
// timestamp column.
const TimestampLayout = "2006-01-02_15-04-05"

// Unit labels stored alongside every capture
const (
	TimeUnit    = "ns"
	VoltageUnit = "mV"
)

// ChannelNames lists the scope inputs in column order
var ChannelNames = []string{"A", "B", "C", "D"}

// Capture is one complete acquisition: four channel traces plus metadata.
// All sequences have the same length.
type Capture struct {
	ID           uuid.UUID
	Timestamp    time.Time
	SamplingRate float64 // samples per second
	TimeUnit     string
	VoltageUnit  string

	// Channels holds the A..D traces in millivolts.
	Channels [4][]float64
	// Time holds nanoseconds since the first sample.
	Time []float64
}

// captureNamespace seeds capture IDs so a file always maps to the same ID.
var captureNamespace = uuid.MustParse("5c0a6f1e-3b1d-4c55-9a0e-7d2f8b6c4e21")

// NewCapture builds a capture stamped with ts, truncated to the second. The
// ID is derived from the timestamp.
func NewCapture(ts time.Time, samplingRate float64, channels [4][]float64, timeNs []float64) *Capture {
	ts = ts.Truncate(time.Second)
	return &Capture{
		ID:           uuid.NewSHA1(captureNamespace, []byte(ts.Format(TimestampLayout))),
		Timestamp:    ts,
		SamplingRate: samplingRate,
		TimeUnit:     TimeUnit,
		VoltageUnit:  VoltageUnit,
		Channels:     channels,
		Time:         timeNs,
	}
}

// Len returns the number of samples per sequence.
func (c *Capture) Len() int {
	return len(c.Time)
}

// TimestampString formats the capture timestamp for file names.
func (c *Capture) TimestampString() string {
	return c.Timestamp.Format(TimestampLayout)
}

// ChannelIndex returns the position of "A".."D" in Channels.
func ChannelIndex(name string) (int, bool) {
	for i, n := range ChannelNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Validate checks that every channel matches the time axis length.
func (c *Capture) Validate() error {
	n := len(c.Time)
	if n == 0 {
		return fmt.Errorf("capture has no samples")
	}
	for i, ch := range c.Channels {
		if len(ch) != n {
			return fmt.Errorf("channel %s has %d samples, time axis has %d", ChannelNames[i], len(ch), n)
		}
	}
	if c.SamplingRate <= 0 {
		return fmt.Errorf("invalid sampling rate %v", c.SamplingRate)
	}
	return nil
}

// FileName returns the canonical file name for the capture.
func (c *Capture) FileName() string {
	return fmt.Sprintf("acquisition_%s.parquet", c.TimestampString())
}

// Plot status values of a CaptureRecord
const (
	PlotStatusCaptured  = "captured"
	PlotStatusRendering = "rendering"
	PlotStatusRendered  = "rendered"
	PlotStatusFailed    = "failed"
)

// CaptureRecord is the catalog entry for a persisted capture
type CaptureRecord struct {
	ID               string    `json:"id" doc:"Capture unique identifier"`
	FileName         string    `json:"file_name" doc:"Capture file name"`
	Path             string    `json:"path" doc:"Local path of the capture file"`
	ArchivePath      *string   `json:"archive_path,omitempty" doc:"Location of the archived copy"`
	Timestamp        string    `json:"timestamp" doc:"Capture timestamp (YYYY-MM-DD_HH-MM-SS)"`
	SamplingRate     float64   `json:"sampling_rate" doc:"Samples per second"`
	Samples          int       `json:"samples" doc:"Samples per channel"`
	PlotStatus       string    `json:"plot_status" enum:"captured,rendering,rendered,failed" doc:"Plot rendering status"`
	SignalPlotPath   *string   `json:"signal_plot_path,omitempty" doc:"Time-domain plot image"`
	SpectrumPlotPath *string   `json:"spectrum_plot_path,omitempty" doc:"Spectrum plot image"`
	ErrorMsg         *string   `json:"error_message,omitempty" doc:"Last rendering error"`
	CreatedAt        time.Time `json:"created_at" doc:"When the capture was recorded"`
	UpdatedAt        time.Time `json:"updated_at" doc:"Last catalog update"`
}

// NewCaptureRecord describes c stored at path.
func NewCaptureRecord(c *Capture, path string) *CaptureRecord {
	now := time.Now()
	return &CaptureRecord{
		ID:           c.ID.String(),
		FileName:     c.FileName(),
		Path:         path,
		Timestamp:    c.TimestampString(),
		SamplingRate: c.SamplingRate,
		Samples:      c.Len(),
		PlotStatus:   PlotStatusCaptured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
