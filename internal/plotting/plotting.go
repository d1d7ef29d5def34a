// Package plotting renders capture analyses to PNG files with gonum/plot.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/RMahshie/scopecap/internal/analysis"
	"github.com/RMahshie/scopecap/pkg/models"
)

// Figure sets the output image size.
type Figure struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultFigure is 7x5 inches at 300 dpi.
var DefaultFigure = Figure{Width: 7 * vg.Inch, Height: 5 * vg.Inch, DPI: 300}

// Window bounds the visible part of a spectrum. A zero max leaves that axis
// autoscaled.
type Window struct {
	MaxFrequency float64
	MaxAmplitude float64
}

// DefaultWindow shows 0-1000 Hz and 0-10 mV.
var DefaultWindow = Window{MaxFrequency: 1000, MaxAmplitude: 10}

// Title labels a plot with the capture timestamp and rate in MS/s rounded to
// two decimals.
func Title(timestamp string, samplingRate float64) string {
	msps := math.Round(samplingRate/1e6*100) / 100
	return fmt.Sprintf("%s time, %s MS/s", timestamp, strconv.FormatFloat(msps, 'f', -1, 64))
}

func channelLabel(i int) string {
	return "Channel " + models.ChannelNames[i]
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, i int, xy plotter.XYs, width vg.Length) error {
	line, err := plotter.NewLine(xy)
	if err != nil {
		return fmt.Errorf("%s: %w", channelLabel(i), err)
	}
	line.LineStyle.Color = plotutil.Color(i)
	if width > 0 {
		line.LineStyle.Width = width
	}
	p.Add(line)
	p.Legend.Add(channelLabel(i), line)
	return nil
}

// Signal plots all four channels against time in seconds.
func Signal(ts *analysis.TimeSeries, title string, fig Figure, path string) error {
	p := newPlot(title, "Time (s)", "Voltage (mV)")
	for i, ch := range ts.Channels {
		xy := make(plotter.XYs, len(ch))
		for k := range ch {
			xy[k].X = ts.Seconds[k]
			xy[k].Y = ch[k]
		}
		if err := addLine(p, i, xy, vg.Points(0.3)); err != nil {
			return err
		}
	}
	return save(p, fig, path)
}

// Spectrum plots the magnitude of every channel against frequency, limited to
// the given window.
func Spectrum(s *analysis.Spectrum, title string, win Window, fig Figure, path string) error {
	p := newPlot(title, "Frequency [Hz]", "Amplitude [mV]")
	for i, mags := range s.Magnitudes {
		xy := make(plotter.XYs, 0, len(mags))
		for k, f := range s.Frequencies {
			xy = append(xy, plotter.XY{X: f, Y: mags[k]})
			// keep one point past the edge so the line reaches it
			if win.MaxFrequency > 0 && f > win.MaxFrequency {
				break
			}
		}
		if err := addLine(p, i, xy, 0); err != nil {
			return err
		}
	}

	// Limits go last: adding plotters widens the axes to fit the data.
	if win.MaxFrequency > 0 {
		p.X.Min, p.X.Max = 0, win.MaxFrequency
	}
	if win.MaxAmplitude > 0 {
		p.Y.Min, p.Y.Max = 0, win.MaxAmplitude
	}
	return save(p, fig, path)
}

func save(p *plot.Plot, fig Figure, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	c := vgimg.NewWith(vgimg.UseWH(fig.Width, fig.Height), vgimg.UseDPI(fig.DPI), vgimg.UseBackgroundColor(color.White))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close plot file: %w", err)
	}
	return nil
}
