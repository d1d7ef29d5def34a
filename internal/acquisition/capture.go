// Package acquisition drives a PicoScope through one triggered block capture
// and repeats it on an interval.
package acquisition

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/scopecap/internal/analysis"
	"github.com/RMahshie/scopecap/internal/capturefile"
	"github.com/RMahshie/scopecap/internal/picosdk"
	"github.com/RMahshie/scopecap/pkg/models"
)

// Trigger thresholds applied to every channel, in ADC codes.
const (
	triggerUpper           = 1
	triggerUpperHysteresis = 10
	triggerLower           = 0
	triggerLowerHysteresis = 10
)

// Config describes one block capture.
type Config struct {
	Resolution picosdk.Resolution
	// Ranges holds the input range of channels A..D.
	Ranges     [4]picosdk.Range
	Duration   time.Duration
	SampleRate int64 // requested samples per second
	Timebase   uint32
	PreTrigger int32
	DataDir    string
	// PollInterval is the pause between IsReady polls. Zero spins.
	PollInterval time.Duration
}

// DefaultConfig returns the 12-bit, 3 s, 500 kS/s capture.
func DefaultConfig() Config {
	return Config{
		Resolution: picosdk.Resolution12Bit,
		Ranges:     [4]picosdk.Range{picosdk.Range20V, picosdk.Range2V, picosdk.Range2V, picosdk.Range2V},
		Duration:   3 * time.Second,
		SampleRate: 500000,
		Timebase:   128,
		PreTrigger: 10000,
		DataDir:    "data",
	}
}

// Samples returns duration x rate using integer arithmetic. Non-positive
// inputs give 0 and results beyond int64 saturate at math.MaxInt64.
func (c Config) Samples() int64 {
	if c.Duration <= 0 || c.SampleRate <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(c.Duration), uint64(c.SampleRate))
	if hi >= uint64(time.Second) {
		return math.MaxInt64
	}
	n, _ := bits.Div64(hi, lo, uint64(time.Second))
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// SignalRenderer draws the time-domain plot of a fresh capture.
type SignalRenderer interface {
	RenderSignal(ctx context.Context, c *models.Capture) (string, error)
}

// Capturer owns a driver and performs captures with it. It is not safe for
// concurrent use.
type Capturer struct {
	driver picosdk.Driver
	cfg    Config
	// Renderer, when set, plots every capture after it is written.
	Renderer SignalRenderer
	// Now stamps captures; defaults to time.Now.
	Now func() time.Time
}

// NewCapturer returns a Capturer for driver.
func NewCapturer(driver picosdk.Driver, cfg Config) (*Capturer, error) {
	n := cfg.Samples()
	if n <= 0 {
		return nil, fmt.Errorf("invalid sample count %d (duration %s, rate %d)", n, cfg.Duration, cfg.SampleRate)
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("duration %s at %d S/s needs %d samples per channel, the driver accepts at most %d",
			cfg.Duration, cfg.SampleRate, n, math.MaxInt32)
	}
	if int64(cfg.PreTrigger) > n || cfg.PreTrigger < 0 {
		return nil, fmt.Errorf("pre-trigger %d outside 0..%d", cfg.PreTrigger, n)
	}
	for i, r := range cfg.Ranges {
		if _, err := r.Millivolts(); err != nil {
			return nil, fmt.Errorf("channel %s: %w", picosdk.Channels[i], err)
		}
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	return &Capturer{driver: driver, cfg: cfg, Now: time.Now}, nil
}

// Capture runs one block capture, writes it to the data directory and
// returns the file path. The unit is closed before returning on success;
// on failure the handle is left for the next call to close.
func (c *Capturer) Capture(ctx context.Context) (string, *models.Capture, error) {
	d := c.driver

	if d.IsOpen() {
		if err := picosdk.Check("ps5000aCloseUnit", d.CloseUnit()); err != nil {
			log.Warn().Err(err).Msg("Failed to close previous handle")
		}
	}

	if err := c.open(); err != nil {
		return "", nil, err
	}

	for i, ch := range picosdk.Channels {
		st := d.SetChannel(ch, true, picosdk.CouplingDC, c.cfg.Ranges[i], 0)
		if err := picosdk.Check("ps5000aSetChannel", st); err != nil {
			return "", nil, fmt.Errorf("channel %s: %w", ch, err)
		}
	}

	maxADC, st := d.MaximumValue()
	if err := picosdk.Check("ps5000aMaximumValue", st); err != nil {
		return "", nil, err
	}

	if err := c.setTrigger(); err != nil {
		return "", nil, err
	}

	total := c.cfg.Samples()
	intervalNs, _, st := d.GetTimebase2(c.cfg.Timebase, int32(total), 0)
	if err := picosdk.Check("ps5000aGetTimebase2", st); err != nil {
		return "", nil, err
	}

	pre := c.cfg.PreTrigger
	post := int32(total) - pre
	if err := picosdk.Check("ps5000aRunBlock", d.RunBlock(pre, post, c.cfg.Timebase, 0)); err != nil {
		return "", nil, err
	}
	log.Debug().
		Int64("samples", total).
		Float32("interval_ns", intervalNs).
		Msg("Block capture started")

	if err := c.waitReady(ctx); err != nil {
		return "", nil, err
	}

	for _, ch := range picosdk.Channels {
		st := d.SetDataBuffers(ch, int32(total), 0, picosdk.RatioModeNone)
		if err := picosdk.Check("ps5000aSetDataBuffers", st); err != nil {
			return "", nil, fmt.Errorf("channel %s: %w", ch, err)
		}
	}

	n, overflow, st := d.GetValues(0, uint32(total), 0, picosdk.RatioModeNone, 0)
	if err := picosdk.Check("ps5000aGetValues", st); err != nil {
		return "", nil, err
	}
	if int64(n) != total {
		return "", nil, fmt.Errorf("short read: got %d of %d samples", n, total)
	}
	if overflow != 0 {
		log.Warn().Int16("overflow", overflow).Msg("Input over range")
	}

	var channels [4][]float64
	for i, ch := range picosdk.Channels {
		mv, err := picosdk.ADCToMillivolts(d.Buffer(ch), c.cfg.Ranges[i], maxADC)
		if err != nil {
			return "", nil, fmt.Errorf("channel %s: %w", ch, err)
		}
		channels[i] = mv
	}
	timeNs := analysis.TimeAxis(int(total), float64(intervalNs))

	if err := picosdk.Check("ps5000aStop", d.Stop()); err != nil {
		return "", nil, err
	}
	if err := picosdk.Check("ps5000aCloseUnit", d.CloseUnit()); err != nil {
		return "", nil, err
	}

	sampleRate := 1 / (float64(intervalNs) * 1e-9)
	capture := models.NewCapture(c.Now(), sampleRate, channels, timeNs)
	path, err := capturefile.WriteFile(c.cfg.DataDir, capture)
	if err != nil {
		return "", nil, err
	}

	log.Info().
		Str("path", path).
		Int("samples", capture.Len()).
		Float64("sampling_rate", sampleRate).
		Msg("Capture written")

	if c.Renderer != nil {
		if _, err := c.Renderer.RenderSignal(ctx, capture); err != nil {
			return "", nil, fmt.Errorf("failed to render signal plot: %w", err)
		}
	}

	return path, capture, nil
}

// open opens the unit, switching power source when the scope reports it is
// running from USB power alone.
func (c *Capturer) open() error {
	st := c.driver.OpenUnit(c.cfg.Resolution)
	if st.PowerSourceRecoverable() {
		log.Info().Stringer("status", st).Msg("Changing power source")
		return picosdk.Check("ps5000aChangePowerSource", c.driver.ChangePowerSource(st))
	}
	return picosdk.Check("ps5000aOpenUnit", st)
}

func (c *Capturer) setTrigger() error {
	d := c.driver

	props := make([]picosdk.TriggerChannelProperties, 0, len(picosdk.Channels))
	for _, ch := range picosdk.Channels {
		props = append(props, picosdk.TriggerChannelProperties{
			ThresholdUpper:           triggerUpper,
			ThresholdUpperHysteresis: triggerUpperHysteresis,
			ThresholdLower:           triggerLower,
			ThresholdLowerHysteresis: triggerLowerHysteresis,
			Channel:                  ch,
		})
	}
	if err := picosdk.Check("ps5000aSetTriggerChannelPropertiesV2", d.SetTriggerChannelPropertiesV2(props, 0)); err != nil {
		return err
	}

	for i, ch := range picosdk.Channels {
		info := picosdk.ConditionsAdd
		if i == 0 {
			info |= picosdk.ConditionsClear
		}
		cond := []picosdk.Condition{{Source: ch, State: picosdk.ConditionTrue}}
		if err := picosdk.Check("ps5000aSetTriggerChannelConditionsV2", d.SetTriggerChannelConditionsV2(cond, info)); err != nil {
			return fmt.Errorf("channel %s: %w", ch, err)
		}
	}

	dirs := make([]picosdk.Direction, 0, len(picosdk.Channels))
	for _, ch := range picosdk.Channels {
		dirs = append(dirs, picosdk.Direction{
			Channel:   ch,
			Direction: picosdk.RisingOrFalling,
			Mode:      picosdk.ThresholdLevel,
		})
	}
	return picosdk.Check("ps5000aSetTriggerChannelDirectionsV2", d.SetTriggerChannelDirectionsV2(dirs))
}

// waitReady polls IsReady until the block is complete or ctx is done.
func (c *Capturer) waitReady(ctx context.Context) error {
	for {
		ready, st := c.driver.IsReady()
		if err := picosdk.Check("ps5000aIsReady", st); err != nil {
			return err
		}
		if ready {
			return nil
		}

		if c.cfg.PollInterval <= 0 {
			if err := ctx.Err(); err != nil {
				c.stop()
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			c.stop()
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// Close releases the device handle if one is still open.
func (c *Capturer) Close() error {
	if !c.driver.IsOpen() {
		return nil
	}
	c.stop()
	return picosdk.Check("ps5000aCloseUnit", c.driver.CloseUnit())
}

// stop halts a running block; a failure only gets logged since the handle
// is closed next anyway.
func (c *Capturer) stop() {
	if err := picosdk.Check("ps5000aStop", c.driver.Stop()); err != nil {
		log.Warn().Err(err).Msg("Failed to stop block capture")
	}
}
