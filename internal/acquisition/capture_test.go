package acquisition

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/scopecap/internal/capturefile"
	"github.com/RMahshie/scopecap/internal/picosdk"
	"github.com/RMahshie/scopecap/pkg/models"
)

// testConfig captures 10 ms at 100 kS/s (timebase 628 at 12-bit).
func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Duration = 10 * time.Millisecond
	cfg.SampleRate = 100000
	cfg.Timebase = 628
	cfg.PreTrigger = 100
	cfg.DataDir = t.TempDir()
	return cfg
}

func constantScope() *picosdk.Simulated {
	sim := picosdk.NewSimulated()
	sim.Signals = map[picosdk.Channel]picosdk.Waveform{
		picosdk.ChannelA: picosdk.Constant(1000),
		picosdk.ChannelB: picosdk.Constant(500),
		picosdk.ChannelC: picosdk.Constant(250),
		picosdk.ChannelD: picosdk.Constant(-100),
	}
	return sim
}

func newTestCapturer(t *testing.T, sim *picosdk.Simulated) *Capturer {
	t.Helper()
	c, err := NewCapturer(sim, testConfig(t))
	require.NoError(t, err)
	c.Now = func() time.Time { return time.Date(2025, 4, 11, 13, 35, 48, 0, time.Local) }
	return c
}

func TestSamples(t *testing.T) {
	assert.Equal(t, int64(1500000), DefaultConfig().Samples())
	assert.Equal(t, int64(1000), testConfig(t).Samples())
}

func TestSamplesSaturates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 3 * time.Hour
	cfg.SampleRate = 1000000
	assert.Equal(t, int64(10800000000), cfg.Samples())

	cfg.Duration = 10 * time.Second
	cfg.SampleRate = 1000000000
	assert.Equal(t, int64(10000000000), cfg.Samples())

	cfg.Duration = 1 << 62
	cfg.SampleRate = 1 << 40
	assert.Equal(t, int64(math.MaxInt64), cfg.Samples())

	cfg.SampleRate = -5
	assert.Zero(t, cfg.Samples())
}

func TestNewCapturerRejectsOversizedBlock(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 3 * time.Hour
	cfg.SampleRate = 1000000

	_, err := NewCapturer(picosdk.NewSimulated(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10800000000 samples per channel")
}

func TestNewCapturerValidation(t *testing.T) {
	sim := picosdk.NewSimulated()

	cfg := testConfig(t)
	cfg.PreTrigger = 1001
	_, err := NewCapturer(sim, cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Duration = 0
	_, err = NewCapturer(sim, cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.DataDir = ""
	_, err = NewCapturer(sim, cfg)
	assert.Error(t, err)
}

func TestCapture(t *testing.T) {
	sim := constantScope()
	sim.ReadyAfter = 3
	c := newTestCapturer(t, sim)

	path, capture, err := c.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acquisition_2025-04-11_13-35-48.parquet", filepath.Base(path))
	assert.Equal(t, 1000, capture.Len())
	assert.InDelta(t, 100000.0, capture.SamplingRate, 1e-6)
	assert.Equal(t, 0.0, capture.Time[0])
	assert.Equal(t, 10000.0, capture.Time[1])
	assert.Equal(t, 9990000.0, capture.Time[999])

	// each channel is converted with its own range
	assert.InDelta(t, 1000, capture.Channels[0][0], 1)
	assert.InDelta(t, 500, capture.Channels[1][0], 0.1)
	assert.InDelta(t, 250, capture.Channels[2][0], 0.1)
	assert.InDelta(t, -100, capture.Channels[3][0], 0.1)

	assert.False(t, sim.IsOpen())
	assert.Equal(t, []string{
		"OpenUnit",
		"SetChannel", "SetChannel", "SetChannel", "SetChannel",
		"MaximumValue",
		"SetTriggerChannelPropertiesV2",
		"SetTriggerChannelConditionsV2", "SetTriggerChannelConditionsV2",
		"SetTriggerChannelConditionsV2", "SetTriggerChannelConditionsV2",
		"SetTriggerChannelDirectionsV2",
		"GetTimebase2",
		"RunBlock",
		"IsReady", "IsReady", "IsReady", "IsReady",
		"SetDataBuffers", "SetDataBuffers", "SetDataBuffers", "SetDataBuffers",
		"GetValues",
		"Stop",
		"CloseUnit",
	}, sim.Calls())

	stored, err := capturefile.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, capture.ID, stored.ID)
	assert.Equal(t, capture.Channels[2], stored.Channels[2])
}

func TestCapturePowerSourceRecovery(t *testing.T) {
	for _, st := range []picosdk.Status{picosdk.StatusPowerSupplyNotConnected, picosdk.StatusUSB3DeviceNonUSB3Port} {
		t.Run(st.String(), func(t *testing.T) {
			sim := constantScope()
			sim.OpenStatus = st
			c := newTestCapturer(t, sim)

			_, _, err := c.Capture(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"OpenUnit", "ChangePowerSource", "SetChannel"}, sim.Calls()[:3])
		})
	}
}

func TestCaptureOpenFailure(t *testing.T) {
	sim := constantScope()
	sim.OpenStatus = picosdk.StatusNotFound
	c := newTestCapturer(t, sim)

	_, _, err := c.Capture(context.Background())
	require.Error(t, err)

	code, ok := picosdk.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, picosdk.StatusNotFound, code)
	assert.NotContains(t, sim.Calls(), "ChangePowerSource")
}

func TestCaptureStatusSurfaced(t *testing.T) {
	sim := constantScope()
	sim.Fail = map[string]picosdk.Status{"RunBlock": picosdk.StatusInvalidParameter}
	c := newTestCapturer(t, sim)

	_, _, err := c.Capture(context.Background())
	require.Error(t, err)

	var se *picosdk.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ps5000aRunBlock", se.Op)
	assert.Equal(t, picosdk.StatusInvalidParameter, se.Code)

	// the next capture closes the handle left open by the failure
	sim.Fail = nil
	_, _, err = c.Capture(context.Background())
	require.NoError(t, err)
}

func TestCaptureShortRead(t *testing.T) {
	sim := constantScope()
	sim.ShortRead = 500
	c := newTestCapturer(t, sim)

	_, _, err := c.Capture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short read")
}

func TestCaptureCancelledWhileWaiting(t *testing.T) {
	sim := constantScope()
	sim.ReadyAfter = 1 << 30
	c := newTestCapturer(t, sim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sim.IsOpen())

	require.NoError(t, c.Close())
	assert.False(t, sim.IsOpen())
}

func TestStopFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	sim := constantScope()
	sim.ReadyAfter = 1 << 30
	c := newTestCapturer(t, sim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim.Fail = map[string]picosdk.Status{"Stop": picosdk.StatusInvalidHandle}

	_, _, err := c.Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, c.Close())
	assert.False(t, sim.IsOpen())
	assert.Equal(t, 2, strings.Count(buf.String(), "ps5000aStop"))
}

type recordingRenderer struct {
	captures []*models.Capture
}

func (r *recordingRenderer) RenderSignal(ctx context.Context, c *models.Capture) (string, error) {
	r.captures = append(r.captures, c)
	return "signal/signal_" + c.TimestampString() + ".png", nil
}

func TestCaptureRendersSignal(t *testing.T) {
	sim := constantScope()
	c := newTestCapturer(t, sim)
	r := &recordingRenderer{}
	c.Renderer = r

	_, capture, err := c.Capture(context.Background())
	require.NoError(t, err)
	require.Len(t, r.captures, 1)
	assert.Same(t, capture, r.captures[0])
}
