package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "unit")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Database.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "unit", cfg.Server.Env)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "sim", cfg.Scope.Driver)
	assert.Equal(t, 12, cfg.Scope.ResolutionBits)
	assert.Equal(t, [4]string{"20V", "2V", "2V", "2V"}, cfg.Scope.Ranges)
	assert.Equal(t, 3*time.Second, cfg.Scope.Duration)
	assert.Equal(t, int64(500000), cfg.Scope.SampleRate)
	assert.Equal(t, uint32(128), cfg.Scope.Timebase)
	assert.Equal(t, int32(10000), cfg.Scope.PreTrigger)

	assert.Equal(t, "data", cfg.Acquisition.DataDir)
	assert.Equal(t, 5*time.Second, cfg.Acquisition.Interval)
	assert.Equal(t, 0, cfg.Acquisition.MaxCycles)

	assert.Equal(t, "signal", cfg.Analysis.SignalDir)
	assert.Equal(t, "ffts", cfg.Analysis.FFTDir)
	assert.Equal(t, 1000.0, cfg.Analysis.MaxFrequency)
	assert.Equal(t, 10.0, cfg.Analysis.MaxAmplitude)

	assert.Equal(t, "local", cfg.Archive.Backend)
	assert.Equal(t, "try", cfg.Archive.Dir)
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	env := "SCOPE_DRIVER=ps5000a\nSCOPE_RANGE_C=500mV\nARCHIVE_BACKEND=minio\nMAX_CYCLES=4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.bench"), []byte(env), 0644))

	t.Setenv("ENVIRONMENT", "bench")
	t.Setenv("MAX_CYCLES", "2")
	t.Setenv("ACQUISITION_INTERVAL", "250ms")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "ps5000a", cfg.Scope.Driver)
	assert.Equal(t, "500mV", cfg.Scope.Ranges[2])
	assert.Equal(t, "minio", cfg.Archive.Backend)
	assert.Equal(t, 2, cfg.Acquisition.MaxCycles)
	assert.Equal(t, 250*time.Millisecond, cfg.Acquisition.Interval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("ENVIRONMENT", "unit")
	t.Setenv("SCOPE_SAMPLE_RATE", "0")

	_, err := load(viper.New(), t.TempDir())
	assert.Error(t, err)
}
