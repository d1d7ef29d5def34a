package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Scope       ScopeConfig
	Acquisition AcquisitionConfig
	Analysis    AnalysisConfig
	Archive     ArchiveConfig
}

// DatabaseConfig holds database configuration. An empty URL selects the
// in-memory catalog.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// ScopeConfig holds oscilloscope settings
type ScopeConfig struct {
	Driver         string
	ResolutionBits int
	// Ranges holds the range labels of channels A..D, e.g. "20V".
	Ranges       [4]string
	Duration     time.Duration
	SampleRate   int64
	Timebase     uint32
	PreTrigger   int32
	PollInterval time.Duration
}

// AcquisitionConfig holds capture loop settings
type AcquisitionConfig struct {
	DataDir    string
	Interval   time.Duration
	MaxCycles  int
	PlotSignal bool
}

// AnalysisConfig holds plotting settings
type AnalysisConfig struct {
	SignalDir    string
	FFTDir       string
	MaxFrequency float64
	MaxAmplitude float64
}

// ArchiveConfig holds archive backend configuration
type ArchiveConfig struct {
	Backend         string
	Dir             string
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

var keys = []string{
	"DATABASE_URL",
	"PORT",
	"ENVIRONMENT",
	"ALLOWED_ORIGINS",
	"SCOPE_DRIVER",
	"SCOPE_RESOLUTION",
	"SCOPE_RANGE_A",
	"SCOPE_RANGE_B",
	"SCOPE_RANGE_C",
	"SCOPE_RANGE_D",
	"SCOPE_DURATION",
	"SCOPE_SAMPLE_RATE",
	"SCOPE_TIMEBASE",
	"SCOPE_PRE_TRIGGER",
	"SCOPE_POLL_INTERVAL",
	"DATA_DIR",
	"ACQUISITION_INTERVAL",
	"MAX_CYCLES",
	"PLOT_SIGNAL",
	"SIGNAL_DIR",
	"FFT_DIR",
	"SPECTRUM_MAX_FREQUENCY",
	"SPECTRUM_MAX_AMPLITUDE",
	"ARCHIVE_BACKEND",
	"ARCHIVE_DIR",
	"ARCHIVE_BUCKET",
	"ARCHIVE_PREFIX",
	"ARCHIVE_ENDPOINT",
	"ARCHIVE_USE_SSL",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("SCOPE_DRIVER", "sim")
	v.SetDefault("SCOPE_RESOLUTION", 12)
	v.SetDefault("SCOPE_RANGE_A", "20V")
	v.SetDefault("SCOPE_RANGE_B", "2V")
	v.SetDefault("SCOPE_RANGE_C", "2V")
	v.SetDefault("SCOPE_RANGE_D", "2V")
	v.SetDefault("SCOPE_DURATION", "3s")
	v.SetDefault("SCOPE_SAMPLE_RATE", 500000)
	v.SetDefault("SCOPE_TIMEBASE", 128)
	v.SetDefault("SCOPE_PRE_TRIGGER", 10000)
	v.SetDefault("SCOPE_POLL_INTERVAL", "0s")

	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("ACQUISITION_INTERVAL", "5s")
	v.SetDefault("MAX_CYCLES", 0)
	v.SetDefault("PLOT_SIGNAL", false)

	v.SetDefault("SIGNAL_DIR", "signal")
	v.SetDefault("FFT_DIR", "ffts")
	v.SetDefault("SPECTRUM_MAX_FREQUENCY", 1000.0)
	v.SetDefault("SPECTRUM_MAX_AMPLITUDE", 10.0)

	v.SetDefault("ARCHIVE_BACKEND", "local")
	v.SetDefault("ARCHIVE_DIR", "try")
	v.SetDefault("ARCHIVE_BUCKET", "scopecap-captures")
	v.SetDefault("ARCHIVE_PREFIX", "")
	v.SetDefault("ARCHIVE_ENDPOINT", "")
	v.SetDefault("ARCHIVE_USE_SSL", false)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	return load(viper.New(), ".")
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	// Environment variables override .env file values
	v.AutomaticEnv()
	for _, key := range keys {
		v.BindEnv(key)
	}

	// Read from .env files based on environment
	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(configPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read .env.%s: %w", env, err)
		}
	}

	var config Config
	config.Database.URL = v.GetString("DATABASE_URL")
	config.Server.Port = v.GetString("PORT")
	config.Server.Env = env
	config.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))

	config.Scope.Driver = v.GetString("SCOPE_DRIVER")
	config.Scope.ResolutionBits = v.GetInt("SCOPE_RESOLUTION")
	for i, ch := range []string{"A", "B", "C", "D"} {
		config.Scope.Ranges[i] = v.GetString("SCOPE_RANGE_" + ch)
	}
	config.Scope.Duration = v.GetDuration("SCOPE_DURATION")
	config.Scope.SampleRate = v.GetInt64("SCOPE_SAMPLE_RATE")
	config.Scope.Timebase = v.GetUint32("SCOPE_TIMEBASE")
	config.Scope.PreTrigger = v.GetInt32("SCOPE_PRE_TRIGGER")
	config.Scope.PollInterval = v.GetDuration("SCOPE_POLL_INTERVAL")

	config.Acquisition.DataDir = v.GetString("DATA_DIR")
	config.Acquisition.Interval = v.GetDuration("ACQUISITION_INTERVAL")
	config.Acquisition.MaxCycles = v.GetInt("MAX_CYCLES")
	config.Acquisition.PlotSignal = v.GetBool("PLOT_SIGNAL")

	config.Analysis.SignalDir = v.GetString("SIGNAL_DIR")
	config.Analysis.FFTDir = v.GetString("FFT_DIR")
	config.Analysis.MaxFrequency = v.GetFloat64("SPECTRUM_MAX_FREQUENCY")
	config.Analysis.MaxAmplitude = v.GetFloat64("SPECTRUM_MAX_AMPLITUDE")

	config.Archive.Backend = v.GetString("ARCHIVE_BACKEND")
	config.Archive.Dir = v.GetString("ARCHIVE_DIR")
	config.Archive.Bucket = v.GetString("ARCHIVE_BUCKET")
	config.Archive.Prefix = v.GetString("ARCHIVE_PREFIX")
	config.Archive.Endpoint = v.GetString("ARCHIVE_ENDPOINT")
	config.Archive.UseSSL = v.GetBool("ARCHIVE_USE_SSL")
	config.Archive.Region = v.GetString("AWS_REGION")
	config.Archive.AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	config.Archive.SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")

	if config.Scope.Duration <= 0 {
		return nil, fmt.Errorf("SCOPE_DURATION must be positive, got %s", config.Scope.Duration)
	}
	if config.Scope.SampleRate <= 0 {
		return nil, fmt.Errorf("SCOPE_SAMPLE_RATE must be positive, got %d", config.Scope.SampleRate)
	}
	if config.Acquisition.MaxCycles < 0 {
		return nil, fmt.Errorf("MAX_CYCLES must not be negative, got %d", config.Acquisition.MaxCycles)
	}

	log.Debug().
		Str("env", env).
		Str("driver", config.Scope.Driver).
		Str("archive_backend", config.Archive.Backend).
		Bool("database", config.Database.URL != "").
		Msg("Configuration loaded")

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
