package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/scopecap/internal/acquisition"
	"github.com/RMahshie/scopecap/internal/config"
	"github.com/RMahshie/scopecap/internal/picosdk"
	"github.com/RMahshie/scopecap/internal/plotting"
	"github.com/RMahshie/scopecap/internal/processing"
	"github.com/RMahshie/scopecap/internal/repository/catalog"
	"github.com/RMahshie/scopecap/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		event := log.Fatal().Err(err)
		if code, ok := picosdk.StatusOf(err); ok {
			event = event.Int("status_code", int(code)).Stringer("status", code)
		}
		event.Msg("Acquisition stopped")
	}
	log.Info().Msg("Acquisition finished")
}

func run(ctx context.Context, cfg *config.Config) error {
	captureCfg, err := captureConfig(cfg)
	if err != nil {
		return err
	}

	driver, err := picosdk.New(cfg.Scope.Driver)
	if err != nil {
		return err
	}

	capturer, err := acquisition.NewCapturer(driver, captureCfg)
	if err != nil {
		return err
	}

	archiver, err := storage.NewArchiver(ctx, storage.Config{
		Backend:   cfg.Archive.Backend,
		Dir:       cfg.Archive.Dir,
		Bucket:    cfg.Archive.Bucket,
		Prefix:    cfg.Archive.Prefix,
		Endpoint:  cfg.Archive.Endpoint,
		Region:    cfg.Archive.Region,
		AccessKey: cfg.Archive.AccessKeyID,
		SecretKey: cfg.Archive.SecretAccessKey,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}

	repo, closeRepo, err := catalog.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Acquisition.PlotSignal {
		capturer.Renderer = processing.NewProcessingService(repo, archiver, processing.Config{
			SignalDir: cfg.Analysis.SignalDir,
			FFTDir:    cfg.Analysis.FFTDir,
			Window: plotting.Window{
				MaxFrequency: cfg.Analysis.MaxFrequency,
				MaxAmplitude: cfg.Analysis.MaxAmplitude,
			},
			Figure: plotting.DefaultFigure,
		})
	}

	loop := acquisition.NewLoop(capturer, archiver, repo, cfg.Acquisition.Interval)
	loop.MaxCycles = cfg.Acquisition.MaxCycles

	log.Info().
		Str("driver", cfg.Scope.Driver).
		Int64("samples", captureCfg.Samples()).
		Dur("interval", cfg.Acquisition.Interval).
		Str("archive", cfg.Archive.Backend).
		Msg("Starting acquisition")

	return loop.Run(ctx)
}

// captureConfig translates the scope settings into a capture description
func captureConfig(cfg *config.Config) (acquisition.Config, error) {
	res, err := picosdk.ParseResolution(cfg.Scope.ResolutionBits)
	if err != nil {
		return acquisition.Config{}, err
	}

	var ranges [4]picosdk.Range
	for i, label := range cfg.Scope.Ranges {
		r, err := picosdk.ParseRange(label)
		if err != nil {
			return acquisition.Config{}, fmt.Errorf("SCOPE_RANGE_%s: %w", picosdk.Channels[i], err)
		}
		ranges[i] = r
	}

	return acquisition.Config{
		Resolution:   res,
		Ranges:       ranges,
		Duration:     cfg.Scope.Duration,
		SampleRate:   cfg.Scope.SampleRate,
		Timebase:     cfg.Scope.Timebase,
		PreTrigger:   cfg.Scope.PreTrigger,
		DataDir:      cfg.Acquisition.DataDir,
		PollInterval: cfg.Scope.PollInterval,
	}, nil
}
