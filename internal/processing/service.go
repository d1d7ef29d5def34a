package processing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/scopecap/internal/analysis"
	"github.com/RMahshie/scopecap/internal/capturefile"
	"github.com/RMahshie/scopecap/internal/plotting"
	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/internal/storage"
	"github.com/RMahshie/scopecap/pkg/models"
)

// ErrUnknownChannel is returned for channel names other than A..D
var ErrUnknownChannel = errors.New("unknown channel")

type ProcessingService interface {
	RenderSignal(ctx context.Context, c *models.Capture) (string, error)
	RenderSpectrum(ctx context.Context, c *models.Capture) (string, error)
	ProcessCapture(ctx context.Context, captureID uuid.UUID) error
	Spectrum(ctx context.Context, captureID uuid.UUID, channel string, maxFrequency float64) (*models.GetSpectrumResponseBody, error)
}

// Config sets where plots go and how they look
type Config struct {
	SignalDir string
	FFTDir    string
	Window    plotting.Window
	Figure    plotting.Figure
}

// DefaultConfig renders into signal/ and ffts/ with the default window
func DefaultConfig() Config {
	return Config{
		SignalDir: "signal",
		FFTDir:    "ffts",
		Window:    plotting.DefaultWindow,
		Figure:    plotting.DefaultFigure,
	}
}

type processingService struct {
	repository repository.CaptureRepository
	archiver   storage.Archiver
	cfg        Config
}

// NewProcessingService builds the service. repo and archiver may be nil when
// only RenderSignal and RenderSpectrum are used.
func NewProcessingService(repo repository.CaptureRepository, archiver storage.Archiver, cfg Config) ProcessingService {
	return &processingService{
		repository: repo,
		archiver:   archiver,
		cfg:        cfg,
	}
}

// SignalPlotPath is the time-domain image path for a capture timestamp
func SignalPlotPath(dir, timestamp string) string {
	return filepath.Join(dir, "signal_"+timestamp+".png")
}

// SpectrumPlotPath is the spectrum image path for a capture timestamp
func SpectrumPlotPath(dir, timestamp string) string {
	return filepath.Join(dir, "fft_"+timestamp+".png")
}

func (s *processingService) RenderSignal(ctx context.Context, c *models.Capture) (string, error) {
	ts, err := analysis.ComputeTimeSeries(c)
	if err != nil {
		return "", err
	}
	path := SignalPlotPath(s.cfg.SignalDir, c.TimestampString())
	title := plotting.Title(c.TimestampString(), c.SamplingRate)
	if err := plotting.Signal(ts, title, s.cfg.Figure, path); err != nil {
		return "", fmt.Errorf("failed to plot signal: %w", err)
	}
	log.Info().Str("path", path).Msg("Signal plot written")
	return path, nil
}

func (s *processingService) RenderSpectrum(ctx context.Context, c *models.Capture) (string, error) {
	spectrum, err := analysis.ComputeSpectrum(c)
	if err != nil {
		return "", err
	}
	path := SpectrumPlotPath(s.cfg.FFTDir, c.TimestampString())
	title := plotting.Title(c.TimestampString(), c.SamplingRate)
	if err := plotting.Spectrum(spectrum, title, s.cfg.Window, s.cfg.Figure, path); err != nil {
		return "", fmt.Errorf("failed to plot spectrum: %w", err)
	}
	log.Info().Str("path", path).Msg("Spectrum plot written")
	return path, nil
}

// ProcessCapture renders both plots of a catalogued capture and records the
// outcome. Failures after the record is found are stored on the record as
// well as returned.
func (s *processingService) ProcessCapture(ctx context.Context, captureID uuid.UUID) error {
	record, err := s.repository.GetByID(ctx, captureID)
	if err != nil {
		return err
	}

	if err := s.repository.UpdatePlotStatus(ctx, captureID, models.PlotStatusRendering); err != nil {
		return err
	}

	signalPath, spectrumPath, err := s.render(ctx, record)
	if err != nil {
		if uerr := s.repository.UpdateError(ctx, captureID, err.Error()); uerr != nil {
			log.Error().Err(uerr).Str("capture_id", captureID.String()).Msg("Failed to record render error")
		}
		return err
	}

	return s.repository.StorePlots(ctx, captureID, signalPath, spectrumPath)
}

func (s *processingService) render(ctx context.Context, record *models.CaptureRecord) (string, string, error) {
	capture, err := s.load(ctx, record)
	if err != nil {
		return "", "", err
	}
	signalPath, err := s.RenderSignal(ctx, capture)
	if err != nil {
		return "", "", err
	}
	spectrumPath, err := s.RenderSpectrum(ctx, capture)
	if err != nil {
		return "", "", err
	}
	return signalPath, spectrumPath, nil
}

func (s *processingService) Spectrum(ctx context.Context, captureID uuid.UUID, channel string, maxFrequency float64) (*models.GetSpectrumResponseBody, error) {
	idx, ok := models.ChannelIndex(channel)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownChannel, channel)
	}

	record, err := s.repository.GetByID(ctx, captureID)
	if err != nil {
		return nil, err
	}
	capture, err := s.load(ctx, record)
	if err != nil {
		return nil, err
	}

	mags, err := analysis.Magnitude(capture.Channels[idx])
	if err != nil {
		return nil, err
	}
	spectrum := &analysis.Spectrum{
		SamplingRate: capture.SamplingRate,
		Frequencies:  analysis.FrequencyAxis(capture.SamplingRate, capture.Len()),
	}
	spectrum.Magnitudes[idx] = mags

	return &models.GetSpectrumResponseBody{
		ID:            record.ID,
		Channel:       channel,
		SamplingRate:  capture.SamplingRate,
		Samples:       capture.Len(),
		FrequencyData: spectrum.Points(idx, maxFrequency),
	}, nil
}

// load reads the capture from its local path, falling back to the archive
// when the local file is gone.
func (s *processingService) load(ctx context.Context, record *models.CaptureRecord) (*models.Capture, error) {
	capture, err := capturefile.ReadFile(record.Path)
	if err == nil {
		return capture, nil
	}
	if !errors.Is(err, os.ErrNotExist) || record.ArchivePath == nil || s.archiver == nil {
		return nil, fmt.Errorf("failed to load capture: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "scopecap-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	local := filepath.Join(tmpDir, record.FileName)
	if err := s.archiver.Fetch(ctx, *record.ArchivePath, local); err != nil {
		return nil, fmt.Errorf("failed to fetch archived capture: %w", err)
	}
	log.Debug().Str("archive", *record.ArchivePath).Msg("Loaded capture from archive")
	return capturefile.ReadFile(local)
}
