package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/scopecap/internal/processing"
	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/pkg/models"
)

// CaptureHandler handles capture catalog HTTP requests
type CaptureHandler struct {
	repo          repository.CaptureRepository
	processingSvc processing.ProcessingService
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(repo repository.CaptureRepository, processingSvc processing.ProcessingService) *CaptureHandler {
	return &CaptureHandler{
		repo:          repo,
		processingSvc: processingSvc,
	}
}

func parseID(id string) (uuid.UUID, error) {
	captureID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, huma.Error400BadRequest("Invalid capture ID", err)
	}
	return captureID, nil
}

func lookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return huma.Error404NotFound("Capture not found", err)
	}
	return huma.Error500InternalServerError("Failed to load capture", err)
}

// ListCaptures returns the newest catalog entries
func (h *CaptureHandler) ListCaptures(ctx context.Context, req *models.ListCapturesRequest) (*models.ListCapturesResponse, error) {
	records, err := h.repo.List(ctx, req.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list captures", err)
	}
	if records == nil {
		records = []*models.CaptureRecord{}
	}

	resp := &models.ListCapturesResponse{}
	resp.Body.Captures = records
	return resp, nil
}

// GetCapture returns one catalog entry
func (h *CaptureHandler) GetCapture(ctx context.Context, req *models.GetCaptureRequest) (*models.GetCaptureResponse, error) {
	captureID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	record, err := h.repo.GetByID(ctx, captureID)
	if err != nil {
		return nil, lookupError(err)
	}
	return &models.GetCaptureResponse{Body: record}, nil
}

// GetSpectrum computes the magnitude spectrum of one channel
func (h *CaptureHandler) GetSpectrum(ctx context.Context, req *models.GetSpectrumRequest) (*models.GetSpectrumResponse, error) {
	captureID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	body, err := h.processingSvc.Spectrum(ctx, captureID, req.Channel, req.MaxFrequency)
	if err != nil {
		if errors.Is(err, processing.ErrUnknownChannel) {
			return nil, huma.Error400BadRequest("Unknown channel", err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, lookupError(err)
		}
		return nil, huma.Error500InternalServerError("Failed to compute spectrum", err)
	}

	log.Info().
		Str("captureID", captureID.String()).
		Str("channel", req.Channel).
		Int("points", len(body.FrequencyData)).
		Msg("Spectrum computed")
	return &models.GetSpectrumResponse{Body: *body}, nil
}

// RenderPlots starts rendering a capture's plots in the background
func (h *CaptureHandler) RenderPlots(ctx context.Context, req *models.RenderPlotsRequest) (*models.RenderPlotsResponse, error) {
	captureID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	if _, err := h.repo.GetByID(ctx, captureID); err != nil {
		return nil, lookupError(err)
	}

	// Render in background; the service records failures on the capture
	go func() {
		if err := h.processingSvc.ProcessCapture(context.Background(), captureID); err != nil {
			log.Error().Err(err).Str("captureID", captureID.String()).Msg("Plot rendering failed")
		}
	}()

	resp := &models.RenderPlotsResponse{}
	resp.Body.Message = "Rendering started"
	return resp, nil
}
