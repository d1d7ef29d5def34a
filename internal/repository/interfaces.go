package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/scopecap/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no capture matches the requested ID
var ErrNotFound = errors.New("capture not found")

// CaptureRepository defines the interface for the capture catalog
type CaptureRepository interface {
	Create(ctx context.Context, record *models.CaptureRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CaptureRecord, error)
	List(ctx context.Context, limit int) ([]*models.CaptureRecord, error)
	UpdateArchivePath(ctx context.Context, id uuid.UUID, archivePath string) error
	UpdatePlotStatus(ctx context.Context, id uuid.UUID, status string) error
	StorePlots(ctx context.Context, id uuid.UUID, signalPlotPath, spectrumPlotPath string) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
}
