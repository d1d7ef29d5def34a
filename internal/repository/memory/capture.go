// Package memory keeps the capture catalog in process memory, for runs
// without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/pkg/models"
	"github.com/google/uuid"
)

// CaptureRepository is a map-backed repository.CaptureRepository
type CaptureRepository struct {
	mu      sync.RWMutex
	records map[string]*models.CaptureRecord
}

// NewCaptureRepository returns an empty catalog
func NewCaptureRepository() *CaptureRepository {
	return &CaptureRepository{records: make(map[string]*models.CaptureRecord)}
}

func clone(r *models.CaptureRecord) *models.CaptureRecord {
	c := *r
	return &c
}

func (m *CaptureRepository) Create(ctx context.Context, record *models.CaptureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; ok {
		return fmt.Errorf("capture %s already exists", record.ID)
	}
	m.records[record.ID] = clone(record)
	return nil
}

func (m *CaptureRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaptureRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r), nil
}

func (m *CaptureRepository) List(ctx context.Context, limit int) ([]*models.CaptureRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]*models.CaptureRecord, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, clone(r))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *CaptureRepository) update(id uuid.UUID, fn func(*models.CaptureRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id.String()]
	if !ok {
		return repository.ErrNotFound
	}
	fn(r)
	r.UpdatedAt = time.Now()
	return nil
}

func (m *CaptureRepository) UpdateArchivePath(ctx context.Context, id uuid.UUID, archivePath string) error {
	return m.update(id, func(r *models.CaptureRecord) {
		r.ArchivePath = &archivePath
	})
}

func (m *CaptureRepository) UpdatePlotStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.update(id, func(r *models.CaptureRecord) {
		r.PlotStatus = status
	})
}

func (m *CaptureRepository) StorePlots(ctx context.Context, id uuid.UUID, signalPlotPath, spectrumPlotPath string) error {
	return m.update(id, func(r *models.CaptureRecord) {
		r.SignalPlotPath = &signalPlotPath
		r.SpectrumPlotPath = &spectrumPlotPath
		r.PlotStatus = models.PlotStatusRendered
		r.ErrorMsg = nil
	})
}

func (m *CaptureRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return m.update(id, func(r *models.CaptureRecord) {
		r.PlotStatus = models.PlotStatusFailed
		r.ErrorMsg = &errorMsg
	})
}

var _ repository.CaptureRepository = (*CaptureRepository)(nil)
