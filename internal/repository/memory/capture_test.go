package memory

import (
	"context"
	"testing"
	"time"

	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(ts time.Time) *models.CaptureRecord {
	c := models.NewCapture(ts, 1000, [4][]float64{{0}, {0}, {0}, {0}}, []float64{0})
	return models.NewCaptureRecord(c, c.FileName())
}

func TestCaptureRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCaptureRepository()

	first := record(time.Date(2025, 4, 11, 13, 35, 48, 0, time.UTC))
	second := record(time.Date(2025, 4, 11, 13, 35, 53, 0, time.UTC))
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Error(t, repo.Create(ctx, first))

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	list, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	id := uuid.MustParse(first.ID)
	require.NoError(t, repo.UpdateArchivePath(ctx, id, "/archive/a.parquet"))
	require.NoError(t, repo.UpdateError(ctx, id, "boom"))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PlotStatusFailed, got.PlotStatus)
	assert.Equal(t, "boom", *got.ErrorMsg)
	assert.Equal(t, "/archive/a.parquet", *got.ArchivePath)

	require.NoError(t, repo.StorePlots(ctx, id, "s.png", "f.png"))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PlotStatusRendered, got.PlotStatus)
	assert.Nil(t, got.ErrorMsg)

	// returned records are copies
	got.PlotStatus = "mutated"
	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PlotStatusRendered, again.PlotStatus)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePlotStatus(ctx, uuid.New(), "x"), repository.ErrNotFound)
}
