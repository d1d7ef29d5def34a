package acquisition

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/scopecap/internal/capturefile"
	"github.com/RMahshie/scopecap/internal/repository/memory"
	"github.com/RMahshie/scopecap/internal/storage"
	"github.com/RMahshie/scopecap/pkg/models"
)

// MockArchiver is a mock implementation of storage.Archiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	args := m.Called(ctx, localPath)
	return args.String(0), args.Error(1)
}

func (m *MockArchiver) Fetch(ctx context.Context, location, destPath string) error {
	args := m.Called(ctx, location, destPath)
	return args.Error(0)
}

// steppingClock advances one second per call so file names never collide.
func steppingClock() func() time.Time {
	t := time.Date(2025, 4, 11, 13, 35, 48, 0, time.Local)
	return func() time.Time {
		now := t
		t = t.Add(time.Second)
		return now
	}
}

func TestLoopArchivesEveryCapture(t *testing.T) {
	ctx := context.Background()
	c := newTestCapturer(t, constantScope())
	c.Now = steppingClock()

	archiveDir := filepath.Join(t.TempDir(), "try")
	archiver, err := storage.NewLocalArchiver(archiveDir)
	require.NoError(t, err)
	repo := memory.NewCaptureRepository()

	loop := NewLoop(c, archiver, repo, 0)
	loop.MaxCycles = 3
	require.NoError(t, loop.Run(ctx))

	archived, err := capturefile.List(archiveDir)
	require.NoError(t, err)
	assert.Len(t, archived, 3)
	assert.Equal(t, "acquisition_2025-04-11_13-35-50.parquet", filepath.Base(archived[2]))

	records, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		require.NotNil(t, r.ArchivePath)
		assert.Equal(t, filepath.Join(archiveDir, r.FileName), *r.ArchivePath)
		assert.Equal(t, models.PlotStatusCaptured, r.PlotStatus)
		assert.Equal(t, 1000, r.Samples)
	}
}

func TestLoopWithoutCatalog(t *testing.T) {
	c := newTestCapturer(t, constantScope())

	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.AnythingOfType("string")).Return("captures/a.parquet", nil).Once()

	loop := NewLoop(c, archiver, nil, 0)
	loop.MaxCycles = 1
	require.NoError(t, loop.Run(context.Background()))
	archiver.AssertExpectations(t)
}

func TestLoopStopsOnArchiveError(t *testing.T) {
	sim := constantScope()
	c := newTestCapturer(t, sim)

	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.AnythingOfType("string")).Return("", errors.New("disk full"))

	loop := NewLoop(c, archiver, memory.NewCaptureRepository(), 0)
	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle 1")
	assert.Contains(t, err.Error(), "disk full")
	archiver.AssertNumberOfCalls(t, "Archive", 1)
}

func TestLoopStopsOnCancel(t *testing.T) {
	sim := constantScope()
	c := newTestCapturer(t, sim)
	archiver := new(MockArchiver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := NewLoop(c, archiver, nil, time.Hour)
	require.NoError(t, loop.Run(ctx))
	assert.Empty(t, sim.Calls())
	archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
}

func TestLoopCancelDuringInterval(t *testing.T) {
	c := newTestCapturer(t, constantScope())
	c.Now = steppingClock()

	archiver, err := storage.NewLocalArchiver(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	loop := NewLoop(c, archiver, nil, time.Hour)
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}
