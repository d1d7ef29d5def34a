package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/internal/storage"
	"github.com/RMahshie/scopecap/pkg/models"
)

// capturer performs a single capture and returns the written file.
type capturer interface {
	Capture(ctx context.Context) (string, *models.Capture, error)
	Close() error
}

// Loop captures, archives and catalogs on a fixed interval.
type Loop struct {
	capturer capturer
	archiver storage.Archiver
	repo     repository.CaptureRepository

	// Interval is the pause after each cycle.
	Interval time.Duration
	// MaxCycles stops the loop after that many captures. Zero runs forever.
	MaxCycles int
}

// NewLoop wires a loop. repo may be nil to skip cataloging.
func NewLoop(c *Capturer, archiver storage.Archiver, repo repository.CaptureRepository, interval time.Duration) *Loop {
	return &Loop{
		capturer: c,
		archiver: archiver,
		repo:     repo,
		Interval: interval,
	}
}

// Run cycles until ctx is cancelled, MaxCycles is reached or a step fails.
// Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.capturer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close scope")
		}
	}()

	for cycle := 1; l.MaxCycles == 0 || cycle <= l.MaxCycles; cycle++ {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		if err := l.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		log.Info().
			Int("cycle", cycle).
			Dur("elapsed", time.Since(start)).
			Msg("Acquisition cycle complete")

		if l.MaxCycles != 0 && cycle == l.MaxCycles {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.Interval):
		}
	}
	return nil
}

func (l *Loop) cycle(ctx context.Context) error {
	path, capture, err := l.capturer.Capture(ctx)
	if err != nil {
		return err
	}

	archived, err := l.archiver.Archive(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	log.Info().Str("archive", archived).Msg("Capture archived")

	if l.repo == nil {
		return nil
	}
	record := models.NewCaptureRecord(capture, path)
	if err := l.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to record capture: %w", err)
	}
	if err := l.repo.UpdateArchivePath(ctx, capture.ID, archived); err != nil {
		return fmt.Errorf("failed to record archive path: %w", err)
	}
	return nil
}

var _ capturer = (*Capturer)(nil)
