// Package catalog selects the capture catalog backend from a database URL.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/scopecap/internal/capturefile"
	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/internal/repository/memory"
	"github.com/RMahshie/scopecap/internal/repository/postgres"
)

// Open connects to PostgreSQL and migrates the schema, or returns an
// in-memory catalog when url is empty. The returned func releases the
// connection pool.
func Open(ctx context.Context, url string) (repository.CaptureRepository, func() error, error) {
	if url == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory catalog")
		return memory.NewCaptureRepository(), func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := postgres.NewPostgresCaptureRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, db.Close, nil
}

// Seed adds a record for every capture file in dirs that the catalog does
// not know yet and returns how many were added. Capture IDs derive from the
// file timestamp, so seeding twice adds nothing. Missing directories are
// skipped.
func Seed(ctx context.Context, repo repository.CaptureRepository, dirs ...string) (int, error) {
	added := 0
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		files, err := capturefile.List(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to list %s: %w", dir, err)
		}

		for _, path := range files {
			record, err := capturefile.Describe(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable capture file")
				continue
			}
			id, err := uuid.Parse(record.ID)
			if err != nil {
				return added, err
			}
			if _, err := repo.GetByID(ctx, id); err == nil {
				continue
			} else if !errors.Is(err, repository.ErrNotFound) {
				return added, err
			}
			if err := repo.Create(ctx, record); err != nil {
				return added, fmt.Errorf("failed to catalog %s: %w", path, err)
			}
			added++
		}
	}
	return added, nil
}
