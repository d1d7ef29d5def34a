package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RMahshie/scopecap/internal/repository"
	"github.com/RMahshie/scopecap/pkg/models"
	"github.com/google/uuid"
)

const schema = `
	CREATE TABLE IF NOT EXISTS captures (
		id                 UUID PRIMARY KEY,
		file_name          TEXT NOT NULL,
		path               TEXT NOT NULL,
		archive_path       TEXT,
		timestamp          TEXT NOT NULL,
		sampling_rate      DOUBLE PRECISION NOT NULL,
		samples            INTEGER NOT NULL,
		plot_status        TEXT NOT NULL DEFAULT 'captured',
		signal_plot_path   TEXT,
		spectrum_plot_path TEXT,
		error_message      TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS captures_created_at_idx ON captures (created_at DESC);`

// PostgresCaptureRepository implements CaptureRepository for PostgreSQL
type PostgresCaptureRepository struct {
	db *sql.DB
}

// NewPostgresCaptureRepository creates a new PostgreSQL capture repository
func NewPostgresCaptureRepository(db *sql.DB) *PostgresCaptureRepository {
	return &PostgresCaptureRepository{db: db}
}

// Migrate creates the captures table if it does not exist
func (r *PostgresCaptureRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Create inserts a new capture record
func (r *PostgresCaptureRepository) Create(ctx context.Context, record *models.CaptureRecord) error {
	query := `
		INSERT INTO captures (id, file_name, path, archive_path, timestamp, sampling_rate, samples, plot_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.FileName,
		record.Path,
		record.ArchivePath,
		record.Timestamp,
		record.SamplingRate,
		record.Samples,
		record.PlotStatus,
		record.CreatedAt,
		record.UpdatedAt)

	return err
}

const selectColumns = `
		SELECT id, file_name, path, archive_path, timestamp, sampling_rate, samples, plot_status,
		       signal_plot_path, spectrum_plot_path, error_message, created_at, updated_at
		FROM captures`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.CaptureRecord, error) {
	var record models.CaptureRecord
	var archivePath, signalPlot, spectrumPlot, errorMsg sql.NullString

	err := s.Scan(
		&record.ID,
		&record.FileName,
		&record.Path,
		&archivePath,
		&record.Timestamp,
		&record.SamplingRate,
		&record.Samples,
		&record.PlotStatus,
		&signalPlot,
		&spectrumPlot,
		&errorMsg,
		&record.CreatedAt,
		&record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if archivePath.Valid {
		record.ArchivePath = &archivePath.String
	}
	if signalPlot.Valid {
		record.SignalPlotPath = &signalPlot.String
	}
	if spectrumPlot.Valid {
		record.SpectrumPlotPath = &spectrumPlot.String
	}
	if errorMsg.Valid {
		record.ErrorMsg = &errorMsg.String
	}
	return &record, nil
}

// GetByID retrieves a capture by ID
func (r *PostgresCaptureRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaptureRecord, error) {
	record, err := scanRecord(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return record, err
}

// List retrieves the most recent captures
func (r *PostgresCaptureRepository) List(ctx context.Context, limit int) ([]*models.CaptureRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.CaptureRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *PostgresCaptureRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateArchivePath records where the capture was archived
func (r *PostgresCaptureRepository) UpdateArchivePath(ctx context.Context, id uuid.UUID, archivePath string) error {
	return r.exec(ctx, `
		UPDATE captures
		SET archive_path = $1, updated_at = NOW()
		WHERE id = $2`, archivePath, id)
}

// UpdatePlotStatus updates the plot rendering status
func (r *PostgresCaptureRepository) UpdatePlotStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.exec(ctx, `
		UPDATE captures
		SET plot_status = $1, updated_at = NOW()
		WHERE id = $2`, status, id)
}

// StorePlots records the rendered images and marks the capture rendered
func (r *PostgresCaptureRepository) StorePlots(ctx context.Context, id uuid.UUID, signalPlotPath, spectrumPlotPath string) error {
	return r.exec(ctx, `
		UPDATE captures
		SET signal_plot_path = $1, spectrum_plot_path = $2, plot_status = 'rendered',
		    error_message = NULL, updated_at = NOW()
		WHERE id = $3`, signalPlotPath, spectrumPlotPath, id)
}

// UpdateError marks rendering as failed with a message
func (r *PostgresCaptureRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.exec(ctx, `
		UPDATE captures
		SET plot_status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`, errorMsg, id)
}
