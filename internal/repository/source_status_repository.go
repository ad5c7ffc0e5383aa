package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// SourceStatusRepository persists the outcome of the latest fetch of every source,
// so staleness survives a restart.
type SourceStatusRepository struct {
	db *sql.DB
}

// NewSourceStatusRepository creates a new SourceStatusRepository with the provided database connection.
func NewSourceStatusRepository(db *sql.DB) *SourceStatusRepository {
	return &SourceStatusRepository{db: db}
}

// Upsert stores the status for its source, replacing any previous row.
func (r *SourceStatusRepository) Upsert(ctx context.Context, s model.SourceStatus) error {
	query := `
		INSERT INTO source_status (source, status, fetched_at, attempted_at, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			status = excluded.status,
			fetched_at = excluded.fetched_at,
			attempted_at = excluded.attempted_at,
			error = excluded.error
	`

	var fetchedAt sql.NullString
	if !s.FetchedAt.IsZero() {
		fetchedAt = sql.NullString{String: FormatTime(s.FetchedAt), Valid: true}
	}
	var errText sql.NullString
	if s.Error != "" {
		errText = sql.NullString{String: s.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		s.SourceID,
		s.Status,
		fetchedAt,
		FormatTime(s.AttemptedAt),
		errText,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source_status: %w", err)
	}

	return nil
}

// GetAll returns the stored status of every source, ordered by source ID.
func (r *SourceStatusRepository) GetAll(ctx context.Context) ([]model.SourceStatus, error) {
	query := `
		SELECT source, status, fetched_at, attempted_at, error
		FROM source_status
		ORDER BY source ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query source_status table: %w", err)
	}
	defer rows.Close()

	statuses := []model.SourceStatus{}

	for rows.Next() {
		var s model.SourceStatus
		var fetchedAt, errText sql.NullString
		var attemptedAt string

		if err := rows.Scan(&s.SourceID, &s.Status, &fetchedAt, &attemptedAt, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan source_status results: %w", err)
		}

		if s.AttemptedAt, err = ParseTime(attemptedAt); err != nil {
			return nil, err
		}
		if fetchedAt.Valid {
			if s.FetchedAt, err = ParseTime(fetchedAt.String); err != nil {
				return nil, err
			}
		}
		if errText.Valid {
			s.Error = errText.String
		}

		statuses = append(statuses, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source_status table: %w", err)
	}

	return statuses, nil
}
