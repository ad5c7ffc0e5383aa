package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// HistoryRepository is the append-only timeseries store backed by the price_history table.
// Every product's history is kept in ascending timestamp order; appends that would break
// that order are rejected with apperrors.ErrOutOfOrderInsert and leave the table unchanged.
type HistoryRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHistoryRepository creates a new HistoryRepository with the provided database connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx returns a repository that runs all statements inside tx.
func (r *HistoryRepository) WithTx(tx *sql.Tx) *HistoryRepository {
	return &HistoryRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HistoryRepository) getQuerier() interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Append adds a point at the tail of the product's history.
//
// Returns apperrors.ErrOutOfOrderInsert if point.Timestamp is not strictly later than the
// last recorded timestamp for key. Duplicate timestamps are therefore rejected as no-ops.
func (r *HistoryRepository) Append(ctx context.Context, key model.ProductKey, point model.HistoryPoint) error {
	if key.Source == "" || key.Category == "" || key.Product == "" {
		return fmt.Errorf("%w: incomplete product key %+v", apperrors.ErrDataInconsistency, key)
	}

	last, ok, err := r.LastPoint(ctx, key)
	if err != nil {
		return err
	}
	if ok && !point.Timestamp.After(last.Timestamp) {
		return fmt.Errorf("%w: %s/%s/%s at %s (last %s)",
			apperrors.ErrOutOfOrderInsert, key.Source, key.Category, key.Product,
			FormatTime(point.Timestamp), FormatTime(last.Timestamp))
	}

	query := `
		INSERT INTO price_history (id, source, category, product, ts, price)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.getQuerier().ExecContext(ctx, query,
		uuid.New().String(),
		key.Source,
		key.Category,
		key.Product,
		FormatTime(point.Timestamp),
		point.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price_history: %w", err)
	}

	return nil
}

// Backfill records a dated observation at its own timestamp, which may precede the
// product's last point. History stays ordered because every read sorts by timestamp.
// The bool is false when a point already exists at that timestamp; the stored point
// is left unchanged.
func (r *HistoryRepository) Backfill(ctx context.Context, key model.ProductKey, point model.HistoryPoint) (bool, error) {
	if key.Source == "" || key.Category == "" || key.Product == "" {
		return false, fmt.Errorf("%w: incomplete product key %+v", apperrors.ErrDataInconsistency, key)
	}

	query := `
		INSERT INTO price_history (id, source, category, product, ts, price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, category, product, ts) DO NOTHING
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		uuid.New().String(),
		key.Source,
		key.Category,
		key.Product,
		FormatTime(point.Timestamp),
		point.Price,
	)
	if err != nil {
		return false, fmt.Errorf("failed to backfill price_history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// LastPoint returns the most recent point for key. The bool is false when the
// product has no history.
func (r *HistoryRepository) LastPoint(ctx context.Context, key model.ProductKey) (model.HistoryPoint, bool, error) {
	query := `
		SELECT ts, price
		FROM price_history
		WHERE source = ? AND category = ? AND product = ?
		ORDER BY ts DESC
		LIMIT 1
	`

	var tsStr string
	var p model.HistoryPoint
	err := r.getQuerier().QueryRowContext(ctx, query, key.Source, key.Category, key.Product).Scan(&tsStr, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryPoint{}, false, nil
	}
	if err != nil {
		return model.HistoryPoint{}, false, fmt.Errorf("failed to query last price_history point: %w", err)
	}

	p.Timestamp, err = ParseTime(tsStr)
	if err != nil {
		return model.HistoryPoint{}, false, err
	}

	return p, true, nil
}

// History returns the full history for key in ascending timestamp order.
// Returns an empty history, not an error, for unknown products.
func (r *HistoryRepository) History(ctx context.Context, key model.ProductKey) (model.ProductHistory, error) {
	query := `
		SELECT ts, price
		FROM price_history
		WHERE source = ? AND category = ? AND product = ?
		ORDER BY ts ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, key.Source, key.Category, key.Product)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_history table: %w", err)
	}
	defer rows.Close()

	history := model.ProductHistory{}

	for rows.Next() {
		var tsStr string
		var p model.HistoryPoint

		if err := rows.Scan(&tsStr, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price_history results: %w", err)
		}

		p.Timestamp, err = ParseTime(tsStr)
		if err != nil {
			return nil, err
		}

		history = append(history, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_history table: %w", err)
	}

	return history, nil
}

// Series returns every product history, optionally limited to one source.
// Results are ordered by source, category and product; points ascend in time.
func (r *HistoryRepository) Series(ctx context.Context, source string) ([]model.Series, error) {
	query := `
		SELECT source, category, product, ts, price
		FROM price_history
		WHERE 1=1
	`

	var args []any

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY source ASC, category ASC, product ASC, ts ASC"

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_history table: %w", err)
	}
	defer rows.Close()

	series := []model.Series{}

	for rows.Next() {
		var key model.ProductKey
		var tsStr string
		var p model.HistoryPoint

		if err := rows.Scan(&key.Source, &key.Category, &key.Product, &tsStr, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price_history results: %w", err)
		}

		p.Timestamp, err = ParseTime(tsStr)
		if err != nil {
			return nil, err
		}

		if n := len(series); n == 0 || series[n-1].Key != key {
			series = append(series, model.Series{Key: key, Points: model.ProductHistory{}})
		}
		series[len(series)-1].Points = append(series[len(series)-1].Points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_history table: %w", err)
	}

	return series, nil
}

// Observations returns the distinct observation timestamps recorded for a source,
// in ascending order.
func (r *HistoryRepository) Observations(ctx context.Context, source string) ([]string, error) {
	query := `
		SELECT DISTINCT ts
		FROM price_history
		WHERE source = ?
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_history timestamps: %w", err)
	}
	defer rows.Close()

	stamps := []string{}
	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan price_history timestamp: %w", err)
		}
		stamps = append(stamps, ts)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_history timestamps: %w", err)
	}

	sort.Strings(stamps)
	return stamps, nil
}
