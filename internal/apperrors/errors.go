package apperrors

import (
	"errors"
	"fmt"
)

// Source errors represent failures of an upstream price source.
// These never abort a refresh cycle; the affected source is served stale.
var (
	// ErrSourceUnavailable indicates that an upstream source could not be reached
	// or returned a payload that could not be decoded.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnknownSource indicates that a requested source ID is not registered.
	ErrUnknownSource = errors.New("unknown source")

	// ErrNoSnapshot indicates that a source has not produced a snapshot yet.
	ErrNoSnapshot = errors.New("no snapshot available")
)

// Store errors represent violations of the timeseries store's ordering rules.
var (
	// ErrOutOfOrderInsert indicates an append whose timestamp is not later than the
	// last recorded timestamp for the product. Replayed snapshots produce this error.
	ErrOutOfOrderInsert = errors.New("out-of-order insert")

	// ErrDataInconsistency indicates that a snapshot could not be folded into the
	// store consistently (e.g. a quote with no product name).
	ErrDataInconsistency = errors.New("data inconsistency detected")
)

// Validation errors represent invalid query parameters.
var (
	ErrInvalidWindow   = errors.New("window must be a positive integer")
	ErrInvalidSource   = errors.New("source parameter is required")
	ErrInvalidCategory = errors.New("category parameter is required")
	ErrInvalidProduct  = errors.New("product parameter is required")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Operation failure errors represent failures of auxiliary operations.
var (
	ErrIngestFailed           = errors.New("ingestion failed")
	ErrIngestNotConfigured    = errors.New("ingestion pipeline is not configured")
	ErrBackupUnavailable      = errors.New("backup source is unavailable")
	ErrFailedToRefresh        = errors.New("failed to refresh prices")
	ErrFailedToRetrieveStats  = errors.New("failed to retrieve price statistics")
	ErrFailedToRetrieveTrend  = errors.New("failed to retrieve price trend")
	ErrFailedToRetrieveMarket = errors.New("failed to retrieve market data")
	ErrFailedToRetrieveBoard  = errors.New("failed to retrieve price board")
	ErrFailedToExport         = errors.New("failed to export price history")
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)

// SourceError wraps a failure of a single source adapter with its source ID.
// It matches ErrSourceUnavailable through errors.Is.
type SourceError struct {
	SourceID string
	Err      error
}

// NewSourceError returns a SourceError for the given source.
func NewSourceError(sourceID string, err error) *SourceError {
	return &SourceError{SourceID: sourceID, Err: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.SourceID, ErrSourceUnavailable, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
