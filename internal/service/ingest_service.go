package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// IngestStatusSuccess is the status the ingestion pipeline reports for an accepted update.
const IngestStatusSuccess = "success"

// Refresher records the dated history of the sources and runs a refresh cycle.
// It is satisfied by *AggregatorService.
type Refresher interface {
	Seed(ctx context.Context) (int, error)
	Refresh(ctx context.Context) (model.AggregateView, error)
}

// IngestService forwards pasted community price text to the external ingestion
// pipeline, which parses it and rewrites the board document, and refreshes the
// aggregate once the pipeline accepts the update. The update may be dated before
// the newest observation, so the document's history is recorded again first.
type IngestService struct {
	client    *resty.Client
	url       string
	refresher Refresher
	logger    *slog.Logger
}

// NewIngestService creates an IngestService posting to url. An empty url disables ingestion.
func NewIngestService(url string, timeout time.Duration, refresher Refresher, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")

	return &IngestService{
		client:    client,
		url:       url,
		refresher: refresher,
		logger:    logger,
	}
}

// Configured reports whether an ingestion pipeline URL is set.
func (s *IngestService) Configured() bool {
	return s.url != ""
}

// Update submits one observation to the pipeline.
//
// A pipeline reply with a status other than "success" is returned as-is without
// error. Transport failures and non-2xx replies return apperrors.ErrIngestFailed.
func (s *IngestService) Update(ctx context.Context, req model.IngestRequest) (model.IngestResult, error) {
	if !s.Configured() {
		return model.IngestResult{}, apperrors.ErrIngestNotConfigured
	}
	if err := validateIngestRequest(req); err != nil {
		return model.IngestResult{}, err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(s.url)
	if err != nil {
		return model.IngestResult{}, fmt.Errorf("%w: %w", apperrors.ErrIngestFailed, err)
	}
	if resp.IsError() {
		return model.IngestResult{}, fmt.Errorf("%w: pipeline returned status %d", apperrors.ErrIngestFailed, resp.StatusCode())
	}

	var result model.IngestResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return model.IngestResult{}, fmt.Errorf("%w: undecodable reply: %w", apperrors.ErrIngestFailed, err)
	}

	s.logger.Info("ingestion pipeline replied", "status", result.Status, "count", result.Count)

	if result.Status != IngestStatusSuccess {
		return result, nil
	}

	if n, err := s.refresher.Seed(ctx); err != nil {
		s.logger.Warn("history backfill after ingestion incomplete", "recorded", n, "error", err)
	} else {
		s.logger.Info("history backfilled after ingestion", "recorded", n)
	}

	view, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.Error("refresh after ingestion failed", "error", err)
		return result, nil
	}
	if result.TotalCategories == 0 {
		result.TotalCategories = len(view.Categories)
	}

	return result, nil
}

func validateIngestRequest(req model.IngestRequest) error {
	if strings.TrimSpace(req.RawText) == "" {
		return fmt.Errorf("%w: text", apperrors.ErrMissingRequiredField)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrMissingRequiredField)
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", apperrors.ErrMissingRequiredField)
	}
	return nil
}
