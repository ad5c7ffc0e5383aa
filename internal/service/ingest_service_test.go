package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/testutil"
)

type countingRefresher struct {
	seeds int
	calls int
	view  model.AggregateView
	err   error
}

func (r *countingRefresher) Seed(_ context.Context) (int, error) {
	r.seeds++
	return 0, nil
}

func (r *countingRefresher) Refresh(_ context.Context) (model.AggregateView, error) {
	r.calls++
	return r.view, r.err
}

func pipeline(t *testing.T, status int, reply string, got *model.IngestRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("pipeline received undecodable body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply)) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv
}

var validIngest = model.IngestRequest{
	Date:    "2026-02-01",
	Time:    "10:00",
	RawText: "삼성 DDR5 16G 5600MHz 105,000원",
}

func TestIngestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards update and refreshes", func(t *testing.T) {
		var got model.IngestRequest
		srv := pipeline(t, http.StatusOK, `{"status":"success","count":3}`, &got)
		refresher := &countingRefresher{view: model.AggregateView{Categories: []string{"a", "b"}}}
		svc := service.NewIngestService(srv.URL, 2*time.Second, refresher, testutil.DiscardLogger())

		result, err := svc.Update(ctx, validIngest)
		if err != nil {
			t.Fatalf("Update() returned unexpected error: %v", err)
		}

		if got != validIngest {
			t.Errorf("Expected pipeline to receive %+v, got %+v", validIngest, got)
		}
		if result.Status != service.IngestStatusSuccess || result.Count != 3 {
			t.Errorf("Unexpected result: %+v", result)
		}
		if refresher.seeds != 1 || refresher.calls != 1 {
			t.Errorf("Expected 1 backfill and 1 refresh, got %d and %d", refresher.seeds, refresher.calls)
		}
		if result.TotalCategories != 2 {
			t.Errorf("Expected total categories from view, got %d", result.TotalCategories)
		}
	})

	t.Run("pipeline error status is passed through", func(t *testing.T) {
		srv := pipeline(t, http.StatusOK, `{"status":"error","message":"no prices found"}`, nil)
		refresher := &countingRefresher{}
		svc := service.NewIngestService(srv.URL, 2*time.Second, refresher, testutil.DiscardLogger())

		result, err := svc.Update(ctx, validIngest)
		if err != nil {
			t.Fatalf("Update() returned unexpected error: %v", err)
		}

		if result.Status != "error" || result.Message != "no prices found" {
			t.Errorf("Unexpected result: %+v", result)
		}
		if refresher.calls != 0 || refresher.seeds != 0 {
			t.Error("Expected no refresh after a rejected update")
		}
	})

	t.Run("refresh failure keeps pipeline result", func(t *testing.T) {
		srv := pipeline(t, http.StatusOK, `{"status":"success","count":1,"totalCategories":6}`, nil)
		refresher := &countingRefresher{err: apperrors.ErrDataInconsistency}
		svc := service.NewIngestService(srv.URL, 2*time.Second, refresher, testutil.DiscardLogger())

		result, err := svc.Update(ctx, validIngest)
		if err != nil {
			t.Fatalf("Update() returned unexpected error: %v", err)
		}
		if result.TotalCategories != 6 {
			t.Errorf("Expected pipeline total to be kept, got %d", result.TotalCategories)
		}
	})

	t.Run("non-2xx reply fails", func(t *testing.T) {
		srv := pipeline(t, http.StatusInternalServerError, `{}`, nil)
		svc := service.NewIngestService(srv.URL, 2*time.Second, &countingRefresher{}, testutil.DiscardLogger())

		if _, err := svc.Update(ctx, validIngest); !errors.Is(err, apperrors.ErrIngestFailed) {
			t.Errorf("Expected ErrIngestFailed, got %v", err)
		}
	})

	t.Run("undecodable reply fails", func(t *testing.T) {
		srv := pipeline(t, http.StatusOK, `<html>`, nil)
		svc := service.NewIngestService(srv.URL, 2*time.Second, &countingRefresher{}, testutil.DiscardLogger())

		if _, err := svc.Update(ctx, validIngest); !errors.Is(err, apperrors.ErrIngestFailed) {
			t.Errorf("Expected ErrIngestFailed, got %v", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		svc := service.NewIngestService("", time.Second, &countingRefresher{}, testutil.DiscardLogger())

		if svc.Configured() {
			t.Error("Expected service without URL to be unconfigured")
		}
		if _, err := svc.Update(ctx, validIngest); !errors.Is(err, apperrors.ErrIngestNotConfigured) {
			t.Errorf("Expected ErrIngestNotConfigured, got %v", err)
		}
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		svc := service.NewIngestService("http://127.0.0.1:1", time.Second, &countingRefresher{}, testutil.DiscardLogger())

		bad := []model.IngestRequest{
			{Date: "2026-02-01", Time: "10:00", RawText: "  "},
			{Date: "01/02/2026", Time: "10:00", RawText: "x"},
			{Date: "2026-02-01", Time: "10am", RawText: "x"},
		}
		for _, req := range bad {
			if _, err := svc.Update(ctx, req); !errors.Is(err, apperrors.ErrMissingRequiredField) {
				t.Errorf("Update(%+v): expected ErrMissingRequiredField, got %v", req, err)
			}
		}
	})
}

const (
	boardBeforeUpdate = `{
  "price_data": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 120}]},
  "price_history": {
    "2026-02-01 10:00": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 100}]},
    "2026-02-03 10:00": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 120}]}
  }
}`
	boardAfterUpdate = `{
  "price_data": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 120}]},
  "price_history": {
    "2026-02-01 10:00": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 100}]},
    "2026-02-02 10:00": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 110}]},
    "2026-02-03 10:00": {"DDR5 RAM (데스크탑)": [{"product": "삼성 DDR5 16G 5600MHz", "price": 120}]}
  }
}`
)

func TestIngestService_UpdateBackfillsEarlierDate(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	path := filepath.Join(t.TempDir(), "ram_data.json")
	if err := os.WriteFile(path, []byte(boardBeforeUpdate), 0o600); err != nil {
		t.Fatalf("failed to write board document: %v", err)
	}

	board := source.NewBoardAdapter(path, source.Options{Location: time.UTC})
	aggregator := testutil.NewTestAggregatorService(t, db, board)
	if _, err := aggregator.Seed(ctx); err != nil {
		t.Fatalf("Seed() returned unexpected error: %v", err)
	}

	// The pipeline rewrites the document with an observation dated between the stored ones.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if err := os.WriteFile(path, []byte(boardAfterUpdate), 0o600); err != nil {
			t.Errorf("failed to rewrite board document: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","count":1}`)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	svc := service.NewIngestService(srv.URL, 2*time.Second, aggregator, testutil.DiscardLogger())
	req := model.IngestRequest{Date: "2026-02-02", Time: "10:00", RawText: "삼성 DDR5 16G 5600MHz 110원"}
	if _, err := svc.Update(ctx, req); err != nil {
		t.Fatalf("Update() returned unexpected error: %v", err)
	}

	key := model.ProductKey{Source: model.SourceBoard, Category: "DDR5 RAM (데스크탑)", Product: "삼성 DDR5 16G 5600MHz"}
	h, err := repository.NewHistoryRepository(db).History(ctx, key)
	if err != nil {
		t.Fatalf("History() returned unexpected error: %v", err)
	}
	if len(h) != 3 || h[0].Price != 100 || h[1].Price != 110 || h[2].Price != 120 {
		t.Fatalf("Expected backfilled history [100 110 120], got %+v", h)
	}

	view, err := aggregator.BoardView(ctx, model.SourceBoard)
	if err != nil {
		t.Fatalf("BoardView() returned unexpected error: %v", err)
	}
	if view.TotalDays != 3 {
		t.Errorf("Expected 3 observation days, got %d", view.TotalDays)
	}
}
