package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/testutil"
)

var ddr5Key = model.ProductKey{
	Source:   model.SourceBoard,
	Category: "DDR5 RAM (데스크탑)",
	Product:  "삼성 DDR5 16G 5600MHz",
}

func setupPriceHandler(t *testing.T) (*PriceHandler, *sql.DB, *testutil.FakeAdapter) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	board := testutil.NewFakeAdapter(model.SourceBoard).Set(testutil.BaseTime, map[string][]model.ProductQuote{
		ddr5Key.Category: {testutil.Quote(ddr5Key.Product, 105000)},
	})
	spot := testutil.NewFakeAdapter(model.SourceSpot)
	as := testutil.NewTestAggregatorService(t, db, board, spot)
	return NewPriceHandler(as), db, board
}

func productParams(window string) map[string]string {
	params := map[string]string{
		"source":   ddr5Key.Source,
		"category": ddr5Key.Category,
		"product":  ddr5Key.Product,
	}
	if window != "" {
		params["window"] = window
	}
	return params
}

func TestPriceHandler_Prices(t *testing.T) {
	t.Run("returns empty view before the first refresh", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
		w := httptest.NewRecorder()

		handler.Prices(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.AggregateView
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response.Categories) != 0 {
			t.Errorf("Expected no categories, got %v", response.Categories)
		}
	})

	t.Run("refresh populates the view", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)

		w := httptest.NewRecorder()
		handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/prices/refresh", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		handler.Prices(w, httptest.NewRequest(http.MethodGet, "/api/prices", nil))

		var response model.AggregateView
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response.Categories) != 1 || response.Categories[0] != ddr5Key.Category {
			t.Errorf("Expected DDR5 category, got %v", response.Categories)
		}
		if response.DefaultSelection == nil || response.DefaultSelection.Product != ddr5Key.Product {
			t.Errorf("Expected default selection, got %+v", response.DefaultSelection)
		}
	})

	t.Run("refresh returns 500 for an inconsistent snapshot", func(t *testing.T) {
		handler, _, board := setupPriceHandler(t)
		board.Set(testutil.BaseTime, map[string][]model.ProductQuote{"": {testutil.Quote("x", 1)}})

		w := httptest.NewRecorder()
		handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/prices/refresh", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPriceHandler_Stats(t *testing.T) {
	t.Run("returns window statistics", func(t *testing.T) {
		handler, db, _ := setupPriceHandler(t)
		testutil.CreateSeries(t, db, ddr5Key, 100000, 105000, 95000)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/prices/stats", productParams("3"))
		w := httptest.NewRecorder()

		handler.Stats(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response StatsResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Window != 3 || response.Key != ddr5Key {
			t.Errorf("Unexpected key/window: %+v", response)
		}
		if response.Stats.Pct != -5 || response.Stats.Avg != 100000 || !response.Stats.HasData {
			t.Errorf("Unexpected stats: %+v", response.Stats)
		}
	})

	t.Run("defaults window to 30", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/prices/stats", productParams(""))
		w := httptest.NewRecorder()

		handler.Stats(w, req)

		var response StatsResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Window != 30 {
			t.Errorf("Expected window 30, got %d", response.Window)
		}
		if response.Stats.HasData {
			t.Error("Expected no data for an empty history")
		}
	})

	t.Run("returns 400 for invalid window", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)

		for _, window := range []string{"0", "abc", "4000"} {
			req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/prices/stats", productParams(window))
			w := httptest.NewRecorder()

			handler.Stats(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("window=%s: expected 400, got %d", window, w.Code)
			}
		}
	})

	t.Run("returns 400 when product is missing", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/prices/stats", map[string]string{"source": "board"})
		w := httptest.NewRecorder()

		handler.Stats(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestPriceHandler_Trend(t *testing.T) {
	handler, db, _ := setupPriceHandler(t)
	testutil.CreateSeries(t, db, ddr5Key, 1, 2, 3, 4)

	req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/prices/trend", productParams("2"))
	w := httptest.NewRecorder()

	handler.Trend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response TrendResponse
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&response)

	if len(response.Points) != 2 || response.Points[0].Price != 3 || response.Points[1].Price != 4 {
		t.Errorf("Expected trailing two points, got %+v", response.Points)
	}
}

func TestPriceHandler_Boards(t *testing.T) {
	t.Run("ram-data returns the board view", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)
		handler.Refresh(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/prices/refresh", nil))

		w := httptest.NewRecorder()
		handler.RamData(w, httptest.NewRequest(http.MethodGet, "/api/ram-data", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.BoardView
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.SourceID != model.SourceBoard || response.TotalDays != 1 {
			t.Errorf("Unexpected board view: %+v", response)
		}
		if len(response.Trends[ddr5Key.Category][ddr5Key.Product]) != 1 {
			t.Errorf("Expected one trend point, got %+v", response.Trends)
		}
	})

	t.Run("dram-exchange returns 404 without data", func(t *testing.T) {
		handler, _, _ := setupPriceHandler(t)

		w := httptest.NewRecorder()
		handler.DramExchange(w, httptest.NewRequest(http.MethodGet, "/api/dram-exchange", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
