package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
)

const spotPage = `<html><body>
<table>
  <thead><tr><th>Item</th><th>Daily High</th><th>Daily Low</th><th>Session High</th><th>Session Low</th><th>Session Average</th><th>Session Change</th></tr></thead>
  <tbody>
    <tr><td>DDR5 16Gb (2Gx8) 4800/5600</td><td>$7.100</td><td>$6.500</td><td>7.000</td><td>6.600</td><td><b>6.834</b></td><td>▲ 1.25 %</td></tr>
    <tr><td>DDR4 8Gb (1Gx8) 3200</td><td>2.100</td><td>1.900</td><td>2.050</td><td>1.950</td><td>-</td><td>0.00 %</td></tr>
    <tr><td>DDR5 16Gb (2Gx8) 4800/5600</td><td>9</td><td>9</td><td>9</td><td>9</td><td>9</td><td>dup</td></tr>
    <tr><td>NAND 512Gb TLC</td><td>3.1</td><td>2.9</td><td>3.0</td><td>2.9</td><td>3.0</td><td>0 %</td></tr>
    <tr><td>DDR3 4Gb 512Mx8 1600</td><td>-</td></tr>
    <tr><td>DDR3 4Gb 512Mx8 1866</td><td>1.2</td><td>1.0</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseSpotTable(t *testing.T) {
	at := time.Date(2026, 2, 7, 15, 0, 0, 0, time.UTC)

	snap, err := source.ParseSpotTable([]byte(spotPage), at)
	if err != nil {
		t.Fatalf("ParseSpotTable() returned unexpected error: %v", err)
	}

	t.Run("groups rows by generation", func(t *testing.T) {
		if len(snap.Categories) != 3 {
			t.Errorf("Expected DDR5, DDR4 and DDR3 categories, got %v", snap.CategoryKeys())
		}
		if _, ok := snap.Categories["NAND"]; ok {
			t.Error("Expected NAND row to be ignored")
		}
	})

	t.Run("prices at the session average", func(t *testing.T) {
		ddr5 := snap.Categories["DDR5"]
		if len(ddr5) != 1 {
			t.Fatalf("Expected duplicate row to be dropped, got %d quotes", len(ddr5))
		}
		q := ddr5[0]
		if q.Price != 6.834 || q.DisplayPrice != "$6.834" {
			t.Errorf("Unexpected DDR5 quote: %+v", q)
		}
		if q.Session == nil || q.Session.DailyHigh != 7.1 || q.Session.SessionChange != "▲ 1.25 %" {
			t.Errorf("Unexpected session fields: %+v", q.Session)
		}
	})

	t.Run("falls back to daily midpoint without session average", func(t *testing.T) {
		ddr4 := snap.Categories["DDR4"]
		if len(ddr4) != 1 || ddr4[0].Price != 2 {
			t.Errorf("Expected midpoint price 2, got %+v", ddr4)
		}
	})

	t.Run("skips rows with too few cells", func(t *testing.T) {
		ddr3 := snap.Categories["DDR3"]
		if len(ddr3) != 1 || ddr3[0].Price != 1.1 {
			t.Errorf("Expected only the complete DDR3 row, got %+v", ddr3)
		}
		if ddr3[0].Session.SessionChange != "N/A" {
			t.Errorf("Expected N/A session change, got %q", ddr3[0].Session.SessionChange)
		}
	})

	t.Run("page without table is empty", func(t *testing.T) {
		empty, err := source.ParseSpotTable([]byte(`<html><body>maintenance</body></html>`), at)
		if err != nil {
			t.Fatalf("ParseSpotTable() returned unexpected error: %v", err)
		}
		if empty.Categories == nil || len(empty.Categories) != 0 {
			t.Errorf("Expected empty categories, got %v", empty.Categories)
		}
	})
}

func TestSpotAdapter_Fetch(t *testing.T) {
	t.Run("fetches and parses the page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(spotPage)) //nolint:errcheck // test server
		}))
		defer srv.Close()

		adapter := source.NewSpotAdapter(srv.URL, source.Options{Timeout: 5 * time.Second})

		snap, err := adapter.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch() returned unexpected error: %v", err)
		}
		if snap.ProductCount() != 3 {
			t.Errorf("Expected 3 products, got %d", snap.ProductCount())
		}
	})

	t.Run("unreachable upstream is a source failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		adapter := source.NewSpotAdapter(srv.URL, source.Options{})

		if _, err := adapter.Fetch(context.Background()); !errors.Is(err, apperrors.ErrSourceUnavailable) {
			t.Errorf("Expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("honors context timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		adapter := source.NewSpotAdapter(srv.URL, source.Options{})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if _, err := adapter.Fetch(ctx); !errors.Is(err, apperrors.ErrSourceUnavailable) {
			t.Errorf("Expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"won", source.FormatKRW(105000), "105,000원"},
		{"small won", source.FormatKRW(900), "900원"},
		{"dollar", source.FormatUSD(1.234), "$1.234"},
		{"large dollar", source.FormatUSD(1234.5), "$1,234.500"},
		{"value", source.FormatValue(2510.5), "2,510.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
