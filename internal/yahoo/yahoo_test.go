package yahoo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/yahoo"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"currency": "KRW", "symbol": "^KS11", "exchangeName": "KSC"},
      "timestamp": [1769900000, 1769986400, 1770072800],
      "indicators": {"quote": [{
        "open":   [2500.0, null, 2550.0],
        "close":  [2510.5, null, 2560.25],
        "high":   [2520.0, null, 2570.0],
        "low":    [2490.0, null, 2540.0],
        "volume": [100, null, 300]
      }]}
    }],
    "error": null
  }
}`

func TestFinanceClient_QuerySymbol(t *testing.T) {
	t.Run("requests range and interval and decodes the chart", func(t *testing.T) {
		var gotPath, gotRange, gotInterval string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotRange = r.URL.Query().Get("range")
			gotInterval = r.URL.Query().Get("interval")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(chartBody)) //nolint:errcheck // test server
		}))
		defer srv.Close()

		client := yahoo.NewFinanceClient(srv.URL, 5*time.Second)

		resp, err := client.QuerySymbol(context.Background(), "^KS11", "1mo", "1d")
		if err != nil {
			t.Fatalf("QuerySymbol() returned unexpected error: %v", err)
		}

		if gotPath != "/v8/finance/chart/^KS11" {
			t.Errorf("Expected chart path, got %q", gotPath)
		}
		if gotRange != "1mo" || gotInterval != "1d" {
			t.Errorf("Expected range=1mo interval=1d, got range=%q interval=%q", gotRange, gotInterval)
		}
		if resp.Chart.Result[0].Meta.Symbol != "^KS11" {
			t.Errorf("Expected symbol ^KS11, got %q", resp.Chart.Result[0].Meta.Symbol)
		}
	})

	t.Run("returns yahoo error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)) //nolint:errcheck // test server
		}))
		defer srv.Close()

		client := yahoo.NewFinanceClient(srv.URL, 5*time.Second)

		if _, err := client.QuerySymbol(context.Background(), "NOPE", "1mo", "1d"); err == nil {
			t.Error("Expected error for unknown symbol")
		}
	})

	t.Run("returns error for malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html>rate limited</html>`)) //nolint:errcheck // test server
		}))
		defer srv.Close()

		client := yahoo.NewFinanceClient(srv.URL, 5*time.Second)

		if _, err := client.QuerySymbol(context.Background(), "^DJI", "1mo", "1d"); err == nil {
			t.Error("Expected error for non-JSON body")
		}
	})
}

func TestFinanceClient_ParseChart(t *testing.T) {
	client := yahoo.NewFinanceClient("", time.Second)

	t.Run("skips samples without close", func(t *testing.T) {
		closeA, closeB := 10.0, 12.0
		resp := yahoo.Response{Chart: yahoo.Chart{Result: []yahoo.Result{{
			Meta:      yahoo.Meta{Symbol: "KRW=X"},
			Timestamp: []int64{1, 2, 3},
			Indicators: yahoo.IndicatorsContainer{Quote: []yahoo.Quote{{
				Close: []*float64{&closeA, nil, &closeB},
			}}},
		}}}}

		chart, err := client.ParseChart(resp)
		if err != nil {
			t.Fatalf("ParseChart() returned unexpected error: %v", err)
		}

		closes := chart.Closes()
		if len(closes) != 2 || closes[0] != 10 || closes[1] != 12 {
			t.Errorf("Expected closes [10 12], got %v", closes)
		}
		if chart.Indicators[0].PriceOpen != 0 {
			t.Errorf("Expected missing open to be 0, got %v", chart.Indicators[0].PriceOpen)
		}
	})

	t.Run("rejects mismatched lengths", func(t *testing.T) {
		v := 1.0
		resp := yahoo.Response{Chart: yahoo.Chart{Result: []yahoo.Result{{
			Timestamp:  []int64{1, 2},
			Indicators: yahoo.IndicatorsContainer{Quote: []yahoo.Quote{{Close: []*float64{&v}}}},
		}}}}

		if _, err := client.ParseChart(resp); err == nil {
			t.Error("Expected error for mismatched lengths")
		}
	})

	t.Run("rejects empty result", func(t *testing.T) {
		if _, err := client.ParseChart(yahoo.Response{}); err == nil {
			t.Error("Expected error for empty response")
		}
	})
}
