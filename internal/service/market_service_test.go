package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/testutil"
)

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		label    string
		name     string
		rng      string
		interval string
	}{
		{"5d", "5d", "5d", "90m"},
		{"5일", "5d", "5d", "90m"},
		{"", "1mo", "1mo", "1d"},
		{"1mo", "1mo", "1mo", "1d"},
		{"1개월", "1mo", "1mo", "1d"},
		{"6mo", "6mo", "6mo", "1d"},
		{"6개월", "6mo", "6mo", "1d"},
		{"1y", "1y", "1y", "1d"},
		{"forever", "1y", "1y", "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p := service.ResolvePeriod(tt.label)
			if p.Name != tt.name || p.Range != tt.rng || p.Interval != tt.interval {
				t.Errorf("ResolvePeriod(%q) = %+v, want %s/%s/%s", tt.label, p, tt.name, tt.rng, tt.interval)
			}
		})
	}
}

func TestMarketService_GetMarketData(t *testing.T) {
	ctx := context.Background()

	t.Run("returns groups for the period", func(t *testing.T) {
		client := testutil.NewMockYahooClient().
			WithCloses("^KS11", 2500, 2550).
			WithCloses("KRW=X", 1400, 1386)
		svc := testutil.NewTestMarketService(t, client)

		data, err := svc.GetMarketData(ctx, "6개월")
		if err != nil {
			t.Fatalf("GetMarketData() returned unexpected error: %v", err)
		}

		if data.Period != "6mo" {
			t.Errorf("Expected period 6mo, got %q", data.Period)
		}
		if client.LastRange != "6mo" || client.LastInterval != "1d" {
			t.Errorf("Expected 6mo/1d query, got %s/%s", client.LastRange, client.LastInterval)
		}
		if len(data.Groups["indices"]) != 1 || data.Groups["indices"][0].Current != 2550 {
			t.Errorf("Unexpected indices: %+v", data.Groups["indices"])
		}
		if fx := data.Groups["forex"]; len(fx) != 1 || fx[0].Delta != -14 || fx[0].Pct != -1 {
			t.Errorf("Unexpected forex: %+v", fx)
		}
		if data.Errors != nil {
			t.Errorf("Expected no errors, got %v", data.Errors)
		}
	})

	t.Run("reports partial failures", func(t *testing.T) {
		client := testutil.NewMockYahooClient().
			WithCloses("^KS11", 2500, 2550).
			WithSymbolError("KRW=X", errors.New("rate limited"))
		svc := testutil.NewTestMarketService(t, client)

		data, err := svc.GetMarketData(ctx, "")
		if err != nil {
			t.Fatalf("GetMarketData() returned unexpected error: %v", err)
		}

		if data.Period != "1mo" {
			t.Errorf("Expected default period 1mo, got %q", data.Period)
		}
		if _, ok := data.Errors["KRW=X"]; !ok {
			t.Errorf("Expected KRW=X failure, got %v", data.Errors)
		}
		if len(data.Groups["forex"]) != 0 {
			t.Errorf("Expected empty forex group, got %+v", data.Groups["forex"])
		}
	})

	t.Run("fails when nothing could be fetched", func(t *testing.T) {
		client := testutil.NewMockYahooClient().WithError(errors.New("offline"))
		svc := testutil.NewTestMarketService(t, client)

		_, err := svc.GetMarketData(ctx, "5d")

		if !errors.Is(err, apperrors.ErrSourceUnavailable) {
			t.Errorf("Expected ErrSourceUnavailable, got %v", err)
		}
	})
}
