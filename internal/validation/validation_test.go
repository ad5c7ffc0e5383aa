package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"empty uses default", "", DefaultWindow, false},
		{"whitespace uses default", "  ", DefaultWindow, false},
		{"minimum", "1", 1, false},
		{"maximum", "3650", MaxWindow, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"too large", "3651", 0, true},
		{"not a number", "week", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.value)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidWindow) {
					t.Errorf("Expected ErrInvalidWindow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow(%q) returned unexpected error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("ParseWindow(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateProductQuery(t *testing.T) {
	t.Run("valid query", func(t *testing.T) {
		key, window, err := ValidateProductQuery(request.ProductQuery{
			Source:   "board",
			Category: " DDR4 RAM (데스크탑) ",
			Product:  "삼성 DDR4 16G PC4-25600",
			Window:   "7",
		})
		if err != nil {
			t.Fatalf("ValidateProductQuery() returned unexpected error: %v", err)
		}
		if key.Category != "DDR4 RAM (데스크탑)" || window != 7 {
			t.Errorf("Unexpected key/window: %+v %d", key, window)
		}
	})

	t.Run("collects every field error", func(t *testing.T) {
		_, _, err := ValidateProductQuery(request.ProductQuery{Window: "0"})

		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("Expected *Error, got %v", err)
		}
		for _, field := range []string{"source", "category", "product", "window"} {
			if _, ok := verr.Fields[field]; !ok {
				t.Errorf("Expected error for %s, got %v", field, verr.Fields)
			}
		}
		if !strings.HasPrefix(verr.Error(), "category: ") {
			t.Errorf("Expected sorted messages, got %q", verr.Error())
		}
	})
}

func TestValidateUpdateRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		err := ValidateUpdateRequest(request.UpdateRequest{Date: "2026-02-01", Time: "09:30", Text: "DDR5 105,000원"})
		if err != nil {
			t.Errorf("ValidateUpdateRequest() returned unexpected error: %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		err := ValidateUpdateRequest(request.UpdateRequest{})

		var verr *Error
		if !errors.As(err, &verr) || len(verr.Fields) != 3 {
			t.Fatalf("Expected three field errors, got %v", err)
		}
	})

	t.Run("malformed date and time", func(t *testing.T) {
		err := ValidateUpdateRequest(request.UpdateRequest{Date: "2026/02/01", Time: "9h", Text: "x"})

		var verr *Error
		if !errors.As(err, &verr) {
			t.Fatalf("Expected *Error, got %v", err)
		}
		if verr.Fields["date"] != "date must be YYYY-MM-DD" || verr.Fields["time"] != "time must be HH:MM" {
			t.Errorf("Unexpected messages: %v", verr.Fields)
		}
	})
}
