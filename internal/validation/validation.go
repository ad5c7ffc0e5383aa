package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// Window bounds accepted over HTTP. The statistics core itself accepts any n.
const (
	DefaultWindow = 30
	MaxWindow     = 3650
)

// ParseWindow parses the window query parameter. An empty value means DefaultWindow.
func ParseWindow(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultWindow, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > MaxWindow {
		return 0, fmt.Errorf("%w: got %q, want 1..%d", apperrors.ErrInvalidWindow, value, MaxWindow)
	}
	return n, nil
}

// ValidateProductQuery checks that the product is fully identified and the
// window is in range, and returns the parsed key and window.
func ValidateProductQuery(q request.ProductQuery) (model.ProductKey, int, error) {
	errors := make(map[string]string)

	key := model.ProductKey{
		Source:   strings.TrimSpace(q.Source),
		Category: strings.TrimSpace(q.Category),
		Product:  strings.TrimSpace(q.Product),
	}

	if key.Source == "" {
		errors["source"] = apperrors.ErrInvalidSource.Error()
	}
	if key.Category == "" {
		errors["category"] = apperrors.ErrInvalidCategory.Error()
	}
	if key.Product == "" {
		errors["product"] = apperrors.ErrInvalidProduct.Error()
	}

	window, err := ParseWindow(q.Window)
	if err != nil {
		errors["window"] = err.Error()
	}

	if len(errors) > 0 {
		return model.ProductKey{}, 0, &Error{Fields: errors}
	}

	return key, window, nil
}

// ValidateUpdateRequest checks the admin update payload.
func ValidateUpdateRequest(req request.UpdateRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = "date must be YYYY-MM-DD"
	}

	if strings.TrimSpace(req.Time) == "" {
		errors["time"] = "time is required"
	} else if _, err := time.Parse("15:04", req.Time); err != nil {
		errors["time"] = "time must be HH:MM"
	}

	if strings.TrimSpace(req.Text) == "" {
		errors["text"] = "text is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
