// Package source contains one adapter per upstream price source. Every adapter
// decodes its source's own payload shape and hands out canonical model.Snapshot
// values; nothing source-specific leaves this package.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// Adapter fetches the current state of one upstream source.
//
// An empty upstream payload is not an error: Fetch returns a snapshot with an empty
// category map. Unreachable or malformed upstreams return an error matching
// apperrors.ErrSourceUnavailable.
type Adapter interface {
	ID() string
	Fetch(ctx context.Context) (model.Snapshot, error)
}

// HistoryProvider is implemented by adapters whose upstream also carries past
// observations. Snapshots are returned oldest first.
type HistoryProvider interface {
	History(ctx context.Context) ([]model.Snapshot, error)
}

// Options holds settings shared by the HTTP-based adapters.
type Options struct {
	Timeout  time.Duration
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 20 * time.Second
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func newHTTPClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	return client
}

// get fetches url and returns the body, treating any non-2xx status as a failure.
func get(ctx context.Context, client *resty.Client, url string) ([]byte, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

var (
	krwPrinter = message.NewPrinter(language.Korean)
	usdPrinter = message.NewPrinter(language.English)
)

// FormatKRW renders a won amount with digit grouping, e.g. "105,000원".
func FormatKRW(price float64) string {
	return krwPrinter.Sprintf("%d원", int64(price))
}

// FormatUSD renders a dollar amount with three decimals, e.g. "$1,234.500".
func FormatUSD(price float64) string {
	return usdPrinter.Sprintf("$%.3f", price)
}

// FormatValue renders an indicator value with two decimals and digit grouping.
func FormatValue(v float64) string {
	return usdPrinter.Sprintf("%.2f", v)
}

func unavailable(sourceID string, err error) error {
	return apperrors.NewSourceError(sourceID, err)
}
