package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined per-symbol data instead of making actual API calls and
// is safe for the concurrent use the indicator fetcher makes of it.
type MockYahooClient struct {
	mu sync.Mutex
	// Responses maps a symbol to the response returned for it
	Responses map[string]yahoo.Response
	// Errors maps a symbol to the error returned for it
	Errors map[string]error
	// MockError, when set, is returned for every symbol
	MockError error
	// QueryCount tracks how many times QuerySymbol was called
	QueryCount int
	// LastRange and LastInterval record the arguments of the latest query
	LastRange    string
	LastInterval string
}

// NewMockYahooClient creates a new mock Yahoo client without any symbols.
// Unknown symbols return an error.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{
		Responses: make(map[string]yahoo.Response),
		Errors:    make(map[string]error),
	}
}

// QuerySymbol returns the configured response or error for symbol.
func (m *MockYahooClient) QuerySymbol(_ context.Context, symbol, rng, interval string) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++
	m.LastRange = rng
	m.LastInterval = interval

	if m.MockError != nil {
		return yahoo.Response{}, m.MockError
	}
	if err, ok := m.Errors[symbol]; ok {
		return yahoo.Response{}, err
	}
	resp, ok := m.Responses[symbol]
	if !ok {
		return yahoo.Response{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	return resp, nil
}

// ParseChart delegates to the real ParseChart method since it's pure logic with no side effects.
func (m *MockYahooClient) ParseChart(yahooResult yahoo.Response) (yahoo.PriceChart, error) {
	client := yahoo.NewFinanceClient("", time.Second)
	return client.ParseChart(yahooResult)
}

// WithError configures the mock to return err for every symbol.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.MockError = err
	return m
}

// WithSymbolError configures the mock to return err for symbol.
func (m *MockYahooClient) WithSymbolError(symbol string, err error) *MockYahooClient {
	m.Errors[symbol] = err
	return m
}

// WithCloses configures daily closes for symbol, the first one at BaseTime.
func (m *MockYahooClient) WithCloses(symbol string, closes ...float64) *MockYahooClient {
	m.Responses[symbol] = CreateMockYahooResponse(symbol, BaseTime, 24*time.Hour, closes...)
	return m
}

// CreateMockYahooResponse creates a mock Yahoo Finance API response for symbol with
// one sample per close, spaced step apart starting at start.
func CreateMockYahooResponse(symbol string, start time.Time, step time.Duration, closes ...float64) yahoo.Response {
	timestamps := make([]int64, len(closes))
	values := make([]*float64, len(closes))
	volumes := make([]*int64, len(closes))

	for i := range closes {
		timestamps[i] = start.Add(time.Duration(i) * step).Unix()
		c := closes[i]
		v := int64(1000000 + i*10000)
		values[i] = &c
		volumes[i] = &v
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:   symbol,
						Currency: "USD",
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{
							{
								Open:   values,
								High:   values,
								Low:    values,
								Close:  values,
								Volume: volumes,
							},
						},
					},
				},
			},
		},
	}
}
