package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MockFetcher returns scripted prices for development and testing.
// Each call for a symbol consumes the next price of its script; the last
// price repeats once the script is exhausted.
type MockFetcher struct {
	mu      sync.Mutex
	Scripts map[string][]decimal.Decimal
	Errors  map[string]error
	calls   map[string]int
}

// NewMockFetcher creates a MockFetcher from float scripts.
func NewMockFetcher(scripts map[string][]float64) *MockFetcher {
	m := &MockFetcher{
		Scripts: make(map[string][]decimal.Decimal, len(scripts)),
		Errors:  make(map[string]error),
		calls:   make(map[string]int),
	}
	for sym, prices := range scripts {
		for _, p := range prices {
			m.Scripts[sym] = append(m.Scripts[sym], decimal.NewFromFloat(p))
		}
	}
	return m
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	n := m.calls[symbol]
	m.calls[symbol] = n + 1
	if err, ok := m.Errors[symbol]; ok && err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrQuoteFetch, symbol, err)
	}
	script := m.Scripts[symbol]
	if len(script) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s: unknown symbol", ErrQuoteFetch, symbol)
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n], nil
}

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}
