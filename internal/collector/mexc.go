package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// DefaultMexcBaseURL is the public MEXC spot REST endpoint. MEXC exposes the
// Binance v3 ticker API, so the go-binance spot client talks to it directly.
const DefaultMexcBaseURL = "https://api.mexc.com"

// MexcFetcher implements Fetcher using the /api/v3/ticker/price endpoint.
type MexcFetcher struct {
	client *binance.Client
}

// NewMexcFetcher creates a fetcher with optional proxy support.
func NewMexcFetcher(baseURL, proxyURL string, timeout time.Duration) (*MexcFetcher, error) {
	if baseURL == "" {
		baseURL = DefaultMexcBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	client := binance.NewClient("", "")
	client.BaseURL = strings.TrimRight(baseURL, "/")
	client.HTTPClient = &http.Client{Timeout: timeout, Transport: transport}
	return &MexcFetcher{client: client}, nil
}

func (f *MexcFetcher) Name() string { return "mexc" }

// FetchPrice returns the latest traded price for symbol.
func (f *MexcFetcher) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := f.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrQuoteFetch, symbol, err)
	}
	for _, p := range prices {
		if p == nil || !strings.EqualFold(p.Symbol, symbol) {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s: decode price %q: %w", ErrQuoteFetch, symbol, p.Price, err)
		}
		if !price.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: %s: non-positive price %s", ErrQuoteFetch, symbol, price)
		}
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s: no price in response", ErrQuoteFetch, symbol)
}
