package collector

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrQuoteFetch marks any failure to obtain a usable spot price.
var ErrQuoteFetch = errors.New("quote fetch failed")

// Fetcher defines the interface for fetching spot quotes.
type Fetcher interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Name() string
}
