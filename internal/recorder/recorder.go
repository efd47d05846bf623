package recorder

import (
	"context"
	"errors"

	"SpotSentinel/internal/model"
)

// ErrNotFound is returned when no price series exists for a symbol.
var ErrNotFound = errors.New("price history not found")

// Recorder persists price history and the trade ledger.
//
// Price series are append-only and returned in insertion order. Trades are
// append-only; ListTrades returns the most recent first.
type Recorder interface {
	AppendPrice(ctx context.Context, sample model.PriceSample) error
	ReadPrices(ctx context.Context, symbol string) ([]model.PriceSample, error)
	RecordTrade(ctx context.Context, trade model.Trade) error
	ListTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error)
	Close() error
}
