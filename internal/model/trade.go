package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is an immutable ledger record. Quantity is signed (negative for
// sells) and Notional is always Quantity * Price.
type Trade struct {
	ID        string
	Timestamp time.Time
	Symbol    string
	Side      Side
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Notional  decimal.Decimal
	Fee       decimal.Decimal
}
