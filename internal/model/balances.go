package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balances is the virtual account: USD cash plus unit holdings per asset.
//
// ReferencePrices holds the per-symbol price the next cycle compares against.
type Balances struct {
	USD             decimal.Decimal            `json:"usd"`
	Positions       map[string]decimal.Decimal `json:"positions"`
	ReferencePrices map[string]decimal.Decimal `json:"reference_prices,omitempty"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// NewBalances returns balances holding only the given USD cash.
func NewBalances(usd decimal.Decimal) *Balances {
	return &Balances{
		USD:             usd,
		Positions:       make(map[string]decimal.Decimal),
		ReferencePrices: make(map[string]decimal.Decimal),
	}
}

// Clone returns a deep copy.
func (b *Balances) Clone() *Balances {
	c := &Balances{
		USD:             b.USD,
		Positions:       make(map[string]decimal.Decimal, len(b.Positions)),
		ReferencePrices: make(map[string]decimal.Decimal, len(b.ReferencePrices)),
		UpdatedAt:       b.UpdatedAt,
	}
	for k, v := range b.Positions {
		c.Positions[k] = v
	}
	for k, v := range b.ReferencePrices {
		c.ReferencePrices[k] = v
	}
	return c
}

// Position returns the held quantity of asset, zero when absent.
func (b *Balances) Position(asset string) decimal.Decimal {
	if q, ok := b.Positions[asset]; ok {
		return q
	}
	return decimal.Zero
}

// Reference returns the stored reference price for symbol.
func (b *Balances) Reference(symbol string) (decimal.Decimal, bool) {
	p, ok := b.ReferencePrices[symbol]
	return p, ok
}

// SetReference stores the reference price for symbol.
func (b *Balances) SetReference(symbol string, price decimal.Decimal) {
	if b.ReferencePrices == nil {
		b.ReferencePrices = make(map[string]decimal.Decimal)
	}
	b.ReferencePrices[symbol] = price
}

// Equal reports whether two balances hold the same cash and positions.
func (b *Balances) Equal(o *Balances) bool {
	if !b.USD.Equal(o.USD) || len(b.Positions) != len(o.Positions) || len(b.ReferencePrices) != len(o.ReferencePrices) {
		return false
	}
	for k, v := range b.Positions {
		if ov, ok := o.Positions[k]; !ok || !ov.Equal(v) {
			return false
		}
	}
	for k, v := range b.ReferencePrices {
		if ov, ok := o.ReferencePrices[k]; !ok || !ov.Equal(v) {
			return false
		}
	}
	return true
}
