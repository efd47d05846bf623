package strategy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReferenceMode selects what a symbol's current price is compared against.
type ReferenceMode string

const (
	// ReferenceLastPrice compares against the price observed on the previous
	// cycle, kept in Balances.ReferencePrices.
	ReferenceLastPrice ReferenceMode = "last_price"
	// ReferenceHolding compares against the held quantity of the asset,
	// falling back to the current price when the asset was never held.
	ReferenceHolding ReferenceMode = "holding"
)

// Params are the sizing and fee constants of the engine.
type Params struct {
	ATRPeriod     int
	MinTradeUSD   decimal.Decimal
	CapitalBase   decimal.Decimal
	TakerFee      decimal.Decimal
	// MakerFee is carried for completeness; every simulated fill is a taker fill.
	MakerFee      decimal.Decimal
	QuoteAsset    string
	ReferenceMode ReferenceMode
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{
		ATRPeriod:     14,
		MinTradeUSD:   decimal.NewFromFloat(5.0),
		CapitalBase:   decimal.NewFromInt(500000),
		TakerFee:      decimal.NewFromFloat(0.001),
		MakerFee:      decimal.Zero,
		QuoteAsset:    "USDT",
		ReferenceMode: ReferenceLastPrice,
	}
}

// Validate checks the params are usable.
func (p Params) Validate() error {
	switch {
	case p.ATRPeriod < 1:
		return fmt.Errorf("atr period must be >= 1, got %d", p.ATRPeriod)
	case !p.MinTradeUSD.IsPositive():
		return fmt.Errorf("min trade usd must be positive")
	case !p.CapitalBase.IsPositive():
		return fmt.Errorf("capital base must be positive")
	case p.TakerFee.IsNegative() || p.TakerFee.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return fmt.Errorf("taker fee must be in [0,1)")
	case p.ReferenceMode != ReferenceLastPrice && p.ReferenceMode != ReferenceHolding:
		return fmt.Errorf("unknown reference mode %q", p.ReferenceMode)
	}
	return nil
}

// AssetOf strips the quote-currency suffix from a trading pair.
func AssetOf(symbol, quote string) string {
	return strings.TrimSuffix(symbol, quote)
}
