package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single spot quote observed for a symbol.
type PriceSample struct {
	Symbol    string
	Timestamp time.Time
	Price     decimal.Decimal
}

// PriceSeries holds samples for one symbol in insertion (time) order.
type PriceSeries struct {
	Symbol  string
	Samples []PriceSample
}

// Prices extracts the float prices of the series for indicator math.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Price.InexactFloat64()
	}
	return out
}

// Len returns the number of samples.
func (s PriceSeries) Len() int { return len(s.Samples) }
