package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

var (
	// ErrInvalidPeriod is returned for a look-back period below 1.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrInsufficientData is returned when the series is shorter than period+1.
	ErrInsufficientData = errors.New("not enough data for ATR calculation")
)

// TrueRange returns the per-sample true range of a close-only series.
// With a single price per sample the high/low terms collapse, leaving
// |price[i] - price[i-1]|. The result has len(prices)-1 entries.
func TrueRange(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	tr := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		tr[i-1] = math.Abs(prices[i] - prices[i-1])
	}
	return tr
}

// CalculateATR computes the trailing simple average of true range over the
// last period samples, evaluated at the end of the series.
// Requires at least period+1 prices.
func CalculateATR(prices []float64, period int) (float64, error) {
	if period < 1 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("%w: have %d samples, need %d", ErrInsufficientData, len(prices), period+1)
	}
	sma := talib.Sma(TrueRange(prices), period)
	atr := sma[len(sma)-1]
	// running-sum rounding can dip a hair below zero
	if atr < 0 || math.IsNaN(atr) {
		atr = 0
	}
	return atr, nil
}
