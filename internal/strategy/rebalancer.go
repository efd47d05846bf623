package strategy

import (
	"context"
	"errors"
	"fmt"

	"SpotSentinel/internal/calculator"
	"SpotSentinel/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PriceHistory is the slice of the history tracker the engine needs.
type PriceHistory interface {
	Observe(ctx context.Context, symbol string) (model.PriceSample, error)
	Window(ctx context.Context, symbol string) (model.PriceSeries, error)
}

// Ledger records executed trades.
type Ledger interface {
	RecordTrade(ctx context.Context, trade model.Trade) error
}

// Result reports one symbol's pass through the engine.
type Result struct {
	Symbol    string
	Asset     string
	Price     decimal.Decimal
	Reference decimal.Decimal
	ATR       decimal.Decimal
	Decision  Decision
	Trade     *model.Trade
	Skip      string
	Err       error
}

// Traded reports whether a trade executed.
func (r Result) Traded() bool { return r.Trade != nil }

// Engine runs the per-symbol rebalance step.
type Engine struct {
	history PriceHistory
	ledger  Ledger
	params  Params
	log     *logrus.Entry
	newID   func() string
}

// NewEngine creates an Engine.
func NewEngine(history PriceHistory, ledger Ledger, params Params, log *logrus.Entry) *Engine {
	return &Engine{
		history: history,
		ledger:  ledger,
		params:  params,
		log:     log,
		newID:   uuid.NewString,
	}
}

// Rebalance fetches the current price of symbol, sizes a trade from its
// volatility and books it against bal. Failures and skips only affect this
// symbol; bal is left untouched unless a trade executes.
func (e *Engine) Rebalance(ctx context.Context, symbol string, bal *model.Balances) Result {
	res := Result{Symbol: symbol, Asset: AssetOf(symbol, e.params.QuoteAsset)}
	log := e.log.WithField("symbol", symbol)

	sample, err := e.history.Observe(ctx, symbol)
	if err != nil {
		res.Err = err
		log.WithError(err).Warn("price fetch failed, skipping symbol")
		return res
	}
	res.Price = sample.Price
	ref, seen := e.reference(bal, symbol, res.Asset, sample.Price)
	res.Reference = ref
	if e.params.ReferenceMode == ReferenceLastPrice {
		defer bal.SetReference(symbol, sample.Price)
		if !seen {
			res.Skip = "no reference price yet"
			log.Info("first observation, reference price recorded")
			return res
		}
	}

	window, err := e.history.Window(ctx, symbol)
	if err != nil {
		res.Err = fmt.Errorf("read history %s: %w", symbol, err)
		log.WithError(err).Warn("price history unavailable, skipping symbol")
		return res
	}
	atr, err := calculator.CalculateATR(window.Prices(), e.params.ATRPeriod)
	if err != nil {
		if errors.Is(err, calculator.ErrInsufficientData) {
			res.Skip = "insufficient data"
			log.WithError(err).Info("not enough history yet")
			return res
		}
		res.Err = fmt.Errorf("atr %s: %w", symbol, err)
		log.WithError(err).Error("atr calculation failed")
		return res
	}
	res.ATR = decimal.NewFromFloat(atr)

	res.Decision = Decide(Input{
		Price:     res.Price,
		Reference: res.Reference,
		ATR:       res.ATR,
		Holding:   bal.Position(res.Asset),
		USD:       bal.USD,
	}, e.params)
	if res.Decision.Action == ActionNone {
		res.Skip = res.Decision.Reason
		log.WithFields(logrus.Fields{
			"price":    res.Price.String(),
			"ref":      res.Reference.String(),
			"notional": res.Decision.Notional.StringFixed(2),
		}).Debugf("no trade: %s", res.Decision.Reason)
		return res
	}

	Apply(bal, res.Asset, res.Decision)
	trade := e.tradeFor(sample, res.Decision)
	res.Trade = &trade
	log.WithFields(logrus.Fields{
		"side":     trade.Side,
		"qty":      res.Decision.Quantity.StringFixed(10),
		"notional": res.Decision.Notional.StringFixed(2),
		"net_usd":  res.Decision.NetUSD.StringFixed(2),
		"fee":      res.Decision.Fee.StringFixed(2),
	}).Info("trade executed")

	if err := e.ledger.RecordTrade(ctx, trade); err != nil {
		log.WithError(err).Error("trade ledger write failed")
	}
	return res
}

// reference returns the comparison baseline for symbol and whether one was
// stored; absent a stored value the current price is used.
func (e *Engine) reference(bal *model.Balances, symbol, asset string, price decimal.Decimal) (decimal.Decimal, bool) {
	switch e.params.ReferenceMode {
	case ReferenceHolding:
		if q, ok := bal.Positions[asset]; ok {
			return q, true
		}
	default:
		if p, ok := bal.Reference(symbol); ok {
			return p, true
		}
	}
	return price, false
}

func (e *Engine) tradeFor(sample model.PriceSample, d Decision) model.Trade {
	qty := d.Quantity
	side := model.SideBuy
	if d.Action == ActionSell {
		qty = qty.Neg()
		side = model.SideSell
	}
	return model.Trade{
		ID:        e.newID(),
		Timestamp: sample.Timestamp,
		Symbol:    sample.Symbol,
		Side:      side,
		Quantity:  qty,
		Price:     sample.Price,
		Notional:  qty.Mul(sample.Price),
		Fee:       d.Fee,
	}
}
