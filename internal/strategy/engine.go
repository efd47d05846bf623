package strategy

import (
	"github.com/shopspring/decimal"

	"SpotSentinel/internal/model"
)

// Action is the outcome of one symbol's evaluation.
type Action string

const (
	ActionNone Action = "none"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Input is everything Decide looks at.
type Input struct {
	Price     decimal.Decimal
	Reference decimal.Decimal
	ATR       decimal.Decimal
	Holding   decimal.Decimal
	USD       decimal.Decimal
}

// Decision is the sized action for one symbol. Quantity is unsigned.
type Decision struct {
	Action     Action
	Reason     string
	SizeFactor decimal.Decimal
	Notional   decimal.Decimal
	Quantity   decimal.Decimal
	Fee        decimal.Decimal
	NetUSD     decimal.Decimal
}

// Decide sizes a trade from volatility and picks its direction.
//
// Size: notional = capitalBase * max(minTrade/capitalBase, atr/price).
// Direction: price below reference sells from holdings, otherwise buys.
// Either side only executes if its guard holds.
func Decide(in Input, p Params) Decision {
	if !in.Price.IsPositive() {
		return Decision{Action: ActionNone, Reason: "non-positive price"}
	}
	minFactor := p.MinTradeUSD.Div(p.CapitalBase)
	sizeFactor := decimal.Max(minFactor, in.ATR.Div(in.Price))
	d := Decision{
		Action:     ActionNone,
		SizeFactor: sizeFactor,
		Notional:   p.CapitalBase.Mul(sizeFactor),
	}
	// unreachable while the min factor floor holds
	if d.Notional.LessThan(p.MinTradeUSD) {
		d.Reason = "below minimum trade size"
		return d
	}

	qty := d.Notional.Div(in.Price)
	fee := d.Notional.Mul(p.TakerFee)
	net := d.Notional.Sub(fee)

	if in.Price.LessThan(in.Reference) {
		if !in.Holding.IsPositive() || in.Holding.Mul(in.Price).LessThan(d.Notional) {
			d.Reason = "holding value below trade size"
			return d
		}
		d.Action = ActionSell
	} else {
		if in.USD.LessThan(d.Notional) {
			d.Reason = "usd balance below trade size"
			return d
		}
		d.Action = ActionBuy
	}
	d.Quantity, d.Fee, d.NetUSD = qty, fee, net
	return d
}

// Apply books an executed decision against bal.
func Apply(bal *model.Balances, asset string, d Decision) {
	if bal.Positions == nil {
		bal.Positions = make(map[string]decimal.Decimal)
	}
	holding := bal.Position(asset)
	switch d.Action {
	case ActionBuy:
		bal.Positions[asset] = holding.Add(d.Quantity)
		bal.USD = bal.USD.Sub(d.NetUSD)
	case ActionSell:
		bal.Positions[asset] = holding.Sub(d.Quantity)
		bal.USD = bal.USD.Add(d.NetUSD)
	}
}
