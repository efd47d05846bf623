package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"SpotSentinel/internal/model"
	"SpotSentinel/internal/strategy"

	"github.com/shopspring/decimal"
)

// FormatTrade renders one executed trade as a single line.
func FormatTrade(t model.Trade) string {
	icon, verb := "🟢", "Bought"
	if t.Side == model.SideSell {
		icon, verb = "🔴", "Sold"
	}
	return fmt.Sprintf("%s %s %s %s @ %s for $%s (fee $%s)",
		icon, verb, t.Quantity.Abs().StringFixed(10), t.Symbol,
		t.Price.String(), t.Notional.Abs().StringFixed(2), t.Fee.StringFixed(2))
}

// FormatCycleReport summarizes one scheduler cycle.
func FormatCycleReport(at time.Time, results []strategy.Result, total decimal.Decimal, valuationErrors int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>SpotSentinel</b> | %s\n\n", at.Format("2006-01-02 15:04:05")))

	for _, r := range results {
		switch {
		case r.Err != nil:
			b.WriteString(fmt.Sprintf("⚠️ %s: %v\n", r.Symbol, r.Err))
		case r.Traded():
			b.WriteString(FormatTrade(*r.Trade) + "\n")
		default:
			b.WriteString(fmt.Sprintf("⏸ %s @ %s: %s\n", r.Symbol, r.Price.String(), r.Skip))
		}
	}

	b.WriteString(fmt.Sprintf("\n💰 Total Portfolio Value in USD: %s\n", total.StringFixed(2)))
	if valuationErrors > 0 {
		b.WriteString(fmt.Sprintf("   (%d position(s) could not be priced)\n", valuationErrors))
	}
	return b.String()
}

// FormatPortfolio renders balances and reference prices.
func FormatPortfolio(bal *model.Balances) string {
	var b strings.Builder
	b.WriteString("📦 <b>Portfolio</b>\n\n")
	b.WriteString(fmt.Sprintf("USD: %s\n", bal.USD.StringFixed(2)))

	for _, asset := range sortedKeys(bal.Positions) {
		b.WriteString(fmt.Sprintf("%s: %s\n", asset, bal.Positions[asset].StringFixed(10)))
	}
	if len(bal.ReferencePrices) > 0 {
		b.WriteString("\nReference prices:\n")
		for _, sym := range sortedKeys(bal.ReferencePrices) {
			b.WriteString(fmt.Sprintf("  %s: %s\n", sym, bal.ReferencePrices[sym].String()))
		}
	}
	if !bal.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", bal.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
