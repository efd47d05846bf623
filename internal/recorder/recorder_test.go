package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"SpotSentinel/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorders(t *testing.T) map[string]Recorder {
	t.Helper()
	dir := t.TempDir()
	sq, err := NewSQLiteRecorder(filepath.Join(dir, "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	fr, err := NewFileRecorder(filepath.Join(dir, "files"))
	require.NoError(t, err)
	return map[string]Recorder{"sqlite": sq, "file": fr}
}

func TestRecorder_PriceHistory(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, rec := range recorders(t) {
		t.Run(name, func(t *testing.T) {
			_, err := rec.ReadPrices(ctx, "XTZUSDT")
			require.ErrorIs(t, err, ErrNotFound)

			prices := []string{"0.81", "0.81", "0.0000123", "0.79"}
			for i, p := range prices {
				require.NoError(t, rec.AppendPrice(ctx, model.PriceSample{
					Symbol:    "XTZUSDT",
					Timestamp: base.Add(time.Duration(i) * time.Second),
					Price:     decimal.RequireFromString(p),
				}))
			}
			require.NoError(t, rec.AppendPrice(ctx, model.PriceSample{
				Symbol: "BONKUSDT", Timestamp: base, Price: decimal.NewFromInt(1),
			}))

			got, err := rec.ReadPrices(ctx, "XTZUSDT")
			require.NoError(t, err)
			require.Len(t, got, len(prices), "unchanged prices are not deduplicated")
			for i, s := range got {
				assert.Equal(t, "XTZUSDT", s.Symbol)
				assert.True(t, s.Timestamp.Equal(base.Add(time.Duration(i)*time.Second)))
				assert.True(t, decimal.RequireFromString(prices[i]).Equal(s.Price), "sample %d: %s", i, s.Price)
			}
		})
	}
}

func TestRecorder_Trades(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, rec := range recorders(t) {
		t.Run(name, func(t *testing.T) {
			none, err := rec.ListTrades(ctx, "XTZUSDT", 10)
			require.NoError(t, err)
			assert.Empty(t, none)

			buy := model.Trade{
				ID: "a", Timestamp: ts, Symbol: "XTZUSDT", Side: model.SideBuy,
				Quantity: decimal.NewFromInt(10000), Price: decimal.NewFromInt(1),
				Notional: decimal.NewFromInt(10000), Fee: decimal.NewFromInt(10),
			}
			sell := model.Trade{
				ID: "b", Timestamp: ts.Add(time.Minute), Symbol: "XTZUSDT", Side: model.SideSell,
				Quantity: decimal.NewFromInt(-10000), Price: decimal.RequireFromString("0.95"),
				Notional: decimal.NewFromInt(-9500), Fee: decimal.RequireFromString("9.5"),
			}
			require.NoError(t, rec.RecordTrade(ctx, buy))
			require.NoError(t, rec.RecordTrade(ctx, sell))

			all, err := rec.ListTrades(ctx, "XTZUSDT", 0)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "b", all[0].ID)
			assert.Equal(t, model.SideSell, all[0].Side)
			assert.True(t, all[0].Notional.Equal(all[0].Quantity.Mul(all[0].Price)))
			assert.True(t, all[1].Fee.Equal(decimal.NewFromInt(10)))

			last, err := rec.ListTrades(ctx, "XTZUSDT", 1)
			require.NoError(t, err)
			require.Len(t, last, 1)
			assert.Equal(t, "b", last[0].ID)
		})
	}
}
