package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"SpotSentinel/internal/config"
	"SpotSentinel/internal/model"
	"SpotSentinel/internal/portfolio"
	"SpotSentinel/internal/strategy"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineParams_FromDefaults(t *testing.T) {
	p := engineParams(config.Default())
	require.NoError(t, p.Validate())
	assert.Equal(t, 14, p.ATRPeriod)
	assert.True(t, p.CapitalBase.Equal(decimal.NewFromInt(500000)))
	assert.True(t, p.TakerFee.Equal(decimal.RequireFromString("0.001")))
	assert.Equal(t, strategy.ReferenceLastPrice, p.ReferenceMode)
}

func TestMockScripts(t *testing.T) {
	a := mockScripts([]string{"XTZUSDT", "PEPEUSDT"})
	b := mockScripts([]string{"XTZUSDT", "PEPEUSDT"})
	assert.Equal(t, a, b)
	for sym, walk := range a {
		require.NotEmpty(t, walk, sym)
		for _, p := range walk {
			assert.Greater(t, p, 0.0, sym)
		}
	}
}

func TestRunPortfolio(t *testing.T) {
	dir := t.TempDir()
	stateFile := filepath.Join(dir, "balances.json")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
symbols: [XTZUSDT, BONKUSDT]
data_source:
  base_url: mock
portfolio:
  state_file: `+stateFile+`
storage:
  driver: file
  dir: `+filepath.Join(dir, "history")+`
`), 0o644))

	bal := model.NewBalances(decimal.NewFromInt(1500))
	bal.Positions["XTZ"] = decimal.NewFromInt(3)
	require.NoError(t, portfolio.SaveState(stateFile, bal))

	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = "" })
	cfg, err := loadConfig()
	require.NoError(t, err)
	rec, err := openRecorder(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, rec.AppendPrice(ctx, model.PriceSample{Symbol: "XTZUSDT", Timestamp: time.Now(), Price: decimal.RequireFromString("0.75")}))
	require.NoError(t, rec.RecordTrade(ctx, model.Trade{ID: "t1", Timestamp: time.Now(), Symbol: "XTZUSDT", Side: model.SideBuy,
		Quantity: decimal.NewFromInt(3), Price: decimal.RequireFromString("0.75"), Notional: decimal.RequireFromString("2.25"), Fee: decimal.Zero}))
	require.NoError(t, rec.Close())

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(ctx)
	require.NoError(t, runPortfolio(cmd, nil))

	text := out.String()
	assert.Contains(t, text, "USD: 1500.00")
	assert.Contains(t, text, "XTZUSDT: last 0.75")
	assert.Contains(t, text, "Bought 3.0000000000 XTZUSDT")
	assert.Contains(t, text, "BONKUSDT: no price history")
	assert.NotContains(t, text, "<b>")
}
