package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"SpotSentinel/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_LoadDefault(t *testing.T) {
	book := NewBook(filepath.Join(t.TempDir(), "balances.json"), DefaultInitialUSD)
	bal, err := book.Load()
	require.NoError(t, err)
	assert.True(t, bal.USD.Equal(decimal.NewFromInt(2000)))
	assert.Empty(t, bal.Positions)
	assert.True(t, bal.Position("XTZ").IsZero())
}

func TestBook_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "balances.json")
	book := NewBook(path, DefaultInitialUSD)

	bal := model.NewBalances(decimal.RequireFromString("10010.0"))
	bal.Positions["XTZ"] = decimal.NewFromInt(10000)
	bal.Positions["PEPE"] = decimal.RequireFromString("123456789.000000001")
	bal.Positions["BONK"] = decimal.Zero
	bal.SetReference("XTZUSDT", decimal.RequireFromString("0.95"))
	require.NoError(t, book.Save(bal))

	loaded, err := NewBook(path, DefaultInitialUSD).Load()
	require.NoError(t, err)
	assert.True(t, bal.Equal(loaded), "saved %+v loaded %+v", bal, loaded)
	assert.True(t, loaded.Position("XTZ").Equal(decimal.NewFromInt(10000)))
	assert.False(t, loaded.UpdatedAt.IsZero())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestBook_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	book := NewBook(path, DefaultInitialUSD)

	first := model.NewBalances(decimal.NewFromInt(1))
	first.Positions["XTZ"] = decimal.NewFromInt(5)
	require.NoError(t, book.Save(first))

	second := model.NewBalances(decimal.NewFromInt(2))
	require.NoError(t, book.Save(second))

	loaded, err := book.Load()
	require.NoError(t, err)
	assert.True(t, second.Equal(loaded))
}

func TestBook_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	require.NoError(t, os.WriteFile(path, []byte("USD,2000\n"), 0o644))
	_, err := NewBook(path, DefaultInitialUSD).Load()
	assert.Error(t, err)
}
