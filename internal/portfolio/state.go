package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"SpotSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultInitialUSD is the cash a fresh account starts with.
var DefaultInitialUSD = decimal.NewFromInt(2000)

// LoadState reads balances from a JSON file. Returns a fresh account holding
// initialUSD if the file doesn't exist.
func LoadState(filePath string, initialUSD decimal.Decimal) (*model.Balances, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewBalances(initialUSD), nil
		}
		return nil, fmt.Errorf("read balances: %w", err)
	}
	var bal model.Balances
	if err := json.Unmarshal(data, &bal); err != nil {
		return nil, fmt.Errorf("parse balances %s: %w", filePath, err)
	}
	if bal.Positions == nil {
		bal.Positions = make(map[string]decimal.Decimal)
	}
	if bal.ReferencePrices == nil {
		bal.ReferencePrices = make(map[string]decimal.Decimal)
	}
	return &bal, nil
}

// SaveState writes balances to a temp file in the target directory and
// renames it over filePath, so readers see either the old or the new record.
func SaveState(filePath string, bal *model.Balances) (err error) {
	data, err := json.MarshalIndent(bal, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal balances: %w", err)
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp state: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err = os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
