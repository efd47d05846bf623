package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SpotSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// FileRecorder keeps one append-only text file per symbol for prices and
// one for trades:
//
//	{dir}/{SYMBOL}_price_history.txt  timestamp,price
//	{dir}/{SYMBOL}_trade_history.txt  timestamp,side,quantity,price,notional,fee,id
type FileRecorder struct {
	dir string
	mu  sync.Mutex
}

// NewFileRecorder creates dir if needed.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileRecorder{dir: dir}, nil
}

func (r *FileRecorder) pricePath(symbol string) string {
	return filepath.Join(r.dir, symbol+"_price_history.txt")
}

func (r *FileRecorder) tradePath(symbol string) string {
	return filepath.Join(r.dir, symbol+"_trade_history.txt")
}

func (r *FileRecorder) AppendPrice(_ context.Context, s model.PriceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return appendRecord(r.pricePath(s.Symbol), []string{
		s.Timestamp.UTC().Format(time.RFC3339Nano),
		s.Price.String(),
	})
}

func (r *FileRecorder) ReadPrices(_ context.Context, symbol string) ([]model.PriceSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := readRecords(r.pricePath(symbol), 2)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("read prices %s: %w", symbol, err)
	}
	out := make([]model.PriceSample, 0, len(records))
	for i, rec := range records {
		ts, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			return nil, fmt.Errorf("read prices %s line %d: %w", symbol, i+1, err)
		}
		price, err := decimal.NewFromString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("read prices %s line %d: %w", symbol, i+1, err)
		}
		out = append(out, model.PriceSample{Symbol: symbol, Timestamp: ts.UTC(), Price: price})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return out, nil
}

func (r *FileRecorder) RecordTrade(_ context.Context, t model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return appendRecord(r.tradePath(t.Symbol), []string{
		t.Timestamp.UTC().Format(time.RFC3339Nano),
		string(t.Side),
		t.Quantity.String(),
		t.Price.String(),
		t.Notional.String(),
		t.Fee.String(),
		t.ID,
	})
}

func (r *FileRecorder) ListTrades(_ context.Context, symbol string, limit int) ([]model.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := readRecords(r.tradePath(symbol), 7)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list trades %s: %w", symbol, err)
	}
	var out []model.Trade
	for i := len(records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		t, err := parseTrade(symbol, records[i])
		if err != nil {
			return nil, fmt.Errorf("list trades %s line %d: %w", symbol, i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *FileRecorder) Close() error { return nil }

func parseTrade(symbol string, rec []string) (model.Trade, error) {
	ts, err := time.Parse(time.RFC3339Nano, rec[0])
	if err != nil {
		return model.Trade{}, err
	}
	var nums [4]decimal.Decimal
	for i := range nums {
		if nums[i], err = decimal.NewFromString(rec[2+i]); err != nil {
			return model.Trade{}, err
		}
	}
	return model.Trade{
		ID:        rec[6],
		Timestamp: ts.UTC(),
		Symbol:    symbol,
		Side:      model.Side(rec[1]),
		Quantity:  nums[0],
		Price:     nums[1],
		Notional:  nums[2],
		Fee:       nums[3],
	}, nil
}

func appendRecord(path string, fields []string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()
	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	w.Flush()
	return w.Error()
}

func readRecords(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = fields
	var out [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
