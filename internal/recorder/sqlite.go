package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SpotSentinel/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history and trades to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol    TEXT    NOT NULL,
			timestamp INTEGER NOT NULL,
			price     TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_symbol ON price_history(symbol, id)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			trade_id  TEXT    NOT NULL,
			symbol    TEXT    NOT NULL,
			timestamp INTEGER NOT NULL,
			side      TEXT    NOT NULL,
			quantity  TEXT    NOT NULL,
			price     TEXT    NOT NULL,
			notional  TEXT    NOT NULL,
			fee       TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, id)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) AppendPrice(ctx context.Context, s model.PriceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO price_history (symbol, timestamp, price) VALUES (?,?,?)`,
		s.Symbol, s.Timestamp.UTC().UnixNano(), s.Price.String(),
	)
	if err != nil {
		return fmt.Errorf("append price %s: %w", s.Symbol, err)
	}
	return nil
}

func (r *SQLiteRecorder) ReadPrices(ctx context.Context, symbol string) ([]model.PriceSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT timestamp, price FROM price_history WHERE symbol = ? ORDER BY id`, symbol)
	if err != nil {
		return nil, fmt.Errorf("read prices %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []model.PriceSample
	for rows.Next() {
		var ts int64
		var price decimal.Decimal
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, fmt.Errorf("scan price %s: %w", symbol, err)
		}
		out = append(out, model.PriceSample{
			Symbol:    symbol,
			Timestamp: time.Unix(0, ts).UTC(),
			Price:     price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read prices %s: %w", symbol, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return out, nil
}

func (r *SQLiteRecorder) RecordTrade(ctx context.Context, t model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO trades
		(trade_id, symbol, timestamp, side, quantity, price, notional, fee)
		VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, t.Symbol, t.Timestamp.UTC().UnixNano(), string(t.Side),
		t.Quantity.String(), t.Price.String(), t.Notional.String(), t.Fee.String(),
	)
	if err != nil {
		return fmt.Errorf("record trade %s: %w", t.Symbol, err)
	}
	return nil
}

func (r *SQLiteRecorder) ListTrades(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT trade_id, timestamp, side, quantity, price, notional, fee
		FROM trades WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var (
			t    model.Trade
			ts   int64
			side string
		)
		if err := rows.Scan(&t.ID, &ts, &side, &t.Quantity, &t.Price, &t.Notional, &t.Fee); err != nil {
			return nil, fmt.Errorf("scan trade %s: %w", symbol, err)
		}
		t.Symbol = symbol
		t.Timestamp = time.Unix(0, ts).UTC()
		t.Side = model.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
