package portfolio

import (
	"sync"
	"time"

	"SpotSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// Book is the durable position book. Callers own the live *model.Balances
// between saves.
type Book struct {
	mu         sync.Mutex
	filePath   string
	initialUSD decimal.Decimal
	now        func() time.Time
}

// NewBook creates a Book backed by filePath.
func NewBook(filePath string, initialUSD decimal.Decimal) *Book {
	return &Book{
		filePath:   filePath,
		initialUSD: initialUSD,
		now:        time.Now,
	}
}

// Load reads the durable balances, falling back to a fresh account.
func (b *Book) Load() (*model.Balances, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return LoadState(b.filePath, b.initialUSD)
}

// Save overwrites the durable balances with bal.
func (b *Book) Save(bal *model.Balances) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal.UpdatedAt = b.now().UTC()
	return SaveState(b.filePath, bal)
}
