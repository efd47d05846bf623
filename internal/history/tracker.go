package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SpotSentinel/internal/collector"
	"SpotSentinel/internal/model"
	"SpotSentinel/internal/recorder"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options controls seeding and the size of the in-memory working window.
type Options struct {
	SeedSamples  int
	SeedInterval time.Duration
	WindowSize   int
}

// Tracker owns the per-symbol price series. The durable recorder keeps the
// full audit trail; an in-memory ring keeps the last WindowSize samples used
// for volatility estimation.
type Tracker struct {
	rec      recorder.Recorder
	fetcher  collector.Fetcher
	limiter  *rate.Limiter
	seedSize int
	winSize  int
	log      *logrus.Entry
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*ring
}

// NewTracker creates a Tracker.
func NewTracker(rec recorder.Recorder, fetcher collector.Fetcher, opts Options, log *logrus.Entry) *Tracker {
	if opts.SeedSamples <= 0 {
		opts.SeedSamples = 15
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = 60
	}
	return &Tracker{
		rec:      rec,
		fetcher:  fetcher,
		limiter:  rate.NewLimiter(rate.Every(opts.SeedInterval), 1),
		seedSize: opts.SeedSamples,
		winSize:  opts.WindowSize,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		windows:  make(map[string]*ring),
	}
}

// Initialize seeds a fresh series with SeedSamples fetches, paced by
// SeedInterval. It is a no-op when a series already exists.
func (t *Tracker) Initialize(ctx context.Context, symbol string) error {
	_, err := t.rec.ReadPrices(ctx, symbol)
	if err == nil {
		return nil
	}
	if !errors.Is(err, recorder.ErrNotFound) {
		return fmt.Errorf("check history %s: %w", symbol, err)
	}

	t.log.WithField("symbol", symbol).Infof("initializing price history with %d samples", t.seedSize)
	for i := 0; i < t.seedSize; i++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", symbol, err)
		}
		if _, err := t.Observe(ctx, symbol); err != nil {
			return fmt.Errorf("seed %s sample %d/%d: %w", symbol, i+1, t.seedSize, err)
		}
	}
	return nil
}

// Observe fetches the current price for symbol and appends it. Only quote
// failures are returned; a failed durable write is logged.
func (t *Tracker) Observe(ctx context.Context, symbol string) (model.PriceSample, error) {
	price, err := t.fetcher.FetchPrice(ctx, symbol)
	if err != nil {
		return model.PriceSample{}, err
	}
	sample := model.PriceSample{Symbol: symbol, Timestamp: t.now(), Price: price}
	if err := t.Append(ctx, sample); err != nil {
		t.log.WithField("symbol", symbol).WithError(err).Warn("price history write failed")
	}
	return sample, nil
}

// Append adds sample to the working window and the durable series. The
// window is updated even when the durable write fails.
func (t *Tracker) Append(ctx context.Context, sample model.PriceSample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	win, ok := t.windows[sample.Symbol]
	if !ok {
		win = t.warm(ctx, sample.Symbol)
		t.windows[sample.Symbol] = win
	}
	win.push(sample)

	if err := t.rec.AppendPrice(ctx, sample); err != nil {
		return fmt.Errorf("append history %s: %w", sample.Symbol, err)
	}
	return nil
}

// Read returns the full durable series for symbol.
func (t *Tracker) Read(ctx context.Context, symbol string) (model.PriceSeries, error) {
	samples, err := t.rec.ReadPrices(ctx, symbol)
	if err != nil {
		return model.PriceSeries{}, err
	}
	return model.PriceSeries{Symbol: symbol, Samples: samples}, nil
}

// Window returns the most recent WindowSize samples for symbol.
func (t *Tracker) Window(ctx context.Context, symbol string) (model.PriceSeries, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	win, ok := t.windows[symbol]
	if !ok {
		samples, err := t.rec.ReadPrices(ctx, symbol)
		if err != nil {
			return model.PriceSeries{}, err
		}
		win = newRing(t.winSize)
		for _, s := range samples {
			win.push(s)
		}
		t.windows[symbol] = win
	}
	return model.PriceSeries{Symbol: symbol, Samples: win.samples()}, nil
}

// warm loads the durable tail into a new ring; a missing or unreadable
// series yields an empty one.
func (t *Tracker) warm(ctx context.Context, symbol string) *ring {
	win := newRing(t.winSize)
	samples, err := t.rec.ReadPrices(ctx, symbol)
	if err != nil {
		if !errors.Is(err, recorder.ErrNotFound) {
			t.log.WithField("symbol", symbol).WithError(err).Warn("warm price window failed")
		}
		return win
	}
	for _, s := range samples {
		win.push(s)
	}
	return win
}
