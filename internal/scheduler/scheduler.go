package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"SpotSentinel/internal/model"
	"SpotSentinel/internal/notifier"
	"SpotSentinel/internal/portfolio"
	"SpotSentinel/internal/strategy"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const notifyRetries = 3

// History seeds a symbol's price series and records every fetched price.
type History interface {
	Initialize(ctx context.Context, symbol string) error
	Observe(ctx context.Context, symbol string) (model.PriceSample, error)
}

// Rebalancer runs one symbol through the engine.
type Rebalancer interface {
	Rebalance(ctx context.Context, symbol string, bal *model.Balances) strategy.Result
}

// Notifier delivers human-readable reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures the cycle.
type Options struct {
	Symbols    []string
	QuoteAsset string
	// Interval is used when CronSpec is empty.
	Interval time.Duration
	// CronSpec is a six-field (seconds first) cron expression.
	CronSpec string
}

// CycleReport is the outcome of one full cycle.
type CycleReport struct {
	At              time.Time
	Results         []strategy.Result
	TotalValue      decimal.Decimal
	ValuationErrors int
}

// Trades returns the trades executed during the cycle.
func (r CycleReport) Trades() []model.Trade {
	var out []model.Trade
	for _, res := range r.Results {
		if res.Traded() {
			out = append(out, *res.Trade)
		}
	}
	return out
}

// Scheduler drives the periodic rebalance cycle. It exclusively owns the
// live balances; every cycle runs under mu so cycles never overlap.
type Scheduler struct {
	cron     *cron.Cron
	opts     Options
	history  History
	engine   Rebalancer
	book     *portfolio.Book
	notifier Notifier
	log      *logrus.Entry
	now      func() time.Time

	mu  sync.Mutex
	bal *model.Balances
}

// NewScheduler creates a Scheduler over balances already loaded from book.
// notifier may be nil.
func NewScheduler(opts Options, history History, engine Rebalancer, book *portfolio.Book, bal *model.Balances,
	n Notifier, log *logrus.Entry) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		opts:     opts,
		history:  history,
		engine:   engine,
		book:     book,
		bal:      bal,
		notifier: n,
		log:      log,
		now:      time.Now,
	}
}

func (s *Scheduler) spec() string {
	if s.opts.CronSpec != "" {
		return s.opts.CronSpec
	}
	return "@every " + s.opts.Interval.String()
}

// Initialize seeds history for every tracked symbol. Failures are logged and
// do not stop the remaining symbols.
func (s *Scheduler) Initialize(ctx context.Context) {
	for _, sym := range s.opts.Symbols {
		if err := s.history.Initialize(ctx, sym); err != nil {
			s.log.WithField("symbol", sym).WithError(err).Error("history initialization failed")
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Start initializes history, runs one cycle immediately and then registers
// the periodic job. The job runs until Stop or until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.Initialize(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.RunCycle(ctx)

	spec := s.spec()
	if _, err := s.cron.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		s.RunCycle(ctx)
	}); err != nil {
		return fmt.Errorf("register cycle %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.WithField("schedule", spec).Info("scheduler started")
	return nil
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunCycle rebalances every symbol in order, persists the balances and
// reports the total portfolio value.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := CycleReport{At: s.now()}
	for _, sym := range s.opts.Symbols {
		res := s.engine.Rebalance(ctx, sym, s.bal)
		report.Results = append(report.Results, res)
		if res.Traded() {
			s.trySend(ctx, notifier.FormatTrade(*res.Trade))
		}
	}

	if err := s.book.Save(s.bal); err != nil {
		s.log.WithError(err).Error("persist balances failed, keeping in-memory state")
	}

	report.TotalValue, report.ValuationErrors = s.valuate(ctx)
	s.log.WithFields(logrus.Fields{
		"trades":           len(report.Trades()),
		"valuation_errors": report.ValuationErrors,
	}).Infof("Total Portfolio Value in USD: %s", report.TotalValue.StringFixed(2))
	s.trySend(ctx, notifier.FormatCycleReport(report.At, report.Results, report.TotalValue, report.ValuationErrors))
	return report
}

// valuate returns usd + sum(holding * current price). Valuation prices are
// appended to history like any other fetch. Unpriceable positions
// contribute zero.
func (s *Scheduler) valuate(ctx context.Context) (decimal.Decimal, int) {
	total := s.bal.USD
	failed := 0

	assets := make([]string, 0, len(s.bal.Positions))
	for asset, qty := range s.bal.Positions {
		if !qty.IsZero() {
			assets = append(assets, asset)
		}
	}
	sort.Strings(assets)

	for _, asset := range assets {
		symbol := asset + s.opts.QuoteAsset
		sample, err := s.history.Observe(ctx, symbol)
		if err != nil {
			failed++
			s.log.WithField("symbol", symbol).WithError(err).Warn("valuation price unavailable, counting as zero")
			continue
		}
		total = total.Add(s.bal.Positions[asset].Mul(sample.Price))
	}
	return total, failed
}

// Balances returns a copy of the live balances.
func (s *Scheduler) Balances() *model.Balances {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bal.Clone()
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/portfolio", "/balances":
		return notifier.FormatPortfolio(s.Balances())
	default:
		return "Available commands:\n• /portfolio"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendWithRetry(ctx, text, notifyRetries); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
