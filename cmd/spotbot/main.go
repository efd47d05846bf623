package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"SpotSentinel/internal/collector"
	"SpotSentinel/internal/config"
	"SpotSentinel/internal/history"
	"SpotSentinel/internal/logger"
	"SpotSentinel/internal/notifier"
	"SpotSentinel/internal/portfolio"
	"SpotSentinel/internal/recorder"
	"SpotSentinel/internal/scheduler"
	"SpotSentinel/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	tradeLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "spotbot",
		Short:        "Volatility-sized spot rebalancing bot",
		Long:         `Polls spot prices, sizes trades from ATR and keeps a virtual USD/asset book.`,
		RunE:         runBot,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default configs/config.yaml or $CONFIG_PATH)")

	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Print balances, reference prices and recent trades",
		RunE:  runPortfolio,
	}
	portfolioCmd.Flags().IntVar(&tradeLimit, "trades", 5, "recent trades to show per symbol")
	rootCmd.AddCommand(portfolioCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	path := cfgFile
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("SpotSentinel starting...")

	fetcher, err := newFetcher(cfg)
	if err != nil {
		log.WithError(err).Fatal("init quote source")
	}
	log.WithField("source", fetcher.Name()).Info("quote source ready")

	rec, err := openRecorder(cfg)
	if err != nil {
		log.WithError(err).Fatal("open recorder")
	}
	defer rec.Close()

	book := portfolio.NewBook(cfg.Portfolio.StateFile, decimal.NewFromFloat(cfg.Portfolio.InitialUSD))
	bal, err := book.Load()
	if err != nil {
		log.WithError(err).Fatal("load balances")
	}

	params := engineParams(cfg)
	if err := params.Validate(); err != nil {
		log.WithError(err).Fatal("engine params")
	}
	tracker := newTracker(cfg, rec, fetcher, logger.Component(log, "history"))
	engine := strategy.NewEngine(tracker, rec, params, logger.Component(log, "engine"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var n scheduler.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Component(log, "telegram"))
		n = tn
	} else {
		log.Info("telegram not configured, reports go to the log only")
	}

	sched := scheduler.NewScheduler(scheduler.Options{
		Symbols:    cfg.Symbols,
		QuoteAsset: cfg.QuoteAsset,
		Interval:   cfg.Schedule.Interval,
		CronSpec:   cfg.Schedule.Cron,
	}, tracker, engine, book, bal, n, logger.Component(log, "scheduler"))

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
	}

	if err := sched.Start(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown requested during startup")
			return nil
		}
		log.WithError(err).Fatal("start scheduler")
	}
	defer sched.Stop()

	log.WithFields(logrus.Fields{
		"symbols": strings.Join(cfg.Symbols, ","),
	}).Info("SpotSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
	return nil
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bal, err := portfolio.NewBook(cfg.Portfolio.StateFile, decimal.NewFromFloat(cfg.Portfolio.InitialUSD)).Load()
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	rec, err := openRecorder(cfg)
	if err != nil {
		return fmt.Errorf("open recorder: %w", err)
	}
	defer rec.Close()

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return fmt.Errorf("init quote source: %w", err)
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	tracker := newTracker(cfg, rec, fetcher, logrus.NewEntry(l))

	plain := strings.NewReplacer("<b>", "", "</b>", "")
	out := cmd.OutOrStdout()
	fmt.Fprint(out, plain.Replace(notifier.FormatPortfolio(bal)))

	for _, sym := range cfg.Symbols {
		series, err := tracker.Read(cmd.Context(), sym)
		switch {
		case errors.Is(err, recorder.ErrNotFound):
			fmt.Fprintf(out, "\n%s: no price history\n", sym)
			continue
		case err != nil:
			return err
		}
		last := series.Samples[series.Len()-1]
		fmt.Fprintf(out, "\n%s: last %s at %s (%d samples)\n",
			sym, last.Price.String(), last.Timestamp.Format("2006-01-02 15:04:05"), series.Len())

		trades, err := rec.ListTrades(cmd.Context(), sym, tradeLimit)
		if err != nil {
			return err
		}
		for _, t := range trades {
			fmt.Fprintf(out, "  %s %s\n", t.Timestamp.Format("2006-01-02 15:04:05"), notifier.FormatTrade(t))
		}
	}
	return nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	if cfg.DataSource.BaseURL == "mock" {
		return collector.NewMockFetcher(mockScripts(cfg.Symbols)), nil
	}
	return collector.NewMexcFetcher(cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.Timeout)
}

// mockScripts builds a deterministic zig-zag walk per symbol for offline runs.
func mockScripts(symbols []string) map[string][]float64 {
	scripts := make(map[string][]float64, len(symbols))
	for i, sym := range symbols {
		price := 1.0 + float64(i)
		walk := make([]float64, 0, 128)
		for j := 0; j < 128; j++ {
			step := 0.01 * float64(j%7-3)
			price *= 1 + step
			walk = append(walk, price)
		}
		scripts[sym] = walk
	}
	return scripts
}

func newTracker(cfg *config.Config, rec recorder.Recorder, fetcher collector.Fetcher, log *logrus.Entry) *history.Tracker {
	return history.NewTracker(rec, fetcher, history.Options{
		SeedSamples:  cfg.History.SeedSamples,
		SeedInterval: cfg.History.SeedInterval,
		WindowSize:   cfg.WindowSize(),
	}, log)
}

func openRecorder(cfg *config.Config) (recorder.Recorder, error) {
	switch cfg.Storage.Driver {
	case "file":
		return recorder.NewFileRecorder(cfg.Storage.Dir)
	default:
		return recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
	}
}

func engineParams(cfg *config.Config) strategy.Params {
	return strategy.Params{
		ATRPeriod:     cfg.Engine.ATRPeriod,
		MinTradeUSD:   decimal.NewFromFloat(cfg.Engine.MinTradeUSD),
		CapitalBase:   decimal.NewFromFloat(cfg.Engine.CapitalBase),
		TakerFee:      decimal.NewFromFloat(cfg.Engine.TakerFee),
		MakerFee:      decimal.NewFromFloat(cfg.Engine.MakerFee),
		QuoteAsset:    cfg.QuoteAsset,
		ReferenceMode: strategy.ReferenceMode(cfg.Engine.ReferenceMode),
	}
}
