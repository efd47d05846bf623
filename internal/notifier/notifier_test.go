package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SpotSentinel/internal/model"
	"SpotSentinel/internal/strategy"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(t *testing.T, srv *httptest.Server) *TelegramNotifier {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	n := NewTelegramNotifier("TOKEN", "42", "", logrus.NewEntry(l))
	n.APIBase = srv.URL
	n.Client = srv.Client()
	n.BaseBackoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(t, srv).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failFirst int32
		retries   int
		wantErr   bool
		wantCalls int32
	}{
		{"first try", 0, 3, false, 1},
		{"recovers", 2, 3, false, 3},
		{"exhausted", 10, 2, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) <= tt.failFirst {
					http.Error(w, "boom", http.StatusBadGateway)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			err := testNotifier(t, srv).SendWithRetry(context.Background(), "x", tt.retries)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := testNotifier(t, srv)
	n.BaseBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := n.SendWithRetry(ctx, "x", 3)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStartPolling_RepliesToCommand(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		served  bool
		replies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			first := !served
			served = true
			mu.Unlock()
			if first {
				_, _ = io.WriteString(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /portfolio "}}]}`)
				return
			}
			assert.Equal(t, "8", r.URL.Query().Get("offset"))
			_, _ = io.WriteString(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			_ = json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			replies = append(replies, p["text"])
			mu.Unlock()
			cancel()
		}
	}))
	defer srv.Close()

	var commands []string
	done := make(chan struct{})
	go func() {
		testNotifier(t, srv).StartPolling(ctx, func(cmd string) string {
			commands = append(commands, cmd)
			return "book"
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/portfolio"}, commands)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"book"}, replies)
}

func TestFormatTrade(t *testing.T) {
	buy := model.Trade{
		Symbol:   "XTZUSDT",
		Side:     model.SideBuy,
		Quantity: decimal.RequireFromString("125000"),
		Price:    decimal.NewFromInt(1),
		Notional: decimal.RequireFromString("125000"),
		Fee:      decimal.RequireFromString("125"),
	}
	assert.Equal(t, "🟢 Bought 125000.0000000000 XTZUSDT @ 1 for $125000.00 (fee $125.00)", FormatTrade(buy))

	sell := buy
	sell.Side = model.SideSell
	sell.Quantity = buy.Quantity.Neg()
	sell.Notional = buy.Notional.Neg()
	assert.Equal(t, "🔴 Sold 125000.0000000000 XTZUSDT @ 1 for $125000.00 (fee $125.00)", FormatTrade(sell))
}

func TestFormatCycleReport(t *testing.T) {
	trade := model.Trade{Symbol: "PEPEUSDT", Side: model.SideBuy, Quantity: decimal.NewFromInt(10),
		Price: decimal.NewFromInt(2), Notional: decimal.NewFromInt(20), Fee: decimal.RequireFromString("0.02")}
	results := []strategy.Result{
		{Symbol: "XTZUSDT", Price: decimal.NewFromInt(1), Skip: "insufficient data"},
		{Symbol: "BXXUSDT", Err: errors.New("quote fetch failed")},
		{Symbol: "PEPEUSDT", Price: decimal.NewFromInt(2), Trade: &trade},
	}
	out := FormatCycleReport(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), results, decimal.RequireFromString("1999.5"), 1)

	assert.Contains(t, out, "2024-03-01 12:00:00")
	assert.Contains(t, out, "XTZUSDT @ 1: insufficient data")
	assert.Contains(t, out, "BXXUSDT: quote fetch failed")
	assert.Contains(t, out, "Bought 10.0000000000 PEPEUSDT")
	assert.Contains(t, out, "Total Portfolio Value in USD: 1999.50")
	assert.Contains(t, out, "1 position(s) could not be priced")
}

func TestFormatPortfolio(t *testing.T) {
	bal := model.NewBalances(decimal.RequireFromString("1500.5"))
	bal.Positions["XTZ"] = decimal.RequireFromString("3.5")
	bal.Positions["BONK"] = decimal.Zero
	bal.SetReference("XTZUSDT", decimal.RequireFromString("0.75"))

	out := FormatPortfolio(bal)
	assert.Contains(t, out, "USD: 1500.50")
	assert.Less(t, strings.Index(out, "BONK"), strings.Index(out, "XTZ:"))
	assert.Contains(t, out, "XTZUSDT: 0.75")
}
