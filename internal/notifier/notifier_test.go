package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"WaveSentinel/internal/model"

	"github.com/rs/zerolog"
)

func TestFormatDecision(t *testing.T) {
	d := &model.Decision{
		Symbol:      "SPX",
		Time:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Indicators:  model.IndicatorSnapshot{Close: 5100, SMA: 4900, RSI: 61, MACD: 12, SMAReady: true, RSIReady: true, MACDReady: true},
		Trend:       true,
		Momentum:    true,
		Impulse:     true,
		ImpulseNote: "reward/risk 3.50",
		RewardRisk:  3.5,
		Enter:       true,
		Scenario:    &model.ScenarioView{Type: "IMPULSE", Phase: "WAVE3", Confidence: 0.71, InvalidationPrice: 5000, PrimaryTarget: 5450},
	}
	msg := FormatDecision("High-Reward Elliott Wave Strategy", d)
	for _, want := range []string{"SPX 2025-03-14", "SMA: 4900.00", "IMPULSE WAVE3", "Reward/risk: 3.50", "ENTER LONG"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	d.PositionOpen, d.Exit, d.ExitReason = true, true, model.ExitStopBreach
	if msg := FormatDecision("x", d); !strings.Contains(msg, "EXIT</b> (stop_breach)") {
		t.Errorf("exit message:\n%s", msg)
	}

	d.Exit, d.ImpulseNote = false, "reward/risk 1.00 below 3.00 <low>"
	msg = FormatDecision("x", d)
	if !strings.Contains(msg, "Hold position") || !strings.Contains(msg, "&lt;low&gt;") {
		t.Errorf("hold message:\n%s", msg)
	}
}

func TestFormatPositionAndTrade(t *testing.T) {
	st := &model.PositionState{Symbol: "SPX", Open: true, EntryPrice: 100, Quantity: 10, Capital: 1000}
	if msg := FormatPosition(st, 110); !strings.Contains(msg, "Unrealized: +100.00") {
		t.Errorf("position:\n%s", msg)
	}
	st.Open = false
	if msg := FormatPosition(st, 110); !strings.Contains(msg, "Flat") {
		t.Errorf("flat position:\n%s", msg)
	}

	tr := &model.Trade{Symbol: "SPX", EntryPrice: 100, ExitPrice: 90, PnL: -100, ReturnPct: -10, ExitReason: model.ExitMomentumReversal}
	msg := FormatTrade(tr)
	if !strings.Contains(msg, "📉") || !strings.Contains(msg, "momentum_reversal") || !strings.Contains(msg, "-10.00%") {
		t.Errorf("trade:\n%s", msg)
	}
}

func TestFormatBacktest(t *testing.T) {
	s := &model.BacktestSummary{Symbol: "SPX", Strategy: "x", Trades: 4, Wins: 3, Losses: 1, WinRate: 0.75, NetProfit: 1234.5, MaxDrawdownPct: -8.2, RunID: "abc"}
	msg := FormatBacktest(s)
	for _, want := range []string{"win rate 75.0%", "+1234.50", "-8.20%", "<code>abc</code>"} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Profit factor") {
		t.Error("profit factor shown although zero")
	}
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottok/sendMessage") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
			t.Errorf("payload = %v", payload)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "42", "", zerolog.Nop())
	n.APIBase = srv.URL
	n.RetryBase = time.Millisecond
	if err := n.SendWithRetry(context.Background(), "hi", 3); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	calls.Store(-100)
	if err := n.SendWithRetry(context.Background(), "hi", 1); err == nil {
		t.Error("expected exhausted retries")
	}
}

func TestSendWithRetryCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "42", "", zerolog.Nop())
	n.APIBase = srv.URL
	n.RetryBase = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := n.SendWithRetry(ctx, "hi", 3); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 4)
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) > 1 {
				_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":"/position","chat":{"id":42}}},
				{"update_id":8,"message":{"text":"/status","chat":{"id":99}}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			replies <- payload["text"]
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("tok", "42", "", zerolog.Nop())
	n.APIBase = srv.URL
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case got := <-replies:
		if got != "got /position" {
			t.Errorf("reply = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply received")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	select {
	case got := <-replies:
		t.Errorf("unexpected reply %q to foreign chat", got)
	default:
	}
}

func TestUpdateCommand(t *testing.T) {
	var updates []telegramUpdate
	if err := json.Unmarshal([]byte(`[
		{"update_id":1,"message":{"text":"  /status  ","chat":{"id":-1001}}},
		{"update_id":2,"message":{"text":"   ","chat":{"id":42}}},
		{"update_id":3}
	]`), &updates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	tests := []struct {
		text, chat string
		ok         bool
	}{
		{"/status", "-1001", true},
		{"", "42", false},
		{"", "", false},
	}
	for i, tt := range tests {
		text, chat, ok := updates[i].command()
		if text != tt.text || chat != tt.chat || ok != tt.ok {
			t.Errorf("update %d: command() = %q, %q, %v; want %q, %q, %v", i+1, text, chat, ok, tt.text, tt.chat, tt.ok)
		}
	}
}
