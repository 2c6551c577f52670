package notifier

import (
	"fmt"
	"html"
	"strings"

	"WaveSentinel/internal/model"
)

const dateLayout = "2006-01-02"

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// FormatDecision renders one evaluated bar.
func FormatDecision(name string, d *model.Decision) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🌊 <b>%s</b> | %s %s\n\n", html.EscapeString(name), d.Symbol, d.Time.Format(dateLayout)))

	ind := d.Indicators
	b.WriteString(fmt.Sprintf("Close: %.2f\n", ind.Close))
	if ind.SMAReady {
		b.WriteString(fmt.Sprintf("SMA: %.2f\n", ind.SMA))
	}
	if ind.RSIReady && ind.MACDReady {
		b.WriteString(fmt.Sprintf("RSI: %.1f | MACD: %+.2f\n", ind.RSI, ind.MACD))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s Trend\n", mark(d.Trend)))
	b.WriteString(fmt.Sprintf("%s Momentum\n", mark(d.Momentum)))
	b.WriteString(fmt.Sprintf("%s Impulse: %s\n", mark(d.Impulse), html.EscapeString(d.ImpulseNote)))

	if s := d.Scenario; s != nil {
		b.WriteString(fmt.Sprintf("\n📐 <b>Base scenario:</b> %s %s (confidence %.2f)\n", s.Type, s.Phase, s.Confidence))
		b.WriteString(fmt.Sprintf("   Invalidation: %.2f | Target: %.2f\n", s.InvalidationPrice, s.PrimaryTarget))
		if d.RewardRisk > 0 {
			b.WriteString(fmt.Sprintf("   Reward/risk: %.2f\n", d.RewardRisk))
		}
	}

	b.WriteString("\n")
	switch d.Action() {
	case model.ActionEnter:
		b.WriteString("🟢 <b>ENTER LONG</b>\n")
	case model.ActionExit:
		b.WriteString(fmt.Sprintf("🔴 <b>EXIT</b> (%s)\n", d.ExitReason))
	default:
		if d.PositionOpen {
			b.WriteString("⏸ Hold position\n")
		} else {
			b.WriteString("⏸ Stay flat\n")
		}
	}
	return b.String()
}

// FormatPosition renders the paper position, marked at price when open.
func FormatPosition(state *model.PositionState, price float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Position</b> | %s\n\n", state.Symbol))
	if state.Open {
		unrealized := (price - state.EntryPrice) * state.Quantity
		b.WriteString(fmt.Sprintf("Open since %s at %.2f\n", state.EntryTime.Format(dateLayout), state.EntryPrice))
		b.WriteString(fmt.Sprintf("Quantity: %.4f\n", state.Quantity))
		if price > 0 {
			b.WriteString(fmt.Sprintf("Last: %.2f | Unrealized: %+.2f\n", price, unrealized))
		}
	} else {
		b.WriteString("Flat\n")
	}
	b.WriteString(fmt.Sprintf("Capital: %.2f\n", state.Capital))
	b.WriteString(fmt.Sprintf("Realized PnL: %+.2f\n", state.RealizedPnL))
	b.WriteString(fmt.Sprintf("Closed trades: %d (won %d)\n", state.ClosedTrades, state.WinningTrades))
	if !state.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatTrade renders a closed trade.
func FormatTrade(t *model.Trade) string {
	icon := "📉"
	if t.Win() {
		icon = "📈"
	}
	return fmt.Sprintf("%s <b>Trade closed</b> | %s\n\n%s %.2f → %s %.2f\nPnL: %+.2f (%+.2f%%)\nReason: %s\n",
		icon, t.Symbol,
		t.EntryTime.Format(dateLayout), t.EntryPrice,
		t.ExitTime.Format(dateLayout), t.ExitPrice,
		t.PnL, t.ReturnPct, t.ExitReason)
}

// FormatBacktest renders a backtest summary.
func FormatBacktest(s *model.BacktestSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>Backtest</b> | %s %s\n", s.Symbol, html.EscapeString(s.Strategy)))
	b.WriteString(fmt.Sprintf("%s → %s (%d bars)\n\n", s.From.Format(dateLayout), s.To.Format(dateLayout), s.Bars))
	b.WriteString(fmt.Sprintf("Trades: %d (won %d, lost %d, win rate %.1f%%)\n", s.Trades, s.Wins, s.Losses, s.WinRate*100))
	b.WriteString(fmt.Sprintf("Capital: %.2f → %.2f\n", s.StartCapital, s.EndCapital))
	b.WriteString(fmt.Sprintf("Net profit: %+.2f (%+.2f%%)\n", s.NetProfit, s.TotalReturnPct))
	b.WriteString(fmt.Sprintf("Buy and hold: %+.2f%%\n", s.BuyAndHoldPct))
	if s.ProfitFactor > 0 {
		b.WriteString(fmt.Sprintf("Profit factor: %.2f\n", s.ProfitFactor))
	}
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", s.MaxDrawdownPct))
	b.WriteString(fmt.Sprintf("Exposure: %.1f%%\n", s.ExposurePct))
	if s.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", s.RunID))
	}
	return b.String()
}

// FormatError renders a failed task.
func FormatError(task string, err error) string {
	return fmt.Sprintf("❌ <b>%s failed</b>\n%s", html.EscapeString(task), html.EscapeString(err.Error()))
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n• /status  last decision\n• /position  paper position\n• /evaluate  evaluate now"
}
