// Package position tracks the paper position of the live bot.
package position

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"WaveSentinel/internal/model"

	"github.com/rs/zerolog"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

var (
	ErrAlreadyOpen = errors.New("position already open")
	ErrNotOpen     = errors.New("no open position")
)

// Manager handles position changes with concurrency safety. Every change is
// persisted before it is reported.
type Manager struct {
	mu       sync.Mutex
	state    *model.PositionState
	filePath string
	log      zerolog.Logger
}

// NewManager creates a Manager, loading or initializing state from disk.
// capital seeds a fresh state and is ignored when a state already exists.
func NewManager(filePath, symbol string, capital float64, log zerolog.Logger) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load position state: %w", err)
	}

	// Initialize if fresh state
	if state.Symbol == "" {
		state.Symbol = symbol
		state.Capital = capital
	} else if state.Symbol != symbol {
		return nil, fmt.Errorf("state file %s tracks %s, not %s", filePath, state.Symbol, symbol)
	}

	m := &Manager{state: state, filePath: filePath, log: log}
	if err := m.save(); err != nil {
		return nil, fmt.Errorf("save position state: %w", err)
	}
	return m, nil
}

// State returns a copy of the current position state.
func (m *Manager) State() model.PositionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// IsOpen reports whether a position is open.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Open
}

// Open buys with the full capital at price.
func (m *Manager) Open(price float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Open {
		return ErrAlreadyOpen
	}
	if price <= 0 {
		return fmt.Errorf("invalid entry price %.4f", price)
	}
	if m.state.Capital <= 0 {
		return fmt.Errorf("no capital left (%.2f)", m.state.Capital)
	}

	prev := *m.state
	m.state.Open = true
	m.state.EntryPrice = price
	m.state.EntryTime = at
	m.state.Quantity = m.state.Capital / price
	if err := m.save(); err != nil {
		*m.state = prev
		return fmt.Errorf("save position state: %w", err)
	}
	m.log.Info().
		Str("symbol", m.state.Symbol).
		Float64("price", price).
		Float64("quantity", m.state.Quantity).
		Msg("position opened")
	return nil
}

// Close sells the open position at price and returns the completed trade.
func (m *Manager) Close(price float64, at time.Time, reason model.ExitReason) (model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Open {
		return model.Trade{}, ErrNotOpen
	}
	if price <= 0 {
		return model.Trade{}, fmt.Errorf("invalid exit price %.4f", price)
	}

	s := m.state
	trade := model.Trade{
		Symbol:     s.Symbol,
		EntryTime:  s.EntryTime,
		EntryPrice: s.EntryPrice,
		ExitTime:   at,
		ExitPrice:  price,
		Quantity:   s.Quantity,
		PnL:        (price - s.EntryPrice) * s.Quantity,
		ReturnPct:  (price/s.EntryPrice - 1) * 100,
		ExitReason: reason,
	}

	prev := *s
	s.Capital += trade.PnL
	s.RealizedPnL += trade.PnL
	s.ClosedTrades++
	if trade.Win() {
		s.WinningTrades++
	}
	s.Open = false
	s.EntryPrice = 0
	s.EntryTime = time.Time{}
	s.Quantity = 0
	if err := m.save(); err != nil {
		*m.state = prev
		return model.Trade{}, fmt.Errorf("save position state: %w", err)
	}
	m.log.Info().
		Str("symbol", s.Symbol).
		Float64("price", price).
		Float64("pnl", trade.PnL).
		Str("reason", string(reason)).
		Msg("position closed")
	return trade, nil
}

// TradingRecord rebuilds a techan record holding the open position, if any,
// so the strategy rules see the live position state.
func (m *Manager) TradingRecord() *techan.TradingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := techan.NewTradingRecord()
	if m.state.Open {
		rec.Operate(techan.Order{
			Side:          techan.BUY,
			Security:      m.state.Symbol,
			Price:         big.NewDecimal(m.state.EntryPrice),
			Amount:        big.NewDecimal(m.state.Quantity),
			ExecutionTime: m.state.EntryTime,
		})
	}
	return rec
}

// MarkToMarket returns the unrealized PnL at price.
func (m *Manager) MarkToMarket(price float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Open {
		return 0
	}
	return (price - m.state.EntryPrice) * m.state.Quantity
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
