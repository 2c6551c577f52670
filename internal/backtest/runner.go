// Package backtest replays a price series through the strategy with a techan
// trading record and summarizes the resulting trades.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"WaveSentinel/internal/model"
	"WaveSentinel/internal/recorder"
	"WaveSentinel/internal/strategy"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// Options configures a run.
type Options struct {
	Capital    float64
	CloseAtEnd bool
	// KeepDecisions evaluates the full decision breakdown on every bar.
	// It runs the analyzer on each bar and is much slower.
	KeepDecisions bool
}

func DefaultOptions() Options {
	return Options{Capital: 10000, CloseAtEnd: true}
}

// Point is one sample of the equity curve.
type Point struct {
	Index  int     `json:"index"`
	Equity float64 `json:"equity"`
}

type Result struct {
	Summary   model.BacktestSummary
	Trades    []model.Trade
	Equity    []Point
	Decisions []*model.Decision
	Record    *techan.TradingRecord
}

// Runner drives one engine over its series.
type Runner struct {
	engine *strategy.Engine
	opts   Options
	log    zerolog.Logger
}

func NewRunner(engine *strategy.Engine, opts Options, log zerolog.Logger) *Runner {
	if opts.Capital <= 0 {
		opts.Capital = DefaultOptions().Capital
	}
	return &Runner{engine: engine, opts: opts, log: log}
}

type openTrade struct {
	index    int
	price    float64
	quantity float64
}

// Run iterates the bars in order. Entries are only considered while flat and
// after the indicator unstable period, exits only while a position is open.
// Fills happen at the bar close. A rule error aborts the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	series := r.engine.Series()
	if series.Len() == 0 {
		return nil, errors.New("empty series")
	}
	strat := r.engine.Strategy()

	var ruleErr error
	rs := strat.Techan(func(index int, err error) {
		if ruleErr == nil {
			ruleErr = fmt.Errorf("bar %d: %w", index, err)
		}
	})

	record := techan.NewTradingRecord()
	res := &Result{Record: record, Equity: make([]Point, 0, series.Len())}
	cash := r.opts.Capital
	var pos *openTrade
	barsInMarket := 0

	operate := func(side techan.OrderSide, i int, qty float64) {
		record.Operate(techan.Order{
			Side:          side,
			Security:      series.Symbol,
			Price:         big.NewDecimal(series.Bars[i].Close),
			Amount:        big.NewDecimal(qty),
			ExecutionTime: series.Bars[i].Time,
		})
	}
	closeAt := func(i int, reason model.ExitReason) {
		price := series.Bars[i].Close
		operate(techan.SELL, i, pos.quantity)
		pnl := (price - pos.price) * pos.quantity
		cash += pnl
		res.Trades = append(res.Trades, model.Trade{
			Symbol:     series.Symbol,
			EntryIndex: pos.index,
			EntryTime:  series.Bars[pos.index].Time,
			EntryPrice: pos.price,
			ExitIndex:  i,
			ExitTime:   series.Bars[i].Time,
			ExitPrice:  price,
			Quantity:   pos.quantity,
			PnL:        pnl,
			ReturnPct:  (price/pos.price - 1) * 100,
			ExitReason: reason,
		})
		r.log.Debug().Int("index", i).Float64("price", price).Float64("pnl", pnl).Str("reason", string(reason)).Msg("exit")
		pos = nil
	}

	for i := 0; i < series.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.opts.KeepDecisions {
			d, err := r.engine.Evaluate(i, record)
			if err != nil {
				return nil, err
			}
			d.Trigger = model.TriggerBacktest
			res.Decisions = append(res.Decisions, d)
		}

		if pos == nil {
			if rs.ShouldEnter(i, record) {
				price := series.Bars[i].Close
				pos = &openTrade{index: i, price: price, quantity: cash / price}
				operate(techan.BUY, i, pos.quantity)
				r.log.Debug().Int("index", i).Float64("price", price).Msg("enter")
			}
			if ruleErr != nil {
				return nil, ruleErr
			}
		} else {
			exit, reason, err := r.engine.CheckExit(i, record)
			if err != nil {
				return nil, fmt.Errorf("bar %d: %w", i, err)
			}
			if exit {
				closeAt(i, reason)
			}
		}

		equity := cash
		if pos != nil {
			barsInMarket++
			equity = cash + (series.Bars[i].Close-pos.price)*pos.quantity
		}
		res.Equity = append(res.Equity, Point{Index: i, Equity: equity})
	}

	last := series.Len() - 1
	if pos != nil && r.opts.CloseAtEnd {
		closeAt(last, model.ExitEndOfData)
		res.Equity[last].Equity = cash
	}

	res.Summary = Summarize(series, strat.Name, r.opts.Capital, res.Trades, res.Equity, barsInMarket)
	res.Summary.RunID = uuid.NewString()
	if profit := (techan.TotalProfitAnalysis{}).Analyze(record); !approxEqual(profit, res.Summary.NetProfit) {
		r.log.Warn().Float64("record", profit).Float64("trades", res.Summary.NetProfit).Msg("trading record profit mismatch")
	}
	r.log.Info().
		Str("symbol", series.Symbol).
		Int("bars", series.Len()).
		Int("trades", res.Summary.Trades).
		Float64("net_profit", res.Summary.NetProfit).
		Msg("backtest finished")
	return res, nil
}

// Persist writes the run, its trades and any kept decisions.
func Persist(rec recorder.Recorder, res *Result) error {
	id := res.Summary.RunID
	for _, d := range res.Decisions {
		if err := rec.RecordDecision(id, d); err != nil {
			return fmt.Errorf("record decision %d: %w", d.Index, err)
		}
	}
	for i := range res.Trades {
		if err := rec.RecordTrade(id, &res.Trades[i]); err != nil {
			return fmt.Errorf("record trade %d: %w", i, err)
		}
	}
	if err := rec.RecordRun(&res.Summary); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
