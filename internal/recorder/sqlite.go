package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"WaveSentinel/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers run while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at        INTEGER NOT NULL,
			run_id             TEXT NOT NULL,
			symbol             TEXT NOT NULL,
			bar_index          INTEGER,
			bar_time           INTEGER,
			trigger_type       TEXT,
			close              REAL,
			sma                REAL,
			rsi                REAL,
			macd               REAL,
			trend              INTEGER,
			momentum           INTEGER,
			impulse            INTEGER,
			impulse_note       TEXT,
			reward_risk        REAL,
			scenario_type      TEXT,
			scenario_phase     TEXT,
			confidence         REAL,
			invalidation_price REAL,
			primary_target     REAL,
			position_open      INTEGER,
			action             TEXT,
			exit_reason        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id, bar_time)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			run_id      TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			entry_index INTEGER,
			entry_time  INTEGER,
			entry_price REAL,
			exit_index  INTEGER,
			exit_time   INTEGER,
			exit_price  REAL,
			quantity    REAL,
			pnl         REAL,
			return_pct  REAL,
			exit_reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, entry_time)`,

		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id           TEXT PRIMARY KEY,
			recorded_at      INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			strategy         TEXT,
			from_time        INTEGER,
			to_time          INTEGER,
			bars             INTEGER,
			trades           INTEGER,
			wins             INTEGER,
			losses           INTEGER,
			win_rate         REAL,
			start_capital    REAL,
			end_capital      REAL,
			net_profit       REAL,
			total_return_pct REAL,
			buy_and_hold_pct REAL,
			profit_factor    REAL,
			max_drawdown_pct REAL,
			exposure_pct     REAL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordDecision(runID string, d *model.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var scenarioType, scenarioPhase string
	var confidence, invalidation, target float64
	if s := d.Scenario; s != nil {
		scenarioType, scenarioPhase = s.Type, s.Phase
		confidence, invalidation, target = s.Confidence, s.InvalidationPrice, s.PrimaryTarget
	}
	ind := d.Indicators

	_, err := r.db.Exec(`INSERT INTO decisions
		(recorded_at, run_id, symbol, bar_index, bar_time, trigger_type,
		 close, sma, rsi, macd, trend, momentum, impulse, impulse_note, reward_risk,
		 scenario_type, scenario_phase, confidence, invalidation_price, primary_target,
		 position_open, action, exit_reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), runID, d.Symbol, d.Index, unixOrZero(d.Time), string(d.Trigger),
		ind.Close, ind.SMA, ind.RSI, ind.MACD,
		boolInt(d.Trend), boolInt(d.Momentum), boolInt(d.Impulse), d.ImpulseNote, d.RewardRisk,
		scenarioType, scenarioPhase, confidence, invalidation, target,
		boolInt(d.PositionOpen), string(d.Action()), string(d.ExitReason),
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(runID string, t *model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(recorded_at, run_id, symbol, entry_index, entry_time, entry_price,
		 exit_index, exit_time, exit_price, quantity, pnl, return_pct, exit_reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), runID, t.Symbol,
		t.EntryIndex, unixOrZero(t.EntryTime), t.EntryPrice,
		t.ExitIndex, unixOrZero(t.ExitTime), t.ExitPrice,
		t.Quantity, t.PnL, t.ReturnPct, string(t.ExitReason),
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(s *model.BacktestSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO backtest_runs
		(run_id, recorded_at, symbol, strategy, from_time, to_time, bars,
		 trades, wins, losses, win_rate, start_capital, end_capital, net_profit,
		 total_return_pct, buy_and_hold_pct, profit_factor, max_drawdown_pct, exposure_pct)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.RunID, time.Now().Unix(), s.Symbol, s.Strategy, unixOrZero(s.From), unixOrZero(s.To), s.Bars,
		s.Trades, s.Wins, s.Losses, s.WinRate, s.StartCapital, s.EndCapital, s.NetProfit,
		s.TotalReturnPct, s.BuyAndHoldPct, s.ProfitFactor, s.MaxDrawdownPct, s.ExposurePct,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
