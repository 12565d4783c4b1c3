package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/quantperf/internal/contracts"
)

// Schema creates the backtest ledger tables
const Schema = `
	CREATE SCHEMA IF NOT EXISTS backtest;

	CREATE TABLE IF NOT EXISTS backtest.asset_history (
		run_id       TEXT             NOT NULL,
		trade_date   DATE             NOT NULL,
		total_assets DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, trade_date)
	);

	CREATE TABLE IF NOT EXISTS backtest.trades (
		id          BIGSERIAL PRIMARY KEY,
		run_id      TEXT             NOT NULL,
		trade_date  DATE,
		code        TEXT             NOT NULL DEFAULT '',
		action      TEXT             NOT NULL,
		profit      DOUBLE PRECISION,
		return_rate DOUBLE PRECISION
	);

	CREATE INDEX IF NOT EXISTS idx_trades_run_id ON backtest.trades (run_id);
`

// Repository reads backtest ledgers from PostgreSQL
// ⭐ SSOT: 백테스트 원장 조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ledger repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the ledger tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// Load implements Source: asset history ordered by date plus the run's trades
func (r *Repository) Load(ctx context.Context, runID string) (*contracts.Ledger, error) {
	l := &contracts.Ledger{}

	query := `
		SELECT trade_date, total_assets
		FROM backtest.asset_history
		WHERE run_id = $1
		ORDER BY trade_date
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date time.Time
		var assets float64
		if err := rows.Scan(&date, &assets); err != nil {
			return nil, fmt.Errorf("failed to scan asset history: %w", err)
		}
		l.Dates = append(l.Dates, date)
		l.TotalAssets = append(l.TotalAssets, assets)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset history: %w", err)
	}

	if len(l.TotalAssets) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}

	trades, err := r.loadTrades(ctx, runID)
	if err != nil {
		return nil, err
	}
	l.Trades = trades

	return l, nil
}

func (r *Repository) loadTrades(ctx context.Context, runID string) ([]contracts.Trade, error) {
	query := `
		SELECT trade_date, code, action, profit, return_rate
		FROM backtest.trades
		WHERE run_id = $1
		ORDER BY trade_date NULLS FIRST, id
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []contracts.Trade{}
	for rows.Next() {
		var t contracts.Trade
		var date *time.Time
		var action string
		if err := rows.Scan(&date, &t.Code, &action, &t.Profit, &t.ReturnRate); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		if date != nil {
			t.Date = *date
		}
		t.Action = contracts.TradeAction(action)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}

	return trades, nil
}

// RunInfo describes a stored backtest run
type RunInfo struct {
	RunID        string    `json:"run_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Observations int       `json:"observations"`
}

// ListRuns returns every stored run ordered by id
func (r *Repository) ListRuns(ctx context.Context) ([]RunInfo, error) {
	query := `
		SELECT run_id, MIN(trade_date), MAX(trade_date), COUNT(*)
		FROM backtest.asset_history
		GROUP BY run_id
		ORDER BY run_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RunInfo, error) {
		var info RunInfo
		err := row.Scan(&info.RunID, &info.StartDate, &info.EndDate, &info.Observations)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}

	return runs, nil
}

// SaveLedger replaces the stored ledger of runID inside one transaction
func (r *Repository) SaveLedger(ctx context.Context, runID string, l *contracts.Ledger) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM backtest.asset_history WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear asset history: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM backtest.trades WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear trades: %w", err)
	}

	batch := &pgx.Batch{}
	for i := 0; i < l.AlignedLen(); i++ {
		batch.Queue(`
			INSERT INTO backtest.asset_history (run_id, trade_date, total_assets)
			VALUES ($1, $2, $3)
		`, runID, l.Dates[i], l.TotalAssets[i])
	}
	for _, t := range l.Trades {
		var date *time.Time
		if !t.Date.IsZero() {
			d := t.Date
			date = &d
		}
		batch.Queue(`
			INSERT INTO backtest.trades (run_id, trade_date, code, action, profit, return_rate)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, runID, date, t.Code, string(t.Action), t.Profit, t.ReturnRate)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}

	return nil
}
