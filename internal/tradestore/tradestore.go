package tradestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-trading-bot/internal/types"
)

// Store persists closed trades in SQLite so day summaries survive a
// restart. It implements the engine's trade journal.
type Store struct {
	db *sql.DB
}

// Open creates trades.db under dataDir with WAL enabled and the schema
// migrated.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "trades.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT UNIQUE NOT NULL,
		idx TEXT NOT NULL,
		leg TEXT NOT NULL,
		strike INTEGER NOT NULL,
		expiry TEXT NOT NULL,
		qty INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		pnl REAL NOT NULL,
		exit_reason TEXT NOT NULL,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME NOT NULL,
		mode TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one closed trade. Duplicate trade IDs are ignored so a
// retried journal write cannot double-count.
func (s *Store) Record(ctx context.Context, tr types.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trades
		(trade_id, idx, leg, strike, expiry, qty, entry_price, exit_price, pnl, exit_reason, entry_time, exit_time, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.TradeID, tr.Index, string(tr.Leg), tr.Strike, tr.Expiry, tr.Qty,
		tr.EntryPrice, tr.ExitPrice, tr.PnL, tr.ExitReason,
		tr.EntryTime.UTC(), tr.ExitTime.UTC(), tr.Mode,
	)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", tr.TradeID, err)
	}
	return nil
}

// TradesBetween returns the trades whose exit time falls in [from, to).
func (s *Store) TradesBetween(ctx context.Context, from, to time.Time) ([]types.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, idx, leg, strike, expiry, qty, entry_price, exit_price, pnl, exit_reason, entry_time, exit_time, mode
		FROM trades WHERE exit_time >= ? AND exit_time < ? ORDER BY exit_time`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.TradeRecord
	for rows.Next() {
		var tr types.TradeRecord
		var leg string
		if err := rows.Scan(&tr.TradeID, &tr.Index, &leg, &tr.Strike, &tr.Expiry, &tr.Qty,
			&tr.EntryPrice, &tr.ExitPrice, &tr.PnL, &tr.ExitReason,
			&tr.EntryTime, &tr.ExitTime, &tr.Mode); err != nil {
			return nil, err
		}
		tr.Leg = types.Leg(leg)
		out = append(out, tr)
	}
	return out, rows.Err()
}

// DaySummary rebuilds the running summary for one IST session from the
// persisted trades. Used at startup to restore risk counters mid-day.
func (s *Store) DaySummary(ctx context.Context, dayStart, dayEnd time.Time, date string) (types.DailySummary, error) {
	trades, err := s.TradesBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return types.DailySummary{}, err
	}
	sum := types.DailySummary{Date: date}
	for _, tr := range trades {
		sum.Record(tr)
	}
	return sum, nil
}
