package storage

// sqlite.go: single-file persistence for sessions, settled trades, observed
// digits and saved backtests.
//
//   - `sessions`: one row per live session, upserted on every change.
//   - `trades`: append-only log of settled live trades.
//   - `digit_history`: one row per (market, epoch); duplicates are ignored.
//   - `backtests` + `backtest_trades`: a run header and its trade log.
//   - Old digit history is pruned on open.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    market           TEXT    NOT NULL,
    state            TEXT    NOT NULL,
    pause_reason     TEXT    NOT NULL DEFAULT '',
    login_id         TEXT    NOT NULL DEFAULT '',
    balance          REAL    NOT NULL DEFAULT 0,
    currency         TEXT    NOT NULL DEFAULT '',
    wins             INTEGER NOT NULL DEFAULT 0,
    losses           INTEGER NOT NULL DEFAULT 0,
    profit_loss      REAL    NOT NULL DEFAULT 0,
    martingale_level INTEGER NOT NULL DEFAULT 0,
    break_after_win  INTEGER NOT NULL DEFAULT 0,
    started_at       TEXT    NOT NULL,
    ended_at         TEXT
);

CREATE TABLE IF NOT EXISTS trades (
    id               TEXT PRIMARY KEY,
    session_id       TEXT    NOT NULL,
    contract_id      TEXT    NOT NULL,
    market           TEXT    NOT NULL,
    contract_type    TEXT    NOT NULL,
    barrier          INTEGER NOT NULL DEFAULT 0,
    stake            REAL    NOT NULL,
    confidence       REAL    NOT NULL,
    threshold        REAL    NOT NULL,
    is_win           INTEGER NOT NULL,
    profit           REAL    NOT NULL,
    cumulative_pnl   REAL    NOT NULL,
    martingale_level INTEGER NOT NULL,
    settled_at       TEXT    NOT NULL,
    seq              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS digit_history (
    market TEXT    NOT NULL,
    epoch  INTEGER NOT NULL,
    price  REAL    NOT NULL,
    digit  INTEGER NOT NULL,
    PRIMARY KEY (market, epoch)
);

CREATE TABLE IF NOT EXISTS backtests (
    id           TEXT PRIMARY KEY,
    config       TEXT    NOT NULL,
    summary      TEXT    NOT NULL,
    equity_curve TEXT    NOT NULL,
    series_len   INTEGER NOT NULL,
    created_at   TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_trades (
    backtest_id      TEXT    NOT NULL,
    seq              INTEGER NOT NULL,
    step             INTEGER NOT NULL,
    contract_type    TEXT    NOT NULL,
    barrier          INTEGER NOT NULL,
    confidence       REAL    NOT NULL,
    stake            REAL    NOT NULL,
    window_digits    TEXT    NOT NULL DEFAULT '',
    prediction       INTEGER NOT NULL,
    actual           INTEGER NOT NULL,
    is_win           INTEGER NOT NULL,
    profit           REAL    NOT NULL,
    balance          REAL    NOT NULL,
    martingale_level INTEGER NOT NULL,
    PRIMARY KEY (backtest_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_backtests_at   ON backtests(created_at DESC);
`

const retentionDigits = 30 * 24 * time.Hour

// timeLayout keeps lexical and chronological order identical.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStorage implements ports.Storage on SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage opens (or creates) the database at path, applies the
// schema and prunes stale digit history.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps one :memory: database
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db, now: time.Now}
	s.pruneOld(context.Background())
	return s, nil
}

// Close closes the database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := s.now().Add(-retentionDigits).Unix()
	s.db.ExecContext(ctx, `DELETE FROM digit_history WHERE epoch < ?`, cutoff)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
