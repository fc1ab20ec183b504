package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// SaveSession upserts the session row.
func (s *SQLiteStorage) SaveSession(ctx context.Context, snap domain.SessionSnapshot) error {
	var ended *string
	if snap.EndedAt != nil {
		e := formatTime(*snap.EndedAt)
		ended = &e
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
			(id, market, state, pause_reason, login_id, balance, currency, wins, losses,
			 profit_loss, martingale_level, break_after_win, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state            = excluded.state,
			pause_reason     = excluded.pause_reason,
			login_id         = excluded.login_id,
			balance          = excluded.balance,
			currency         = excluded.currency,
			wins             = excluded.wins,
			losses           = excluded.losses,
			profit_loss      = excluded.profit_loss,
			martingale_level = excluded.martingale_level,
			break_after_win  = excluded.break_after_win,
			ended_at         = excluded.ended_at
	`,
		snap.ID, snap.Market, string(snap.State), string(snap.PauseReason), snap.LoginID,
		snap.Balance, snap.Currency, snap.Wins, snap.Losses, snap.ProfitLoss,
		snap.MartingaleLevel, boolInt(snap.BreakAfterWin), formatTime(snap.StartedAt), ended,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSession %s: %w", snap.ID, err)
	}
	return nil
}

// ListSessions returns the newest sessions first.
func (s *SQLiteStorage) ListSessions(ctx context.Context, limit int) ([]domain.SessionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market, state, pause_reason, login_id, balance, currency, wins, losses,
		       profit_loss, martingale_level, break_after_win, started_at, ended_at
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListSessions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSnapshot
	for rows.Next() {
		var (
			snap          domain.SessionSnapshot
			state, reason string
			breakAfter    int
			started       string
			ended         sql.NullString
		)
		if err := rows.Scan(
			&snap.ID, &snap.Market, &state, &reason, &snap.LoginID, &snap.Balance, &snap.Currency,
			&snap.Wins, &snap.Losses, &snap.ProfitLoss, &snap.MartingaleLevel, &breakAfter,
			&started, &ended,
		); err != nil {
			return nil, fmt.Errorf("storage.ListSessions: scan row: %w", err)
		}
		snap.State = domain.SessionState(state)
		snap.PauseReason = domain.PauseReason(reason)
		snap.BreakAfterWin = breakAfter == 1
		snap.StartedAt = parseTime(started)
		if ended.Valid {
			t := parseTime(ended.String)
			snap.EndedAt = &t
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SaveLiveTrade appends a settled trade to its session's log.
func (s *SQLiteStorage) SaveLiveTrade(ctx context.Context, t domain.LiveTrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, session_id, contract_id, market, contract_type, barrier, stake, confidence,
			 threshold, is_win, profit, cumulative_pnl, martingale_level, settled_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        (SELECT COALESCE(MAX(seq), 0) + 1 FROM trades WHERE session_id = ?))
	`,
		t.ID, t.SessionID, t.ContractID, t.Market, string(t.Contract.Kind), int(t.Contract.Barrier),
		t.Stake, t.Confidence, t.Threshold, boolInt(t.IsWin), t.Profit, t.CumulativePnL,
		t.MartingaleLevel, formatTime(t.SettledAt), t.SessionID,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveLiveTrade %s: %w", t.ID, err)
	}
	return nil
}

// GetLiveTrades returns a session's trades in settlement order.
func (s *SQLiteStorage) GetLiveTrades(ctx context.Context, sessionID string) ([]domain.LiveTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, contract_id, market, contract_type, barrier, stake, confidence,
		       threshold, is_win, profit, cumulative_pnl, martingale_level, settled_at
		FROM trades
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetLiveTrades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.LiveTrade
	for rows.Next() {
		var (
			t       domain.LiveTrade
			kind    string
			barrier int
			isWin   int
			settled string
		)
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.ContractID, &t.Market, &kind, &barrier, &t.Stake, &t.Confidence,
			&t.Threshold, &isWin, &t.Profit, &t.CumulativePnL, &t.MartingaleLevel, &settled,
		); err != nil {
			return nil, fmt.Errorf("storage.GetLiveTrades: scan row: %w", err)
		}
		t.Contract = domain.Contract{Kind: domain.ContractKind(kind), Barrier: domain.Digit(barrier)}
		t.IsWin = isWin == 1
		t.SettledAt = parseTime(settled)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveTicks stores observed ticks in one transaction. Known epochs are kept.
func (s *SQLiteStorage) SaveTicks(ctx context.Context, market string, ticks []domain.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveTicks: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO digit_history (market, epoch, price, digit) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveTicks: prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range ticks {
		if _, err := stmt.ExecContext(ctx, market, t.Epoch.Unix(), t.Price, int(t.Digit)); err != nil {
			return fmt.Errorf("storage.SaveTicks: insert %s@%d: %w", market, t.Epoch.Unix(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveTicks: commit: %w", err)
	}
	return nil
}

// RecentDigits returns up to limit of the newest stored digits, oldest first.
func (s *SQLiteStorage) RecentDigits(ctx context.Context, market string, limit int) ([]domain.Digit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT digit FROM digit_history WHERE market = ? ORDER BY epoch DESC LIMIT ?`,
		market, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentDigits: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Digit
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("storage.RecentDigits: scan row: %w", err)
		}
		out = append(out, domain.Digit(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentDigits: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}
