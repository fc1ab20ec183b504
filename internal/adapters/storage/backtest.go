package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// ErrNotFound is returned when a stored run does not exist.
var ErrNotFound = errors.New("not found")

// SaveBacktest stores the run header and its full trade log.
func (s *SQLiteStorage) SaveBacktest(ctx context.Context, r domain.BacktestResult) error {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal config: %w", err)
	}
	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal summary: %w", err)
	}
	curve, err := json.Marshal(r.EquityCurve)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal equity curve: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO backtests (id, config, summary, equity_curve, series_len, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, string(cfg), string(summary), string(curve), r.SeriesLen, formatTime(r.CreatedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveBacktest: insert %s: %w", r.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_trades
			(backtest_id, seq, step, contract_type, barrier, confidence, stake, window_digits,
			 prediction, actual, is_win, profit, balance, martingale_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range r.Trades {
		if _, err := stmt.ExecContext(ctx,
			r.ID, i, t.Index, string(t.Decision.Contract.Kind), int(t.Decision.Contract.Barrier),
			t.Decision.Confidence, t.Decision.Stake, encodeDigits(t.Window),
			int(t.Prediction), int(t.Realized), boolInt(t.IsWin), t.Profit, t.BalanceAfter, t.MartingaleLevel,
		); err != nil {
			return fmt.Errorf("storage.SaveBacktest: insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBacktest: commit: %w", err)
	}
	return nil
}

// GetBacktest loads a run with its trade log.
func (s *SQLiteStorage) GetBacktest(ctx context.Context, id string) (domain.BacktestResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, config, summary, equity_curve, series_len, created_at FROM backtests WHERE id = ?`, id)
	r, err := scanBacktest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BacktestResult{}, fmt.Errorf("storage.GetBacktest %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("storage.GetBacktest %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT step, contract_type, barrier, confidence, stake, window_digits,
		       prediction, actual, is_win, profit, balance, martingale_level
		FROM backtest_trades
		WHERE backtest_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("storage.GetBacktest %s: query trades: %w", id, err)
	}
	defer rows.Close()

	r.Trades = []domain.TradeOutcome{}
	for rows.Next() {
		var (
			t                         domain.TradeOutcome
			kind, window              string
			barrier, pred, act, isWin int
		)
		if err := rows.Scan(
			&t.Index, &kind, &barrier, &t.Decision.Confidence, &t.Decision.Stake, &window,
			&pred, &act, &isWin, &t.Profit, &t.BalanceAfter, &t.MartingaleLevel,
		); err != nil {
			return domain.BacktestResult{}, fmt.Errorf("storage.GetBacktest %s: scan trade: %w", id, err)
		}
		t.Decision.Contract = domain.Contract{Kind: domain.ContractKind(kind), Barrier: domain.Digit(barrier)}
		t.Window = decodeDigits(window)
		t.Prediction = domain.Digit(pred)
		t.Realized = domain.Digit(act)
		t.IsWin = isWin == 1
		r.Trades = append(r.Trades, t)
	}
	if err := rows.Err(); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("storage.GetBacktest %s: %w", id, err)
	}
	return r, nil
}

// ListBacktests returns the newest runs first, without trade logs.
func (s *SQLiteStorage) ListBacktests(ctx context.Context, limit int) ([]domain.BacktestResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config, summary, equity_curve, series_len, created_at
		FROM backtests
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListBacktests: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BacktestResult
	for rows.Next() {
		r, err := scanBacktest(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBacktest(sc scanner) (domain.BacktestResult, error) {
	var (
		r                       domain.BacktestResult
		cfg, summary, curve, at string
	)
	if err := sc.Scan(&r.ID, &cfg, &summary, &curve, &r.SeriesLen, &at); err != nil {
		return domain.BacktestResult{}, err
	}
	if err := json.Unmarshal([]byte(cfg), &r.Config); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(curve), &r.EquityCurve); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("decode equity curve: %w", err)
	}
	r.CreatedAt = parseTime(at)
	return r, nil
}

// encodeDigits renders digits as a compact string, e.g. "0527".
func encodeDigits(ds []domain.Digit) string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(strconv.Itoa(int(d)))
	}
	return b.String()
}

func decodeDigits(s string) []domain.Digit {
	if s == "" {
		return nil
	}
	out := make([]domain.Digit, len(s))
	for i := range len(s) {
		out[i] = domain.Digit(s[i] - '0')
	}
	return out
}
