package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
)

func (a *app) runAnalyze(ctx context.Context) error {
	sess, err := a.newSession()
	if err != nil {
		return err
	}
	defer sess.Close(context.Background())

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	report, err := sess.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if a.opts.asJSON {
		return writeJSON(report)
	}
	return a.notifier.NotifyAnalysis(ctx, report)
}

const historyLimit = 20

func (a *app) runHistory(ctx context.Context) error {
	backtests, err := a.store.ListBacktests(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	sessions, err := a.store.ListSessions(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	slog.Debug("history: loaded", "backtests", len(backtests), "sessions", len(sessions))

	if a.opts.asJSON {
		return writeJSON(map[string]any{"backtests": backtests, "sessions": sessions})
	}

	fmt.Println("\nBacktests")
	bt := tablewriter.NewWriter(os.Stdout)
	bt.Header("ID", "Created", "Family", "Min Conf", "Trades", "Win %", "P/L", "Max DD")
	for _, r := range backtests {
		bt.Append(
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Config.Family),
			fmt.Sprintf("%.2f", r.Config.MinConfidence),
			r.Summary.TotalTrades,
			fmt.Sprintf("%.1f", r.Summary.WinRate),
			fmt.Sprintf("%.2f", r.Summary.ProfitLoss),
			fmt.Sprintf("%.2f", r.Summary.MaxDrawdown),
		)
	}
	bt.Render()

	fmt.Println("\nSessions")
	st := tablewriter.NewWriter(os.Stdout)
	st.Header("ID", "Started", "Market", "State", "W/L", "P/L")
	for _, s := range sessions {
		st.Append(
			shortID(s.ID),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Market,
			string(s.State),
			fmt.Sprintf("%d/%d", s.Wins, s.Losses),
			fmt.Sprintf("%.2f", s.ProfitLoss),
		)
	}
	st.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
