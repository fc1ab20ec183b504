package notify

import (
	"context"
	"fmt"
	"sort"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// NotifyTrade prints one line per settled trade.
func (c *Console) NotifyTrade(_ context.Context, t domain.LiveTrade) error {
	result := "LOSS"
	if t.IsWin {
		result = "WIN "
	}
	fmt.Fprintf(c.out, "[%s] %s %-12s stake $%.2f conf %.2f/%.2f lvl %d → %s | P/L %s\n",
		t.SettledAt.Format("15:04:05"), result, contractLabel(t.Contract),
		t.Stake, t.Confidence, t.Threshold, t.MartingaleLevel,
		money(t.Profit), money(t.CumulativePnL))
	return nil
}

// NotifySession prints the account snapshot.
func (c *Console) NotifySession(_ context.Context, s domain.SessionSnapshot) error {
	state := string(s.State)
	if s.PauseReason != domain.PauseNone {
		state += " (" + string(s.PauseReason) + ")"
	}
	fmt.Fprintf(c.out, "\n── SESSION %s ── %s\n", shortID(s.ID), state)
	fmt.Fprintf(c.out, "  Account:  %s | balance %.2f %s\n", s.LoginID, s.Balance, s.Currency)
	fmt.Fprintf(c.out, "  Market:   %s | W %d / L %d (%.0f%%) | P/L %s | level %d\n",
		s.Market, s.Wins, s.Losses, s.WinRate()*100, money(s.ProfitLoss), s.MartingaleLevel)
	if s.BreakAfterWin {
		fmt.Fprintln(c.out, "  Break after next win is armed.")
	}
	return nil
}

// NotifyAnalysis prints probabilities, prediction and the indicator set.
func (c *Console) NotifyAnalysis(_ context.Context, r analysis.Report) error {
	fmt.Fprintf(c.out, "\n── ANALYSIS %s ── %s\n", r.Market, r.GeneratedAt.Format("15:04:05"))
	fmt.Fprintf(c.out, "  Last digits: %s\n", digitString(r.LastDigits))
	fmt.Fprintf(c.out, "  Prediction:  %d (model %.2f) | threshold %.2f\n",
		r.Prediction, r.ModelConfidence, r.Threshold)

	p := r.Probabilities
	table := tablewriter.NewWriter(c.out)
	table.Header("Matches", "Differs", "Over", "Under", "Even", "Odd")
	table.Append(
		fmt.Sprintf("%.3f (%d)", p.Matches, p.MatchDigit),
		fmt.Sprintf("%.3f (%d)", p.Differs, p.DifferDigit),
		fmt.Sprintf("%.3f", p.Over),
		fmt.Sprintf("%.3f", p.Under),
		fmt.Sprintf("%.3f", p.Even),
		fmt.Sprintf("%.3f", p.Odd),
	)
	table.Render()

	ind := r.Indicators
	freq := tablewriter.NewWriter(c.out)
	header := make([]any, 0, domain.NumDigits)
	row := make([]any, 0, domain.NumDigits)
	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		header = append(header, fmt.Sprintf("%d", d))
		row = append(row, fmt.Sprintf("%d", ind.Frequency[d]))
	}
	freq.Header(header...)
	freq.Append(row...)
	freq.Render()

	fmt.Fprintf(c.out, "  Hot:  %s | Cold: %s | Due: %s\n",
		signalList(ind.Signals.Hot), signalList(ind.Signals.Cold), signalList(ind.Signals.Due))
	fmt.Fprintf(c.out, "  Trend up: %s | down: %s\n",
		signalList(ind.Signals.TrendingUp), signalList(ind.Signals.TrendingDown))
	if len(ind.Missing) > 0 {
		fmt.Fprintf(c.out, "  Missing: %s\n", digitString(ind.Missing))
	}

	if c.verbose {
		for _, s := range ind.Streaks {
			fmt.Fprintf(c.out, "  streak  %d x%d at %d\n", s.Digit, s.Count, s.Start)
		}
		patterns := append([]analysis.Pattern(nil), ind.Patterns...)
		sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].Confidence > patterns[j].Confidence })
		for _, pt := range patterns {
			fmt.Fprintf(c.out, "  pattern %-22s %s at %d (%.2f)\n", pt.Type, digitString(pt.Sequence), pt.Start, pt.Confidence)
		}
	}
	return nil
}

func signalList(sigs []analysis.Signal) string {
	if len(sigs) == 0 {
		return "-"
	}
	out := ""
	for i, s := range sigs {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%d", s.Digit)
	}
	return out
}
