package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// maxTradeRows caps the trade log table of a backtest report.
const maxTradeRows = 20

// Console implements ports.Notifier.
type Console struct {
	out io.Writer
	// verbose prints the trade log tail and indicator details
	verbose bool
}

// NewConsole writes to stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter writes to w; used by tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// NotifyBacktest prints the summary and, in verbose mode, the last trades.
func (c *Console) NotifyBacktest(_ context.Context, r domain.BacktestResult) error {
	cfg := r.Config
	s := r.Summary

	fmt.Fprintf(c.out, "\n── BACKTEST %s ──\n", shortID(r.ID))
	fmt.Fprintf(c.out, "  Contract:   %s | stake $%.2f | min conf %.2f | window %d | series %d\n",
		cfg.Family, cfg.StakeAmount, cfg.MinConfidence, cfg.WindowSize, r.SeriesLen)
	martingale := "off"
	if cfg.MartingaleEnabled {
		martingale = fmt.Sprintf("start %d, max level %d", cfg.MartingaleStart, cfg.MaxMartingale)
	}
	fmt.Fprintf(c.out, "  Martingale: %s | risk cap %.0f%% of $%.2f\n",
		martingale, cfg.MaxRiskFraction*100, cfg.InitialBalance)

	if s.TotalTrades == 0 {
		fmt.Fprintln(c.out, "  No trades: confidence never reached the threshold.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Trades", "Wins", "Losses", "Win %", "P/L", "Max DD", "DD %", "PF", "Sharpe")
	table.Append(
		fmt.Sprintf("%d", s.TotalTrades),
		fmt.Sprintf("%d", s.Wins),
		fmt.Sprintf("%d", s.Losses),
		fmt.Sprintf("%.2f", s.WinRate),
		money(s.ProfitLoss),
		fmt.Sprintf("$%.2f", s.MaxDrawdown),
		fmt.Sprintf("%.2f", s.MaxDrawdownPercentage),
		s.ProfitFactor.String(),
		fmt.Sprintf("%.3f", s.SharpeRatio),
	)
	table.Render()

	fmt.Fprintf(c.out, "  Streaks:    %d wins / %d losses\n", s.MaxConsecutiveWins, s.MaxConsecutiveLosses)
	fmt.Fprintf(c.out, "  Avg win:    $%.2f | avg loss $%.2f\n", s.AverageWin, s.AverageLoss)
	fmt.Fprintf(c.out, "  Largest:    win $%.2f | loss $%.2f\n", s.LargestWin, s.LargestLoss)

	if c.verbose {
		c.printTrades(r.Trades)
	}
	return nil
}

func (c *Console) printTrades(trades []domain.TradeOutcome) {
	shown := trades
	if len(shown) > maxTradeRows {
		shown = shown[len(shown)-maxTradeRows:]
	}
	fmt.Fprintf(c.out, "\n── LAST %d TRADES ──\n", len(shown))

	table := tablewriter.NewWriter(c.out)
	table.Header("Step", "Contract", "Window", "Pred", "Actual", "Stake", "Lvl", "Result", "Balance")
	for _, t := range shown {
		result := "LOSS"
		if t.IsWin {
			result = "WIN"
		}
		table.Append(
			fmt.Sprintf("%d", t.Index),
			contractLabel(t.Decision.Contract),
			digitString(t.Window),
			fmt.Sprintf("%d", t.Prediction),
			fmt.Sprintf("%d", t.Realized),
			fmt.Sprintf("$%.2f", t.Decision.Stake),
			fmt.Sprintf("%d", t.MartingaleLevel),
			result,
			money(t.BalanceAfter),
		)
	}
	table.Render()
}

// NotifySweep ranks sweep results by profit.
func (c *Console) NotifySweep(_ context.Context, results []domain.BacktestResult) error {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No sweep results.")
		return nil
	}
	fmt.Fprintf(c.out, "\n── PARAMETER SWEEP (%d runs) ──\n", len(results))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Contract", "Min conf", "Martingale", "Trades", "Win %", "P/L", "Max DD", "PF")
	for i, r := range rankByProfit(results) {
		mg := "off"
		if r.Config.MartingaleEnabled {
			mg = fmt.Sprintf("%d/%d", r.Config.MartingaleStart, r.Config.MaxMartingale)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(r.Config.Family),
			fmt.Sprintf("%.2f", r.Config.MinConfidence),
			mg,
			fmt.Sprintf("%d", r.Summary.TotalTrades),
			fmt.Sprintf("%.2f", r.Summary.WinRate),
			money(r.Summary.ProfitLoss),
			fmt.Sprintf("$%.2f", r.Summary.MaxDrawdown),
			r.Summary.ProfitFactor.String(),
		)
	}
	table.Render()
	return nil
}

// --- helpers ---

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}

func contractLabel(c domain.Contract) string {
	if c.HasBarrier() {
		return fmt.Sprintf("%s %d", c.Kind, c.Barrier)
	}
	return string(c.Kind)
}

func digitString(ds []domain.Digit) string {
	var sb strings.Builder
	for _, d := range ds {
		sb.WriteByte(byte('0' + d))
	}
	return sb.String()
}

// rankByProfit returns a copy sorted by P/L desc; ties keep input order.
func rankByProfit(results []domain.BacktestResult) []domain.BacktestResult {
	out := append([]domain.BacktestResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Summary.ProfitLoss > out[j].Summary.ProfitLoss
	})
	return out
}
