package backtest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const rule = "--------------------------------------------------"

// PrintResult writes a human readable report of a run.
func PrintResult(w io.Writer, runID string, r *PortfolioResult) {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if runID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", runID)
	}
	fmt.Fprintf(w, "Policy:        %s\n", r.Policy)
	fmt.Fprintf(w, "Symbols:       %s\n", strings.Join(r.Succeeded(), ", "))
	if failed := r.Failed(); len(failed) > 0 {
		fmt.Fprintf(w, "Failed:        %s\n", strings.Join(failed, ", "))
	}

	if !r.Start.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Steps:         %d\n", len(r.Points))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, rule)
	p.Fprintf(w, "Initial Cash:  %.2f\n", r.InitialCash)
	p.Fprintf(w, "Final Value:   %.2f\n", r.Summary.FinalValue)
	p.Fprintf(w, "Total P/L:     %.2f\n", r.TotalPnL)
	p.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct())
	p.Fprintf(w, "Sharpe Ratio:  %.4f\n", r.Summary.SharpeRatio)
	p.Fprintf(w, "Max Drawdown:  %.2f\n", r.Summary.MaxDrawdown)
	if r.Trades > 0 || r.Skipped > 0 {
		fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
		fmt.Fprintf(w, "Skipped:       %d\n", r.Skipped)
	}
	if r.Commissions > 0 {
		p.Fprintf(w, "Commissions:   %.2f\n", r.Commissions)
	}

	if len(r.Symbols) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per Symbol")
		fmt.Fprintln(w, rule)
		for _, s := range r.Symbols {
			if !s.OK() {
				fmt.Fprintf(w, "%-10s error: %v\n", s.Symbol, s.Err)
				continue
			}
			p.Fprintf(w, "%-10s final %.2f  pnl %.2f  sharpe %.4f  dd %.2f\n",
				s.Symbol, s.Summary.FinalValue, s.TotalPnL, s.Summary.SharpeRatio, s.Summary.MaxDrawdown)
		}
	}

	fmt.Fprintln(w)
}
