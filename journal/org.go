package journal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/signalbt/market"
)

var runOrgFuncs = template.FuncMap{
	"join": strings.Join,
	"day": func(t time.Time) string {
		if t.IsZero() {
			return "(none)"
		}
		return t.Format("2006-01-02")
	},
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders a run summary as an Org heading with a properties
// drawer, followed by the trade ledger when trades are given.
func FormatRunOrg(r Run, trades []market.TradeRecord) (string, error) {
	var buf bytes.Buffer
	if err := runOrg.Execute(&buf, r); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		buf.WriteString("\n** Trades\n")
		buf.WriteString(FormatTradesOrg(trades))
	}
	return buf.String(), nil
}

const RunOrgTemplate = `* BACKTEST: {{.Policy}} {{join .Symbols " "}}
:PROPERTIES:
:RUN_ID:       {{.RunID}}
:POLICY:       {{.Policy}}
:SYMBOLS:      {{join .Symbols ","}}
{{- if .Failed}}
:FAILED:       {{join .Failed ","}}
{{- end}}
:START_DATE:   {{day .Start}}
:END_DATE:     {{day .End}}
:INITIAL_CASH: {{printf "%.2f" .InitialCash}}
:FINAL_VALUE:  {{printf "%.2f" .FinalValue}}
:TOTAL_PNL:    {{printf "%.2f" .TotalPnL}}
:RETURN_PCT:   {{printf "%.2f" .ReturnPct}}
:SHARPE:       {{printf "%.4f" .Sharpe}}
:MAX_DD:       {{printf "%.2f" .MaxDrawdown}}
:TRADES:       {{.Trades}}
:CREATED:      [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Final Value:   *{{printf "%.2f" .FinalValue}}*
- Return:        *{{printf "%.2f" .ReturnPct}}%*
- Sharpe Ratio:  *{{printf "%.4f" .Sharpe}}*
- Max Drawdown:  *{{printf "%.2f" .MaxDrawdown}}*
`

// FormatTradeOrg renders one fill as an Org subheading.
func FormatTradeOrg(t market.TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** %s %s (%s)\n", t.Side, t.Symbol, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":SHARES: %.4f\n", t.Shares)
	fmt.Fprintf(&b, ":PRICE: %.4f\n", t.Price)
	fmt.Fprintf(&b, ":AMOUNT: %.2f\n", t.Amount)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.UTC().Format(time.RFC3339))
	b.WriteString(":END:\n")
	return b.String()
}

func FormatTradesOrg(trades []market.TradeRecord) string {
	var b strings.Builder
	for _, t := range trades {
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
