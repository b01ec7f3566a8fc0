package export

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"saas-projection/pkg/calculator"
	"saas-projection/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	monthStyle  = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Amount renders d with thousands separators and two decimals.
func Amount(d decimal.Decimal) string {
	r := d.Round(2)
	whole, frac, _ := strings.Cut(r.Abs().StringFixed(2), ".")
	n, _ := new(big.Int).SetString(whole, 10)
	s := humanize.BigComma(n) + "." + frac
	if r.IsNegative() {
		s = "-" + s
	}
	return s
}

// SummaryTable renders one row per month with the headline P&L and cash lines.
func SummaryTable(out *calculator.Outputs) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Month", "Net revenue", "Gross profit", "GM %", "EBITDA", "Cash end", "Active logos").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return monthStyle
			}
			return cellStyle
		})

	active := make(map[models.Month]decimal.Decimal, len(out.Months))
	for _, st := range out.Cohorts.Values() {
		active[st.Key.Month] = active[st.Key.Month].Add(st.ActiveLogos)
	}
	for _, m := range out.Months {
		p, _ := out.PnL.Get(m)
		cf, _ := out.CashFlow.Get(m)
		t.Row(m.String(), Amount(p.NetRevenue), Amount(p.GrossProfit), p.GrossMarginPct.StringFixed(2),
			Amount(p.EBITDA), Amount(cf.CashEnd), active[m].StringFixed(2))
	}
	return t.String()
}

// WriteSummary prints the monthly table followed by every failed gate.
func WriteSummary(w io.Writer, out *calculator.Outputs) error {
	if _, err := fmt.Fprintf(w, "run %s (%s) scenario=%s months=%d\n",
		out.RunID, out.RunName, out.ScenarioID, len(out.Months)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, SummaryTable(out)); err != nil {
		return err
	}
	r := out.Validation
	if _, err := fmt.Fprintf(w, "validation: passed=%t errors=%d warnings=%d\n", r.Passed, r.ErrorCount, r.WarningCount); err != nil {
		return err
	}
	for _, f := range r.Failures() {
		style := failStyle
		if f.Severity == models.SeverityWarning {
			style = warnStyle
		}
		if _, err := fmt.Fprintln(w, style.Render(fmt.Sprintf("  [%s] %s: %s", f.Severity, f.GateID, f.Message))); err != nil {
			return err
		}
	}
	return nil
}
