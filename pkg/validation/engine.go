// Package validation independently re-derives every identity the pipeline
// relies on and reports one record per violation. It never aborts a run.
package validation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"saas-projection/pkg/models"
)

// Gate ids.
const (
	GateNoNegativeActives    = "no_negative_actives"
	GateChurnInBounds        = "churn_in_bounds"
	GateCohortFlow           = "cohort_flow"
	GateCohortContinuity     = "cohort_continuity"
	GateRevenueBreakdown     = "revenue_breakdown"
	GateARRCalculation       = "arr_calculation"
	GateNetRevenue           = "net_revenue"
	GateCOGSBreakdown        = "cogs_breakdown"
	GateVariableCOGS         = "variable_cogs_breakdown"
	GateGrossProfit          = "gross_profit"
	GateEBITDA               = "ebitda"
	GateCashRollForward      = "cash_roll_forward"
	GateCashContinuity       = "cash_continuity"
	GateBalanceSheetBalances = "balance_sheet_balances"
	GateBalanceSheetPlug     = "balance_sheet_plug"
)

// Tables is everything the gates read.
type Tables struct {
	Cohorts      *models.CohortTable
	Revenue      *models.RevenueTable
	COGS         *models.COGSTable
	PnL          *models.PnLTable
	CashFlow     *models.CashFlowTable
	BalanceSheet *models.BalanceTable
}

type Engine struct {
	tolerance decimal.Decimal
	now       func() time.Time
}

// New returns a gate runner comparing with tolerance. A zero tolerance
// selects models.DefaultTolerance.
func New(tolerance decimal.Decimal) *Engine {
	if tolerance.IsZero() {
		tolerance = models.DefaultTolerance
	}
	return &Engine{tolerance: tolerance, now: time.Now}
}

func (e *Engine) off(expected, actual decimal.Decimal) bool {
	return !models.WithinTolerance(expected, actual, e.tolerance)
}

func fail(gate, desc string, sev models.Severity, msg string, ctx map[string]string) models.ValidationResult {
	return models.ValidationResult{GateID: gate, Description: desc, Severity: sev, Passed: false, Message: msg, Context: ctx}
}

// orPass returns fails, or a single info pass record when fails is empty.
func orPass(fails []models.ValidationResult, gate, desc, msg string) []models.ValidationResult {
	if len(fails) > 0 {
		return fails
	}
	return []models.ValidationResult{{GateID: gate, Description: desc, Severity: models.SeverityInfo, Passed: true, Message: msg}}
}

func keyContext(k models.CohortKey, kv ...string) map[string]string {
	ctx := map[string]string{
		"month":      k.Month.String(),
		"segment_id": k.SegmentID,
		"channel_id": k.ChannelID,
	}
	for i := 0; i+1 < len(kv); i += 2 {
		ctx[kv[i]] = kv[i+1]
	}
	return ctx
}

func mismatch(expected, actual decimal.Decimal) []string {
	return []string{"expected", expected.String(), "actual", actual.String()}
}

func (e *Engine) NoNegativeActives(t *models.CohortTable) []models.ValidationResult {
	const desc = "Active logos must not be negative"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		st := t.Rows[k]
		if st.ActiveLogos.IsNegative() {
			fails = append(fails, fail(GateNoNegativeActives, desc, models.SeverityError,
				fmt.Sprintf("Negative active logos at %s: %s", k, st.ActiveLogos),
				keyContext(k, "active_logos", st.ActiveLogos.String())))
		}
	}
	return orPass(fails, GateNoNegativeActives, desc, "All cohorts have non-negative active logos")
}

func (e *Engine) ChurnInBounds(t *models.CohortTable) []models.ValidationResult {
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		st := t.Rows[k]
		if st.ChurnedLogos.IsNegative() {
			fails = append(fails, fail(GateChurnInBounds, "Churned logos must be non-negative", models.SeverityError,
				fmt.Sprintf("Negative churn at %s: %s", k, st.ChurnedLogos),
				keyContext(k, "churned_logos", st.ChurnedLogos.String())))
		}
		prior := st.RetainedLogos.Add(st.ChurnedLogos)
		if prior.IsPositive() && st.ChurnedLogos.GreaterThan(prior) {
			fails = append(fails, fail(GateChurnInBounds, "Churned logos should not exceed prior active", models.SeverityWarning,
				fmt.Sprintf("Churn above 100%% at %s: %s churned from %s active", k, st.ChurnedLogos, prior),
				keyContext(k, "churned_logos", st.ChurnedLogos.String(), "prior_active", prior.String())))
		}
	}
	return orPass(fails, GateChurnInBounds, "Churn must be in valid range", "All churn values are within bounds")
}

func (e *Engine) CohortFlow(t *models.CohortTable) []models.ValidationResult {
	const desc = "Active logos = retained + new"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		st := t.Rows[k]
		expected := st.RetainedLogos.Add(st.NewLogos)
		if e.off(expected, st.ActiveLogos) {
			fails = append(fails, fail(GateCohortFlow, desc, models.SeverityError,
				fmt.Sprintf("Cohort flow mismatch at %s: %s ≠ %s", k, st.ActiveLogos, expected),
				keyContext(k, mismatch(expected, st.ActiveLogos)...)))
		}
	}
	return orPass(fails, GateCohortFlow, desc, "All cohort flows reconcile")
}

// priorMonths maps each month present in t to the month before it in the
// run's month list, which need not be calendar-contiguous.
func priorMonths(t *models.CohortTable) map[models.Month]models.Month {
	var months []models.Month
	seen := make(map[models.Month]bool)
	for _, k := range t.Keys {
		if !seen[k.Month] {
			seen[k.Month] = true
			months = append(months, k.Month)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	prior := make(map[models.Month]models.Month, len(months))
	for i := 1; i < len(months); i++ {
		prior[months[i]] = months[i-1]
	}
	return prior
}

// CohortContinuity checks retained = prior month's active − churned, where
// the prior month is the previous one projected. The first month of each
// pair has a prior active of zero.
func (e *Engine) CohortContinuity(t *models.CohortTable) []models.ValidationResult {
	const desc = "Retained logos = prior active − churned"
	before := priorMonths(t)
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		st := t.Rows[k]
		prior := decimal.Zero
		if m, ok := before[k.Month]; ok {
			priorKey := k
			priorKey.Month = m
			if p, ok := t.Get(priorKey); ok {
				prior = p.ActiveLogos
			}
		}
		expected := prior.Sub(st.ChurnedLogos)
		if e.off(expected, st.RetainedLogos) {
			fails = append(fails, fail(GateCohortContinuity, desc, models.SeverityError,
				fmt.Sprintf("Retained logos mismatch at %s: %s ≠ %s", k, st.RetainedLogos, expected),
				keyContext(k, mismatch(expected, st.RetainedLogos)...)))
		}
	}
	return orPass(fails, GateCohortContinuity, desc, "All cohorts carry prior active forward")
}

func (e *Engine) RevenueBreakdown(t *models.RevenueTable) []models.ValidationResult {
	const desc = "MRR total = base + packs + addons"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		r := t.Rows[k]
		expected := r.MRRBase.Add(r.MRRPacks).Add(r.MRRAddons)
		if e.off(expected, r.MRRTotal) {
			fails = append(fails, fail(GateRevenueBreakdown, desc, models.SeverityError,
				fmt.Sprintf("MRR breakdown mismatch at %s: %s ≠ %s", k, r.MRRTotal, expected),
				keyContext(k, mismatch(expected, r.MRRTotal)...)))
		}
	}
	return orPass(fails, GateRevenueBreakdown, desc, "All revenue breakdowns reconcile")
}

func (e *Engine) ARRCalculation(t *models.RevenueTable) []models.ValidationResult {
	const desc = "ARR = MRR × 12"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		r := t.Rows[k]
		expected := r.MRRTotal.Mul(models.Twelve)
		if e.off(expected, r.ARR) {
			fails = append(fails, fail(GateARRCalculation, desc, models.SeverityError,
				fmt.Sprintf("ARR mismatch at %s: %s ≠ %s", k, r.ARR, expected),
				keyContext(k, mismatch(expected, r.ARR)...)))
		}
	}
	return orPass(fails, GateARRCalculation, desc, "All ARR calculations are correct")
}

func (e *Engine) NetRevenue(t *models.RevenueTable) []models.ValidationResult {
	const desc = "Net revenue = gross revenue − channel discount"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		r := t.Rows[k]
		expected := r.GrossRevenue.Sub(r.ChannelDiscount)
		if e.off(expected, r.NetRevenue) {
			fails = append(fails, fail(GateNetRevenue, desc, models.SeverityError,
				fmt.Sprintf("Net revenue mismatch at %s: %s ≠ %s", k, r.NetRevenue, expected),
				keyContext(k, mismatch(expected, r.NetRevenue)...)))
		}
	}
	return orPass(fails, GateNetRevenue, desc, "All net revenue calculations are correct")
}

func (e *Engine) COGSBreakdown(t *models.COGSTable) []models.ValidationResult {
	const desc = "COGS total = variable + fixed + services"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		c := t.Rows[k]
		expected := c.VariableTotal.Add(c.FixedTotal).Add(c.ServicesTotal)
		if e.off(expected, c.Total) {
			fails = append(fails, fail(GateCOGSBreakdown, desc, models.SeverityError,
				fmt.Sprintf("COGS breakdown mismatch at %s: %s ≠ %s", k, c.Total, expected),
				keyContext(k, mismatch(expected, c.Total)...)))
		}
	}
	return orPass(fails, GateCOGSBreakdown, desc, "All COGS breakdowns reconcile")
}

func (e *Engine) VariableCOGS(t *models.COGSTable) []models.ValidationResult {
	const desc = "Variable COGS = tokens + embeddings + compute + storage + support"
	var fails []models.ValidationResult
	for _, k := range t.Keys {
		c := t.Rows[k]
		expected := decimal.Sum(c.LLMTokens, c.Embeddings, c.Compute, c.Storage, c.Support)
		if e.off(expected, c.VariableTotal) {
			fails = append(fails, fail(GateVariableCOGS, desc, models.SeverityError,
				fmt.Sprintf("Variable COGS mismatch at %s: %s ≠ %s", k, c.VariableTotal, expected),
				keyContext(k, mismatch(expected, c.VariableTotal)...)))
		}
	}
	return orPass(fails, GateVariableCOGS, desc, "All variable COGS breakdowns reconcile")
}

func monthContext(m models.Month, kv ...string) map[string]string {
	ctx := map[string]string{"month": m.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		ctx[kv[i]] = kv[i+1]
	}
	return ctx
}

func (e *Engine) GrossProfit(t *models.PnLTable) []models.ValidationResult {
	const desc = "Gross profit = net revenue − COGS − channel payouts"
	var fails []models.ValidationResult
	for _, m := range t.Keys {
		p := t.Rows[m]
		expected := p.NetRevenue.Sub(p.COGSTotal).Sub(p.ChannelPayouts)
		if e.off(expected, p.GrossProfit) {
			fails = append(fails, fail(GateGrossProfit, desc, models.SeverityError,
				fmt.Sprintf("Gross profit mismatch at %s: %s ≠ %s", m, p.GrossProfit, expected),
				monthContext(m, mismatch(expected, p.GrossProfit)...)))
		}
	}
	return orPass(fails, GateGrossProfit, desc, "All gross profit calculations are correct")
}

func (e *Engine) EBITDA(t *models.PnLTable) []models.ValidationResult {
	const desc = "EBITDA = gross profit − opex"
	var fails []models.ValidationResult
	for _, m := range t.Keys {
		p := t.Rows[m]
		expected := p.GrossProfit.Sub(p.OpexTotal)
		if e.off(expected, p.EBITDA) {
			fails = append(fails, fail(GateEBITDA, desc, models.SeverityError,
				fmt.Sprintf("EBITDA mismatch at %s: %s ≠ %s", m, p.EBITDA, expected),
				monthContext(m, mismatch(expected, p.EBITDA)...)))
		}
	}
	return orPass(fails, GateEBITDA, desc, "All EBITDA calculations are correct")
}

// CashRollForward checks each month's arithmetic and that it opens on the
// prior month's closing cash.
func (e *Engine) CashRollForward(t *models.CashFlowTable) []models.ValidationResult {
	const desc = "Cash end = cash begin + cash from operations"
	var fails []models.ValidationResult
	for i, m := range t.Keys {
		cf := t.Rows[m]
		expected := cf.CashBegin.Add(cf.CashFromOperations)
		if e.off(expected, cf.CashEnd) {
			fails = append(fails, fail(GateCashRollForward, desc, models.SeverityError,
				fmt.Sprintf("Cash roll-forward mismatch at %s: %s ≠ %s", m, cf.CashEnd, expected),
				monthContext(m, mismatch(expected, cf.CashEnd)...)))
		}
		if i == 0 {
			continue
		}
		prior := t.Rows[t.Keys[i-1]]
		if e.off(prior.CashEnd, cf.CashBegin) {
			fails = append(fails, fail(GateCashContinuity, "Cash begin = prior month cash end", models.SeverityError,
				fmt.Sprintf("Cash continuity break at %s: begin %s ≠ prior end %s", m, cf.CashBegin, prior.CashEnd),
				monthContext(m, mismatch(prior.CashEnd, cf.CashBegin)...)))
		}
	}
	return orPass(fails, GateCashRollForward, desc, "Cash roll-forward validates correctly")
}

func (e *Engine) BalanceSheetBalances(t *models.BalanceTable) []models.ValidationResult {
	const desc = "Assets = liabilities + equity"
	var fails []models.ValidationResult
	for _, m := range t.Keys {
		bs := t.Rows[m]
		le := bs.TotalLiabilities.Add(bs.TotalEquity)
		if e.off(bs.TotalAssets, le) {
			fails = append(fails, fail(GateBalanceSheetBalances, desc, models.SeverityError,
				fmt.Sprintf("Balance sheet does not balance at %s: %s ≠ %s", m, bs.TotalAssets, le),
				monthContext(m, mismatch(le, bs.TotalAssets)...)))
		}
	}
	return orPass(fails, GateBalanceSheetBalances, desc, "All balance sheets balance correctly")
}

// BalanceSheetPlug warns whenever retained earnings absorbed a reconciling
// amount, so an upstream defect is not hidden by a balanced sheet.
func (e *Engine) BalanceSheetPlug(t *models.BalanceTable) []models.ValidationResult {
	const desc = "Balance sheet balances without a plug"
	var fails []models.ValidationResult
	for _, m := range t.Keys {
		bs := t.Rows[m]
		if bs.PlugAdjustment.Abs().GreaterThan(e.tolerance) {
			fails = append(fails, fail(GateBalanceSheetPlug, desc, models.SeverityWarning,
				fmt.Sprintf("Retained earnings plugged by %s at %s", bs.PlugAdjustment.StringFixed(2), m),
				monthContext(m, "plug", bs.PlugAdjustment.String())))
		}
	}
	return orPass(fails, GateBalanceSheetPlug, desc, "No balance sheet plug was needed")
}

// Run executes every gate in a fixed order and tallies failures.
func (e *Engine) Run(scenarioID string, t Tables) models.ValidationReport {
	var results []models.ValidationResult
	results = append(results, e.NoNegativeActives(t.Cohorts)...)
	results = append(results, e.ChurnInBounds(t.Cohorts)...)
	results = append(results, e.CohortFlow(t.Cohorts)...)
	results = append(results, e.CohortContinuity(t.Cohorts)...)
	results = append(results, e.RevenueBreakdown(t.Revenue)...)
	results = append(results, e.ARRCalculation(t.Revenue)...)
	results = append(results, e.NetRevenue(t.Revenue)...)
	results = append(results, e.COGSBreakdown(t.COGS)...)
	results = append(results, e.VariableCOGS(t.COGS)...)
	results = append(results, e.GrossProfit(t.PnL)...)
	results = append(results, e.EBITDA(t.PnL)...)
	results = append(results, e.CashRollForward(t.CashFlow)...)
	results = append(results, e.BalanceSheetBalances(t.BalanceSheet)...)
	results = append(results, e.BalanceSheetPlug(t.BalanceSheet)...)
	return NewReport(scenarioID, e.now().UTC(), results)
}

// NewReport counts failed errors and warnings; a report passes when no
// error-severity gate failed.
func NewReport(scenarioID string, ts time.Time, results []models.ValidationResult) models.ValidationReport {
	r := models.ValidationReport{ScenarioID: scenarioID, Timestamp: ts, Results: results}
	for _, res := range results {
		if res.Passed {
			continue
		}
		switch res.Severity {
		case models.SeverityError:
			r.ErrorCount++
		case models.SeverityWarning:
			r.WarningCount++
		}
	}
	r.Passed = r.ErrorCount == 0
	return r
}
