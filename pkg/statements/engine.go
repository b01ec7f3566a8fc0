// Package statements aggregates cohort-level results into a monthly P&L and
// rolls cash, receivables, payables, deferred revenue and retained earnings
// forward one month at a time.
package statements

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"saas-projection/pkg/models"
)

var eleven = decimal.NewFromInt(11)

type Engine struct {
	billing   map[string]models.BillingCollections
	payables  map[string]models.Payables
	opening   State
	tolerance decimal.Decimal
	log       *zap.Logger
}

type Options struct {
	InitialCash        decimal.Decimal
	ContributedCapital decimal.Decimal
	// Tolerance bounds the balance-sheet gap left unplugged; zero selects
	// models.DefaultTolerance.
	Tolerance decimal.Decimal
	Logger    *zap.Logger
}

// State is the set of balances carried from one month-end to the next.
type State struct {
	Cash               decimal.Decimal
	AccountsReceivable decimal.Decimal
	AccountsPayable    decimal.Decimal
	DeferredRevenue    decimal.Decimal
	RetainedEarnings   decimal.Decimal
	ContributedCapital decimal.Decimal
}

// Result holds the three monthly statements in month order.
type Result struct {
	PnL          *models.PnLTable
	CashFlow     *models.CashFlowTable
	BalanceSheet *models.BalanceTable
}

func New(in *models.Inputs, opts Options) *Engine {
	e := &Engine{
		billing:  make(map[string]models.BillingCollections, len(in.BillingCollections)),
		payables: make(map[string]models.Payables, len(in.Payables)),
		opening: State{
			Cash:               opts.InitialCash,
			ContributedCapital: opts.ContributedCapital,
		},
		tolerance: opts.Tolerance,
		log:       opts.Logger,
	}
	if e.tolerance.IsZero() {
		e.tolerance = models.DefaultTolerance
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	for _, b := range in.BillingCollections {
		if _, ok := e.billing[b.ScenarioID]; !ok {
			e.billing[b.ScenarioID] = b
		}
	}
	for _, p := range in.Payables {
		if _, ok := e.payables[p.ScenarioID]; !ok {
			e.payables[p.ScenarioID] = p
		}
	}
	return e
}

// Opening returns the balances before the first projected month.
func (e *Engine) Opening() State { return e.opening }

func pct(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return models.Round(num.Div(den).Mul(models.Hundred))
}

// AggregatePnL sums one month's revenue and COGS rows and combines them with
// that month's opex.
func AggregatePnL(month models.Month, scenarioID string, revenue []models.RevenueBreakdown, cogs []models.COGSBreakdown, opex models.OpexBreakdown) models.AggregatedPnL {
	var subs, usage, services, discounts, payouts decimal.Decimal
	for _, r := range revenue {
		subs = subs.Add(r.MRRTotal)
		usage = usage.Add(r.UsageRevenue)
		services = services.Add(r.ServicesTotal)
		discounts = discounts.Add(r.ChannelDiscount)
		payouts = payouts.Add(r.ChannelPayout)
	}
	var variable, fixed, svcCost decimal.Decimal
	for _, c := range cogs {
		variable = variable.Add(c.VariableTotal)
		fixed = fixed.Add(c.FixedTotal)
		svcCost = svcCost.Add(c.ServicesTotal)
	}

	p := models.AggregatedPnL{
		Month:                month,
		ScenarioID:           scenarioID,
		RevenueSubscriptions: models.Round(subs),
		RevenueUsage:         models.Round(usage),
		RevenueServices:      models.Round(services),
		ChannelDiscounts:     models.Round(discounts),
		COGSVariable:         models.Round(variable),
		COGSFixed:            models.Round(fixed),
		COGSServices:         models.Round(svcCost),
		ChannelPayouts:       models.Round(payouts),
		OpexHeadcount:        models.Round(opex.HeadcountTotal),
		OpexSalesComp:        models.Round(opex.SalesCompTotal),
		OpexOther:            models.Round(opex.NonHeadcountTotal),
	}
	p.RevenueTotal = p.RevenueSubscriptions.Add(p.RevenueUsage).Add(p.RevenueServices)
	p.NetRevenue = p.RevenueTotal.Sub(p.ChannelDiscounts)
	p.COGSTotal = p.COGSVariable.Add(p.COGSFixed).Add(p.COGSServices)
	p.GrossProfit = p.NetRevenue.Sub(p.COGSTotal).Sub(p.ChannelPayouts)
	p.GrossMarginPct = pct(p.GrossProfit, p.NetRevenue)
	p.OpexTotal = p.OpexHeadcount.Add(p.OpexSalesComp).Add(p.OpexOther)
	p.EBITDA = p.GrossProfit.Sub(p.OpexTotal)
	p.EBITDAMarginPct = pct(p.EBITDA, p.NetRevenue)
	return p
}

// Collections applies the DSO model to billings. Without billing terms
// everything is collected in the month and AR is zero.
func (e *Engine) Collections(scenarioID string, billings, priorAR decimal.Decimal) (collections, endingAR decimal.Decimal) {
	terms, ok := e.billing[scenarioID]
	if !ok {
		return billings, decimal.Zero
	}
	endingAR = models.Round(billings.Mul(decimal.NewFromInt(int64(terms.DSODays))).Div(models.Thirty))
	gross := priorAR.Add(billings).Sub(endingAR)
	net := gross.Sub(gross.Mul(terms.BadDebtPct))
	return decimal.Max(models.Round(net), decimal.Zero), endingAR
}

// Disbursements applies the DPO model to COGS, opex and channel payouts and
// splits the cash paid across them by their share of expenses.
func (e *Engine) Disbursements(scenarioID string, p models.AggregatedPnL, priorAP decimal.Decimal) (cogs, opex, channel, endingAP decimal.Decimal) {
	terms, ok := e.payables[scenarioID]
	if !ok {
		return p.COGSTotal, p.OpexTotal, p.ChannelPayouts, decimal.Zero
	}
	expenses := p.COGSTotal.Add(p.OpexTotal).Add(p.ChannelPayouts)
	endingAP = models.Round(expenses.Mul(decimal.NewFromInt(int64(terms.DPODays))).Div(models.Thirty))
	total := priorAP.Add(expenses).Sub(endingAP)
	if expenses.IsZero() {
		// Nothing to apportion against; settle the carried AP as opex.
		return decimal.Zero, total, decimal.Zero, endingAP
	}
	cogs = models.Round(total.Mul(p.COGSTotal).Div(expenses))
	opex = models.Round(total.Mul(p.OpexTotal).Div(expenses))
	channel = total.Sub(cogs).Sub(opex)
	return cogs, opex, channel, endingAP
}

// DeferredRevenue defers 11/12 of the annual-prepaid share of subscription
// revenue and releases 1/12 of the prior balance each month. It is inactive
// unless an annual prepaid mix is configured.
func (e *Engine) DeferredRevenue(scenarioID string, subscriptions, prior decimal.Decimal) (change, ending decimal.Decimal) {
	terms, ok := e.billing[scenarioID]
	if !ok || terms.AnnualPrepaidMix.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	deferrals := subscriptions.Mul(terms.AnnualPrepaidMix).Mul(eleven).Div(models.Twelve)
	recognition := decimal.Zero
	if prior.IsPositive() {
		recognition = prior.Div(models.Twelve)
	}
	ending = decimal.Max(models.Round(prior.Add(deferrals).Sub(recognition)), decimal.Zero)
	return ending.Sub(prior), ending
}

// Step advances the balances by one month.
func (e *Engine) Step(prior State, p models.AggregatedPnL) (models.CashFlowStatement, models.BalanceSheetSnapshot, State) {
	// billed gross; resale discounts are left to the plug
	collections, endingAR := e.Collections(p.ScenarioID, p.RevenueTotal, prior.AccountsReceivable)
	cogsPaid, opexPaid, channelPaid, endingAP := e.Disbursements(p.ScenarioID, p, prior.AccountsPayable)
	deltaDeferred, endingDeferred := e.DeferredRevenue(p.ScenarioID, p.RevenueSubscriptions, prior.DeferredRevenue)

	paid := cogsPaid.Add(opexPaid).Add(channelPaid)
	cfo := collections.Sub(paid).Add(deltaDeferred)
	cashEnd := prior.Cash.Add(cfo)

	cf := models.CashFlowStatement{
		Month:                p.Month,
		ScenarioID:           p.ScenarioID,
		CashBegin:            prior.Cash,
		Collections:          collections,
		DisbursementsCOGS:    cogsPaid,
		DisbursementsOpex:    opexPaid,
		DisbursementsChannel: channelPaid,
		DisbursementsTotal:   paid,
		ChangeInAR:           prior.AccountsReceivable.Sub(endingAR),
		ChangeInDeferred:     deltaDeferred,
		ChangeInAP:           endingAP.Sub(prior.AccountsPayable),
		CashFromOperations:   cfo,
		CashEnd:              cashEnd,
	}

	assets := cashEnd.Add(endingAR)
	liabilities := endingAP.Add(endingDeferred)
	retained := prior.RetainedEarnings.Add(p.EBITDA)
	plug := decimal.Zero
	if gap := assets.Sub(liabilities.Add(prior.ContributedCapital).Add(retained)); gap.Abs().GreaterThan(e.tolerance) {
		plug = gap
		retained = retained.Add(plug)
		e.log.Warn("balance sheet plugged",
			zap.String("month", p.Month.String()),
			zap.String("plug", plug.StringFixed(2)))
	}

	bs := models.BalanceSheetSnapshot{
		Month:              p.Month,
		ScenarioID:         p.ScenarioID,
		Cash:               cashEnd,
		AccountsReceivable: endingAR,
		PrepaidExpenses:    decimal.Zero,
		TotalAssets:        assets,
		AccountsPayable:    endingAP,
		AccruedExpenses:    decimal.Zero,
		DeferredRevenue:    endingDeferred,
		TotalLiabilities:   liabilities,
		ContributedCapital: prior.ContributedCapital,
		RetainedEarnings:   retained,
		TotalEquity:        prior.ContributedCapital.Add(retained),
		PlugAdjustment:     plug,
	}

	next := State{
		Cash:               cashEnd,
		AccountsReceivable: endingAR,
		AccountsPayable:    endingAP,
		DeferredRevenue:    endingDeferred,
		RetainedEarnings:   retained,
		ContributedCapital: prior.ContributedCapital,
	}
	return cf, bs, next
}

// Calculate walks the months strictly in order. Cohort-keyed tables are
// grouped by month once before the walk.
func (e *Engine) Calculate(ctx context.Context, scenarioID string, months []models.Month, revenue *models.RevenueTable, cogs *models.COGSTable, opex *models.OpexTable) (*Result, error) {
	revByMonth := models.GroupByMonth(revenue)
	cogsByMonth := models.GroupByMonth(cogs)

	res := &Result{
		PnL:          models.NewTable[models.Month, models.AggregatedPnL](len(months)),
		CashFlow:     models.NewTable[models.Month, models.CashFlowStatement](len(months)),
		BalanceSheet: models.NewTable[models.Month, models.BalanceSheetSnapshot](len(months)),
	}
	state := e.opening
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o, _ := opex.Get(m)
		p := AggregatePnL(m, scenarioID, revByMonth[m], cogsByMonth[m], o)
		cf, bs, next := e.Step(state, p)
		res.PnL.Put(m, p)
		res.CashFlow.Put(m, cf)
		res.BalanceSheet.Put(m, bs)
		state = next
	}
	e.log.Debug("statements computed", zap.Int("months", len(months)),
		zap.String("cash_end", state.Cash.StringFixed(2)))
	return res, nil
}
