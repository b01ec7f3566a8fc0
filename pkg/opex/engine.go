// Package opex computes scenario-wide operating expense per month: ramped
// headcount cost, sales compensation and non-headcount spend.
package opex

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"saas-projection/pkg/models"
	"saas-projection/pkg/parallel"
)

type monthScenario struct {
	month      models.Month
	scenarioID string
}

type Engine struct {
	hires     map[string][]models.HeadcountPlan // by scenario
	spend     map[monthScenario]models.OpexAssumption
	salesComp map[models.Scope]models.SalesCompAssumption
	log       *zap.Logger
}

func New(in *models.Inputs, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		hires:     make(map[string][]models.HeadcountPlan),
		spend:     make(map[monthScenario]models.OpexAssumption, len(in.Opex)),
		salesComp: make(map[models.Scope]models.SalesCompAssumption, len(in.SalesComp)),
		log:       log,
	}
	for _, h := range in.HeadcountPlan {
		e.hires[h.ScenarioID] = append(e.hires[h.ScenarioID], h)
	}
	for _, o := range in.Opex {
		k := monthScenario{o.Month, o.ScenarioID}
		if _, ok := e.spend[k]; !ok {
			e.spend[k] = o
		}
	}
	for _, s := range in.SalesComp {
		k := models.Scope{ScenarioID: s.ScenarioID, SegmentID: s.SegmentID, ChannelID: s.ChannelID}
		if _, ok := e.salesComp[k]; !ok {
			e.salesComp[k] = s
		}
	}
	return e
}

// RampFactor is 0 in the hire month, rises linearly, and reaches 1 once
// rampMonths have elapsed.
func RampFactor(monthsSinceHire, rampMonths int) decimal.Decimal {
	switch {
	case monthsSinceHire >= rampMonths:
		return models.One
	case monthsSinceHire <= 0:
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(monthsSinceHire)).Div(decimal.NewFromInt(int64(rampMonths)))
}

// Headcount returns one state per function, in models.Functions order, for
// every hire event on or before month.
func (e *Engine) Headcount(month models.Month, scenarioID string) []models.HeadcountState {
	heads := make(map[models.Function]decimal.Decimal, len(models.Functions))
	fte := make(map[models.Function]decimal.Decimal, len(models.Functions))
	cost := make(map[models.Function]decimal.Decimal, len(models.Functions))

	for _, h := range e.hires[scenarioID] {
		if h.Month.After(month) {
			continue
		}
		n := decimal.NewFromInt(int64(h.Hires))
		ramp := RampFactor(month.Ordinal()-h.Month.Ordinal(), h.RampMonths)
		heads[h.Function] = heads[h.Function].Add(n)
		fte[h.Function] = fte[h.Function].Add(n.Mul(ramp))
		cost[h.Function] = cost[h.Function].Add(n.Mul(h.FullyLoadedAnnual.Div(models.Twelve)).Mul(ramp))
	}

	out := make([]models.HeadcountState, 0, len(models.Functions))
	for _, f := range models.Functions {
		out = append(out, models.HeadcountState{
			Function:    f,
			Heads:       heads[f],
			RampedFTE:   models.Round(fte[f]),
			MonthlyCost: models.Round(cost[f]),
		})
	}
	return out
}

// SalesComp sums commissions on subscription MRR and CAC per new logo over
// one month's cohort keys. Keys without a comp row are skipped.
func (e *Engine) SalesComp(revenue []models.RevenueBreakdown, cohorts *models.CohortTable) (commissions, cac decimal.Decimal) {
	for _, r := range revenue {
		comp, ok := e.salesComp[r.Key.Scope()]
		if !ok {
			continue
		}
		commissions = commissions.Add(r.MRRTotal.Mul(comp.CommissionPctOfSubRev))
		if st, ok := cohorts.Get(r.Key); ok {
			cac = cac.Add(st.NewLogos.Mul(comp.CACPaidPerNewLogo))
		}
	}
	return models.Round(commissions), models.Round(cac)
}

// NonHeadcount returns the (month, scenario) spend row, zero when absent.
func (e *Engine) NonHeadcount(month models.Month, scenarioID string) models.OpexAssumption {
	return e.spend[monthScenario{month, scenarioID}]
}

func (e *Engine) Breakdown(month models.Month, scenarioID string, revenue []models.RevenueBreakdown, cohorts *models.CohortTable) models.OpexBreakdown {
	hc := e.Headcount(month, scenarioID)
	hcTotal := decimal.Zero
	for _, h := range hc {
		hcTotal = hcTotal.Add(h.MonthlyCost)
	}
	commissions, cac := e.SalesComp(revenue, cohorts)
	salesComp := commissions.Add(cac)

	spend := e.NonHeadcount(month, scenarioID)
	marketing := models.Round(spend.MarketingSpendM)
	tools := models.Round(spend.ToolsAndSoftwareM)
	legal := models.Round(spend.LegalAndAccountingM)
	rent := models.Round(spend.RentAndAdminM)
	other := models.Round(spend.OtherOpexM)
	nonHC := decimal.Sum(marketing, tools, legal, rent, other)

	return models.OpexBreakdown{
		Month:              month,
		ScenarioID:         scenarioID,
		Headcount:          hc,
		HeadcountTotal:     hcTotal,
		Commissions:        commissions,
		CACPayments:        cac,
		SalesCompTotal:     salesComp,
		MarketingSpend:     marketing,
		ToolsAndSoftware:   tools,
		LegalAndAccounting: legal,
		RentAndAdmin:       rent,
		OtherOpex:          other,
		NonHeadcountTotal:  nonHC,
		Total:              hcTotal.Add(salesComp).Add(nonHC),
	}
}

// Calculate computes every month in parallel. Revenue is grouped by month
// once up front.
func (e *Engine) Calculate(ctx context.Context, scenarioID string, months []models.Month, cohorts *models.CohortTable, revenue *models.RevenueTable) (*models.OpexTable, error) {
	byMonth := models.GroupByMonth(revenue)
	rows := make([]models.OpexBreakdown, len(months))
	err := parallel.ForEach(ctx, len(months), func(i int) error {
		rows[i] = e.Breakdown(months[i], scenarioID, byMonth[months[i]], cohorts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := models.NewTable[models.Month, models.OpexBreakdown](len(rows))
	for _, r := range rows {
		out.Put(r.Month, r)
	}
	e.log.Debug("opex computed", zap.Int("months", out.Len()))
	return out, nil
}
