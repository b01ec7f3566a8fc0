package calculator

import (
	"github.com/shopspring/decimal"

	"saas-projection/pkg/models"
)

// UnitEconomics derives per-key ratios from the finished cohort, revenue and
// COGS tables. Ratios with a zero or negative denominator are reported as 0.
//
//	ARPA    = MRR / active logos
//	GM%     = (net revenue - COGS - channel payout) / net revenue * 100
//	CAC     = CAC paid per new logo for the key's scope
//	LTV     = ARPA * GM / monthly logo churn
//	payback = CAC / (ARPA * GM), in months
func UnitEconomics(in *models.Inputs, cohorts *models.CohortTable, revenue *models.RevenueTable, cogs *models.COGSTable) []models.UnitEconomics {
	churn := make(map[models.Scope]decimal.Decimal, len(in.Retention))
	for _, r := range in.Retention {
		s := models.Scope{ScenarioID: r.ScenarioID, SegmentID: r.SegmentID, ChannelID: r.ChannelID}
		if _, dup := churn[s]; !dup {
			churn[s] = r.LogoChurnM
		}
	}
	cac := make(map[models.Scope]decimal.Decimal, len(in.SalesComp))
	for _, c := range in.SalesComp {
		s := models.Scope{ScenarioID: c.ScenarioID, SegmentID: c.SegmentID, ChannelID: c.ChannelID}
		if _, dup := cac[s]; !dup {
			cac[s] = c.CACPaidPerNewLogo
		}
	}

	out := make([]models.UnitEconomics, 0, cohorts.Len())
	for _, k := range cohorts.Keys {
		st := cohorts.Rows[k]
		rev := revenue.Rows[k]
		cost := cogs.Rows[k]

		arpa := models.SafeDiv(rev.MRRTotal, st.ActiveLogos)
		var margin decimal.Decimal
		if rev.NetRevenue.IsPositive() {
			margin = rev.NetRevenue.Sub(cost.Total).Sub(cost.ChannelPayout).Div(rev.NetRevenue)
		}
		contribution := arpa.Mul(margin)

		ue := models.UnitEconomics{
			Key:            k,
			ActiveLogos:    st.ActiveLogos,
			NewLogos:       st.NewLogos,
			ChurnedLogos:   st.ChurnedLogos,
			MRR:            rev.MRRTotal,
			ARR:            rev.ARR,
			ARPA:           models.Round(arpa),
			GrossMarginPct: models.Round(margin.Mul(models.Hundred)),
			CAC:            models.Round(cac[k.Scope()]),
		}
		if c := churn[k.Scope()]; c.IsPositive() && contribution.IsPositive() {
			ue.LTV = models.Round(contribution.Div(c))
		}
		if contribution.IsPositive() {
			ue.PaybackMonths = models.Round(cac[k.Scope()].Div(contribution))
		}
		out = append(out, ue)
	}
	return out
}
