package opex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"saas-projection/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var jan = models.NewMonth(2025, 1)

func TestRampFactor(t *testing.T) {
	tests := []struct {
		since, ramp int
		want        string
	}{
		{-1, 4, "0"},
		{0, 4, "0"},
		{1, 4, "0.25"},
		{2, 4, "0.5"},
		{4, 4, "1"},
		{9, 4, "1"},
		{0, 0, "1"},
	}
	for _, tc := range tests {
		got := RampFactor(tc.since, tc.ramp)
		assert.True(t, got.Equal(models.D(tc.want)), "since=%d ramp=%d got %s", tc.since, tc.ramp, got)
	}
}

func TestHeadcount_HalfRampedHire(t *testing.T) {
	in := &models.Inputs{
		HeadcountPlan: []models.HeadcountPlan{
			{Month: jan, ScenarioID: "base", Function: models.FunctionEng, Hires: 4, FullyLoadedAnnual: models.D("120000"), RampMonths: 4},
		},
	}
	e := New(in, nil)

	hc := e.Headcount(jan.AddMonths(2), "base")
	require.Len(t, hc, len(models.Functions))
	assert.Equal(t, models.FunctionEng, hc[0].Function)
	assert.Equal(t, "20000.00", hc[0].MonthlyCost.StringFixed(2))
	assert.Equal(t, "2.00", hc[0].RampedFTE.StringFixed(2))
	assert.True(t, hc[0].Heads.Equal(models.D("4")))

	before := e.Headcount(jan.AddMonths(-1), "base")
	assert.True(t, before[0].Heads.IsZero(), "hires after the evaluation month are ignored")
	assert.True(t, e.Headcount(jan, "base")[0].MonthlyCost.IsZero(), "zero cost in the hire month")
}

func TestBreakdown_TotalsAndSalesComp(t *testing.T) {
	scope := models.Scope{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"}
	key := models.CohortKey{Month: jan, ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"}
	other := models.CohortKey{Month: jan, ScenarioID: "base", SegmentID: "mid", ChannelID: "direct"}
	in := &models.Inputs{
		HeadcountPlan: []models.HeadcountPlan{
			{Month: jan.AddMonths(-3), ScenarioID: "base", Function: models.FunctionGA, Hires: 1, FullyLoadedAnnual: models.D("120000"), RampMonths: 2},
		},
		Opex: []models.OpexAssumption{{
			Month: jan, ScenarioID: "base",
			MarketingSpendM: models.D("15000"), ToolsAndSoftwareM: models.D("5000"),
			LegalAndAccountingM: models.D("3000"), RentAndAdminM: models.D("8000"), OtherOpexM: models.D("2000"),
		}},
		SalesComp: []models.SalesCompAssumption{{
			ScenarioID: scope.ScenarioID, SegmentID: scope.SegmentID, ChannelID: scope.ChannelID,
			CommissionPctOfSubRev: models.D("0.10"), CACPaidPerNewLogo: models.D("500"),
		}},
	}
	cohorts := models.NewTable[models.CohortKey, models.CohortState](2)
	cohorts.Put(key, models.CohortState{Key: key, NewLogos: models.D("3")})
	cohorts.Put(other, models.CohortState{Key: other, NewLogos: models.D("7")})
	revenue := models.NewTable[models.CohortKey, models.RevenueBreakdown](2)
	revenue.Put(key, models.RevenueBreakdown{Key: key, MRRTotal: models.D("10000")})
	revenue.Put(other, models.RevenueBreakdown{Key: other, MRRTotal: models.D("99999")})

	out, err := New(in, nil).Calculate(context.Background(), "base", []models.Month{jan, jan.AddMonths(1)}, cohorts, revenue)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	o := out.Rows[jan]
	assert.Equal(t, "10000.00", o.HeadcountCost(models.FunctionGA).StringFixed(2))
	assert.Equal(t, "10000.00", o.HeadcountTotal.StringFixed(2))
	assert.Equal(t, "1000.00", o.Commissions.StringFixed(2))
	assert.Equal(t, "1500.00", o.CACPayments.StringFixed(2))
	assert.Equal(t, "33000.00", o.NonHeadcountTotal.StringFixed(2))
	assert.Equal(t, "45500.00", o.Total.StringFixed(2))

	next := out.Rows[jan.AddMonths(1)]
	assert.True(t, next.NonHeadcountTotal.IsZero(), "missing spend row is zero")
	assert.True(t, next.SalesCompTotal.IsZero())
	assert.Equal(t, "10000.00", next.Total.StringFixed(2))
}
