package revenue

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"saas-projection/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var jan = models.NewMonth(2025, 1)

func state(seg, ch string, active, newLogos string) models.CohortState {
	a := models.D(active)
	return models.CohortState{
		Key:             models.CohortKey{Month: jan, ScenarioID: "base", SegmentID: seg, ChannelID: ch},
		ActiveLogos:     a,
		NewLogos:        models.D(newLogos),
		TotalSeats:      a.Mul(models.D("5")),
		TotalEnvs:       a.Mul(models.D("2")),
		PackAttachments: map[string]decimal.Decimal{},
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), field)
}

func TestSubscriptionMRR_AnnualBasePerTenant(t *testing.T) {
	in := &models.Inputs{
		PriceBook: []models.PriceBookEntry{
			{SKUID: "platform_base", BillingPeriod: models.BillingAnnual, PriceModel: models.PricePerTenant, ListPrice: models.D("12000")},
		},
	}
	base, packs, addons := New(in, nil).SubscriptionMRR(state("smb", "direct", "10", "0"))
	assertMoney(t, "10000.00", base, "base")
	assert.True(t, packs.IsZero())
	assert.True(t, addons.IsZero())
}

func TestSubscriptionMRR_BucketsAndUnits(t *testing.T) {
	in := &models.Inputs{
		SKUTypes: map[string]models.SKUType{"ai_pack": models.SKUPack, "analytics": models.SKUAddon, "envs": models.SKUAddon},
		PriceBook: []models.PriceBookEntry{
			{SKUID: "platform_base", BillingPeriod: models.BillingMonthly, PriceModel: models.PricePerTenant, ListPrice: models.D("100"), DefaultDiscountPct: models.D("0.10")},
			{SKUID: "ai_pack", BillingPeriod: models.BillingAnnual, PriceModel: models.PricePerTenant, ListPrice: models.D("6000")},
			{SKUID: "analytics", BillingPeriod: models.BillingMonthly, PriceModel: models.PricePerSeat, ListPrice: models.D("50")},
			{SKUID: "envs", BillingPeriod: models.BillingMonthly, PriceModel: models.PricePerEnv, ListPrice: models.D("10")},
			{SKUID: "usage_llm", BillingPeriod: models.BillingMonthly, PriceModel: models.PricePerUsage, ListPrice: models.D("999")},
		},
	}
	st := state("smb", "direct", "10", "0")
	st.PackAttachments["ai_pack"] = models.D("4")

	base, packs, addons := New(in, nil).SubscriptionMRR(st)
	assertMoney(t, "900.00", base, "base: 10 × 100 × 0.9")
	assertMoney(t, "2000.00", packs, "packs: 4 × 500")
	assertMoney(t, "2700.00", addons, "addons: 50 seats × 50 + 20 envs × 10")
}

func TestUsageRevenue_Overage(t *testing.T) {
	in := &models.Inputs{
		UsageAssumptions: []models.UsageAssumption{
			{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", TokensPerTenantM: models.D("150000")},
		},
		UsageMonetization: []models.UsageMonetization{
			{SKUID: "usage_llm", SegmentID: "smb", IncludedUnitsPerTenantM: models.D("100000"), OveragePricePerUnit: models.D("0.02"), OverageTakeRate: models.D("0.5")},
		},
	}
	e := New(in, nil)
	// (1.5M − 1M) × 0.5 × 0.02 / 1000 = 5
	assertMoney(t, "5.00", e.UsageRevenue(state("smb", "direct", "10", "0")), "usage")
	assert.True(t, e.UsageRevenue(state("mid", "direct", "10", "0")).IsZero())
}

func TestUsageRevenue_NoOverageBelowAllowance(t *testing.T) {
	in := &models.Inputs{
		UsageAssumptions: []models.UsageAssumption{
			{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", TokensPerTenantM: models.D("1000")},
		},
		UsageMonetization: []models.UsageMonetization{
			{SKUID: "usage_llm", SegmentID: "smb", IncludedUnitsPerTenantM: models.D("5000"), OveragePricePerUnit: models.D("1"), OverageTakeRate: models.D("1")},
		},
	}
	assert.True(t, New(in, nil).UsageRevenue(state("smb", "direct", "10", "0")).IsZero())
}

func TestServicesRevenue(t *testing.T) {
	in := &models.Inputs{
		Services: []models.ServicesAssumption{
			{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", ImplFeePerNewLogo: models.D("2500"), AdvisoryFeeM: models.D("100")},
		},
	}
	impl, adv := New(in, nil).ServicesRevenue(state("smb", "direct", "10", "3"))
	assertMoney(t, "7500.00", impl, "impl")
	assertMoney(t, "1000.00", adv, "advisory")
}

func TestApplyChannel_Models(t *testing.T) {
	in := &models.Inputs{
		ChannelTerms: []models.ChannelTerms{
			{ChannelID: "reseller", Model: models.ChannelResaleDiscount, ResaleDiscountPct: models.D("0.25")},
			{ChannelID: "partner", Model: models.ChannelRevshare, RevsharePct: models.D("0.20")},
			{ChannelID: "referral", Model: models.ChannelReferralFee, ReferralFeePct: models.D("0.10")},
		},
	}
	e := New(in, nil)
	gross := models.D("1000")

	tests := []struct {
		channel               string
		discount, payout, net string
	}{
		{"reseller", "250.00", "0.00", "750.00"},
		{"partner", "0.00", "200.00", "1000.00"},
		{"referral", "0.00", "100.00", "1000.00"},
		{"direct", "0.00", "0.00", "1000.00"},
	}
	for _, tc := range tests {
		t.Run(tc.channel, func(t *testing.T) {
			d, p, n := e.ApplyChannel(gross, tc.channel)
			assertMoney(t, tc.discount, d, "discount")
			assertMoney(t, tc.payout, p, "payout")
			assertMoney(t, tc.net, n, "net")
		})
	}
}

func TestCalculate_IdentitiesHold(t *testing.T) {
	in := &models.Inputs{
		SKUTypes: map[string]models.SKUType{"ai_pack": models.SKUPack},
		PriceBook: []models.PriceBookEntry{
			{SKUID: "platform_base", BillingPeriod: models.BillingAnnual, PriceModel: models.PricePerTenant, ListPrice: models.D("12000"), DefaultDiscountPct: models.D("0.07")},
			{SKUID: "ai_pack", BillingPeriod: models.BillingAnnual, PriceModel: models.PricePerTenant, ListPrice: models.D("6000")},
		},
		ChannelTerms: []models.ChannelTerms{
			{ChannelID: "reseller", Model: models.ChannelResaleDiscount, ResaleDiscountPct: models.D("0.333")},
		},
	}
	cohorts := models.NewTable[models.CohortKey, models.CohortState](2)
	for _, st := range []models.CohortState{state("smb", "direct", "7.33", "1"), state("smb", "reseller", "13.17", "2")} {
		st.PackAttachments["ai_pack"] = models.D("3.1")
		cohorts.Put(st.Key, st)
	}

	out, err := New(in, nil).Calculate(context.Background(), cohorts)
	require.NoError(t, err)
	require.Equal(t, cohorts.Keys, out.Keys)
	for _, r := range out.Values() {
		assert.True(t, r.MRRTotal.Equal(r.MRRBase.Add(r.MRRPacks).Add(r.MRRAddons)))
		assert.True(t, r.ARR.Equal(r.MRRTotal.Mul(models.Twelve)))
		assert.True(t, r.NetRevenue.Equal(r.GrossRevenue.Sub(r.ChannelDiscount)))
	}
}
