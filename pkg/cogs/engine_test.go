package cogs

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"saas-projection/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	jan = models.NewMonth(2025, 1)
	feb = models.NewMonth(2025, 2)
)

func key(m models.Month, seg string) models.CohortKey {
	return models.CohortKey{Month: m, ScenarioID: "base", SegmentID: seg, ChannelID: "direct"}
}

func inputs() *models.Inputs {
	return &models.Inputs{
		COGSUnitCosts: []models.COGSUnitCosts{{
			ScenarioID:           "base",
			LLMCostPer1kTokens:   models.D("0.003"),
			EmbedCostPer1kTokens: models.D("0.0001"),
			ComputeCostPerHour:   models.D("0.10"),
			StorageCostPerGBM:    models.D("0.023"),
			SupportCostPerTicket: models.D("25"),
			FixedPlatformCOGSM:   models.D("5000"),
		}},
		UsageAssumptions: []models.UsageAssumption{{
			ScenarioID: "base", SegmentID: "smb", ChannelID: "direct",
			TokensPerTenantM:         models.D("1000000"),
			Embed1kTokensPerTenantM:  models.D("500"),
			ComputeHoursPerTenantM:   models.D("20"),
			StorageGBPerTenantM:      models.D("100"),
			SupportTicketsPerTenantM: models.D("0.5"),
		}},
		Services: []models.ServicesAssumption{{
			ScenarioID: "base", SegmentID: "smb", ChannelID: "direct",
			ImplCOGSPct: models.D("0.40"), AdvisoryCOGSPct: models.D("0.25"),
		}},
	}
}

func TestVariableCost(t *testing.T) {
	st := models.CohortState{Key: key(jan, "smb"), ActiveLogos: models.D("10")}
	v := New(inputs(), Options{}).VariableCost(st)

	got := map[string]string{
		"llm":     v.LLMTokens.StringFixed(2),
		"embed":   v.Embeddings.StringFixed(2),
		"compute": v.Compute.StringFixed(2),
		"storage": v.Storage.StringFixed(2),
		"support": v.Support.StringFixed(2),
		"total":   v.Total().StringFixed(2),
	}
	want := map[string]string{
		"llm":     "30.00",
		"embed":   "0.50",
		"compute": "20.00",
		"storage": "23.00",
		"support": "125.00",
		"total":   "198.50",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("variable cost mismatch (-want +got):\n%s", diff)
	}
}

func TestVariableCost_MissingRowsAreZero(t *testing.T) {
	e := New(inputs(), Options{})
	v := e.VariableCost(models.CohortState{Key: key(jan, "mid"), ActiveLogos: models.D("10")})
	assert.True(t, v.Total().IsZero())

	other := models.CohortState{Key: models.CohortKey{Month: jan, ScenarioID: "bull", SegmentID: "smb", ChannelID: "direct"}, ActiveLogos: models.D("10")}
	assert.True(t, e.VariableCost(other).Total().IsZero())
}

func TestServicesCost(t *testing.T) {
	rev := models.RevenueBreakdown{Key: key(jan, "smb"), ServicesImpl: models.D("7500"), ServicesAdvisory: models.D("1000")}
	impl, adv := New(inputs(), Options{}).ServicesCost(rev)
	assert.Equal(t, "3000.00", impl.StringFixed(2))
	assert.Equal(t, "250.00", adv.StringFixed(2))
}

func buildTables(active map[models.CohortKey]string, gross map[models.CohortKey]string, order []models.CohortKey) (*models.CohortTable, *models.RevenueTable) {
	cohorts := models.NewTable[models.CohortKey, models.CohortState](len(order))
	revenue := models.NewTable[models.CohortKey, models.RevenueBreakdown](len(order))
	for _, k := range order {
		cohorts.Put(k, models.CohortState{Key: k, ActiveLogos: models.D(active[k])})
		g := decimal.Zero
		if s, ok := gross[k]; ok {
			g = models.D(s)
		}
		revenue.Put(k, models.RevenueBreakdown{Key: k, GrossRevenue: g, ChannelPayout: models.D("1.5")})
	}
	return cohorts, revenue
}

func TestCalculate_FixedAllocationModes(t *testing.T) {
	order := []models.CohortKey{key(jan, "smb"), key(jan, "mid"), key(feb, "smb"), key(feb, "mid")}
	active := map[models.CohortKey]string{order[0]: "30", order[1]: "10", order[2]: "10", order[3]: "0"}
	gross := map[models.CohortKey]string{order[0]: "1000", order[1]: "3000"}
	cohorts, revenue := buildTables(active, gross, order)

	tests := []struct {
		mode models.FixedCOGSAllocation
		want []string
	}{
		{models.AllocateByActiveLogos, []string{"3000.00", "1000.00", "1000.00", "0.00"}},
		{models.AllocateByRevenue, []string{"1250.00", "3750.00", "0.00", "0.00"}},
		{models.AllocateFlatSplit, []string{"1250.00", "1250.00", "1250.00", "1250.00"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			out, err := New(inputs(), Options{Allocation: tc.mode}).Calculate(context.Background(), cohorts, revenue)
			require.NoError(t, err)
			var got []string
			sum := decimal.Zero
			for _, r := range out.Values() {
				got = append(got, r.FixedTotal.StringFixed(2))
				sum = sum.Add(r.FixedTotal)
				assert.True(t, r.Total.Equal(r.VariableTotal.Add(r.FixedTotal).Add(r.ServicesTotal)))
				assert.True(t, r.ThirdParty.IsZero())
				assert.Equal(t, "1.50", r.ChannelPayout.StringFixed(2))
			}
			assert.Equal(t, tc.want, got)
			assert.Equal(t, "5000.00", sum.StringFixed(2))
		})
	}
}

func TestCalculate_FixedBaselineSplitAcrossRun(t *testing.T) {
	order := []models.CohortKey{key(jan, "mid"), key(feb, "mid")}
	active := map[models.CohortKey]string{order[0]: "10", order[1]: "10"}
	cohorts, revenue := buildTables(active, nil, order)

	out, err := New(inputs(), Options{}).Calculate(context.Background(), cohorts, revenue)
	require.NoError(t, err)
	for _, k := range order {
		r, ok := out.Get(k)
		require.True(t, ok)
		assert.Equal(t, "2500.00", r.FixedTotal.StringFixed(2), k.Month.String())
	}
}

func TestCalculate_MissingRevenueIsAnError(t *testing.T) {
	cohorts := models.NewTable[models.CohortKey, models.CohortState](1)
	cohorts.Put(key(jan, "smb"), models.CohortState{Key: key(jan, "smb")})
	_, err := New(inputs(), Options{}).Calculate(context.Background(), cohorts, models.NewTable[models.CohortKey, models.RevenueBreakdown](0))
	assert.Error(t, err)
}
