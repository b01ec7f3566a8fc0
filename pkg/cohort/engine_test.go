package cohort

import (
	"context"
	"errors"
	"testing"

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
	mar = models.NewMonth(2025, 3)
)

func override(m models.Month, seg, ch string, n int) models.NewLogosOverride {
	return models.NewLogosOverride{Month: m, ScenarioID: "base", SegmentID: seg, ChannelID: ch, NewLogos: n}
}

func TestCalculate_ConstantNewLogosNoChurn(t *testing.T) {
	in := &models.Inputs{
		NewLogosOverrides: []models.NewLogosOverride{
			override(jan, "smb", "direct", 10),
			override(feb, "smb", "direct", 10),
			override(mar, "smb", "direct", 10),
		},
	}
	tbl, err := New(in, Options{}).Calculate(context.Background(), "base", []string{"smb"}, []string{"direct"}, []models.Month{jan, feb, mar})
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	var got []string
	for _, st := range tbl.Values() {
		got = append(got, st.ActiveLogos.String())
	}
	assert.Equal(t, []string{"10", "20", "30"}, got)
}

func TestCalculate_ChurnOnPriorActive(t *testing.T) {
	in := &models.Inputs{
		NewLogosOverrides: []models.NewLogosOverride{override(jan, "smb", "direct", 100)},
		Retention: []models.RetentionAssumption{
			{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", LogoChurnM: models.D("0.10")},
		},
	}
	tbl, err := New(in, Options{}).Calculate(context.Background(), "base", []string{"smb"}, []string{"direct"}, []models.Month{jan, feb})
	require.NoError(t, err)

	st, ok := tbl.Get(models.CohortKey{Month: feb, ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"})
	require.True(t, ok)
	assert.True(t, st.ChurnedLogos.Equal(models.D("10")), "churned=%s", st.ChurnedLogos)
	assert.True(t, st.RetainedLogos.Equal(models.D("90")), "retained=%s", st.RetainedLogos)
	assert.True(t, st.ActiveLogos.Equal(models.D("90")), "active=%s", st.ActiveLogos)
	assert.True(t, st.NewLogos.IsZero())
}

func TestCalculate_NegativeActiveIsFatal(t *testing.T) {
	in := &models.Inputs{
		NewLogosOverrides: []models.NewLogosOverride{override(jan, "smb", "direct", 10)},
		Retention: []models.RetentionAssumption{
			{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", LogoChurnM: models.D("1.5")},
		},
	}
	_, err := New(in, Options{}).Calculate(context.Background(), "base", []string{"smb"}, []string{"direct"}, []models.Month{jan, feb})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNegativeActiveLogos))
}

func TestNewLogos_FromFunnel(t *testing.T) {
	in := &models.Inputs{
		Funnel: []models.FunnelAssumption{
			{Month: jan, ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", Leads: 100, LeadToSQL: models.D("0.30"), SQLToWin: models.D("0.20")},
		},
	}
	e := New(in, Options{})
	scope := models.Scope{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"}
	assert.True(t, e.NewLogos(jan, scope).Equal(models.D("6")))
	assert.True(t, e.NewLogos(feb, scope).IsZero(), "missing funnel row means zero")
}

func TestNewLogos_OverrideWins(t *testing.T) {
	in := &models.Inputs{
		Funnel: []models.FunnelAssumption{
			{Month: jan, ScenarioID: "base", SegmentID: "smb", ChannelID: "direct", Leads: 100, LeadToSQL: models.D("0.30"), SQLToWin: models.D("0.20")},
		},
		NewLogosOverrides: []models.NewLogosOverride{override(jan, "smb", "direct", 42)},
	}
	scope := models.Scope{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"}
	assert.True(t, New(in, Options{}).NewLogos(jan, scope).Equal(models.D("42")))
}

func TestSeatsAndEnvs_CompoundByMonthIndex(t *testing.T) {
	in := &models.Inputs{
		SeatsAndEnvs: []models.SeatsAndEnvs{{
			ScenarioID: "base", SegmentID: "smb", ChannelID: "direct",
			SeatsPerTenantStart: models.D("10"), SeatsGrowthM: models.D("0.10"),
			EnvsPerTenantStart: models.D("2"), EnvsGrowthM: models.D("0"),
		}},
	}
	e := New(in, Options{})
	seats, envs := e.SeatsAndEnvs(models.Scope{ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"}, 2)
	assert.Equal(t, "12.10", seats.StringFixed(2))
	assert.Equal(t, "2.00", envs.StringFixed(2))

	seats, envs = e.SeatsAndEnvs(models.Scope{ScenarioID: "base", SegmentID: "mid", ChannelID: "direct"}, 5)
	assert.True(t, seats.Equal(models.One) && envs.Equal(models.One), "defaults to one seat and one env")
}

func TestAttachRate_Modes(t *testing.T) {
	row := models.PackAttachRate{SKUID: "ai_pack", AttachRate: models.D("0.30"), AttachRampMonths: 3}

	linear := New(&models.Inputs{}, Options{AttachRampMode: models.AttachLinear})
	assert.True(t, linear.AttachRate(row, 0).IsZero())
	assert.Equal(t, "0.10", linear.AttachRate(row, 1).StringFixed(2))
	assert.Equal(t, "0.30", linear.AttachRate(row, 3).StringFixed(2))
	assert.Equal(t, "0.30", linear.AttachRate(row, 9).StringFixed(2))

	immediate := New(&models.Inputs{}, Options{AttachRampMode: models.AttachImmediate})
	assert.Equal(t, "0.30", immediate.AttachRate(row, 0).StringFixed(2))

	scurve := New(&models.Inputs{}, Options{AttachRampMode: models.AttachSCurve})
	// x=1/3: 3/9 - 2/27 = 7/27 → 0.3 × 7/27 ≈ 0.0778
	assert.Equal(t, "0.0778", scurve.AttachRate(row, 1).StringFixed(4))
}

func TestCalculate_PackAttachmentAndOrdering(t *testing.T) {
	in := &models.Inputs{
		NewLogosOverrides: []models.NewLogosOverride{
			override(jan, "smb", "direct", 10),
			override(jan, "smb", "partner", 20),
			override(jan, "mid", "direct", 5),
		},
		PackAttachRates: []models.PackAttachRate{
			{SegmentID: "smb", ChannelID: "direct", SKUID: "ai_pack", AttachRate: models.D("0.5"), AttachRampMonths: 0},
		},
	}
	tbl, err := New(in, Options{}).Calculate(context.Background(), "base",
		[]string{"smb", "mid"}, []string{"direct", "partner"}, []models.Month{jan, feb})
	require.NoError(t, err)
	require.Equal(t, 8, tbl.Len())

	first := tbl.Keys[0]
	assert.Equal(t, models.CohortKey{Month: jan, ScenarioID: "base", SegmentID: "smb", ChannelID: "direct"}, first)
	assert.Equal(t, "5.00", tbl.Rows[first].PackAttachments["ai_pack"].StringFixed(2))
	assert.Equal(t, jan, tbl.Keys[3].Month)
	assert.Equal(t, feb, tbl.Keys[4].Month)

	partner := tbl.Rows[models.CohortKey{Month: feb, ScenarioID: "base", SegmentID: "smb", ChannelID: "partner"}]
	assert.Empty(t, partner.PackAttachments)
	assert.True(t, partner.ActiveLogos.Equal(models.D("20")))
}

func TestCalculate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&models.Inputs{}, Options{}).Calculate(ctx, "base", []string{"smb"}, []string{"direct"}, []models.Month{jan})
	assert.ErrorIs(t, err, context.Canceled)
}
