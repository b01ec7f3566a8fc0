package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputsValidate_Clean(t *testing.T) {
	in := &Inputs{
		Funnel:    []FunnelAssumption{{Leads: 100, LeadToSQL: D("0.3"), SQLToWin: D("0.2")}},
		Retention: []RetentionAssumption{{LogoChurnM: D("0.03")}},
	}
	assert.NoError(t, in.Validate())
}

func TestInputsValidate_ReportsEveryViolation(t *testing.T) {
	in := &Inputs{
		Funnel:        []FunnelAssumption{{Leads: -1, LeadToSQL: D("1.2"), SQLToWin: D("0.2")}},
		Retention:     []RetentionAssumption{{LogoChurnM: D("-0.01")}},
		HeadcountPlan: []HeadcountPlan{{Hires: 2, RampMonths: -3}},
	}
	err := in.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	for _, want := range []string{"funnel[0] leads", "funnel[0] lead_to_sql", "retention[0] logo_churn_m", "headcount_plan[0] ramp_months"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRunSettingsValidate(t *testing.T) {
	s := DefaultRunSettings()
	require.NoError(t, s.Validate())

	bad := s
	bad.EndMonth = s.StartMonth.AddMonths(-1)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = s
	bad.FixedCOGSAllocation = "by_magic"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = s
	bad.ScenarioID = ""
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)
}

func TestTable_KeepsInsertionOrder(t *testing.T) {
	tbl := NewTable[CohortKey, int](3)
	m1, m2 := NewMonth(2025, 1), NewMonth(2025, 2)
	tbl.Put(CohortKey{Month: m1, SegmentID: "b"}, 1)
	tbl.Put(CohortKey{Month: m2, SegmentID: "a"}, 2)
	tbl.Put(CohortKey{Month: m1, SegmentID: "a"}, 3)
	tbl.Put(CohortKey{Month: m1, SegmentID: "b"}, 4)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []int{4, 2, 3}, tbl.Values())

	byMonth := GroupByMonth(tbl)
	assert.Equal(t, []int{4, 3}, byMonth[m1])
	assert.Equal(t, []int{2}, byMonth[m2])
}
