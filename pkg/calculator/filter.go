package calculator

import (
	"fmt"

	"saas-projection/pkg/models"
)

func inWindow(m models.Month, s models.RunSettings) bool {
	return !m.Before(s.StartMonth) && !m.After(s.EndMonth)
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyRunSettings returns a copy of in restricted to the settings' scenario
// and month window. Price book, channel terms, pack attach rates and usage
// monetization are shared across scenarios and pass through unchanged. Hires
// before the window are kept since they are still on payroll. When in.Months
// is empty the whole window is projected.
func ApplyRunSettings(in *models.Inputs, s models.RunSettings) (*models.Inputs, error) {
	out := *in
	out.ScenarioID = s.ScenarioID
	sc := s.ScenarioID

	if len(in.Months) == 0 {
		out.Months = models.MonthsBetweenInclusive(s.StartMonth, s.EndMonth)
	} else {
		out.Months = filter(in.Months, func(m models.Month) bool { return inWindow(m, s) })
	}
	if len(out.Months) == 0 {
		return nil, fmt.Errorf("%w: no months between %s and %s", models.ErrInvalidInput, s.StartMonth, s.EndMonth)
	}

	out.Funnel = filter(in.Funnel, func(r models.FunnelAssumption) bool {
		return r.ScenarioID == sc && inWindow(r.Month, s)
	})
	out.NewLogosOverrides = filter(in.NewLogosOverrides, func(r models.NewLogosOverride) bool {
		return r.ScenarioID == sc && inWindow(r.Month, s)
	})
	out.HeadcountPlan = filter(in.HeadcountPlan, func(r models.HeadcountPlan) bool {
		return r.ScenarioID == sc && !r.Month.After(s.EndMonth)
	})
	out.Opex = filter(in.Opex, func(r models.OpexAssumption) bool {
		return r.ScenarioID == sc && inWindow(r.Month, s)
	})
	out.Retention = filter(in.Retention, func(r models.RetentionAssumption) bool { return r.ScenarioID == sc })
	out.SeatsAndEnvs = filter(in.SeatsAndEnvs, func(r models.SeatsAndEnvs) bool { return r.ScenarioID == sc })
	out.UsageAssumptions = filter(in.UsageAssumptions, func(r models.UsageAssumption) bool { return r.ScenarioID == sc })
	out.Services = filter(in.Services, func(r models.ServicesAssumption) bool { return r.ScenarioID == sc })
	out.COGSUnitCosts = filter(in.COGSUnitCosts, func(r models.COGSUnitCosts) bool { return r.ScenarioID == sc })
	out.SalesComp = filter(in.SalesComp, func(r models.SalesCompAssumption) bool { return r.ScenarioID == sc })
	out.BillingCollections = filter(in.BillingCollections, func(r models.BillingCollections) bool { return r.ScenarioID == sc })
	out.Payables = filter(in.Payables, func(r models.Payables) bool { return r.ScenarioID == sc })
	return &out, nil
}
