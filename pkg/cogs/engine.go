// Package cogs computes cost of goods sold per cohort key: usage-driven
// variable cost, an allocated share of the fixed platform baseline, and
// services delivery cost.
package cogs

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"saas-projection/pkg/models"
	"saas-projection/pkg/parallel"
)

var perThousand = decimal.NewFromInt(1000)

type Engine struct {
	unitCosts  map[string]models.COGSUnitCosts // by scenario
	usage      map[models.Scope]models.UsageAssumption
	services   map[models.Scope]models.ServicesAssumption
	allocation models.FixedCOGSAllocation
	log        *zap.Logger
}

type Options struct {
	Allocation models.FixedCOGSAllocation
	Logger     *zap.Logger
}

func New(in *models.Inputs, opts Options) *Engine {
	e := &Engine{
		unitCosts:  make(map[string]models.COGSUnitCosts, len(in.COGSUnitCosts)),
		usage:      make(map[models.Scope]models.UsageAssumption, len(in.UsageAssumptions)),
		services:   make(map[models.Scope]models.ServicesAssumption, len(in.Services)),
		allocation: opts.Allocation,
		log:        opts.Logger,
	}
	if e.allocation == "" {
		e.allocation = models.AllocateByActiveLogos
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	for _, c := range in.COGSUnitCosts {
		if _, ok := e.unitCosts[c.ScenarioID]; !ok {
			e.unitCosts[c.ScenarioID] = c
		}
	}
	for _, u := range in.UsageAssumptions {
		k := models.Scope{ScenarioID: u.ScenarioID, SegmentID: u.SegmentID, ChannelID: u.ChannelID}
		if _, ok := e.usage[k]; !ok {
			e.usage[k] = u
		}
	}
	for _, s := range in.Services {
		k := models.Scope{ScenarioID: s.ScenarioID, SegmentID: s.SegmentID, ChannelID: s.ChannelID}
		if _, ok := e.services[k]; !ok {
			e.services[k] = s
		}
	}
	return e
}

// Variable holds the five usage-driven cost lines.
type Variable struct {
	LLMTokens  decimal.Decimal
	Embeddings decimal.Decimal
	Compute    decimal.Decimal
	Storage    decimal.Decimal
	Support    decimal.Decimal
}

func (v Variable) Total() decimal.Decimal {
	return decimal.Sum(v.LLMTokens, v.Embeddings, v.Compute, v.Storage, v.Support)
}

// VariableCost multiplies per-tenant usage by active logos and unit cost.
// Missing unit costs or usage rows give zero cost.
func (e *Engine) VariableCost(st models.CohortState) Variable {
	c, ok := e.unitCosts[st.Key.ScenarioID]
	if !ok {
		return Variable{}
	}
	u, ok := e.usage[st.Key.Scope()]
	if !ok {
		return Variable{}
	}
	a := st.ActiveLogos
	return Variable{
		LLMTokens:  models.Round(a.Mul(u.TokensPerTenantM).Div(perThousand).Mul(c.LLMCostPer1kTokens)),
		Embeddings: models.Round(a.Mul(u.Embed1kTokensPerTenantM).Mul(c.EmbedCostPer1kTokens)),
		Compute:    models.Round(a.Mul(u.ComputeHoursPerTenantM).Mul(c.ComputeCostPerHour)),
		Storage:    models.Round(a.Mul(u.StorageGBPerTenantM).Mul(c.StorageCostPerGBM)),
		Support:    models.Round(a.Mul(u.SupportTicketsPerTenantM).Mul(c.SupportCostPerTicket)),
	}
}

// FixedPlatform returns the scenario's monthly fixed platform baseline.
func (e *Engine) FixedPlatform(scenarioID string) decimal.Decimal {
	return e.unitCosts[scenarioID].FixedPlatformCOGSM
}

// ServicesCost applies delivery cost percentages to services revenue.
func (e *Engine) ServicesCost(rev models.RevenueBreakdown) (impl, advisory decimal.Decimal) {
	s, ok := e.services[rev.Key.Scope()]
	if !ok {
		return decimal.Zero, decimal.Zero
	}
	return models.Round(rev.ServicesImpl.Mul(s.ImplCOGSPct)), models.Round(rev.ServicesAdvisory.Mul(s.AdvisoryCOGSPct))
}

func (e *Engine) basis(st models.CohortState, rev models.RevenueBreakdown) decimal.Decimal {
	switch e.allocation {
	case models.AllocateByRevenue:
		return rev.GrossRevenue
	case models.AllocateFlatSplit:
		return models.One
	}
	return st.ActiveLogos
}

// Breakdown assembles one key's COGS given its fixed-cost share in [0,1].
func (e *Engine) Breakdown(st models.CohortState, rev models.RevenueBreakdown, share decimal.Decimal) models.COGSBreakdown {
	v := e.VariableCost(st)
	variable := v.Total()
	fixed := models.Round(e.FixedPlatform(st.Key.ScenarioID).Mul(share))
	impl, advisory := e.ServicesCost(rev)
	services := impl.Add(advisory)

	return models.COGSBreakdown{
		Key:              st.Key,
		LLMTokens:        v.LLMTokens,
		Embeddings:       v.Embeddings,
		Compute:          v.Compute,
		Storage:          v.Storage,
		Support:          v.Support,
		VariableTotal:    variable,
		PlatformFixed:    fixed,
		ThirdParty:       decimal.Zero,
		FixedTotal:       fixed,
		ServicesImpl:     impl,
		ServicesAdvisory: advisory,
		ServicesTotal:    services,
		Total:            variable.Add(fixed).Add(services),
		ChannelPayout:    rev.ChannelPayout,
	}
}

// Calculate first sums the allocation basis over every cohort key of the run,
// then computes each key in parallel. A key's fixed share is its basis over
// that run-wide total.
func (e *Engine) Calculate(ctx context.Context, cohorts *models.CohortTable, revenue *models.RevenueTable) (*models.COGSTable, error) {
	bases := make([]decimal.Decimal, cohorts.Len())
	var total decimal.Decimal
	for i, k := range cohorts.Keys {
		rev, ok := revenue.Get(k)
		if !ok {
			return nil, fmt.Errorf("cogs: no revenue for %s", k)
		}
		bases[i] = e.basis(cohorts.Rows[k], rev)
		total = total.Add(bases[i])
	}

	rows := make([]models.COGSBreakdown, len(bases))
	err := parallel.ForEach(ctx, len(rows), func(i int) error {
		k := cohorts.Keys[i]
		share := models.SafeDiv(bases[i], total)
		rows[i] = e.Breakdown(cohorts.Rows[k], revenue.Rows[k], share)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := models.NewTable[models.CohortKey, models.COGSBreakdown](len(rows))
	for _, r := range rows {
		out.Put(r.Key, r)
	}
	e.log.Debug("cogs computed", zap.Int("keys", out.Len()), zap.String("allocation", string(e.allocation)))
	return out, nil
}
