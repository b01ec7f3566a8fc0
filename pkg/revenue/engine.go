// Package revenue turns cohort state into subscription, usage and services
// revenue, then applies channel economics.
package revenue

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"saas-projection/pkg/models"
	"saas-projection/pkg/parallel"
)

var perThousand = decimal.NewFromInt(1000)

type Engine struct {
	prices   []models.PriceBookEntry
	skuTypes map[string]models.SKUType
	terms    map[string]models.ChannelTerms
	usage    map[models.Scope]models.UsageAssumption
	llm      map[string]models.UsageMonetization // by segment
	services map[models.Scope]models.ServicesAssumption
	log      *zap.Logger
}

func New(in *models.Inputs, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		skuTypes: make(map[string]models.SKUType, len(in.SKUTypes)),
		terms:    make(map[string]models.ChannelTerms, len(in.ChannelTerms)),
		usage:    make(map[models.Scope]models.UsageAssumption, len(in.UsageAssumptions)),
		llm:      make(map[string]models.UsageMonetization),
		services: make(map[models.Scope]models.ServicesAssumption, len(in.Services)),
		log:      log,
	}
	seen := make(map[string]bool, len(in.PriceBook))
	for _, p := range in.PriceBook {
		if !seen[p.SKUID] {
			seen[p.SKUID] = true
			e.prices = append(e.prices, p)
		}
	}
	for sku, t := range in.SKUTypes {
		e.skuTypes[sku] = t
	}
	for _, t := range in.ChannelTerms {
		if _, ok := e.terms[t.ChannelID]; !ok {
			e.terms[t.ChannelID] = t
		}
	}
	for _, u := range in.UsageAssumptions {
		k := models.Scope{ScenarioID: u.ScenarioID, SegmentID: u.SegmentID, ChannelID: u.ChannelID}
		if _, ok := e.usage[k]; !ok {
			e.usage[k] = u
		}
	}
	for _, m := range in.UsageMonetization {
		if m.SKUID != models.UsageLLMSKU {
			continue
		}
		if _, ok := e.llm[m.SegmentID]; !ok {
			e.llm[m.SegmentID] = m
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

func (e *Engine) skuType(sku string) models.SKUType {
	if t, ok := e.skuTypes[sku]; ok {
		return t
	}
	return models.SKUBase
}

// units picks the billable count for p. ok is false for SKUs that are not
// subscription priced.
func (e *Engine) units(p models.PriceBookEntry, st models.CohortState) (decimal.Decimal, bool) {
	switch p.PriceModel {
	case models.PricePerTenant:
		if e.skuType(p.SKUID) == models.SKUBase {
			return st.ActiveLogos, true
		}
		return st.PackAttachments[p.SKUID], true
	case models.PricePerSeat:
		return st.TotalSeats, true
	case models.PricePerEnv:
		return st.TotalEnvs, true
	}
	return decimal.Zero, false
}

// SubscriptionMRR returns base, pack and addon MRR, each rounded to cents.
func (e *Engine) SubscriptionMRR(st models.CohortState) (base, packs, addons decimal.Decimal) {
	for _, p := range e.prices {
		units, ok := e.units(p, st)
		if !ok {
			continue
		}
		monthly := p.ListPrice
		if p.BillingPeriod == models.BillingAnnual {
			monthly = monthly.Div(models.Twelve)
		}
		mrr := units.Mul(monthly).Mul(models.One.Sub(p.DefaultDiscountPct))
		switch e.skuType(p.SKUID) {
		case models.SKUBase:
			base = base.Add(mrr)
		case models.SKUPack:
			packs = packs.Add(mrr)
		case models.SKUAddon:
			addons = addons.Add(mrr)
		}
	}
	return models.Round(base), models.Round(packs), models.Round(addons)
}

// UsageRevenue prices LLM token overage; overage price is per 1k tokens.
func (e *Engine) UsageRevenue(st models.CohortState) decimal.Decimal {
	u, ok := e.usage[st.Key.Scope()]
	if !ok {
		return decimal.Zero
	}
	mon, ok := e.llm[st.Key.SegmentID]
	if !ok {
		return decimal.Zero
	}
	tokens := st.ActiveLogos.Mul(u.TokensPerTenantM)
	included := st.ActiveLogos.Mul(mon.IncludedUnitsPerTenantM)
	overage := decimal.Max(tokens.Sub(included), decimal.Zero)
	return models.Round(overage.Mul(mon.OverageTakeRate).Mul(mon.OveragePricePerUnit).Div(perThousand))
}

// ServicesRevenue returns implementation fees on new logos and the advisory
// retainer on active logos.
func (e *Engine) ServicesRevenue(st models.CohortState) (impl, advisory decimal.Decimal) {
	s, ok := e.services[st.Key.Scope()]
	if !ok {
		return decimal.Zero, decimal.Zero
	}
	return models.Round(st.NewLogos.Mul(s.ImplFeePerNewLogo)), models.Round(st.ActiveLogos.Mul(s.AdvisoryFeeM))
}

// ApplyChannel splits gross revenue by the channel's model. Resale discounts
// reduce net revenue; revshare and referral fees accrue a payout and leave net
// revenue at gross.
func (e *Engine) ApplyChannel(gross decimal.Decimal, channelID string) (discount, payout, net decimal.Decimal) {
	t, ok := e.terms[channelID]
	if !ok {
		return decimal.Zero, decimal.Zero, gross
	}
	switch t.Model {
	case models.ChannelResaleDiscount:
		discount = models.Round(gross.Mul(t.ResaleDiscountPct))
	case models.ChannelRevshare:
		payout = models.Round(gross.Mul(t.RevsharePct))
	case models.ChannelReferralFee:
		payout = models.Round(gross.Mul(t.ReferralFeePct))
	}
	return discount, payout, gross.Sub(discount)
}

func (e *Engine) Breakdown(st models.CohortState) models.RevenueBreakdown {
	base, packs, addons := e.SubscriptionMRR(st)
	mrr := base.Add(packs).Add(addons)
	usage := e.UsageRevenue(st)
	impl, advisory := e.ServicesRevenue(st)
	services := impl.Add(advisory)
	gross := mrr.Add(usage).Add(services)
	discount, payout, net := e.ApplyChannel(gross, st.Key.ChannelID)

	return models.RevenueBreakdown{
		Key:              st.Key,
		MRRBase:          base,
		MRRPacks:         packs,
		MRRAddons:        addons,
		MRRTotal:         mrr,
		ARR:              mrr.Mul(models.Twelve),
		UsageRevenue:     usage,
		ServicesImpl:     impl,
		ServicesAdvisory: advisory,
		ServicesTotal:    services,
		GrossRevenue:     gross,
		ChannelDiscount:  discount,
		ChannelPayout:    payout,
		NetRevenue:       net,
	}
}

// Calculate computes every cohort key in parallel; the result keeps the
// cohort table's key order.
func (e *Engine) Calculate(ctx context.Context, cohorts *models.CohortTable) (*models.RevenueTable, error) {
	rows := make([]models.RevenueBreakdown, cohorts.Len())
	err := parallel.ForEach(ctx, len(rows), func(i int) error {
		rows[i] = e.Breakdown(cohorts.Rows[cohorts.Keys[i]])
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := models.NewTable[models.CohortKey, models.RevenueBreakdown](len(rows))
	for _, r := range rows {
		out.Put(r.Key, r)
	}
	e.log.Debug("revenue computed", zap.Int("keys", out.Len()))
	return out, nil
}
