package database

import (
	"github.com/shopspring/decimal"

	"saas-projection/pkg/models"
)

const (
	colID    = "VARCHAR(64) NOT NULL"
	colMonth = "CHAR(7) NOT NULL"
	colMoney = "DECIMAL(20,8) NOT NULL DEFAULT 0"
	colInt   = "INTEGER NOT NULL DEFAULT 0"
	colEnum  = "VARCHAR(32) NOT NULL"
)

type column struct {
	name string
	typ  string
}

// table maps one row type onto one SQL table. args and dest must list the
// columns in the same order as cols.
type table[T any] struct {
	name string
	// scoped tables carry scenario_id as their first column and are
	// filtered by it on load.
	scoped bool
	cols   []column
	args   func(T) []any
	dest   func(*T) []any
}

func (t table[T]) columnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

type scenarioRow struct {
	ScenarioID         string
	InitialCash        decimal.Decimal
	ContributedCapital decimal.Decimal
}

type skuTypeRow struct {
	SKUID string
	Type  models.SKUType
}

var scenarios = table[scenarioRow]{
	name:   "scenarios",
	scoped: true,
	cols:   []column{{"scenario_id", colID}, {"initial_cash", colMoney}, {"initial_contributed_capital", colMoney}},
	args:   func(r scenarioRow) []any { return []any{r.ScenarioID, r.InitialCash, r.ContributedCapital} },
	dest:   func(r *scenarioRow) []any { return []any{&r.ScenarioID, &r.InitialCash, &r.ContributedCapital} },
}

var segments = table[string]{
	name: "segments",
	cols: []column{{"segment_id", colID}},
	args: func(s string) []any { return []any{s} },
	dest: func(s *string) []any { return []any{s} },
}

var channels = table[string]{
	name: "channels",
	cols: []column{{"channel_id", colID}},
	args: func(s string) []any { return []any{s} },
	dest: func(s *string) []any { return []any{s} },
}

var skuTypes = table[skuTypeRow]{
	name: "sku_types",
	cols: []column{{"sku_id", colID}, {"sku_type", colEnum}},
	args: func(r skuTypeRow) []any { return []any{r.SKUID, r.Type} },
	dest: func(r *skuTypeRow) []any { return []any{&r.SKUID, &r.Type} },
}

var funnel = table[models.FunnelAssumption]{
	name:   "funnel_assumptions",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"month", colMonth}, {"segment_id", colID}, {"channel_id", colID},
		{"leads", colInt}, {"lead_to_sql", colMoney}, {"sql_to_win", colMoney}, {"sales_cycle_months", colInt}},
	args: func(r models.FunnelAssumption) []any {
		return []any{r.ScenarioID, r.Month, r.SegmentID, r.ChannelID, r.Leads, r.LeadToSQL, r.SQLToWin, r.SalesCycleMonths}
	},
	dest: func(r *models.FunnelAssumption) []any {
		return []any{&r.ScenarioID, &r.Month, &r.SegmentID, &r.ChannelID, &r.Leads, &r.LeadToSQL, &r.SQLToWin, &r.SalesCycleMonths}
	},
}

var overrides = table[models.NewLogosOverride]{
	name:   "new_logos_overrides",
	scoped: true,
	cols:   []column{{"scenario_id", colID}, {"month", colMonth}, {"segment_id", colID}, {"channel_id", colID}, {"new_logos", colInt}},
	args: func(r models.NewLogosOverride) []any {
		return []any{r.ScenarioID, r.Month, r.SegmentID, r.ChannelID, r.NewLogos}
	},
	dest: func(r *models.NewLogosOverride) []any {
		return []any{&r.ScenarioID, &r.Month, &r.SegmentID, &r.ChannelID, &r.NewLogos}
	},
}

var retention = table[models.RetentionAssumption]{
	name:   "retention_assumptions",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"segment_id", colID}, {"channel_id", colID},
		{"logo_churn_m", colMoney}, {"revenue_churn_m", colMoney}, {"expansion_m", colMoney}},
	args: func(r models.RetentionAssumption) []any {
		return []any{r.ScenarioID, r.SegmentID, r.ChannelID, r.LogoChurnM, r.RevenueChurnM, r.ExpansionM}
	},
	dest: func(r *models.RetentionAssumption) []any {
		return []any{&r.ScenarioID, &r.SegmentID, &r.ChannelID, &r.LogoChurnM, &r.RevenueChurnM, &r.ExpansionM}
	},
}

var seatsAndEnvs = table[models.SeatsAndEnvs]{
	name:   "seats_and_envs",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"segment_id", colID}, {"channel_id", colID},
		{"seats_per_tenant_start", colMoney}, {"seats_growth_m", colMoney}, {"envs_per_tenant_start", colMoney}, {"envs_growth_m", colMoney}},
	args: func(r models.SeatsAndEnvs) []any {
		return []any{r.ScenarioID, r.SegmentID, r.ChannelID, r.SeatsPerTenantStart, r.SeatsGrowthM, r.EnvsPerTenantStart, r.EnvsGrowthM}
	},
	dest: func(r *models.SeatsAndEnvs) []any {
		return []any{&r.ScenarioID, &r.SegmentID, &r.ChannelID, &r.SeatsPerTenantStart, &r.SeatsGrowthM, &r.EnvsPerTenantStart, &r.EnvsGrowthM}
	},
}

var packAttach = table[models.PackAttachRate]{
	name: "pack_attach_rates",
	cols: []column{{"segment_id", colID}, {"channel_id", colID}, {"sku_id", colID}, {"attach_rate", colMoney}, {"attach_ramp_months", colInt}},
	args: func(r models.PackAttachRate) []any {
		return []any{r.SegmentID, r.ChannelID, r.SKUID, r.AttachRate, r.AttachRampMonths}
	},
	dest: func(r *models.PackAttachRate) []any {
		return []any{&r.SegmentID, &r.ChannelID, &r.SKUID, &r.AttachRate, &r.AttachRampMonths}
	},
}

var priceBook = table[models.PriceBookEntry]{
	name: "price_book",
	cols: []column{{"sku_id", colID}, {"billing_period", colEnum}, {"price_model", colEnum},
		{"list_price", colMoney}, {"annual_prepay_discount_pct", colMoney}, {"default_discount_pct", colMoney}},
	args: func(r models.PriceBookEntry) []any {
		return []any{r.SKUID, r.BillingPeriod, r.PriceModel, r.ListPrice, r.AnnualPrepayDiscountPct, r.DefaultDiscountPct}
	},
	dest: func(r *models.PriceBookEntry) []any {
		return []any{&r.SKUID, &r.BillingPeriod, &r.PriceModel, &r.ListPrice, &r.AnnualPrepayDiscountPct, &r.DefaultDiscountPct}
	},
}

var channelTerms = table[models.ChannelTerms]{
	name: "channel_terms",
	cols: []column{{"channel_id", colID}, {"model", colEnum}, {"resale_discount_pct", colMoney},
		{"revshare_pct", colMoney}, {"referral_fee_pct", colMoney}, {"payment_terms_days", colInt}},
	args: func(r models.ChannelTerms) []any {
		return []any{r.ChannelID, r.Model, r.ResaleDiscountPct, r.RevsharePct, r.ReferralFeePct, r.PaymentTermsDays}
	},
	dest: func(r *models.ChannelTerms) []any {
		return []any{&r.ChannelID, &r.Model, &r.ResaleDiscountPct, &r.RevsharePct, &r.ReferralFeePct, &r.PaymentTermsDays}
	},
}

var usage = table[models.UsageAssumption]{
	name:   "usage_assumptions",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"segment_id", colID}, {"channel_id", colID},
		{"tokens_per_tenant_m", colMoney}, {"embed_1k_tokens_per_tenant_m", colMoney}, {"compute_hours_per_tenant_m", colMoney},
		{"storage_gb_per_tenant_m", colMoney}, {"support_tickets_per_tenant_m", colMoney}},
	args: func(r models.UsageAssumption) []any {
		return []any{r.ScenarioID, r.SegmentID, r.ChannelID, r.TokensPerTenantM, r.Embed1kTokensPerTenantM,
			r.ComputeHoursPerTenantM, r.StorageGBPerTenantM, r.SupportTicketsPerTenantM}
	},
	dest: func(r *models.UsageAssumption) []any {
		return []any{&r.ScenarioID, &r.SegmentID, &r.ChannelID, &r.TokensPerTenantM, &r.Embed1kTokensPerTenantM,
			&r.ComputeHoursPerTenantM, &r.StorageGBPerTenantM, &r.SupportTicketsPerTenantM}
	},
}

var usageMonetization = table[models.UsageMonetization]{
	name: "usage_monetization",
	cols: []column{{"sku_id", colID}, {"segment_id", colID}, {"included_units_per_tenant_m", colMoney},
		{"overage_price_per_unit", colMoney}, {"overage_take_rate", colMoney}},
	args: func(r models.UsageMonetization) []any {
		return []any{r.SKUID, r.SegmentID, r.IncludedUnitsPerTenantM, r.OveragePricePerUnit, r.OverageTakeRate}
	},
	dest: func(r *models.UsageMonetization) []any {
		return []any{&r.SKUID, &r.SegmentID, &r.IncludedUnitsPerTenantM, &r.OveragePricePerUnit, &r.OverageTakeRate}
	},
}

var services = table[models.ServicesAssumption]{
	name:   "services_assumptions",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"segment_id", colID}, {"channel_id", colID},
		{"impl_fee_per_new_logo", colMoney}, {"impl_cogs_pct", colMoney}, {"advisory_fee_m", colMoney}, {"advisory_cogs_pct", colMoney}},
	args: func(r models.ServicesAssumption) []any {
		return []any{r.ScenarioID, r.SegmentID, r.ChannelID, r.ImplFeePerNewLogo, r.ImplCOGSPct, r.AdvisoryFeeM, r.AdvisoryCOGSPct}
	},
	dest: func(r *models.ServicesAssumption) []any {
		return []any{&r.ScenarioID, &r.SegmentID, &r.ChannelID, &r.ImplFeePerNewLogo, &r.ImplCOGSPct, &r.AdvisoryFeeM, &r.AdvisoryCOGSPct}
	},
}

var cogsUnitCosts = table[models.COGSUnitCosts]{
	name:   "cogs_unit_costs",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"llm_cost_per_1k_tokens", colMoney}, {"embed_cost_per_1k_tokens", colMoney},
		{"compute_cost_per_hour", colMoney}, {"storage_cost_per_gb_m", colMoney}, {"support_cost_per_ticket", colMoney},
		{"fixed_platform_cogs_m", colMoney}},
	args: func(r models.COGSUnitCosts) []any {
		return []any{r.ScenarioID, r.LLMCostPer1kTokens, r.EmbedCostPer1kTokens, r.ComputeCostPerHour,
			r.StorageCostPerGBM, r.SupportCostPerTicket, r.FixedPlatformCOGSM}
	},
	dest: func(r *models.COGSUnitCosts) []any {
		return []any{&r.ScenarioID, &r.LLMCostPer1kTokens, &r.EmbedCostPer1kTokens, &r.ComputeCostPerHour,
			&r.StorageCostPerGBM, &r.SupportCostPerTicket, &r.FixedPlatformCOGSM}
	},
}

var headcount = table[models.HeadcountPlan]{
	name:   "headcount_plan",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"month", colMonth}, {"function", colEnum},
		{"hires", colInt}, {"fully_loaded_annual", colMoney}, {"ramp_months", colInt}},
	args: func(r models.HeadcountPlan) []any {
		return []any{r.ScenarioID, r.Month, r.Function, r.Hires, r.FullyLoadedAnnual, r.RampMonths}
	},
	dest: func(r *models.HeadcountPlan) []any {
		return []any{&r.ScenarioID, &r.Month, &r.Function, &r.Hires, &r.FullyLoadedAnnual, &r.RampMonths}
	},
}

var opexSpend = table[models.OpexAssumption]{
	name:   "opex_assumptions",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"month", colMonth}, {"marketing_spend_m", colMoney},
		{"tools_and_software_m", colMoney}, {"legal_and_accounting_m", colMoney}, {"rent_and_admin_m", colMoney},
		{"other_opex_m", colMoney}},
	args: func(r models.OpexAssumption) []any {
		return []any{r.ScenarioID, r.Month, r.MarketingSpendM, r.ToolsAndSoftwareM, r.LegalAndAccountingM, r.RentAndAdminM, r.OtherOpexM}
	},
	dest: func(r *models.OpexAssumption) []any {
		return []any{&r.ScenarioID, &r.Month, &r.MarketingSpendM, &r.ToolsAndSoftwareM, &r.LegalAndAccountingM, &r.RentAndAdminM, &r.OtherOpexM}
	},
}

var salesComp = table[models.SalesCompAssumption]{
	name:   "sales_comp",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"segment_id", colID}, {"channel_id", colID},
		{"commission_pct_of_sub_rev", colMoney}, {"cac_paid_per_new_logo", colMoney}},
	args: func(r models.SalesCompAssumption) []any {
		return []any{r.ScenarioID, r.SegmentID, r.ChannelID, r.CommissionPctOfSubRev, r.CACPaidPerNewLogo}
	},
	dest: func(r *models.SalesCompAssumption) []any {
		return []any{&r.ScenarioID, &r.SegmentID, &r.ChannelID, &r.CommissionPctOfSubRev, &r.CACPaidPerNewLogo}
	},
}

var billing = table[models.BillingCollections]{
	name:   "billing_collections",
	scoped: true,
	cols: []column{{"scenario_id", colID}, {"bill_in_advance_pct", colMoney}, {"annual_prepaid_mix", colMoney},
		{"dso_days", colInt}, {"bad_debt_pct", colMoney}, {"refunds_pct", colMoney}},
	args: func(r models.BillingCollections) []any {
		return []any{r.ScenarioID, r.BillInAdvancePct, r.AnnualPrepaidMix, r.DSODays, r.BadDebtPct, r.RefundsPct}
	},
	dest: func(r *models.BillingCollections) []any {
		return []any{&r.ScenarioID, &r.BillInAdvancePct, &r.AnnualPrepaidMix, &r.DSODays, &r.BadDebtPct, &r.RefundsPct}
	},
}

var payables = table[models.Payables]{
	name:   "payables",
	scoped: true,
	cols:   []column{{"scenario_id", colID}, {"dpo_days", colInt}},
	args:   func(r models.Payables) []any { return []any{r.ScenarioID, r.DPODays} },
	dest:   func(r *models.Payables) []any { return []any{&r.ScenarioID, &r.DPODays} },
}
