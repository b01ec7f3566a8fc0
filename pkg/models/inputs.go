package models

import "github.com/shopspring/decimal"

/*
INPUTS → assumption tables consumed by the pipeline. Rows are scoped by
scenario and, where relevant, by (segment, channel, month).
*/

type PriceModel string

const (
	PricePerTenant PriceModel = "per_tenant"
	PricePerSeat   PriceModel = "per_seat"
	PricePerEnv    PriceModel = "per_env"
	PricePerUsage  PriceModel = "per_usage"
	PriceFixed     PriceModel = "fixed"
)

type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingAnnual  BillingPeriod = "annual"
)

// SKUType classifies a SKU for MRR bucketing.
type SKUType string

const (
	SKUBase     SKUType = "base"
	SKUPack     SKUType = "pack"
	SKUAddon    SKUType = "addon"
	SKUUsage    SKUType = "usage"
	SKUServices SKUType = "services"
)

type ChannelModel string

const (
	ChannelResaleDiscount ChannelModel = "resale_discount"
	ChannelRevshare       ChannelModel = "revshare"
	ChannelReferralFee    ChannelModel = "referral_fee"
)

// Function is a headcount function.
type Function string

const (
	FunctionEng       Function = "eng"
	FunctionProduct   Function = "product"
	FunctionSales     Function = "sales"
	FunctionMarketing Function = "marketing"
	FunctionCS        Function = "cs"
	FunctionOps       Function = "ops"
	FunctionGA        Function = "g&a"
)

// Functions lists every headcount function in reporting order.
var Functions = []Function{
	FunctionEng, FunctionProduct, FunctionSales, FunctionMarketing,
	FunctionCS, FunctionOps, FunctionGA,
}

// UsageLLMSKU is the only usage driver monetized as overage.
const UsageLLMSKU = "usage_llm"

type FunnelAssumption struct {
	Month            Month           `yaml:"month"`
	ScenarioID       string          `yaml:"scenario_id"`
	SegmentID        string          `yaml:"segment_id"`
	ChannelID        string          `yaml:"channel_id"`
	Leads            int             `yaml:"leads"`
	LeadToSQL        decimal.Decimal `yaml:"lead_to_sql"`
	SQLToWin         decimal.Decimal `yaml:"sql_to_win"`
	SalesCycleMonths int             `yaml:"sales_cycle_months"`
}

type NewLogosOverride struct {
	Month      Month  `yaml:"month"`
	ScenarioID string `yaml:"scenario_id"`
	SegmentID  string `yaml:"segment_id"`
	ChannelID  string `yaml:"channel_id"`
	NewLogos   int    `yaml:"new_logos"`
}

type RetentionAssumption struct {
	ScenarioID    string          `yaml:"scenario_id"`
	SegmentID     string          `yaml:"segment_id"`
	ChannelID     string          `yaml:"channel_id"`
	LogoChurnM    decimal.Decimal `yaml:"logo_churn_m"`
	RevenueChurnM decimal.Decimal `yaml:"revenue_churn_m"`
	ExpansionM    decimal.Decimal `yaml:"expansion_m"`
}

type SeatsAndEnvs struct {
	ScenarioID          string          `yaml:"scenario_id"`
	SegmentID           string          `yaml:"segment_id"`
	ChannelID           string          `yaml:"channel_id"`
	SeatsPerTenantStart decimal.Decimal `yaml:"seats_per_tenant_start"`
	SeatsGrowthM        decimal.Decimal `yaml:"seats_growth_m"`
	EnvsPerTenantStart  decimal.Decimal `yaml:"envs_per_tenant_start"`
	EnvsGrowthM         decimal.Decimal `yaml:"envs_growth_m"`
}

// PackAttachRate is not scenario-scoped.
type PackAttachRate struct {
	SegmentID        string          `yaml:"segment_id"`
	ChannelID        string          `yaml:"channel_id"`
	SKUID            string          `yaml:"sku_id"`
	AttachRate       decimal.Decimal `yaml:"attach_rate"`
	AttachRampMonths int             `yaml:"attach_ramp_months"`
}

type PriceBookEntry struct {
	SKUID                   string          `yaml:"sku_id"`
	BillingPeriod           BillingPeriod   `yaml:"billing_period"`
	PriceModel              PriceModel      `yaml:"price_model"`
	ListPrice               decimal.Decimal `yaml:"list_price"`
	AnnualPrepayDiscountPct decimal.Decimal `yaml:"annual_prepay_discount_pct"`
	DefaultDiscountPct      decimal.Decimal `yaml:"default_discount_pct"`
}

type ChannelTerms struct {
	ChannelID         string          `yaml:"channel_id"`
	Model             ChannelModel    `yaml:"model"`
	ResaleDiscountPct decimal.Decimal `yaml:"resale_discount_pct"`
	RevsharePct       decimal.Decimal `yaml:"revshare_pct"`
	ReferralFeePct    decimal.Decimal `yaml:"referral_fee_pct"`
	PaymentTermsDays  int             `yaml:"payment_terms_days"`
}

type UsageAssumption struct {
	ScenarioID               string          `yaml:"scenario_id"`
	SegmentID                string          `yaml:"segment_id"`
	ChannelID                string          `yaml:"channel_id"`
	TokensPerTenantM         decimal.Decimal `yaml:"tokens_per_tenant_m"`
	Embed1kTokensPerTenantM  decimal.Decimal `yaml:"embed_1k_tokens_per_tenant_m"`
	ComputeHoursPerTenantM   decimal.Decimal `yaml:"compute_hours_per_tenant_m"`
	StorageGBPerTenantM      decimal.Decimal `yaml:"storage_gb_per_tenant_m"`
	SupportTicketsPerTenantM decimal.Decimal `yaml:"support_tickets_per_tenant_m"`
}

// UsageMonetization prices overage per (sku, segment); it is not scenario-scoped.
type UsageMonetization struct {
	SKUID                   string          `yaml:"sku_id"`
	SegmentID               string          `yaml:"segment_id"`
	IncludedUnitsPerTenantM decimal.Decimal `yaml:"included_units_per_tenant_m"`
	OveragePricePerUnit     decimal.Decimal `yaml:"overage_price_per_unit"`
	OverageTakeRate         decimal.Decimal `yaml:"overage_take_rate"`
}

type ServicesAssumption struct {
	ScenarioID        string          `yaml:"scenario_id"`
	SegmentID         string          `yaml:"segment_id"`
	ChannelID         string          `yaml:"channel_id"`
	ImplFeePerNewLogo decimal.Decimal `yaml:"impl_fee_per_new_logo"`
	ImplCOGSPct       decimal.Decimal `yaml:"impl_cogs_pct"`
	AdvisoryFeeM      decimal.Decimal `yaml:"advisory_fee_m"`
	AdvisoryCOGSPct   decimal.Decimal `yaml:"advisory_cogs_pct"`
}

type COGSUnitCosts struct {
	ScenarioID           string          `yaml:"scenario_id"`
	LLMCostPer1kTokens   decimal.Decimal `yaml:"llm_cost_per_1k_tokens"`
	EmbedCostPer1kTokens decimal.Decimal `yaml:"embed_cost_per_1k_tokens"`
	ComputeCostPerHour   decimal.Decimal `yaml:"compute_cost_per_hour"`
	StorageCostPerGBM    decimal.Decimal `yaml:"storage_cost_per_gb_m"`
	SupportCostPerTicket decimal.Decimal `yaml:"support_cost_per_ticket"`
	FixedPlatformCOGSM   decimal.Decimal `yaml:"fixed_platform_cogs_m"`
}

// HeadcountPlan is one hire event; Hires start in Month and ramp over RampMonths.
type HeadcountPlan struct {
	Month             Month           `yaml:"month"`
	ScenarioID        string          `yaml:"scenario_id"`
	Function          Function        `yaml:"function"`
	Hires             int             `yaml:"hires"`
	FullyLoadedAnnual decimal.Decimal `yaml:"fully_loaded_annual"`
	RampMonths        int             `yaml:"ramp_months"`
}

type OpexAssumption struct {
	Month               Month           `yaml:"month"`
	ScenarioID          string          `yaml:"scenario_id"`
	MarketingSpendM     decimal.Decimal `yaml:"marketing_spend_m"`
	ToolsAndSoftwareM   decimal.Decimal `yaml:"tools_and_software_m"`
	LegalAndAccountingM decimal.Decimal `yaml:"legal_and_accounting_m"`
	RentAndAdminM       decimal.Decimal `yaml:"rent_and_admin_m"`
	OtherOpexM          decimal.Decimal `yaml:"other_opex_m"`
}

type SalesCompAssumption struct {
	ScenarioID            string          `yaml:"scenario_id"`
	SegmentID             string          `yaml:"segment_id"`
	ChannelID             string          `yaml:"channel_id"`
	CommissionPctOfSubRev decimal.Decimal `yaml:"commission_pct_of_sub_rev"`
	CACPaidPerNewLogo     decimal.Decimal `yaml:"cac_paid_per_new_logo"`
}

type BillingCollections struct {
	ScenarioID       string          `yaml:"scenario_id"`
	BillInAdvancePct decimal.Decimal `yaml:"bill_in_advance_pct"`
	AnnualPrepaidMix decimal.Decimal `yaml:"annual_prepaid_mix"`
	DSODays          int             `yaml:"dso_days"`
	BadDebtPct       decimal.Decimal `yaml:"bad_debt_pct"`
	RefundsPct       decimal.Decimal `yaml:"refunds_pct"`
}

type Payables struct {
	ScenarioID string `yaml:"scenario_id"`
	DPODays    int    `yaml:"dpo_days"`
}

// Inputs bundles every table for one run.
type Inputs struct {
	ScenarioID string   `yaml:"scenario_id"`
	Segments   []string `yaml:"segments"`
	Channels   []string `yaml:"channels"`
	Months     []Month  `yaml:"months"`

	// SKUTypes classifies price-book SKUs; missing entries count as base.
	SKUTypes map[string]SKUType `yaml:"sku_types"`

	Funnel             []FunnelAssumption    `yaml:"funnel"`
	NewLogosOverrides  []NewLogosOverride    `yaml:"new_logos_overrides"`
	Retention          []RetentionAssumption `yaml:"retention"`
	SeatsAndEnvs       []SeatsAndEnvs        `yaml:"seats_and_envs"`
	PackAttachRates    []PackAttachRate      `yaml:"pack_attach_rates"`
	PriceBook          []PriceBookEntry      `yaml:"price_book"`
	ChannelTerms       []ChannelTerms        `yaml:"channel_terms"`
	UsageAssumptions   []UsageAssumption     `yaml:"usage_assumptions"`
	UsageMonetization  []UsageMonetization   `yaml:"usage_monetization"`
	Services           []ServicesAssumption  `yaml:"services"`
	COGSUnitCosts      []COGSUnitCosts       `yaml:"cogs_unit_costs"`
	HeadcountPlan      []HeadcountPlan       `yaml:"headcount_plan"`
	Opex               []OpexAssumption      `yaml:"opex"`
	SalesComp          []SalesCompAssumption `yaml:"sales_comp"`
	BillingCollections []BillingCollections  `yaml:"billing_collections"`
	Payables           []Payables            `yaml:"payables"`

	InitialCash               decimal.Decimal `yaml:"initial_cash"`
	InitialContributedCapital decimal.Decimal `yaml:"initial_contributed_capital"`
}

// SKUType returns the classification of sku, defaulting to base.
func (in *Inputs) SKUType(sku string) SKUType {
	if t, ok := in.SKUTypes[sku]; ok {
		return t
	}
	return SKUBase
}
