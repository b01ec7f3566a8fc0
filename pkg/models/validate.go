package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type checker struct {
	errs []error
}

func (c *checker) pct(table string, row int, field string, v decimal.Decimal) {
	if v.IsNegative() || v.GreaterThan(One) {
		c.errs = append(c.errs, fmt.Errorf("%w: %s[%d] %s=%s outside [0,1]", ErrInvalidInput, table, row, field, v))
	}
}

func (c *checker) nonNeg(table string, row int, field string, v decimal.Decimal) {
	if v.IsNegative() {
		c.errs = append(c.errs, fmt.Errorf("%w: %s[%d] %s=%s is negative", ErrInvalidInput, table, row, field, v))
	}
}

func (c *checker) nonNegInt(table string, row int, field string, v int) {
	c.nonNeg(table, row, field, decimal.NewFromInt(int64(v)))
}

// Validate checks rates are in [0,1] and counts are non-negative. All
// violations are reported together.
func (in *Inputs) Validate() error {
	c := &checker{}
	for i, r := range in.Funnel {
		c.nonNegInt("funnel", i, "leads", r.Leads)
		c.pct("funnel", i, "lead_to_sql", r.LeadToSQL)
		c.pct("funnel", i, "sql_to_win", r.SQLToWin)
	}
	for i, r := range in.NewLogosOverrides {
		c.nonNegInt("new_logos_overrides", i, "new_logos", r.NewLogos)
	}
	for i, r := range in.Retention {
		c.pct("retention", i, "logo_churn_m", r.LogoChurnM)
		c.pct("retention", i, "revenue_churn_m", r.RevenueChurnM)
		c.pct("retention", i, "expansion_m", r.ExpansionM)
	}
	for i, r := range in.SeatsAndEnvs {
		c.nonNeg("seats_and_envs", i, "seats_per_tenant_start", r.SeatsPerTenantStart)
		c.nonNeg("seats_and_envs", i, "envs_per_tenant_start", r.EnvsPerTenantStart)
	}
	for i, r := range in.PackAttachRates {
		c.pct("pack_attach_rates", i, "attach_rate", r.AttachRate)
		c.nonNegInt("pack_attach_rates", i, "attach_ramp_months", r.AttachRampMonths)
	}
	for i, r := range in.PriceBook {
		c.nonNeg("price_book", i, "list_price", r.ListPrice)
		c.pct("price_book", i, "annual_prepay_discount_pct", r.AnnualPrepayDiscountPct)
		c.pct("price_book", i, "default_discount_pct", r.DefaultDiscountPct)
	}
	for i, r := range in.ChannelTerms {
		c.pct("channel_terms", i, "resale_discount_pct", r.ResaleDiscountPct)
		c.pct("channel_terms", i, "revshare_pct", r.RevsharePct)
		c.pct("channel_terms", i, "referral_fee_pct", r.ReferralFeePct)
	}
	for i, r := range in.UsageMonetization {
		c.pct("usage_monetization", i, "overage_take_rate", r.OverageTakeRate)
		c.nonNeg("usage_monetization", i, "overage_price_per_unit", r.OveragePricePerUnit)
	}
	for i, r := range in.Services {
		c.pct("services", i, "impl_cogs_pct", r.ImplCOGSPct)
		c.pct("services", i, "advisory_cogs_pct", r.AdvisoryCOGSPct)
	}
	for i, r := range in.HeadcountPlan {
		c.nonNegInt("headcount_plan", i, "hires", r.Hires)
		c.nonNegInt("headcount_plan", i, "ramp_months", r.RampMonths)
		c.nonNeg("headcount_plan", i, "fully_loaded_annual", r.FullyLoadedAnnual)
	}
	for i, r := range in.SalesComp {
		c.pct("sales_comp", i, "commission_pct_of_sub_rev", r.CommissionPctOfSubRev)
	}
	for i, r := range in.BillingCollections {
		c.pct("billing_collections", i, "bill_in_advance_pct", r.BillInAdvancePct)
		c.pct("billing_collections", i, "annual_prepaid_mix", r.AnnualPrepaidMix)
		c.pct("billing_collections", i, "bad_debt_pct", r.BadDebtPct)
		c.pct("billing_collections", i, "refunds_pct", r.RefundsPct)
		c.nonNegInt("billing_collections", i, "dso_days", r.DSODays)
	}
	for i, r := range in.Payables {
		c.nonNegInt("payables", i, "dpo_days", r.DPODays)
	}
	return errors.Join(c.errs...)
}
