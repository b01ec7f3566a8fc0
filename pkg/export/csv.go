// Package export writes run outputs as one CSV file per table and renders a
// terminal summary.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"saas-projection/pkg/calculator"
	"saas-projection/pkg/models"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func keyCells(k models.CohortKey) []string {
	return []string{k.Month.String(), k.ScenarioID, k.SegmentID, k.ChannelID}
}

var keyHeader = []string{"month", "scenario_id", "segment_id", "channel_id"}

type sheet struct {
	name   string
	header []string
	rows   [][]string
}

func cohortSheet(t *models.CohortTable) sheet {
	s := sheet{name: "cohorts", header: append(append([]string{}, keyHeader...),
		"active_logos", "new_logos", "churned_logos", "retained_logos",
		"avg_seats_per_tenant", "avg_envs_per_tenant", "total_seats", "total_envs", "pack_attachments")}
	for _, st := range t.Values() {
		packs := make([]string, 0, len(st.PackAttachments))
		for sku, n := range st.PackAttachments {
			packs = append(packs, sku+"="+n.String())
		}
		sort.Strings(packs)
		s.rows = append(s.rows, append(keyCells(st.Key),
			money(st.ActiveLogos), money(st.NewLogos), money(st.ChurnedLogos), money(st.RetainedLogos),
			money(st.AvgSeatsPerTenant), money(st.AvgEnvsPerTenant), money(st.TotalSeats), money(st.TotalEnvs),
			strings.Join(packs, ";")))
	}
	return s
}

func revenueSheet(t *models.RevenueTable) sheet {
	s := sheet{name: "revenue", header: append(append([]string{}, keyHeader...),
		"mrr_base", "mrr_packs", "mrr_addons", "mrr_total", "arr", "usage_revenue",
		"services_impl", "services_advisory", "services_total", "gross_revenue",
		"channel_discount", "channel_payout", "net_revenue")}
	for _, r := range t.Values() {
		s.rows = append(s.rows, append(keyCells(r.Key),
			money(r.MRRBase), money(r.MRRPacks), money(r.MRRAddons), money(r.MRRTotal), money(r.ARR),
			money(r.UsageRevenue), money(r.ServicesImpl), money(r.ServicesAdvisory), money(r.ServicesTotal),
			money(r.GrossRevenue), money(r.ChannelDiscount), money(r.ChannelPayout), money(r.NetRevenue)))
	}
	return s
}

func cogsSheet(t *models.COGSTable) sheet {
	s := sheet{name: "cogs", header: append(append([]string{}, keyHeader...),
		"llm_tokens", "embeddings", "compute", "storage", "support", "variable_total",
		"platform_fixed", "third_party", "fixed_total", "services_impl", "services_advisory",
		"services_total", "total", "channel_payout")}
	for _, c := range t.Values() {
		s.rows = append(s.rows, append(keyCells(c.Key),
			money(c.LLMTokens), money(c.Embeddings), money(c.Compute), money(c.Storage), money(c.Support),
			money(c.VariableTotal), money(c.PlatformFixed), money(c.ThirdParty), money(c.FixedTotal),
			money(c.ServicesImpl), money(c.ServicesAdvisory), money(c.ServicesTotal), money(c.Total),
			money(c.ChannelPayout)))
	}
	return s
}

func opexSheet(t *models.OpexTable) sheet {
	header := []string{"month", "scenario_id"}
	for _, f := range models.Functions {
		header = append(header, "headcount_"+string(f))
	}
	header = append(header, "headcount_total", "commissions", "cac_payments", "sales_comp_total",
		"marketing_spend", "tools_and_software", "legal_and_accounting", "rent_and_admin", "other_opex",
		"non_headcount_total", "total")
	s := sheet{name: "opex", header: header}
	for _, o := range t.Values() {
		row := []string{o.Month.String(), o.ScenarioID}
		for _, f := range models.Functions {
			row = append(row, money(o.HeadcountCost(f)))
		}
		row = append(row, money(o.HeadcountTotal), money(o.Commissions), money(o.CACPayments),
			money(o.SalesCompTotal), money(o.MarketingSpend), money(o.ToolsAndSoftware),
			money(o.LegalAndAccounting), money(o.RentAndAdmin), money(o.OtherOpex),
			money(o.NonHeadcountTotal), money(o.Total))
		s.rows = append(s.rows, row)
	}
	return s
}

func pnlSheet(t *models.PnLTable) sheet {
	s := sheet{name: "pnl", header: []string{"month", "scenario_id",
		"revenue_subscriptions", "revenue_usage", "revenue_services", "revenue_total",
		"channel_discounts", "net_revenue", "cogs_variable", "cogs_fixed", "cogs_services",
		"cogs_total", "channel_payouts", "gross_profit", "gross_margin_pct",
		"opex_headcount", "opex_sales_comp", "opex_other", "opex_total", "ebitda", "ebitda_margin_pct"}}
	for _, p := range t.Values() {
		s.rows = append(s.rows, []string{p.Month.String(), p.ScenarioID,
			money(p.RevenueSubscriptions), money(p.RevenueUsage), money(p.RevenueServices), money(p.RevenueTotal),
			money(p.ChannelDiscounts), money(p.NetRevenue), money(p.COGSVariable), money(p.COGSFixed),
			money(p.COGSServices), money(p.COGSTotal), money(p.ChannelPayouts), money(p.GrossProfit),
			money(p.GrossMarginPct), money(p.OpexHeadcount), money(p.OpexSalesComp), money(p.OpexOther),
			money(p.OpexTotal), money(p.EBITDA), money(p.EBITDAMarginPct)})
	}
	return s
}

func cashFlowSheet(t *models.CashFlowTable) sheet {
	s := sheet{name: "cashflow", header: []string{"month", "scenario_id", "cash_begin", "collections",
		"disbursements_cogs", "disbursements_opex", "disbursements_channel", "disbursements_total",
		"change_in_ar", "change_in_deferred", "change_in_ap", "cash_from_operations", "cash_end"}}
	for _, c := range t.Values() {
		s.rows = append(s.rows, []string{c.Month.String(), c.ScenarioID, money(c.CashBegin),
			money(c.Collections), money(c.DisbursementsCOGS), money(c.DisbursementsOpex),
			money(c.DisbursementsChannel), money(c.DisbursementsTotal), money(c.ChangeInAR),
			money(c.ChangeInDeferred), money(c.ChangeInAP), money(c.CashFromOperations), money(c.CashEnd)})
	}
	return s
}

func balanceSheet(t *models.BalanceTable) sheet {
	s := sheet{name: "balance_sheet", header: []string{"month", "scenario_id", "cash", "accounts_receivable",
		"prepaid_expenses", "total_assets", "accounts_payable", "accrued_expenses", "deferred_revenue",
		"total_liabilities", "contributed_capital", "retained_earnings", "total_equity", "plug_adjustment"}}
	for _, b := range t.Values() {
		s.rows = append(s.rows, []string{b.Month.String(), b.ScenarioID, money(b.Cash),
			money(b.AccountsReceivable), money(b.PrepaidExpenses), money(b.TotalAssets),
			money(b.AccountsPayable), money(b.AccruedExpenses), money(b.DeferredRevenue),
			money(b.TotalLiabilities), money(b.ContributedCapital), money(b.RetainedEarnings),
			money(b.TotalEquity), money(b.PlugAdjustment)})
	}
	return s
}

func unitEconomicsSheet(rows []models.UnitEconomics) sheet {
	s := sheet{name: "unit_economics", header: append(append([]string{}, keyHeader...),
		"active_logos", "new_logos", "churned_logos", "mrr", "arr", "arpa",
		"gross_margin_pct", "cac", "ltv", "payback_months")}
	for _, u := range rows {
		s.rows = append(s.rows, append(keyCells(u.Key),
			money(u.ActiveLogos), money(u.NewLogos), money(u.ChurnedLogos), money(u.MRR), money(u.ARR),
			money(u.ARPA), money(u.GrossMarginPct), money(u.CAC), money(u.LTV), money(u.PaybackMonths)))
	}
	return s
}

func validationSheet(r models.ValidationReport) sheet {
	s := sheet{name: "validation", header: []string{"gate_id", "severity", "passed", "message", "context"}}
	for _, res := range r.Results {
		ctx := make([]string, 0, len(res.Context))
		for k, v := range res.Context {
			ctx = append(ctx, k+"="+v)
		}
		sort.Strings(ctx)
		s.rows = append(s.rows, []string{res.GateID, string(res.Severity),
			fmt.Sprint(res.Passed), res.Message, strings.Join(ctx, ";")})
	}
	return s
}

func (s sheet) write(dir string) (string, error) {
	path := filepath.Join(dir, s.name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.header); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(s.rows); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

// WriteCSV writes every output table into dir, creating it if needed, and
// returns the written paths in table order. Unit economics is skipped when
// the run did not compute it.
func WriteCSV(dir string, out *calculator.Outputs) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	sheets := []sheet{
		cohortSheet(out.Cohorts),
		revenueSheet(out.Revenue),
		cogsSheet(out.COGS),
		opexSheet(out.Opex),
		pnlSheet(out.PnL),
		cashFlowSheet(out.CashFlow),
		balanceSheet(out.BalanceSheet),
	}
	if out.UnitEconomics != nil {
		sheets = append(sheets, unitEconomicsSheet(out.UnitEconomics))
	}
	sheets = append(sheets, validationSheet(out.Validation))

	paths := make([]string, 0, len(sheets))
	for _, s := range sheets {
		p, err := s.write(dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
