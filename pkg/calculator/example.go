package calculator

import (
	"github.com/shopspring/decimal"

	"saas-projection/pkg/models"
)

// ExampleInputs builds a 24-month demonstration scenario starting January 2025
// with two segments and two channels. It drives `run --example`.
func ExampleInputs() *models.Inputs {
	const scenario = "base"
	months := models.MonthsBetweenInclusive(models.NewMonth(2025, 1), models.NewMonth(2026, 12))
	segments := []string{"smb", "mid"}
	channels := []string{"direct", "partner"}
	d := models.D

	in := &models.Inputs{
		ScenarioID: scenario,
		Segments:   segments,
		Channels:   channels,
		Months:     months,
		SKUTypes: map[string]models.SKUType{
			"platform_base":   models.SKUBase,
			"ai_pack":         models.SKUPack,
			"analytics_addon": models.SKUAddon,
		},
		PriceBook: []models.PriceBookEntry{
			{SKUID: "platform_base", BillingPeriod: models.BillingAnnual, PriceModel: models.PricePerTenant, ListPrice: d("12000")},
			{SKUID: "ai_pack", BillingPeriod: models.BillingAnnual, PriceModel: models.PricePerTenant, ListPrice: d("6000")},
			{SKUID: "analytics_addon", BillingPeriod: models.BillingMonthly, PriceModel: models.PricePerSeat, ListPrice: d("50")},
		},
		ChannelTerms: []models.ChannelTerms{
			{ChannelID: "direct", Model: models.ChannelResaleDiscount},
			{ChannelID: "partner", Model: models.ChannelRevshare, RevsharePct: d("0.20"), PaymentTermsDays: 45},
		},
		UsageMonetization: []models.UsageMonetization{
			{SKUID: models.UsageLLMSKU, SegmentID: "smb", IncludedUnitsPerTenantM: d("1000000"), OveragePricePerUnit: d("0.01"), OverageTakeRate: d("0.5")},
			{SKUID: models.UsageLLMSKU, SegmentID: "mid", IncludedUnitsPerTenantM: d("2000000"), OveragePricePerUnit: d("0.01"), OverageTakeRate: d("0.5")},
		},
		COGSUnitCosts: []models.COGSUnitCosts{{
			ScenarioID:           scenario,
			LLMCostPer1kTokens:   d("0.003"),
			EmbedCostPer1kTokens: d("0.0001"),
			ComputeCostPerHour:   d("0.10"),
			StorageCostPerGBM:    d("0.023"),
			SupportCostPerTicket: d("25.00"),
			FixedPlatformCOGSM:   d("5000.00"),
		}},
		HeadcountPlan: []models.HeadcountPlan{
			{Month: months[0], ScenarioID: scenario, Function: models.FunctionEng, Hires: 5, FullyLoadedAnnual: d("200000"), RampMonths: 3},
			{Month: months[0], ScenarioID: scenario, Function: models.FunctionSales, Hires: 3, FullyLoadedAnnual: d("150000"), RampMonths: 6},
			{Month: months[0], ScenarioID: scenario, Function: models.FunctionCS, Hires: 2, FullyLoadedAnnual: d("120000"), RampMonths: 3},
			{Month: months[0], ScenarioID: scenario, Function: models.FunctionGA, Hires: 2, FullyLoadedAnnual: d("130000"), RampMonths: 2},
			{Month: months[6], ScenarioID: scenario, Function: models.FunctionMarketing, Hires: 1, FullyLoadedAnnual: d("140000"), RampMonths: 2},
		},
		BillingCollections: []models.BillingCollections{{
			ScenarioID:       scenario,
			BillInAdvancePct: d("1.0"),
			AnnualPrepaidMix: d("0.25"),
			DSODays:          30,
		}},
		Payables:                  []models.Payables{{ScenarioID: scenario, DPODays: 30}},
		InitialCash:               d("1000000"),
		InitialContributedCapital: d("1000000"),
	}

	for _, seg := range segments {
		for _, ch := range channels {
			churn := d("0.03")
			if seg == "mid" {
				churn = d("0.02")
			}
			if ch == "partner" {
				churn = churn.Mul(d("0.8"))
			}
			in.Retention = append(in.Retention, models.RetentionAssumption{
				ScenarioID: scenario, SegmentID: seg, ChannelID: ch,
				LogoChurnM:    churn,
				RevenueChurnM: churn.Mul(d("0.5")),
				ExpansionM:    d("0.02"),
			})
			in.SeatsAndEnvs = append(in.SeatsAndEnvs, models.SeatsAndEnvs{
				ScenarioID: scenario, SegmentID: seg, ChannelID: ch,
				SeatsPerTenantStart: pick(seg, "5", "20"),
				SeatsGrowthM:        d("0.01"),
				EnvsPerTenantStart:  pick(seg, "1", "2"),
			})
			in.PackAttachRates = append(in.PackAttachRates, models.PackAttachRate{
				SegmentID: seg, ChannelID: ch, SKUID: "ai_pack",
				AttachRate: pick(seg, "0.20", "0.40"), AttachRampMonths: 6,
			})
			in.UsageAssumptions = append(in.UsageAssumptions, models.UsageAssumption{
				ScenarioID: scenario, SegmentID: seg, ChannelID: ch,
				TokensPerTenantM:         pick(seg, "1500000", "3000000"),
				Embed1kTokensPerTenantM:  pick(seg, "200", "800"),
				ComputeHoursPerTenantM:   pick(seg, "40", "120"),
				StorageGBPerTenantM:      pick(seg, "50", "250"),
				SupportTicketsPerTenantM: pick(seg, "0.5", "1.0"),
			})
			in.Services = append(in.Services, models.ServicesAssumption{
				ScenarioID: scenario, SegmentID: seg, ChannelID: ch,
				ImplFeePerNewLogo: pick(seg, "2000", "7500"),
				ImplCOGSPct:       d("0.60"),
				AdvisoryFeeM:      pick(seg, "0", "500"),
				AdvisoryCOGSPct:   d("0.50"),
			})
			in.SalesComp = append(in.SalesComp, models.SalesCompAssumption{
				ScenarioID: scenario, SegmentID: seg, ChannelID: ch,
				CommissionPctOfSubRev: d("0.10"),
				CACPaidPerNewLogo:     pick(seg, "1500", "4000"),
			})
		}
	}

	for _, m := range months {
		for _, seg := range segments {
			for _, ch := range channels {
				leads := 100
				if seg == "mid" {
					leads = 50
				}
				if ch == "partner" {
					leads = leads * 6 / 10
				}
				sqlToWin := d("0.20")
				if ch == "partner" {
					sqlToWin = d("0.30")
				}
				in.Funnel = append(in.Funnel, models.FunnelAssumption{
					Month: m, ScenarioID: scenario, SegmentID: seg, ChannelID: ch,
					Leads:            leads,
					LeadToSQL:        pick(seg, "0.30", "0.40"),
					SQLToWin:         sqlToWin,
					SalesCycleMonths: 2,
				})
			}
		}
		in.Opex = append(in.Opex, models.OpexAssumption{
			Month: m, ScenarioID: scenario,
			MarketingSpendM:     d("15000"),
			ToolsAndSoftwareM:   d("5000"),
			LegalAndAccountingM: d("3000"),
			RentAndAdminM:       d("8000"),
			OtherOpexM:          d("2000"),
		})
	}
	return in
}

func pick(segment, smb, mid string) decimal.Decimal {
	if segment == "smb" {
		return models.D(smb)
	}
	return models.D(mid)
}
