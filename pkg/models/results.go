package models

import (
	"time"

	"github.com/shopspring/decimal"
)

/*
COMPUTE → per-run result records. Every record is produced once by its stage
and never mutated afterwards.
*/

// CohortKey addresses one (month, scenario, segment, channel) slice.
type CohortKey struct {
	Month      Month
	ScenarioID string
	SegmentID  string
	ChannelID  string
}

func (k CohortKey) String() string {
	return k.Month.String() + "/" + k.ScenarioID + "/" + k.SegmentID + "/" + k.ChannelID
}

// CohortState holds logo counts and expansion for one cohort key.
type CohortState struct {
	Key               CohortKey
	ActiveLogos       decimal.Decimal
	NewLogos          decimal.Decimal
	ChurnedLogos      decimal.Decimal
	RetainedLogos     decimal.Decimal
	AvgSeatsPerTenant decimal.Decimal
	AvgEnvsPerTenant  decimal.Decimal
	TotalSeats        decimal.Decimal
	TotalEnvs         decimal.Decimal
	PackAttachments   map[string]decimal.Decimal // sku → attached logos
}

type RevenueBreakdown struct {
	Key              CohortKey
	MRRBase          decimal.Decimal
	MRRPacks         decimal.Decimal
	MRRAddons        decimal.Decimal
	MRRTotal         decimal.Decimal
	ARR              decimal.Decimal
	UsageRevenue     decimal.Decimal
	ServicesImpl     decimal.Decimal
	ServicesAdvisory decimal.Decimal
	ServicesTotal    decimal.Decimal
	GrossRevenue     decimal.Decimal
	ChannelDiscount  decimal.Decimal
	ChannelPayout    decimal.Decimal // revshare/referral, settled below gross profit
	NetRevenue       decimal.Decimal
}

type COGSBreakdown struct {
	Key              CohortKey
	LLMTokens        decimal.Decimal
	Embeddings       decimal.Decimal
	Compute          decimal.Decimal
	Storage          decimal.Decimal
	Support          decimal.Decimal
	VariableTotal    decimal.Decimal
	PlatformFixed    decimal.Decimal
	ThirdParty       decimal.Decimal
	FixedTotal       decimal.Decimal
	ServicesImpl     decimal.Decimal
	ServicesAdvisory decimal.Decimal
	ServicesTotal    decimal.Decimal
	Total            decimal.Decimal
	ChannelPayout    decimal.Decimal
}

// HeadcountState is the ramped position of one function in one month.
type HeadcountState struct {
	Function    Function
	Heads       decimal.Decimal
	RampedFTE   decimal.Decimal
	MonthlyCost decimal.Decimal
}

// OpexBreakdown is scenario-wide for one month.
type OpexBreakdown struct {
	Month              Month
	ScenarioID         string
	Headcount          []HeadcountState // one per Functions entry, same order
	HeadcountTotal     decimal.Decimal
	Commissions        decimal.Decimal
	CACPayments        decimal.Decimal
	SalesCompTotal     decimal.Decimal
	MarketingSpend     decimal.Decimal
	ToolsAndSoftware   decimal.Decimal
	LegalAndAccounting decimal.Decimal
	RentAndAdmin       decimal.Decimal
	OtherOpex          decimal.Decimal
	NonHeadcountTotal  decimal.Decimal
	Total              decimal.Decimal
}

// HeadcountCost returns the monthly cost booked to f.
func (o OpexBreakdown) HeadcountCost(f Function) decimal.Decimal {
	for _, h := range o.Headcount {
		if h.Function == f {
			return h.MonthlyCost
		}
	}
	return decimal.Zero
}

type AggregatedPnL struct {
	Month                Month
	ScenarioID           string
	RevenueSubscriptions decimal.Decimal
	RevenueUsage         decimal.Decimal
	RevenueServices      decimal.Decimal
	RevenueTotal         decimal.Decimal
	ChannelDiscounts     decimal.Decimal
	NetRevenue           decimal.Decimal
	COGSVariable         decimal.Decimal
	COGSFixed            decimal.Decimal
	COGSServices         decimal.Decimal
	COGSTotal            decimal.Decimal
	ChannelPayouts       decimal.Decimal
	GrossProfit          decimal.Decimal
	GrossMarginPct       decimal.Decimal
	OpexHeadcount        decimal.Decimal
	OpexSalesComp        decimal.Decimal
	OpexOther            decimal.Decimal
	OpexTotal            decimal.Decimal
	EBITDA               decimal.Decimal
	EBITDAMarginPct      decimal.Decimal
}

type CashFlowStatement struct {
	Month                Month
	ScenarioID           string
	CashBegin            decimal.Decimal
	Collections          decimal.Decimal
	DisbursementsCOGS    decimal.Decimal
	DisbursementsOpex    decimal.Decimal
	DisbursementsChannel decimal.Decimal
	DisbursementsTotal   decimal.Decimal
	ChangeInAR           decimal.Decimal
	ChangeInDeferred     decimal.Decimal
	ChangeInAP           decimal.Decimal
	CashFromOperations   decimal.Decimal
	CashEnd              decimal.Decimal
}

type BalanceSheetSnapshot struct {
	Month              Month
	ScenarioID         string
	Cash               decimal.Decimal
	AccountsReceivable decimal.Decimal
	PrepaidExpenses    decimal.Decimal
	TotalAssets        decimal.Decimal
	AccountsPayable    decimal.Decimal
	AccruedExpenses    decimal.Decimal
	DeferredRevenue    decimal.Decimal
	TotalLiabilities   decimal.Decimal
	ContributedCapital decimal.Decimal
	RetainedEarnings   decimal.Decimal
	TotalEquity        decimal.Decimal
	// PlugAdjustment is the amount forced into retained earnings to balance.
	PlugAdjustment decimal.Decimal
}

// UnitEconomics summarises one cohort key.
type UnitEconomics struct {
	Key            CohortKey
	ActiveLogos    decimal.Decimal
	NewLogos       decimal.Decimal
	ChurnedLogos   decimal.Decimal
	MRR            decimal.Decimal
	ARR            decimal.Decimal
	ARPA           decimal.Decimal
	GrossMarginPct decimal.Decimal
	CAC            decimal.Decimal
	LTV            decimal.Decimal
	PaybackMonths  decimal.Decimal
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type ValidationResult struct {
	GateID      string
	Description string
	Severity    Severity
	Passed      bool
	Message     string
	Context     map[string]string
}

type ValidationReport struct {
	ScenarioID   string
	Timestamp    time.Time
	Results      []ValidationResult
	ErrorCount   int
	WarningCount int
	Passed       bool
}

// Failures returns every failed result in gate order.
func (r ValidationReport) Failures() []ValidationResult {
	var out []ValidationResult
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

type (
	CohortTable   = Table[CohortKey, CohortState]
	RevenueTable  = Table[CohortKey, RevenueBreakdown]
	COGSTable     = Table[CohortKey, COGSBreakdown]
	OpexTable     = Table[Month, OpexBreakdown]
	PnLTable      = Table[Month, AggregatedPnL]
	CashFlowTable = Table[Month, CashFlowStatement]
	BalanceTable  = Table[Month, BalanceSheetSnapshot]
)

// Scope is the month-independent part of a cohort key.
type Scope struct {
	ScenarioID string
	SegmentID  string
	ChannelID  string
}

func (k CohortKey) Scope() Scope {
	return Scope{ScenarioID: k.ScenarioID, SegmentID: k.SegmentID, ChannelID: k.ChannelID}
}
