// Package calculator sequences the projection pipeline: it filters inputs
// against the run settings, then runs cohorts, revenue, COGS, opex,
// statements and validation in that order.
package calculator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"saas-projection/pkg/cogs"
	"saas-projection/pkg/cohort"
	"saas-projection/pkg/models"
	"saas-projection/pkg/opex"
	"saas-projection/pkg/revenue"
	"saas-projection/pkg/statements"
	"saas-projection/pkg/validation"
)

const stageCount = 7

type Options struct {
	Logger *zap.Logger
	// ProgressWriter receives a stage progress bar; nil disables it.
	ProgressWriter io.Writer
}

// Outputs holds every result table of one run, each ordered one row per key.
type Outputs struct {
	RunID      string
	RunName    string
	ScenarioID string
	Months     []models.Month

	Cohorts       *models.CohortTable
	Revenue       *models.RevenueTable
	COGS          *models.COGSTable
	Opex          *models.OpexTable
	PnL           *models.PnLTable
	CashFlow      *models.CashFlowTable
	BalanceSheet  *models.BalanceTable
	UnitEconomics []models.UnitEconomics
	Validation    models.ValidationReport

	StartedAt time.Time
	Duration  time.Duration
}

type stageBar struct {
	bar *progressbar.ProgressBar
}

func newStageBar(w io.Writer) *stageBar {
	if w == nil {
		return &stageBar{}
	}
	return &stageBar{bar: progressbar.NewOptions(stageCount,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("projection"),
		progressbar.OptionShowCount(),
	)}
}

func (s *stageBar) done(stage string) {
	if s.bar == nil {
		return
	}
	s.bar.Describe(stage)
	_ = s.bar.Add(1)
}

// Run executes one projection. Domain errors abort the run; reconciliation
// failures only land in Outputs.Validation, unless settings.StrictValidation
// is set, in which case ErrValidationFailed is returned with the outputs.
func Run(ctx context.Context, inputs *models.Inputs, settings models.RunSettings, opts Options) (*Outputs, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if settings.Tolerance.IsZero() {
		settings.Tolerance = models.DefaultTolerance
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("run settings: %w", err)
	}
	if err := inputs.Validate(); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	in, err := ApplyRunSettings(inputs, settings)
	if err != nil {
		return nil, err
	}

	out := &Outputs{
		RunID:      settings.RunID,
		RunName:    settings.RunName,
		ScenarioID: in.ScenarioID,
		Months:     in.Months,
		StartedAt:  time.Now().UTC(),
	}
	if out.RunID == "" {
		out.RunID = uuid.NewString()
	}
	log = log.With(zap.String("run_id", out.RunID), zap.String("scenario", in.ScenarioID))
	log.Info("run started",
		zap.String("start", in.Months[0].String()),
		zap.String("end", in.Months[len(in.Months)-1].String()),
		zap.Int("segments", len(in.Segments)),
		zap.Int("channels", len(in.Channels)))
	bar := newStageBar(opts.ProgressWriter)

	cohortEngine := cohort.New(in, cohort.Options{AttachRampMode: settings.AttachRampMode, Logger: log})
	if out.Cohorts, err = cohortEngine.Calculate(ctx, in.ScenarioID, in.Segments, in.Channels, in.Months); err != nil {
		return nil, fmt.Errorf("cohorts: %w", err)
	}
	bar.done("cohorts")

	if out.Revenue, err = revenue.New(in, log).Calculate(ctx, out.Cohorts); err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	bar.done("revenue")

	cogsEngine := cogs.New(in, cogs.Options{Allocation: settings.FixedCOGSAllocation, Logger: log})
	if out.COGS, err = cogsEngine.Calculate(ctx, out.Cohorts, out.Revenue); err != nil {
		return nil, fmt.Errorf("cogs: %w", err)
	}
	bar.done("cogs")

	if out.Opex, err = opex.New(in, log).Calculate(ctx, in.ScenarioID, in.Months, out.Cohorts, out.Revenue); err != nil {
		return nil, fmt.Errorf("opex: %w", err)
	}
	bar.done("opex")

	stmts := statements.New(in, statements.Options{
		InitialCash:        in.InitialCash,
		ContributedCapital: in.InitialContributedCapital,
		Tolerance:          settings.Tolerance,
		Logger:             log,
	})
	res, err := stmts.Calculate(ctx, in.ScenarioID, in.Months, out.Revenue, out.COGS, out.Opex)
	if err != nil {
		return nil, fmt.Errorf("statements: %w", err)
	}
	out.PnL, out.CashFlow, out.BalanceSheet = res.PnL, res.CashFlow, res.BalanceSheet
	bar.done("statements")

	if settings.IncludeUnitEconomics {
		out.UnitEconomics = UnitEconomics(in, out.Cohorts, out.Revenue, out.COGS)
	}
	bar.done("unit economics")

	out.Validation = validation.New(settings.Tolerance).Run(in.ScenarioID, validation.Tables{
		Cohorts:      out.Cohorts,
		Revenue:      out.Revenue,
		COGS:         out.COGS,
		PnL:          out.PnL,
		CashFlow:     out.CashFlow,
		BalanceSheet: out.BalanceSheet,
	})
	bar.done("validation")
	out.Duration = time.Since(out.StartedAt)

	for _, f := range out.Validation.Failures() {
		log.Warn("validation gate failed",
			zap.String("gate", f.GateID),
			zap.String("severity", string(f.Severity)),
			zap.String("message", f.Message))
	}
	log.Info("run finished",
		zap.Duration("duration", out.Duration),
		zap.Bool("validation_passed", out.Validation.Passed),
		zap.Int("errors", out.Validation.ErrorCount),
		zap.Int("warnings", out.Validation.WarningCount))

	if settings.StrictValidation && !out.Validation.Passed {
		return out, fmt.Errorf("%w: %d error(s)", models.ErrValidationFailed, out.Validation.ErrorCount)
	}
	return out, nil
}
