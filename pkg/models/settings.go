package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

/*
CONFIG → run control plane
*/

// AttachRampMode controls how pack attach rates approach their target.
type AttachRampMode string

const (
	AttachImmediate AttachRampMode = "immediate"
	AttachLinear    AttachRampMode = "linear"
	AttachSCurve    AttachRampMode = "s_curve"
)

// FixedCOGSAllocation selects the basis for spreading fixed platform COGS.
type FixedCOGSAllocation string

const (
	AllocateByActiveLogos FixedCOGSAllocation = "by_active_logos"
	AllocateByRevenue     FixedCOGSAllocation = "by_revenue"
	AllocateFlatSplit     FixedCOGSAllocation = "flat_split"
)

// RunSettings is read first; every input table is filtered against it.
type RunSettings struct {
	RunID      string `yaml:"run_id"`
	RunName    string `yaml:"run_name"`
	ScenarioID string `yaml:"scenario_id"`
	StartMonth Month  `yaml:"start_month"`
	EndMonth   Month  `yaml:"end_month"`

	AttachRampMode      AttachRampMode      `yaml:"attach_ramp_mode"`
	FixedCOGSAllocation FixedCOGSAllocation `yaml:"fixed_cogs_allocation"`

	// Tolerance is the absolute epsilon for reconciliation and the plug.
	// Zero means unset and selects DefaultTolerance; for exact matching of
	// cent-rounded amounts use any positive value below a cent, e.g. 0.0001.
	Tolerance            decimal.Decimal `yaml:"tolerance"`
	StrictValidation     bool            `yaml:"strict_validation"`
	IncludeUnitEconomics bool            `yaml:"include_unit_economics"`
}

func DefaultRunSettings() RunSettings {
	return RunSettings{
		RunName:              "Default Run",
		ScenarioID:           "base",
		StartMonth:           NewMonth(2025, 1),
		EndMonth:             NewMonth(2026, 12),
		AttachRampMode:       AttachLinear,
		FixedCOGSAllocation:  AllocateByActiveLogos,
		Tolerance:            DefaultTolerance,
		IncludeUnitEconomics: true,
	}
}

func (s RunSettings) Validate() error {
	if s.ScenarioID == "" {
		return fmt.Errorf("%w: scenario_id is required", ErrInvalidInput)
	}
	if s.StartMonth.IsZero() || s.EndMonth.IsZero() {
		return fmt.Errorf("%w: start_month and end_month are required", ErrInvalidInput)
	}
	if s.EndMonth.Before(s.StartMonth) {
		return fmt.Errorf("%w: end_month %s before start_month %s", ErrInvalidInput, s.EndMonth, s.StartMonth)
	}
	switch s.AttachRampMode {
	case AttachImmediate, AttachLinear, AttachSCurve:
	default:
		return fmt.Errorf("%w: attach_ramp_mode %q", ErrInvalidInput, s.AttachRampMode)
	}
	switch s.FixedCOGSAllocation {
	case AllocateByActiveLogos, AllocateByRevenue, AllocateFlatSplit:
	default:
		return fmt.Errorf("%w: fixed_cogs_allocation %q", ErrInvalidInput, s.FixedCOGSAllocation)
	}
	if s.Tolerance.IsNegative() {
		return fmt.Errorf("%w: tolerance must be >= 0", ErrInvalidInput)
	}
	return nil
}
