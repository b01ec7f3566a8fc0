package models

import "github.com/shopspring/decimal"

var (
	One     = decimal.NewFromInt(1)
	Twelve  = decimal.NewFromInt(12)
	Thirty  = decimal.NewFromInt(30)
	Hundred = decimal.NewFromInt(100)

	// DefaultTolerance is one cent.
	DefaultTolerance = decimal.New(1, -2)
)

// Round quantizes to cents with half-even rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// D parses a decimal literal and panics on malformed input.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SafeDiv returns num/den, or zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

// CompoundGrowth returns start × (1+rate)^periods for periods >= 0.
func CompoundGrowth(start, rate decimal.Decimal, periods int) decimal.Decimal {
	factor := One.Add(rate)
	out := start
	for i := 0; i < periods; i++ {
		out = out.Mul(factor)
	}
	return out
}

// WithinTolerance reports |a-b| <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
