// Package cohort computes logo counts, seat/env expansion and pack
// attachment per (month, scenario, segment, channel).
package cohort

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"saas-projection/pkg/models"
	"saas-projection/pkg/parallel"
)

type monthScope struct {
	month models.Month
	scope models.Scope
}

type pair struct {
	segment string
	channel string
}

// Engine holds indexed assumption tables. It is safe for concurrent use
// once built.
type Engine struct {
	funnel    map[monthScope]models.FunnelAssumption
	overrides map[monthScope]int
	retention map[models.Scope]decimal.Decimal
	seats     map[models.Scope]models.SeatsAndEnvs
	attach    map[pair][]models.PackAttachRate
	rampMode  models.AttachRampMode
	log       *zap.Logger
}

type Options struct {
	AttachRampMode models.AttachRampMode
	Logger         *zap.Logger
}

func New(in *models.Inputs, opts Options) *Engine {
	e := &Engine{
		funnel:    make(map[monthScope]models.FunnelAssumption, len(in.Funnel)),
		overrides: make(map[monthScope]int, len(in.NewLogosOverrides)),
		retention: make(map[models.Scope]decimal.Decimal, len(in.Retention)),
		seats:     make(map[models.Scope]models.SeatsAndEnvs, len(in.SeatsAndEnvs)),
		attach:    make(map[pair][]models.PackAttachRate),
		rampMode:  opts.AttachRampMode,
		log:       opts.Logger,
	}
	if e.rampMode == "" {
		e.rampMode = models.AttachLinear
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	// First row wins on duplicates.
	for _, f := range in.Funnel {
		k := monthScope{f.Month, models.Scope{ScenarioID: f.ScenarioID, SegmentID: f.SegmentID, ChannelID: f.ChannelID}}
		if _, ok := e.funnel[k]; !ok {
			e.funnel[k] = f
		}
	}
	for _, o := range in.NewLogosOverrides {
		k := monthScope{o.Month, models.Scope{ScenarioID: o.ScenarioID, SegmentID: o.SegmentID, ChannelID: o.ChannelID}}
		if _, ok := e.overrides[k]; !ok {
			e.overrides[k] = o.NewLogos
		}
	}
	for _, r := range in.Retention {
		k := models.Scope{ScenarioID: r.ScenarioID, SegmentID: r.SegmentID, ChannelID: r.ChannelID}
		if _, ok := e.retention[k]; !ok {
			e.retention[k] = r.LogoChurnM
		}
	}
	for _, s := range in.SeatsAndEnvs {
		k := models.Scope{ScenarioID: s.ScenarioID, SegmentID: s.SegmentID, ChannelID: s.ChannelID}
		if _, ok := e.seats[k]; !ok {
			e.seats[k] = s
		}
	}
	for _, p := range in.PackAttachRates {
		k := pair{p.SegmentID, p.ChannelID}
		e.attach[k] = append(e.attach[k], p)
	}
	return e
}

// NewLogos prefers an explicit override, else leads × lead→SQL × SQL→win for
// the same month. No funnel row means no new logos.
func (e *Engine) NewLogos(month models.Month, scope models.Scope) decimal.Decimal {
	k := monthScope{month, scope}
	if n, ok := e.overrides[k]; ok {
		return decimal.NewFromInt(int64(n))
	}
	f, ok := e.funnel[k]
	if !ok {
		return decimal.Zero
	}
	return models.Round(decimal.NewFromInt(int64(f.Leads)).Mul(f.LeadToSQL).Mul(f.SQLToWin))
}

// Churn returns prior × monthly logo churn; no retention row means no churn.
func (e *Engine) Churn(priorActive decimal.Decimal, scope models.Scope) decimal.Decimal {
	rate, ok := e.retention[scope]
	if !ok {
		return decimal.Zero
	}
	return models.Round(priorActive.Mul(rate))
}

// SeatsAndEnvs returns per-tenant seats and envs at month index i.
func (e *Engine) SeatsAndEnvs(scope models.Scope, i int) (seats, envs decimal.Decimal) {
	s, ok := e.seats[scope]
	if !ok {
		return models.One, models.One
	}
	seats = models.Round(models.CompoundGrowth(s.SeatsPerTenantStart, s.SeatsGrowthM, i))
	envs = models.Round(models.CompoundGrowth(s.EnvsPerTenantStart, s.EnvsGrowthM, i))
	return seats, envs
}

// AttachRate returns the attach rate for row at month index i.
func (e *Engine) AttachRate(row models.PackAttachRate, i int) decimal.Decimal {
	ramp := row.AttachRampMonths
	if e.rampMode == models.AttachImmediate || ramp <= 0 || i >= ramp {
		return row.AttachRate
	}
	elapsed, total := decimal.NewFromInt(int64(i)), decimal.NewFromInt(int64(ramp))
	if e.rampMode != models.AttachSCurve {
		return row.AttachRate.Mul(elapsed).Div(total)
	}
	// smoothstep: 3x² − 2x³
	x := elapsed.Div(total)
	x2 := x.Mul(x)
	return row.AttachRate.Mul(x2.Mul(decimal.NewFromInt(3)).Sub(x2.Mul(x).Mul(decimal.NewFromInt(2))))
}

// Calculate runs every (segment, channel) pair in parallel. Within a pair the
// months are scanned in order because each month depends on the prior active
// count. Rows come back ordered by month, segment, channel.
func (e *Engine) Calculate(ctx context.Context, scenarioID string, segments, channels []string, months []models.Month) (*models.CohortTable, error) {
	pairs := make([]pair, 0, len(segments)*len(channels))
	for _, s := range segments {
		for _, c := range channels {
			pairs = append(pairs, pair{s, c})
		}
	}

	states := make([][]models.CohortState, len(pairs))
	err := parallel.ForEach(ctx, len(pairs), func(i int) error {
		p := pairs[i]
		rows, err := e.runPair(scenarioID, p, months)
		if err != nil {
			return err
		}
		states[i] = rows
		e.log.Debug("cohort pair computed",
			zap.String("segment", p.segment),
			zap.String("channel", p.channel),
			zap.Int("months", len(rows)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := models.NewTable[models.CohortKey, models.CohortState](len(pairs) * len(months))
	for mi := range months {
		for pi := range pairs {
			st := states[pi][mi]
			out.Put(st.Key, st)
		}
	}
	return out, nil
}

func (e *Engine) runPair(scenarioID string, p pair, months []models.Month) ([]models.CohortState, error) {
	scope := models.Scope{ScenarioID: scenarioID, SegmentID: p.segment, ChannelID: p.channel}
	attachRows := e.attach[p]
	prior := decimal.Zero
	out := make([]models.CohortState, len(months))

	for i, m := range months {
		key := models.CohortKey{Month: m, ScenarioID: scenarioID, SegmentID: p.segment, ChannelID: p.channel}
		newLogos := e.NewLogos(m, scope)
		churned := e.Churn(prior, scope)
		retained := prior.Sub(churned)
		active := retained.Add(newLogos)
		if active.IsNegative() {
			return nil, fmt.Errorf("%w: %s active=%s", models.ErrNegativeActiveLogos, key, active)
		}

		seats, envs := e.SeatsAndEnvs(scope, i)
		attached := make(map[string]decimal.Decimal, len(attachRows))
		for _, row := range attachRows {
			attached[row.SKUID] = models.Round(active.Mul(e.AttachRate(row, i)))
		}

		out[i] = models.CohortState{
			Key:               key,
			ActiveLogos:       active,
			NewLogos:          newLogos,
			ChurnedLogos:      churned,
			RetainedLogos:     retained,
			AvgSeatsPerTenant: seats,
			AvgEnvsPerTenant:  envs,
			TotalSeats:        active.Mul(seats),
			TotalEnvs:         active.Mul(envs),
			PackAttachments:   attached,
		}
		prior = active
	}
	return out, nil
}
