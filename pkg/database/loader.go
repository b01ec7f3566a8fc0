package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"saas-projection/pkg/models"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// load reads every row of t in insertion order. Scoped tables are filtered to
// scenarioID.
func load[T any](ctx context.Context, q queryer, t table[T], scenarioID string) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columnNames(), ", "), t.name)
	var args []any
	if t.scoped {
		query += " WHERE scenario_id = ?"
		args = append(args, scenarioID)
	}
	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var row T
		if err := rows.Scan(t.dest(&row)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", t.name, err)
	}
	return out, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// LoadInputs reads one scenario's input tables. Months are left empty; the
// run window decides them.
func (s *Store) LoadInputs(ctx context.Context, scenarioID string) (*models.Inputs, error) {
	scen, err := load(ctx, s.db, scenarios, scenarioID)
	if err != nil {
		return nil, err
	}
	if len(scen) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}

	in := &models.Inputs{
		ScenarioID:                scenarioID,
		InitialCash:               scen[0].InitialCash,
		InitialContributedCapital: scen[0].ContributedCapital,
		SKUTypes:                  map[string]models.SKUType{},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var types []skuTypeRow
	in.Segments, err = load(ctx, s.db, segments, scenarioID)
	collect(err)
	in.Channels, err = load(ctx, s.db, channels, scenarioID)
	collect(err)
	types, err = load(ctx, s.db, skuTypes, scenarioID)
	collect(err)
	in.Funnel, err = load(ctx, s.db, funnel, scenarioID)
	collect(err)
	in.NewLogosOverrides, err = load(ctx, s.db, overrides, scenarioID)
	collect(err)
	in.Retention, err = load(ctx, s.db, retention, scenarioID)
	collect(err)
	in.SeatsAndEnvs, err = load(ctx, s.db, seatsAndEnvs, scenarioID)
	collect(err)
	in.PackAttachRates, err = load(ctx, s.db, packAttach, scenarioID)
	collect(err)
	in.PriceBook, err = load(ctx, s.db, priceBook, scenarioID)
	collect(err)
	in.ChannelTerms, err = load(ctx, s.db, channelTerms, scenarioID)
	collect(err)
	in.UsageAssumptions, err = load(ctx, s.db, usage, scenarioID)
	collect(err)
	in.UsageMonetization, err = load(ctx, s.db, usageMonetization, scenarioID)
	collect(err)
	in.Services, err = load(ctx, s.db, services, scenarioID)
	collect(err)
	in.COGSUnitCosts, err = load(ctx, s.db, cogsUnitCosts, scenarioID)
	collect(err)
	in.HeadcountPlan, err = load(ctx, s.db, headcount, scenarioID)
	collect(err)
	in.Opex, err = load(ctx, s.db, opexSpend, scenarioID)
	collect(err)
	in.SalesComp, err = load(ctx, s.db, salesComp, scenarioID)
	collect(err)
	in.BillingCollections, err = load(ctx, s.db, billing, scenarioID)
	collect(err)
	in.Payables, err = load(ctx, s.db, payables, scenarioID)
	collect(err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	in.Segments = dedupe(in.Segments)
	in.Channels = dedupe(in.Channels)
	for _, t := range types {
		if _, ok := in.SKUTypes[t.SKUID]; !ok {
			in.SKUTypes[t.SKUID] = t.Type
		}
	}

	s.log.Info("inputs loaded",
		zap.String("scenario", scenarioID),
		zap.Int("segments", len(in.Segments)),
		zap.Int("channels", len(in.Channels)),
		zap.Int("funnel_rows", len(in.Funnel)),
		zap.Int("headcount_rows", len(in.HeadcountPlan)))
	return in, nil
}
