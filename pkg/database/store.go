package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"saas-projection/pkg/models"
)

func save[T any](ctx context.Context, tx *sql.Tx, t table[T], rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(t.columnNames(), ", "), marks))
	if err != nil {
		return fmt.Errorf("prepare %s: %w", t.name, err)
	}
	defer stmt.Close()
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, t.args(r)...); err != nil {
			return fmt.Errorf("insert %s[%d]: %w", t.name, i, err)
		}
	}
	return nil
}

// SaveInputs appends every table of in inside one transaction. Shared tables
// (segments, channels, SKU types, price book, channel terms, attach rates and
// usage monetization) are written as given.
func (s *Store) SaveInputs(ctx context.Context, in *models.Inputs) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	skus := make([]string, 0, len(in.SKUTypes))
	for sku := range in.SKUTypes {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	types := make([]skuTypeRow, len(skus))
	for i, sku := range skus {
		types[i] = skuTypeRow{SKUID: sku, Type: in.SKUTypes[sku]}
	}

	steps := []func() error{
		func() error {
			return save(ctx, tx, scenarios, []scenarioRow{{in.ScenarioID, in.InitialCash, in.InitialContributedCapital}})
		},
		func() error { return save(ctx, tx, segments, in.Segments) },
		func() error { return save(ctx, tx, channels, in.Channels) },
		func() error { return save(ctx, tx, skuTypes, types) },
		func() error { return save(ctx, tx, funnel, in.Funnel) },
		func() error { return save(ctx, tx, overrides, in.NewLogosOverrides) },
		func() error { return save(ctx, tx, retention, in.Retention) },
		func() error { return save(ctx, tx, seatsAndEnvs, in.SeatsAndEnvs) },
		func() error { return save(ctx, tx, packAttach, in.PackAttachRates) },
		func() error { return save(ctx, tx, priceBook, in.PriceBook) },
		func() error { return save(ctx, tx, channelTerms, in.ChannelTerms) },
		func() error { return save(ctx, tx, usage, in.UsageAssumptions) },
		func() error { return save(ctx, tx, usageMonetization, in.UsageMonetization) },
		func() error { return save(ctx, tx, services, in.Services) },
		func() error { return save(ctx, tx, cogsUnitCosts, in.COGSUnitCosts) },
		func() error { return save(ctx, tx, headcount, in.HeadcountPlan) },
		func() error { return save(ctx, tx, opexSpend, in.Opex) },
		func() error { return save(ctx, tx, salesComp, in.SalesComp) },
		func() error { return save(ctx, tx, billing, in.BillingCollections) },
		func() error { return save(ctx, tx, payables, in.Payables) },
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Info("inputs saved", zap.String("scenario", in.ScenarioID))
	return nil
}
