package database

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ddl is implemented by every table[T].
type ddl interface {
	createStatement(driver string) string
	tableName() string
}

func (t table[T]) tableName() string { return t.name }

func (t table[T]) createStatement(driver string) string {
	id := "id BIGINT AUTO_INCREMENT PRIMARY KEY"
	if driver == DriverSQLite {
		id = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	defs := []string{id}
	for _, c := range t.cols {
		defs = append(defs, c.name+" "+c.typ)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(defs, ",\n\t"))
}

var schema = []ddl{
	scenarios, segments, channels, skuTypes,
	funnel, overrides, retention, seatsAndEnvs, packAttach,
	priceBook, channelTerms, usage, usageMonetization, services,
	cogsUnitCosts, headcount, opexSpend, salesComp, billing, payables,
}

// Migrate creates any missing input tables. Statements run one at a time
// since the MySQL DSN does not enable multiStatements.
func (s *Store) Migrate(ctx context.Context) error {
	for _, t := range schema {
		if _, err := s.db.ExecContext(ctx, t.createStatement(s.driver)); err != nil {
			return fmt.Errorf("create table %s: %w", t.tableName(), err)
		}
	}
	s.log.Debug("schema migrated", zap.Int("tables", len(schema)))
	return nil
}
