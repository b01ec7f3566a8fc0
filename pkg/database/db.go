// Package database reads and writes projection inputs in MySQL, MariaDB or
// SQLite. The schema is one table per input table, keyed by scenario where
// the input is scenario-scoped.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

var ErrScenarioNotFound = errors.New("scenario not found")

// Store wraps a connection pool and remembers which SQL dialect it speaks.
type Store struct {
	db     *sql.DB
	driver string
	log    *zap.Logger
}

// Open accepts mariadb://, mysql:// and sqlite:// URLs, or a native MySQL
// DSN, which passes through unchanged.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver, source, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// every new connection to :memory: is a fresh database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	log.Debug("database opened", zap.String("driver", driver))
	return &Store{db: db, driver: driver, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() string { return s.driver }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func resolveDSN(dsn string) (driver, source string, err error) {
	if rest, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		if rest == "" {
			return "", "", fmt.Errorf("dsn incomplete: sqlite path")
		}
		return DriverSQLite, rest, nil
	}
	source, err = toMySQLDSN(dsn)
	return DriverMySQL, source, err
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplete (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}
