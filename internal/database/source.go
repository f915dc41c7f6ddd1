package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Source identifies a database the schema can be harvested from
type Source struct {
	Name   string
	Driver string
	DSN    string
}

// NormalizeDriver maps common driver spellings to a supported driver name
func NormalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg", "pq":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported driver %q (want postgres, mysql or sqlite)", name)
}

// NewSource builds a source, normalizing the driver name. Postgres URLs
// (postgres://...) are converted to lib/pq key=value form.
func NewSource(name, driver, dsn string) (Source, error) {
	d, err := NormalizeDriver(driver)
	if err != nil {
		return Source{}, err
	}
	if d == DriverPostgres && (strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")) {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return Source{}, fmt.Errorf("invalid postgres URL: %w", err)
		}
		dsn = converted
	}
	if d == DriverMySQL {
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return Source{}, fmt.Errorf("invalid mysql DSN: %w", err)
		}
	}
	if name == "" {
		name = d
	}
	return Source{Name: name, Driver: d, DSN: dsn}, nil
}

// Open connects to the source and verifies the connection
func (s Source) Open(ctx context.Context) (*sql.DB, error) {
	driver, err := NormalizeDriver(s.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", s.Name, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", s.Name, err)
	}

	return db, nil
}

// Describe renders the connection target without credentials
func (s Source) Describe() string {
	switch s.Driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(s.DSN)
		if err != nil {
			return s.Name + " (mysql)"
		}
		return fmt.Sprintf("%s (mysql %s@%s/%s)", s.Name, cfg.User, cfg.Addr, cfg.DBName)
	case DriverPostgres:
		var host, db, user string
		for _, part := range strings.Fields(s.DSN) {
			k, v, _ := strings.Cut(part, "=")
			switch k {
			case "host":
				host = v
			case "dbname":
				db = v
			case "user":
				user = v
			}
		}
		return fmt.Sprintf("%s (postgres %s@%s/%s)", s.Name, user, host, db)
	case DriverSQLite:
		return fmt.Sprintf("%s (sqlite %s)", s.Name, s.DSN)
	}
	return s.Name
}
