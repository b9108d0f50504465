package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type PostgresConfig struct {
	User     string `env:"USER"`
	Host     string `env:"HOST"`
	Port     string `env:"PORT"`
	Password string `env:"PASSWORD"`
	Database string `env:"DBNAME"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", c.Host, c.User, c.Password, c.Database, c.Port)
}

type Config struct {
	Driver string
	// sqlite file path, ":memory:" works for throwaway stores
	Path     string
	Postgres PostgresConfig
	// optional postgres replica used by Read
	ReadReplica *PostgresConfig
	Debug       bool
}

func sqliteDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// OpenSQL opens a plain database/sql handle for the configured driver, used by
// the migration runner.
func OpenSQL(cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return sql.Open("sqlite3", sqliteDSN(cfg.Path))
	case DriverPostgres:
		return sql.Open("postgres", cfg.Postgres.DSN())
	}
	return nil, errors.Errorf("unsupported db driver %q", cfg.Driver)
}
