package db

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/nimasrn/hacienda/migrations"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

func provider(sqlDB *sql.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case DriverSQLite, "":
		dialect, driver = goose.DialectSQLite3, DriverSQLite
	case DriverPostgres:
		dialect = goose.DialectPostgres
	default:
		return nil, errors.Errorf("unsupported db driver %q", driver)
	}
	sub, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, sqlDB, sub)
}

// MigrateSQL applies every pending embedded migration on a database/sql handle.
func MigrateSQL(ctx context.Context, sqlDB *sql.DB, driver string) error {
	p, err := provider(sqlDB, driver)
	if err != nil {
		return errors.Wrap(err, "migration provider")
	}
	results, err := p.Up(ctx)
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	for _, res := range results {
		logger.Info("[db] migration applied", "version", res.Source.Version, "path", res.Source.Path, "duration", res.Duration.String())
	}
	return nil
}

// Migrate brings the schema behind db up to date.
func (r *DB) Migrate(ctx context.Context) error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return MigrateSQL(ctx, sqlDB, r.dialect)
}

// MigrationStatus lists every known migration and whether it has been applied.
func MigrationStatus(ctx context.Context, sqlDB *sql.DB, driver string) ([]*goose.MigrationStatus, error) {
	p, err := provider(sqlDB, driver)
	if err != nil {
		return nil, err
	}
	return p.Status(ctx)
}
