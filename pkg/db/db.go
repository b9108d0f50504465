package db

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type txContextKey string

const txKey txContextKey = "trx"

type DB struct {
	read    *gorm.DB
	write   *gorm.DB
	dialect string
}

func open(dialector gorm.Dialector, withDebug bool) (*gorm.DB, error) {
	g, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if withDebug {
		g = g.Debug()
	}
	return g, nil
}

// Open connects to the configured store. SQLite handles are capped at one
// connection so every statement serializes through it.
func Open(cfg Config) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		g, err := open(sqlite.Open(sqliteDSN(cfg.Path)), cfg.Debug)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		sqlDB, err := g.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return &DB{read: g, write: g, dialect: DriverSQLite}, nil

	case DriverPostgres:
		write, err := open(postgres.Open(cfg.Postgres.DSN()), cfg.Debug)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		read := write
		if cfg.ReadReplica != nil {
			read, err = open(postgres.Open(cfg.ReadReplica.DSN()), cfg.Debug)
			if err != nil {
				return nil, errors.Wrap(err, "open postgres replica")
			}
		}
		return &DB{read: read, write: write, dialect: DriverPostgres}, nil
	}
	return nil, errors.Errorf("unsupported db driver %q", cfg.Driver)
}

// FromGorm wraps an already opened gorm handle.
func FromGorm(g *gorm.DB, dialect string) *DB {
	return &DB{read: g, write: g, dialect: dialect}
}

func (r *DB) Dialect() string {
	return r.dialect
}

func (r *DB) Close() error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	if r.read != r.write {
		if rdb, err := r.read.DB(); err == nil {
			return rdb.Close()
		}
	}
	return nil
}

// WithinTransaction runs fn inside a transaction carried by ctx. Nested calls
// reuse the outer transaction.
func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.write.WithContext(ctx)
}

func (r *DB) Read(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.read.WithContext(ctx)
}

func (r *DB) Ping(ctx context.Context) error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
