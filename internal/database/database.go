// Package database centralises sqlx connection helpers.  Two drivers are
// supported:
//
//	mysql   go-sql-driver/mysql; production, also MariaDB.
//	sqlite  glebarez/go-sqlite (pure Go); local runs and tests.
//
// Public entry points:
//
//	Open(driver, dsn)                            conservative pool sizes.
//	OpenWithOptions(driver, dsn, maxOpen, maxIdle) fine-grained control.
//	OpenMemory(ctx)                              migrated in-memory SQLite.
//
// Every helper Pings before returning so callers fail fast during
// bootstrap.  Callers Close() the returned *sqlx.DB.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/bistro/internal/schema"
)

func init() {
	// sqlx only knows "sqlite3" out of the box.
	sqlx.BindDriver(string(schema.SQLite), sqlx.QUESTION)
}

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(driver, dsn, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle.  SQLite is always
// pinned to one connection: writers would otherwise see "database is
// locked", and `:memory:` databases exist per connection.
func OpenWithOptions(driver, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	switch schema.Dialect(driver) {
	case schema.MySQL:
	case schema.SQLite:
		maxOpen, maxIdle = 1, 1
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if schema.Dialect(driver) == schema.MySQL {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory returns a migrated in-memory SQLite database built from the
// default registry.  Used by tests and `-memory` dev runs.
func OpenMemory(ctx context.Context) (*sqlx.DB, error) {
	db, err := OpenWithOptions(string(schema.SQLite), ":memory:", 1, 1)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, schema.Default()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
