// Package database opens the restore target and runs work inside a single
// transaction. Postgres is reached through the pgx stdlib driver; a local
// SQLite file is supported for dry restores and tests.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ridoystarlord/mzkit/config"
	_ "modernc.org/sqlite"
)

// ErrUnknownDriver is returned by Open for a driver it cannot map.
var ErrUnknownDriver = errors.New("unknown database driver")

// DB is an open restore target.
type DB struct {
	*sql.DB
	Driver string
}

// Open connects to the configured database and pings it.
func Open(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	var sqlDriver string
	switch cfg.Driver {
	case config.DriverPostgres:
		sqlDriver = "pgx"
	case config.DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	conn, err := sql.Open(sqlDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// The restore is a single transaction; one connection is all it uses.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &DB{DB: conn, Driver: cfg.Driver}, nil
}

// Placeholder renders the n-th (1-based) bind parameter for the driver.
func Placeholder(driver string, n int) string {
	if driver == config.DriverSQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Placeholder renders the n-th bind parameter for this database.
func (db *DB) Placeholder(n int) string {
	return Placeholder(db.Driver, n)
}

// Tx is a transaction that remembers its driver.
type Tx struct {
	*sql.Tx
	Driver string
}

// Placeholder renders the n-th bind parameter for this transaction.
func (tx *Tx) Placeholder(n int) string {
	return Placeholder(tx.Driver, n)
}

// WithTx runs fn in a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including on panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{Tx: sqlTx, Driver: db.Driver}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
