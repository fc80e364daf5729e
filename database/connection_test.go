package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ridoystarlord/mzkit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", Placeholder(config.DriverPostgres, 3))
	assert.Equal(t, "?", Placeholder(config.DriverSQLite, 3))
}

func TestWithTxCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	_, err := db.Exec(`CREATE TABLE notes (body TEXT)`)
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO notes (body) VALUES (`+tx.Placeholder(1)+`)`, "kept")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notes (body) VALUES (?)`, "lost"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count(t, db))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	_, err := db.Exec(`CREATE TABLE notes (body TEXT)`)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(tx *Tx) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO notes (body) VALUES (?)`, "lost")
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, count(t, db))
}
