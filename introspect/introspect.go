// Package introspect reports what a restore target already holds.
package introspect

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/mzkit/config"
	"github.com/ridoystarlord/mzkit/database"
	"github.com/ridoystarlord/mzkit/generator"
	"github.com/ridoystarlord/mzkit/schema"
)

// TableStatus is the state of one catalog table in the database.
type TableStatus struct {
	Name           string
	Exists         bool
	Rows           int64
	MissingColumns []string
}

// ExistingTables lists the base tables of the target database.
func ExistingTables(ctx context.Context, db *database.DB) (map[string]bool, error) {
	query := `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
	ORDER BY table_name;
	`
	if db.Driver == config.DriverSQLite {
		query = `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name;`
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	tables := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table rows: %w", err)
	}
	return tables, nil
}

// Inspect reports existence, row count and missing columns for each model.
func Inspect(ctx context.Context, db *database.DB, models []schema.Model) ([]TableStatus, error) {
	existing, err := ExistingTables(ctx, db)
	if err != nil {
		return nil, err
	}

	statuses := make([]TableStatus, 0, len(models))
	for _, m := range models {
		st := TableStatus{Name: m.TableName, Exists: existing[m.TableName]}
		if st.Exists {
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+generator.QuoteIdent(m.TableName)).Scan(&st.Rows); err != nil {
				return nil, fmt.Errorf("counting rows of %s: %w", m.TableName, err)
			}
			cols, err := columns(ctx, db, m.TableName)
			if err != nil {
				return nil, err
			}
			for _, want := range m.ColumnNames() {
				if !cols[want] {
					st.MissingColumns = append(st.MissingColumns, want)
				}
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func columns(ctx context.Context, db *database.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+generator.QuoteIdent(table)+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("querying columns of %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}
