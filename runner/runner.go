// Package runner creates the catalog schema and bulk loads an export into
// it. The whole load is one transaction: it commits once or not at all.
package runner

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/mzkit/backup"
	"github.com/ridoystarlord/mzkit/cleaner"
	"github.com/ridoystarlord/mzkit/coerce"
	"github.com/ridoystarlord/mzkit/database"
	"github.com/ridoystarlord/mzkit/generator"
	"github.com/ridoystarlord/mzkit/loader"
	"github.com/ridoystarlord/mzkit/schema"
)

// Phase is where a restore got to.
type Phase string

const (
	NotStarted  Phase = "NOT STARTED"
	SchemaReady Phase = "SCHEMA READY"
	Loading     Phase = "LOADING"
	Committed   Phase = "COMMITTED"
	RolledBack  Phase = "ROLLED BACK"
)

// Options tune a restore.
type Options struct {
	// StrictTimestamps fails the load on timestamp text without a GMT
	// offset instead of loading NULL.
	StrictTimestamps bool
	// SkipClean loads the export as is.
	SkipClean bool
	// KeepBackup leaves the export files as they were. By default the
	// cleaned files replace them.
	KeepBackup bool
}

// TableResult counts what happened to one file.
type TableResult struct {
	Table    string
	Rows     int
	Inserted int
	Skipped  int
}

// Result is the outcome of a restore.
type Result struct {
	Phase    Phase
	Tables   []TableResult
	Cleaning *cleaner.Report
}

// Inserted is the number of new rows across tables.
func (r *Result) Inserted() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Inserted
	}
	return n
}

// Skipped is the number of rows that already existed.
func (r *Result) Skipped() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Skipped
	}
	return n
}

// EnsureSchema creates every missing table in one transaction.
func EnsureSchema(ctx context.Context, db *database.DB, models []schema.Model) error {
	fmt.Println("🔧 Ensuring catalog tables exist...")
	stmts, err := generator.CreateSchemaSQL(models)
	if err != nil {
		return err
	}
	err = db.WithTx(ctx, func(tx *database.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create table %s: %w", models[i].TableName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("✅ %d tables ensured\n", len(stmts))
	return nil
}

// Load inserts every table of set in load order, inside one transaction.
// Rows whose key already exists are skipped. On any error nothing is kept
// and the returned Result is in phase RolledBack.
func Load(ctx context.Context, db *database.DB, set *backup.Set, models []schema.Model, opts Options) (*Result, error) {
	result := &Result{Phase: Loading}
	conv := coerce.Converter{StrictTimestamps: opts.StrictTimestamps}

	err := db.WithTx(ctx, func(tx *database.Tx) error {
		for _, name := range schema.LoadOrder() {
			table, err := set.Table(name)
			if err != nil {
				return err
			}
			model, ok := schema.Find(models, name)
			if !ok {
				return fmt.Errorf("no model for table %s", name)
			}
			tr, err := loadTable(ctx, tx, conv, model, table)
			if err != nil {
				return err
			}
			result.Tables = append(result.Tables, tr)
			fmt.Printf("📥 %s: %d rows, %d inserted, %d skipped\n", tr.Table, tr.Rows, tr.Inserted, tr.Skipped)
		}
		return nil
	})
	if err != nil {
		result.Phase = RolledBack
		return result, err
	}
	result.Phase = Committed
	return result, nil
}

func loadTable(ctx context.Context, tx *database.Tx, conv coerce.Converter, model schema.Model, table *loader.Table) (TableResult, error) {
	tr := TableResult{Table: model.TableName, Rows: len(table.Rows)}
	if len(table.Rows) == 0 {
		return tr, nil
	}
	cols, err := columnsFor(model, table.Header)
	if err != nil {
		return tr, err
	}

	stmt, err := tx.PrepareContext(ctx, generator.InsertSQL(model.TableName, table.Header, tx.Placeholder))
	if err != nil {
		return tr, fmt.Errorf("prepare insert into %s: %w", model.TableName, err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		args, err := convertRow(conv, cols, row)
		if err != nil {
			return tr, fmt.Errorf("%s row %d: %w", model.TableName, i+1, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return tr, fmt.Errorf("%s row %d: %w", model.TableName, i+1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return tr, fmt.Errorf("%s row %d: %w", model.TableName, i+1, err)
		}
		if n == 0 {
			tr.Skipped++
		} else {
			tr.Inserted++
		}
	}
	return tr, nil
}

// columnsFor maps a CSV header onto the model, rejecting unknown names.
func columnsFor(model schema.Model, header []string) ([]schema.Column, error) {
	cols := make([]schema.Column, len(header))
	for i, h := range header {
		c, ok := model.Column(h)
		if !ok {
			return nil, fmt.Errorf("%s: unknown column %q", model.TableName, h)
		}
		cols[i] = c
	}
	return cols, nil
}

func convertRow(conv coerce.Converter, cols []schema.Column, row []string) ([]interface{}, error) {
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		v, err := conv.Value(col, row[i])
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// Preview converts every row without touching a database, so a dry run
// reports the same conversion errors a real load would.
func Preview(set *backup.Set, models []schema.Model, opts Options) ([]TableResult, error) {
	conv := coerce.Converter{StrictTimestamps: opts.StrictTimestamps}
	var results []TableResult
	for _, name := range schema.LoadOrder() {
		table, err := set.Table(name)
		if err != nil {
			return results, err
		}
		model, ok := schema.Find(models, name)
		if !ok {
			return results, fmt.Errorf("no model for table %s", name)
		}
		tr := TableResult{Table: name, Rows: len(table.Rows)}
		if len(table.Rows) > 0 {
			cols, err := columnsFor(model, table.Header)
			if err != nil {
				return results, err
			}
			for i, row := range table.Rows {
				if _, err := convertRow(conv, cols, row); err != nil {
					return results, fmt.Errorf("%s row %d: %w", name, i+1, err)
				}
			}
		}
		results = append(results, tr)
	}
	return results, nil
}

// Restore cleans set, writes the cleaned files back unless KeepBackup is
// set, ensures the schema and loads it.
func Restore(ctx context.Context, db *database.DB, set *backup.Set, opts Options) (*Result, error) {
	result := &Result{Phase: NotStarted}

	if !opts.SkipClean {
		fmt.Println("🧹 Removing rows that reference trashed items...")
		report, err := cleaner.Clean(set)
		if err != nil {
			return result, fmt.Errorf("clean backup: %w", err)
		}
		result.Cleaning = report
		if !opts.KeepBackup {
			if err := cleaner.Persist(set); err != nil {
				return result, fmt.Errorf("write cleaned backup: %w", err)
			}
		}
	}

	models, err := schema.LoadModels()
	if err != nil {
		return result, err
	}
	if err := EnsureSchema(ctx, db, models); err != nil {
		return result, fmt.Errorf("ensure schema: %w", err)
	}
	result.Phase = SchemaReady

	loaded, err := Load(ctx, db, set, models, opts)
	result.Phase = loaded.Phase
	result.Tables = loaded.Tables
	return result, err
}
