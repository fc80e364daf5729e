package generator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/mzkit/schema"
)

// CreateSchemaSQL renders one idempotent CREATE TABLE statement per model, in
// the order given. Referenced tables must come first.
func CreateSchemaSQL(models []schema.Model) ([]string, error) {
	var sqlStatements []string
	for _, m := range models {
		stmt, err := CreateTableSQL(m)
		if err != nil {
			return nil, fmt.Errorf("generate CREATE TABLE %s: %v", m.TableName, err)
		}
		sqlStatements = append(sqlStatements, stmt)
	}
	return sqlStatements, nil
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for one model, with the
// primary key and foreign keys declared as table constraints.
func CreateTableSQL(m schema.Model) (string, error) {
	if m.TableName == "" {
		return "", fmt.Errorf("model has no table name")
	}
	if len(m.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", m.TableName)
	}

	var defs []string
	for _, col := range m.Columns {
		if col.Type == "" {
			return "", fmt.Errorf("column %s.%s has no type", m.TableName, col.Name)
		}
		def := fmt.Sprintf(`%s %s`, QuoteIdent(col.Name), col.Type)
		if col.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if len(m.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(m.PrimaryKey)))
	}

	for _, col := range m.Columns {
		fk := col.ForeignKey
		if fk == nil {
			continue
		}
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			QuoteIdent(col.Name),
			QuoteIdent(fk.ReferencesTable),
			QuoteIdent(fk.ReferencesColumn),
		)
		if fk.Deferrable {
			def += " DEFERRABLE INITIALLY DEFERRED"
		}
		defs = append(defs, def)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		QuoteIdent(m.TableName),
		strings.Join(defs, ",\n    "),
	), nil
}

// InsertSQL renders an insert that leaves existing rows alone when a key
// conflicts. placeholder maps the 1-based argument position to driver syntax.
func InsertSQL(table string, columns []string, placeholder func(int) string) string {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		QuoteIdent(table),
		quoteList(columns),
		strings.Join(marks, ", "),
	)
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
