package schema

// Model describes one table of the restored catalog.
type Model struct {
	TableName  string
	Columns    []Column
	PrimaryKey []string
}

type Column struct {
	Name       string
	Type       ColumnType
	Primary    bool
	NotNull    bool
	ForeignKey *ForeignKey
}

type ForeignKey struct {
	ReferencesTable  string
	ReferencesColumn string
	// Deferrable constraints are checked at commit, not per statement.
	Deferrable bool
}

type ColumnType string

const (
	UUID      ColumnType = "UUID"
	Text      ColumnType = "TEXT"
	Integer   ColumnType = "INTEGER"
	Float     ColumnType = "FLOAT"
	Boolean   ColumnType = "BOOLEAN"
	Timestamp ColumnType = "TIMESTAMP"
)

// Column returns the named column and whether it exists.
func (m Model) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames lists the columns in declaration order.
func (m Model) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Find returns the model for a table name.
func Find(models []Model, table string) (Model, bool) {
	for _, m := range models {
		if m.TableName == table {
			return m, true
		}
	}
	return Model{}, false
}
