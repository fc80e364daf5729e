package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// LoadModels reflects the catalog entities into models, in load order.
func LoadModels() ([]Model, error) {
	var result []Model

	for _, e := range entities {
		t := reflect.TypeOf(e.value)
		model := Model{
			TableName: e.table,
			Columns:   []Column{},
		}

		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			tag := field.Tag.Get("db")
			if tag == "" {
				continue
			}
			col, err := parseDBTag(field.Name, tag)
			if err != nil {
				return nil, fmt.Errorf("error parsing tag on %s.%s: %v", t.Name(), field.Name, err)
			}
			if col.Primary {
				model.PrimaryKey = append(model.PrimaryKey, col.Name)
			}
			model.Columns = append(model.Columns, col)
		}

		result = append(result, model)
	}

	return result, nil
}

func parseDBTag(fieldName, tag string) (Column, error) {
	parts := strings.Split(tag, ",")
	col := Column{
		Name: fieldName,
	}
	deferred := false
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case part == "primary":
			col.Primary = true
			col.NotNull = true
		case part == "notnull":
			col.NotNull = true
		case part == "deferred":
			deferred = true
		case strings.HasPrefix(part, "type:"):
			col.Type = ColumnType(strings.TrimPrefix(part, "type:"))
		case strings.HasPrefix(part, "references:"):
			ref := strings.TrimPrefix(part, "references:")
			table, column, ok := strings.Cut(ref, ".")
			if !ok || table == "" || column == "" {
				return Column{}, fmt.Errorf("references must be table.column, got %q", ref)
			}
			col.ForeignKey = &ForeignKey{ReferencesTable: table, ReferencesColumn: column}
		default:
			// assume it's the column name
			col.Name = part
		}
	}
	if col.Type == "" {
		return Column{}, fmt.Errorf("column %s has no type", col.Name)
	}
	if deferred {
		if col.ForeignKey == nil {
			return Column{}, fmt.Errorf("column %s is deferred but references nothing", col.Name)
		}
		col.ForeignKey.Deferrable = true
	}
	return col, nil
}
