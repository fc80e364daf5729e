// Package cleaner drops rows of an export that refer to trashed table
// items, and reports every row it drops.
package cleaner

import (
	"strings"

	"github.com/ridoystarlord/mzkit/backup"
	"github.com/ridoystarlord/mzkit/coerce"
	"github.com/ridoystarlord/mzkit/schema"
)

// Discard is one removed row.
type Discard struct {
	Key    string
	Reason string
}

// TableReport summarises what happened to one file.
type TableReport struct {
	Table     string
	Kept      int
	Discarded []Discard
}

// Report lists what Clean removed from each file it filtered.
type Report struct {
	Parameters TableReport
	Values     TableReport
}

// Total is the number of rows removed across files.
func (r *Report) Total() int {
	return len(r.Parameters.Discarded) + len(r.Values.Discarded)
}

// Tables returns the per-file reports in the order they were filtered.
func (r *Report) Tables() []TableReport {
	return []TableReport{r.Parameters, r.Values}
}

const (
	reasonTitleItem = "title item not in table_items"
	reasonItem      = "item not in table_items"
	reasonParameter = "parameter not in cleaned table_parameters"
)

// Clean filters table_parameters and table_values of set in memory.
// Parameters go first: values are then checked against the surviving
// parameters.
func Clean(set *backup.Set) (*Report, error) {
	items, err := set.Table(schema.TableItems)
	if err != nil {
		return nil, err
	}
	params, err := set.Table(schema.TableParameters)
	if err != nil {
		return nil, err
	}
	values, err := set.Table(schema.TableValues)
	if err != nil {
		return nil, err
	}

	itemIDCol, err := items.MustColumn("id")
	if err != nil {
		return nil, err
	}
	paramIDCol, err := params.MustColumn("id")
	if err != nil {
		return nil, err
	}
	titleItemCol, err := params.MustColumn("title_table_item_id")
	if err != nil {
		return nil, err
	}
	valueItemCol, err := values.MustColumn("table_item_id")
	if err != nil {
		return nil, err
	}
	valueParamCol, err := values.MustColumn("table_parameter_id")
	if err != nil {
		return nil, err
	}

	validItems := idSet(items.Rows, itemIDCol)

	report := &Report{
		Parameters: TableReport{Table: schema.TableParameters},
		Values:     TableReport{Table: schema.TableValues},
	}

	params.Filter(func(row []string) bool {
		ref := row[titleItemCol]
		if coerce.IsNA(ref) || validItems[key(ref)] {
			return true
		}
		report.Parameters.Discarded = append(report.Parameters.Discarded, Discard{Key: row[paramIDCol], Reason: reasonTitleItem})
		return false
	})
	report.Parameters.Kept = len(params.Rows)

	values.Filter(func(row []string) bool {
		if validItems[key(row[valueItemCol])] {
			return true
		}
		report.Values.Discarded = append(report.Values.Discarded, Discard{Key: valueKey(row, valueItemCol, valueParamCol), Reason: reasonItem})
		return false
	})

	validParams := idSet(params.Rows, paramIDCol)
	values.Filter(func(row []string) bool {
		if validParams[key(row[valueParamCol])] {
			return true
		}
		report.Values.Discarded = append(report.Values.Discarded, Discard{Key: valueKey(row, valueItemCol, valueParamCol), Reason: reasonParameter})
		return false
	})
	report.Values.Kept = len(values.Rows)

	return report, nil
}

// Persist writes the filtered files back over their sources.
func Persist(set *backup.Set) error {
	return set.Write(schema.TableParameters, schema.TableValues)
}

func idSet(rows [][]string, col int) map[string]bool {
	ids := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !coerce.IsNA(row[col]) {
			ids[key(row[col])] = true
		}
	}
	return ids
}

func key(id string) string {
	return strings.TrimSpace(id)
}

func valueKey(row []string, itemCol, paramCol int) string {
	return row[itemCol] + "/" + row[paramCol]
}
