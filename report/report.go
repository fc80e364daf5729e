// Package report renders the values of one catalog table as a wide sheet:
// one row per item, one column per protocol parameter.
package report

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/ridoystarlord/mzkit/database"
)

const valuesQuery = `
SELECT
	ti.title,
	tp.title,
	tp.rank,
	par.title,
	tti.title,
	par.rank,
	tv.quantity,
	tv."text",
	tv."boolean",
	ev.value,
	li.title
FROM table_values tv
JOIN table_items ti ON ti.id = tv.table_item_id
JOIN table_parameters par ON par.id = tv.table_parameter_id
JOIN table_protocols tp ON tp.id = par.table_protocol_id
LEFT JOIN table_items tti ON tti.id = par.title_table_item_id
LEFT JOIN table_parameter_enum_values ev ON ev.id = tv.enum_value
LEFT JOIN table_items li ON li.id = tv.link
WHERE ti.table_id = %s AND tp.table_id = ti.table_id
ORDER BY ti.title, tp.rank, par.rank
`

// Cell is one value of the long form.
type Cell struct {
	Item          string
	Protocol      string
	ProtocolRank  int64
	Parameter     string
	ParameterRank int64
	Value         string
}

// Column returns the wide column label of the cell.
func (c Cell) Column() string {
	return c.Protocol + " | " + c.Parameter
}

// Row is one item of the wide form.
type Row struct {
	Item   string
	Values map[string]string
}

// Report is a table pivoted to one row per item.
type Report struct {
	Columns []string
	Rows    []Row
}

// Build loads the values of a table and pivots them.
func Build(ctx context.Context, db *database.DB, tableID string) (*Report, error) {
	cells, err := Cells(ctx, db, tableID)
	if err != nil {
		return nil, err
	}
	return Pivot(cells), nil
}

// Cells loads the long form of a table, ordered by item, protocol rank and
// parameter rank.
func Cells(ctx context.Context, db *database.DB, tableID string) ([]Cell, error) {
	id, err := uuid.Parse(tableID)
	if err != nil {
		return nil, fmt.Errorf("invalid table id %q: %w", tableID, err)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(valuesQuery, db.Placeholder(1)), id.String())
	if err != nil {
		return nil, fmt.Errorf("querying table values: %w", err)
	}
	defer rows.Close()

	var cells []Cell
	for rows.Next() {
		var (
			item, protocol, parameter, titleItem, text, enum, link sql.NullString
			protocolRank, parameterRank                            sql.NullInt64
			quantity                                               sql.NullFloat64
			boolean                                                sql.NullBool
		)
		if err := rows.Scan(&item, &protocol, &protocolRank, &parameter, &titleItem, &parameterRank,
			&quantity, &text, &boolean, &enum, &link); err != nil {
			return nil, fmt.Errorf("scanning table value: %w", err)
		}

		label := parameter.String
		if !parameter.Valid || label == "" {
			label = titleItem.String
		}
		cells = append(cells, Cell{
			Item:          item.String,
			Protocol:      protocol.String,
			ProtocolRank:  protocolRank.Int64,
			Parameter:     label,
			ParameterRank: parameterRank.Int64,
			Value:         firstValue(quantity, text, boolean, enum, link),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table values: %w", err)
	}
	return cells, nil
}

// firstValue picks the first populated value column, in the order
// quantity, text, boolean, enum value, linked item title.
func firstValue(quantity sql.NullFloat64, text sql.NullString, boolean sql.NullBool, enum, link sql.NullString) string {
	switch {
	case quantity.Valid:
		return strconv.FormatFloat(quantity.Float64, 'g', -1, 64)
	case text.Valid:
		return text.String
	case boolean.Valid:
		return strconv.FormatBool(boolean.Bool)
	case enum.Valid:
		return enum.String
	case link.Valid:
		return link.String
	}
	return ""
}

// Pivot turns cells into the wide form. Columns are ordered by protocol
// rank, parameter rank, then names; the first value for a cell wins.
func Pivot(cells []Cell) *Report {
	type columnKey struct {
		protocolRank, parameterRank int64
		protocol, parameter         string
	}
	keys := map[string]columnKey{}
	rowIndex := map[string]int{}
	r := &Report{}

	for _, c := range cells {
		col := c.Column()
		if _, ok := keys[col]; !ok {
			keys[col] = columnKey{c.ProtocolRank, c.ParameterRank, c.Protocol, c.Parameter}
			r.Columns = append(r.Columns, col)
		}
		i, ok := rowIndex[c.Item]
		if !ok {
			i = len(r.Rows)
			rowIndex[c.Item] = i
			r.Rows = append(r.Rows, Row{Item: c.Item, Values: map[string]string{}})
		}
		if _, seen := r.Rows[i].Values[col]; !seen {
			r.Rows[i].Values[col] = c.Value
		}
	}

	sort.SliceStable(r.Columns, func(i, j int) bool {
		a, b := keys[r.Columns[i]], keys[r.Columns[j]]
		if a.protocolRank != b.protocolRank {
			return a.protocolRank < b.protocolRank
		}
		if a.parameterRank != b.parameterRank {
			return a.parameterRank < b.parameterRank
		}
		if a.protocol != b.protocol {
			return a.protocol < b.protocol
		}
		return a.parameter < b.parameter
	})
	sort.SliceStable(r.Rows, func(i, j int) bool { return r.Rows[i].Item < r.Rows[j].Item })
	return r
}

func (r *Report) record(row Row) []string {
	rec := make([]string, 0, len(r.Columns)+1)
	rec = append(rec, row.Item)
	for _, col := range r.Columns {
		rec = append(rec, row.Values[col])
	}
	return rec
}

// WriteCSV writes the report with an "item" first column.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"item"}, r.Columns...)); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(r.record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes the report as aligned columns.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(append([]string{"item"}, r.Columns...), "\t"))
	for _, row := range r.Rows {
		fmt.Fprintln(tw, strings.Join(r.record(row), "\t"))
	}
	return tw.Flush()
}
