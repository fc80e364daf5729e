package loader

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadSheet reads one worksheet as a Table: the first row is the header, and
// short rows are padded to the header width.
func ReadSheet(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s of %s is empty", sheet, path)
	}

	t := &Table{Path: path, Header: rows[0]}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		padded := make([]string, len(t.Header))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t, nil
}
