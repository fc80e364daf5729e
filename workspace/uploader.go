// Package workspace builds platform tables from a workbook: it recreates
// the tables named in an upload layout, uploads one item per sheet row and
// attaches analysed measurement files.
package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ridoystarlord/mzkit/coerce"
	"github.com/ridoystarlord/mzkit/loader"
	"github.com/ridoystarlord/mzkit/mzapi"
)

// API is the part of the platform client the uploader needs.
type API interface {
	FindFolder(ctx context.Context, title string) (*mzapi.Folder, error)
	TablesInFolder(ctx context.Context, folderID string) ([]mzapi.Table, error)
	CreateTable(ctx context.Context, folderID, title string) (string, error)
	DeleteTable(ctx context.Context, tableID string) error
	CreateProtocol(ctx context.Context, tableID, title string) (string, error)
	CreateFormulationProtocol(ctx context.Context, tableID, title, unit string, titleTableIDs []string) (string, error)
	CreateParameter(ctx context.Context, protocolID, title, unit string) (string, error)
	CreateItem(ctx context.Context, tableID, title string, values []mzapi.Value) (*mzapi.Item, error)
	UpdateItem(ctx context.Context, itemID string, values []mzapi.Value) (*mzapi.Item, error)
	CreateMeasurement(ctx context.Context, itemID, title, parserCode, filename string, content io.Reader) (*mzapi.Measurement, error)
}

// Uploader runs one layout against the platform. Relative paths in the
// layout are resolved against BaseDir.
type Uploader struct {
	API     API
	Layout  *loader.Layout
	BaseDir string
}

// Summary counts what an upload created.
type Summary struct {
	Tables       map[string]string
	Deleted      int
	Items        int
	Measurements int
	Skipped      []string
}

type formulation struct {
	protocolID string
	sources    []string
}

type createdTable struct {
	id           string
	parameters   map[string]string // sheet column -> parameter id
	formulations []formulation
	items        map[string]string // item title -> item id
}

// Run performs the whole upload. It stops at the first API error; tables
// created before it are left in place and are replaced by the next run.
func (u *Uploader) Run(ctx context.Context) (*Summary, error) {
	l := u.Layout
	summary := &Summary{Tables: map[string]string{}}

	folder, err := u.API.FindFolder(ctx, l.Folder)
	if err != nil {
		return summary, err
	}
	fmt.Printf("📁 Found folder %s with id %s\n", folder.Title, folder.ID)

	deleted, err := u.deleteExisting(ctx, folder.ID)
	summary.Deleted = deleted
	if err != nil {
		return summary, err
	}

	tables := map[string]*createdTable{}
	for _, tl := range l.Tables {
		ct, err := u.createTable(ctx, folder.ID, tl, tables)
		if err != nil {
			return summary, err
		}
		tables[tl.Title] = ct
		summary.Tables[tl.Title] = ct.id
	}

	for _, tl := range l.Tables {
		n, err := u.uploadItems(ctx, tl, tables)
		summary.Items += n
		if err != nil {
			return summary, err
		}
	}

	if l.Measurements != nil {
		if err := u.uploadMeasurements(ctx, tables, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// deleteExisting removes the layout's tables from the folder, last
// declared first, since later tables may draw items from earlier ones.
func (u *Uploader) deleteExisting(ctx context.Context, folderID string) (int, error) {
	existing, err := u.API.TablesInFolder(ctx, folderID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for i := len(u.Layout.Tables) - 1; i >= 0; i-- {
		title := u.Layout.Tables[i].Title
		for _, t := range existing {
			if t.Title != title {
				continue
			}
			if err := u.API.DeleteTable(ctx, t.ID); err != nil {
				return deleted, err
			}
			fmt.Printf("🗑️  Deleted table %s (%s)\n", t.Title, t.ID)
			deleted++
		}
	}
	return deleted, nil
}

func (u *Uploader) createTable(ctx context.Context, folderID string, tl loader.TableLayout, earlier map[string]*createdTable) (*createdTable, error) {
	id, err := u.API.CreateTable(ctx, folderID, tl.Title)
	if err != nil {
		return nil, err
	}
	fmt.Printf("✅ Created table %s with id %s\n", tl.Title, id)
	ct := &createdTable{id: id, parameters: map[string]string{}, items: map[string]string{}}

	for _, pl := range tl.Protocols {
		switch pl.Type {
		case loader.ProtocolTypeProtocol:
			protocolID, err := u.API.CreateProtocol(ctx, id, pl.Title)
			if err != nil {
				return nil, err
			}
			for _, param := range pl.Parameters {
				paramID, err := u.API.CreateParameter(ctx, protocolID, param.Title, param.Unit)
				if err != nil {
					return nil, err
				}
				ct.parameters[param.Column] = paramID
			}
		case loader.ProtocolTypeFormulation:
			var sourceIDs []string
			for _, src := range pl.Sources {
				sourceIDs = append(sourceIDs, earlier[src].id)
			}
			protocolID, err := u.API.CreateFormulationProtocol(ctx, id, pl.Title, pl.Unit, sourceIDs)
			if err != nil {
				return nil, err
			}
			ct.formulations = append(ct.formulations, formulation{protocolID: protocolID, sources: pl.Sources})
		}
		fmt.Printf("   🔧 Protocol %s ready\n", pl.Title)
	}
	return ct, nil
}

func (u *Uploader) uploadItems(ctx context.Context, tl loader.TableLayout, tables map[string]*createdTable) (int, error) {
	sheet, err := loader.ReadSheet(u.path(u.Layout.Workbook), tl.SheetName())
	if err != nil {
		return 0, err
	}
	titleCol, err := sheet.MustColumn(tl.ItemColumn)
	if err != nil {
		return 0, err
	}

	ct := tables[tl.Title]
	uploaded := 0
	for _, row := range sheet.Rows {
		title := strings.TrimSpace(row[titleCol])
		if title == "" {
			continue
		}
		values := rowValues(sheet.Header, row, ct, tables)
		item, err := u.API.CreateItem(ctx, ct.id, title, values)
		if err != nil {
			return uploaded, err
		}
		ct.items[item.Title] = item.ID
		uploaded++
	}
	fmt.Printf("📤 Uploaded %d items to %s\n", uploaded, tl.Title)
	return uploaded, nil
}

// rowValues maps a sheet row to item values. Mapped columns become
// parameter values; a column named after an ingredient item becomes a
// formulation value when it holds a non-zero amount.
func rowValues(header, row []string, ct *createdTable, tables map[string]*createdTable) []mzapi.Value {
	var values []mzapi.Value
	for i, col := range header {
		cell := strings.TrimSpace(row[i])
		if paramID, ok := ct.parameters[col]; ok {
			if !coerce.IsNA(cell) {
				values = append(values, mzapi.Value{ParameterID: paramID, Value: cell})
			}
			continue
		}
		if !isAmount(cell) {
			continue
		}
		for _, f := range ct.formulations {
			if itemID, ok := ingredient(col, f, tables); ok {
				values = append(values, mzapi.Value{FormulationProtocolID: f.protocolID, FormulationItemID: itemID, Value: cell})
				break
			}
		}
	}
	return values
}

func ingredient(col string, f formulation, tables map[string]*createdTable) (string, bool) {
	for _, src := range f.sources {
		if id, ok := tables[src].items[col]; ok {
			return id, true
		}
	}
	return "", false
}

func isAmount(cell string) bool {
	if coerce.IsNA(cell) {
		return false
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && f == 0 {
		return false
	}
	return true
}

var fileNumber = regexp.MustCompile(`\d+`)

func (u *Uploader) uploadMeasurements(ctx context.Context, tables map[string]*createdTable, summary *Summary) error {
	m := u.Layout.Measurements
	ct := tables[m.Table]

	paths, err := filepath.Glob(u.path(m.Glob))
	if err != nil {
		return fmt.Errorf("measurements glob %q: %w", m.Glob, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		name := filepath.Base(path)
		digits := fileNumber.FindString(name)
		if digits == "" {
			summary.Skipped = append(summary.Skipped, name+": no number in file name")
			continue
		}
		n, _ := strconv.Atoi(digits)
		title := fmt.Sprintf(m.ItemTitle, n)
		itemID, ok := ct.items[title]
		if !ok {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("%s: no item %s in %s", name, title, m.Table))
			continue
		}

		xs, ys, err := readSeries(path)
		if err != nil {
			return err
		}
		peak, ok := PeakX(xs, ys)
		if !ok {
			summary.Skipped = append(summary.Skipped, name+": no peak")
			continue
		}

		if m.ParameterColumn != "" {
			paramID, ok := ct.parameters[m.ParameterColumn]
			if !ok {
				return fmt.Errorf("measurements: %s has no parameter for column %q", m.Table, m.ParameterColumn)
			}
			value := mzapi.Value{ParameterID: paramID, Value: strconv.FormatFloat(peak, 'f', -1, 64)}
			if _, err := u.API.UpdateItem(ctx, itemID, []mzapi.Value{value}); err != nil {
				return err
			}
		}

		if err := u.attach(ctx, itemID, path); err != nil {
			return err
		}
		fmt.Printf("📊 %s: peak at %s, attached to %s\n", name, strconv.FormatFloat(peak, 'f', -1, 64), title)
		summary.Measurements++
	}
	return nil
}

func (u *Uploader) attach(ctx context.Context, itemID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open measurement: %w", err)
	}
	defer f.Close()
	m := u.Layout.Measurements
	_, err = u.API.CreateMeasurement(ctx, itemID, m.Title, m.ParserCode, filepath.Base(path), f)
	return err
}

// readSeries reads the first two columns of a measurement CSV as numbers.
func readSeries(path string) ([]float64, []float64, error) {
	t, err := loader.ReadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if len(t.Header) < 2 {
		return nil, nil, fmt.Errorf("%s: need at least two columns", path)
	}
	xs := make([]float64, 0, len(t.Rows))
	ys := make([]float64, 0, len(t.Rows))
	for i, row := range t.Rows {
		x, errX := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if errX != nil || errY != nil {
			return nil, nil, fmt.Errorf("%s row %d: non-numeric value", path, i+1)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}

func (u *Uploader) path(p string) string {
	if filepath.IsAbs(p) || u.BaseDir == "" {
		return p
	}
	return filepath.Join(u.BaseDir, p)
}
