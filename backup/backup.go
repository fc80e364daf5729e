// Package backup locates and reads a platform CSV export: one file per
// catalog table, named <table>.csv, in a single directory.
package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ridoystarlord/mzkit/loader"
)

// Set is the in-memory copy of an export, keyed by table name.
type Set struct {
	Dir    string
	Order  []string
	Tables map[string]*loader.Table
}

// FilePath is where a table's CSV lives inside an export directory.
func FilePath(dir, table string) string {
	return filepath.Join(dir, table+".csv")
}

// ReadSet reads the CSV of every named table from dir. All files must exist.
func ReadSet(dir string, tables []string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("backup directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("backup directory: %s is not a directory", dir)
	}

	set := &Set{Dir: dir, Order: tables, Tables: make(map[string]*loader.Table, len(tables))}
	for _, name := range tables {
		t, err := loader.ReadCSV(FilePath(dir, name))
		if err != nil {
			return nil, err
		}
		set.Tables[name] = t
	}
	return set, nil
}

// Table returns the named table or an error naming the missing file.
func (s *Set) Table(name string) (*loader.Table, error) {
	t, ok := s.Tables[name]
	if !ok {
		return nil, fmt.Errorf("backup has no %s", filepath.Base(FilePath(s.Dir, name)))
	}
	return t, nil
}

// Write persists the named tables back over their source files.
func (s *Set) Write(names ...string) error {
	for _, name := range names {
		t, err := s.Table(name)
		if err != nil {
			return err
		}
		if err := loader.WriteCSV(t); err != nil {
			return err
		}
	}
	return nil
}

// RowCount is the number of data rows across all tables.
func (s *Set) RowCount() int {
	n := 0
	for _, t := range s.Tables {
		n += len(t.Rows)
	}
	return n
}
