package validator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ridoystarlord/mzkit/backup"
	"github.com/ridoystarlord/mzkit/loader"
	"github.com/ridoystarlord/mzkit/schema"
)

// ValidationError represents a validation finding with details
type ValidationError struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}
}

func (r *ValidationResult) add(e ValidationError) {
	switch e.Severity {
	case "error":
		r.Errors = append(r.Errors, e)
	case "warning":
		r.Warnings = append(r.Warnings, e)
	default:
		r.Info = append(r.Info, e)
	}
	r.Valid = len(r.Errors) == 0
}

// ValidateBackup checks an export directory against the catalog models
// without touching a database: every file present, headers readable and
// naming only known columns, key columns present.
func ValidateBackup(dir string, models []schema.Model) *ValidationResult {
	result := newResult()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		result.add(ValidationError{
			Type:     "backup_dir",
			Message:  fmt.Sprintf("Backup directory '%s' does not exist", dir),
			Severity: "error",
		})
		return result
	}

	for _, model := range models {
		validateFile(dir, model, result)
	}
	return result
}

func validateFile(dir string, model schema.Model, result *ValidationResult) {
	path := backup.FilePath(dir, model.TableName)
	header, err := loader.ReadCSVHeader(path)
	if err != nil {
		kind, msg := "unreadable_file", fmt.Sprintf("Cannot read '%s': %v", path, err)
		if errors.Is(err, fs.ErrNotExist) {
			kind, msg = "missing_file", fmt.Sprintf("Missing file '%s'", path)
		}
		result.add(ValidationError{
			Type:     kind,
			Table:    model.TableName,
			Message:  msg,
			Severity: "error",
		})
		return
	}
	if len(header) == 0 || (len(header) == 1 && strings.TrimSpace(header[0]) == "") {
		result.add(ValidationError{
			Type:     "empty_header",
			Table:    model.TableName,
			Message:  fmt.Sprintf("File '%s' has no header row", path),
			Severity: "error",
		})
		return
	}

	seen := make(map[string]bool)
	for _, name := range header {
		if seen[name] {
			result.add(ValidationError{
				Type:     "duplicate_column",
				Table:    model.TableName,
				Column:   name,
				Message:  fmt.Sprintf("Duplicate column '%s' in '%s'", name, path),
				Severity: "error",
			})
			continue
		}
		seen[name] = true

		if _, ok := model.Column(name); !ok {
			result.add(ValidationError{
				Type:     "unknown_column",
				Table:    model.TableName,
				Column:   name,
				Message:  fmt.Sprintf("Column '%s' is not a column of table '%s'", name, model.TableName),
				Severity: "error",
			})
		}
	}

	for _, col := range model.Columns {
		if seen[col.Name] {
			continue
		}
		if col.Primary {
			result.add(ValidationError{
				Type:     "missing_key_column",
				Table:    model.TableName,
				Column:   col.Name,
				Message:  fmt.Sprintf("Key column '%s' is missing from '%s'", col.Name, path),
				Severity: "error",
			})
			continue
		}
		result.add(ValidationError{
			Type:     "missing_column",
			Table:    model.TableName,
			Column:   col.Name,
			Message:  fmt.Sprintf("Column '%s' is absent and will load as NULL", col.Name),
			Severity: "info",
		})
	}
}

// ValidateModels checks the catalog models themselves: identifier rules,
// primary keys, and foreign keys pointing at tables created earlier.
func ValidateModels(models []schema.Model) *ValidationResult {
	result := newResult()

	created := make(map[string]schema.Model)
	for _, model := range models {
		if err := validateIdentifier("table", model.TableName); err != nil {
			result.add(ValidationError{Type: "table_name", Table: model.TableName, Message: err.Error(), Severity: "error"})
		}
		if len(model.PrimaryKey) == 0 {
			result.add(ValidationError{
				Type:     "no_primary_key",
				Table:    model.TableName,
				Message:  fmt.Sprintf("Table '%s' has no primary key; conflicting rows cannot be skipped", model.TableName),
				Severity: "warning",
			})
		}

		for _, column := range model.Columns {
			if err := validateIdentifier("column", column.Name); err != nil {
				result.add(ValidationError{Type: "column_name", Table: model.TableName, Column: column.Name, Message: err.Error(), Severity: "error"})
			}
			fk := column.ForeignKey
			if fk == nil {
				continue
			}
			target, ok := created[fk.ReferencesTable]
			if fk.ReferencesTable == model.TableName {
				target, ok = model, true
			}
			if !ok {
				result.add(ValidationError{
					Type:     "foreign_key_table_not_found",
					Table:    model.TableName,
					Column:   column.Name,
					Message:  fmt.Sprintf("Foreign key references table '%s', which is not created before '%s'", fk.ReferencesTable, model.TableName),
					Severity: "error",
				})
				continue
			}
			if _, exists := target.Column(fk.ReferencesColumn); !exists {
				result.add(ValidationError{
					Type:     "foreign_key_column_not_found",
					Table:    model.TableName,
					Column:   column.Name,
					Message:  fmt.Sprintf("Foreign key references non-existent column '%s' in table '%s'", fk.ReferencesColumn, fk.ReferencesTable),
					Severity: "error",
				})
			}
		}
		created[model.TableName] = model
	}
	return result
}

func validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", kind, name)
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}
	return nil
}
