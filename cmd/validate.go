package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/ridoystarlord/mzkit/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a backup directory against the catalog tables",
	Long: `Validate a backup directory before restoring it. No database is needed.

This command checks:
- Every catalog file is present and has a header row
- Every header column is a column of its table
- Key and foreign key columns are present
- Header columns are not repeated
- The catalog definition itself (identifiers, keys, references)

Examples:
  mzkit validate                        # Validate backup/database
  mzkit validate --dir exports/june     # Validate another directory
  mzkit validate --format json          # Output validation results as JSON
`,
	Run: func(cmd *cobra.Command, args []string) {
		valid, err := validateBackupDir()
		if err != nil {
			fmt.Printf("❌ Backup validation failed: %v\n", err)
			os.Exit(1)
		}
		if !valid {
			os.Exit(1)
		}
	},
}

var (
	validateDir    string
	validateFormat string
)

func init() {
	validateCmd.Flags().StringVarP(&validateDir, "dir", "d", "", "Backup directory (default from config, backup/database)")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateBackupDir() (bool, error) {
	models, err := schema.LoadModels()
	if err != nil {
		return false, fmt.Errorf("failed to load models: %w", err)
	}

	dir := validateDir
	if dir == "" {
		dir = mustConfig().Backup.Dir
	}

	result := validator.ValidateModels(models)
	merge(result, validator.ValidateBackup(dir, models))

	if validateFormat == "json" {
		return result.Valid, outputJSON(result)
	}
	return result.Valid, outputText(dir, result)
}

func merge(into, from *validator.ValidationResult) {
	into.Errors = append(into.Errors, from.Errors...)
	into.Warnings = append(into.Warnings, from.Warnings...)
	into.Info = append(into.Info, from.Info...)
	into.Valid = len(into.Errors) == 0
}

func outputJSON(result *validator.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(dir string, result *validator.ValidationResult) error {
	if result.Valid {
		color.Green("✅ Backup validation passed: %s", dir)
	} else {
		color.Red("❌ Backup validation failed: %s", dir)
	}

	printFindings("🔴 Errors", result.Errors)
	printFindings("🟡 Warnings", result.Warnings)
	printFindings("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if result.Valid {
		fmt.Printf("\n🎉 The backup is ready to restore!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before restoring.\n")
	}
	return nil
}

func printFindings(title string, findings []validator.ValidationError) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(findings))
	for i, f := range findings {
		fmt.Printf("  %d. ", i+1)
		if f.Table != "" {
			fmt.Printf("[%s]", f.Table)
		}
		if f.Column != "" {
			fmt.Printf(".%s", f.Column)
		}
		fmt.Printf(": %s\n", f.Message)
	}
}
