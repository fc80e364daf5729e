package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const configTemplate = `# mzkit configuration. Environment variables override every key:
# db.host is read from DB_HOST, backup.s3_bucket from BACKUP_S3_BUCKET.
db:
  driver: postgres        # postgres or sqlite
  host: localhost
  port: "5432"
  database: materials
  user: postgres
  sslmode: disable
  path: mzkit.db          # sqlite only

backup:
  dir: backup/database
  # s3_bucket: exports
  # s3_prefix: 2024-06-01
  # s3_region: eu-west-1

mz:
  api_base_url: https://api.materials.zone/v2beta1

timestamps:
  on_unmatched: "null"    # "null" loads NULL, "fail" aborts the restore
`

const layoutTemplate = `# Upload layout: one entry per platform table, in creation order.
folder: Project X
workbook: data.xlsx

tables:
  - title: Materials
    item_column: Name
    protocols:
      - title: Properties
        type: protocol
        parameters:
          - title: Density
            unit: g/cm3
            column: Density

  - title: Samples
    item_column: Sample
    protocols:
      - title: Composition
        type: formulation
        unit: "%"
        sources: [Materials]
      - title: Synthesis
        type: protocol
        parameters:
          - title: Temperature
            unit: C
            column: Temperature
          - title: Peak position
            unit: deg
            column: Peak

measurements:
  table: Samples
  glob: measurements/*.csv
  title: XRD
  parser_code: XRD-01
  parameter_column: Peak
  item_title: Sample %d
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter mzkit.yaml (and upload layout)",
	Long: `Write a commented mzkit.yaml in the current directory. With --layout an
example upload.yaml is written as well. Existing files are never overwritten.

Examples:
  mzkit init              # mzkit.yaml only
  mzkit init --layout     # mzkit.yaml and upload.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeTemplate("mzkit.yaml", configTemplate); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		if initLayout {
			if err := writeTemplate("upload.yaml", layoutTemplate); err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Println("\nNext steps:")
		fmt.Println("  mzkit validate          # check the backup files")
		fmt.Println("  mzkit restore --dry-run # convert every row without writing")
		fmt.Println("  mzkit restore           # load it")
	},
}

var initLayout bool

func init() {
	initCmd.Flags().BoolVar(&initLayout, "layout", false, "Also write an example upload.yaml")
}

func writeTemplate(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("⚠️  %s already exists, leaving it alone\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("✅ Created %s\n", path)
	return nil
}
