package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ridoystarlord/mzkit/cleaner"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Report (and optionally drop) rows that reference trashed items",
	Long: `Run the referential cleaner on a backup without touching a database.

Parameters whose title item is not in table_items, and values whose item or
parameter is gone, are listed. With --write the cleaned table_parameters.csv
and table_values.csv replace the originals.

Examples:
  mzkit clean                       # Report orphans in backup/database
  mzkit clean --dir exports/june -v # List every discarded row
  mzkit clean --write               # Rewrite the files without the orphans
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := mustConfig()
		set := mustReadSet(ctx, cfg, cleanDir, cleanS3)

		report, err := cleaner.Clean(set)
		if err != nil {
			fmt.Printf("❌ Error cleaning backup: %v\n", err)
			os.Exit(1)
		}
		printCleaning(report, cleanVerbose)

		if !cleanWrite {
			if report.Total() > 0 {
				fmt.Println("\n💡 Run with --write to save the cleaned files")
			}
			return
		}
		if err := cleaner.Persist(set); err != nil {
			fmt.Printf("❌ Error writing cleaned files: %v\n", err)
			os.Exit(1)
		}
		color.Green("✅ Cleaned files written to %s", set.Dir)
	},
}

var (
	cleanDir     string
	cleanS3      string
	cleanWrite   bool
	cleanVerbose bool
)

func init() {
	cleanCmd.Flags().StringVarP(&cleanDir, "dir", "d", "", "Backup directory (default from config, backup/database)")
	cleanCmd.Flags().StringVar(&cleanS3, "s3", "", "Fetch the backup from s3://bucket/prefix")
	cleanCmd.Flags().BoolVarP(&cleanWrite, "write", "w", false, "Write the cleaned files back")
	cleanCmd.Flags().BoolVarP(&cleanVerbose, "verbose", "v", false, "List every discarded row")
}
