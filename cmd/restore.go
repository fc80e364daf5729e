package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/ridoystarlord/mzkit/backup"
	"github.com/ridoystarlord/mzkit/cleaner"
	"github.com/ridoystarlord/mzkit/config"
	"github.com/ridoystarlord/mzkit/generator"
	"github.com/ridoystarlord/mzkit/runner"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Clean a backup and load it into the database in one transaction",
	Long: `Restore a catalog export into the target database.

The export is cleaned of rows that point at trashed items (the cleaned files
replace the originals unless --no-write-clean is given), the eight catalog
tables are created if missing, and every file is loaded in dependency order
inside a single transaction. Rows that already exist are skipped, so a restore
can be repeated. Any failing row rolls the whole load back.

Examples:
  mzkit restore                                  # Restore backup/database
  mzkit restore --dir exports/2024-06-01         # Restore another directory
  mzkit restore --s3 s3://exports/2024-06-01     # Download the export first
  mzkit restore --dry-run                        # Convert every row, print DDL, touch nothing
  mzkit restore --strict-timestamps              # Fail on timestamps without a GMT offset
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := mustConfig()
		opts := runner.Options{
			StrictTimestamps: restoreStrict || cfg.Timestamps.OnUnmatched == config.TimestampsFail,
			SkipClean:        restoreSkipClean,
			KeepBackup:       restoreKeepBackup,
		}

		set := mustReadSet(ctx, cfg, restoreDir, restoreS3)

		if restoreDryRun {
			dryRun(set, opts)
			return
		}

		db := mustOpen(ctx, cfg)
		defer db.Close()
		fmt.Printf("📁 Restoring %s into %s\n", set.Dir, cfg.DB.Redacted())

		result, err := runner.Restore(ctx, db, set, opts)
		if result != nil && result.Cleaning != nil {
			printCleaning(result.Cleaning, restoreVerbose)
		}
		if err != nil {
			color.Red("❌ Restore failed (%s): %v", result.Phase, err)
			db.Close()
			os.Exit(1)
		}
		printLoad(result.Tables)
		color.Green("✅ Restore committed: %d rows inserted, %d already present", result.Inserted(), result.Skipped())
	},
}

var (
	restoreDir        string
	restoreS3         string
	restoreSkipClean  bool
	restoreStrict     bool
	restoreDryRun     bool
	restoreKeepBackup bool
	restoreVerbose    bool
)

func init() {
	restoreCmd.Flags().StringVarP(&restoreDir, "dir", "d", "", "Backup directory (default from config, backup/database)")
	restoreCmd.Flags().StringVar(&restoreS3, "s3", "", "Fetch the backup from s3://bucket/prefix")
	restoreCmd.Flags().BoolVar(&restoreSkipClean, "skip-clean", false, "Load the files as they are")
	restoreCmd.Flags().BoolVar(&restoreStrict, "strict-timestamps", false, "Fail on timestamps without a GMT offset instead of loading NULL")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Convert every row and print the DDL without connecting")
	restoreCmd.Flags().BoolVar(&restoreKeepBackup, "no-write-clean", false, "Leave the backup files untouched instead of rewriting them cleaned")
	restoreCmd.Flags().BoolVarP(&restoreVerbose, "verbose", "v", false, "List every discarded row")
}

// backupSource picks the export location: --s3, then --dir, then config.
func backupSource(ctx context.Context, cfg *config.Config, dir, s3URL string) (backup.Source, error) {
	if s3URL != "" {
		bucket, prefix, err := backup.ParseS3URL(s3URL)
		if err != nil {
			return nil, err
		}
		return backup.NewS3Source(ctx, backup.S3Config{
			Bucket:   bucket,
			Prefix:   prefix,
			Region:   cfg.Backup.S3Region,
			Endpoint: cfg.Backup.S3Endpoint,
		})
	}
	if dir != "" {
		return backup.DirSource{Dir: dir}, nil
	}
	if cfg.Backup.UsesS3() {
		return backup.NewS3Source(ctx, backup.S3Config{
			Bucket:   cfg.Backup.S3Bucket,
			Prefix:   cfg.Backup.S3Prefix,
			Region:   cfg.Backup.S3Region,
			Endpoint: cfg.Backup.S3Endpoint,
		})
	}
	return backup.DirSource{Dir: cfg.Backup.Dir}, nil
}

func mustReadSet(ctx context.Context, cfg *config.Config, dir, s3URL string) *backup.Set {
	src, err := backupSource(ctx, cfg, dir, s3URL)
	if err != nil {
		fmt.Printf("❌ Error resolving backup: %v\n", err)
		os.Exit(1)
	}
	local, err := src.Fetch(ctx, schema.LoadOrder())
	if err != nil {
		fmt.Printf("❌ Error fetching backup from %s: %v\n", src, err)
		os.Exit(1)
	}
	set, err := backup.ReadSet(local, schema.LoadOrder())
	if err != nil {
		fmt.Printf("❌ Error reading backup: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📁 Read %d rows from %s\n", set.RowCount(), src)
	return set
}

func dryRun(set *backup.Set, opts runner.Options) {
	if !opts.SkipClean {
		report, err := cleaner.Clean(set)
		if err != nil {
			fmt.Printf("❌ Error cleaning backup: %v\n", err)
			os.Exit(1)
		}
		printCleaning(report, restoreVerbose)
	}

	models, err := schema.LoadModels()
	if err != nil {
		fmt.Printf("❌ Error loading models: %v\n", err)
		os.Exit(1)
	}
	stmts, err := generator.CreateSchemaSQL(models)
	if err != nil {
		fmt.Printf("❌ Error rendering schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n🔧 Schema:")
	for _, stmt := range stmts {
		fmt.Println(stmt)
	}

	results, err := runner.Preview(set, models, opts)
	if err != nil {
		color.Red("❌ Dry run failed: %v", err)
		os.Exit(1)
	}
	printLoad(results)
	color.Green("✅ Dry run passed, nothing was written")
}

func printCleaning(report *cleaner.Report, verbose bool) {
	bold := color.New(color.FgYellow, color.Bold)
	if report.Total() == 0 {
		color.Green("🧹 No orphaned rows found")
		return
	}
	bold.Printf("🧹 Discarded %d orphaned rows\n", report.Total())
	for _, t := range report.Tables() {
		if len(t.Discarded) == 0 {
			fmt.Printf("   %-22s kept %d\n", t.Table, t.Kept)
			continue
		}
		fmt.Printf("   %-22s kept %d, discarded %d\n", t.Table, t.Kept, len(t.Discarded))

		reasons := map[string]int{}
		for _, d := range t.Discarded {
			reasons[d.Reason]++
		}
		names := make([]string, 0, len(reasons))
		for r := range reasons {
			names = append(names, r)
		}
		sort.Strings(names)
		for _, r := range names {
			color.Yellow("     ⚠️  %d: %s", reasons[r], r)
		}
		if verbose {
			for _, d := range t.Discarded {
				fmt.Printf("       - %s (%s)\n", d.Key, d.Reason)
			}
		}
	}
}

func printLoad(tables []runner.TableResult) {
	fmt.Println("\n📊 Tables:")
	for _, t := range tables {
		line := fmt.Sprintf("   %-28s %6d rows", t.Table, t.Rows)
		if t.Inserted > 0 || t.Skipped > 0 {
			line += fmt.Sprintf("  %6d inserted  %6d skipped", t.Inserted, t.Skipped)
		}
		fmt.Println(line)
	}
}
