package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ridoystarlord/mzkit/config"
	"github.com/ridoystarlord/mzkit/database"
	"github.com/ridoystarlord/mzkit/utils"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mzkit",
	Short: "Restore and inspect materials-catalog backups",
	Long: `mzkit restores a CSV export of the materials catalog into PostgreSQL
(or SQLite), and talks to the platform API for parsers and workbook uploads.

Examples:

  mzkit validate --dir backup/database
  mzkit restore
  mzkit restore --s3 s3://exports/2024-06-01 --strict-timestamps
  mzkit status
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.LoadEnv()
	},
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context,
// which rolls back a running restore.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("❌", err)
		stop()
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML); environment variables override it")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(parsersCmd)
	rootCmd.AddCommand(uploadCmd)
}

func mustConfig() *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Printf("❌ Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func mustOpen(ctx context.Context, cfg *config.Config) *database.DB {
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		fmt.Printf("❌ Could not connect to %s: %v\n", cfg.DB.Redacted(), err)
		os.Exit(1)
	}
	return db
}
