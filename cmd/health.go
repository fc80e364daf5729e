package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ridoystarlord/mzkit/config"
	"github.com/ridoystarlord/mzkit/database"
	"github.com/ridoystarlord/mzkit/introspect"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check if the database is accessible and responsive.

Examples:
  mzkit health                    # Check the configured database
  mzkit health --timeout 10s      # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		if err := checkDatabaseHealth(cmd.Context(), cfg); err != nil {
			fmt.Printf("❌ Database health check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Database is healthy and accessible")
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth(parent context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(parent, healthTimeout)
	defer cancel()

	// Open pings before returning.
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := introspect.ExistingTables(ctx, db)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	found := 0
	for _, name := range schema.LoadOrder() {
		if existing[name] {
			found++
		}
	}
	if found == 0 {
		fmt.Println("⚠️  Database is accessible but no catalog tables were found")
		fmt.Println("   Run 'mzkit schema' or 'mzkit restore' to create them")
		return nil
	}

	fmt.Printf("📊 Found %d of %d catalog tables\n", found, len(schema.LoadOrder()))
	return nil
}
