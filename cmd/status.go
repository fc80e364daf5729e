package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/ridoystarlord/mzkit/introspect"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which catalog tables exist and how many rows they hold",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := mustConfig()

		models, err := schema.LoadModels()
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		db := mustOpen(ctx, cfg)
		defer db.Close()

		statuses, err := introspect.Inspect(ctx, db, models)
		if err != nil {
			fmt.Println("❌ Status error:", err)
			db.Close()
			os.Exit(1)
		}

		fmt.Printf("📊 %s\n\n", cfg.DB.Redacted())
		var missing, total int64
		for _, s := range statuses {
			if !s.Exists {
				missing++
				color.Red("   ❌ %-28s missing", s.Name)
				continue
			}
			total += s.Rows
			if len(s.MissingColumns) > 0 {
				color.Yellow("   ⚠️  %-28s %8d rows  (missing columns: %s)", s.Name, s.Rows, strings.Join(s.MissingColumns, ", "))
				continue
			}
			color.Green("   ✅ %-28s %8d rows", s.Name, s.Rows)
		}

		fmt.Printf("\n   %d rows in %d tables", total, int64(len(statuses))-missing)
		if missing > 0 {
			fmt.Printf(", %d missing", missing)
		}
		fmt.Println()
	},
}
