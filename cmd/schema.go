package cmd

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/mzkit/generator"
	"github.com/ridoystarlord/mzkit/runner"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the catalog tables if they do not exist",
	Long: `Create the eight catalog tables in dependency order. Existing tables are
left alone, so the command can be run any number of times.

Examples:
  mzkit schema            # Create missing tables
  mzkit schema --print    # Print the DDL without connecting
`,
	Run: func(cmd *cobra.Command, args []string) {
		models, err := schema.LoadModels()
		if err != nil {
			fmt.Printf("❌ Error loading models: %v\n", err)
			os.Exit(1)
		}

		if schemaPrint {
			stmts, err := generator.CreateSchemaSQL(models)
			if err != nil {
				fmt.Printf("❌ Error rendering schema: %v\n", err)
				os.Exit(1)
			}
			for _, stmt := range stmts {
				fmt.Println(stmt)
				fmt.Println()
			}
			return
		}

		ctx := cmd.Context()
		cfg := mustConfig()
		db := mustOpen(ctx, cfg)
		defer db.Close()

		if err := runner.EnsureSchema(ctx, db, models); err != nil {
			fmt.Printf("❌ Error creating schema: %v\n", err)
			db.Close()
			os.Exit(1)
		}
	},
}

var schemaPrint bool

func init() {
	schemaCmd.Flags().BoolVarP(&schemaPrint, "print", "p", false, "Print the DDL instead of executing it")
}
