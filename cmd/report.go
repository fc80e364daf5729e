package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ridoystarlord/mzkit/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one restored table as a wide item-by-parameter report",
	Long: `Read the values of one table from the restored database and pivot them
into one row per item and one column per "<protocol> | <parameter>".

Examples:
  mzkit report --table-id 6f1c...                        # Aligned text
  mzkit report --table-id 6f1c... --format csv -o out.csv
`,
	Run: func(cmd *cobra.Command, args []string) {
		if reportTableID == "" {
			fmt.Println("❌ --table-id is required")
			os.Exit(1)
		}
		write := (*report.Report).WriteText
		switch reportFormat {
		case "text":
		case "csv":
			write = (*report.Report).WriteCSV
		default:
			fmt.Printf("❌ Unsupported format: %s\n", reportFormat)
			fmt.Println("Supported formats: text, csv")
			os.Exit(1)
		}

		ctx := cmd.Context()
		cfg := mustConfig()
		db := mustOpen(ctx, cfg)
		defer db.Close()

		rep, err := report.Build(ctx, db, reportTableID)
		if err != nil {
			fmt.Printf("❌ Error building report: %v\n", err)
			db.Close()
			os.Exit(1)
		}
		if len(rep.Rows) == 0 {
			fmt.Printf("⚠️  Table %s has no values\n", reportTableID)
			return
		}

		var out io.Writer = os.Stdout
		if reportOutput != "" {
			f, err := os.Create(reportOutput)
			if err != nil {
				fmt.Printf("❌ Error creating %s: %v\n", reportOutput, err)
				db.Close()
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}
		if err := write(rep, out); err != nil {
			fmt.Printf("❌ Error writing report: %v\n", err)
			db.Close()
			os.Exit(1)
		}
		if reportOutput != "" {
			fmt.Printf("📤 %d items x %d columns written to %s\n", len(rep.Rows), len(rep.Columns), reportOutput)
		}
	},
}

var (
	reportTableID string
	reportFormat  string
	reportOutput  string
)

func init() {
	reportCmd.Flags().StringVar(&reportTableID, "table-id", "", "Id of the table to report")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Output format (text, csv)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (default stdout)")
}
