package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/mzkit/generator"
	"github.com/ridoystarlord/mzkit/schema"
)

var (
	docsFormat string
	docsOutput string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Draw the catalog tables as an ERD",
	Long: `Generate an entity-relationship diagram of the eight catalog tables.

Supported formats:
  - mermaid: Mermaid ERD diagram
  - plantuml: PlantUML ERD diagram
  - graphviz: Graphviz DOT format

Examples:
  mzkit docs                                  # Mermaid to stdout
  mzkit docs --format plantuml --output erd.puml
  mzkit docs --format graphviz --output erd.dot
`,
	Run: func(cmd *cobra.Command, args []string) {
		models, err := schema.LoadModels()
		if err != nil {
			fmt.Printf("❌ Error loading models: %v\n", err)
			os.Exit(1)
		}

		content, err := generator.RenderERD(models, docsFormat)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

		if docsOutput == "" {
			fmt.Print(content)
			return
		}
		if err := os.WriteFile(docsOutput, []byte(content), 0644); err != nil {
			fmt.Printf("❌ Error writing %s: %v\n", docsOutput, err)
			os.Exit(1)
		}
		fmt.Printf("✅ %s ERD saved to: %s\n", docsFormat, docsOutput)
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsFormat, "format", "f", generator.FormatMermaid, "Output format (mermaid, plantuml, graphviz)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file (default stdout)")
}
