package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ridoystarlord/mzkit/mzapi"
	"github.com/spf13/cobra"
)

var parsersCmd = &cobra.Command{
	Use:   "parsers",
	Short: "Manage measurement parsers on the platform",
	Long: `List, inspect, create, update and delete measurement parsers through the
platform API. Parsers are addressed by code. MZ_API_KEY must be set.

Examples:
  mzkit parsers list
  mzkit parsers show XRD-01
  mzkit parsers create --file xrd.json
  mzkit parsers update XRD-01 --file changes.json
  mzkit parsers delete XRD-01
`,
}

var parsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List organisation and system parsers",
	Run: func(cmd *cobra.Command, args []string) {
		client := mzapi.NewClient(mustConfig().MZ)
		parsers, err := client.ListParsers(cmd.Context())
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

		organization, system := mzapi.SplitParsers(parsers)
		bold := color.New(color.FgCyan, color.Bold)
		bold.Printf("Organisation parsers (%d)\n", len(organization))
		for _, p := range organization {
			printParserLine(p)
		}
		bold.Printf("\nSystem parsers (%d)\n", len(system))
		for _, p := range system {
			printParserLine(p)
		}
	},
}

var parsersShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Print one parser as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := mzapi.NewClient(mustConfig().MZ)
		found := mustFindParser(ctx, client, args[0])

		p, err := client.GetParser(ctx, found.ID)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(p); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	},
}

var parsersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a parser from a JSON definition",
	Run: func(cmd *cobra.Command, args []string) {
		var p mzapi.Parser
		mustReadJSON(parsersFile, &p)

		client := mzapi.NewClient(mustConfig().MZ)
		created, err := client.CreateParser(cmd.Context(), p)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		color.Green("✅ Created parser %s (%s)", created.Code, created.Name)
	},
}

var parsersUpdateCmd = &cobra.Command{
	Use:   "update <code>",
	Short: "Apply a partial JSON update to a parser",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var u mzapi.ParserUpdate
		mustReadJSON(parsersFile, &u)

		ctx := cmd.Context()
		client := mzapi.NewClient(mustConfig().MZ)
		found := mustFindParser(ctx, client, args[0])

		updated, err := client.UpdateParser(ctx, found.ID, u)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		color.Green("✅ Updated parser %s (%s)", updated.Code, updated.Name)
	},
}

var parsersDeleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete a parser",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := mzapi.NewClient(mustConfig().MZ)
		found := mustFindParser(ctx, client, args[0])

		if err := client.DeleteParser(ctx, found.ID); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("🗑️  Deleted parser %s\n", found.Code)
	},
}

var parsersFile string

func init() {
	parsersCreateCmd.Flags().StringVarP(&parsersFile, "file", "f", "", "Parser definition (JSON)")
	parsersUpdateCmd.Flags().StringVarP(&parsersFile, "file", "f", "", "Fields to change (JSON)")
	parsersCreateCmd.MarkFlagRequired("file")
	parsersUpdateCmd.MarkFlagRequired("file")

	parsersCmd.AddCommand(parsersListCmd)
	parsersCmd.AddCommand(parsersShowCmd)
	parsersCmd.AddCommand(parsersCreateCmd)
	parsersCmd.AddCommand(parsersUpdateCmd)
	parsersCmd.AddCommand(parsersDeleteCmd)
}

func printParserLine(p mzapi.Parser) {
	state := color.GreenString("enabled")
	if !p.EnabledState {
		state = color.RedString("disabled")
	}
	fmt.Printf("  %-12s %-40s %s\n", p.Code, p.Name, state)
}

func mustFindParser(ctx context.Context, client *mzapi.Client, code string) *mzapi.Parser {
	parsers, err := client.ListParsers(ctx)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	p, ok := mzapi.FindParserByCode(parsers, code)
	if !ok {
		fmt.Printf("❌ No parser with code %s\n", code)
		os.Exit(1)
	}
	return p
}

func mustReadJSON(path string, v interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := json.Unmarshal(data, v); err != nil {
		fmt.Printf("❌ Error parsing %s: %v\n", path, err)
		os.Exit(1)
	}
}
