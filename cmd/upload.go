package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/ridoystarlord/mzkit/loader"
	"github.com/ridoystarlord/mzkit/mzapi"
	"github.com/ridoystarlord/mzkit/workspace"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Recreate platform tables from a workbook",
	Long: `Upload a workbook to the platform following a layout file.

Tables named in the layout are deleted from the folder and created again,
with their protocols and parameters. Every sheet row becomes an item, and
measurement files matching the layout's glob are analysed and attached.
MZ_API_KEY must be set.

Examples:
  mzkit upload --layout upload.yaml
  mzkit upload --layout upload.yaml --check   # Validate the layout only
`,
	Run: func(cmd *cobra.Command, args []string) {
		layout, err := loader.LoadLayout(uploadLayout)
		if err != nil {
			fmt.Printf("❌ Error loading layout: %v\n", err)
			os.Exit(1)
		}
		if uploadCheck {
			color.Green("✅ Layout %s is valid: %d tables in folder %q", uploadLayout, len(layout.Tables), layout.Folder)
			return
		}

		u := &workspace.Uploader{
			API:     mzapi.NewClient(mustConfig().MZ),
			Layout:  layout,
			BaseDir: filepath.Dir(uploadLayout),
		}
		summary, err := u.Run(cmd.Context())
		if err != nil {
			color.Red("❌ Upload failed: %v", err)
			os.Exit(1)
		}

		fmt.Println("\n📊 Summary:")
		titles := make([]string, 0, len(summary.Tables))
		for t := range summary.Tables {
			titles = append(titles, t)
		}
		sort.Strings(titles)
		for _, t := range titles {
			fmt.Printf("  • %s: %s\n", t, summary.Tables[t])
		}
		fmt.Printf("  • Tables replaced: %d\n", summary.Deleted)
		fmt.Printf("  • Items: %d\n", summary.Items)
		fmt.Printf("  • Measurements: %d\n", summary.Measurements)
		for _, s := range summary.Skipped {
			color.Yellow("  ⚠️  Skipped %s", s)
		}
		color.Green("✅ Upload complete")
	},
}

var (
	uploadLayout string
	uploadCheck  bool
)

func init() {
	uploadCmd.Flags().StringVarP(&uploadLayout, "layout", "l", "upload.yaml", "Upload layout (YAML)")
	uploadCmd.Flags().BoolVar(&uploadCheck, "check", false, "Validate the layout and exit")
}
