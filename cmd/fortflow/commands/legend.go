package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortdoc/fortflow/pkg/render"
)

// legendCmd represents the legend command
var legendCmd = &cobra.Command{
	Use:   "legend",
	Short: "Show the block kind presentation legend",
	Long: `Shows the shape and color assigned to each block kind in rendered
graphs, including any overrides from configuration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l, err := buildLegend(cfg)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table":
			fmt.Print(render.LegendTable(l))
		case "markdown":
			fmt.Print(render.LegendMarkdown(l))
		case "json":
			data, err := json.MarshalIndent(l, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		default:
			return fmt.Errorf("unknown format: %s (use 'table', 'markdown', or 'json')", format)
		}
		return nil
	},
}

func init() {
	legendCmd.Flags().String("format", "table", "Output format (table, markdown, json)")
	RootCmd.AddCommand(legendCmd)
}
