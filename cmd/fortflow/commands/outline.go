package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/render"
)

// outlineCmd represents the outline command
var outlineCmd = &cobra.Command{
	Use:   "outline <file> <procedure>",
	Short: "Show the nested logic structure of a procedure",
	Long: `Shows the nested if/do/select structure of one procedure as an
indented tree with source line ranges and attached doc comments. The
outline never times out, so it works even for procedures whose graph is
unavailable.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, err := findProcedure(args[0], args[1])
		if err != nil {
			return err
		}

		fp := proc.FlowProcedure()
		nodes := flow.BuildOutline(flow.BuildLogicTree(fp.Lines))

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(nodes, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("=== Outline for %s %s ===\n", proc.Kind, proc.Name)
		fmt.Print(render.Outline(nodes))
		return nil
	},
}

func init() {
	outlineCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(outlineCmd)
}
