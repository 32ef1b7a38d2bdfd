package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/render"
)

// allocCmd represents the alloc command
var allocCmd = &cobra.Command{
	Use:   "alloc <file> <procedure>",
	Short: "Summarize allocate/deallocate pairs in a procedure",
	Long: `Lists every variable a procedure allocates, with the lines of its
allocate and deallocate statements. Variables that are allocated but never
deallocated are called out.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, err := findProcedure(args[0], args[1])
		if err != nil {
			return err
		}

		summaries := flow.TrackAllocations(proc.FlowProcedure().Lines)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("=== Allocations in %s %s ===\n", proc.Kind, proc.Name)
		fmt.Print(render.Allocations(summaries))
		return nil
	},
}

func init() {
	allocCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(allocCmd)
}
