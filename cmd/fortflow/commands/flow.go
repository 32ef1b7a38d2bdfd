// Package commands provides the CLI commands for the fortflow tool.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/fortran"
	"github.com/fortdoc/fortflow/pkg/render"
)

// flowCmd represents the flow command
var flowCmd = &cobra.Command{
	Use:   "flow <file> <procedure>",
	Short: "Extract the control flow graph for a procedure",
	Long: `Extracts the control flow graph for one procedure in a Fortran source
file. Outputs a block and edge listing, JSON, or Graphviz DOT.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]
		procName := args[1]

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		proc, err := findProcedure(filePath, procName)
		if err != nil {
			return err
		}

		res := flow.Analyze(proc.FlowProcedure(), flowOptions(cmd, cfg))
		if res.Unavailable {
			return fmt.Errorf("graph for %q unavailable: %s", procName, res.Reason)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		dotOutput, _ := cmd.Flags().GetBool("dot")

		switch {
		case jsonOutput:
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		case dotOutput:
			l, err := buildLegend(cfg)
			if err != nil {
				return err
			}
			fmt.Print(render.DOT(res.Graph, l))
		default:
			printGraph(res.Graph)
		}
		return nil
	},
}

// findProcedure parses the file and locates the named procedure, suggesting
// alternatives when the name is close but not exact.
func findProcedure(filePath, procName string) (*fortran.Procedure, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", filePath)
	}

	parsed, err := fortran.ParseFile(filePath)
	if err != nil {
		return nil, err
	}

	for i := range parsed.Procedures {
		if strings.EqualFold(parsed.Procedures[i].Name, procName) {
			return &parsed.Procedures[i], nil
		}
	}

	var names []string
	for _, p := range parsed.Procedures {
		names = append(names, p.Name)
	}
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), strings.ToLower(procName)) {
			return nil, fmt.Errorf("procedure %q not found in %s\nDid you mean: %s?", procName, filePath, name)
		}
	}
	if len(names) > 0 {
		return nil, fmt.Errorf("procedure %q not found in %s (available: %s)", procName, filePath, strings.Join(names, ", "))
	}
	return nil, fmt.Errorf("no procedures found in %s", filePath)
}

// printGraph prints a graph in human-readable format.
func printGraph(g *flow.Graph) {
	fmt.Printf("=== Control flow for %s %s ===\n", g.Kind, g.Procedure)
	if len(g.Args) > 0 {
		fmt.Printf("Arguments: %s\n", strings.Join(g.Args, ", "))
	}
	fmt.Printf("Entry: block_%d  Exit: block_%d\n", g.EntryID, g.ExitID)

	fmt.Printf("\nBlocks (%d):\n", len(g.Blocks))
	for _, b := range g.Blocks {
		if b.StartLine > 0 {
			fmt.Printf("  block_%d (%s, lines %d-%d): %s\n", b.ID, b.Kind, b.StartLine, b.EndLine, b.Label)
		} else {
			fmt.Printf("  block_%d (%s): %s\n", b.ID, b.Kind, b.Label)
		}
		for _, stmt := range b.Statements {
			fmt.Printf("    %s\n", stmt)
		}
	}

	fmt.Printf("\nEdges (%d):\n", len(g.Edges))
	for _, e := range g.Edges {
		if e.Label != "" {
			fmt.Printf("  block_%d --%s--> block_%d\n", e.From, e.Label, e.To)
		} else {
			fmt.Printf("  block_%d --> block_%d\n", e.From, e.To)
		}
	}
}

func init() {
	flowCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	flowCmd.Flags().Bool("dot", false, "Output as Graphviz DOT")
	flowCmd.Flags().Int("timeout", 0, "Per-procedure budget in milliseconds (overrides config)")
	RootCmd.AddCommand(flowCmd)
}
