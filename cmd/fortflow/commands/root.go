package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortdoc/fortflow/internal/config"
	"github.com/fortdoc/fortflow/internal/log"
	"github.com/fortdoc/fortflow/pkg/flow"
	"github.com/fortdoc/fortflow/pkg/legend"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "fortflow",
	Short: "fortflow - Control flow extraction for Fortran source",
	Long: `fortflow extracts control flow graphs and logic outlines from Fortran
procedures without a compiler front end.

Commands:
  flow        Extract the control flow graph for a procedure
  outline     Show the nested logic structure of a procedure
  alloc       Summarize allocate/deallocate pairs in a procedure
  batch       Analyze every procedure under a directory
  legend      Show the block kind presentation legend
  init        Create a configuration file interactively

Use "fortflow [command] --help" for more information about a command.`,
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig resolves configuration for a command run: an explicit --config
// path wins, otherwise the usual file/env lookup applies.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		log.Default().SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

// flowOptions derives analysis options from configuration plus an optional
// --timeout override in milliseconds.
func flowOptions(cmd *cobra.Command, cfg *config.Config) flow.Options {
	budget := time.Duration(cfg.BudgetMS) * time.Millisecond
	if cmd.Flags().Changed("timeout") {
		ms, _ := cmd.Flags().GetInt("timeout")
		budget = time.Duration(ms) * time.Millisecond
	}
	return flow.Options{Budget: budget, ExcerptWidth: cfg.ExcerptWidth}
}

// buildLegend applies configured color overrides to the default palette.
func buildLegend(cfg *config.Config) (legend.Legend, error) {
	l := legend.Default()
	if err := l.Override(cfg.Colors); err != nil {
		return nil, fmt.Errorf("applying color overrides: %w", err)
	}
	return l, nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
}
