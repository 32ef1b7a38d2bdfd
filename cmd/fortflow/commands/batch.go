package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fortdoc/fortflow/internal/batch"
	"github.com/fortdoc/fortflow/internal/log"
	"github.com/fortdoc/fortflow/pkg/cache"
	"github.com/fortdoc/fortflow/pkg/fortran"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every procedure under a directory",
	Long: `Walks a directory tree, parses every Fortran source file found, and
analyzes all procedures concurrently. Procedures whose graph construction
exceeds the budget are reported as unavailable without failing the run.
Results are cached on disk keyed by procedure content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		logger := log.Default()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		files, err := fortran.Scan(root)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no Fortran source files under %s", root)
		}
		logger.Debug("scanned sources", "files", len(files))

		opts := batch.Options{
			Workers: cfg.Workers,
			Flow:    flowOptions(cmd, cfg),
		}

		var store *cache.ResultCache
		if cfg.CacheEnabled {
			store = cache.New(cache.Options{MaxSize: cfg.CacheSize})
			if err := cache.LoadFromFile(store, cfg.CacheFilePath()); err != nil {
				logger.Warn("cache load failed, starting empty", "err", err)
			}
			opts.Cache = store
		}

		report := batch.Run(cmd.Context(), files, opts)

		if store != nil {
			if err := os.MkdirAll(filepath.Dir(cfg.CacheFilePath()), 0755); err == nil {
				if err := cache.PersistToFile(store, cfg.CacheFilePath()); err != nil {
					logger.Warn("cache save failed", "err", err)
				}
			}
			stats := store.Stats()
			logger.Debug("cache", "hits", stats.Hits, "misses", stats.Misses)
		}

		for _, name := range report.Unavailable {
			logger.Warn("graph unavailable", "procedure", name)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printReport(report)
		return nil
	},
}

func printReport(report batch.Report) {
	fmt.Printf("Analyzed %d procedures\n", len(report.Items))
	for _, item := range report.Items {
		res := item.Result
		if res.Unavailable {
			fmt.Printf("  %s: %s %s  UNAVAILABLE (%s)\n", item.Path, res.Kind, res.Procedure, res.Reason)
			continue
		}
		fmt.Printf("  %s: %s %s  blocks=%d edges=%d\n",
			item.Path, res.Kind, res.Procedure, len(res.Graph.Blocks), len(res.Graph.Edges))
	}
	if len(report.Unavailable) > 0 {
		fmt.Printf("Unavailable: %d\n", len(report.Unavailable))
	}
}

func init() {
	batchCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	batchCmd.Flags().Int("timeout", 0, "Per-procedure budget in milliseconds (overrides config)")
	RootCmd.AddCommand(batchCmd)
}
