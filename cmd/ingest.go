package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plateful/platefinder/internal/ingest"
	"github.com/plateful/platefinder/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index recipe files into the local search index",
	Long: `Scans the given directory (default ".") for recipe files matching the
configured glob patterns, embeds them and stores them in the vector index
under the data directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSlice("pattern", nil, "override the configured recipe glob patterns")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	patterns := cfg.RecipePatterns
	if override, _ := cmd.Flags().GetStringSlice("pattern"); len(override) > 0 {
		patterns = override
	}

	store, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter()
	started := false
	summary, err := ingest.New(store).Run(ctx, root, patterns, func(done, total int) {
		if !started {
			reporter.Start(total)
			started = true
		}
		reporter.Update(done, fmt.Sprintf("Indexed %d/%d recipes", done, total))
	})
	if err != nil {
		return fmt.Errorf("ingesting recipes: %w", err)
	}
	if started {
		reporter.Finish()
	}

	indexDir := filepath.Join(cfg.DataDir, "index")
	if err := store.Persist(ctx, indexDir); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	fmt.Printf("Indexed %d recipes from %d files (%d skipped). Index now holds %d recipes.\n",
		summary.Recipes, summary.Files, summary.Skipped, store.Count())
	return nil
}
