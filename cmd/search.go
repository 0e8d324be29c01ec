package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plateful/platefinder/internal/pipeline"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/render"
)

var searchCmd = &cobra.Command{
	Use:   "search [request]",
	Short: "Search for recipes matching a natural language request",
	Long: `Runs one full search turn: the request is analyzed, the local index is
queried and judged, and the web fallback kicks in when nothing acceptable
is found. Results are recorded in the session so repeated searches avoid
recipes you already picked.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("session", "default", "session id")
	searchCmd.Flags().Bool("web", false, "skip the local index and search the web directly")
	searchCmd.Flags().Bool("no-fallback", false, "never fall back to the web")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	forceWeb, _ := cmd.Flags().GetBool("web")
	noFallback, _ := cmd.Flags().GetBool("no-fallback")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	orch, closer, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	req := pipeline.Request{
		SessionID:       sessionID,
		Text:            args[0],
		ForceWeb:        forceWeb,
		DisableFallback: noFallback,
	}
	if verbose {
		req.Progress = func(stage pipeline.Stage) {
			fmt.Fprintf(os.Stderr, "stage: %s\n", stage)
		}
	}

	res, err := orch.Search(ctx, req)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(res.Accepted) == 0 {
		fmt.Println("No matching recipes found.")
		if res.Exhausted {
			fmt.Println("Your collection has no unseen recipes for this query.")
		}
		return nil
	}

	source := "local collection"
	if res.Source == recipe.SourceWeb {
		source = "web"
	}
	fmt.Printf("Found %d recipe(s) from the %s:\n", len(res.Accepted), source)
	for i, c := range res.Accepted {
		fmt.Printf("\n[%d] id=%s\n%s", i+1, c.ID, render.Markdown(c))
	}
	fmt.Printf("\nRun `platefinder select --session %s <id>` to pick one.\n", sessionID)
	return nil
}
