package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plateful/platefinder/internal/adapter"
	"github.com/plateful/platefinder/internal/render"
)

var selectCmd = &cobra.Command{
	Use:   "select [candidate-id]",
	Short: "Pick a recipe from the last search or adaptation",
	Long: `Marks a recipe from a previous search or adaptation round as the working
recipe. Its title is excluded from later searches in the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

var adaptCmd = &cobra.Command{
	Use:   "adapt [goal]",
	Short: "Adapt the selected recipe toward a goal",
	Long: `Proposes three adaptations of the session's selected recipe (an
ingredient swap, an add-on, and a fresh take on the same dish), each
checked for compliance with the goal.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdapt,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a session's history, exclusions and selection",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	for _, c := range []*cobra.Command{selectCmd, adaptCmd, resetCmd} {
		c.Flags().String("session", "default", "session id")
		rootCmd.AddCommand(c)
	}
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sessionID, _ := cmd.Flags().GetString("session")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, closer, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	state, err := orch.Select(ctx, sessionID, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Selected %q as the working recipe.\n\n%s", state.CurrentSelection.Title, render.Markdown(*state.CurrentSelection))
	return nil
}

func runAdapt(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sessionID, _ := cmd.Flags().GetString("session")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, closer, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	res, err := orch.Adapt(ctx, sessionID, args[0], nil)
	if err != nil {
		return err
	}

	fmt.Printf("Proposed %d adaptation(s) for %q:\n", adapter.OptionCount, res.Goal)
	for i, opt := range res.Options {
		fmt.Printf("\n[%d] id=%s\nApproach: %s\n\n%s", i+1, opt.VariantID, opt.Description, render.Markdown(opt.Candidate))
		if res.Checks[i].Passed {
			fmt.Println("Compliance check: PASS")
		} else {
			fmt.Printf("Compliance check: FAIL (%s)\n", res.Checks[i].Reason)
		}
	}
	fmt.Printf("\nRun `platefinder select --session %s <id>` to commit one.\n", sessionID)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sessionID, _ := cmd.Flags().GetString("session")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, closer, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	if _, err := orch.Reset(ctx, sessionID); err != nil {
		return err
	}
	fmt.Printf("Session %q cleared.\n", sessionID)
	return nil
}
