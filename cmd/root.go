package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "platefinder",
	Short: "Corrective recipe search with LLM judging and web fallback",
	Long: `Platefinder searches a local recipe collection semantically, has an LLM
judge every candidate against your request, and falls back to the web
when the collection has nothing acceptable. Selected recipes can be
iteratively adapted toward goals like "make it vegan".`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// API keys are commonly kept in a local .env during development.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".platefinder.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
