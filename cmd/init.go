package cmd

import (
	"github.com/spf13/cobra"

	"github.com/plateful/platefinder/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize platefinder configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure platefinder and generates a .platefinder.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
