package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfmark/shelfmark/cmd"
	"github.com/shelfmark/shelfmark/cmd/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shelfmark",
		Short: "Build classification label hierarchies and export them as PDF",
		Long: `shelfmark edits four-level classification trees, validates codes
against a rules workbook, and exports print-ready PDF labels.`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(config.InitConfig)
	config.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cmd.NewExportCmd())
	rootCmd.AddCommand(cmd.NewValidateCmd())
	rootCmd.AddCommand(cmd.NewSuggestCmd())
	rootCmd.AddCommand(cmd.NewProfilesCmd())
	rootCmd.AddCommand(cmd.NewTemplatesCmd())
	rootCmd.AddCommand(cmd.NewCacheCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
