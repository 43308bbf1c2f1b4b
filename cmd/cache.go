package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfmark/shelfmark/cmd/config"
)

func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the autocomplete cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.CachePath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show entry counts per level",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := config.NewSession()
			store := sess.Cache()
			levels := store.Levels()
			if len(levels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "cache is empty")
				return nil
			}
			for _, lv := range levels {
				fmt.Fprintf(cmd.OutOrStdout(), "level %d: %d entries\n", lv, store.Len(lv))
			}
			return nil
		},
	})

	var yes bool
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete the cache file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", config.CachePath())
			}
			if err := os.Remove(config.CachePath()); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
	clear.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	cmd.AddCommand(clear)

	return cmd
}
