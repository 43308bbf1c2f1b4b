package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfmark/shelfmark/cmd/config"
	"github.com/shelfmark/shelfmark/pkg/rules"
)

func NewSuggestCmd() *cobra.Command {
	var (
		rulesPath  string
		profileID  string
		parentCode string
		level      int
	)

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Show autocomplete suggestions for a code fragment",
		Long: `Print the ranked suggestions the editor would offer for a typed
fragment. With --rules, candidates come from the profile's authority
sets; without, from the local autocomplete history.

Examples:
  shelfmark suggest 0 --level 1 --rules rules.xlsx
  shelfmark suggest 3 --parent 01 --rules rules.xlsx
  shelfmark suggest ins --level 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := config.NewSession()

			var profile *rules.Profile
			if rulesPath != "" {
				p, err := rulesProfileFor(rulesPath, profileID)
				if err != nil {
					return err
				}
				profile = p
			}

			ctx := rules.Context{Profile: profile, TargetLevel: level}
			if parentCode != "" {
				ctx.ParentPath = parentPathOf(parentCode, profile)
				if level == 0 {
					ctx.TargetLevel = len(ctx.ParentPath) + 1
				}
			} else if level == 0 {
				ctx.TargetLevel = 1
			}

			engine := &rules.Engine{Cache: sess.Cache(), MaxSuggestions: viper.GetInt("max_suggestions")}
			suggestions := engine.Suggest(ctx, args[0])
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no suggestions)")
				return nil
			}
			for i, s := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-12s %s\n", i+1, s.Code, s.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules workbook (.xlsx)")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile id within the rules workbook")
	cmd.Flags().StringVar(&parentCode, "parent", "", "Canonical code of the parent node")
	cmd.Flags().IntVar(&level, "level", 0, "Target level (default: inferred from --parent)")

	return cmd
}

// parentPathOf rebuilds the root-to-parent code path from a canonical
// parent code, e.g. "01.2" becomes ["01", "01.2"].
func parentPathOf(code string, p *rules.Profile) []string {
	delim := "."
	if p != nil {
		delim = p.Format(2).Delimiter
	}
	parts := strings.Split(code, delim)
	path := make([]string, 0, len(parts))
	for i := range parts {
		path = append(path, strings.Join(parts[:i+1], delim))
	}
	return path
}
