package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfmark/shelfmark/cmd/config"
	"github.com/shelfmark/shelfmark/pkg/document"
)

func NewValidateCmd() *cobra.Command {
	var (
		rulesPath string
		profileID string
	)

	cmd := &cobra.Command{
		Use:   "validate <document.yaml>",
		Short: "Validate a label document against a rules workbook",
		Long: `Check every code in the document: format, sibling uniqueness, and,
when a rules workbook is given, membership in the profile's authority sets.

Examples:
  shelfmark validate cabinet12.yaml
  shelfmark validate cabinet12.yaml --rules rules.xlsx --profile default`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Load(args[0])
			if err != nil {
				return err
			}

			sess := config.NewSession()
			if err := sess.LoadDocument(doc); err != nil {
				return err
			}
			if rulesPath != "" {
				pid := profileID
				if pid == "" {
					pid = doc.Profile
				}
				if err := sess.LoadProfile(rulesPath, pid); err != nil {
					return err
				}
			}

			issues := sess.ValidateAll()
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return nil
			}
			for _, is := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\n", is.Err)
			}
			return fmt.Errorf("%d validation issue(s)", len(issues))
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules workbook (.xlsx)")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile id within the rules workbook")

	return cmd
}
