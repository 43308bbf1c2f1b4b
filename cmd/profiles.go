package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shelfmark/shelfmark/pkg/rules"
	"github.com/shelfmark/shelfmark/pkg/template"
)

func NewProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles <rules.xlsx>",
		Short: "List the profiles declared in a rules workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := rules.LoadWorkbook(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLEVELS\tLOCKED\tAUTHORITY")
			for _, id := range wb.ProfileIDs() {
				p, _ := wb.Profile(id)
				var labels []string
				var counts []string
				for lv := 1; lv <= p.LevelCount; lv++ {
					labels = append(labels, p.Label(lv))
					counts = append(counts, fmt.Sprintf("%d", len(p.AuthorityFor(lv))))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
					p.ID, p.Name, strings.Join(labels, " > "), p.Locked, strings.Join(counts, "/"))
			}
			return w.Flush()
		},
	}
	return cmd
}

func NewTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in PDF templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLUMNS\tFONT")
			for _, s := range template.All() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s %.0f-%.0fpt\n",
					s.ID, s.DisplayName, s.Columns, s.FontRegular, s.MinFont, s.BaseFont)
			}
			return w.Flush()
		},
	}
	return cmd
}
