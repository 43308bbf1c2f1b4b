package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfmark/shelfmark/cmd/config"
	"github.com/shelfmark/shelfmark/pkg/document"
	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/rules"
	"github.com/shelfmark/shelfmark/pkg/template"
)

func NewExportCmd() *cobra.Command {
	var (
		rulesPath  string
		profileID  string
		templateID string
		pageName   string
		widthCm    float64
		heightCm   float64
		outPath    string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "export <document.yaml>",
		Short: "Export a label document to PDF",
		Long: `Lay out a label document and write it as a paginated PDF.

Examples:
  shelfmark export cabinet12.yaml
  shelfmark export cabinet12.yaml -o cabinet12.pdf --template boxed
  shelfmark export cabinet12.yaml --page a5-landscape
  shelfmark export cabinet12.yaml --width 21 --height 14.8
  shelfmark export cabinet12.yaml --rules rules.xlsx --strict`,
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

			if issues := sess.ValidateAll(); len(issues) > 0 {
				for _, is := range issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", is.Err)
				}
				if strict {
					return fmt.Errorf("document has %d validation issue(s)", len(issues))
				}
			}

			page, err := resolvePage(pageName, widthCm, heightCm)
			if err != nil {
				return err
			}

			tid := templateID
			if tid == "" {
				tid = config.DefaultTemplate()
			}
			if !template.Known(tid) {
				return fmt.Errorf("unknown template %q (see 'shelfmark templates')", tid)
			}

			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], ".yaml")
				outPath = strings.TrimSuffix(outPath, ".yml") + ".pdf"
			}

			if err := sess.ExportPDF(outPath, tid, page); err != nil {
				return err
			}
			if err := sess.SaveCache(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "Rules workbook (.xlsx) to validate against")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile id within the rules workbook")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id (default from config)")
	cmd.Flags().StringVar(&pageName, "page", "", "Page preset: a4-portrait, a4-landscape, a5-portrait, a5-landscape")
	cmd.Flags().Float64Var(&widthCm, "width", 0, "Custom page width in cm (with --height)")
	cmd.Flags().Float64Var(&heightCm, "height", 0, "Custom page height in cm (with --width)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output PDF path (default: document name with .pdf)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail the export when validation issues exist")

	return cmd
}

func resolvePage(name string, widthCm, heightCm float64) (geometry.PageSize, error) {
	if widthCm != 0 || heightCm != 0 {
		return geometry.Custom(widthCm, heightCm)
	}
	if name == "" {
		name = config.DefaultPage()
	}
	return geometry.Preset(name)
}

// rulesProfileFor loads the named (or first) profile from a workbook.
func rulesProfileFor(path, profileID string) (*rules.Profile, error) {
	wb, err := rules.LoadWorkbook(path)
	if err != nil {
		return nil, err
	}
	if profileID == "" {
		ids := wb.ProfileIDs()
		if len(ids) == 0 {
			return nil, &rules.LoadError{Path: path, Reason: "workbook declares no profiles"}
		}
		profileID = ids[0]
	}
	p, ok := wb.Profile(profileID)
	if !ok {
		return nil, &rules.LoadError{Path: path, Profile: profileID, Reason: "profile not found in workbook"}
	}
	return p, nil
}
