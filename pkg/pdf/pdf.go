// Package pdf draws layout output into a PDF file and supplies the font
// metrics the layout engine measures with. All placement decisions happen
// in the layout package; this is the drawing backend.
package pdf

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/layout"
	"github.com/shelfmark/shelfmark/pkg/template"
)

// Measurer measures text with fpdf's core font metrics.
type Measurer struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

// NewMeasurer returns a Measurer backed by an off-screen document.
func NewMeasurer() *Measurer {
	doc := fpdf.New("P", "pt", "A4", "")
	return &Measurer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

// TextWidth implements layout.Measurer.
func (m *Measurer) TextWidth(text, family string, bold bool, size float64) float64 {
	style := ""
	if bold {
		style = "B"
	}
	m.doc.SetFont(family, style, size)
	return m.doc.GetStringWidth(m.tr(text))
}

// Renderer writes layout results to disk.
type Renderer struct{}

// Render draws the block stream with the template's styling and writes
// the document to outPath.
func (Renderer) Render(header layout.HeaderInfo, res *layout.Result, spec template.Spec, page geometry.PageSize, outPath string) error {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	m := &Measurer{doc: doc, tr: tr}

	margin := geometry.CmToPt(layout.MarginCm)
	for p := 0; p < res.PageCount; p++ {
		doc.AddPage()
		drawHeader(doc, tr, header, spec, page, margin, p == 0)
		if spec.Footer {
			footer := fmt.Sprintf("Page %d of %d", p+1, res.PageCount)
			doc.SetFont(spec.FontRegular, "", 8.5)
			doc.Text(page.Width/2-doc.GetStringWidth(tr(footer))/2, page.Height-margin+10, tr(footer))
		}
		for _, b := range res.Blocks {
			if b.Page == p {
				drawBlock(doc, tr, m, b, spec, res)
			}
		}
	}

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf %s: %w", outPath, err)
	}
	return nil
}

func drawHeader(doc *fpdf.Fpdf, tr func(string) string, h layout.HeaderInfo, spec template.Spec, page geometry.PageSize, margin float64, first bool) {
	y := margin
	if first {
		doc.SetFont(spec.FontRegular, "B", 14)
		title := tr(h.Title)
		doc.Text(page.Width/2-doc.GetStringWidth(title)/2, y+14, title)
		y += 24
		if h.Section != "" {
			doc.SetFont(spec.FontRegular, "", 10)
			sec := tr(h.Section)
			doc.Text(page.Width/2-doc.GetStringWidth(sec)/2, y+10, sec)
			y += 18
		}
	} else {
		doc.SetFont(spec.FontRegular, "B", 12)
		doc.Text(margin, y+12, tr(h.Title))
		y += 20
		if h.Section != "" {
			doc.SetFont(spec.FontRegular, "", 9.5)
			doc.Text(margin, y+10, tr(h.Section))
			y += 14
		}
	}
	doc.SetLineWidth(0.8)
	doc.Line(margin, y, page.Width-margin, y)
}

func drawBlock(doc *fpdf.Fpdf, tr func(string) string, m *Measurer, b layout.Block, spec template.Spec, res *layout.Result) {
	indent := 0.0
	textX := b.X
	if spec.Outlined {
		indent = float64(b.Level-1) * spec.IndentStep
		doc.SetFont(spec.FontRegular, "", b.FontSize*0.9)
		doc.Text(b.X+indent, b.Y+10, tr("•"))
		textX = b.X + indent + 10
	}

	codeX := textX
	nameX := textX + res.CodeWidth
	leading := b.FontSize * spec.LeadingMult

	codeSize := b.FontSize
	if spec.CodeFirst {
		codeSize = b.FontSize + 1
	}
	drawWrapped(doc, tr, m, b.Code, spec.FontRegular, true, codeSize, codeX, b.Y, res.CodeWidth-6, codeSize*spec.LeadingMult)

	if !spec.Outlined {
		doc.SetLineWidth(0.3)
		doc.Line(nameX-6, b.Y+2, nameX-6, b.Y+b.Height-2)
	}

	drawWrapped(doc, tr, m, b.Name, spec.FontRegular, false, b.FontSize, nameX, b.Y, res.NameWidth-2, leading)

	if spec.Boxed {
		doc.SetLineWidth(0.6)
		doc.Rect(b.X, b.Y, b.Width, b.Height, "D")
	}
}

func drawWrapped(doc *fpdf.Fpdf, tr func(string) string, m *Measurer, text, family string, bold bool, size, x, yTop, maxW, leading float64) {
	style := ""
	if bold {
		style = "B"
	}
	doc.SetFont(family, style, size)
	y := yTop + size
	for _, line := range layout.WrapText(m, text, family, bold, size, maxW) {
		doc.Text(x, y, tr(line))
		y += leading
	}
}
