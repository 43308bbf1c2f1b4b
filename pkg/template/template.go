// Package template enumerates the built-in PDF templates. A template is
// pure styling configuration: it never changes tree content, only how the
// layout engine flows it and how the renderer decorates it.
package template

// ID names one built-in template.
type ID string

const (
	Classic       ID = "classic"
	Modern        ID = "modern"
	Institutional ID = "institutional"
	Boxed         ID = "boxed"
	Compact       ID = "compact"
	CodeFirst     ID = "code_first"
	Outline       ID = "outline"
	TwoColumn     ID = "two_column"
)

// Spec is the configuration record for one template.
type Spec struct {
	ID          ID
	DisplayName string

	// Columns is 1 or 2. Single-column templates never overflow into a
	// second column.
	Columns int

	FontRegular string // fpdf core family: "Times" or "Helvetica"
	BaseFont    float64
	MinFont     float64
	LeadingMult float64
	RowPadPt    float64
	RowGapPt    float64

	// CodeColFrac is the fraction of the column width given to the code cell.
	CodeColFrac float64
	IndentStep  float64

	// Decoration flags.
	Boxed     bool // rectangle around every row
	Outlined  bool // bullets + per-depth indentation, no cell separator
	CodeFirst bool // emphasized code cell
	Footer    bool // institutional page-number footer
}

var specs = map[ID]Spec{
	Classic: {
		ID: Classic, DisplayName: "Classic Formal (Serif)",
		Columns: 1, FontRegular: "Times",
		BaseFont: 11, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 6, RowGapPt: 6, CodeColFrac: 0.30, IndentStep: 10,
	},
	Modern: {
		ID: Modern, DisplayName: "Modern Formal (Sans)",
		Columns: 1, FontRegular: "Helvetica",
		BaseFont: 11, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 6, RowGapPt: 6, CodeColFrac: 0.30, IndentStep: 10,
	},
	Institutional: {
		ID: Institutional, DisplayName: "Institutional (Header + Footer)",
		Columns: 1, FontRegular: "Helvetica",
		BaseFont: 11, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 6, RowGapPt: 6, CodeColFrac: 0.30, IndentStep: 10,
		Footer: true,
	},
	Boxed: {
		ID: Boxed, DisplayName: "Boxed Sections (Formal Blocks)",
		Columns: 1, FontRegular: "Times",
		BaseFont: 11, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 6, RowGapPt: 6, CodeColFrac: 0.30, IndentStep: 10,
		Boxed: true,
	},
	Compact: {
		ID: Compact, DisplayName: "Compact Card (Dense Layout)",
		Columns: 1, FontRegular: "Helvetica",
		BaseFont: 10, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 3.5, RowGapPt: 4, CodeColFrac: 0.30, IndentStep: 10,
	},
	CodeFirst: {
		ID: CodeFirst, DisplayName: "Code-First (Large Codes)",
		Columns: 1, FontRegular: "Helvetica",
		BaseFont: 12, MinFont: 7.5, LeadingMult: 1.25,
		RowPadPt: 5, RowGapPt: 6, CodeColFrac: 0.40, IndentStep: 10,
		CodeFirst: true,
	},
	Outline: {
		ID: Outline, DisplayName: "Indented Outline (No Table)",
		Columns: 1, FontRegular: "Helvetica",
		BaseFont: 11, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 4, RowGapPt: 6, CodeColFrac: 0.26, IndentStep: 10,
		Outlined: true,
	},
	TwoColumn: {
		ID: TwoColumn, DisplayName: "Two-Column Hierarchy",
		Columns: 2, FontRegular: "Helvetica",
		BaseFont: 11, MinFont: 7, LeadingMult: 1.25,
		RowPadPt: 4, RowGapPt: 6, CodeColFrac: 0.26, IndentStep: 10,
		Outlined: true,
	},
}

// Order for listings.
var order = []ID{Classic, Modern, Institutional, Boxed, Compact, CodeFirst, Outline, TwoColumn}

// Lookup returns the spec for id. Unknown ids fall back to Classic.
func Lookup(id string) Spec {
	if s, ok := specs[ID(id)]; ok {
		return s
	}
	return specs[Classic]
}

// Known reports whether id names a built-in template.
func Known(id string) bool {
	_, ok := specs[ID(id)]
	return ok
}

// All returns every template spec in display order.
func All() []Spec {
	out := make([]Spec, 0, len(order))
	for _, id := range order {
		out = append(out, specs[id])
	}
	return out
}
