// Package layout flows a classification tree into pages and columns. It
// decides positions, font sizes, and page breaks; drawing is left to the
// pdf package. Output is deterministic for a given tree, template, and
// page geometry, so a preview and the final export always agree.
package layout

import (
	"fmt"

	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/template"
)

const (
	// MarginCm is the page margin on all sides.
	MarginCm = 1.6
	// HeaderGapPt separates the header rule from the first row.
	HeaderGapPt = 12.0
	// ColumnGapPt separates the two columns of a two-column template.
	ColumnGapPt = 12.0
	// MinTwoColumnCm is the narrowest usable width that still gets two
	// columns; below this (A5 portrait) the layout collapses to one.
	MinTwoColumnCm = 15.0
	// FontStepPt is the step-down used when shrinking to avoid overflow.
	FontStepPt = 0.5
	// FooterReservePt is kept free for templates with a page footer.
	FooterReservePt = 18.0
)

// HeaderInfo is what the page header will contain; the layout engine only
// needs it for its height.
type HeaderInfo struct {
	Title   string
	Section string
}

// HeaderHeight returns the vertical space the page header occupies. The
// first page carries the full-size header, later pages a reduced one.
func HeaderHeight(h HeaderInfo, firstPage bool) float64 {
	if firstPage {
		v := 24.0
		if h.Section != "" {
			v += 18.0
		}
		return v + HeaderGapPt
	}
	v := 20.0
	if h.Section != "" {
		v += 14.0
	}
	return v + HeaderGapPt
}

// Row is one line of the flattened content stream.
type Row struct {
	Node  models.NodeID
	Level int
	Code  string
	Name  string
}

// Block is one placed row: an ephemeral layout decision, recomputed on
// every export and never persisted.
type Block struct {
	Node  models.NodeID
	Level int
	Code  string
	Name  string

	Page   int
	Column int
	X, Y   float64 // top-left corner, page coordinates
	Width  float64
	Height float64

	FontSize float64

	// Continuation marks a repeated level-1 heading at the top of a
	// column that continues a split group.
	Continuation bool
}

// Result is the full placement for one export.
type Result struct {
	Blocks    []Block
	PageCount int
	Columns   int

	ColumnWidth float64
	CodeWidth   float64
	NameWidth   float64
}

// Engine computes layouts through a Measurer.
type Engine struct {
	M Measurer
}

// Flatten walks the tree depth-first in child order into the linear
// content stream the layout consumes.
func Flatten(t *models.Tree) []Row {
	var rows []Row
	t.Walk(func(n *models.Node, level int) {
		rows = append(rows, Row{Node: n.ID, Level: level, Code: n.Code, Name: n.Name})
	})
	return rows
}

// Layout places the tree onto pages under the given template and page
// geometry.
func (e *Engine) Layout(tree *models.Tree, header HeaderInfo, spec template.Spec, page geometry.PageSize) (*Result, error) {
	margin := geometry.CmToPt(MarginCm)
	contentW := page.Width - 2*margin
	contentH := page.Height - 2*margin
	if contentW <= 0 || contentH <= 0 {
		return nil, fmt.Errorf("page %s too small for %.1fcm margins", page.Name, MarginCm)
	}

	cols := spec.Columns
	if cols == 2 && contentW < geometry.CmToPt(MinTwoColumnCm) {
		cols = 1
	}
	colW := (contentW - ColumnGapPt*float64(cols-1)) / float64(cols)

	st := &placer{
		engine: e,
		spec:   spec,
		header: header,
		margin: margin,
		bottom: page.Height - margin,
		cols:   cols,
		colW:   colW,
		codeW:  colW * spec.CodeColFrac,
		res: &Result{
			PageCount:   1,
			Columns:     cols,
			ColumnWidth: colW,
			CodeWidth:   colW * spec.CodeColFrac,
			NameWidth:   colW - colW*spec.CodeColFrac,
		},
	}
	if spec.Footer {
		st.bottom -= FooterReservePt
	}
	st.y = st.colTop(0)

	rows := Flatten(tree)
	if len(rows) == 0 {
		return st.res, nil
	}

	for _, group := range groupByLevel1(rows) {
		st.placeGroup(group)
	}
	return st.res, nil
}

// groupByLevel1 splits the stream into atomic groups: each level-1 row
// with all of its descendants. Leading rows above the first level-1 row
// form a group of their own.
func groupByLevel1(rows []Row) [][]Row {
	var groups [][]Row
	var cur []Row
	for _, r := range rows {
		if r.Level == 1 && len(cur) > 0 {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// splitAtLevel breaks rows into chunks starting at each row of depth <=
// level; deeper rows stay with the chunk above them.
func splitAtLevel(rows []Row, level int) [][]Row {
	var chunks [][]Row
	var cur []Row
	for _, r := range rows {
		if r.Level <= level && len(cur) > 0 {
			chunks = append(chunks, cur)
			cur = nil
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// placer tracks the cursor while blocks are emitted.
type placer struct {
	engine *Engine
	spec   template.Spec
	header HeaderInfo

	margin float64
	bottom float64
	cols   int
	colW   float64
	codeW  float64

	page int
	col  int
	y    float64

	res *Result
}

func (p *placer) colTop(page int) float64 {
	return p.margin + HeaderHeight(p.header, page == 0)
}

func (p *placer) atTop() bool {
	return p.y == p.colTop(p.page)
}

func (p *placer) x() float64 {
	return p.margin + float64(p.col)*(p.colW+ColumnGapPt)
}

// advance moves to the next column, or the next page when the last column
// of the page is full.
func (p *placer) advance() {
	if p.col < p.cols-1 {
		p.col++
	} else {
		p.col = 0
		p.page++
		if p.page+1 > p.res.PageCount {
			p.res.PageCount = p.page + 1
		}
	}
	p.y = p.colTop(p.page)
}

// nextCapacity is the usable height of the column advance would move to.
func (p *placer) nextCapacity() float64 {
	page := p.page
	if p.col >= p.cols-1 {
		page++
	}
	return p.bottom - p.colTop(page)
}

// rowHeight measures one row at size: both cells wrapped at their column
// widths, the taller one wins. Code-first templates render the code cell
// one point larger, so it is measured that way too.
func (p *placer) rowHeight(r Row, size float64) float64 {
	nameW := p.colW - p.codeW
	codeSize := size
	if p.spec.CodeFirst {
		codeSize = size + 1
	}
	codeLines := WrapText(p.engine.M, r.Code, p.spec.FontRegular, true, codeSize, p.codeW-6)
	nameLines := WrapText(p.engine.M, r.Name, p.spec.FontRegular, false, size, nameW-2)
	codeH := codeSize * p.spec.LeadingMult * float64(len(codeLines))
	nameH := size * p.spec.LeadingMult * float64(len(nameLines))
	h := codeH
	if nameH > h {
		h = nameH
	}
	return h + p.spec.RowPadPt
}

func (p *placer) groupHeight(rows []Row, size float64) float64 {
	h := 0.0
	for _, r := range rows {
		h += p.rowHeight(r, size) + p.spec.RowGapPt
	}
	return h
}

// fitSize finds the largest font size, stepping down from the template
// base to its minimum, at which rows fit into avail. Base size is tried
// first so content that fits is never shrunk.
func (p *placer) fitSize(rows []Row, avail float64) (float64, bool) {
	for size := p.spec.BaseFont; size >= p.spec.MinFont-1e-6; size -= FontStepPt {
		if p.groupHeight(rows, size) <= avail {
			return size, true
		}
	}
	return 0, false
}

func (p *placer) place(r Row, size float64, continuation bool) {
	h := p.rowHeight(r, size)
	p.res.Blocks = append(p.res.Blocks, Block{
		Node: r.Node, Level: r.Level, Code: r.Code, Name: r.Name,
		Page: p.page, Column: p.col,
		X: p.x(), Y: p.y, Width: p.colW, Height: h,
		FontSize: size, Continuation: continuation,
	})
	p.y += h + p.spec.RowGapPt
}

func (p *placer) placeAll(rows []Row, size float64) {
	for _, r := range rows {
		p.place(r, size, false)
	}
}

// placeGroup applies the group-integrity search order: whole group in the
// current column (shrinking if needed), whole group in a fresh column,
// and only then a split at the level-1 to level-2 boundary.
func (p *placer) placeGroup(group []Row) {
	if size, ok := p.fitSize(group, p.bottom-p.y); ok {
		p.placeAll(group, size)
		return
	}

	if size, ok := p.fitSize(group, p.nextCapacity()); ok {
		p.advance()
		p.placeAll(group, size)
		return
	}

	// The group alone exceeds a full column even at minimum size. Start
	// it at the top of a fresh column and split between level-2 subtrees.
	if !p.atTop() {
		p.advance()
	}
	size := p.spec.MinFont

	var head *Row
	rest := group
	if group[0].Level == 1 {
		head = &group[0]
		p.place(group[0], size, false)
		rest = group[1:]
	}
	headH := 0.0
	if head != nil {
		headH = p.rowHeight(*head, size) + p.spec.RowGapPt
	}

	for _, chunk := range splitAtLevel(rest, 2) {
		chunkH := p.groupHeight(chunk, size)
		if chunkH <= p.bottom-p.y {
			p.placeAll(chunk, size)
			continue
		}
		if chunkH <= p.nextCapacity()-headH {
			p.continueColumn(head, size)
			p.placeAll(chunk, size)
			continue
		}
		// A single level-2 subtree taller than a column: fall back to
		// breaking inside it at whatever boundary the column forces.
		for _, r := range chunk {
			h := p.rowHeight(r, size)
			if p.y+h > p.bottom && !p.atTop() {
				p.continueColumn(head, size)
			}
			p.place(r, size, false)
		}
	}
}

// continueColumn advances and repeats the group's level-1 heading so a
// reader of any column knows which group it continues.
func (p *placer) continueColumn(head *Row, size float64) {
	p.advance()
	if head != nil {
		p.place(*head, size, true)
	}
}
