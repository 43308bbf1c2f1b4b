package layout

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/template"
)

// fixedMeasurer gives every rune half the font size in width, enough to
// exercise wrapping and fitting without real font metrics.
type fixedMeasurer struct{}

func (fixedMeasurer) TextWidth(text, family string, bold bool, size float64) float64 {
	return float64(len([]rune(text))) * size * 0.5
}

func a4() geometry.PageSize {
	p, _ := geometry.Preset("a4-portrait")
	return p
}

func TestWrapText(t *testing.T) {
	m := fixedMeasurer{}

	lines := WrapText(m, "short", "Times", false, 10, 500)
	assert.Equal(t, []string{"short"}, lines)

	assert.Equal(t, []string{""}, WrapText(m, "   ", "Times", false, 10, 500))

	// Each word is 25pt wide at size 10; a 60pt column takes two per line.
	lines = WrapText(m, "aaaaa bbbbb ccccc ddddd", "Times", false, 10, 60)
	assert.Equal(t, []string{"aaaaa bbbbb", "ccccc ddddd"}, lines)

	// A single word wider than the column is broken mid-word.
	lines = WrapText(m, "abcdefghij", "Times", false, 10, 25)
	assert.Equal(t, []string{"abcde", "fghij"}, lines)
}

func smallTree(t *testing.T) *models.Tree {
	t.Helper()
	tr := models.NewTree()
	a, err := tr.Insert(models.RootID, "01", "Insects")
	require.NoError(t, err)
	_, err = tr.Insert(a, "01.2", "Beetles")
	require.NoError(t, err)
	_, err = tr.Insert(models.RootID, "02", "Arachnids")
	require.NoError(t, err)
	return tr
}

func TestLayoutSinglePageKeepsBaseFont(t *testing.T) {
	e := &Engine{M: fixedMeasurer{}}
	res, err := e.Layout(smallTree(t), HeaderInfo{Title: "Test"}, template.Lookup("classic"), a4())
	require.NoError(t, err)

	assert.Equal(t, 1, res.PageCount)
	assert.Equal(t, 1, res.Columns)
	require.Len(t, res.Blocks, 3)
	for _, b := range res.Blocks {
		assert.Equal(t, 11.0, b.FontSize, "content that fits is never shrunk")
		assert.False(t, b.Continuation)
	}
}

func TestLayoutEmptyTree(t *testing.T) {
	e := &Engine{M: fixedMeasurer{}}
	res, err := e.Layout(models.NewTree(), HeaderInfo{}, template.Lookup("classic"), a4())
	require.NoError(t, err)
	assert.Empty(t, res.Blocks)
	assert.Equal(t, 1, res.PageCount)
}

func TestLayoutDeterministic(t *testing.T) {
	e := &Engine{M: fixedMeasurer{}}
	tr := bigGroupTree(t, 50)

	first, err := e.Layout(tr, HeaderInfo{Title: "T", Section: "S"}, template.Lookup("classic"), a4())
	require.NoError(t, err)
	second, err := e.Layout(tr, HeaderInfo{Title: "T", Section: "S"}, template.Lookup("classic"), a4())
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(first, second))
}

// bigGroupTree builds one level-1 node with n children, an atomic group
// too tall for any single column.
func bigGroupTree(t *testing.T, n int) *models.Tree {
	t.Helper()
	tr := models.NewTree()
	head, err := tr.Insert(models.RootID, "01", "Insects")
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := tr.Insert(head, fmt.Sprintf("01.%d", i), fmt.Sprintf("Drawer %d", i))
		require.NoError(t, err)
	}
	return tr
}

func TestLayoutSplitsOversizedGroup(t *testing.T) {
	e := &Engine{M: fixedMeasurer{}}
	tr := bigGroupTree(t, 50)
	spec := template.Lookup("classic")
	header := HeaderInfo{Title: "Test"}

	res, err := e.Layout(tr, header, spec, a4())
	require.NoError(t, err)
	assert.Greater(t, res.PageCount, 1)

	var placed, continuations int
	for _, b := range res.Blocks {
		if b.Continuation {
			continuations++
			assert.Equal(t, 1, b.Level, "only level-1 headings repeat")
			assert.Equal(t, "01", b.Code)
			// A continuation heading always opens its column.
			margin := geometry.CmToPt(MarginCm)
			assert.Equal(t, margin+HeaderHeight(header, b.Page == 0), b.Y)
		} else {
			placed++
		}
		assert.Equal(t, spec.MinFont, b.FontSize, "a split group renders at minimum size")
	}
	assert.Equal(t, tr.Len(), placed, "every node placed exactly once")
	assert.Greater(t, continuations, 0)
}

func TestLayoutBlocksInReadingOrder(t *testing.T) {
	e := &Engine{M: fixedMeasurer{}}
	res, err := e.Layout(bigGroupTree(t, 50), HeaderInfo{Title: "T"}, template.Lookup("classic"), a4())
	require.NoError(t, err)

	prevPage, prevCol, prevY := 0, 0, -1.0
	for _, b := range res.Blocks {
		if b.Page == prevPage && b.Column == prevCol {
			assert.Greater(t, b.Y, prevY)
		} else {
			assert.True(t, b.Page > prevPage || (b.Page == prevPage && b.Column > prevCol),
				"blocks must advance through columns then pages")
			prevY = -1.0
		}
		prevPage, prevCol, prevY = b.Page, b.Column, b.Y
	}
}

func TestLayoutTwoColumnFillsLeftFirst(t *testing.T) {
	tr := models.NewTree()
	for i := 1; i <= 40; i++ {
		_, err := tr.Insert(models.RootID, fmt.Sprintf("%02d", i), fmt.Sprintf("Group %d", i))
		require.NoError(t, err)
	}

	e := &Engine{M: fixedMeasurer{}}
	res, err := e.Layout(tr, HeaderInfo{Title: "T"}, template.Lookup("two_column"), a4())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Columns)
	var sawSecond bool
	for _, b := range res.Blocks {
		if b.Column == 1 {
			sawSecond = true
			assert.Greater(t, b.X, res.ColumnWidth, "second column sits right of the first")
		}
	}
	assert.True(t, sawSecond, "40 groups must overflow into the second column")
}

func TestLayoutTwoColumnCollapsesOnNarrowPage(t *testing.T) {
	a5, err := geometry.Preset("a5-portrait")
	require.NoError(t, err)

	e := &Engine{M: fixedMeasurer{}}
	res, err := e.Layout(smallTree(t), HeaderInfo{Title: "T"}, template.Lookup("two_column"), a5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Columns, "narrow pages fall back to a single column")
}

func TestLayoutRejectsTinyPage(t *testing.T) {
	page, err := geometry.Custom(2, 2)
	require.NoError(t, err)

	e := &Engine{M: fixedMeasurer{}}
	_, err = e.Layout(smallTree(t), HeaderInfo{}, template.Lookup("classic"), page)
	assert.Error(t, err)
}

func TestGroupByLevel1(t *testing.T) {
	rows := []Row{
		{Level: 1, Code: "01"},
		{Level: 2, Code: "01.1"},
		{Level: 3, Code: "01.1.1"},
		{Level: 1, Code: "02"},
		{Level: 2, Code: "02.1"},
	}
	groups := groupByLevel1(rows)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 2)
}

func TestSplitAtLevel(t *testing.T) {
	rows := []Row{
		{Level: 2, Code: "01.1"},
		{Level: 3, Code: "01.1.1"},
		{Level: 2, Code: "01.2"},
		{Level: 3, Code: "01.2.1"},
		{Level: 4, Code: "01.2.1.1"},
	}
	chunks := splitAtLevel(rows, 2)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 3, "deeper rows stay with their subtree")
}
