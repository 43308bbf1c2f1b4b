package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/layout"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/template"
)

func TestMeasurer(t *testing.T) {
	m := NewMeasurer()

	w := m.TextWidth("Coleoptera", "Times", false, 11)
	assert.Greater(t, w, 0.0)
	assert.Greater(t, m.TextWidth("Coleoptera of Europe", "Times", false, 11), w,
		"longer text is wider")
	assert.Greater(t, m.TextWidth("Coleoptera", "Times", false, 14), w,
		"larger size is wider")
	assert.Equal(t, 0.0, m.TextWidth("", "Helvetica", true, 11))
}

func TestRenderEveryTemplate(t *testing.T) {
	tr := models.NewTree()
	a, err := tr.Insert(models.RootID, "01", "Insects")
	require.NoError(t, err)
	_, err = tr.Insert(a, "01.2", "Beetles")
	require.NoError(t, err)
	_, err = tr.Insert(models.RootID, "02", "Arachnids")
	require.NoError(t, err)

	page, err := geometry.Preset("a4-portrait")
	require.NoError(t, err)
	header := layout.HeaderInfo{Title: "Coleoptera of Europe", Section: "Cabinet 4"}

	for _, spec := range template.All() {
		t.Run(string(spec.ID), func(t *testing.T) {
			eng := layout.Engine{M: NewMeasurer()}
			res, err := eng.Layout(tr, header, spec, page)
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), string(spec.ID)+".pdf")
			require.NoError(t, (Renderer{}).Render(header, res, spec, page, out))

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			require.True(t, len(data) > 4)
			assert.Equal(t, "%PDF", string(data[:4]))
		})
	}
}
