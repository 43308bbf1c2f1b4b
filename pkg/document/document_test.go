package document

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/pkg/models"
)

func sampleDoc() *Document {
	return &Document{
		Title:   "Coleoptera of Europe",
		Section: "Cabinet 4",
		Profile: "nhmc",
		Nodes: []Entry{
			{Code: "01", Name: "Insects", Children: []Entry{
				{Code: "01.2", Name: "Beetles", Children: []Entry{
					{Code: "01.2.1", Name: "Weevils"},
				}},
			}},
			{Code: "02", Name: "Arachnids"},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.yaml")
	require.NoError(t, sampleDoc().Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc(), got)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	d := sampleDoc()
	require.NoError(t, d.Validate())

	deep := &Document{Nodes: []Entry{
		{Code: "1", Children: []Entry{
			{Code: "2", Children: []Entry{
				{Code: "3", Children: []Entry{
					{Code: "4", Children: []Entry{
						{Code: "5"},
					}},
				}},
			}},
		}},
	}}
	assert.Error(t, deep.Validate(), "five levels exceed the depth cap")

	noCode := &Document{Nodes: []Entry{{Name: "orphan"}}}
	assert.Error(t, noCode.Validate())
}

func TestTreeRoundtrip(t *testing.T) {
	d := sampleDoc()
	tr, err := d.Tree()
	require.NoError(t, err)
	assert.Equal(t, 4, tr.Len())

	back := FromTree(d.Title, d.Section, tr)
	assert.Equal(t, d.Nodes, back.Nodes)
	assert.Equal(t, d.Title, back.Title)
}

func TestTreeRejectsOverDeepDocument(t *testing.T) {
	d := &Document{Nodes: []Entry{
		{Code: "1", Children: []Entry{
			{Code: "2", Children: []Entry{
				{Code: "3", Children: []Entry{
					{Code: "4", Children: []Entry{
						{Code: "5"},
					}},
				}},
			}},
		}},
	}}
	_, err := d.Tree()
	assert.ErrorIs(t, err, models.ErrDepthExceeded)
}
