package rules

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, build func(f *excelize.File)) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadProfilesFormat(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Profiles"))
		require.NoError(t, f.SetSheetRow("Profiles", "A1", &[]any{
			"profile_id", "profile_name", "level_count", "level1_label", "level2_label", "code_delimiter", "level1_pad",
		}))
		require.NoError(t, f.SetSheetRow("Profiles", "A2", &[]any{
			"nhmc", "NHMC Standard", 2, "Cabinet", "Drawer", ".", 2,
		}))

		_, err := f.NewSheet("LevelMappings")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("LevelMappings", "A1", &[]any{"profile_id", "level", "code", "name"}))
		require.NoError(t, f.SetSheetRow("LevelMappings", "A2", &[]any{"nhmc", 1, "01", "Insects"}))
		require.NoError(t, f.SetSheetRow("LevelMappings", "A3", &[]any{"nhmc", 2, "01.2", "Beetles"}))

		_, err = f.NewSheet("DefaultChildren")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("DefaultChildren", "A1", &[]any{
			"profile_id", "parent_level", "parent_code", "child_level", "child_code", "child_name",
		}))
		require.NoError(t, f.SetSheetRow("DefaultChildren", "A2", &[]any{
			"nhmc", 1, "01", 2, "1", "Unsorted",
		}))

		_, err = f.NewSheet("Settings")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Settings", "A1", &[]any{"key", "value"}))
		require.NoError(t, f.SetSheetRow("Settings", "A2", &[]any{"scope_suggestions_to_parent", "true"}))
	})

	wb, err := LoadWorkbook(path)
	require.NoError(t, err)
	require.Equal(t, []string{"nhmc"}, wb.ProfileIDs())

	p, ok := wb.Profile("nhmc")
	require.True(t, ok)
	assert.Equal(t, "NHMC Standard", p.Name)
	assert.Equal(t, 2, p.LevelCount)
	assert.Equal(t, "Cabinet", p.Label(1))
	assert.Equal(t, "Drawer", p.Label(2))
	assert.True(t, p.Locked)
	assert.True(t, p.ScopeToParent, "enabled via Settings")

	entry, ok := p.LookupAuthority(1, "01")
	require.True(t, ok)
	assert.Equal(t, "Insects", entry.Name)
	assert.True(t, p.HasAuthority(2))

	kids := p.DefaultChildren("01")
	require.Len(t, kids, 1)
	assert.Equal(t, "1", kids[0].Code)
	assert.Equal(t, "Unsorted", kids[0].Name)
}

func TestLoadProfilesFormatMissingCodeColumn(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Profiles"))
		require.NoError(t, f.SetSheetRow("Profiles", "A1", &[]any{"profile_id", "profile_name"}))
		require.NoError(t, f.SetSheetRow("Profiles", "A2", &[]any{"nhmc", "NHMC Standard"}))

		_, err := f.NewSheet("LevelMappings")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("LevelMappings", "A1", &[]any{"profile_id", "level", "name"}))
		require.NoError(t, f.SetSheetRow("LevelMappings", "A2", &[]any{"nhmc", 1, "Insects"}))
	})

	_, err := LoadWorkbook(path)
	var le *LoadError
	require.True(t, errors.As(err, &le), "want LoadError, got %v", err)
	assert.Equal(t, "LevelMappings", le.Sheet)
	assert.Contains(t, le.Profile, "nhmc")
	assert.Contains(t, le.Reason, `"code"`)
}

func TestLoadAuthorityFormat(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Profile"))
		require.NoError(t, f.SetSheetRow("Profile", "A1", &[]any{"Institution", "Natural History Museum"}))
		require.NoError(t, f.SetSheetRow("Profile", "A2", &[]any{"Discipline", "Entomology"}))
		require.NoError(t, f.SetSheetRow("Profile", "A3", &[]any{"Code delimiter", "."}))
		require.NoError(t, f.SetSheetRow("Profile", "A4", &[]any{"Number of levels", 2}))
		require.NoError(t, f.SetSheetRow("Profile", "A5", &[]any{"Pad level 1 codes to", 2}))
		require.NoError(t, f.SetSheetRow("Profile", "A6", &[]any{"Level 1 name", "Cabinet"}))
		require.NoError(t, f.SetSheetRow("Profile", "A7", &[]any{"Level 2 name", "Drawer"}))

		_, err := f.NewSheet("Level 1")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Level 1", "A1", &[]any{"Code", "Name"}))
		require.NoError(t, f.SetSheetRow("Level 1", "A2", &[]any{"1", "Insects"}))
		require.NoError(t, f.SetSheetRow("Level 1", "A3", &[]any{"2", "Arachnids"}))

		_, err = f.NewSheet("Level 2")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Level 2", "A1", &[]any{"Parent code", "Code (suffix)", "Name"}))
		require.NoError(t, f.SetSheetRow("Level 2", "A2", &[]any{"1", "2", "Beetles"}))
		require.NoError(t, f.SetSheetRow("Level 2", "A3", &[]any{"1", "03", "Moths"}))
	})

	wb, err := LoadWorkbook(path)
	require.NoError(t, err)

	p, ok := wb.Profile("default")
	require.True(t, ok)
	assert.Equal(t, "Entomology", p.Name)
	assert.True(t, p.Locked)
	assert.True(t, p.ScopeToParent)
	assert.Equal(t, "Cabinet", p.Label(1))
	assert.Equal(t, "Natural History Museum", wb.Settings["institution"])

	if _, ok := p.LookupAuthority(1, "01"); !ok {
		t.Error("level 1 code should be padded to 01")
	}
	if _, ok := p.LookupAuthority(2, "01.2"); !ok {
		t.Error("level 2 code should expand to 01.2")
	}
	if _, ok := p.LookupAuthority(2, "01.3"); !ok {
		t.Error("padded suffix 03 should normalize to 01.3")
	}
}

func TestLoadAuthorityFormatMissingCodeColumn(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Profile"))
		require.NoError(t, f.SetSheetRow("Profile", "A1", &[]any{"Discipline", "Entomology"}))

		_, err := f.NewSheet("Level 1")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Level 1", "A1", &[]any{"Number", "Name"}))
		require.NoError(t, f.SetSheetRow("Level 1", "A2", &[]any{"1", "Insects"}))
	})

	_, err := LoadWorkbook(path)
	var le *LoadError
	require.True(t, errors.As(err, &le), "want LoadError, got %v", err)
	assert.Equal(t, "default", le.Profile)
	assert.Equal(t, "Level 1", le.Sheet)
}

func TestLoadUnrecognizedWorkbook(t *testing.T) {
	path := writeWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetSheetName("Sheet1", "Notes"))
	})

	_, err := LoadWorkbook(path)
	var mse *MissingSheetsError
	require.True(t, errors.As(err, &mse), "want MissingSheetsError, got %v", err)
	assert.Contains(t, mse.Found, "Notes")
}
