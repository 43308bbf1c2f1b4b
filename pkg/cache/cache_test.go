package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRecordUpsert(t *testing.T) {
	s := New(0)
	s.SetClock(steppingClock())

	s.Record(1, "01", "Insects")
	s.Record(1, " 01 ", "Insects")

	assert.Equal(t, 1, s.Len(1), "repeat commit must not duplicate")
	e, ok := s.Lookup(1, "01")
	require.True(t, ok)
	assert.Equal(t, 2, e.UseCount)
	assert.Equal(t, "Insects", e.Name)
}

func TestQueryRanking(t *testing.T) {
	s := New(0)
	s.SetClock(steppingClock())

	s.Record(1, "03", "Fungi")
	s.Record(1, "02", "Arachnids")
	s.Record(1, "02", "Arachnids")
	s.Record(1, "01", "Insects")

	got := s.Query(1, "0", 0)
	require.Len(t, got, 3)
	assert.Equal(t, "02", got[0].Code, "highest use count first")
	assert.Equal(t, "01", got[1].Code, "then most recent")
	assert.Equal(t, "03", got[2].Code)

	got = s.Query(1, "03", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "03", got[0].Code, "exact match outranks everything")

	assert.Empty(t, s.Query(2, "0", 0))
}

func TestQueryLimit(t *testing.T) {
	s := New(0)
	for _, c := range []string{"01", "02", "03", "04"} {
		s.Record(1, c, "")
	}
	assert.Len(t, s.Query(1, "0", 2), 2)
}

func TestEvictionKeepsBestRanked(t *testing.T) {
	s := New(3)
	s.SetClock(steppingClock())

	s.Record(1, "01", "")
	s.Record(1, "01", "")
	s.Record(1, "02", "")
	s.Record(1, "03", "")
	s.Record(1, "04", "")

	assert.Equal(t, 3, s.Len(1))
	_, ok := s.Lookup(1, "01")
	assert.True(t, ok, "most used entry survives eviction")
	_, ok = s.Lookup(1, "02")
	assert.False(t, ok, "oldest single-use entry is evicted")
}

func TestRecordText(t *testing.T) {
	s := New(0)
	s.SetClock(steppingClock())

	s.RecordText("title", "Coleoptera of Europe")
	s.RecordText("title", "coleoptera of europe")
	s.RecordText("section", "Cabinet 4")

	got := s.QueryText("title", "col", 0)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].UseCount, "case-insensitive upsert")
	assert.Empty(t, s.QueryText("title", "cab", 0))
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.db")

	s := New(0)
	s.SetClock(steppingClock())
	s.Record(1, "01", "Insects")
	s.Record(1, "01", "Insects")
	s.Record(2, "01.2", "Beetles")
	s.RecordText("title", "Coleoptera of Europe")

	require.NoError(t, s.Save(path))

	loaded := Load(path, 0)
	assert.Equal(t, []int{1, 2}, loaded.Levels())

	e, ok := loaded.Lookup(1, "01")
	require.True(t, ok)
	assert.Equal(t, "Insects", e.Name)
	assert.Equal(t, 2, e.UseCount)

	_, ok = loaded.Lookup(2, "01.2")
	assert.True(t, ok)

	texts := loaded.QueryText("title", "", 0)
	require.Len(t, texts, 1)
	assert.Equal(t, "Coleoptera of Europe", texts[0].Text)
}

func TestSaveReplacesPriorContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s := New(0)
	s.Record(1, "01", "Insects")
	require.NoError(t, s.Save(path))

	s2 := New(0)
	s2.Record(1, "02", "Arachnids")
	require.NoError(t, s2.Save(path))

	loaded := Load(path, 0)
	_, ok := loaded.Lookup(1, "01")
	assert.False(t, ok, "save is a full replace, not a merge")
	_, ok = loaded.Lookup(1, "02")
	assert.True(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "absent.db"), 0)
	require.NotNil(t, s)
	assert.Empty(t, s.Levels())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0644))

	s := Load(path, 0)
	require.NotNil(t, s, "corrupt cache must not fail startup")
	assert.Empty(t, s.Levels())
}

func TestMigrateLegacy(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "legacy.db")
	current := filepath.Join(dir, "new", "cache.db")

	src := New(0)
	src.Record(1, "01", "Insects")
	require.NoError(t, src.Save(legacy))

	MigrateLegacy(current, legacy)
	loaded := Load(current, 0)
	_, ok := loaded.Lookup(1, "01")
	assert.True(t, ok)

	// An existing cache is never overwritten.
	fresh := New(0)
	fresh.Record(1, "09", "Minerals")
	require.NoError(t, fresh.Save(current))
	MigrateLegacy(current, legacy)
	loaded = Load(current, 0)
	_, ok = loaded.Lookup(1, "09")
	assert.True(t, ok)
}
