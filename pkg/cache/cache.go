// Package cache keeps a ranked history of previously committed codes and
// free-text fields, used for autocomplete suggestions. The working set is
// in memory; Load and Save move it through a local sqlite file.
package cache

import (
	"sort"
	"strings"
	"time"
)

// DefaultCapPerLevel bounds the number of code entries kept per level.
const DefaultCapPerLevel = 200

// Entry is one remembered (level, code, name) triple.
type Entry struct {
	Level    int
	Code     string
	Name     string
	UseCount int
	LastUsed time.Time
}

// TextEntry is one remembered free-text value for a named field
// ("title" or "section").
type TextEntry struct {
	Field    string
	Text     string
	UseCount int
	LastUsed time.Time
}

// Store is the in-memory cache. It is not safe for concurrent use; the
// session model is single-threaded (see the service package).
type Store struct {
	codes map[int]map[string]*Entry    // level -> lower(code) -> entry
	texts map[string]map[string]*TextEntry // field -> lower(text) -> entry

	capPerLevel int
	now         func() time.Time
}

// New returns an empty store. capPerLevel <= 0 selects DefaultCapPerLevel.
func New(capPerLevel int) *Store {
	if capPerLevel <= 0 {
		capPerLevel = DefaultCapPerLevel
	}
	return &Store{
		codes:       map[int]map[string]*Entry{},
		texts:       map[string]map[string]*TextEntry{},
		capPerLevel: capPerLevel,
		now:         time.Now,
	}
}

// SetClock overrides the timestamp source. Tests use this to build
// deterministic recency orderings.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Record upserts a code entry: a repeat commit bumps the count and
// timestamp instead of duplicating. Eviction runs here, not at save time,
// so memory stays bounded during long sessions.
func (s *Store) Record(level int, code, name string) {
	code = collapse(code)
	if code == "" {
		return
	}
	byCode := s.codes[level]
	if byCode == nil {
		byCode = map[string]*Entry{}
		s.codes[level] = byCode
	}
	key := strings.ToLower(code)
	if e, ok := byCode[key]; ok {
		e.UseCount++
		e.LastUsed = s.now()
		if name != "" {
			e.Name = collapse(name)
		}
	} else {
		byCode[key] = &Entry{Level: level, Code: code, Name: collapse(name), UseCount: 1, LastUsed: s.now()}
	}
	s.evict(level)
}

// RecordText upserts a free-text entry for field.
func (s *Store) RecordText(field, text string) {
	text = collapse(text)
	if text == "" {
		return
	}
	byText := s.texts[field]
	if byText == nil {
		byText = map[string]*TextEntry{}
		s.texts[field] = byText
	}
	key := strings.ToLower(text)
	if e, ok := byText[key]; ok {
		e.UseCount++
		e.LastUsed = s.now()
	} else {
		byText[key] = &TextEntry{Field: field, Text: text, UseCount: 1, LastUsed: s.now()}
	}
}

// Query returns up to limit code entries for level matching prefix
// (case-insensitive), best first. Ranking: exact match, then use count,
// then recency, then code order as the deterministic tie-break.
func (s *Store) Query(level int, prefix string, limit int) []Entry {
	p := strings.ToLower(strings.TrimSpace(prefix))
	var out []Entry
	for _, e := range s.codes[level] {
		if p == "" || strings.HasPrefix(strings.ToLower(e.Code), p) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessRanked(rankKey{strings.ToLower(out[i].Code) == p, out[i].UseCount, out[i].LastUsed, out[i].Code},
			rankKey{strings.ToLower(out[j].Code) == p, out[j].UseCount, out[j].LastUsed, out[j].Code})
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// QueryText returns up to limit free-text entries for field matching
// prefix, ranked the same way as Query.
func (s *Store) QueryText(field, prefix string, limit int) []TextEntry {
	p := strings.ToLower(strings.TrimSpace(prefix))
	var out []TextEntry
	for _, e := range s.texts[field] {
		if p == "" || strings.HasPrefix(strings.ToLower(e.Text), p) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessRanked(rankKey{strings.ToLower(out[i].Text) == p, out[i].UseCount, out[i].LastUsed, out[i].Text},
			rankKey{strings.ToLower(out[j].Text) == p, out[j].UseCount, out[j].LastUsed, out[j].Text})
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Lookup returns the remembered entry for an exact (level, code) key.
func (s *Store) Lookup(level int, code string) (Entry, bool) {
	e, ok := s.codes[level][strings.ToLower(collapse(code))]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of code entries stored for level.
func (s *Store) Len(level int) int {
	return len(s.codes[level])
}

// Levels returns the levels that currently hold entries, ascending.
func (s *Store) Levels() []int {
	var out []int
	for lv := range s.codes {
		out = append(out, lv)
	}
	sort.Ints(out)
	return out
}

// evict drops lowest-ranked entries until the level is at its cap.
func (s *Store) evict(level int) {
	byCode := s.codes[level]
	if len(byCode) <= s.capPerLevel {
		return
	}
	ranked := s.Query(level, "", 0)
	for _, victim := range ranked[s.capPerLevel:] {
		delete(byCode, strings.ToLower(victim.Code))
	}
}

type rankKey struct {
	exact    bool
	useCount int
	lastUsed time.Time
	text     string
}

func lessRanked(a, b rankKey) bool {
	if a.exact != b.exact {
		return a.exact
	}
	if a.useCount != b.useCount {
		return a.useCount > b.useCount
	}
	if !a.lastUsed.Equal(b.lastUsed) {
		return a.lastUsed.After(b.lastUsed)
	}
	return a.text < b.text
}

// collapse trims and squeezes internal whitespace, the same normalization
// applied to workbook cells.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
