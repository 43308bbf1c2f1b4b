// Package rules models classification standards (profiles) loaded from a
// rules workbook and implements code normalization, validation, and
// autocomplete suggestion against them.
package rules

import (
	"fmt"
	"sort"
	"strings"
)

// CaseRule controls letter casing applied to code fragments.
type CaseRule string

const (
	CaseKeep  CaseRule = "keep"
	CaseUpper CaseRule = "upper"
	CaseLower CaseRule = "lower"
	CaseTitle CaseRule = "title"
)

// LevelFormat describes how codes are written at one level.
type LevelFormat struct {
	// PadWidth left-pads purely numeric fragments with zeros.
	PadWidth int
	// Delimiter joins this level's fragment to the parent's canonical code.
	Delimiter string
	// Case is applied to alphabetic fragments.
	Case CaseRule
}

// AuthorityEntry is one allowed code→name pair at a level.
type AuthorityEntry struct {
	Code string
	Name string
}

// ChildTemplate predeclares a child row that can be instantiated under a
// given parent (the workbook's DefaultChildren sheet).
type ChildTemplate struct {
	Level int
	Code  string
	Name  string
}

// Profile is one parsed classification standard. Immutable after load.
type Profile struct {
	ID         string
	Name       string
	LevelCount int

	labels  map[int]string
	formats map[int]LevelFormat

	// authority maps level -> lower(code) -> entry. An empty level map
	// means the level is unrestricted.
	authority map[int]map[string]AuthorityEntry

	// defaultChildren maps lower(parent canonical code) -> templates.
	defaultChildren map[string][]ChildTemplate

	// Locked forces names to the authority mapping and rejects codes
	// outside it. Unlocked profiles only rank unknown codes low.
	Locked bool

	// ScopeToParent restricts suggestions to authority codes consistent
	// with the current parent's canonical code. Workbook formats that
	// encode parentage in full codes set this; others opt in via a
	// Settings row.
	ScopeToParent bool

	Notes    string
	Settings map[string]string
}

// Label returns the display label for a level.
func (p *Profile) Label(level int) string {
	if l, ok := p.labels[level]; ok && l != "" {
		return l
	}
	return fmt.Sprintf("Level %d", level)
}

// Format returns the code format for a level. Defaults: two-digit padding
// at level 1, unpadded below, "." delimiter, casing kept as typed.
func (p *Profile) Format(level int) LevelFormat {
	f, ok := p.formats[level]
	if !ok {
		f = LevelFormat{}
	}
	if f.PadWidth <= 0 {
		if level == 1 {
			f.PadWidth = 2
		} else {
			f.PadWidth = 1
		}
	}
	if f.Delimiter == "" {
		f.Delimiter = "."
	}
	if f.Case == "" {
		f.Case = CaseKeep
	}
	return f
}

// HasAuthority reports whether a closed code set exists for level.
func (p *Profile) HasAuthority(level int) bool {
	return len(p.authority[level]) > 0
}

// LookupAuthority finds the allowed entry for a canonical code.
func (p *Profile) LookupAuthority(level int, code string) (AuthorityEntry, bool) {
	e, ok := p.authority[level][strings.ToLower(strings.TrimSpace(code))]
	return e, ok
}

// AuthorityFor returns the allowed entries for a level in code order.
func (p *Profile) AuthorityFor(level int) []AuthorityEntry {
	out := make([]AuthorityEntry, 0, len(p.authority[level]))
	for _, e := range p.authority[level] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// DefaultChildren returns the predeclared child rows for a parent code.
func (p *Profile) DefaultChildren(parentCode string) []ChildTemplate {
	kids := p.defaultChildren[strings.ToLower(strings.TrimSpace(parentCode))]
	out := make([]ChildTemplate, len(kids))
	copy(out, kids)
	return out
}

func (p *Profile) addAuthority(level int, e AuthorityEntry) {
	if p.authority == nil {
		p.authority = map[int]map[string]AuthorityEntry{}
	}
	if p.authority[level] == nil {
		p.authority[level] = map[string]AuthorityEntry{}
	}
	p.authority[level][strings.ToLower(e.Code)] = e
}

func (p *Profile) addDefaultChild(parentCode string, t ChildTemplate) {
	if p.defaultChildren == nil {
		p.defaultChildren = map[string][]ChildTemplate{}
	}
	key := strings.ToLower(strings.TrimSpace(parentCode))
	p.defaultChildren[key] = append(p.defaultChildren[key], t)
}
