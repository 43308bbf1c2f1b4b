package rules

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shelfmark/shelfmark/pkg/cache"
	"github.com/shelfmark/shelfmark/pkg/models"
)

// DefaultMaxSuggestions bounds suggestion lists when the engine is not
// configured otherwise.
const DefaultMaxSuggestions = 20

// Context carries everything Normalize, Suggest, and ValidateCommit need
// about the current editing position. It is built fresh per call; the
// engine reads no ambient state.
type Context struct {
	// Profile is nil in Free Typing mode.
	Profile *Profile
	// ParentPath holds canonical codes from the top level down to the
	// current parent. Empty when inserting at level 1.
	ParentPath []string
	// TargetLevel is the level the fragment is destined for.
	TargetLevel int
}

// ParentCode returns the canonical code of the immediate parent, or "".
func (c Context) ParentCode() string {
	if len(c.ParentPath) == 0 {
		return ""
	}
	return c.ParentPath[len(c.ParentPath)-1]
}

// Suggestion is one ranked autocomplete candidate.
type Suggestion struct {
	Code string
	Name string
}

// Engine normalizes fragments and produces scoped suggestions. The cache
// supplies Free Typing candidates and recency/frequency ranking signals.
type Engine struct {
	Cache          *cache.Store
	MaxSuggestions int
}

var titleCaser = cases.Title(language.Und)

// Normalize turns a raw user fragment into a canonical code: noise is
// stripped, numeric fragments are zero-padded to the level's width, and
// the parent's canonical code is prefixed with the level delimiter. Under
// a locked profile the result must be in the level's authority set.
func (e *Engine) Normalize(raw string, ctx Context) (string, error) {
	if ctx.TargetLevel < 1 || ctx.TargetLevel > models.MaxDepth {
		return "", &Rejection{Reason: ReasonDepthExceeded, Code: raw,
			Detail: "level " + strconv.Itoa(ctx.TargetLevel) + " is out of range"}
	}

	format := formatFor(ctx.Profile, ctx.TargetLevel)
	frag := stripNoise(raw, format.Delimiter)
	if frag == "" {
		return "", &Rejection{Reason: ReasonBadFormat, Code: raw, Detail: "empty code"}
	}

	var canonical string
	switch {
	case strings.Contains(frag, format.Delimiter):
		// Already a full dotted code; trust it as typed.
		canonical = applyCase(frag, format.Case)
	default:
		canonical = applyCase(padFragment(frag, format.PadWidth), format.Case)
		if parent := ctx.ParentCode(); parent != "" && ctx.TargetLevel > 1 {
			canonical = parent + format.Delimiter + canonical
		}
	}

	if ctx.Profile != nil && ctx.Profile.Locked && ctx.Profile.HasAuthority(ctx.TargetLevel) {
		if _, ok := ctx.Profile.LookupAuthority(ctx.TargetLevel, canonical); !ok {
			return "", &Rejection{Reason: ReasonNotInAuthority, Code: canonical,
				Detail: "not in the authority set for " + ctx.Profile.Label(ctx.TargetLevel)}
		}
	}
	return canonical, nil
}

// ValidateCommit normalizes code, rejects sibling duplicates, and
// resolves the name: forced to the authority mapping under a locked
// profile, preserved verbatim otherwise (the mapping only fills a blank).
func (e *Engine) ValidateCommit(code, name string, siblingCodes []string, ctx Context) (string, string, error) {
	canonical, err := e.Normalize(code, ctx)
	if err != nil {
		return "", "", err
	}
	lc := strings.ToLower(canonical)
	for _, sib := range siblingCodes {
		if strings.ToLower(sib) == lc {
			return "", "", &Rejection{Reason: ReasonDuplicateSibling, Code: canonical,
				Detail: "a sibling already uses this code"}
		}
	}

	resolved := strings.TrimSpace(name)
	if ctx.Profile != nil {
		if entry, ok := ctx.Profile.LookupAuthority(ctx.TargetLevel, canonical); ok {
			if ctx.Profile.Locked || resolved == "" {
				resolved = entry.Name
			}
		}
	}
	return canonical, resolved, nil
}

// Suggest returns ranked candidates for prefix at the context's level. In
// Rules Mode candidates come from the authority set (scoped to the parent
// when the profile asks for it); in Free Typing they come from the cache.
// An empty prefix yields an empty list.
func (e *Engine) Suggest(ctx Context, prefix string) []Suggestion {
	frag := strings.TrimSpace(prefix)
	if frag == "" {
		return nil
	}
	limit := e.MaxSuggestions
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}

	format := formatFor(ctx.Profile, ctx.TargetLevel)
	raw, padded := expandPrefixes(frag, ctx, format)

	if ctx.Profile != nil && ctx.Profile.HasAuthority(ctx.TargetLevel) {
		out := e.rankAuthority(ctx, format, raw, padded)
		if !ctx.Profile.Locked {
			out = append(out, e.rankCacheOnly(ctx, raw, padded)...)
		}
		if len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	return e.rankCache(ctx.TargetLevel, raw, padded, limit)
}

// SuggestText proxies ranked free-text history for a named field such as
// "title" or "section". Profile-independent.
func (e *Engine) SuggestText(field, prefix string, limit int) []string {
	if e.Cache == nil {
		return nil
	}
	if limit <= 0 {
		limit = e.MaxSuggestions
	}
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	entries := e.Cache.QueryText(field, prefix, limit)
	out := make([]string, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.Text)
	}
	return out
}

// rankAuthority orders authority candidates: exact match first, then
// cache use count, then cache recency, then code order.
func (e *Engine) rankAuthority(ctx Context, format LevelFormat, raw, padded string) []Suggestion {
	scope := ""
	if ctx.Profile.ScopeToParent && ctx.TargetLevel > 1 {
		if parent := ctx.ParentCode(); parent != "" {
			scope = strings.ToLower(parent + format.Delimiter)
		}
	}

	type ranked struct {
		Suggestion
		exact    bool
		useCount int
		lastUsed time.Time
	}
	var cands []ranked
	for _, entry := range ctx.Profile.AuthorityFor(ctx.TargetLevel) {
		lc := strings.ToLower(entry.Code)
		if scope != "" && !strings.HasPrefix(lc, scope) {
			continue
		}
		if !strings.HasPrefix(lc, strings.ToLower(raw)) && !strings.HasPrefix(lc, strings.ToLower(padded)) {
			continue
		}
		r := ranked{Suggestion: Suggestion{Code: entry.Code, Name: entry.Name}}
		r.exact = lc == strings.ToLower(padded) || lc == strings.ToLower(raw)
		if e.Cache != nil {
			if ce, ok := e.Cache.Lookup(ctx.TargetLevel, entry.Code); ok {
				r.useCount = ce.UseCount
				r.lastUsed = ce.LastUsed
			}
		}
		cands = append(cands, r)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.exact != b.exact {
			return a.exact
		}
		if a.useCount != b.useCount {
			return a.useCount > b.useCount
		}
		if !a.lastUsed.Equal(b.lastUsed) {
			return a.lastUsed.After(b.lastUsed)
		}
		return a.Code < b.Code
	})
	out := make([]Suggestion, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Suggestion)
	}
	return out
}

// rankCache returns ranked cache candidates for a level.
func (e *Engine) rankCache(level int, raw, padded string, limit int) []Suggestion {
	if e.Cache == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []Suggestion
	for _, q := range []string{padded, raw} {
		for _, en := range e.Cache.Query(level, q, limit) {
			key := strings.ToLower(en.Code)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Suggestion{Code: en.Code, Name: en.Name})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// rankCacheOnly returns cache candidates absent from the authority set,
// for unlocked profiles where off-authority codes rank low.
func (e *Engine) rankCacheOnly(ctx Context, raw, padded string) []Suggestion {
	var out []Suggestion
	for _, s := range e.rankCache(ctx.TargetLevel, raw, padded, e.maxSuggestions()) {
		if _, ok := ctx.Profile.LookupAuthority(ctx.TargetLevel, s.Code); !ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) maxSuggestions() int {
	if e.MaxSuggestions > 0 {
		return e.MaxSuggestions
	}
	return DefaultMaxSuggestions
}

// expandPrefixes converts a typed fragment into the raw and padded full
// prefixes used for candidate matching: under parent "01" the fragment
// "3" matches both "01.3" and any padded variant.
func expandPrefixes(frag string, ctx Context, format LevelFormat) (string, string) {
	raw := frag
	padded := frag
	if isDigits(frag) {
		padded = padFragment(frag, format.PadWidth)
	}
	if parent := ctx.ParentCode(); parent != "" && ctx.TargetLevel > 1 && !strings.Contains(frag, format.Delimiter) {
		raw = parent + format.Delimiter + raw
		padded = parent + format.Delimiter + padded
	}
	return raw, padded
}

func formatFor(p *Profile, level int) LevelFormat {
	if p != nil {
		return p.Format(level)
	}
	return (&Profile{}).Format(level)
}

// stripNoise drops characters that are neither alphanumeric nor the
// delimiter and squeezes whitespace away.
func stripNoise(raw, delimiter string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case strings.ContainsRune(delimiter, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// padFragment left-pads numeric fragments to width, normalizing any
// existing padding first ("06" at width 1 becomes "6").
func padFragment(frag string, width int) string {
	if !isDigits(frag) {
		return frag
	}
	n, err := strconv.Atoi(frag)
	if err != nil {
		return frag
	}
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func applyCase(s string, rule CaseRule) string {
	switch rule {
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseLower:
		return strings.ToLower(s)
	case CaseTitle:
		return titleCaser.String(s)
	default:
		return s
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
