package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shelfmark/shelfmark/pkg/models"
)

// Workbook is the parsed content of one rules spreadsheet.
type Workbook struct {
	Path     string
	Settings map[string]string

	profiles map[string]*Profile
	order    []string
}

// Profile returns a profile by id.
func (w *Workbook) Profile(id string) (*Profile, bool) {
	p, ok := w.profiles[id]
	return p, ok
}

// ProfileIDs lists profile ids in workbook order.
func (w *Workbook) ProfileIDs() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

func (w *Workbook) add(p *Profile) {
	if _, ok := w.profiles[p.ID]; !ok {
		w.order = append(w.order, p.ID)
	}
	w.profiles[p.ID] = p
}

// LoadWorkbook reads a rules workbook in either supported format: the
// Profiles/LevelMappings layout, or the simple authority layout with a
// Profile key-value sheet and one "Level N" sheet per level. A malformed
// workbook returns a structured error and no profiles.
func LoadWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open rules workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	wb := &Workbook{Path: path, Settings: map[string]string{}, profiles: map[string]*Profile{}}

	if hasSheet(sheets, "Profiles") {
		if err := parseProfilesFormat(f, wb); err != nil {
			return nil, err
		}
		return wb, nil
	}
	if hasSheet(sheets, "Profile") && hasSheet(sheets, "Level 1") {
		if err := parseAuthorityFormat(f, wb); err != nil {
			return nil, err
		}
		return wb, nil
	}
	return nil, &MissingSheetsError{
		Path:     path,
		Expected: []string{"Profiles", "or: Profile + Level 1"},
		Found:    sheets,
	}
}

// table is one sheet read as a header map plus data rows.
type table struct {
	sheet   string
	headers map[string]int
	rows    [][]string
	// firstRow is the 1-based spreadsheet row of rows[0].
	firstRow int
}

func readTable(f *excelize.File, sheet string) (*table, error) {
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	t := &table{sheet: sheet, headers: map[string]int{}, firstRow: 2}
	if len(raw) == 0 {
		return t, nil
	}
	for i, h := range raw[0] {
		h = strings.ToLower(collapseCell(h))
		if h != "" {
			t.headers[h] = i
		}
	}
	for _, r := range raw[1:] {
		if rowHasContent(r) {
			t.rows = append(t.rows, r)
		}
	}
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.headers[col]
	return ok
}

func (t *table) get(row []string, col string) string {
	i, ok := t.headers[col]
	if !ok || i >= len(row) {
		return ""
	}
	return collapseCell(row[i])
}

func (t *table) getInt(row []string, col string, def int) int {
	v := t.get(row, col)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseProfilesFormat handles the structured workbook: Profiles,
// LevelMappings, DefaultChildren, and Settings sheets.
func parseProfilesFormat(f *excelize.File, wb *Workbook) error {
	t, err := readTable(f, "Profiles")
	if err != nil {
		return err
	}
	if !t.has("profile_id") {
		return &LoadError{Path: wb.Path, Sheet: "Profiles", Reason: `missing required column "profile_id"`}
	}

	for _, r := range t.rows {
		pid := t.get(r, "profile_id")
		if pid == "" {
			continue
		}
		p := &Profile{
			ID:         pid,
			Name:       firstNonEmpty(t.get(r, "profile_name"), pid),
			LevelCount: clamp(t.getInt(r, "level_count", 2), 1, models.MaxDepth),
			Locked:     parseBool(t.get(r, "locked"), true),
			Notes:      t.get(r, "notes"),
			labels:     map[int]string{},
			formats:    map[int]LevelFormat{},
			Settings:   wb.Settings,
		}
		delim := t.get(r, "code_delimiter")
		if len(delim) != 1 {
			delim = "."
		}
		for lv := 1; lv <= p.LevelCount; lv++ {
			p.labels[lv] = t.get(r, fmt.Sprintf("level%d_label", lv))
			pad := t.getInt(r, fmt.Sprintf("level%d_pad", lv), 0)
			caseRule := parseCaseRule(t.get(r, fmt.Sprintf("level%d_case", lv)))
			p.formats[lv] = LevelFormat{PadWidth: pad, Delimiter: delim, Case: caseRule}
		}
		wb.add(p)
	}

	if err := parseLevelMappings(f, wb); err != nil {
		return err
	}
	if err := parseDefaultChildren(f, wb); err != nil {
		return err
	}
	if err := parseSettings(f, wb); err != nil {
		return err
	}
	if parseBool(wb.Settings["scope_suggestions_to_parent"], false) {
		for _, p := range wb.profiles {
			p.ScopeToParent = true
		}
	}
	return nil
}

func parseLevelMappings(f *excelize.File, wb *Workbook) error {
	if !hasSheet(f.GetSheetList(), "LevelMappings") {
		return nil
	}
	t, err := readTable(f, "LevelMappings")
	if err != nil {
		return err
	}
	if len(t.rows) == 0 {
		return nil
	}
	for _, col := range []string{"profile_id", "level", "code"} {
		if !t.has(col) {
			return &LoadError{Path: wb.Path, Profile: strings.Join(wb.order, ", "),
				Sheet: "LevelMappings", Reason: fmt.Sprintf("missing required column %q", col)}
		}
	}
	for i, r := range t.rows {
		pid := t.get(r, "profile_id")
		if pid == "" {
			continue
		}
		p, ok := wb.profiles[pid]
		if !ok {
			return &LoadError{Path: wb.Path, Profile: pid, Sheet: "LevelMappings",
				Row: t.firstRow + i, Reason: "mapping references an undeclared profile"}
		}
		level := t.getInt(r, "level", 0)
		code := t.get(r, "code")
		if level < 1 || level > p.LevelCount {
			return &LoadError{Path: wb.Path, Profile: pid, Sheet: "LevelMappings",
				Row: t.firstRow + i, Reason: fmt.Sprintf("level %d out of range", level)}
		}
		if code == "" {
			return &LoadError{Path: wb.Path, Profile: pid, Sheet: "LevelMappings",
				Row: t.firstRow + i, Reason: "empty code"}
		}
		p.addAuthority(level, AuthorityEntry{Code: code, Name: t.get(r, "name")})
	}
	return nil
}

func parseDefaultChildren(f *excelize.File, wb *Workbook) error {
	if !hasSheet(f.GetSheetList(), "DefaultChildren") {
		return nil
	}
	t, err := readTable(f, "DefaultChildren")
	if err != nil {
		return err
	}
	for i, r := range t.rows {
		pid := t.get(r, "profile_id")
		if pid == "" {
			continue
		}
		p, ok := wb.profiles[pid]
		if !ok {
			return &LoadError{Path: wb.Path, Profile: pid, Sheet: "DefaultChildren",
				Row: t.firstRow + i, Reason: "row references an undeclared profile"}
		}
		parentCode := t.get(r, "parent_code")
		childLevel := t.getInt(r, "child_level", 0)
		childCode := t.get(r, "child_code")
		if parentCode == "" || childCode == "" || childLevel < 2 || childLevel > p.LevelCount {
			continue
		}
		p.addDefaultChild(parentCode, ChildTemplate{
			Level: childLevel,
			Code:  childCode,
			Name:  t.get(r, "child_name"),
		})
	}
	return nil
}

func parseSettings(f *excelize.File, wb *Workbook) error {
	if !hasSheet(f.GetSheetList(), "Settings") {
		return nil
	}
	t, err := readTable(f, "Settings")
	if err != nil {
		return err
	}
	for _, r := range t.rows {
		k := strings.ToLower(t.get(r, "key"))
		if k != "" {
			wb.Settings[k] = t.get(r, "value")
		}
	}
	return nil
}

// parseAuthorityFormat handles the hand-authored workbook: a Profile
// key-value sheet and "Level 1".."Level N" authority sheets where deeper
// levels carry a parent code and a code suffix.
func parseAuthorityFormat(f *excelize.File, wb *Workbook) error {
	raw, err := f.GetRows("Profile")
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", "Profile", err)
	}
	kv := map[string]string{}
	for _, r := range raw {
		if len(r) == 0 {
			continue
		}
		k := strings.ToLower(collapseCell(r[0]))
		v := ""
		if len(r) > 1 {
			v = collapseCell(r[1])
		}
		if k != "" {
			kv[k] = v
		}
	}

	delim := kv["code delimiter"]
	if len(delim) != 1 {
		delim = "."
	}
	levelCount := clamp(atoiDefault(kv["number of levels"], 2), 2, models.MaxDepth)
	padL1 := clamp(atoiDefault(kv["pad level 1 codes to"], 2), 1, 6)

	p := &Profile{
		ID:            "default",
		Name:          firstNonEmpty(kv["discipline"], "Authority Profile"),
		LevelCount:    levelCount,
		Locked:        true,
		ScopeToParent: true, // full codes encode parentage in this format
		labels:        map[int]string{},
		formats:       map[int]LevelFormat{},
		Settings:      wb.Settings,
	}
	for lv := 1; lv <= levelCount; lv++ {
		label := firstNonEmpty(kv[fmt.Sprintf("level %d name", lv)], kv[fmt.Sprintf("level %d label", lv)])
		p.labels[lv] = label
		pad := 1
		if lv == 1 {
			pad = padL1
		}
		p.formats[lv] = LevelFormat{PadWidth: pad, Delimiter: delim, Case: CaseKeep}
	}
	if v := kv["institution"]; v != "" {
		wb.Settings["institution"] = v
	}
	if v := kv["discipline"]; v != "" {
		wb.Settings["discipline"] = v
	}

	l1Format := p.Format(1)

	t, err := readTable(f, "Level 1")
	if err != nil {
		return err
	}
	if !t.has("code") {
		return &LoadError{Path: wb.Path, Profile: p.ID, Sheet: "Level 1",
			Reason: `missing required column "code"`}
	}
	for i, r := range t.rows {
		code := t.get(r, "code")
		if code == "" {
			return &LoadError{Path: wb.Path, Profile: p.ID, Sheet: "Level 1",
				Row: t.firstRow + i, Reason: "empty code"}
		}
		p.addAuthority(1, AuthorityEntry{Code: padFragment(code, l1Format.PadWidth), Name: t.get(r, "name")})
	}

	for lv := 2; lv <= levelCount; lv++ {
		sheet := fmt.Sprintf("Level %d", lv)
		if !hasSheet(f.GetSheetList(), sheet) {
			continue
		}
		t, err := readTable(f, sheet)
		if err != nil {
			return err
		}
		if len(t.rows) == 0 {
			continue
		}
		if !t.has("parent code") {
			return &LoadError{Path: wb.Path, Profile: p.ID, Sheet: sheet,
				Reason: `missing required column "parent code"`}
		}
		suffixCol := "code (suffix)"
		if !t.has(suffixCol) {
			suffixCol = "code"
		}
		if !t.has(suffixCol) {
			return &LoadError{Path: wb.Path, Profile: p.ID, Sheet: sheet,
				Reason: `missing required column "code"`}
		}
		for i, r := range t.rows {
			parent := t.get(r, "parent code")
			suffix := t.get(r, suffixCol)
			if parent == "" || suffix == "" {
				return &LoadError{Path: wb.Path, Profile: p.ID, Sheet: sheet,
					Row: t.firstRow + i, Reason: "parent code and code are both required"}
			}
			if lv == 2 {
				parent = padFragment(parent, l1Format.PadWidth)
			}
			full := suffix
			if !strings.Contains(suffix, delim) {
				full = parent + delim + padFragment(suffix, 1)
			}
			p.addAuthority(lv, AuthorityEntry{Code: full, Name: t.get(r, "name")})
		}
	}

	wb.add(p)
	return nil
}

func hasSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if collapseCell(c) != "" {
			return true
		}
	}
	return false
}

func collapseCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def
	case "0", "false", "no":
		return false
	default:
		return true
	}
}

func parseCaseRule(v string) CaseRule {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "upper":
		return CaseUpper
	case "lower":
		return CaseLower
	case "title":
		return CaseTitle
	default:
		return CaseKeep
	}
}

func atoiDefault(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
