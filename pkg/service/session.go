// Package service wires the hierarchy model, rule engine, autocomplete
// cache, layout engine, and PDF renderer behind a single Session facade.
// This is the only boundary the interaction layer (the CLI) calls.
package service

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/shelfmark/shelfmark/pkg/cache"
	"github.com/shelfmark/shelfmark/pkg/document"
	"github.com/shelfmark/shelfmark/pkg/geometry"
	"github.com/shelfmark/shelfmark/pkg/layout"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/pdf"
	"github.com/shelfmark/shelfmark/pkg/rules"
	"github.com/shelfmark/shelfmark/pkg/template"
)

// ErrExportInFlight rejects a second export while one is running. Layout
// output must not race renderer consumption of the same tree snapshot.
var ErrExportInFlight = errors.New("an export is already in progress")

// ErrNoProfile is returned by operations that require Rules Mode.
var ErrNoProfile = errors.New("no rule profile is active")

// Config configures a Session.
type Config struct {
	CachePath        string
	LegacyCachePath  string
	CacheCapPerLevel int
	MaxSuggestions   int
	Logger           *logrus.Logger
}

// Session is one single-user editing session over one label document.
type Session struct {
	cfg Config
	log *logrus.Logger

	tree    *models.Tree
	title   string
	section string

	profile *rules.Profile
	engine  *rules.Engine
	store   *cache.Store

	lastSuggestions []rules.Suggestion
	lastSuggestFor  models.NodeID

	exporting atomic.Bool
}

// New builds a session, loading the autocomplete cache best-effort. A
// missing or unreadable cache never fails startup.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
	}
	if cfg.LegacyCachePath != "" && cfg.CachePath != "" {
		cache.MigrateLegacy(cfg.CachePath, cfg.LegacyCachePath)
	}
	var store *cache.Store
	if cfg.CachePath != "" {
		store = cache.Load(cfg.CachePath, cfg.CacheCapPerLevel)
	} else {
		store = cache.New(cfg.CacheCapPerLevel)
	}
	return &Session{
		cfg:    cfg,
		log:    log,
		tree:   models.NewTree(),
		store:  store,
		engine: &rules.Engine{Cache: store, MaxSuggestions: cfg.MaxSuggestions},
	}
}

// Tree exposes the hierarchy for read-only traversal.
func (s *Session) Tree() *models.Tree { return s.tree }

func (s *Session) Title() string   { return s.title }
func (s *Session) Section() string { return s.section }

func (s *Session) SetTitle(v string)   { s.title = v }
func (s *Session) SetSection(v string) { s.section = v }

// ActiveProfile returns the current profile, nil in Free Typing mode.
func (s *Session) ActiveProfile() *rules.Profile { return s.profile }

// LoadDocument replaces the session tree with the document's content.
func (s *Session) LoadDocument(d *document.Document) error {
	t, err := d.Tree()
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	s.tree = t
	s.title = d.Title
	s.section = d.Section
	return nil
}

// Document serializes the current session state.
func (s *Session) Document() *document.Document {
	return document.FromTree(s.title, s.section, s.tree)
}

// LoadProfile activates a profile from a rules workbook. On any load
// error the previously active profile stays active.
func (s *Session) LoadProfile(path, profileID string) error {
	wb, err := rules.LoadWorkbook(path)
	if err != nil {
		return err
	}
	if profileID == "" {
		ids := wb.ProfileIDs()
		if len(ids) == 0 {
			return &rules.LoadError{Path: path, Reason: "workbook declares no profiles"}
		}
		profileID = ids[0]
	}
	p, ok := wb.Profile(profileID)
	if !ok {
		return &rules.LoadError{Path: path, Profile: profileID, Reason: "profile not found in workbook"}
	}
	s.profile = p
	return nil
}

// ClearProfile returns the session to Free Typing mode.
func (s *Session) ClearProfile() { s.profile = nil }

// contextFor builds the suggestion context for inserting under parent.
func (s *Session) contextFor(parent models.NodeID) rules.Context {
	return rules.Context{
		Profile:     s.profile,
		ParentPath:  s.tree.Path(parent),
		TargetLevel: s.tree.Level(parent) + 1,
	}
}

func (s *Session) siblingCodes(parent models.NodeID, exclude models.NodeID) []string {
	var codes []string
	for _, id := range s.tree.Children(parent) {
		if id == exclude {
			continue
		}
		if n, err := s.tree.Get(id); err == nil {
			codes = append(codes, n.Code)
		}
	}
	return codes
}

// NewNode validates a typed fragment and inserts the node under parent,
// recording the accepted code in the autocomplete cache.
func (s *Session) NewNode(parent models.NodeID, fragment, name string) (models.NodeID, error) {
	ctx := s.contextFor(parent)
	code, resolvedName, err := s.engine.ValidateCommit(fragment, name, s.siblingCodes(parent, 0), ctx)
	if err != nil {
		return 0, err
	}
	id, err := s.tree.Insert(parent, code, resolvedName)
	if err != nil {
		return 0, err
	}
	s.store.Record(ctx.TargetLevel, code, resolvedName)
	return id, nil
}

// CommitCode re-validates and replaces the code of an existing node.
func (s *Session) CommitCode(id models.NodeID, fragment string) error {
	n, err := s.tree.Get(id)
	if err != nil {
		return err
	}
	parent := s.tree.Parent(id)
	ctx := s.contextFor(parent)
	code, resolvedName, err := s.engine.ValidateCommit(fragment, n.Name, s.siblingCodes(parent, id), ctx)
	if err != nil {
		return err
	}
	n.Code = code
	n.Name = resolvedName
	s.store.Record(ctx.TargetLevel, code, resolvedName)
	return nil
}

// MoveNode re-parents a node, rejecting sibling code collisions at the
// destination.
func (s *Session) MoveNode(id, newParent models.NodeID, index int) error {
	n, err := s.tree.Get(id)
	if err != nil {
		return err
	}
	if dup := s.tree.FindSibling(newParent, n.Code); dup != 0 && dup != id {
		return &rules.Rejection{Reason: rules.ReasonDuplicateSibling, Code: n.Code,
			Detail: "a node with this code already exists at the destination"}
	}
	return s.tree.Move(id, newParent, index)
}

// DeleteNode removes a node and its subtree.
func (s *Session) DeleteNode(id models.NodeID) error {
	return s.tree.Delete(id)
}

// Suggest returns ranked candidates for inserting under parent and
// remembers them so ChooseSuggestion can commit by index.
func (s *Session) Suggest(parent models.NodeID, prefix string) []rules.Suggestion {
	out := s.engine.Suggest(s.contextFor(parent), prefix)
	s.lastSuggestions = out
	s.lastSuggestFor = parent
	return out
}

// ChooseSuggestion commits the index-th entry of the last Suggest call.
func (s *Session) ChooseSuggestion(index int) (models.NodeID, error) {
	if index < 0 || index >= len(s.lastSuggestions) {
		return 0, fmt.Errorf("suggestion index %d out of range", index)
	}
	sel := s.lastSuggestions[index]
	return s.NewNode(s.lastSuggestFor, sel.Code, sel.Name)
}

// SuggestText returns free-text history for "title" or "section".
func (s *Session) SuggestText(field, prefix string) []string {
	return s.engine.SuggestText(field, prefix, s.cfg.MaxSuggestions)
}

// ApplyDefaultChildren instantiates the profile's predeclared child rows
// under parent, skipping codes that already exist there.
func (s *Session) ApplyDefaultChildren(parent models.NodeID) (int, error) {
	if s.profile == nil {
		return 0, ErrNoProfile
	}
	n, err := s.tree.Get(parent)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, tmpl := range s.profile.DefaultChildren(n.Code) {
		if _, err := s.NewNode(parent, tmpl.Code, tmpl.Name); err != nil {
			if r, ok := rules.AsRejection(err); ok && r.Reason == rules.ReasonDuplicateSibling {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

// ValidationIssue pairs a node with the rejection its code produced.
type ValidationIssue struct {
	Node models.NodeID
	Code string
	Err  error
}

// ValidateAll re-validates every node against the active profile.
func (s *Session) ValidateAll() []ValidationIssue {
	var issues []ValidationIssue
	var visit func(parent models.NodeID)
	visit = func(parent models.NodeID) {
		for _, id := range s.tree.Children(parent) {
			n, err := s.tree.Get(id)
			if err != nil {
				continue
			}
			ctx := s.contextFor(parent)
			if _, _, err := s.engine.ValidateCommit(n.Code, n.Name, s.siblingCodes(parent, id), ctx); err != nil {
				issues = append(issues, ValidationIssue{Node: id, Code: n.Code, Err: err})
			}
			visit(id)
		}
	}
	visit(models.RootID)
	return issues
}

// ExportPDF lays out the current tree and writes the PDF. One export at a
// time; a concurrent request gets ErrExportInFlight.
func (s *Session) ExportPDF(outPath, templateID string, page geometry.PageSize) error {
	if !s.exporting.CompareAndSwap(false, true) {
		return ErrExportInFlight
	}
	defer s.exporting.Store(false)

	spec := template.Lookup(templateID)
	header := layout.HeaderInfo{Title: s.title, Section: s.section}
	eng := layout.Engine{M: pdf.NewMeasurer()}
	res, err := eng.Layout(s.tree, header, spec, page)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := (pdf.Renderer{}).Render(header, res, spec, page, outPath); err != nil {
		return err
	}

	s.store.RecordText("title", s.title)
	s.store.RecordText("section", s.section)
	s.log.WithFields(logrus.Fields{
		"pages":    res.PageCount,
		"template": spec.ID,
		"out":      outPath,
	}).Debug("export complete")
	return nil
}

// SaveCache flushes the autocomplete cache. Failure is recoverable: the
// session continues with its in-memory cache.
func (s *Session) SaveCache() error {
	if s.cfg.CachePath == "" {
		return nil
	}
	if err := s.store.Save(s.cfg.CachePath); err != nil {
		s.log.WithError(err).Warn("cache not saved; continuing in memory")
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

// Cache exposes the store for inspection commands.
func (s *Session) Cache() *cache.Store { return s.store }
