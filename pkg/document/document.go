// Package document reads and writes label documents: the YAML files that
// hold a label's title, section line, and classification tree.
package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shelfmark/shelfmark/pkg/models"
)

// Document is the on-disk form of one label.
type Document struct {
	Title   string  `yaml:"title"`
	Section string  `yaml:"section,omitempty"`
	Profile string  `yaml:"profile,omitempty"`
	Nodes   []Entry `yaml:"nodes"`
}

// Entry is one node of the serialized tree.
type Entry struct {
	Code     string  `yaml:"code"`
	Name     string  `yaml:"name,omitempty"`
	Children []Entry `yaml:"children,omitempty"`
}

// Load parses and validates a label document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("document %s: %w", path, err)
	}
	return &d, nil
}

// Save writes the document as YAML.
func (d *Document) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Validate checks depth and code presence across the tree.
func (d *Document) Validate() error {
	var check func(entries []Entry, level int) error
	check = func(entries []Entry, level int) error {
		if level > models.MaxDepth {
			return fmt.Errorf("tree deeper than %d levels", models.MaxDepth)
		}
		for _, e := range entries {
			if e.Code == "" {
				return fmt.Errorf("level %d entry %q has no code", level, e.Name)
			}
			if err := check(e.Children, level+1); err != nil {
				return err
			}
		}
		return nil
	}
	return check(d.Nodes, 1)
}

// Tree builds the in-memory hierarchy from the document.
func (d *Document) Tree() (*models.Tree, error) {
	t := models.NewTree()
	var insert func(entries []Entry, parent models.NodeID) error
	insert = func(entries []Entry, parent models.NodeID) error {
		for _, e := range entries {
			id, err := t.Insert(parent, e.Code, e.Name)
			if err != nil {
				return err
			}
			if err := insert(e.Children, id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(d.Nodes, models.RootID); err != nil {
		return nil, err
	}
	return t, nil
}

// FromTree serializes a hierarchy back into document form.
func FromTree(title, section string, t *models.Tree) *Document {
	var build func(parent models.NodeID) []Entry
	build = func(parent models.NodeID) []Entry {
		var out []Entry
		for _, id := range t.Children(parent) {
			n, err := t.Get(id)
			if err != nil {
				continue
			}
			out = append(out, Entry{Code: n.Code, Name: n.Name, Children: build(id)})
		}
		return out
	}
	return &Document{Title: title, Section: section, Nodes: build(models.RootID)}
}
