package models

import (
	"fmt"
	"strings"
)

// NodeID is a stable handle into a Tree. IDs are never reused within a
// session, so a stale ID fails lookup instead of aliasing another node.
type NodeID int

// RootID addresses the virtual level-0 container. It has no code or name
// and never appears in layout output.
const RootID NodeID = 0

// MaxDepth is the deepest level a node may occupy.
const MaxDepth = 4

// Node is one entry in the classification tree.
type Node struct {
	ID   NodeID `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Tree is an arena of nodes addressed by NodeID, with parent and child
// indexes kept separately so re-parenting never chases pointers.
type Tree struct {
	nodes    map[NodeID]*Node
	parent   map[NodeID]NodeID
	children map[NodeID][]NodeID
	nextID   NodeID
}

// NewTree returns an empty tree containing only the virtual root.
func NewTree() *Tree {
	return &Tree{
		nodes:    map[NodeID]*Node{},
		parent:   map[NodeID]NodeID{},
		children: map[NodeID][]NodeID{RootID: nil},
		nextID:   RootID + 1,
	}
}

// Get returns the node for id, or an error for the root or an unknown id.
func (t *Tree) Get(id NodeID) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// Level returns the depth of id (root is 0, top-level nodes are 1).
func (t *Tree) Level(id NodeID) int {
	level := 0
	for id != RootID {
		id = t.parent[id]
		level++
	}
	return level
}

// Path returns the codes from the top level down to and including id.
func (t *Tree) Path(id NodeID) []string {
	var codes []string
	for id != RootID {
		n := t.nodes[id]
		if n == nil {
			return nil
		}
		codes = append([]string{n.Code}, codes...)
		id = t.parent[id]
	}
	return codes
}

// Children returns the ordered child IDs of id. The returned slice is a copy.
func (t *Tree) Children(id NodeID) []NodeID {
	kids := t.children[id]
	out := make([]NodeID, len(kids))
	copy(out, kids)
	return out
}

// Parent returns the parent of id. The root is its own parent.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.parent[id]
}

// Insert appends a new node under parent and returns its ID.
func (t *Tree) Insert(parent NodeID, code, name string) (NodeID, error) {
	if parent != RootID {
		if _, ok := t.nodes[parent]; !ok {
			return 0, fmt.Errorf("parent %d: %w", parent, ErrNodeNotFound)
		}
	}
	if t.Level(parent) >= MaxDepth {
		return 0, ErrDepthExceeded
	}
	id := t.nextID
	t.nextID++
	t.nodes[id] = &Node{ID: id, Code: code, Name: name}
	t.parent[id] = parent
	t.children[parent] = append(t.children[parent], id)
	return id, nil
}

// FindSibling returns the ID of a child of parent whose code matches code
// case-insensitively, or 0 when no such sibling exists.
func (t *Tree) FindSibling(parent NodeID, code string) NodeID {
	lc := strings.ToLower(code)
	for _, kid := range t.children[parent] {
		if strings.ToLower(t.nodes[kid].Code) == lc {
			return kid
		}
	}
	return 0
}

// Move re-parents id (and its subtree) under newParent at position index.
// index < 0 or beyond the sibling count appends.
func (t *Tree) Move(id, newParent NodeID, index int) error {
	if _, ok := t.nodes[id]; !ok {
		return fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if newParent != RootID {
		if _, ok := t.nodes[newParent]; !ok {
			return fmt.Errorf("parent %d: %w", newParent, ErrNodeNotFound)
		}
	}
	// Reject moves into the node's own subtree.
	for p := newParent; p != RootID; p = t.parent[p] {
		if p == id {
			return ErrMoveIntoSelf
		}
	}
	if t.Level(newParent)+t.subtreeDepth(id) > MaxDepth {
		return ErrDepthExceeded
	}

	old := t.parent[id]
	t.children[old] = removeID(t.children[old], id)

	kids := t.children[newParent]
	if index < 0 || index > len(kids) {
		index = len(kids)
	}
	kids = append(kids, 0)
	copy(kids[index+1:], kids[index:])
	kids[index] = id
	t.children[newParent] = kids
	t.parent[id] = newParent
	return nil
}

// Delete removes id and its entire subtree.
func (t *Tree) Delete(id NodeID) error {
	if _, ok := t.nodes[id]; !ok {
		return fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	parent := t.parent[id]
	t.children[parent] = removeID(t.children[parent], id)
	var drop func(NodeID)
	drop = func(n NodeID) {
		for _, kid := range t.children[n] {
			drop(kid)
		}
		delete(t.children, n)
		delete(t.parent, n)
		delete(t.nodes, n)
	}
	drop(id)
	return nil
}

// Walk visits every node depth-first in child order, passing its level.
func (t *Tree) Walk(fn func(n *Node, level int)) {
	var visit func(id NodeID, level int)
	visit = func(id NodeID, level int) {
		for _, kid := range t.children[id] {
			fn(t.nodes[kid], level+1)
			visit(kid, level+1)
		}
	}
	visit(RootID, 0)
}

// Len returns the number of real nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// subtreeDepth returns the height of the subtree rooted at id, counting id.
func (t *Tree) subtreeDepth(id NodeID) int {
	max := 0
	for _, kid := range t.children[id] {
		if d := t.subtreeDepth(kid); d > max {
			max = d
		}
	}
	return max + 1
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
