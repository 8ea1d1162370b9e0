package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// NodeID derives the stable id for a graph node. The digest is a function of
// (type, name, file path) only, so the same construct maps to the same id
// across runs regardless of discovery order.
func NodeID(nodeType NodeType, name, filePath string) string {
	input := fmt.Sprintf("%s:%s:%s", nodeType, name, filePath)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// SymbolKey returns the merge/diff identity of a symbol.
func SymbolKey(s Symbol) string {
	return fmt.Sprintf("%s:%s:%d", s.FilePath, s.Name, s.Line)
}

// SortCanonical orders nodes by id and edges by (source, target, relation)
// so two graphs with equal content compare byte-identical after encoding.
func (g *DependencyGraph) SortCanonical() {
	sort.Slice(g.Nodes, func(i, j int) bool {
		return g.Nodes[i].ID < g.Nodes[j].ID
	})
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Relation < b.Relation
	})
}

// NodeByID builds a lookup map over the node set.
func (g *DependencyGraph) NodeByID() map[string]*Node {
	m := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		m[g.Nodes[i].ID] = &g.Nodes[i]
	}
	return m
}
