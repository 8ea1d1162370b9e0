package model

import "time"

// SymbolKind classifies an extracted symbol. The set is closed: downstream
// consumers filter and group on these exact string tags.
type SymbolKind string

const (
	KindClass     SymbolKind = "Class"
	KindInterface SymbolKind = "Interface"
	KindMethod    SymbolKind = "Method"
	KindProperty  SymbolKind = "Property"
	KindFunction  SymbolKind = "Function"
	KindVariable  SymbolKind = "Variable"
	KindImport    SymbolKind = "Import"
	KindNamespace SymbolKind = "Namespace"
	KindModule    SymbolKind = "Module"
)

// Valid reports whether k is one of the closed symbol kinds.
func (k SymbolKind) Valid() bool {
	switch k {
	case KindClass, KindInterface, KindMethod, KindProperty, KindFunction,
		KindVariable, KindImport, KindNamespace, KindModule:
		return true
	}
	return false
}

// NodeType classifies a graph node. Folder/File nodes mirror the physical
// tree; the remaining types mirror the logical symbol model.
type NodeType string

const (
	NodeRepository NodeType = "Repository"
	NodeFolder     NodeType = "Folder"
	NodeFile       NodeType = "File"
	NodeNamespace  NodeType = "Namespace"
	NodeClass      NodeType = "Class"
	NodeInterface  NodeType = "Interface"
	NodeFunction   NodeType = "Function"
	NodeModule     NodeType = "Module"
)

// Relation classifies a directed edge between two nodes.
type Relation string

const (
	RelContains   Relation = "Contains"
	RelImports    Relation = "Imports"
	RelCalls      Relation = "Calls"
	RelInherits   Relation = "Inherits"
	RelImplements Relation = "Implements"
)

// FileRecord describes one eligible file discovered by the scanner.
// Records are immutable; a re-scan produces new records, never mutates.
type FileRecord struct {
	Path        string `json:"path"`        // Relative slash path, unique within a run
	Language    string `json:"language"`    // Detected language tag, "" if unknown
	SizeBytes   int64  `json:"size_bytes"`  // File size in bytes
	LineCount   int    `json:"line_count"`  // Number of lines
	Fingerprint string `json:"fingerprint"` // SHA-256 of raw bytes, hex
}

// Symbol is a named code construct extracted from one file. Identity for
// merge/diff purposes is (FilePath, Name, Line); a re-parse of the file
// replaces all of its symbols wholesale.
type Symbol struct {
	Name     string     `json:"name"`
	Kind     SymbolKind `json:"kind"`
	FilePath string     `json:"file_path"`
	Line     int        `json:"line"`             // 1-based source line
	Parent   string     `json:"parent,omitempty"` // Enclosing symbol name, "" for top level
}

// Node is a vertex in the dependency graph.
type Node struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     NodeType          `json:"type"`
	FilePath string            `json:"file_path,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Edge is a directed relationship between two nodes. Multiple edges between
// the same pair with different relations are permitted.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relation"`
}

// ImportRef is an import-like statement extracted from one file. Candidates
// holds repo-relative paths the specifier could resolve to; the assembler
// matches them against the scanned file set. An empty or unmatched candidate
// list marks the import as external and produces no edge.
type ImportRef struct {
	Specifier  string   `json:"specifier"`
	Candidates []string `json:"candidates,omitempty"`
	Line       int      `json:"line"`
}

// TypeRelation records a declared inheritance or implementation relation
// between a symbol in this file and a named supertype.
type TypeRelation struct {
	SubType   string   `json:"sub_type"`
	SuperType string   `json:"super_type"`
	Relation  Relation `json:"relation"` // RelInherits or RelImplements
	Line      int      `json:"line"`
}

// GraphFragment is the per-file share of the dependency graph produced by a
// single parser invocation.
type GraphFragment struct {
	FilePath  string         `json:"file_path"`
	Imports   []ImportRef    `json:"imports,omitempty"`
	Relations []TypeRelation `json:"relations,omitempty"`
}

// DependencyGraph is the assembled node and edge set for one analysis run.
// Every edge references node ids present in Nodes.
type DependencyGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Snapshot is the complete, atomically published output of one run. The
// Fingerprints map is the diff basis for the next incremental run, and the
// per-file fragments are retained so an incremental run can rebuild the
// whole graph without re-parsing unchanged files.
type Snapshot struct {
	RunID        string            `json:"run_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Files        []FileRecord      `json:"files"`
	Symbols      []Symbol          `json:"symbols"`
	Fragments    []GraphFragment   `json:"fragments,omitempty"`
	Graph        DependencyGraph   `json:"graph"`
	Fingerprints map[string]string `json:"fingerprints"`
}
