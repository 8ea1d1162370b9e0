package assembler

import (
	"log"
	"path"
	"sort"
	"strings"

	"github.com/repolens/repolens/internal/model"
)

// Assembler merges per-file symbols and graph fragments into one
// repository-wide dependency graph. It owns the shared id space and must
// run single-threaded after the parallel parse phase.
type Assembler struct {
	repoName string
}

// New creates an Assembler. repoName labels the root Repository node.
func New(repoName string) *Assembler {
	if repoName == "" {
		repoName = "repository"
	}
	return &Assembler{repoName: repoName}
}

// builder accumulates nodes and edges with dedup during one assembly.
type builder struct {
	nodes   []model.Node
	nodeIDs map[string]bool
	edges   []model.Edge
	edgeKey map[model.Edge]bool
}

func (b *builder) addNode(n model.Node) {
	if b.nodeIDs[n.ID] {
		return
	}
	b.nodeIDs[n.ID] = true
	b.nodes = append(b.nodes, n)
}

func (b *builder) addEdge(e model.Edge) {
	if b.edgeKey[e] {
		return
	}
	b.edgeKey[e] = true
	b.edges = append(b.edges, e)
}

// Assemble builds the dependency graph for one run. The graph is always
// built whole from the complete current inputs, never patched.
func (a *Assembler) Assemble(files []model.FileRecord, symbols []model.Symbol, fragments []model.GraphFragment) model.DependencyGraph {
	b := &builder{
		nodeIDs: make(map[string]bool),
		edgeKey: make(map[model.Edge]bool),
	}

	repoID := model.NodeID(model.NodeRepository, a.repoName, "")
	b.addNode(model.Node{ID: repoID, Name: a.repoName, Type: model.NodeRepository})

	fileIDs := a.addTree(b, repoID, files)
	symbolIDs := a.addSymbols(b, fileIDs, symbols)
	a.addImportEdges(b, fileIDs, files, fragments)
	a.addRelationEdges(b, symbolIDs, symbols, fragments)

	graph := model.DependencyGraph{Nodes: b.nodes, Edges: a.dropDangling(b)}
	graph.SortCanonical()
	return graph
}

// addTree synthesizes Folder and File nodes for the physical tree and the
// Contains edges of the folder hierarchy. Returns file path → node id.
func (a *Assembler) addTree(b *builder, repoID string, files []model.FileRecord) map[string]string {
	fileIDs := make(map[string]string, len(files))
	folderIDs := make(map[string]string)

	// containerOf returns the node id owning a path, creating Folder nodes
	// for every missing ancestor on the way down from the repository root.
	var containerOf func(dir string) string
	containerOf = func(dir string) string {
		if dir == "." || dir == "" {
			return repoID
		}
		if id, ok := folderIDs[dir]; ok {
			return id
		}
		id := model.NodeID(model.NodeFolder, path.Base(dir), dir)
		folderIDs[dir] = id
		b.addNode(model.Node{ID: id, Name: path.Base(dir), Type: model.NodeFolder, FilePath: dir})
		b.addEdge(model.Edge{Source: containerOf(path.Dir(dir)), Target: id, Relation: model.RelContains})
		return id
	}

	for _, f := range files {
		id := model.NodeID(model.NodeFile, path.Base(f.Path), f.Path)
		fileIDs[f.Path] = id
		meta := map[string]string{}
		if f.Language != "" {
			meta["language"] = f.Language
		}
		b.addNode(model.Node{ID: id, Name: path.Base(f.Path), Type: model.NodeFile, FilePath: f.Path, Metadata: meta})
		b.addEdge(model.Edge{Source: containerOf(path.Dir(f.Path)), Target: id, Relation: model.RelContains})
	}

	return fileIDs
}

// symbolNodeType maps a symbol kind to its graph node type. Kinds without a
// node representation (imports, variables, properties) return "".
func symbolNodeType(kind model.SymbolKind) model.NodeType {
	switch kind {
	case model.KindClass:
		return model.NodeClass
	case model.KindInterface:
		return model.NodeInterface
	case model.KindFunction, model.KindMethod:
		return model.NodeFunction
	case model.KindNamespace:
		return model.NodeNamespace
	case model.KindModule:
		return model.NodeModule
	}
	return ""
}

// addSymbols synthesizes symbol nodes and Contains edges from the owning
// file — or from the parent symbol's node for members. Returns a lookup of
// (file path, symbol name) → node id for relation resolution.
func (a *Assembler) addSymbols(b *builder, fileIDs map[string]string, symbols []model.Symbol) map[string]string {
	symbolIDs := make(map[string]string)

	// First pass: create nodes so members can attach to parents regardless
	// of declaration order.
	for _, s := range symbols {
		nodeType := symbolNodeType(s.Kind)
		if nodeType == "" {
			continue
		}
		id := model.NodeID(nodeType, s.Name, s.FilePath)
		symbolIDs[s.FilePath+"\x00"+s.Name] = id
		b.addNode(model.Node{ID: id, Name: s.Name, Type: nodeType, FilePath: s.FilePath})
	}

	for _, s := range symbols {
		nodeType := symbolNodeType(s.Kind)
		if nodeType == "" {
			continue
		}
		id := symbolIDs[s.FilePath+"\x00"+s.Name]

		source := fileIDs[s.FilePath]
		if s.Parent != "" {
			if parentID, ok := symbolIDs[s.FilePath+"\x00"+s.Parent]; ok {
				source = parentID
			}
		}
		if source == "" {
			// Symbol for a file outside the current record set; the edge
			// would dangle, so it is dropped here and logged at the end.
			continue
		}
		b.addEdge(model.Edge{Source: source, Target: id, Relation: model.RelContains})
	}

	return symbolIDs
}

// addImportEdges resolves import candidates against the scanned file set
// and emits Imports edges for in-repository targets only.
func (a *Assembler) addImportEdges(b *builder, fileIDs map[string]string, files []model.FileRecord, fragments []model.GraphFragment) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)

	for _, frag := range fragments {
		sourceID, ok := fileIDs[frag.FilePath]
		if !ok {
			continue
		}
		for _, imp := range frag.Imports {
			target := resolveImport(frag.FilePath, imp.Candidates, paths)
			if target == "" || target == frag.FilePath {
				continue // External or self import: no edge
			}
			b.addEdge(model.Edge{Source: sourceID, Target: fileIDs[target], Relation: model.RelImports})
		}
	}
}

// resolveImport finds the file the candidates point at. Candidates are
// tried in order; within one candidate, suffix matches are ranked by
// proximity to the importing file, then first lexicographic.
func resolveImport(importerPath string, candidates, paths []string) string {
	for _, cand := range candidates {
		var matches []string
		for _, p := range paths {
			if matchesCandidate(p, cand) {
				matches = append(matches, p)
			}
		}
		if len(matches) > 0 {
			return closestPath(importerPath, matches)
		}
	}
	return ""
}

// matchesCandidate reports whether a file path satisfies a candidate: an
// exact path, a path suffix, or the file's directory matching a directory
// style candidate (package imports).
func matchesCandidate(filePath, cand string) bool {
	if filePath == cand || strings.HasSuffix(filePath, "/"+cand) {
		return true
	}
	dir := path.Dir(filePath)
	if dir == cand || strings.HasSuffix(dir, "/"+cand) {
		return true
	}
	return false
}

// closestPath picks the match sharing the longest leading directory run
// with the importing file; ties fall to the lexicographically first path.
// Deterministic across runs by construction.
func closestPath(importerPath string, matches []string) string {
	sort.Strings(matches)
	importerDir := path.Dir(importerPath)

	best := matches[0]
	bestShared := sharedSegments(importerDir, path.Dir(matches[0]))
	for _, m := range matches[1:] {
		if shared := sharedSegments(importerDir, path.Dir(m)); shared > bestShared {
			best, bestShared = m, shared
		}
	}
	return best
}

// sharedSegments counts the common leading path segments of two dirs.
func sharedSegments(a, b string) int {
	if a == "." {
		a = ""
	}
	if b == "." {
		b = ""
	}
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] && as[n] != "" {
		n++
	}
	return n
}

// addRelationEdges resolves declared inheritance/implementation relations
// to internal symbol nodes; unresolved supertypes are external and dropped.
func (a *Assembler) addRelationEdges(b *builder, symbolIDs map[string]string, symbols []model.Symbol, fragments []model.GraphFragment) {
	// Type name → declaring file paths, restricted to type-like symbols.
	declarations := make(map[string][]string)
	for _, s := range symbols {
		if s.Kind == model.KindClass || s.Kind == model.KindInterface {
			declarations[s.Name] = append(declarations[s.Name], s.FilePath)
		}
	}

	for _, frag := range fragments {
		for _, rel := range frag.Relations {
			subID, ok := symbolIDs[frag.FilePath+"\x00"+rel.SubType]
			if !ok {
				continue
			}

			declaringFiles := declarations[rel.SuperType]
			if len(declaringFiles) == 0 {
				continue // External supertype, no edge
			}
			superFile := closestPath(frag.FilePath, append([]string(nil), declaringFiles...))
			superID, ok := symbolIDs[superFile+"\x00"+rel.SuperType]
			if !ok {
				continue
			}

			relation := rel.Relation
			if relation != model.RelInherits && relation != model.RelImplements {
				relation = model.RelInherits
			}
			b.addEdge(model.Edge{Source: subID, Target: superID, Relation: relation})
		}
	}
}

// dropDangling removes edges referencing unknown node ids. Such edges
// indicate a parser bug upstream; they are logged and discarded rather than
// failing the run.
func (a *Assembler) dropDangling(b *builder) []model.Edge {
	kept := make([]model.Edge, 0, len(b.edges))
	for _, e := range b.edges {
		if !b.nodeIDs[e.Source] || !b.nodeIDs[e.Target] {
			log.Printf("Warning: dropping dangling edge %s -[%s]-> %s\n", e.Source, e.Relation, e.Target)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
