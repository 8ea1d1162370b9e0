// Package overview condenses a snapshot into repository-level statistics:
// language breakdown, symbol counts, and the most connected files by
// import fan-in and fan-out.
package overview

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/repolens/repolens/internal/model"
)

// LanguageStat aggregates the files of one detected language.
type LanguageStat struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
	Lines    int    `json:"lines"`
}

// FileDegree is a file ranked by import connectivity.
type FileDegree struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Summary is the repository overview derived from one snapshot.
type Summary struct {
	TotalFiles   int                      `json:"total_files"`
	TotalLines   int                      `json:"total_lines"`
	Languages    []LanguageStat           `json:"languages"`
	SymbolCounts map[model.SymbolKind]int `json:"symbol_counts"`
	TopImported  []FileDegree             `json:"top_imported"`  // Highest fan-in
	TopImporting []FileDegree             `json:"top_importing"` // Highest fan-out
}

// Summarize builds the overview. topN bounds the connectivity rankings.
func Summarize(snap *model.Snapshot, topN int) (*Summary, error) {
	if snap == nil {
		return nil, fmt.Errorf("cannot summarize nil snapshot")
	}
	if topN <= 0 {
		topN = 10
	}

	s := &Summary{SymbolCounts: make(map[model.SymbolKind]int)}

	byLanguage := make(map[string]*LanguageStat)
	for _, f := range snap.Files {
		s.TotalFiles++
		s.TotalLines += f.LineCount

		lang := f.Language
		if lang == "" {
			lang = "other"
		}
		stat, ok := byLanguage[lang]
		if !ok {
			stat = &LanguageStat{Language: lang}
			byLanguage[lang] = stat
		}
		stat.Files++
		stat.Lines += f.LineCount
	}
	for _, stat := range byLanguage {
		s.Languages = append(s.Languages, *stat)
	}
	// Largest language first; name breaks ties.
	sort.Slice(s.Languages, func(i, j int) bool {
		if s.Languages[i].Files != s.Languages[j].Files {
			return s.Languages[i].Files > s.Languages[j].Files
		}
		return s.Languages[i].Language < s.Languages[j].Language
	})

	for _, sym := range snap.Symbols {
		s.SymbolCounts[sym.Kind]++
	}

	imported, importing, err := importDegrees(snap)
	if err != nil {
		return nil, err
	}
	s.TopImported = topDegrees(imported, topN)
	s.TopImporting = topDegrees(importing, topN)

	return s, nil
}

// importDegrees projects the snapshot's Imports edges onto a directed file
// graph and returns per-file fan-in and fan-out.
func importDegrees(snap *model.Snapshot) (in, out map[string]int, err error) {
	filePaths := make(map[string]string) // node id -> file path
	for _, n := range snap.Graph.Nodes {
		if n.Type == model.NodeFile {
			filePaths[n.ID] = n.FilePath
		}
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, p := range filePaths {
		if err := g.AddVertex(p); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, nil, fmt.Errorf("failed to add file vertex %s: %w", p, err)
		}
	}
	for _, e := range snap.Graph.Edges {
		if e.Relation != model.RelImports {
			continue
		}
		src, okS := filePaths[e.Source]
		dst, okT := filePaths[e.Target]
		if !okS || !okT {
			continue
		}
		if err := g.AddEdge(src, dst); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, nil, fmt.Errorf("failed to add import edge %s -> %s: %w", src, dst, err)
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build adjacency map: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build predecessor map: %w", err)
	}

	in = make(map[string]int, len(predecessors))
	out = make(map[string]int, len(adjacency))
	for p, targets := range adjacency {
		out[p] = len(targets)
	}
	for p, sources := range predecessors {
		in[p] = len(sources)
	}
	return in, out, nil
}

// topDegrees ranks files by degree descending, nonzero only, path breaking
// ties so the ranking is stable.
func topDegrees(degrees map[string]int, topN int) []FileDegree {
	ranked := make([]FileDegree, 0, len(degrees))
	for p, c := range degrees {
		if c > 0 {
			ranked = append(ranked, FileDegree{Path: p, Count: c})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Path < ranked[j].Path
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
