// Package search provides full-text lookup over the symbols of a snapshot.
// The index is in-memory and rebuilt per snapshot; the snapshot stays the
// single source of truth.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/repolens/repolens/internal/model"
)

// Hit is one search result.
type Hit struct {
	Name     string
	Kind     model.SymbolKind
	FilePath string
	Line     int
	Score    float64
}

// SymbolIndex indexes a snapshot's symbols for name lookup.
type SymbolIndex struct {
	idx bleve.Index
}

// NewSymbolIndex builds an in-memory index over the snapshot's symbols.
func NewSymbolIndex(snap *model.Snapshot) (*SymbolIndex, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol index: %w", err)
	}

	batch := idx.NewBatch()
	for i, s := range snap.Symbols {
		doc := map[string]interface{}{
			"name":      s.Name,
			"kind":      string(s.Kind),
			"file_path": s.FilePath,
			"line":      s.Line,
		}
		id := fmt.Sprintf("%s#%s#%d", s.FilePath, s.Name, s.Line)
		if err := batch.Index(id, doc); err != nil {
			return nil, fmt.Errorf("failed to index symbol %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to commit symbol batch: %w", err)
	}

	return &SymbolIndex{idx: idx}, nil
}

// Close releases the index.
func (s *SymbolIndex) Close() error {
	return s.idx.Close()
}

// Search returns up to limit symbols matching the query, best first. Exact
// and analyzed matches on the name rank above bare prefix matches.
func (s *SymbolIndex) Search(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	match := bleve.NewMatchQuery(q)
	match.SetField("name")

	prefix := bleve.NewPrefixQuery(strings.ToLower(q))
	prefix.SetField("name")

	req := bleve.NewSearchRequest(query.NewDisjunctionQuery([]query.Query{match, prefix}))
	req.Size = limit
	req.Fields = []string{"name", "kind", "file_path", "line"}

	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["kind"].(string); ok {
			hit.Kind = model.SymbolKind(v)
		}
		if v, ok := h.Fields["file_path"].(string); ok {
			hit.FilePath = v
		}
		if v, ok := h.Fields["line"].(float64); ok {
			hit.Line = int(v)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// ByKind returns up to limit symbols of one kind.
func (s *SymbolIndex) ByKind(kind model.SymbolKind, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	term := bleve.NewTermQuery(strings.ToLower(string(kind)))
	term.SetField("kind")

	req := bleve.NewSearchRequest(term)
	req.Size = limit
	req.Fields = []string{"name", "kind", "file_path", "line"}

	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search by kind: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["kind"].(string); ok {
			hit.Kind = model.SymbolKind(v)
		}
		if v, ok := h.Fields["file_path"].(string); ok {
			hit.FilePath = v
		}
		if v, ok := h.Fields["line"].(float64); ok {
			hit.Line = int(v)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
