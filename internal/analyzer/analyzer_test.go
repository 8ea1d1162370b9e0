package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/parser"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	a, err := New(opts)
	require.NoError(t, err)
	return a
}

// countingParser records how often each path is parsed and emits one class
// symbol per file so carry-over can be asserted.
type countingParser struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingParser() *countingParser {
	return &countingParser{counts: make(map[string]int)}
}

func (p *countingParser) Languages() []string { return []string{"python"} }

func (p *countingParser) Extract(_ context.Context, rec model.FileRecord, _ []byte) (*parser.Result, error) {
	p.mu.Lock()
	p.counts[rec.Path]++
	p.mu.Unlock()
	name := "Sym_" + filepath.Base(rec.Path)
	return &parser.Result{
		Symbols:  []model.Symbol{{Name: name, Kind: model.KindClass, FilePath: rec.Path, Line: 1}},
		Fragment: model.GraphFragment{FilePath: rec.Path},
	}, nil
}

func (p *countingParser) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[path]
}

func countingRegistry(p *countingParser) *parser.Registry {
	r := parser.NewRegistry()
	r.Register(p)
	return r
}

func TestAnalyzer_ColdRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    def ping(self):\n        pass\n")
	writeFile(t, root, "b.py", "import a\n\nclass B(A):\n    pass\n")

	a := newAnalyzer(t, Options{RepoName: "demo"})
	snap, err := a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	require.Len(t, snap.Files, 2)
	assert.Equal(t, "a.py", snap.Files[0].Path)
	assert.NotEmpty(t, snap.RunID)
	assert.Len(t, snap.Fingerprints, 2)

	names := make(map[string]model.SymbolKind)
	for _, s := range snap.Symbols {
		names[s.Name] = s.Kind
	}
	assert.Equal(t, model.KindClass, names["A"])
	assert.Equal(t, model.KindClass, names["B"])
	assert.Equal(t, model.KindMethod, names["ping"])

	classA := model.NodeID(model.NodeClass, "A", "a.py")
	classB := model.NodeID(model.NodeClass, "B", "b.py")
	fileA := model.NodeID(model.NodeFile, "a.py", "a.py")
	fileB := model.NodeID(model.NodeFile, "b.py", "b.py")

	found := make(map[model.Edge]bool)
	for _, e := range snap.Graph.Edges {
		found[e] = true
	}
	assert.True(t, found[model.Edge{Source: fileB, Target: fileA, Relation: model.RelImports}])
	assert.True(t, found[model.Edge{Source: classB, Target: classA, Relation: model.RelInherits}])
}

// An incremental run over a changed tree must equal a cold run over the same
// tree in everything but RunID and timestamp.
func TestAnalyzer_IncrementalMatchesColdRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")
	writeFile(t, root, "b.py", "import a\n\nclass B(A):\n    pass\n")

	a := newAnalyzer(t, Options{RepoName: "demo"})
	prior, err := a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	writeFile(t, root, "b.py", "import a\n\nclass B(A):\n    def run(self):\n        pass\n")

	incremental, err := a.Run(context.Background(), root, prior, nil)
	require.NoError(t, err)
	cold, err := a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, prior.RunID, incremental.RunID)
	assert.Equal(t, cold.Files, incremental.Files)
	assert.Equal(t, cold.Symbols, incremental.Symbols)
	assert.Equal(t, cold.Fragments, incremental.Fragments)
	assert.Equal(t, cold.Graph, incremental.Graph)
	assert.Equal(t, cold.Fingerprints, incremental.Fingerprints)
}

func TestAnalyzer_FastPathReturnsPriorVerbatim(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	counting := newCountingParser()
	a := newAnalyzer(t, Options{RepoName: "demo", Registry: countingRegistry(counting)})

	prior, err := a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, counting.count("a.py"))

	again, err := a.Run(context.Background(), root, prior, nil)
	require.NoError(t, err)

	assert.Same(t, prior, again)
	assert.Equal(t, 1, counting.count("a.py"), "fast path must not re-parse")
}

// Renaming one file must not re-parse the untouched one; its symbols are
// carried from the prior snapshot.
func TestAnalyzer_RenameOnlyReparsesChangedFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")
	writeFile(t, root, "b.py", "class B:\n    pass\n")

	counting := newCountingParser()
	a := newAnalyzer(t, Options{RepoName: "demo", Registry: countingRegistry(counting)})

	prior, err := a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.Rename(filepath.Join(root, "b.py"), filepath.Join(root, "c.py")))

	snap, err := a.Run(context.Background(), root, prior, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, counting.count("a.py"), "unchanged file re-parsed")
	assert.Equal(t, 1, counting.count("c.py"))

	names := make(map[string]string)
	for _, s := range snap.Symbols {
		names[s.Name] = s.FilePath
	}
	assert.Equal(t, "a.py", names["Sym_a.py"])
	assert.Equal(t, "c.py", names["Sym_c.py"])
	assert.NotContains(t, names, "Sym_b.py")
}

func TestAnalyzer_CacheServesIdenticalContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	cache, err := NewExtractionCache(0)
	require.NoError(t, err)
	defer cache.Close()

	counting := newCountingParser()
	a := newAnalyzer(t, Options{RepoName: "demo", Registry: countingRegistry(counting), Cache: cache})

	_, err = a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	// Cold run again with no prior: the cache, keyed by fingerprint, still
	// short-circuits the parser.
	_, err = a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, counting.count("a.py"))
}

func TestAnalyzer_RemovedFileDropsSymbols(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")
	writeFile(t, root, "b.py", "class B:\n    pass\n")

	a := newAnalyzer(t, Options{RepoName: "demo"})
	prior, err := a.Run(context.Background(), root, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.py")))

	snap, err := a.Run(context.Background(), root, prior, nil)
	require.NoError(t, err)

	require.Len(t, snap.Files, 1)
	for _, s := range snap.Symbols {
		assert.NotEqual(t, "b.py", s.FilePath)
	}
	assert.NotContains(t, snap.Fingerprints, "b.py")
}

func TestAnalyzer_CancelledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newAnalyzer(t, Options{RepoName: "demo"})
	_, err := a.Run(ctx, root, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzer_MissingRoot(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t, Options{RepoName: "demo"})
	_, err := a.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, nil)
	assert.Error(t, err)
}

func TestDiffFingerprints(t *testing.T) {
	t.Parallel()

	current := []model.FileRecord{
		{Path: "a.py", Fingerprint: "f1"},
		{Path: "b.py", Fingerprint: "f2-new"},
		{Path: "c.py", Fingerprint: "f3"},
	}
	prior := map[string]string{
		"b.py": "f2-old",
		"c.py": "f3",
		"d.py": "f4",
	}

	changes := diffFingerprints(current, prior)
	assert.Equal(t, []string{"a.py"}, changes.Added)
	assert.Equal(t, []string{"b.py"}, changes.Modified)
	assert.Equal(t, []string{"d.py"}, changes.Removed)
	assert.False(t, changes.Empty())

	unchanged := diffFingerprints(current[2:3], map[string]string{"c.py": "f3"})
	assert.True(t, unchanged.Empty())
}
