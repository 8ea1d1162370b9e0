package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot(runID string) *model.Snapshot {
	return &model.Snapshot{
		RunID:       runID,
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Files: []model.FileRecord{
			{Path: "a.py", Language: "python", SizeBytes: 20, LineCount: 2, Fingerprint: "fp-a"},
		},
		Symbols: []model.Symbol{
			{Name: "A", Kind: model.KindClass, FilePath: "a.py", Line: 1},
		},
		Fragments: []model.GraphFragment{
			{FilePath: "a.py", Imports: []model.ImportRef{{Specifier: "os", Line: 1}}},
		},
		Graph: model.DependencyGraph{
			Nodes: []model.Node{{ID: "n1", Name: "A", Type: model.NodeClass, FilePath: "a.py"}},
		},
		Fingerprints: map[string]string{"a.py": "fp-a"},
	}
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	original := sampleSnapshot("run-1")
	require.NoError(t, store.Save("repo", original))

	loaded, err := store.Load("repo")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, original, loaded)
}

func TestStore_LoadMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)

	snap, err := store.Load("unknown")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("repo", sampleSnapshot("run-1")))
	require.NoError(t, store.Save("repo", sampleSnapshot("run-2")))

	loaded, err := store.Load("repo")
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.RunID)

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-2", entries[0].RunID)
}

func TestStore_ListAndDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("beta", sampleSnapshot("run-b")))
	require.NoError(t, store.Save("alpha", sampleSnapshot("run-a")))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].RepoID)
	assert.Equal(t, "beta", entries[1].RepoID)
	assert.False(t, entries[0].GeneratedAt.IsZero())

	require.NoError(t, store.Delete("alpha"))
	snap, err := store.Load("alpha")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save("repo", sampleSnapshot("run-1")))
	require.NoError(t, store.Close())

	reopened, err := Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load("repo")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "run-1", loaded.RunID)
}

func TestStore_SaveNil(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Save("repo", nil))
}
