package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/parser"
)

// memStore is an in-memory SnapshotStore counting saves.
type memStore struct {
	mu    sync.Mutex
	snaps map[string]*model.Snapshot
	saves int
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]*model.Snapshot)}
}

func (s *memStore) Load(repoID string) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snaps[repoID], nil
}

func (s *memStore) Save(repoID string, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[repoID] = snap
	s.saves++
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// blockingParser parks every Extract call until released, so tests can hold
// a run in flight deterministically.
type blockingParser struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingParser() *blockingParser {
	return &blockingParser{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *blockingParser) Languages() []string { return []string{"python"} }

func (p *blockingParser) Extract(ctx context.Context, rec model.FileRecord, _ []byte) (*parser.Result, error) {
	p.once.Do(func() { close(p.entered) })
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &parser.Result{Fragment: model.GraphFragment{FilePath: rec.Path}}, nil
}

func TestRunner_PersistsAndReusesSnapshot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	store := newMemStore()
	runner := NewRunner(newAnalyzer(t, Options{RepoName: "demo"}), store)

	first, err := runner.Analyze(context.Background(), "demo", root, nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, store.saveCount())

	// Nothing changed: the stored snapshot is handed back and not re-saved.
	second, err := runner.Analyze(context.Background(), "demo", root, nil)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, 1, store.saveCount())

	status := runner.Status("demo")
	assert.False(t, status.Running)
	assert.Equal(t, first.RunID, status.LastRunID)
	assert.Empty(t, status.LastError)
}

func TestRunner_ConcurrentTriggersShareOneRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	blocking := newBlockingParser()
	reg := parser.NewRegistry()
	reg.Register(blocking)

	runner := NewRunner(newAnalyzer(t, Options{RepoName: "demo", Registry: reg}), newMemStore())

	type result struct {
		snap *model.Snapshot
		err  error
	}
	results := make(chan result, 2)
	run := func() {
		snap, err := runner.Analyze(context.Background(), "demo", root, nil)
		results <- result{snap, err}
	}

	go run()
	<-blocking.entered

	status := runner.Status("demo")
	assert.True(t, status.Running)
	assert.Equal(t, PhaseParsing, status.Phase)
	assert.NotEmpty(t, status.AttemptID)

	go run()
	// The joiner attaches to the in-flight attempt instead of starting one.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, status.AttemptID, runner.Status("demo").AttemptID)

	close(blocking.release)

	a := <-results
	b := <-results
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Equal(t, a.snap.RunID, b.snap.RunID)
	assert.False(t, runner.Status("demo").Running)
}

func TestRunner_CancelAbortsRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	blocking := newBlockingParser()
	reg := parser.NewRegistry()
	reg.Register(blocking)

	runner := NewRunner(newAnalyzer(t, Options{RepoName: "demo", Registry: reg}), newMemStore())

	errs := make(chan error, 1)
	go func() {
		_, err := runner.Analyze(context.Background(), "demo", root, nil)
		errs <- err
	}()
	<-blocking.entered

	require.True(t, runner.Cancel("demo"))
	assert.ErrorIs(t, <-errs, context.Canceled)
	assert.False(t, runner.Cancel("demo"))

	status := runner.Status("demo")
	assert.False(t, status.Running)
	assert.NotEmpty(t, status.LastError)
}

func TestRunner_NilStoreRunsCold(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	counting := newCountingParser()
	runner := NewRunner(newAnalyzer(t, Options{RepoName: "demo", Registry: countingRegistry(counting)}), nil)

	_, err := runner.Analyze(context.Background(), "demo", root, nil)
	require.NoError(t, err)
	_, err = runner.Analyze(context.Background(), "demo", root, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, counting.count("a.py"))
}

func TestRunner_LoadFailureDegradesToColdRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "class A:\n    pass\n")

	runner := NewRunner(newAnalyzer(t, Options{RepoName: "demo"}), failingLoadStore{})
	snap, err := runner.Analyze(context.Background(), "demo", root, nil)
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

type failingLoadStore struct{}

func (failingLoadStore) Load(string) (*model.Snapshot, error) {
	return nil, errors.New("corrupt store")
}

func (failingLoadStore) Save(string, *model.Snapshot) error { return nil }
