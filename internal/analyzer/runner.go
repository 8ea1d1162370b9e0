package analyzer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repolens/repolens/internal/model"
)

// SnapshotStore persists snapshots between runs. Defined here, on the
// consumer side; the sqlite implementation lives in internal/snapshot.
type SnapshotStore interface {
	// Load returns the stored snapshot for a repository, or (nil, nil) when
	// none exists yet.
	Load(repoID string) (*model.Snapshot, error)

	// Save stores the snapshot, replacing any previous one atomically.
	Save(repoID string, snap *model.Snapshot) error
}

// Status describes a Runner's view of one repository.
type Status struct {
	RepoID    string    `json:"repo_id"`
	Running   bool      `json:"running"`
	Phase     Phase     `json:"phase,omitempty"`       // Current phase of the in-flight run
	AttemptID string    `json:"attempt_id,omitempty"`  // Id of the in-flight attempt
	StartedAt time.Time `json:"started_at,omitempty"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// inflight tracks one running analysis so concurrent triggers can attach
// to it instead of starting a second run over the same tree.
type inflight struct {
	attemptID string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	snap      *model.Snapshot
	err       error

	phaseMu sync.Mutex
	phase   Phase
}

func (h *inflight) setPhase(p Phase) {
	h.phaseMu.Lock()
	h.phase = p
	h.phaseMu.Unlock()
}

func (h *inflight) currentPhase() Phase {
	h.phaseMu.Lock()
	defer h.phaseMu.Unlock()
	return h.phase
}

// statusReporter tees phase transitions into the inflight record before
// forwarding them to the caller's reporter.
type statusReporter struct {
	inner ProgressReporter
	h     *inflight
}

func (r statusReporter) PhaseStarted(phase Phase, total int) {
	r.h.setPhase(phase)
	r.inner.PhaseStarted(phase, total)
}

func (r statusReporter) FileParsed(path string) {
	r.inner.FileParsed(path)
}

// Runner serializes analysis per repository: at most one run is in flight
// for a given repo id, and a trigger arriving during a run joins it rather
// than queueing a duplicate. Snapshots are loaded before and saved after
// each run through the store.
type Runner struct {
	analyzer *Analyzer
	store    SnapshotStore

	mu      sync.Mutex
	running map[string]*inflight
	last    map[string]Status
}

// NewRunner creates a Runner. store may be nil, in which case every run is
// cold and nothing is persisted.
func NewRunner(analyzer *Analyzer, store SnapshotStore) *Runner {
	return &Runner{
		analyzer: analyzer,
		store:    store,
		running:  make(map[string]*inflight),
		last:     make(map[string]Status),
	}
}

// Analyze runs the pipeline for repoID over root, or joins the run already
// in flight for that repo. Joining callers share the original run's result;
// their own ctx only bounds how long they wait for it.
func (r *Runner) Analyze(ctx context.Context, repoID, root string, progress ProgressReporter) (*model.Snapshot, error) {
	r.mu.Lock()
	if h, ok := r.running[repoID]; ok {
		r.mu.Unlock()
		select {
		case <-h.done:
			return h.snap, h.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &inflight{
		attemptID: uuid.NewString(),
		startedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
		phase:     PhasePending,
	}
	r.running[repoID] = h
	r.mu.Unlock()

	if progress == nil {
		progress = NoOpProgress{}
	}
	h.snap, h.err = r.run(runCtx, repoID, root, statusReporter{inner: progress, h: h})
	cancel()

	r.mu.Lock()
	delete(r.running, repoID)
	status := Status{RepoID: repoID}
	if h.snap != nil {
		status.LastRunID = h.snap.RunID
	}
	if h.err != nil {
		status.LastError = h.err.Error()
	}
	r.last[repoID] = status
	r.mu.Unlock()

	close(h.done)
	return h.snap, h.err
}

// run executes one analysis with the stored prior snapshot and persists the
// result. A failed load degrades to a cold run rather than failing.
func (r *Runner) run(ctx context.Context, repoID, root string, progress ProgressReporter) (*model.Snapshot, error) {
	var prior *model.Snapshot
	if r.store != nil {
		loaded, err := r.store.Load(repoID)
		if err != nil {
			log.Printf("Warning: failed to load snapshot for %s, running cold: %v\n", repoID, err)
		} else {
			prior = loaded
		}
	}

	snap, err := r.analyzer.Run(ctx, root, prior, progress)
	if err != nil {
		return nil, err
	}

	// The fast path hands back the prior snapshot; persisting it again
	// would be a no-op write.
	if r.store != nil && snap != prior {
		if err := r.store.Save(repoID, snap); err != nil {
			return nil, fmt.Errorf("failed to save snapshot for %s: %w", repoID, err)
		}
	}
	return snap, nil
}

// Cancel aborts the in-flight run for repoID, if any. The run returns a
// context error to all attached callers.
func (r *Runner) Cancel(repoID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.running[repoID]; ok {
		h.cancel()
		return true
	}
	return false
}

// Status reports whether a run is in flight for repoID and the outcome of
// the most recent completed run.
func (r *Runner) Status(repoID string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := r.last[repoID]
	status.RepoID = repoID
	if h, ok := r.running[repoID]; ok {
		status.Running = true
		status.Phase = h.currentPhase()
		status.AttemptID = h.attemptID
		status.StartedAt = h.startedAt
	}
	return status
}
