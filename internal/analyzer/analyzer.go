package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repolens/repolens/internal/assembler"
	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/parser"
	"github.com/repolens/repolens/internal/scanner"
)

// Options configures an Analyzer.
type Options struct {
	// RepoName labels the root Repository node, usually the directory name.
	RepoName string

	// Workers bounds the parse pool. Defaults to GOMAXPROCS.
	Workers int

	// Scanner overrides the default scanner when non-nil.
	Scanner *scanner.Scanner

	// Registry overrides the default parser registry when non-nil.
	Registry *parser.Registry

	// Cache is an optional fingerprint-keyed extraction cache shared across
	// runs. A nil cache disables caching without changing results.
	Cache *ExtractionCache
}

// Analyzer orchestrates one full pipeline pass: scan, diff against the prior
// snapshot, parse what changed, merge with what didn't, and assemble the
// graph from scratch. An incremental run and a cold run over the same tree
// produce identical snapshots apart from RunID and timestamp.
type Analyzer struct {
	repoName string
	workers  int
	scanner  *scanner.Scanner
	registry *parser.Registry
	cache    *ExtractionCache
}

// New creates an Analyzer with defaults filled in for unset options.
func New(opts Options) (*Analyzer, error) {
	a := &Analyzer{
		repoName: opts.RepoName,
		workers:  opts.Workers,
		scanner:  opts.Scanner,
		registry: opts.Registry,
		cache:    opts.Cache,
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.scanner == nil {
		s, err := scanner.New(scanner.Options{UseGitignore: true})
		if err != nil {
			return nil, fmt.Errorf("failed to create scanner: %w", err)
		}
		a.scanner = s
	}
	if a.registry == nil {
		a.registry = parser.NewRegistry()
	}
	return a, nil
}

// Run executes one analysis over root. prior is the previous snapshot for
// incremental diffing, nil for a cold run. progress may be nil.
//
// When the fingerprint diff is empty the prior snapshot is returned verbatim:
// no parsing, no assembly, no new RunID.
func (a *Analyzer) Run(ctx context.Context, root string, prior *model.Snapshot, progress ProgressReporter) (*model.Snapshot, error) {
	if progress == nil {
		progress = NoOpProgress{}
	}

	progress.PhaseStarted(PhaseScanning, 0)
	records, err := a.scanner.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var priorFingerprints map[string]string
	if prior != nil {
		priorFingerprints = prior.Fingerprints
	}
	changes := diffFingerprints(records, priorFingerprints)

	if prior != nil && changes.Empty() {
		progress.PhaseStarted(PhaseDone, 0)
		return prior, nil
	}

	toParse := a.parseTargets(records, changes, prior)
	progress.PhaseStarted(PhaseParsing, len(toParse))

	fresh, err := a.parseAll(ctx, root, toParse, progress)
	if err != nil {
		return nil, err
	}

	symbols, fragments := a.merge(records, changes, prior, fresh)

	progress.PhaseStarted(PhaseAssembling, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	graph := assembler.New(a.repoName).Assemble(records, symbols, fragments)

	fingerprints := make(map[string]string, len(records))
	for _, rec := range records {
		fingerprints[rec.Path] = rec.Fingerprint
	}

	progress.PhaseStarted(PhaseDone, 0)
	return &model.Snapshot{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Files:        records,
		Symbols:      symbols,
		Fragments:    fragments,
		Graph:        graph,
		Fingerprints: fingerprints,
	}, nil
}

// parseTargets selects the records that need a parser this run: supported
// language, and either changed since the prior snapshot or not carried by it.
func (a *Analyzer) parseTargets(records []model.FileRecord, changes *ChangeSet, prior *model.Snapshot) []model.FileRecord {
	changed := changes.ChangedSet()
	var out []model.FileRecord
	for _, rec := range records {
		if !a.registry.Supports(rec.Language) {
			continue
		}
		if prior == nil || changed[rec.Path] {
			out = append(out, rec)
		}
	}
	return out
}

// parseAll runs the bounded worker pool over the records to parse. Results
// come back keyed by path; order is restored by the caller. Cache hits skip
// both the disk read and the parser.
func (a *Analyzer) parseAll(ctx context.Context, root string, records []model.FileRecord, progress ProgressReporter) (map[string]*parser.Result, error) {
	results := make(map[string]*parser.Result, len(records))
	if len(records) == 0 {
		return results, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan model.FileRecord)
	)

	workers := a.workers
	if workers > len(records) {
		workers = len(records)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				res := a.parseOne(ctx, root, rec)
				if res != nil {
					mu.Lock()
					results[rec.Path] = res
					mu.Unlock()
				}
				progress.FileParsed(rec.Path)
			}
		}()
	}

feed:
	for _, rec := range records {
		select {
		case jobs <- rec:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseOne resolves one record to a parse result, via the cache when the
// fingerprint is already known. A file that vanished or changed since the
// scan contributes nothing this run; the next run picks it up.
func (a *Analyzer) parseOne(ctx context.Context, root string, rec model.FileRecord) *parser.Result {
	if res, ok := a.cache.Get(rec.Fingerprint); ok {
		return res
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rec.Path)))
	if err != nil {
		return nil
	}
	if scanner.Fingerprint(content) != rec.Fingerprint {
		return nil
	}

	res := a.registry.Extract(ctx, rec, content)
	a.cache.Put(rec.Fingerprint, res)
	return res
}

// merge combines fresh parse results with symbols and fragments carried
// unchanged from the prior snapshot. Iteration follows record order, so the
// merged slices are deterministic regardless of worker scheduling.
func (a *Analyzer) merge(records []model.FileRecord, changes *ChangeSet, prior *model.Snapshot, fresh map[string]*parser.Result) ([]model.Symbol, []model.GraphFragment) {
	changed := changes.ChangedSet()

	priorSymbols := make(map[string][]model.Symbol)
	priorFragments := make(map[string]*model.GraphFragment)
	if prior != nil {
		for _, s := range prior.Symbols {
			priorSymbols[s.FilePath] = append(priorSymbols[s.FilePath], s)
		}
		for i := range prior.Fragments {
			priorFragments[prior.Fragments[i].FilePath] = &prior.Fragments[i]
		}
	}

	var (
		symbols   []model.Symbol
		fragments []model.GraphFragment
	)
	for _, rec := range records {
		if res, ok := fresh[rec.Path]; ok {
			symbols = append(symbols, res.Symbols...)
			if len(res.Fragment.Imports) > 0 || len(res.Fragment.Relations) > 0 {
				fragments = append(fragments, res.Fragment)
			}
			continue
		}
		// Unchanged (or unparseable this run): carry the prior contribution.
		if prior != nil && !changed[rec.Path] {
			symbols = append(symbols, priorSymbols[rec.Path]...)
			if frag, ok := priorFragments[rec.Path]; ok {
				fragments = append(fragments, *frag)
			}
		}
	}
	return symbols, fragments
}
