package analyzer

// Phase identifies a stage of an analysis run for progress reporting.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseScanning   Phase = "scanning"
	PhaseParsing    Phase = "parsing"
	PhaseAssembling Phase = "assembling"
	PhaseDone       Phase = "done"
)

// ProgressReporter receives stage transitions and per-file parse progress
// during a run. Implementations must be safe for concurrent FileParsed calls;
// the worker pool invokes it from multiple goroutines.
type ProgressReporter interface {
	// PhaseStarted signals entry into a phase. total is the number of units
	// the phase will process, 0 when unknown or not applicable.
	PhaseStarted(phase Phase, total int)

	// FileParsed signals one file finished parsing (cached or fresh).
	FileParsed(path string)
}

// NoOpProgress discards all progress events.
type NoOpProgress struct{}

func (NoOpProgress) PhaseStarted(Phase, int) {}
func (NoOpProgress) FileParsed(string)       {}
