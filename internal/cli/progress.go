package cli

import (
	"log"

	"github.com/schollz/progressbar/v3"

	"github.com/repolens/repolens/internal/analyzer"
)

// CLIProgressReporter renders analysis phases on the terminal: log lines for
// phase transitions and a progress bar for the parse phase.
type CLIProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a progress reporter. quiet suppresses all
// output.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) PhaseStarted(phase analyzer.Phase, total int) {
	if c.quiet {
		return
	}
	switch phase {
	case analyzer.PhaseScanning:
		log.Println("Scanning files...")
	case analyzer.PhaseParsing:
		if total == 0 {
			log.Println("Nothing to parse")
			return
		}
		c.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Parsing files"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files/s"),
		)
	case analyzer.PhaseAssembling:
		c.finishBar()
		log.Println("Assembling graph...")
	case analyzer.PhaseDone:
		c.finishBar()
	}
}

func (c *CLIProgressReporter) FileParsed(string) {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Add(1)
}

func (c *CLIProgressReporter) finishBar() {
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
	}
}
