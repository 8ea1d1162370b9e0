package cli

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/analyzer"
	"github.com/repolens/repolens/internal/snapshot"
	"github.com/repolens/repolens/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyze continuously as files change",
	Long: `Watch runs an initial analysis, then re-analyzes incrementally
whenever files under the repository change. Bursts of changes are debounced
into a single run. Stops on interrupt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, repoName, cfg, err := resolveRepo()
		if err != nil {
			return err
		}

		a, err := buildAnalyzer(repoName, cfg)
		if err != nil {
			return err
		}

		store, err := snapshot.Open(storePath(root, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		runner := analyzer.NewRunner(a, store)
		ctx := cmd.Context()

		if _, err := runner.Analyze(ctx, repoName, root, NewCLIProgressReporter(quietFlag)); err != nil {
			return err
		}

		w, err := watcher.New(root, time.Duration(cfg.Watcher.DebounceMs)*time.Millisecond)
		if err != nil {
			return err
		}
		defer w.Stop()

		// Re-analysis is triggered whole-repo; the fingerprint diff inside
		// the analyzer narrows the work to the touched files.
		err = w.Start(ctx, func(paths []string) {
			if !quietFlag {
				log.Printf("%d file(s) changed, re-analyzing\n", len(paths))
			}
			if _, err := runner.Analyze(ctx, repoName, root, analyzer.NoOpProgress{}); err != nil {
				log.Printf("Warning: re-analysis failed: %v\n", err)
			}
		})
		if err != nil {
			return err
		}

		if !quietFlag {
			log.Println("Watching for changes (Ctrl-C to stop)")
		}
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
