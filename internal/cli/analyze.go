package cli

import (
	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/analyzer"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/scanner"
	"github.com/repolens/repolens/internal/snapshot"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the repository and store a snapshot",
	Long: `Analyze scans the repository, parses changed files, assembles the
dependency graph, and stores the resulting snapshot. With a prior snapshot
present the run is incremental.`,
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
		snap, err := runner.Analyze(cmd.Context(), repoName, root, NewCLIProgressReporter(quietFlag))
		if err != nil {
			return err
		}

		printRunSummary(cmd, snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// buildAnalyzer wires scanner, parser registry, and extraction cache from
// the loaded configuration.
func buildAnalyzer(repoName string, cfg *config.Config) (*analyzer.Analyzer, error) {
	sc, err := scanner.New(scanner.Options{
		MaxFileSize:    cfg.Scanner.MaxFileSizeBytes,
		IgnorePatterns: cfg.Scanner.IgnorePatterns,
		UseGitignore:   cfg.Scanner.UseGitignore,
	})
	if err != nil {
		return nil, err
	}

	cache, err := analyzer.NewExtractionCache(cfg.Analyzer.CacheCapacity)
	if err != nil {
		return nil, err
	}

	return analyzer.New(analyzer.Options{
		RepoName: repoName,
		Workers:  cfg.Analyzer.Workers,
		Scanner:  sc,
		Cache:    cache,
	})
}

func printRunSummary(cmd *cobra.Command, snap *model.Snapshot) {
	cmd.Printf("Run %s\n", snap.RunID)
	cmd.Printf("  Files:   %d\n", len(snap.Files))
	cmd.Printf("  Symbols: %d\n", len(snap.Symbols))
	cmd.Printf("  Nodes:   %d\n", len(snap.Graph.Nodes))
	cmd.Printf("  Edges:   %d\n", len(snap.Graph.Edges))
}
