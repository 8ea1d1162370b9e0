package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/overview"
	"github.com/repolens/repolens/internal/snapshot"
)

var overviewTop int

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print repository statistics from the stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, repoName, cfg, err := resolveRepo()
		if err != nil {
			return err
		}

		store, err := snapshot.Open(storePath(root, cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.Load(repoName)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no snapshot for %s; run 'repolens analyze' first", repoName)
		}

		s, err := overview.Summarize(snap, overviewTop)
		if err != nil {
			return err
		}

		cmd.Printf("Repository: %s (run %s)\n", repoName, snap.RunID)
		cmd.Printf("Files: %d, Lines: %d\n\n", s.TotalFiles, s.TotalLines)

		cmd.Println("Languages:")
		for _, l := range s.Languages {
			cmd.Printf("  %-12s %5d files %8d lines\n", l.Language, l.Files, l.Lines)
		}

		cmd.Println("\nSymbols:")
		for _, kind := range []model.SymbolKind{
			model.KindClass, model.KindInterface, model.KindFunction, model.KindMethod,
			model.KindProperty, model.KindVariable, model.KindNamespace, model.KindModule,
		} {
			if n := s.SymbolCounts[kind]; n > 0 {
				cmd.Printf("  %-12s %5d\n", kind, n)
			}
		}

		if len(s.TopImported) > 0 {
			cmd.Println("\nMost imported files:")
			for _, f := range s.TopImported {
				cmd.Printf("  %3d  %s\n", f.Count, f.Path)
			}
		}
		if len(s.TopImporting) > 0 {
			cmd.Println("\nFiles with most imports:")
			for _, f := range s.TopImporting {
				cmd.Printf("  %3d  %s\n", f.Count, f.Path)
			}
		}
		return nil
	},
}

func init() {
	overviewCmd.Flags().IntVar(&overviewTop, "top", 10, "how many files to show in the import rankings")
	rootCmd.AddCommand(overviewCmd)
}
