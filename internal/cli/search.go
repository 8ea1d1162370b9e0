package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/search"
	"github.com/repolens/repolens/internal/snapshot"
)

var (
	searchLimit int
	searchKind  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search symbols in the stored snapshot",
	Args:  cobra.ExactArgs(1),
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

		idx, err := search.NewSymbolIndex(snap)
		if err != nil {
			return err
		}
		defer idx.Close()

		hits, err := idx.Search(args[0], searchLimit)
		if err != nil {
			return err
		}
		if searchKind != "" {
			kind := model.SymbolKind(searchKind)
			if !kind.Valid() {
				return fmt.Errorf("unknown symbol kind %q", searchKind)
			}
			filtered := hits[:0]
			for _, h := range hits {
				if h.Kind == kind {
					filtered = append(filtered, h)
				}
			}
			hits = filtered
		}

		if len(hits) == 0 {
			cmd.Println("No symbols found")
			return nil
		}
		for _, h := range hits {
			cmd.Printf("%-10s %-30s %s:%d\n", h.Kind, h.Name, h.FilePath, h.Line)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum results")
	searchCmd.Flags().StringVarP(&searchKind, "kind", "k", "", "restrict to one symbol kind (Class, Function, ...)")
	rootCmd.AddCommand(searchCmd)
}
