package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/config"
)

var (
	repoFlag  string
	quietFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "Repolens - static analysis pipeline for code repositories",
	Long: `Repolens scans a repository, extracts symbols per language, and
assembles a dependency graph. Repeated runs are incremental: only files
whose content changed are re-parsed.`,
}

// ExecuteContext adds all child commands to the root command and runs it.
// This is called by main.main(); the context cancels running commands on
// interrupt.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "r", ".", "repository root to analyze")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress progress output")
}

// resolveRepo resolves the --repo flag to an absolute root, the repository
// name used as store key, and the loaded configuration.
func resolveRepo() (root, repoName string, cfg *config.Config, err error) {
	root, err = filepath.Abs(repoFlag)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to resolve repository path %s: %w", repoFlag, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to access repository root: %w", err)
	}
	if !info.IsDir() {
		return "", "", nil, fmt.Errorf("repository root %s is not a directory", root)
	}

	cfg, err = config.LoadFromDir(root)
	if err != nil {
		return "", "", nil, err
	}
	return root, filepath.Base(root), cfg, nil
}

// storePath resolves the snapshot database path for a repository root.
func storePath(root string, cfg *config.Config) string {
	p := cfg.Storage.DBPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p
}
