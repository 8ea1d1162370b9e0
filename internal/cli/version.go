package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Version information - typically set via ldflags at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Repolens",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Repolens %s\n", Version)
		cmd.Printf("Git commit: %s\n", GitCommit)
		cmd.Printf("Build date: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
