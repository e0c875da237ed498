package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and GitCommit are overridden at build time via -ldflags.
var (
	Version   = "0.0.1"
	GitCommit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and commit information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("Version: %s\nGit Commit: %s\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
