// Package cli provides the command-line interface for the archive server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Running it without a subcommand starts the server.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "exam-archive",
		Short: "File archive for clinic exam groups",
		Long: `exam-archive stores the documents of corporate health-exam groups.

Each group is a directory under the storage root, described by an entry in a
JSON metadata index next to it. The server exposes a small JSON API and an
embedded web UI to create groups and upload, download and delete their files.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file (default: next to the executable)")

	serveCmd := newServeCmd(&configPath, version)
	rootCmd.AddCommand(serveCmd, newCheckCmd(&configPath))
	rootCmd.RunE = serveCmd.RunE

	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
// This is called by main.main().
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
