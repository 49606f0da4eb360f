package cli

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// ErrInconsistent is returned by check when index and disk disagree
var ErrInconsistent = errors.New("metadata index and group directories disagree")

func newCheckCmd(configPath *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report disagreements between the metadata index and the group directories",
		Long: `Compare the metadata index with the group directories on disk and report:
  - directories that have no index entry
  - index entries whose directory is missing

Nothing is modified. The command exits non-zero when any disagreement is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			report, err := a.groups.Audit(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				for _, id := range report.OrphanDirs {
					fmt.Fprintf(out, "directory without index entry: %s\n", id)
				}
				for _, id := range report.OrphanEntries {
					fmt.Fprintf(out, "index entry without directory: %s\n", id)
				}
				if report.Clean() {
					fmt.Fprintln(out, "ok: index and directories agree")
				}
			}

			if !report.Clean() {
				return ErrInconsistent
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}
