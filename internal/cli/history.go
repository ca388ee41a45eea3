package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"datapipe/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded pipeline runs",
	Long: `History lists recent runs from the run-history database. With a run ID
argument it shows that run's per-stage events instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := db.DefaultPath()
		if err != nil {
			return err
		}
		d, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer d.Close()

		w := cmd.OutOrStdout()

		if len(args) == 1 {
			events, err := d.StageEvents(args[0])
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintf(w, "No stage events for run %s.\n", args[0])
				return nil
			}
			fmt.Fprintf(w, "%-24s %-10s %-6s %-10s %s\n", "STAGE", "STATUS", "EXIT", "DURATION", "TIMESTAMP")
			for _, e := range events {
				fmt.Fprintf(w, "%-24s %-10s %-6d %-10s %s\n",
					e.Stage, e.Status, e.ExitCode, fmt.Sprintf("%dms", e.DurationMs), e.Timestamp)
			}
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := d.RecentRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}

		fmt.Fprintf(w, "%-36s %-16s %-10s %s\n", "RUN", "PIPELINE", "STATUS", "STARTED")
		fmt.Fprintf(w, "%-36s %-16s %-10s %s\n",
			strings.Repeat("-", 36), strings.Repeat("-", 16), strings.Repeat("-", 10), strings.Repeat("-", 7))
		for _, r := range runs {
			fmt.Fprintf(w, "%-36s %-16s %-10s %s\n", r.RunID, r.Pipeline, r.Status, r.StartedAt)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
}
