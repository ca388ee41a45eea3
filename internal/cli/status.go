package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent run's report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		workdir, err := workdirAbs(cfg)
		if err != nil {
			return err
		}

		report, err := reportStore(workdir).Latest()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run %s (pipeline %s)\n", report.RunID, report.Pipeline)
		fmt.Fprintf(w, "  Status:   %s\n", report.Status)
		fmt.Fprintf(w, "  Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(w, "  Finished: %s\n", report.FinishedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintln(w, "  Stages:")
		for _, oc := range report.Outcomes {
			fmt.Fprintf(w, "    %-24s %-10s %6dms\n", oc.Stage, oc.Status, oc.DurationMs)
			if oc.Detail != "" {
				fmt.Fprintf(w, "      %s\n", oc.Detail)
			}
		}
		if report.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", report.Error)
		}
		return nil
	},
}
