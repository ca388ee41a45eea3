package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapipe/internal/db"
	"datapipe/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline top to bottom",
	Long: `Run executes every stage in declaration order. Stages whose declared
outputs already exist are skipped; the first failing stage halts the run
and its exit status propagates. Artifacts from earlier stages stay on
disk, so re-running after a fix resumes from the failure point.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := newLogger(verbose)
		defer logger.Sync()

		p, store, err := buildPipeline(cfg, logger)
		if err != nil {
			return err
		}

		// Run history is best-effort: a missing or broken database
		// never blocks the pipeline.
		if dbPath, derr := db.DefaultPath(); derr == nil {
			if d, derr := db.Open(dbPath); derr == nil {
				defer d.Close()
				p.SetEvents(d)
			}
		}

		report, runErr := p.Run(cmd.Context())

		if err := reportStore(store.Root()).Save(report); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: save run report: %v\n", err)
		}

		printReport(cmd, report)
		return runErr
	},
}

func printReport(cmd *cobra.Command, r *pipeline.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nPipeline %s: %s (run %s)\n", r.Pipeline, r.Status, r.RunID)
	for _, oc := range r.Outcomes {
		fmt.Fprintf(w, "  %-24s %-10s %6dms\n", oc.Stage, oc.Status, oc.DurationMs)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
}

func init() {
	runCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}
