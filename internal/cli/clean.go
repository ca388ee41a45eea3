package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapipe/internal/artifact"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete stage outputs so the next run re-executes",
	Long: `Clean removes the declared outputs of every stage (or of the stages
named as arguments). Downloaded raw resources are kept; use --downloads
to remove those too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		workdir, err := workdirAbs(cfg)
		if err != nil {
			return err
		}
		store := artifact.NewStore(workdir)

		only := make(map[string]bool, len(args))
		for _, id := range args {
			only[id] = true
		}

		cleanDownloads, _ := cmd.Flags().GetBool("downloads")

		w := cmd.OutOrStdout()
		for _, st := range cfg.Pipeline.Stages {
			if len(only) > 0 && !only[st.ID] {
				continue
			}
			for _, out := range st.Outputs {
				final := out
				if st.Compress != "" {
					final = out + "." + st.Compress
				}
				for _, p := range []string{out, final} {
					a := store.Artifact("", p)
					if !a.Exists() {
						continue
					}
					if err := store.Remove(a); err != nil {
						return err
					}
					fmt.Fprintf(w, "removed %s\n", p)
				}
			}
			if cleanDownloads {
				for _, dl := range st.Downloads {
					a := store.Artifact(dl.Name, dl.Dest)
					if !a.Exists() {
						continue
					}
					if err := store.Remove(a); err != nil {
						return err
					}
					fmt.Fprintf(w, "removed %s\n", dl.Dest)
				}
			}
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().Bool("downloads", false, "Also remove downloaded raw resources")
}
