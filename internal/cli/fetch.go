package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"datapipe/internal/artifact"
	"datapipe/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Materialize every declared download without running any stage",
	Long: `Fetch downloads each remote resource declared by the pipeline's stages
to its cache path. Destinations already on disk are skipped without any
network access.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		workdir, err := workdirAbs(cfg)
		if err != nil {
			return err
		}

		logger := newLogger(false)
		defer logger.Sync()

		store := artifact.NewStore(workdir)
		fetcher := fetch.New(&http.Client{}, logger)

		w := cmd.OutOrStdout()
		for _, st := range cfg.Pipeline.Stages {
			for _, dl := range st.Downloads {
				dest := store.Resolve(dl.Dest)
				art := artifact.Artifact{Name: dl.Name, Path: dest}
				if art.Exists() {
					fmt.Fprintf(w, "cached   %s\n", dl.Dest)
					continue
				}
				if _, err := fetcher.Fetch(cmd.Context(), dl.URL, dest); err != nil {
					return err
				}
				fmt.Fprintf(w, "fetched  %s\n", dl.Dest)
			}
		}
		return nil
	},
}
