// Package cli wires the datapipe commands.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "datapipe",
	Short: "A checkpointed runner for dataset-curation pipelines",
	Long: `datapipe runs declarative dataset pipelines defined in YAML: fetch remote
resources, expand archives, invoke external curation tools with bound
input/output paths, and compress results.

Stages run strictly in order, skip when their declared outputs already
exist, and halt on the first failure. Re-running after a fix re-executes
only from the failure point; everything before it is a cache hit.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to pipeline YAML (default: ./datapipe.yaml, ~/.datapipe/config.yaml)")
	rootCmd.PersistentFlags().String("workdir", "", "Override the pipeline working directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
