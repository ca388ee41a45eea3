package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"datapipe/internal/artifact"
	"datapipe/internal/config"
	"datapipe/internal/fetch"
	"datapipe/internal/pipeline"
	"datapipe/internal/stage"
)

// loadConfig loads the pipeline config from --config or the default
// search locations, applies the --workdir override, and validates it.
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.File
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if workdir, _ := cmd.Flags().GetString("workdir"); workdir != "" {
		cfg.Pipeline.Workdir = workdir
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "config error: %s\n", e)
		}
		return nil, fmt.Errorf("invalid pipeline config (%d errors)", len(errs))
	}
	return cfg, nil
}

// workdirAbs resolves the pipeline working directory to an absolute path
// so nothing depends on the process working directory afterwards.
func workdirAbs(cfg *config.File) (string, error) {
	abs, err := filepath.Abs(cfg.Pipeline.Workdir)
	if err != nil {
		return "", fmt.Errorf("resolve workdir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create workdir: %w", err)
	}
	return abs, nil
}

// newLogger builds a console zap logger writing to stderr.
func newLogger(verbose bool) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// buildPipeline assembles the store, fetcher, runner, and pipeline for a
// validated config.
func buildPipeline(cfg *config.File, logger *zap.Logger) (*pipeline.Pipeline, *artifact.Store, error) {
	workdir, err := workdirAbs(cfg)
	if err != nil {
		return nil, nil, err
	}

	store := artifact.NewStore(workdir)
	fetcher := fetch.New(&http.Client{}, logger)
	runner := stage.NewRunner(store, fetcher, &stage.ExecRunner{}, logger)
	runner.SetProgress(os.Stderr)

	stages, err := pipeline.StagesFromConfig(&cfg.Pipeline)
	if err != nil {
		return nil, nil, err
	}

	return pipeline.New(cfg.Pipeline.Name, stages, runner, logger), store, nil
}

// reportStore returns the run-report store for a workdir.
func reportStore(workdir string) *pipeline.Store {
	return pipeline.NewStore(filepath.Join(workdir, ".datapipe", "runs"))
}

// ExitCode maps a command error to the process exit status. When the
// failure is a stage tool exiting nonzero, that exit code propagates;
// everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var execErr *stage.ExecError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}
