package stage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"datapipe/internal/archive"
	"datapipe/internal/artifact"
	"datapipe/internal/fetch"
)

// Runner executes the stage lifecycle: skip check → materialize inputs →
// invoke tool → verify outputs → compress.
type Runner struct {
	store          *artifact.Store
	fetcher        *fetch.Fetcher
	cmd            CommandRunner
	logger         *zap.Logger
	progress       io.Writer     // live progress output; nil = silent
	defaultTimeout time.Duration // per-stage command timeout when the stage sets none
}

// NewRunner creates a stage runner. A nil logger disables logging.
func NewRunner(store *artifact.Store, fetcher *fetch.Fetcher, cmd CommandRunner, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:          store,
		fetcher:        fetcher,
		cmd:            cmd,
		logger:         logger,
		defaultTimeout: 2 * time.Hour,
	}
}

// SetProgress sets a writer for live progress output (e.g. os.Stderr).
func (r *Runner) SetProgress(w io.Writer) {
	r.progress = w
}

// SetDefaultTimeout overrides the default command timeout.
func (r *Runner) SetDefaultTimeout(d time.Duration) {
	r.defaultTimeout = d
}

// logf prints a progress line if a progress writer is configured.
func (r *Runner) logf(format string, args ...interface{}) {
	if r.progress != nil {
		fmt.Fprintf(r.progress, "  → "+format+"\n", args...)
	}
}

// Result captures the terminal outcome of a stage run.
type Result struct {
	Stage    string        `json:"stage"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	ExitCode int           `json:"exit_code"`
	Detail   string        `json:"detail,omitempty"`
}

// Run executes a single stage to a terminal state. A non-nil error is
// always paired with a Failed result; the error types distinguish fetch,
// expand, execution, contract, and post-process failures.
func (r *Runner) Run(ctx context.Context, st *Stage) (*Result, error) {
	start := time.Now()
	status := StatusPending

	finals := st.FinalArtifacts(r.store)
	if len(finals) > 0 && r.store.AllExist(finals) {
		status = advance(status, StatusSkipped)
		r.logf("stage %s: outputs present, skipping", st.ID)
		r.logger.Info("stage skipped", zap.String("stage", st.ID))
		return &Result{Stage: st.ID, Status: status, Duration: time.Since(start)}, nil
	}

	status = advance(status, StatusRunning)

	fail := func(err error, exitCode int, detail string) (*Result, error) {
		res := &Result{
			Stage:    st.ID,
			Status:   advance(status, StatusFailed),
			Duration: time.Since(start),
			ExitCode: exitCode,
			Detail:   detail,
		}
		r.logger.Error("stage failed", zap.String("stage", st.ID), zap.Error(err))
		return res, err
	}

	// Materialize downloads. Fetch itself skips destinations that are
	// already on disk.
	for _, dl := range st.Downloads {
		dest := r.store.Resolve(dl.Dest)
		if _, err := r.fetcher.Fetch(ctx, dl.URL, dest); err != nil {
			return fail(err, 0, err.Error())
		}
	}

	// Materialize archive expansions.
	for _, ex := range st.Expands {
		r.logf("stage %s: expanding %s", st.ID, ex.Archive)
		if _, err := archive.Expand(r.store.Resolve(ex.Archive), r.store.Resolve(ex.Dest)); err != nil {
			return fail(err, 0, err.Error())
		}
	}

	// Inputs must exist by now, either from earlier stages or from the
	// downloads and expansions above.
	ins := make(map[string]string, len(st.Inputs))
	for _, in := range st.Inputs {
		a := r.store.Artifact(in.Name, in.Path)
		if !a.Exists() {
			err := fmt.Errorf("stage %s: input %s not found at %s", st.ID, in.Name, a.Path)
			return fail(err, 0, err.Error())
		}
		ins[in.Name] = a.Path
	}

	outs := make(map[string]string, len(st.Outputs))
	for _, out := range st.Outputs {
		path := r.store.Resolve(out.Path)
		if err := r.store.EnsureParent(path); err != nil {
			return fail(err, 0, err.Error())
		}
		outs[out.Name] = path
	}

	if st.Command != "" {
		if exitCode, detail, err := r.invoke(ctx, st, ins, outs); err != nil {
			return fail(err, exitCode, detail)
		}
	}

	// The tool exiting zero is not enough: every declared output must
	// actually be on disk, or the contract between pipeline and tool is
	// broken.
	for _, out := range st.Outputs {
		a := r.store.Artifact(out.Name, out.Path)
		if !a.Exists() {
			err := &ContractError{Stage: st.ID, MissingOutput: a.Path}
			r.removeOutputs(st)
			return fail(err, 0, err.Error())
		}
	}

	// Compression post-step.
	for _, out := range st.Outputs {
		if out.Compress == "" {
			continue
		}
		src := r.store.Resolve(out.Path)
		dst := r.store.Resolve(out.FinalPath())
		r.logf("stage %s: compressing %s (%s)", st.ID, out.Path, out.Compress)
		if err := compressFile(src, dst, out.Compress); err != nil {
			perr := &PostProcessError{Stage: st.ID, Path: src, Err: err}
			r.removeOutputs(st)
			return fail(perr, 0, perr.Error())
		}
	}

	status = advance(status, StatusSucceeded)
	r.logf("stage %s: succeeded (%s)", st.ID, time.Since(start).Round(time.Millisecond))
	r.logger.Info("stage succeeded", zap.String("stage", st.ID), zap.Duration("duration", time.Since(start)))
	return &Result{Stage: st.ID, Status: status, Duration: time.Since(start)}, nil
}

// invoke renders the command and runs the external tool synchronously.
// On failure it returns the exit code, a diagnostic detail string, and
// the error.
func (r *Runner) invoke(ctx context.Context, st *Stage, ins, outs map[string]string) (int, string, error) {
	rendered, err := RenderCommand(st.Command, ins, outs)
	if err != nil {
		err = fmt.Errorf("stage %s: %w", st.ID, err)
		return 0, err.Error(), err
	}

	timeout := st.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logf("stage %s: running: %s", st.ID, rendered)
	r.logger.Info("stage command", zap.String("stage", st.ID), zap.String("command", rendered))

	stdout, stderr, exitCode, err := r.cmd.Run(cmdCtx, r.store.Root(), rendered)
	if err != nil {
		r.removeOutputs(st)
		err = fmt.Errorf("stage %s: %w", st.ID, err)
		return 0, err.Error(), err
	}
	if exitCode != 0 {
		// A failed stage must not leave declared outputs behind, or a
		// re-run would mistakenly skip it.
		r.removeOutputs(st)
		execErr := &ExecError{Stage: st.ID, ExitCode: exitCode, Output: tail(stdout + stderr)}
		return exitCode, execErr.Output, execErr
	}
	return 0, "", nil
}

// removeOutputs deletes any declared outputs a failed stage left on disk.
func (r *Runner) removeOutputs(st *Stage) {
	for _, out := range st.Outputs {
		_ = r.store.Remove(r.store.Artifact(out.Name, out.Path))
		if out.Compress != "" {
			_ = r.store.Remove(r.store.Artifact(out.Name, out.FinalPath()))
		}
	}
}

// advance moves a stage status through the state machine, panicking on
// an illegal transition. Transitions are fixed at compile time, so a
// panic here is a programming error, not an input error.
func advance(from, to Status) Status {
	if !from.CanTransition(to) {
		panic(fmt.Sprintf("illegal stage transition %s -> %s", from, to))
	}
	return to
}

// tail returns the last few lines of captured tool output for diagnostics.
func tail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	const keep = 20
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, "\n")
}
