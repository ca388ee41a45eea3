package stage

import "fmt"

// ExecError means the external tool exited nonzero. Not retried.
type ExecError struct {
	Stage    string
	ExitCode int
	Output   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("stage %s: command exited with code %d", e.Stage, e.ExitCode)
}

// ContractError means the external tool exited zero but a declared
// output is missing. This is a broken contract between the pipeline and
// the tool, not a transient failure, so it is reported as a distinct
// error kind.
type ContractError struct {
	Stage         string
	MissingOutput string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("stage %s: command succeeded but declared output %s was not produced", e.Stage, e.MissingOutput)
}

// PostProcessError means an output transform (compression) failed after
// the tool itself succeeded.
type PostProcessError struct {
	Stage string
	Path  string
	Err   error
}

func (e *PostProcessError) Error() string {
	return fmt.Sprintf("stage %s: post-process %s: %v", e.Stage, e.Path, e.Err)
}

func (e *PostProcessError) Unwrap() error { return e.Err }
