// Package stage defines pipeline stages and executes them: materialize
// declared downloads and archive expansions, invoke the external tool
// with bound input/output paths, verify the declared outputs, and apply
// the compression post-step.
package stage

import (
	"time"

	"datapipe/internal/artifact"
)

// Download declares a remote resource a stage needs on disk before it
// runs. Dest is workdir-relative; fetched once and cached indefinitely.
type Download struct {
	Name string
	URL  string
	Dest string
}

// Expansion declares an archive to extract into a directory before the
// stage command runs.
type Expansion struct {
	Archive string
	Dest    string
}

// Input is a named path the stage command reads. It must be produced by
// an earlier stage, a download, or an expansion.
type Input struct {
	Name string
	Path string
}

// Output is a named path the stage command promises to produce.
// Compress, when set ("gz" or "zst"), replaces the file with its
// compressed form as a post-step; the final artifact carries the codec
// suffix.
type Output struct {
	Name     string
	Path     string
	Compress string
}

// FinalPath returns the artifact path after any compression post-step.
func (o Output) FinalPath() string {
	if o.Compress == "" {
		return o.Path
	}
	return o.Path + "." + o.Compress
}

// Stage is a single unit of pipeline work. Stages are created at
// pipeline-definition time and never mutated afterwards; each executes
// at most once per run.
type Stage struct {
	ID        string
	Downloads []Download
	Expands   []Expansion
	Inputs    []Input
	Outputs   []Output

	// Command is a shell command with {{in.name}} and {{out.name}}
	// placeholders. Empty means the stage only materializes downloads
	// and expansions.
	Command string

	Timeout time.Duration
}

// FinalArtifacts returns the stage's declared outputs as artifacts at
// their post-compression paths, resolved against the store. Presence of
// all of them is what makes a re-run skip the stage.
func (s *Stage) FinalArtifacts(store *artifact.Store) []artifact.Artifact {
	arts := make([]artifact.Artifact, 0, len(s.Outputs))
	for _, out := range s.Outputs {
		arts = append(arts, store.Artifact(out.Name, out.FinalPath()))
	}
	return arts
}
