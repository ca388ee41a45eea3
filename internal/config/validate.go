package config

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"datapipe/internal/stage"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a pipeline config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
//
// Beyond field-level checks, it enforces the wiring invariant: every
// stage input must be satisfiable by the time the stage runs: produced
// as an output of an earlier stage, fetched by a download, or extracted
// under an expansion destination of the same or an earlier stage. Stage
// order is fixed at definition time, so this check is what keeps the
// pipeline acyclic without a dependency solver.
func Validate(cfg *File) []ValidationError {
	var errs []ValidationError
	p := cfg.Pipeline

	if p.Name == "" {
		errs = append(errs, ValidationError{Field: "pipeline.name", Message: "is required"})
	}
	if len(p.Stages) == 0 {
		errs = append(errs, ValidationError{Field: "pipeline.stages", Message: "at least one stage is required"})
	}
	if p.Defaults.Compress != "" && !stage.Codecs[p.Defaults.Compress] {
		errs = append(errs, ValidationError{
			Field:   "pipeline.defaults.compress",
			Message: fmt.Sprintf("unknown codec %q", p.Defaults.Compress),
		})
	}

	stageIDs := make(map[string]bool)

	// Paths known to exist when each stage runs, accumulated in
	// declaration order. Expansion destinations are tracked as prefixes
	// since their member files aren't statically enumerable.
	produced := make(map[string]bool)
	var expandDirs []string

	for i, s := range p.Stages {
		prefix := fmt.Sprintf("pipeline.stages[%d]", i)

		if s.ID == "" {
			errs = append(errs, ValidationError{Field: prefix + ".id", Message: "is required"})
		} else if stageIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate stage ID %q", s.ID),
			})
		}
		stageIDs[s.ID] = true

		if len(s.Outputs) == 0 {
			errs = append(errs, ValidationError{
				Field:   prefix + ".outputs",
				Message: "at least one output is required for skip-if-present caching",
			})
		}
		if s.Compress != "" && !stage.Codecs[s.Compress] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".compress",
				Message: fmt.Sprintf("unknown codec %q", s.Compress),
			})
		}
		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				errs = append(errs, ValidationError{
					Field:   prefix + ".timeout",
					Message: fmt.Sprintf("invalid duration %q", s.Timeout),
				})
			}
		}

		for j, dl := range s.Downloads {
			dlPrefix := fmt.Sprintf("%s.downloads[%d]", prefix, j)
			if dl.URL == "" {
				errs = append(errs, ValidationError{Field: dlPrefix + ".url", Message: "is required"})
			} else if u, err := url.Parse(dl.URL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, ValidationError{
					Field:   dlPrefix + ".url",
					Message: fmt.Sprintf("invalid URL %q", dl.URL),
				})
			}
			if dl.Dest == "" {
				errs = append(errs, ValidationError{Field: dlPrefix + ".dest", Message: "is required"})
			}
			produced[path.Clean(dl.Dest)] = true
		}

		for j, ex := range s.Expand {
			exPrefix := fmt.Sprintf("%s.expand[%d]", prefix, j)
			if ex.Archive == "" {
				errs = append(errs, ValidationError{Field: exPrefix + ".archive", Message: "is required"})
			} else if !produced[path.Clean(ex.Archive)] {
				errs = append(errs, ValidationError{
					Field:   exPrefix + ".archive",
					Message: fmt.Sprintf("archive %q is not a download or earlier output", ex.Archive),
				})
			}
			if ex.Dest == "" {
				errs = append(errs, ValidationError{Field: exPrefix + ".dest", Message: "is required"})
			}
			expandDirs = append(expandDirs, path.Clean(ex.Dest))
		}

		for _, in := range sortedEntries(s.Inputs) {
			if !stage.ValidName(in.key) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.inputs.%s", prefix, in.key),
					Message: fmt.Sprintf("name %q cannot be referenced as a {{in.*}} placeholder", in.key),
				})
			}
			if !satisfiable(in.value, produced, expandDirs) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.inputs.%s", prefix, in.key),
					Message: fmt.Sprintf("path %q is not produced by any earlier stage, download, or expansion", in.value),
				})
			}
		}

		// Command placeholders must reference declared inputs/outputs.
		for _, ref := range stage.Placeholders(s.Command) {
			kind, name, _ := strings.Cut(ref, ".")
			var ok bool
			if kind == "in" {
				_, ok = s.Inputs[name]
			} else {
				_, ok = s.Outputs[name]
			}
			if !ok {
				errs = append(errs, ValidationError{
					Field:   prefix + ".command",
					Message: fmt.Sprintf("placeholder {{%s}} references an undeclared %sput", ref, kind),
				})
			}
		}

		// Downstream stages see outputs at their post-compression paths.
		for _, out := range sortedEntries(s.Outputs) {
			if !stage.ValidName(out.key) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.outputs.%s", prefix, out.key),
					Message: fmt.Sprintf("name %q cannot be referenced as a {{out.*}} placeholder", out.key),
				})
			}
			final := out.value
			if s.Compress != "" {
				final += "." + s.Compress
			}
			produced[path.Clean(final)] = true
		}
	}

	return errs
}

// satisfiable reports whether an input path is a known produced path or
// sits under a declared expansion directory.
func satisfiable(p string, produced map[string]bool, expandDirs []string) bool {
	cleaned := path.Clean(p)
	if produced[cleaned] {
		return true
	}
	for _, dir := range expandDirs {
		if dir == "." || strings.HasPrefix(cleaned, dir+"/") {
			return true
		}
	}
	return false
}

type entry struct {
	key   string
	value string
}

// sortedEntries returns map entries in key order so validation output is
// deterministic.
func sortedEntries(m map[string]string) []entry {
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, entry{key: k, value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries
}
