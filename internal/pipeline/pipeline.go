// Package pipeline runs an ordered sequence of stages with
// skip-if-present caching, fail-fast halting, and persisted run reports.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"datapipe/internal/config"
	"datapipe/internal/stage"
)

// EventSink receives pipeline lifecycle events. Implementations log them
// best-effort; a failing sink never fails the run.
type EventSink interface {
	RunStarted(runID, pipeline string) error
	StageFinished(runID, stageID, status string, exitCode int, durationMs int64, detail string) error
	RunFinished(runID, status string) error
}

// Pipeline is an ordered sequence of stages sharing one runner and one
// artifact store.
type Pipeline struct {
	Name   string
	Stages []*stage.Stage

	runner *stage.Runner
	logger *zap.Logger
	events EventSink
}

// New creates a Pipeline over already-built stages.
func New(name string, stages []*stage.Stage, runner *stage.Runner, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{Name: name, Stages: stages, runner: runner, logger: logger}
}

// SetEvents attaches an event sink (e.g. the run-history database).
func (p *Pipeline) SetEvents(sink EventSink) {
	p.events = sink
}

// StagesFromConfig converts a validated pipeline config into stage
// definitions. Paths stay workdir-relative; the runner's artifact store
// resolves them at execution time.
func StagesFromConfig(cfg *config.Pipeline) ([]*stage.Stage, error) {
	stages := make([]*stage.Stage, 0, len(cfg.Stages))
	for _, sc := range cfg.Stages {
		st := &stage.Stage{
			ID:      sc.ID,
			Command: sc.Command,
		}
		if sc.Timeout != "" {
			d, err := time.ParseDuration(sc.Timeout)
			if err != nil {
				return nil, fmt.Errorf("stage %s: invalid timeout %q: %w", sc.ID, sc.Timeout, err)
			}
			st.Timeout = d
		}
		for _, dl := range sc.Downloads {
			st.Downloads = append(st.Downloads, stage.Download{Name: dl.Name, URL: dl.URL, Dest: dl.Dest})
		}
		for _, ex := range sc.Expand {
			st.Expands = append(st.Expands, stage.Expansion{Archive: ex.Archive, Dest: ex.Dest})
		}
		for _, name := range sortedKeys(sc.Inputs) {
			st.Inputs = append(st.Inputs, stage.Input{Name: name, Path: sc.Inputs[name]})
		}
		for _, name := range sortedKeys(sc.Outputs) {
			st.Outputs = append(st.Outputs, stage.Output{Name: name, Path: sc.Outputs[name], Compress: sc.Compress})
		}
		stages = append(stages, st)
	}
	return stages, nil
}

// Run executes stages strictly in declaration order. On the first failed
// stage it halts immediately and the report lists all prior outcomes
// plus the failing stage's error; later stages are never attempted.
// Artifacts from earlier successful stages stay on disk, which is what
// makes a re-run after a fix resume from the failure point.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Pipeline:  p.Name,
		Status:    "succeeded",
		StartedAt: time.Now().UTC(),
	}

	p.logger.Info("pipeline run starting",
		zap.String("pipeline", p.Name),
		zap.String("run_id", report.RunID),
		zap.Int("stages", len(p.Stages)))
	if p.events != nil {
		_ = p.events.RunStarted(report.RunID, p.Name)
	}

	var runErr error
	for _, st := range p.Stages {
		res, err := p.runner.Run(ctx, st)
		outcome := StageOutcome{
			Stage:      res.Stage,
			Status:     res.Status,
			DurationMs: res.Duration.Milliseconds(),
			ExitCode:   res.ExitCode,
			Detail:     res.Detail,
		}
		report.Outcomes = append(report.Outcomes, outcome)
		if p.events != nil {
			_ = p.events.StageFinished(report.RunID, outcome.Stage, string(outcome.Status),
				outcome.ExitCode, outcome.DurationMs, outcome.Detail)
		}
		if err != nil {
			report.Status = "failed"
			report.Error = err.Error()
			runErr = fmt.Errorf("pipeline %s: %w", p.Name, err)
			break
		}
	}

	report.FinishedAt = time.Now().UTC()
	if p.events != nil {
		_ = p.events.RunFinished(report.RunID, report.Status)
	}
	p.logger.Info("pipeline run finished",
		zap.String("run_id", report.RunID),
		zap.String("status", report.Status),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))

	return report, runErr
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
