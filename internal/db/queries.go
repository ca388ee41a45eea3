package db

import "fmt"

// Run represents a row in the runs table.
type Run struct {
	RunID      string
	Pipeline   string
	Status     string
	StartedAt  string
	FinishedAt string
}

// StageEvent represents a row in the stage_events table.
type StageEvent struct {
	ID         int
	RunID      string
	Stage      string
	Status     string
	ExitCode   int
	DurationMs int64
	Detail     string
	Timestamp  string
}

// RunStarted records the start of a pipeline run.
func (d *DB) RunStarted(runID, pipeline string) error {
	_, err := d.conn.Exec(
		`INSERT INTO runs (run_id, pipeline, status) VALUES (?, ?, 'running')`,
		runID, pipeline,
	)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// StageFinished records the terminal outcome of one stage.
func (d *DB) StageFinished(runID, stageID, status string, exitCode int, durationMs int64, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO stage_events (run_id, stage, status, exit_code, duration_ms, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stageID, status, exitCode, durationMs, detail,
	)
	if err != nil {
		return fmt.Errorf("record stage event: %w", err)
	}
	return nil
}

// RunFinished records a run's terminal status.
func (d *DB) RunFinished(runID, status string) error {
	_, err := d.conn.Exec(
		`UPDATE runs SET status = ?, finished_at = datetime('now') WHERE run_id = ?`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (d *DB) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(
		`SELECT run_id, pipeline, status, started_at, COALESCE(finished_at, '') FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Pipeline, &r.Status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// StageEvents returns the stage events of one run in execution order.
func (d *DB) StageEvents(runID string) ([]StageEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, stage, status, exit_code, duration_ms, COALESCE(detail, ''), timestamp FROM stage_events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var e StageEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.Status, &e.ExitCode, &e.DurationMs, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
