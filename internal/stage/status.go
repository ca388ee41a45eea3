package stage

// Status is the lifecycle state of a stage within a run.
// Pending → {Skipped | Running → {Succeeded | Failed}}. Terminal states
// are never re-entered.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSkipped   Status = "skipped"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusSkipped, StatusRunning},
	StatusRunning: {StatusSucceeded, StatusFailed},
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusSkipped || s == StatusSucceeded || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
