package stage

import "testing"

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusSkipped},
		{StatusPending, StatusRunning},
		{StatusRunning, StatusSucceeded},
		{StatusRunning, StatusFailed},
	}
	for _, tr := range allowed {
		if !tr.from.CanTransition(tr.to) {
			t.Errorf("%s -> %s should be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusSucceeded},
		{StatusSkipped, StatusRunning},
		{StatusSucceeded, StatusRunning},
		{StatusFailed, StatusRunning},
		{StatusFailed, StatusSucceeded},
	}
	for _, tr := range denied {
		if tr.from.CanTransition(tr.to) {
			t.Errorf("%s -> %s should be denied", tr.from, tr.to)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusSkipped, StatusSucceeded, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
