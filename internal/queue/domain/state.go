package domain

import "fmt"

// State represents the lifecycle state of a job in the jobs table. These
// values must match the text values stored in the database (jobs.state).
type State string

const (
	// StatePending contains jobs waiting for their first claim.
	StatePending State = "pending"
	// StateProcessing means exactly one worker currently owns the job.
	StateProcessing State = "processing"
	// StateCompleted is terminal: the command exited zero.
	StateCompleted State = "completed"
	// StateFailed holds jobs waiting out a retry backoff.
	StateFailed State = "failed"
	// StateDead is terminal: retries exhausted. The set of dead jobs is
	// the dead letter queue.
	StateDead State = "dead"
)

// AllStates lists every valid job state in a stable order.
var AllStates = []State{StatePending, StateProcessing, StateCompleted, StateFailed, StateDead}

// String returns the raw string value of the state.
func (s State) String() string { return string(s) }

// Terminal reports whether no worker-driven transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDead
}

// ParseState converts a string into a State, returning an error for
// unknown values.
func ParseState(s string) (State, error) {
	for _, st := range AllStates {
		if s == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// transitions is the legal lifecycle graph. A failed job becomes claimable
// again implicitly once its next_run_at has elapsed, so failed→processing
// is part of the graph rather than a separate failed→pending edge.
// dead→pending exists only for the explicit DLQ requeue operation.
var transitions = map[State][]State{
	StatePending:    {StateProcessing},
	StateProcessing: {StateCompleted, StateFailed, StateDead},
	StateFailed:     {StateProcessing},
	StateDead:       {StatePending},
}

// CanTransition reports whether moving a job from one state to another is
// allowed by the lifecycle graph.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when the requested move
// is outside the lifecycle graph.
func ValidateTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
