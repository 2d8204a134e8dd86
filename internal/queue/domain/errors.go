package domain

import "errors"

var (
	// ErrDuplicateID is returned when enqueueing a job whose id already exists.
	ErrDuplicateID = errors.New("job id already exists")

	// ErrNotFound is returned when operating on a job that does not exist.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned for a state change outside the
	// lifecycle graph.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConcurrentModification is returned when an optimistic write lost a
	// race: the stored state no longer matches what the writer observed.
	// Callers should re-poll rather than retry the same write.
	ErrConcurrentModification = errors.New("job modified concurrently")

	// ErrNoJobAvailable is returned by a claim when no pending or due job
	// exists.
	ErrNoJobAvailable = errors.New("no job available")

	// ErrUnknownState is returned when parsing an unrecognized state value.
	ErrUnknownState = errors.New("unknown job state")
)
