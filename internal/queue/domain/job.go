package domain

import "time"

// MaxLastErrorLen bounds the stored failure message so a noisy command
// cannot bloat the jobs table.
const MaxLastErrorLen = 512

// Job is a single unit of background work persisted in the jobs table.
// Command is executed through the shell by a worker; Attempts counts the
// failures recorded so far and never decreases while the job is live.
type Job struct {
	ID         string    `db:"id" json:"id"`
	Command    string    `db:"command" json:"command"`
	State      State     `db:"state" json:"state"`
	Attempts   int       `db:"attempts" json:"attempts"`
	MaxRetries int       `db:"max_retries" json:"max_retries"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
	NextRunAt  time.Time `db:"next_run_at" json:"next_run_at"`
	LastError  string    `db:"last_error" json:"last_error,omitempty"`
}

// RunnableAt reports whether the job is eligible for a claim at the given
// instant: pending jobs always are, failed jobs once their backoff elapsed.
func (j *Job) RunnableAt(now time.Time) bool {
	switch j.State {
	case StatePending:
		return true
	case StateFailed:
		return !j.NextRunAt.After(now)
	default:
		return false
	}
}

// TruncateError trims a failure message to MaxLastErrorLen bytes.
func TruncateError(msg string) string {
	if len(msg) > MaxLastErrorLen {
		return msg[:MaxLastErrorLen]
	}
	return msg
}
