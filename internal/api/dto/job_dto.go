package dto

// SubmitJobRequest is the POST /api/v1/jobs body. ID and MaxRetries are
// optional; a missing ID is generated server-side and a missing MaxRetries
// falls back to the persistent default.
type SubmitJobRequest struct {
	ID         string `json:"id"`
	Command    string `json:"command" binding:"required"`
	MaxRetries *int   `json:"max_retries"`
}

// JobDTO is the wire representation of a job record.
type JobDTO struct {
	ID         string `json:"id"`
	Command    string `json:"command"`
	State      string `json:"state"`
	Attempts   int    `json:"attempts"`
	MaxRetries int    `json:"max_retries"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	NextRunAt  string `json:"next_run_at"`
	LastError  string `json:"last_error,omitempty"`
}

// ListJobsResponse wraps a job listing.
type ListJobsResponse struct {
	Jobs []JobDTO `json:"jobs"`
}

// StatusResponse summarizes queue health for GET /api/v1/status.
type StatusResponse struct {
	Jobs          map[string]int `json:"jobs"`
	ActiveWorkers int            `json:"active_workers"`
}
