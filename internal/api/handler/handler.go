package handler

import (
	"log/slog"
	"time"

	"github.com/queuectl/queuectl/internal/api/dto"
	"github.com/queuectl/queuectl/internal/queue"
	"github.com/queuectl/queuectl/internal/queue/domain"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger *slog.Logger
	Queue  *queue.Queue
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	queue  *queue.Queue
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		queue:  deps.Queue,
	}
}

func toJobDTO(job *domain.Job) dto.JobDTO {
	return dto.JobDTO{
		ID:         job.ID,
		Command:    job.Command,
		State:      job.State.String(),
		Attempts:   job.Attempts,
		MaxRetries: job.MaxRetries,
		CreatedAt:  job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  job.UpdatedAt.Format(time.RFC3339),
		NextRunAt:  job.NextRunAt.Format(time.RFC3339),
		LastError:  job.LastError,
	}
}
