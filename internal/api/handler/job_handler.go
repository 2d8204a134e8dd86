package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/queuectl/queuectl/internal/api/dto"
	"github.com/queuectl/queuectl/internal/queue"
	"github.com/queuectl/queuectl/internal/queue/domain"
)

// CreateJob handles POST /api/v1/jobs
// Submits a new background job for processing.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.queue.Submit(c.Request.Context(), queue.SubmitRequest{
		ID:         req.ID,
		Command:    req.Command,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	c.JSON(http.StatusCreated, toJobDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
// Retrieves detailed information about a specific job.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.queue.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs, optionally filtered by ?state=.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var state domain.State
	if raw := c.Query("state"); raw != "" {
		parsed, err := domain.ParseState(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		state = parsed
	}

	jobs, err := h.queue.List(c.Request.Context(), state)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	resp := dto.ListJobsResponse{Jobs: make([]dto.JobDTO, len(jobs))}
	for i := range jobs {
		resp.Jobs[i] = toJobDTO(&jobs[i])
	}

	c.JSON(http.StatusOK, resp)
}

// RequeueJob handles POST /api/v1/jobs/:job_id/requeue
// Moves a dead-lettered job back to pending.
func (h *JobHandler) RequeueJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if err := h.queue.Requeue(c.Request.Context(), jobID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
		default:
			h.logger.Error("Failed to requeue job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to requeue job",
			})
		}
		return
	}

	job, err := h.queue.Get(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to reload requeued job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to reload requeued job",
		})
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// GetStatus handles GET /api/v1/status
// Reports per-state job counts and active worker count.
func (h *JobHandler) GetStatus(c *gin.Context) {
	status, err := h.queue.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get status",
		})
		return
	}

	jobs := make(map[string]int, len(status.Jobs))
	for state, count := range status.Jobs {
		jobs[state.String()] = count
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		Jobs:          jobs,
		ActiveWorkers: status.ActiveWorkers,
	})
}
