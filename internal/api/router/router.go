package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/queuectl/queuectl/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "queuectl",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", jobHandler.GetStatus)

		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a new job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs - List jobs with optional state filter
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/requeue - Requeue a dead job
			jobs.POST("/:job_id/requeue", jobHandler.RequeueJob)
		}
	}

	return r
}
