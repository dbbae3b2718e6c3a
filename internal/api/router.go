// Package api serves the jobs table over a JSON CRUD interface.
package api

import (
	"context"
	"net/http"

	"go-actuarylist-scraper/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobStore is the subset of the repository the API needs.
type JobStore interface {
	ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)
	UpdateJob(ctx context.Context, id int64, patch models.JobPatch) (*models.Job, error)
	DeleteJob(ctx context.Context, id int64) error
}

func NewRouter(store JobStore, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &JobsHandler{store: store, logger: logger}

	r := gin.New()
	r.Use(RequestID(), Recovery(logger), AccessLog(logger), CORS())

	r.GET("/", banner)

	jobs := r.Group("/api/jobs")
	jobs.GET("", h.List)
	jobs.POST("", h.Create)
	jobs.GET("/:id", h.Get)
	jobs.PUT("/:id", h.Update)
	jobs.PATCH("/:id", h.Update)
	jobs.DELETE("/:id", h.Delete)

	return r
}

var endpoints = gin.H{
	"GET /api/jobs":         "Get all jobs",
	"GET /api/jobs/<id>":    "Get single job",
	"POST /api/jobs":        "Create new job",
	"PUT /api/jobs/<id>":    "Update job",
	"PATCH /api/jobs/<id>":  "Partially update job",
	"DELETE /api/jobs/<id>": "Delete job",
}

func banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Job Listing API",
		"status":    "healthy",
		"endpoints": endpoints,
	})
}
