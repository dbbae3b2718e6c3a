package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	domainerrors "go-actuarylist-scraper/internal/errors"
	"go-actuarylist-scraper/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPostingDate = "Just posted"
	defaultJobType     = models.JobTypeFullTime
)

var errJobNotFound = domainerrors.NotFound("Job not found", nil)

type JobsHandler struct {
	store  JobStore
	logger *zap.Logger
}

// tagList accepts either a JSON list or a comma-separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = models.SplitTags(models.JoinTags(list))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("tags must be a list or a comma-separated string")
	}
	*t = models.SplitTags(s)
	return nil
}

type createJobRequest struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	PostingDate string  `json:"posting_date"`
	JobType     string  `json:"job_type"`
	Tags        tagList `json:"tags"`
}

// updateJobRequest uses pointers so absent fields stay untouched.
type updateJobRequest struct {
	Title       *string  `json:"title"`
	Company     *string  `json:"company"`
	Location    *string  `json:"location"`
	PostingDate *string  `json:"posting_date"`
	JobType     *string  `json:"job_type"`
	Tags        *tagList `json:"tags"`
}

type messageResponse struct {
	Message string      `json:"message"`
	Job     *models.Job `json:"job,omitempty"`
}

type listResponse struct {
	Count int          `json:"count"`
	Jobs  []models.Job `json:"jobs"`
}

func (h *JobsHandler) List(c *gin.Context) {
	f := models.JobFilter{
		JobType:  c.Query("job_type"),
		Location: c.Query("location"),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		Sort:     c.DefaultQuery("sort", models.SortPostingDateDesc),
	}
	jobs, err := h.store.ListJobs(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Count: len(jobs), Jobs: jobs})
}

func (h *JobsHandler) Get(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		h.writeError(c, errJobNotFound)
		return
	}
	job, err := h.store.GetJob(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobsHandler) Create(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domainerrors.InvalidInput("invalid JSON body", err))
		return
	}

	required := []struct{ name, value string }{
		{"title", req.Title},
		{"company", req.Company},
		{"location", req.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			h.writeError(c, domainerrors.InvalidInput(f.name+" is required", nil))
			return
		}
	}

	job := &models.Job{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		PostingDate: req.PostingDate,
		JobType:     models.JobType(req.JobType),
		Tags:        []string(req.Tags),
	}
	if job.PostingDate == "" {
		job.PostingDate = defaultPostingDate
	}
	if job.JobType == "" {
		job.JobType = defaultJobType
	}

	created, err := h.store.CreateJob(c.Request.Context(), job)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "Job created successfully", Job: created})
}

func (h *JobsHandler) Update(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		h.writeError(c, errJobNotFound)
		return
	}

	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domainerrors.InvalidInput("invalid JSON body", err))
		return
	}

	nonEmpty := []struct {
		label string
		value *string
	}{
		{"Title", req.Title},
		{"Company", req.Company},
		{"Location", req.Location},
	}
	for _, f := range nonEmpty {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			h.writeError(c, domainerrors.InvalidInput(f.label+" cannot be empty", nil))
			return
		}
	}

	patch := models.JobPatch{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		PostingDate: req.PostingDate,
	}
	if req.JobType != nil {
		jt := models.JobType(*req.JobType)
		patch.JobType = &jt
	}
	if req.Tags != nil {
		tags := []string(*req.Tags)
		patch.Tags = &tags
	}

	job, err := h.store.UpdateJob(c.Request.Context(), id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Job updated successfully", Job: job})
}

func (h *JobsHandler) Delete(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		h.writeError(c, errJobNotFound)
		return
	}
	if err := h.store.DeleteJob(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Job deleted successfully"})
}

// jobID parses the :id segment. Non-numeric ids match no job.
func jobID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *JobsHandler) writeError(c *gin.Context, err error) {
	var de *domainerrors.DomainError
	message := err.Error()
	if errors.As(err, &de) {
		message = de.Message
	}

	switch domainerrors.TypeOf(err) {
	case domainerrors.ErrTypeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": message})
		return
	case domainerrors.ErrTypeInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	fields := []zap.Field{
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	}
	if de != nil {
		fields = append(fields, zap.ByteString("stack", de.StackTrace()))
	}
	h.logger.Error("request failed", fields...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
