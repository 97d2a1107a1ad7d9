package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"remote-job-scraper/internal/models"
	"remote-job-scraper/internal/runner"
	"remote-job-scraper/internal/store"
)

// Store is the read side of the keyword store.
type Store interface {
	Keywords() ([]string, error)
	Load(keyword string) ([]models.JobPosting, error)
}

// Handler handles HTTP requests for the scraper API
type Handler struct {
	store           Store
	runs            *RunManager
	sources         []string
	defaultKeywords []string
	logger          *slog.Logger
}

func NewHandler(st Store, runs *RunManager, sources, defaultKeywords []string, logger *slog.Logger) *Handler {
	return &Handler{
		store:           st,
		runs:            runs,
		sources:         sources,
		defaultKeywords: defaultKeywords,
		logger:          logger.With("component", "api"),
	}
}

type startRunRequest struct {
	Keywords  []string        `json:"keywords"`
	Sources   map[string]bool `json:"sources"`
	NoBrowser bool            `json:"no_browser"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.sources})
}

func (h *Handler) ListKeywords(c *gin.Context) {
	keywords, err := h.store.Keywords()
	if err != nil {
		h.logger.Error("listing keywords", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list keywords"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func (h *Handler) GetKeywordJobs(c *gin.Context) {
	keyword := c.Param("keyword")
	jobs, err := h.store.Load(keyword)
	if errors.Is(err, store.ErrEmptyKeyword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("loading jobs", "keyword", keyword, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keyword": keyword, "count": len(jobs), "jobs": jobs})
}

// StartRun accepts an optional JSON body; without keywords the configured
// defaults are used.
func (h *Handler) StartRun(c *gin.Context) {
	var body startRunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	if len(body.Keywords) == 0 {
		body.Keywords = h.defaultKeywords
	}

	status, err := h.runs.Start(runner.Request{
		Keywords:  body.Keywords,
		Sources:   body.Sources,
		NoBrowser: body.NoBrowser,
	})
	switch {
	case errors.Is(err, ErrRunActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, runner.ErrUnknownSource), errors.Is(err, runner.ErrNoKeywords):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Location", "/api/runs/"+status.ID.String())
	c.JSON(http.StatusAccepted, status)
}

func (h *Handler) GetRun(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	status, err := h.runs.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) StopRun(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	status, err := h.runs.Stop(id)
	switch {
	case errors.Is(err, ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrRunNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": status.State})
	default:
		c.JSON(http.StatusAccepted, status)
	}
}

func parseRunID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return uuid.Nil, false
	}
	return id, true
}
