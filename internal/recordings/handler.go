package recordings

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"aula-backend/internal/shared/server/respond"
)

// Runner triggers the analysis pipeline for a recording.
type Runner interface {
	Run(ctx context.Context, id string) error
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	Pipeline       Runner
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, pipeline Runner, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, Pipeline: pipeline, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches recording routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recordings", h.upload)
	rg.GET("/recordings", h.list)
	rg.GET("/recordings/:id/status", h.status)
	rg.GET("/recordings/:id/results", h.results)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("audio_file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "audio file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read audio file", nil)
		return
	}
	defer file.Close()

	in := UploadInput{
		FileName:          fileHeader.Filename,
		Subject:           strings.TrimSpace(c.PostForm("subject")),
		GradeLevel:        strings.TrimSpace(c.PostForm("grade_level")),
		LessonTopic:       strings.TrimSpace(c.PostForm("lesson_topic")),
		AdditionalContext: strings.TrimSpace(c.PostForm("additional_context")),
	}

	rec, err := h.Svc.Upload(c.Request.Context(), in, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store recording", nil)
		}
		return
	}

	c.Set("recordingId", rec.ID)
	respond.JSON(c, http.StatusCreated, toUploadResponse(rec))
}

// status reports pipeline progress. Polling an uploaded recording triggers
// the pipeline inline, so the first poll does the work and later polls
// observe the outcome.
func (h *Handler) status(c *gin.Context) {
	id := c.Param("id")
	c.Set("recordingId", id)

	rec, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.renderGetError(c, err)
		return
	}

	if rec.Status == StatusUploaded {
		// Pipeline faults are reflected in the reloaded record below.
		before := rec.Status
		_ = h.Pipeline.Run(c.Request.Context(), id)
		rec, err = h.Svc.Get(c.Request.Context(), id)
		if err != nil {
			h.renderGetError(c, err)
			return
		}
		c.Set("statusTransition", before+"->"+rec.Status)
	}

	respond.JSON(c, http.StatusOK, toStatusResponse(rec))
}

func (h *Handler) results(c *gin.Context) {
	id := c.Param("id")
	c.Set("recordingId", id)

	rec, err := h.Svc.Results(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotCompleted) {
			respond.Error(c, http.StatusBadRequest, "not_completed", "analysis is not completed for this recording", nil)
			return
		}
		h.renderGetError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, toResultsResponse(rec))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list recordings", nil)
		return
	}

	resp := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, toListItem(rec))
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) renderGetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "recording not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch recording", nil)
	}
}
