package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/visionpulse/internal/api/response"
	"github.com/kiranshivaraju/visionpulse/internal/generation"
	"github.com/kiranshivaraju/visionpulse/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxBodyBytes     = 1 << 20
)

// VideoService defines the interface the video handlers depend on.
type VideoService interface {
	CreateVideo(ctx context.Context, params generation.CreateParams) (*models.Job, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListVideos(ctx context.Context, params generation.ListParams) ([]*models.Job, int, error)
	DeleteVideo(ctx context.Context, id uuid.UUID) error
	RemixVideo(ctx context.Context, id uuid.UUID, params generation.RemixParams) (*models.Job, error)
}

type createVideoRequest struct {
	Title            string   `json:"title"`
	Script           string   `json:"script"`
	Style            string   `json:"style"`
	Voice            string   `json:"voice"`
	Size             string   `json:"size"`
	Duration         int      `json:"duration"`
	Keywords         []string `json:"keywords"`
	NegativeKeywords []string `json:"negative_keywords"`
}

type remixVideoRequest struct {
	Prompt string `json:"prompt"`
}

// NewCreateVideoHandler returns an http.HandlerFunc for POST /api/v1/videos.
func NewCreateVideoHandler(svc VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVideoRequest
		if !decodeBody(w, r, &req) {
			return
		}

		job, err := svc.CreateVideo(r.Context(), generation.CreateParams{
			Title:            req.Title,
			Script:           req.Script,
			Style:            req.Style,
			Voice:            req.Voice,
			Size:             req.Size,
			Duration:         req.Duration,
			Keywords:         req.Keywords,
			NegativeKeywords: req.NegativeKeywords,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.Accepted(w, videoLocation(job), job)
	}
}

// NewListVideosHandler returns an http.HandlerFunc for GET /api/v1/videos.
func NewListVideosHandler(svc VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, ok := queryInt(w, q.Get("page"), "page", 1)
		if !ok {
			return
		}
		limit, ok := queryInt(w, q.Get("limit"), "limit", defaultPageLimit)
		if !ok {
			return
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}

		jobs, total, err := svc.ListVideos(r.Context(), generation.ListParams{
			Status: q.Get("status"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if jobs == nil {
			jobs = []*models.Job{}
		}

		response.Collection(w, jobs, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

// NewGetVideoHandler returns an http.HandlerFunc for GET /api/v1/videos/{videoID}.
func NewGetVideoHandler(svc VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(w, r)
		if !ok {
			return
		}

		job, err := svc.GetVideo(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewDeleteVideoHandler returns an http.HandlerFunc for DELETE /api/v1/videos/{videoID}.
func NewDeleteVideoHandler(svc VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteVideo(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// NewRemixVideoHandler returns an http.HandlerFunc for POST /api/v1/videos/{videoID}/remix.
func NewRemixVideoHandler(svc VideoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(w, r)
		if !ok {
			return
		}

		var req remixVideoRequest
		if !decodeBody(w, r, &req) {
			return
		}

		job, err := svc.RemixVideo(r.Context(), id, generation.RemixParams{Prompt: req.Prompt})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.Accepted(w, videoLocation(job), job)
	}
}

func videoLocation(job *models.Job) string {
	return "/api/v1/videos/" + job.ID.String()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return false
	}
	return true
}

func videoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "videoID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "videoID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

// writeServiceError maps generation errors onto the response envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generation.ErrUnknownStyle):
		response.Error(w, http.StatusBadRequest, "INVALID_STYLE", err.Error(), nil)
	case errors.Is(err, generation.ErrUnknownVoice):
		response.Error(w, http.StatusBadRequest, "INVALID_VOICE", err.Error(), nil)
	case errors.Is(err, generation.ErrValidation):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, generation.ErrNotFound):
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Video not found", nil)
	case errors.Is(err, generation.ErrJobInProgress):
		response.Error(w, http.StatusConflict, "JOB_IN_PROGRESS",
			"The video is still being generated", nil)
	case errors.Is(err, generation.ErrNotRemixable):
		response.Error(w, http.StatusConflict, "NOT_REMIXABLE",
			"Only completed videos can be remixed", nil)
	default:
		slog.Error("video request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
