package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/granola/granola-api/internal/middleware"
	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/service"
)

// TranscriptHandler handles the authenticated transcript endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
	search      *service.SearchService
}

// NewTranscriptHandler creates a new TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService, search *service.SearchService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, search: search}
}

// HandleUpload handles POST /api/upload.
func (h *TranscriptHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrInvalidAPIKey)
		return
	}

	var req model.UploadRequest
	if err := decodeJSON(w, r, maxUploadBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	resp, err := h.transcripts.Upload(r.Context(), user.ID, req.Transcripts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /api/transcripts?limit&offset.
func (h *TranscriptHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrInvalidAPIKey)
		return
	}

	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp, err := h.transcripts.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/transcript/{id}. Ids may contain slashes.
func (h *TranscriptHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrInvalidAPIKey)
		return
	}

	// chi matches on RawPath when it is set, leaving the wildcard escaped;
	// otherwise it is already decoded and must not be unescaped again.
	id := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		decoded, err := url.PathUnescape(id)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid transcript id"))
			return
		}
		id = decoded
	}

	t, err := h.transcripts.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// HandleSearch handles GET /api/search?q&limit.
func (h *TranscriptHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrInvalidAPIKey)
		return
	}

	limit, err := queryInt(r, "limit", service.DefaultSearchLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp, err := h.search.Search(r.Context(), user.ID, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleStats handles GET /api/stats.
func (h *TranscriptHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrInvalidAPIKey)
		return
	}

	resp, err := h.transcripts.Stats(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
