package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/service"
)

const (
	maxJSONBody   = 1 << 20  // 1MB
	maxUploadBody = 32 << 20 // 32MB
)

var errBodyTooLarge = errors.New("request body too large")

// clientMessages holds the wording clients see for validation errors.
var clientMessages = map[error]string{
	service.ErrEmailRequired:        "Email is required",
	service.ErrPasswordRequired:     "Password is required",
	service.ErrTranscriptsRequired:  "transcripts array is required",
	service.ErrTranscriptIDRequired: "Every transcript needs an id",
	service.ErrQueryRequired:        "Search query (q) is required",
	service.ErrInvalidPagination:    "limit and offset must be non-negative integers",
}

func clientMessage(err error) string {
	for target, msg := range clientMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

// writeDecodeError answers a failed decodeJSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(errBodyTooLarge.Error()))
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
}

// writeServiceError maps service errors onto status codes. Anything it does
// not recognise is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var oerr *service.OAuthError
	switch {
	case errors.As(err, &oerr):
		writeJSON(w, oerr.Status, map[string]string{
			"error":             oerr.Code,
			"error_description": oerr.Description,
		})
	case service.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse(clientMessage(err)))
	case errors.Is(err, service.ErrInvalidAPIKey):
		writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid or missing API key"))
	case errors.Is(err, service.ErrTranscriptNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("Transcript not found"))
	default:
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

// queryInt parses a non-negative integer query parameter, falling back to def
// when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, service.ErrInvalidPagination
	}
	return n, nil
}
