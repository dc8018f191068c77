package handler

import "net/http"

// HandleHealth handles GET / and GET /health.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "granola-api",
	})
}

// HandleNotFound answers unmatched routes and methods.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse("Not found"))
}
