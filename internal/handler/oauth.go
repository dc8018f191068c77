package handler

import (
	"embed"
	"encoding/json"
	"html/template"
	"mime"
	"net/http"

	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/service"
)

//go:embed templates/authorize.html
var templateFS embed.FS

var authorizeTmpl = template.Must(template.ParseFS(templateFS, "templates/authorize.html"))

type authorizePage struct {
	model.AuthorizeParams
	Error string
}

// OAuthHandler serves the login form and the token endpoint.
type OAuthHandler struct {
	service *service.OAuthService
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(svc *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{service: svc}
}

// HandleAuthorizeForm handles GET /oauth/authorize.
func (h *OAuthHandler) HandleAuthorizeForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := authorizePage{
		AuthorizeParams: service.AuthorizeParams(q.Get("client_id"), q.Get("redirect_uri"), q.Get("state"), q.Get("response_type")),
		Error:           q.Get("error"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := authorizeTmpl.Execute(w, page); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "render authorize page", "error", err)
	}
}

// HandleAuthorizeSubmit handles POST /oauth/authorize. Every outcome is a 302.
func (h *OAuthHandler) HandleAuthorizeSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid form body"))
		return
	}

	req := model.AuthorizeRequest{
		AuthorizeParams: model.AuthorizeParams{
			ClientID:     r.PostForm.Get("client_id"),
			RedirectURI:  r.PostForm.Get("redirect_uri"),
			State:        r.PostForm.Get("state"),
			ResponseType: r.PostForm.Get("response_type"),
		},
		Email:    service.NormalizeEmail(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}

	location, err := h.service.SubmitAuthorization(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, location, http.StatusFound)
}

// HandleToken handles POST /oauth/token. The body may be form-encoded or JSON.
func (h *OAuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req model.TokenRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			writeServiceError(w, r, service.InvalidRequest("Invalid token request."))
			return
		}
		req = model.TokenRequest{
			GrantType:    r.PostForm.Get("grant_type"),
			Code:         r.PostForm.Get("code"),
			RefreshToken: r.PostForm.Get("refresh_token"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, r, service.InvalidRequest("Invalid token request."))
		return
	}

	resp, err := h.service.Exchange(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}
