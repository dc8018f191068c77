package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granola/granola-api/internal/repository"
	"github.com/granola/granola-api/internal/service"
)

type testServer struct {
	*httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, func(*RouterConfig) {})
}

func newTestServerWith(t *testing.T, configure func(*RouterConfig)) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	users := repository.NewUserRepository(store)
	tokens := repository.NewOAuthRepository(store)
	transcripts := repository.NewTranscriptRepository(store)

	authSvc := service.NewAuthService(users)
	oauthSvc := service.NewOAuthService(authSvc, users, tokens)
	transcriptSvc := service.NewTranscriptService(transcripts)
	searchSvc := service.NewSearchService(transcripts)

	cfg := RouterConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		Auth:           NewAuthHandler(authSvc),
		OAuth:          NewOAuthHandler(oauthSvc),
		Transcripts:    NewTranscriptHandler(transcriptSvc, searchSvc),
		Authenticator:  authSvc,
	}
	configure(&cfg)
	router := NewRouter(cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (s *testServer) do(t *testing.T, method, path, apiKey, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (s *testServer) register(t *testing.T, email, password string) (apiKey, userID string) {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/register", "", "application/json",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, resp.StatusCode, string(body))

	var out struct {
		APIKey string `json:"api_key"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.APIKey, out.UserID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/health"} {
		resp, body := s.do(t, http.MethodGet, path, "", "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok","service":"granola-api"}`, string(body))
	}
}

func TestNotFoundAndPreflight(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/nope", "", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Not found"}`, string(body))

	resp, _ = s.do(t, http.MethodDelete, "/api/stats", "", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/api/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://chat.openai.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-API-Key")
	pre, err := s.client.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Less(t, pre.StatusCode, 300)
	assert.Equal(t, "*", pre.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSHeadersFollowOrigin(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/health", "", "", "")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodGet, s.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://chat.openai.com")
	resp, err = s.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	register := func(t *testing.T, s *testServer, email, forwardedFor string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, s.URL+"/api/register",
			strings.NewReader(`{"email":"`+email+`","password":"pw"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		resp, err := s.client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	strict := func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	}

	t.Run("ignored by default", func(t *testing.T) {
		s := newTestServerWith(t, strict)

		assert.Equal(t, http.StatusCreated, register(t, s, "a@example.com", "203.0.113.1"))
		assert.Equal(t, http.StatusTooManyRequests, register(t, s, "b@example.com", "203.0.113.2"))
	})

	t.Run("trusted behind a proxy", func(t *testing.T) {
		s := newTestServerWith(t, func(cfg *RouterConfig) {
			strict(cfg)
			cfg.TrustProxy = true
		})

		assert.Equal(t, http.StatusCreated, register(t, s, "a@example.com", "203.0.113.1"))
		assert.Equal(t, http.StatusCreated, register(t, s, "b@example.com", "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, register(t, s, "c@example.com", "203.0.113.1"))
	})
}

func TestRegisterAndStats(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/api/stats", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid or missing API key"}`, string(body))

	resp, body = s.do(t, http.MethodPost, "/api/register", "", "application/json", `{"password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Email is required"}`, string(body))

	resp, body = s.do(t, http.MethodPost, "/api/register", "", "application/json", `{"email":"Pat@Example.com","name":"Pat","password":"pw"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg map[string]string
	require.NoError(t, json.Unmarshal(body, &reg))
	assert.Equal(t, "User registered successfully", reg["message"])

	resp, body = s.do(t, http.MethodPost, "/api/register", "", "application/json", `{"email":"pat@example.com","password":"pw2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again map[string]string
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Equal(t, "Password updated", again["message"])
	assert.Equal(t, reg["api_key"], again["api_key"])
	assert.Equal(t, reg["user_id"], again["user_id"])

	resp, body = s.do(t, http.MethodGet, "/api/stats", reg["api_key"], "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"totalTranscripts":0,"lastUpdated":null,"user":{"name":"Pat","email":"pat@example.com"}}`, string(body))
}

func TestTranscriptEndpoints(t *testing.T) {
	s := newTestServer(t)
	key, userID := s.register(t, "lee@example.com", "pw")

	resp, body := s.do(t, http.MethodPost, "/api/upload", key, "application/json", `{"transcripts":[
		{"id":"a","title":"Kickoff","transcript":"intro"},
		{"id":"b","title":"Planning","summary":"Quarterly MEETING notes","attendees":["Ann","Bo"]},
		{"id":"team/c","title":"Retro"}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"message":"Upload successful","uploaded":3,"updated":0,"total":3}`, string(body))

	resp, body = s.do(t, http.MethodPost, "/api/upload", key, "application/json", `{"nope":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"transcripts array is required"}`, string(body))

	resp, body = s.do(t, http.MethodGet, "/api/transcripts?limit=1&offset=1", key, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"transcripts":[{"id":"b","title":"Planning","date":"","attendees":["Ann","Bo"],"summary":"Quarterly MEETING notes"}],"total":3,"limit":1,"offset":1}`, string(body))

	resp, _ = s.do(t, http.MethodGet, "/api/transcripts?limit=abc", key, "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/transcript/b", key, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full map[string]any
	require.NoError(t, json.Unmarshal(body, &full))
	assert.Equal(t, userID, full["userId"])
	assert.NotEmpty(t, full["uploadedAt"])

	resp, body = s.do(t, http.MethodGet, "/api/transcript/team/c", key, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"Retro"`)

	resp, body = s.do(t, http.MethodGet, "/api/transcript/missing", key, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Transcript not found"}`, string(body))

	resp, body = s.do(t, http.MethodGet, "/api/search?q=Meeting", key, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sr struct {
		Results []struct {
			ID        string   `json:"id"`
			Snippets  []string `json:"snippets"`
			Relevance int      `json:"relevance"`
		} `json:"results"`
		Total int    `json:"total"`
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal(body, &sr))
	assert.Equal(t, "meeting", sr.Query)
	assert.Equal(t, 1, sr.Total)
	require.Len(t, sr.Results, 1)
	assert.Equal(t, "b", sr.Results[0].ID)
	assert.Equal(t, 1, sr.Results[0].Relevance)

	resp, body = s.do(t, http.MethodGet, "/api/search", key, "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Search query (q) is required"}`, string(body))

	// Another user sees nothing.
	other, _ := s.register(t, "kim@example.com", "pw")
	resp, _ = s.do(t, http.MethodGet, "/api/transcript/b", other, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetTranscript_EscapedIDs(t *testing.T) {
	s := newTestServer(t)
	key, _ := s.register(t, "pct@example.com", "pw")

	resp, body := s.do(t, http.MethodPost, "/api/upload", key, "application/json", `{"transcripts":[
		{"id":"50%","title":"Fifty percent"},
		{"id":"x%41","title":"Literal percent"},
		{"id":"xA","title":"Decoded twice"},
		{"id":"team/c","title":"Retro"}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	tests := []struct {
		path  string
		title string
	}{
		{"/api/transcript/50%25", "Fifty percent"},
		{"/api/transcript/x%2541", "Literal percent"},
		{"/api/transcript/xA", "Decoded twice"},
		{"/api/transcript/team/c", "Retro"},
		{"/api/transcript/team%2Fc", "Retro"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := s.do(t, http.MethodGet, tt.path, key, "", "")
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var got map[string]any
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.title, got["title"])
		})
	}

	resp, body = s.do(t, http.MethodGet, "/api/transcript/", key, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Transcript not found"}`, string(body))
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(t)
	key, _ := s.register(t, "bea@example.com", "pw")

	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+key)
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOAuthFlow(t *testing.T) {
	s := newTestServer(t)
	key, _ := s.register(t, "oli@example.com", "secret")

	resp, body := s.do(t, http.MethodGet,
		"/oauth/authorize?client_id=gpt&redirect_uri=https%3A%2F%2Fclient.example%2Fcb&state=s1&error=%3Cscript%3Ealert(1)%3C%2Fscript%3E", "", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), `value="https://client.example/cb"`)
	assert.Contains(t, string(body), `value="code"`)
	assert.Contains(t, string(body), "&lt;script&gt;")
	assert.NotContains(t, string(body), "<script>")

	form := url.Values{
		"email":         {"oli@example.com"},
		"password":      {"wrong"},
		"client_id":     {"gpt"},
		"redirect_uri":  {"https://client.example/cb"},
		"state":         {"s1"},
		"response_type": {"code"},
	}
	resp, _ = s.do(t, http.MethodPost, "/oauth/authorize", "", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", loc.Path)
	assert.Equal(t, "Incorrect password.", loc.Query().Get("error"))

	form.Set("password", "secret")
	resp, _ = s.do(t, http.MethodPost, "/oauth/authorize", "", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err = url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "client.example", loc.Host)
	assert.Equal(t, "s1", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	tokenForm := url.Values{"grant_type": {"authorization_code"}, "code": {code}}
	resp, body = s.do(t, http.MethodPost, "/oauth/token", "", "application/x-www-form-urlencoded", tokenForm.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var tok struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(body, &tok))
	assert.Equal(t, key, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, 3600, tok.ExpiresIn)

	resp, body = s.do(t, http.MethodPost, "/oauth/token", "", "application/x-www-form-urlencoded", tokenForm.Encode())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_grant","error_description":"Invalid or expired code"}`, string(body))

	resp, body = s.do(t, http.MethodPost, "/oauth/token", "", "application/json",
		`{"grant_type":"refresh_token","refresh_token":"`+tok.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodPost, "/oauth/token", "", "application/json",
		`{"grant_type":"refresh_token","refresh_token":"`+tok.RefreshToken+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_grant","error_description":"Invalid refresh token"}`, string(body))

	resp, body = s.do(t, http.MethodPost, "/oauth/token", "", "application/json", `{"grant_type":"password"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"unsupported_grant_type","error_description":"Unsupported grant type."}`, string(body))

	resp, body = s.do(t, http.MethodPost, "/oauth/token", "", "application/json", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_request","error_description":"Invalid token request."}`, string(body))
}
