package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	users map[string]*model.User
	err   error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, &service.AuthError{Message: service.MsgInvalidToken}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": c.GetString(AuthUserKey), "role": c.GetString(AuthRoleKey)})
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/quotes", okHandler)

	t.Run("headers on normal request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		r := gin.New()
		r.Use(CORSMiddleware())
		r.OPTIONS("/quotes", func(c *gin.Context) { called = true })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/quotes", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.False(t, called)
	})
}

func TestJWTAuthMiddleware(t *testing.T) {
	auth := stubAuthenticator{users: map[string]*model.User{
		"good-token":  {ID: "u1", Role: model.RoleUser},
		"admin-token": {ID: "u2", Role: model.RoleAdmin},
	}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
		wantUser   string
	}{
		{"missing header", "", http.StatusUnauthorized, "No authorization header", ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "No token provided", ""},
		{"bearer without token", "Bearer", http.StatusUnauthorized, "No token provided", ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "Invalid token", ""},
		{"valid token", "Bearer good-token", http.StatusOK, "", "u1"},
		{"case-insensitive scheme", "bearer admin-token", http.StatusOK, "", "u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/protected", JWTAuthMiddleware(auth), okHandler)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				resp := decodeEnvelope(t, w)
				assert.Equal(t, tt.wantStatus, resp.StatusCode)
				assert.Equal(t, tt.wantMsg, resp.Message)
				assert.Nil(t, resp.Data)
			}
			if tt.wantUser != "" {
				assert.Contains(t, w.Body.String(), tt.wantUser)
			}
		})
	}
}

func TestJWTAuthMiddleware_InternalError(t *testing.T) {
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(stubAuthenticator{err: errors.New("db down")}), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeEnvelope(t, w).Message)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRoleMiddleware(t *testing.T) {
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set(AuthRoleKey, role)
			}
			c.Next()
		}
	}

	tests := []struct {
		name       string
		role       string
		mw         gin.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{"admin allowed on admin route", model.RoleAdmin, AdminMiddleware(), http.StatusOK, ""},
		{"user denied on admin route", model.RoleUser, AdminMiddleware(), http.StatusForbidden, "Access denied. Admin role required."},
		{"no role on admin route", "", AdminMiddleware(), http.StatusForbidden, "Access denied. Admin role required."},
		{"user allowed on user route", model.RoleUser, UserMiddleware(), http.StatusOK, ""},
		{"admin allowed on user route", model.RoleAdmin, UserMiddleware(), http.StatusOK, ""},
		{"unknown role on user route", "GUEST", UserMiddleware(), http.StatusForbidden, "Access denied."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withRole(tt.role), tt.mw, okHandler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				resp := decodeEnvelope(t, w)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/quotes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quotes/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/quotes/:id",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"far too long"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
