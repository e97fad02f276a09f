package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"io.winapps.tripjournal/internal/identity"
)

type verifierFunc func(ctx context.Context, token string) (identity.Identity, error)

func (f verifierFunc) VerifyToken(ctx context.Context, token string) (identity.Identity, error) {
	return f(ctx, token)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, token string) (identity.Identity, error) {
		if token == "good" {
			return identity.Identity{UID: "u1", Email: "a@b.co"}, nil
		}
		return identity.Identity{}, &identity.Error{Code: identity.CodeTokenExpired}
	})

	r := gin.New()
	r.Use(AuthMiddleware(verifier, zap.NewNop().Sugar()))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(UIDKey), "email": c.GetString(EmailKey)})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"error":"Authorization header is required"}`},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, `{"error":"Authorization header must start with 'Bearer '"}`},
		{"empty token", "Bearer  ", http.StatusUnauthorized, `{"error":"Token is required"}`},
		{"expired", "Bearer old", http.StatusUnauthorized, `{"error":"🔑 Your session has expired. Please log in again."}`},
		{"valid", "Bearer good", http.StatusOK, `{"uid":"u1","email":"a@b.co"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Body.String())
}

func TestRequestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	r := gin.New()
	r.Use(RequestIDMiddleware(), RequestLoggingMiddleware(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.JSON(http.StatusBadRequest, gin.H{"error": "nope"}) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "request completed", entries[0].Message)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])

	assert.Equal(t, "request completed with client error", entries[1].Message)
	assert.Equal(t, `{"error":"nope"}`, entries[1].ContextMap()["response"])
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware(zap.New(core).Sugar()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.POST("/reset", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/reset", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusTooManyRequests, do())

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, do())

	assert.True(t, limiter.Allow("10.0.0.2"), "other clients keep their own bucket")
}

func TestRateLimiterEvict(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(time.Hour)
	limiter.Allow("b")
	limiter.evict(rateLimitClientTTL)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.clients, 1)
	assert.Contains(t, limiter.clients, "b")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
