package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"scribe/internal/domain"
	"scribe/internal/domain/models"
	"scribe/internal/httputil"
)

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*models.TranslatorClaims, error) {
	if token != "good" {
		return nil, domain.ErrUnauthorized
	}
	return &models.TranslatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-ana"},
		Username:         "ana",
		Role:             models.RoleEditor,
	}, nil
}

func (stubVerifier) Close() error { return nil }

func TestAuthMiddleware(t *testing.T) {
	var seen models.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httputil.GetIdentity(r)
		w.WriteHeader(http.StatusNoContent)
	})
	h := AuthMiddleware(stubVerifier{})(next)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid token", "/api/tasks/x/translation", "Bearer good", http.StatusNoContent},
		{"missing header", "/api/tasks/x/translation", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/tasks/x/translation", "Basic good", http.StatusUnauthorized},
		{"invalid token", "/api/tasks/x/translation", "Bearer bad", http.StatusUnauthorized},
		{"health is public", "/health", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = models.Identity{}
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/x/translation", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u-ana", seen.UserID)
	assert.True(t, seen.IsEditor())
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRecoveryRepanicsAbort(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
