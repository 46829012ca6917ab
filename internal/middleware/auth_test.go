package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/carrental-web/internal/auth"
	"github.com/ukydev/carrental-web/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func tokenFor(t *testing.T, authService *auth.Service, username string, role models.Role) string {
	t.Helper()
	token, err := authService.GenerateToken(&models.User{
		ID:       primitive.NewObjectID().Hex(),
		Username: username,
		Role:     role,
	})
	assert.NoError(t, err)
	return token
}

func TestAuthMiddleware_Identify(t *testing.T) {
	authService := auth.NewService("", 0)
	middleware := NewAuthMiddleware(authService)

	t.Run("valid bearer token", func(t *testing.T) {
		token := tokenFor(t, authService, "testuser", models.RoleAdmin)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			session, ok := GetSessionFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "testuser", session.User.Username)
			assert.Equal(t, models.RoleAdmin, session.Role())
			assert.Equal(t, token, session.Token)
		})

		middleware.Identify(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid cookie", func(t *testing.T) {
		token := tokenFor(t, authService, "cookieuser", models.RoleUser)

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		w := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := GetSessionFromContext(r.Context())
			assert.Equal(t, models.RoleUser, session.Role())
		})

		middleware.Identify(handler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token is a guest", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			session, ok := GetSessionFromContext(r.Context())
			assert.True(t, ok)
			assert.False(t, session.IsAuthenticated())
		})

		middleware.Identify(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
	})

	t.Run("invalid token is a guest", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := GetSessionFromContext(r.Context())
			assert.Equal(t, models.RoleGuest, session.Role())
		})

		middleware.Identify(handler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("header without bearer scheme is a guest", func(t *testing.T) {
		token := tokenFor(t, authService, "someone", models.RoleAdmin)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", token)
		w := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := GetSessionFromContext(r.Context())
			assert.False(t, session.IsAuthenticated())
		})

		middleware.Identify(handler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	authService := auth.NewService("", 0)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name       string
		role       models.Role
		required   models.Role
		expectCode int
		expectCall bool
	}{
		{"admin accessing admin endpoint", models.RoleAdmin, models.RoleAdmin, http.StatusOK, true},
		{"admin accessing user endpoint", models.RoleAdmin, models.RoleUser, http.StatusOK, true},
		{"user accessing admin endpoint", models.RoleUser, models.RoleAdmin, http.StatusForbidden, false},
		{"guest accessing admin endpoint", "", models.RoleAdmin, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/cars/c1/delete", nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, "someone", tt.role))
			}
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Identify(middleware.RequireRole(tt.required)(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.expectCall, handlerCalled)
			assert.Equal(t, tt.expectCode, w.Code)
		})
	}
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	authService := auth.NewService("", 0)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name       string
		role       models.Role
		action     string
		expectCode int
	}{
		{"admin deleting", models.RoleAdmin, "delete_car", http.StatusOK},
		{"user booking", models.RoleUser, models.ActionBookCar, http.StatusOK},
		{"user deleting", models.RoleUser, "delete_car", http.StatusForbidden},
		{"guest booking", "", models.ActionBookCar, http.StatusUnauthorized},
		{"guest viewing", "", models.ActionViewCars, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, "someone", tt.role))
			}
			w := httptest.NewRecorder()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			middleware.Identify(middleware.RequirePermission(tt.action)(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.expectCode, w.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	middleware := NewRateLimitMiddleware()

	t.Run("rate limit not exceeded", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/session", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		rateLimitHandler := middleware.RateLimit(5, 60)(handler)
		rateLimitHandler.ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/session", nil)
		req.RemoteAddr = "192.168.1.2:12345"
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		rateLimitHandler := middleware.RateLimit(1, 60)(handler)

		// First request should succeed
		rateLimitHandler.ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)

		// Second request should be rate limited
		w = httptest.NewRecorder()
		handlerCalled = false
		rateLimitHandler.ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getClientIP(req))
}

func TestGetSessionFromContext(t *testing.T) {
	session := models.Session{Token: "t", User: &models.User{Username: "testuser", Role: models.RoleAdmin}}

	ctx := WithSession(context.Background(), session)

	retrieved, ok := GetSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, session, retrieved)

	// Test with no session in context
	_, ok = GetSessionFromContext(context.Background())
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
