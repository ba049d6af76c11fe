package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lexiquest/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ProfileContextKey ContextKey = "profile_id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenManager
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenManager, limiter *security.RateLimiter) *Middleware {
	return &Middleware{tokens: tokens, limiter: limiter}
}

// RequireSession validates the bearer token and stores the profile id on the
// request context.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "missing session token", nil)
			return
		}

		profileID, err := m.tokens.Verify(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "invalid session token", err)
			return
		}

		ctx := context.WithValue(r.Context(), ProfileContextKey, profileID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects clients that exceed the per-IP budget. Used on the
// endpoints that mint sessions.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(clientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.S().Infow("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// ProfileID pulls the authenticated profile id off the request context.
func ProfileID(r *http.Request) string {
	id, _ := r.Context().Value(ProfileContextKey).(string)
	return id
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
