package httputil

import (
	"context"
	"crypto/subtle"
	"net/http"
	"runtime/debug"

	"github.com/bissquit/incident-tracker/internal/pkg/ctxlog"
	"golang.org/x/crypto/blake2b"
)

// APIKeyHeader is the request header carrying the shared secret.
const APIKeyHeader = "X-Api-Key"

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (originsSet[origin] || originsSet["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			// Preflight requests never carry the API key, so they stop here.
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+APIKeyHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// APIKeyKey is the context key for the validated API key.
const APIKeyKey contextKey = "api_key"

// APIKeyMiddleware rejects requests without the configured shared secret.
// A missing or empty header yields 401, any other mismatch yields 403.
func APIKeyMiddleware(secret string) func(http.Handler) http.Handler {
	expected := blake2b.Sum256([]byte(secret))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				Error(w, http.StatusUnauthorized, "API key not found")
				return
			}

			// Digests have equal length, so the comparison time does not
			// depend on the length of the supplied key.
			got := blake2b.Sum256([]byte(key))
			if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
				ctxlog.FromContext(r.Context()).Debug("rejected api key", "path", r.URL.Path)
				Error(w, http.StatusForbidden, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), APIKeyKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromContext returns the API key validated by APIKeyMiddleware.
func APIKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(APIKeyKey).(string); ok {
		return key
	}
	return ""
}

// RecoverMiddleware turns handler panics into the standard 500 response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			ctxlog.FromContext(r.Context()).Error("panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			InternalError(w)
		}()

		next.ServeHTTP(w, r)
	})
}
