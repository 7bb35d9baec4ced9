package httputil

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bissquit/incident-tracker/internal/pkg/ctxlog"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, accessLevel("/api/incidents", http.StatusCreated))
	assert.Equal(t, slog.LevelInfo, accessLevel("/api/incidents", http.StatusNotFound))
	assert.Equal(t, slog.LevelWarn, accessLevel("/api/incidents", http.StatusInternalServerError))
	assert.Equal(t, slog.LevelDebug, accessLevel("/healthz", http.StatusOK))
	assert.Equal(t, slog.LevelWarn, accessLevel("/readyz", http.StatusServiceUnavailable))
}

func TestRequestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := middleware.RequestID(RequestLoggerMiddleware(base)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxlog.FromContext(r.Context()).Info("inside handler")
			w.WriteHeader(http.StatusAccepted)
		}),
	))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/incidents", nil))

	out := buf.String()
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, out, "msg=\"inside handler\" request_id=")
	assert.Contains(t, out, "msg=\"http request\"")
	assert.Contains(t, out, "status=202")
	assert.Contains(t, out, "path=/api/incidents")
}
