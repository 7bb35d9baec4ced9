package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bissquit/incident-tracker/api/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeResponse(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenAPIValidator_Check(t *testing.T) {
	v := NewOpenAPIValidator(t, openapi.Spec)

	list, err := http.NewRequest(http.MethodGet, "http://localhost/api/incidents", nil)
	require.NoError(t, err)

	t.Run("conforming list", func(t *testing.T) {
		resp := fakeResponse(http.StatusOK, "application/json", `{"incidents":[
			{"id":1,"description":"db down","status":"new","source":"monitoring","created_at":"2024-05-01T12:00:00Z"}
		]}`)

		require.NoError(t, v.Check(list, resp))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "db down")
	})

	t.Run("unknown status value", func(t *testing.T) {
		resp := fakeResponse(http.StatusOK, "application/json", `{"incidents":[
			{"id":1,"description":"db down","status":"open","source":"monitoring","created_at":"2024-05-01T12:00:00Z"}
		]}`)

		assert.Error(t, v.Check(list, resp))
	})

	t.Run("null list", func(t *testing.T) {
		resp := fakeResponse(http.StatusOK, "application/json", `{"incidents":null}`)

		assert.Error(t, v.Check(list, resp))
	})

	t.Run("error envelope", func(t *testing.T) {
		resp := fakeResponse(http.StatusUnauthorized, "application/json",
			`{"error":{"code":401,"message":"API key not found","status":"UNAUTHENTICATED"}}`)

		assert.NoError(t, v.Check(list, resp))
	})

	t.Run("plain text is skipped", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "http://localhost/healthz", nil)
		require.NoError(t, err)

		assert.NoError(t, v.Check(req, fakeResponse(http.StatusOK, "text/plain; charset=utf-8", "OK")))
	})
}

func TestLoadOpenAPIValidator_RejectsGarbage(t *testing.T) {
	_, err := LoadOpenAPIValidator([]byte("not: [valid"))
	assert.Error(t, err)
}
