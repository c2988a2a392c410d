package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesAreScopedToContext(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "a", 1)
	AddAttributes(ctx, map[string]any{"b": "two", "nested": map[string]any{"x": 1}})
	AddAttributes(ctx, map[string]any{"nested": map[string]any{"y": 2}})

	attrs := GetAttributes(ctx)
	assert.Equal(t, 1, attrs["a"])
	assert.Equal(t, "two", attrs["b"])
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, attrs["nested"])

	// Without ContextWithSlog nothing is recorded.
	bare := context.Background()
	AddAttribute(bare, "a", 1)
	assert.Nil(t, GetAttributes(bare))
}

func TestGetErrorRoundTrip(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	want := errors.New("boom")
	AddError(ctx, want)
	assert.Equal(t, want, GetError(ctx))
	assert.Equal(t, 0, GetAttribute[int](ctx, "missing"))
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(http.StatusOK))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(http.StatusNotFound))
	assert.Equal(t, LevelError, HTTPStatusToLevel(http.StatusInternalServerError))
	assert.Equal(t, LevelError, HTTPStatusToLevel(0))
}

func TestSlogChiMiddlewareLogsRequest(t *testing.T) {
	var out bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewAttributesHandler(NewTextHandler(&out, WithColor(false)))))
	t.Cleanup(func() { slog.SetDefault(prev) })

	r := chi.NewRouter()
	r.Use(SlogChiMiddleware())
	r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		AddTaskID(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/abc", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	logged := out.String()
	assert.Contains(t, logged, "GET /tasks/{id} /tasks/abc 418 I'm a teapot")
	assert.Contains(t, logged, "task_id=abc")
}

func TestSlogChiMiddlewareFilter(t *testing.T) {
	var out bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewAttributesHandler(NewTextHandler(&out, WithColor(false)))))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := SlogChiMiddleware(WithChiFilter(func(r *http.Request) bool {
		return r.URL.Path != "/health"
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, out.String())
}
