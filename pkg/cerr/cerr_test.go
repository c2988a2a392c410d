package cerr

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/an4xdev/SprintForge/pkg/storage"
)

func TestErrorFormattingAndUnwrap(t *testing.T) {
	cause := errors.New("driver: connection reset")
	err := NewError(Internal, "server error", cause)

	assert.Equal(t, "[internal] server error: driver: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.Stack, "error-level codes capture a stack")

	plain := NewError(NotFound, "task not found", nil)
	assert.Equal(t, "[not_found] task not found", plain.Error())
	assert.Empty(t, plain.Stack)
}

func TestIsCodeAndCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(PermissionDenied, "not a manager", nil))
	assert.True(t, IsCode(err, PermissionDenied))
	assert.False(t, IsCode(err, NotFound))
	assert.Equal(t, PermissionDenied, CodeOf(err))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, OK, CodeOf(nil))
}

func TestHTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound.HTTPCode())
	assert.Equal(t, http.StatusForbidden, PermissionDenied.HTTPCode())
	assert.Equal(t, http.StatusBadRequest, InvalidArgument.HTTPCode())
	assert.Equal(t, http.StatusInternalServerError, Internal.HTTPCode())
	assert.Equal(t, http.StatusServiceUnavailable, Unavailable.HTTPCode())
	assert.Equal(t, http.StatusConflict, Aborted.HTTPCode())
}

func TestWrapSQLReadError(t *testing.T) {
	assert.True(t, IsCode(WrapSQLReadError("task", sql.ErrNoRows), NotFound))
	assert.True(t, IsCode(WrapSQLReadError("task", errors.New("boom")), Internal))
	assert.True(t, IsCode(WrapStorageReadError("spool", storage.ErrNotFound), NotFound))
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewJSONResponseChiMiddleware()(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestMiddlewareWritesEnvelope(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		SetJSONResponse(r.Context(), http.StatusCreated, "Sprint created", map[string]string{"id": "s1"})
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body struct {
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Sprint created", body.Message)
	assert.Equal(t, "s1", body.Data["id"])
}

func TestMiddlewareWritesError(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		SetNewJSONError(r.Context(), NotFound, "task not found", nil)
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"not_found","message":"task not found"}`, rec.Body.String())
}

func TestMiddlewareHidesUnknownErrors(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		SetJSONError(r.Context(), errors.New("pq: relation does not exist"))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"unknown","message":"unknown error"}`, rec.Body.String())
}

func TestMiddlewareNoContentAndCanceled(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, r *http.Request) {
		SetNoContent(r.Context())
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(func(w http.ResponseWriter, r *http.Request) {
		SetJSONError(r.Context(), context.Canceled)
	})
	assert.Equal(t, 499, rec.Code)
}
