package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusTeapot, map[string]int{"answer": 42})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body["answer"])
}

func TestWriteErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorMessage(rec, http.StatusBadRequest, "nope")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "nope", body["error"])
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "x") }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "x") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { WriteNotFoundError(w, "x") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter) { WriteConflict(w, "x") }, http.StatusConflict},
		{"too many requests", func(w http.ResponseWriter) { WriteTooManyRequests(w, "x") }, http.StatusTooManyRequests},
		{"validation", func(w http.ResponseWriter) { WriteValidationError(w, "x") }, http.StatusBadRequest},
		{"no content", WriteNoContent, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestWriteSuccessMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteSuccessMessage(rec, "done", map[string]string{"k": "v"}))

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "done", body.Message)
}
