package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "NOT_FOUND", `pokemon "missingno" not found`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Contains(t, body.Error, "not found")
}

func TestWriteJSONSetsCacheHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, []byte(`{"ok":true}`), `W/"abc"`, time.Minute, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=60")
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestWriteNotModified(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotModified(rec, `W/"abc"`)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.Empty(t, rec.Body.String())
}

func TestWriteAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAttachment(rec, "ditto_data.json", []byte(`{}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="ditto_data.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
