package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	notFound := NewNotFoundError(CodeNotFound, "Character not found")
	assert.Same(t, notFound, FromError(notFound))
	assert.Same(t, notFound, FromError(fmt.Errorf("wrapped: %w", notFound)))

	cause := stderrors.New("dial tcp 10.0.0.5:5432: connection refused")
	appErr := FromError(cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, MessageServerError, appErr.Message)
	assert.ErrorIs(t, appErr, cause)

	assert.Nil(t, FromError(nil))
}

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(), RecoveryWithLogger())
	r.GET("/", handler)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func TestErrorHandler_RendersEnvelope(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(BadRequestWithDetails(CodeValidationFailed, MessageValidationFail, []string{"a", "b"}))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, CodeValidationFailed, body["code"])
	assert.Equal(t, []any{"a", "b"}, body["details"])
}

func TestErrorHandler_HidesInternalDetail(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(stderrors.New("pq: password authentication failed for user \"catalog\""))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	body := decode(t, w)
	assert.Equal(t, CodeServerError, body["code"])
	assert.Equal(t, MessageServerError, body["message"])
}

func TestRecoveryWithLogger(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Equal(t, CodeServerError, decode(t, w)["code"])
}
