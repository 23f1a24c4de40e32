package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
)

func renderError(t *testing.T, env string, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Set(middleware.CtxRequestID, "req-123")

	handler.NewHTTPErrorHandler(env)(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandler_TaggedError(t *testing.T) {
	code, body := renderError(t, "prod", apperr.New(apperr.Forbidden, "not a member of this workspace"))

	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "not a member of this workspace", body["error"])
	assert.Equal(t, float64(http.StatusForbidden), body["status"])
	assert.Equal(t, "req-123", body["request_id"])
	assert.NotContains(t, body, "detail")
}

func TestErrorHandler_WrappedTaggedError(t *testing.T) {
	inner := apperr.New(apperr.NotFound, "todo not found")
	code, body := renderError(t, "prod", errors.Join(errors.New("handler: load"), inner))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "todo not found", body["error"])
}

// Untagged errors must not leak internals in production responses.
func TestErrorHandler_UntaggedErrorInProd(t *testing.T) {
	code, body := renderError(t, "prod", errors.New("dial tcp 10.0.0.5:3306: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body, "detail")
}

func TestErrorHandler_UntaggedErrorInDevCarriesDetail(t *testing.T) {
	code, body := renderError(t, "dev", errors.New("dial tcp 10.0.0.5:3306: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["detail"], "connection refused")
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	code, body := renderError(t, "prod", echo.NewHTTPError(http.StatusNotFound, "Not Found"))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", body["error"])
}
