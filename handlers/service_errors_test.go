package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/upb/observability-demo-api/services"
	"github.com/upb/observability-demo-api/utils"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedType    string
		expectedMessage string
		expectedLevel   zapcore.Level
	}{
		{
			name:            "invalid tenant",
			err:             services.NewInvalidTenantError("Invalid tenant ID: x. Valid tenants: a"),
			expectedStatus:  http.StatusBadRequest,
			expectedType:    "invalid_tenant",
			expectedMessage: "Invalid tenant ID: x. Valid tenants: a",
			expectedLevel:   zapcore.ErrorLevel,
		},
		{
			name:            "validation error",
			err:             services.NewValidationError("Item name cannot be empty"),
			expectedStatus:  http.StatusBadRequest,
			expectedType:    "validation_error",
			expectedMessage: "Item name cannot be empty",
			expectedLevel:   zapcore.WarnLevel,
		},
		{
			name:            "request error",
			err:             services.NewRequestError("malformed JSON", nil),
			expectedStatus:  http.StatusBadRequest,
			expectedType:    "request_error",
			expectedMessage: "malformed JSON",
			expectedLevel:   zapcore.WarnLevel,
		},
		{
			name:            "not found",
			err:             services.NewNotFoundError("Item 9 not found for tenant a"),
			expectedStatus:  http.StatusNotFound,
			expectedType:    "item_not_found",
			expectedMessage: "Item 9 not found for tenant a",
			expectedLevel:   zapcore.WarnLevel,
		},
		{
			name:            "unexpected error hides its cause",
			err:             services.WrapUnexpected("failed to list items", errors.New("pq: connection refused")),
			expectedStatus:  http.StatusInternalServerError,
			expectedType:    "unexpected_error",
			expectedMessage: UnexpectedErrorMessage,
			expectedLevel:   zapcore.ErrorLevel,
		},
		{
			name:            "plain error is unexpected",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedType:    "unexpected_error",
			expectedMessage: UnexpectedErrorMessage,
			expectedLevel:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			req := httptest.NewRequest(http.MethodGet, "/tenant-a/items", nil)
			w := httptest.NewRecorder()

			HandleServiceError(w, req, tt.err, zap.New(core))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, "error", response.Status)
			assert.Equal(t, tt.expectedType, response.ErrorType)
			assert.Equal(t, tt.expectedMessage, response.Message)
			assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}Z$`, response.Timestamp)

			entries := logs.FilterMessage("request failed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.expectedLevel, entries[0].Level)
			assert.Equal(t, tt.expectedType, entries[0].ContextMap()["error_type"])
		})
	}
}

func TestHandleServiceError_NilIsNoop(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestHandleServiceError_TagsSpan(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("GET /{tenant_id}/items/{id}")

	req := httptest.NewRequest(http.MethodGet, "/tenant-a/items/9", nil)
	req = req.WithContext(opentracing.ContextWithSpan(req.Context(), span))
	w := httptest.NewRecorder()

	HandleServiceError(w, req, services.NewNotFoundError("Item 9 not found for tenant tenant-a"), zap.NewNop())
	span.Finish()

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 1)
	tags := finished[0].Tags()
	assert.Equal(t, true, tags["error"])
	assert.Equal(t, "item_not_found", tags["error.type"])
	assert.Equal(t, uint16(http.StatusNotFound), tags["http.status_code"])
}

func TestHandleRequestError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tenant-a/items", nil)

	HandleRequestError(w, req, errors.New("invalid character 'x' looking for beginning of value"), zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "request_error", response.ErrorType)
	assert.Contains(t, response.Message, "invalid character")
}
