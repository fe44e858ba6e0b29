package handlers

import (
	"net/http"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/services"
	"github.com/upb/observability-demo-api/utils"
)

// UnexpectedErrorMessage is the only message clients see for unexpected errors.
const UnexpectedErrorMessage = "An unexpected error occurred"

// HandleServiceError maps domain errors to HTTP responses. It is the only
// place that turns errors into status codes.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	errType := services.GetErrorType(err)
	message := services.GetErrorMessage(err)

	var (
		status int
		level  = zapcore.WarnLevel
	)
	switch errType {
	case services.ErrorTypeInvalidTenant:
		status = http.StatusBadRequest
		level = zapcore.ErrorLevel
	case services.ErrorTypeValidation, services.ErrorTypeRequest:
		status = http.StatusBadRequest
	case services.ErrorTypeNotFound:
		status = http.StatusNotFound
	default:
		// Unexpected or unknown error: the cause is logged, never returned.
		errType = services.ErrorTypeUnexpected
		status = http.StatusInternalServerError
		level = zapcore.ErrorLevel
		message = UnexpectedErrorMessage
	}

	if span := opentracing.SpanFromContext(r.Context()); span != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.type", string(errType))
		span.SetTag("error.message", err.Error())
		ext.HTTPStatusCode.Set(span, uint16(status))
	}

	severity := "warning"
	if level == zapcore.ErrorLevel {
		severity = "error"
	}
	if ce := observability.WithRequest(r.Context(), logger).Check(level, "request failed"); ce != nil {
		ce.Write(
			zap.String("error_type", string(errType)),
			zap.String("severity", severity),
			zap.Int("status_code", status),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	if werr := utils.WriteError(w, status, string(errType), message); werr != nil {
		logger.Error("failed to write error response", zap.Error(werr))
	}
}

// HandleRequestError reports a malformed request (bad JSON, schema tag
// failure, bad path parameter) as request_error.
func HandleRequestError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	HandleServiceError(w, r, services.NewRequestError(err.Error(), err), logger)
}
