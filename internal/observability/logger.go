package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upb/observability-demo-api/config"
	"github.com/upb/observability-demo-api/internal/shared"
)

// TimestampLayout renders log timestamps as UTC ISO-8601 with a trailing Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Every entry carries the service and env root fields.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return newLogger(cfg, zapcore.Lock(os.Stdout))
}

func newLogger(cfg *config.Config, ws zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Observability.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Observability.LogLevel, err)
	}

	var encoder zapcore.Encoder
	switch cfg.Observability.LogFormat {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	case "logfmt":
		encoder = zaplogfmt.NewEncoder(encoderConfig())
	case "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = utcTimeEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Observability.LogFormat)
	}

	core := zapcore.NewCore(encoder, ws, level)
	logger := zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))).With(
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Environment),
		zap.String("version", cfg.Version),
	)
	return logger, nil
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = utcTimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return ec
}

func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(TimestampLayout))
}

// WithRequest decorates logger with the correlation fields found in ctx:
// request_id, tenant_id, and trace_id/span_id of the active span.
func WithRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 4)
	if id := shared.RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if tenantID := shared.TenantID(ctx); tenantID != "" {
		fields = append(fields, zap.String("tenant_id", tenantID))
	}
	if span := opentracing.SpanFromContext(ctx); span != nil {
		if traceID, spanID, ok := SpanIDs(span); ok {
			fields = append(fields, zap.String("trace_id", traceID), zap.String("span_id", spanID))
		}
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
