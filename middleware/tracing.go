package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"

	"github.com/upb/observability-demo-api/internal/shared"
)

// Tracing starts a server span per request, continuing the caller's trace
// when the request carries propagation headers. The span is renamed to the
// matched route pattern once routing is done.
func Tracing(tracer opentracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			opts := []opentracing.StartSpanOption{ext.SpanKindRPCServer}
			parent, err := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(r.Header))
			if err == nil {
				opts = append(opts, opentracing.ChildOf(parent))
			}

			span := tracer.StartSpan("HTTP "+r.Method, opts...)
			defer span.Finish()
			if err != nil && err != opentracing.ErrSpanContextNotFound {
				span.LogFields(otlog.String("trace-extract-error", err.Error()))
			}

			ext.HTTPMethod.Set(span, r.Method)
			ext.HTTPUrl.Set(span, r.URL.Path)
			if id := shared.RequestID(r.Context()); id != "" {
				span.SetTag("request.id", id)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(opentracing.ContextWithSpan(r.Context(), span)))

			if pattern := routePattern(r); pattern != "" {
				span.SetOperationName(r.Method + " " + pattern)
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ext.HTTPStatusCode.Set(span, uint16(status))
			if status >= http.StatusInternalServerError {
				ext.Error.Set(span, true)
			}
		})
	}
}

// routePattern returns the chi route that served r, or "" when none matched.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	pattern := rctx.RoutePattern()
	if pattern == "" && len(rctx.RoutePatterns) > 0 {
		// chi trims the trailing slash, which empties the root route.
		return "/"
	}
	return pattern
}
