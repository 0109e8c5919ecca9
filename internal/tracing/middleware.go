package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware wraps next so that every request runs inside a server span.
// requestID extracts the request ID set by earlier middleware; it may be nil.
// A nil tracer returns next unchanged.
func HTTPMiddleware(tracer trace.Tracer, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	if tracer == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), SpanPrefixHTTP+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String(AttrHTTPMethod, r.Method)),
			)
			defer span.End()

			if requestID != nil {
				if id := requestID(r); id != "" {
					span.SetAttributes(attribute.String(AttrHTTPRequestID, id))
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			// The route pattern is only known after the mux matched it.
			if r.Pattern != "" {
				span.SetName(SpanPrefixHTTP + r.Pattern)
				span.SetAttributes(attribute.String(AttrHTTPRoute, r.Pattern))
			}
			span.SetAttributes(attribute.Int(AttrHTTPStatus, rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}
