package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span attribute keys.
const (
	AttrModelType   = "model.type"
	AttrVersionName = "model.version"
	AttrArtifactKey = "artifact.key"
	AttrResult      = "registry.result"
	AttrCount       = "registry.count"
	AttrOrphans     = "registry.orphans"
	AttrDryRun      = "registry.dry_run"
	AttrStage       = "registry.stage"

	AttrHTTPMethod    = "http.request.method"
	AttrHTTPRoute     = "http.route"
	AttrHTTPStatus    = "http.response.status_code"
	AttrHTTPRequestID = "http.request.id"
)

// Span names for registry operations.
const (
	SpanPrefixRegistry = "registry."
	SpanPrefixHTTP     = "http."

	SpanRegister       = SpanPrefixRegistry + "register"
	SpanListVersions   = SpanPrefixRegistry + "list_versions"
	SpanLatestVersion  = SpanPrefixRegistry + "latest_version"
	SpanLoad           = SpanPrefixRegistry + "load"
	SpanVersionDetails = SpanPrefixRegistry + "version_details"
	SpanPrune          = SpanPrefixRegistry + "prune"
)

// Event names.
const (
	EventRowInserted      = "row.inserted"
	EventArtifactWritten  = "artifact.written"
	EventArtifactRemoved  = "artifact.removed"
	EventCacheHit         = "cache.hit"
	EventVersionPruned    = "version.pruned"
	EventOrphanRemoved    = "artifact.orphan_removed"
	EventRollbackArtifact = "artifact.rollback"
)

// Results recorded under AttrResult.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultFailed   = "failed"
)

// Start begins an internal span. A nil tracer yields a no-op span.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// Finish records the outcome and ends the span.
// A non-nil err marks the span failed; otherwise result is recorded as is.
func Finish(span trace.Span, result string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrResult, ResultFailed))
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.String(AttrResult, result))
	}
	span.End()
}
