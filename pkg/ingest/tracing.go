package ingest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTracerName is used when no tracer is configured.
const defaultTracerName = "github.com/vango-dev/formstore/pkg/ingest"

func defaultTracer() trace.Tracer {
	return otel.Tracer(defaultTracerName)
}

func (p *Pipeline) startRequestSpan(ctx context.Context, id string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "ingest.request",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("ingest.request_id", id)),
	)
}

func endRequestSpan(span trace.Span, out *RequestOutcome, err error) {
	span.SetAttributes(
		attribute.Int("ingest.parts", len(out.Parts)),
		attribute.Int("ingest.stored", len(out.Stored())),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (p *Pipeline) startPartSpan(ctx context.Context, part *Part, index int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "ingest.part",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("ingest.part_index", index),
			attribute.String("ingest.field", part.Field),
			attribute.String("ingest.content_type", part.ContentType),
		),
	)
}

func endPartSpan(span trace.Span, po PartOutcome) {
	span.SetAttributes(
		attribute.String("ingest.status", string(po.Status)),
		attribute.Int64("ingest.bytes", po.Size),
	)
	if po.Reason != ReasonNone {
		span.SetAttributes(attribute.String("ingest.reason", string(po.Reason)))
	}
	if po.Status == StatusAborted {
		span.SetStatus(codes.Error, string(po.Reason))
	}
	span.End()
}
