package fetch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const scopeName = "github.com/kayrahq/fetchkit/fetch"

// instruments holds the optional OTel tracer and meters for one Fetcher.
// Both sides degrade to no-ops when disabled.
type instruments struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(tracing, metrics bool) *instruments {
	inst := &instruments{tracer: noop.NewTracerProvider().Tracer(scopeName)}
	if tracing {
		inst.tracer = otel.Tracer(scopeName)
	}
	if metrics {
		meter := otel.Meter(scopeName)
		var err error
		if inst.requests, err = meter.Int64Counter("fetch.requests",
			metric.WithDescription("Completed fetch calls")); err != nil {
			otel.Handle(err)
		}
		if inst.failures, err = meter.Int64Counter("fetch.failures",
			metric.WithDescription("Failed fetch calls")); err != nil {
			otel.Handle(err)
		}
		if inst.duration, err = meter.Float64Histogram("fetch.duration",
			metric.WithDescription("Fetch call duration"),
			metric.WithUnit("ms")); err != nil {
			otel.Handle(err)
		}
	}
	return inst
}

// start opens a span for one call.
func (in *instruments) start(ctx context.Context, method, url string) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "fetch "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", url),
		))
}

// finish records the outcome of one call on the span and meters.
func (in *instruments) finish(ctx context.Context, span trace.Span, method string, started time.Time, status int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.Int("http.response.status_code", status),
	)
	if in.requests != nil {
		in.requests.Add(ctx, 1, attrs)
	}
	if in.duration != nil {
		in.duration.Record(ctx, float64(time.Since(started))/float64(time.Millisecond), attrs)
	}
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		if in.failures != nil {
			in.failures.Add(ctx, 1, attrs)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
