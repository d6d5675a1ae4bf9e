// Package apptrace carries an otel trace.Tracer through context.Context, grounded on
// midaz's common/context.go NewTracerFromContext/ContextWithTracer pair.
package apptrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type tracerContextKey struct{}

func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	return context.WithValue(ctx, tracerContextKey{}, tracer)
}

func FromContext(ctx context.Context) trace.Tracer {
	if t, ok := ctx.Value(tracerContextKey{}).(trace.Tracer); ok && t != nil {
		return t
	}

	return otel.Tracer("icewright")
}

// RecordError marks span as errored and attaches err, mirroring midaz's
// mopentelemetry.HandleSpanError.
func RecordError(span trace.Span, description string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, description+": "+err.Error())
}
