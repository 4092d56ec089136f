package validate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/amp-labs/amp-validation/validate"
	spanName   = "validate"
)

func startSpan(ctx context.Context, prefix string, model any) (context.Context, trace.Span) { //nolint:ireturn
	tracer, ok := TracerFromContext(ctx)
	if !ok {
		tracer = otel.Tracer(tracerName)
	}

	return tracer.Start(ctx, spanName, //nolint:spancheck
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("validation.model_type", fmt.Sprintf("%T", model)),
			attribute.String("validation.prefix", prefix),
		))
}

func endSpan(span trace.Span, valid bool, errCount int, err error) {
	defer span.End()

	span.SetAttributes(attribute.Int("validation.error_count", errCount))

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !valid:
		span.SetStatus(codes.Error, "model is invalid")
	default:
		span.SetStatus(codes.Ok, "ok")
	}
}
