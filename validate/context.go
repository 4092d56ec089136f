package validate

import (
	"context"

	"github.com/amp-labs/amp-validation/contexts"
	"go.opentelemetry.io/otel/trace"
)

// contextKey is a custom type for context keys used within this package.
type contextKey string

const (
	// wantProblemErrorsKey is the context key for storing the problem errors preference.
	// When this flag is set to true via WithWantProblemErrors, validation errors should be
	// formatted as RFC-7807/RFC-9457 Problem Details instead of plain errors.
	wantProblemErrorsKey contextKey = "wantProblemErrors"

	// wantWrappedErrorsKey is the context key for storing the wrapped errors preference.
	// When true (the default), the package-level Validate returns a single error wrapping
	// errors.ErrValidation that lists every key. When false the recorded errors are returned
	// joined, without the summary.
	wantWrappedErrorsKey contextKey = "wantWrappedErrors"

	// tracerKey is the context key for the tracer used for validation spans.
	tracerKey contextKey = "tracer"
)

// WithWantProblemErrors returns a new context with the problem errors preference set.
// This configuration flag controls whether validation errors should be formatted as
// RFC-7807/RFC-9457 Problem Details for HTTP responses.
//
// The flag is typically set at the HTTP handler level and flows down through the call stack
// via context propagation, so that Validate(ctx) implementations can stay agnostic of the
// transport layer while still producing appropriate error formats for the caller.
//
// Example:
//
//	func (r CreateUserRequest) Validate(ctx context.Context) error {
//	    if r.Email == "" {
//	        if validate.WantProblemErrors(ctx) {
//	            return problem.BadRequest(ctx, problem.Detail("email is required"))
//	        }
//	        return &validate.FieldError{Field: "Email", Message: "is required"}
//	    }
//	    return nil
//	}
func WithWantProblemErrors(ctx context.Context, wantProblemErrors bool) context.Context {
	return contexts.WithValue(ctx, wantProblemErrorsKey, wantProblemErrors)
}

// WantProblemErrors retrieves the problem errors preference from the context.
// It returns false when the preference was never set.
func WantProblemErrors(ctx context.Context) bool {
	return contexts.GetValueOr(ctx, wantProblemErrorsKey, false)
}

// WithWrappedError returns a new context with the wrapped errors preference set.
//
// When wantWrapped is true (the default if not explicitly set), the package-level Validate
// returns one error wrapping errors.ErrValidation whose message lists every invalid key.
//
// When wantWrapped is false, the errors recorded during the pass are returned joined with
// errors.Join and without the summary, which keeps messages short when the caller reports
// them individually.
func WithWrappedError(ctx context.Context, wantWrapped bool) context.Context {
	return contexts.WithValue(ctx, wantWrappedErrorsKey, wantWrapped)
}

func wantWrappedErrors(ctx context.Context) bool {
	return contexts.GetValueOr(ctx, wantWrappedErrorsKey, true)
}

// WithTracer stores the OpenTelemetry tracer used for validation spans. Without
// one the globally registered tracer provider is used.
//
// Example:
//
//	ctx = validate.WithTracer(ctx, otel.Tracer("my-service"))
func WithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	return contexts.WithValue(ctx, tracerKey, tracer)
}

// TracerFromContext returns the tracer stored with WithTracer, if any.
func TracerFromContext(ctx context.Context) (trace.Tracer, bool) {
	tracer, ok := contexts.GetValue[contextKey, trace.Tracer](ctx, tracerKey)

	return tracer, ok && tracer != nil
}
