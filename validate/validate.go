// Package validate walks a model graph and records, per path expression, every
// problem found along the way.
//
// A pass visits the root model and then, guided by the model's metadata, every
// property, collection element and dictionary entry below it. At each value it
//   - applies the rules from the property's struct tag (go-playground/validator syntax),
//   - recurses with the traversal strategy for the value's type,
//   - calls the value's own Validate method (HasValidate or HasValidateWithContext).
//
// Problems are recorded in a modelstate.Dictionary under keys such as
// "Orders[1].Lines[0].Qty", so callers can report them next to the input that
// caused them.
//
// The package-level Validate keeps the simple "validate this value" entry point:
//
//	if err := validate.Validate(ctx, req); err != nil {
//	    // errors.Is(err, errors.ErrValidation) for invalid input
//	}
package validate

import (
	"context"
	"fmt"
	"sync"

	"github.com/amp-labs/amp-validation/contexts"
	amperrors "github.com/amp-labs/amp-validation/errors"
	"github.com/amp-labs/amp-validation/modelstate"
)

// HasValidate defines the interface for types that can validate themselves without requiring a context.
// Types implementing this interface should return an error if validation fails, or nil if the value is valid.
type HasValidate interface {
	// Validate checks the validity of the implementing type and returns an error if validation fails.
	// This method should be idempotent and safe to call multiple times.
	Validate() error
}

// HasValidateWithContext defines the interface for types that require a context during validation.
// This interface is useful when validation needs to access external resources, respect cancellation,
// or requires deadline/timeout handling.
type HasValidateWithContext interface {
	// Validate checks the validity of the implementing type using the provided context and returns an error
	// if validation fails. The method should respect context cancellation and return promptly if
	// ctx.Done() is signaled.
	Validate(ctx context.Context) error
}

// FieldError is returned from a Validate method to blame one property instead
// of the whole value. It is recorded under the property's key; several can be
// returned at once with errors.Join.
//
//	func (r Range) Validate() error {
//	    if r.Min > r.Max {
//	        return &validate.FieldError{Field: "Max", Message: "must not be less than Min"}
//	    }
//	    return nil
//	}
type FieldError struct {
	Field   string
	Message string
}

// Error renders "Field: Message".
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var defaultValidator = sync.OnceValue(func() *Validator { //nolint:gochecknoglobals
	return New()
})

// Validate runs a validation pass over value with the default options.
//
// Returns:
//   - nil if nothing in the model graph is invalid
//   - an error wrapping errors.ErrValidation listing every invalid key, or the joined
//     recorded errors when the context carries WithWrappedError(ctx, false)
//   - the context error when ctx is done, and errors.ErrMaxDepthExceeded or
//     errors.ErrNotEnumerable when the model graph cannot be walked
//
// Example:
//
//	type Config struct {
//	    Port int `validate:"min=1,max=65535"`
//	}
//
//	if err := validate.Validate(ctx, Config{Port: -1}); err != nil {
//	    // validation failed: Port: failed the 'min=1' rule
//	    log.Fatal(err)
//	}
func Validate(ctx context.Context, value any) error {
	ctx = contexts.EnsureContext(ctx)

	state, err := defaultValidator().Validate(ctx, value)
	if err != nil {
		return err
	}

	if !wantWrappedErrors(ctx) {
		return recordedErrors(state)
	}

	return state.Err()
}

func recordedErrors(state *modelstate.Dictionary) error {
	var errs amperrors.Collection

	for _, entry := range state.FindKeysWithPrefix("") {
		for _, e := range entry.Errors {
			errs.Add(e)
		}
	}

	return errs.GetError()
}

// splitErrors flattens an errors.Join tree.
func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}

		return out
	}

	return []error{err}
}
