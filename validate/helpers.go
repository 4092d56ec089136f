package validate

import "context"

// Func wraps a validation function into a type that implements the HasValidate interface.
// This is useful when validation logic lives in a closure, e.g. a cross-field check that
// should run as part of a larger pass:
//
//	checks := []any{
//	    request,
//	    validate.Func(func() error {
//	        if request.Start.After(request.End) {
//	            return &validate.FieldError{Field: "End", Message: "must not be before Start"}
//	        }
//	        return nil
//	    }),
//	}
//
// If the provided function is nil, Validate() returns nil.
func Func(f func() error) HasValidate {
	return &validateFunc{
		validate: f,
	}
}

// FuncWithContext is the context-aware counterpart of Func.
func FuncWithContext(f func(ctx context.Context) error) HasValidateWithContext {
	return &validateFuncWithContext{
		validate: f,
	}
}

type validateFunc struct {
	validate func() error
}

var _ HasValidate = (*validateFunc)(nil)

func (v *validateFunc) Validate() error {
	if v.validate != nil {
		return v.validate()
	}

	return nil
}

type validateFuncWithContext struct {
	validate func(ctx context.Context) error
}

var _ HasValidateWithContext = (*validateFuncWithContext)(nil)

func (v *validateFuncWithContext) Validate(ctx context.Context) error {
	if v.validate != nil {
		return v.validate(ctx)
	}

	return nil
}
