// Package errors holds the sentinel errors shared by the validation packages,
// plus a small accumulator for collecting several failures into one error.
package errors

import "errors"

var (
	// ErrNotImplemented is returned by extension points that have no behavior yet.
	ErrNotImplemented = errors.New("not implemented")

	// ErrWrongType is returned when a value has a different type than the
	// operation needs, such as a binding target that is not a pointer.
	ErrWrongType = errors.New("wrong type")

	// ErrValidation marks a model that failed validation. Callers test for it
	// with errors.Is regardless of how many keyed errors were recorded.
	ErrValidation = errors.New("validation failed")

	// ErrNotEnumerable is returned by a strategy that was handed a model it
	// cannot enumerate. It signals a caller bug, not bad input.
	ErrNotEnumerable = errors.New("model is not enumerable")

	// ErrUnsupportedModel is returned when a model does not have the shape its
	// metadata promised (e.g. a struct strategy given a string).
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrMaxDepthExceeded is returned when a validation pass recurses deeper
	// than the configured maximum depth.
	ErrMaxDepthExceeded = errors.New("maximum validation depth exceeded")

	// ErrTooManyModelErrors is recorded once a model state dictionary reaches
	// its error cap.
	ErrTooManyModelErrors = errors.New("maximum number of model errors reached")

	// ErrInvalidModelName is returned for a path expression that does not parse.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrPathNotFound is returned when a path expression names nothing in the model.
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidOptions is returned for validator options that fail Check.
	ErrInvalidOptions = errors.New("invalid options")
)

// Collection is a thread-unsafe utility for accumulating multiple errors.
// It provides methods to add errors, check for errors, and retrieve them as a single combined error.
// Use this when you need to collect errors from multiple operations and return them together.
type Collection struct {
	errors []error
}

// Add appends an error to the collection. Nil errors are automatically ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// Clear removes all errors from the collection, resetting it to an empty state.
func (c *Collection) Clear() {
	c.errors = nil
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collection) Len() int {
	return len(c.errors)
}

// Errors returns a copy of the collected errors, in the order they were added.
func (c *Collection) Errors() []error {
	if len(c.errors) == 0 {
		return nil
	}

	out := make([]error, len(c.errors))
	copy(out, c.errors)

	return out
}

// GetError returns the collected errors as a single error.
// Returns nil if the collection is empty, the single error if there's only one,
// or a joined error (using errors.Join) if there are multiple errors.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}
