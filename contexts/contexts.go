// Package contexts has typed helpers for the values the validation packages
// keep in a context.Context.
package contexts

import "context"

// EnsureContext returns the first non-nil context given, or
// context.Background() when there is none.
func EnsureContext(ctx ...context.Context) context.Context {
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// WithValue stores value under key. A nil ctx is replaced with
// context.Background().
func WithValue[K any, V any](ctx context.Context, key K, value V) context.Context {
	return context.WithValue(EnsureContext(ctx), key, value)
}

// GetValue returns the value stored under key when it has type V. It reports
// false for a nil ctx, a missing key or a value of another type.
func GetValue[K any, V any](ctx context.Context, key K) (V, bool) {
	var zero V

	if ctx == nil {
		return zero, false
	}

	v, ok := ctx.Value(key).(V)
	if !ok {
		return zero, false
	}

	return v, true
}

// GetValueOr is GetValue with a fallback for the not-found case.
func GetValueOr[K any, V any](ctx context.Context, key K, fallback V) V {
	if v, ok := GetValue[K, V](ctx, key); ok {
		return v
	}

	return fallback
}
