package circuitbreaker

import "context"

// CallWithResultTyped is a type-safe wrapper around Breaker.CallWithResult
// that removes the caller's type assertion on the returned value.
func CallWithResultTyped[T any](b Breaker, ctx context.Context, fn func() (T, error)) (T, error) {
	result, err := b.CallWithResult(ctx, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
