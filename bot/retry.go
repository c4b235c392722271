package bot

import (
	"context"
	"time"
)

// retry runs fn up to attempts times with a linearly increasing delay
// between attempts (attempt index times the base delay). The final
// attempt's error propagates unchanged.
func retry[T any](ctx context.Context, attempts int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var err error
	for i := 0; i < attempts; i++ {
		var v T
		v, err = fn()
		if err == nil {
			return v, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(baseDelay * time.Duration(i+1)):
		}
	}
	return zero, err
}
