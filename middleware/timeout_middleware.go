package middleware

import (
	"context"
	"fmt"
	"time"

	"rosrpc/message"
)

type result struct {
	resp *message.Message
	err  error
}

// TimeOutMiddleware bounds each call to timeout. The handler keeps running
// on its own goroutine after the deadline; its late result is dropped.
// A caller that cancels its own context gets that context's error back
// rather than ErrTimeout.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, req *message.Message) (*message.Message, error) {
			parent := ctx
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan result, 1)
			go func() {
				resp, err := next(ctx, req)
				done <- result{resp, err}
			}()

			select {
			case r := <-done:
				return r.resp, r.err
			case <-ctx.Done():
				if err := parent.Err(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
			}
		}
	}
}
