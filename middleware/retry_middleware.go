package middleware

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rosrpc/message"
)

// Transient reports errors worth retrying: timeouts, rate limiting and any
// error that says it is temporary. Encoding, truncation and schema
// mismatches are permanent.
func Transient(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var temp interface{ Temporary() bool }
	return errors.As(err, &temp) && temp.Temporary()
}

// RetryMiddleware retries transient failures with exponential backoff,
// starting at baseDelay. It stops early when ctx is done.
func RetryMiddleware(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (*message.Message, error) {
			resp, err := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if err == nil || !Transient(err) {
					return resp, err
				}
				logger.Info("retry", zap.Int("attempt", i+1), zap.String("service", ServiceFrom(ctx)), zap.Error(err))
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)): // Exponential backoff
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				resp, err = next(ctx, req)
			}
			return resp, err
		}
	}
}
