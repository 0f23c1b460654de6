package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rosrpc/message"
)

// LoggingMiddleware logs every call with its service, request type and
// duration. Failed calls are logged at warn level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (*message.Message, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			fields := []zap.Field{
				zap.String("service", ServiceFrom(ctx)),
				zap.String("request", req.Schema().Name()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("call failed", append(fields, zap.Error(err))...)
				return resp, err
			}
			logger.Debug("call", fields...)
			return resp, nil
		}
	}
}
