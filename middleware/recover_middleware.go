package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rosrpc/message"
)

// PanicError is returned in place of a handler panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("middleware: handler panicked: %v", e.Value)
}

// RecoverMiddleware turns a panicking handler into a *PanicError.
func RecoverMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (resp *message.Message, err error) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panic", zap.String("service", ServiceFrom(ctx)), zap.Any("panic", v), zap.Stack("stack"))
					resp, err = nil, &PanicError{Value: v}
				}
			}()
			return next(ctx, req)
		}
	}
}
