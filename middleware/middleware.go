// Package middleware wraps service handlers with cross-cutting behaviour.
//
// Chain(A, B, C)(handler) builds A(B(C(handler))), so A runs first on the
// way in and last on the way out:
//
//	A.before -> B.before -> C.before -> handler -> C.after -> B.after -> A.after
//
// The same Middleware type wraps server handlers and the client's invoke
// step.
package middleware

import (
	"context"
	"errors"

	"rosrpc/message"
)

var (
	ErrTimeout     = errors.New("middleware: request timed out")
	ErrRateLimited = errors.New("middleware: rate limit exceeded")
)

type HandlerFunc func(ctx context.Context, req *message.Message) (*message.Message, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

type serviceKey struct{}

// WithService records the service type a request is addressed to.
func WithService(ctx context.Context, serviceType string) context.Context {
	return context.WithValue(ctx, serviceKey{}, serviceType)
}

// ServiceFrom returns the service type recorded by WithService.
func ServiceFrom(ctx context.Context) string {
	s, _ := ctx.Value(serviceKey{}).(string)
	return s
}
