package middleware

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"rosrpc/message"
)

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
//
// Each service type named in the context gets its own bucket of r tokens per
// second with the given burst, so a busy service cannot starve the others.
func RateLimitMiddleware(r float64, burst int) Middleware {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(service string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[service]
		if !ok {
			l = rate.NewLimiter(rate.Limit(r), burst)
			limiters[service] = l
		}
		return l
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) (*message.Message, error) {
			service := ServiceFrom(ctx)
			if !limiterFor(service).Allow() {
				if service == "" {
					return nil, ErrRateLimited
				}
				return nil, fmt.Errorf("%w: %s", ErrRateLimited, service)
			}
			return next(ctx, req)
		}
	}
}
