// Package server dispatches service calls to registered handlers.
//
// Request processing pipeline:
//
//	Invoke(serviceType, token, bytes)
//	  → look up binding → Descriptor.Check(token)
//	    → Codec.Decode(request schema) → Middleware Chain → handler
//	      → response schema check → Codec.Encode → bytes
//
// The server owns no sockets. A transport accepts connections, agrees on
// the service token with its peer and hands each request to Invoke; Server
// also satisfies client.Invoker for in-process calls.
package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"rosrpc/codec"
	"rosrpc/config"
	"rosrpc/logging"
	"rosrpc/middleware"
	"rosrpc/registry"
	"rosrpc/schema"
	"rosrpc/service"
)

var (
	ErrUnknownService = errors.New("server: unknown service")
	ErrServerClosed   = errors.New("server: closed")
)

// Server holds service bindings and the middleware chain wrapped around
// their handlers.
type Server struct {
	mu          sync.RWMutex
	serviceMap  map[string]*binding     // Registered services: "robot_comms/ImageFilter" → *binding
	middlewares []middleware.Middleware // Registered middlewares (applied in order)
	chain       middleware.Middleware   // Built from middlewares on first use after a change
	registry    registry.Registry       // Descriptors are published here on Register
	codec       codec.Codec
	logger      *zap.Logger
	wg          sync.WaitGroup // Tracks in-flight requests for graceful shutdown
	closed      bool           // Guarded by mu; no wg.Add once set
}

type Option func(*Server)

// WithRegistry publishes registered descriptors to reg.
func WithRegistry(reg registry.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithCodec selects the request and response encoding. The default is the
// binary wire format.
func WithCodec(c codec.Codec) Option {
	return func(s *Server) { s.codec = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server with no services.
func NewServer(opts ...Option) *Server {
	s := &Server{
		serviceMap: make(map[string]*binding),
		registry:   registry.NewMemoryRegistry(),
		codec:      &codec.BinaryCodec{},
		logger:     logging.Logger().Named("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds a server using the codec and limits in cfg. Logging
// and panic recovery are always installed; the timeout and rate limit only
// when configured.
func FromConfig(cfg config.Config, reg registry.Registry) (*Server, error) {
	c, err := codec.FromConfig(cfg.Codec)
	if err != nil {
		return nil, err
	}
	s := NewServer(WithRegistry(reg), WithCodec(c))
	s.Use(middleware.LoggingMiddleware(s.logger))
	if cfg.Server.Rate > 0 {
		s.Use(middleware.RateLimitMiddleware(cfg.Server.Rate, cfg.Server.Burst))
	}
	if cfg.Server.Timeout > 0 {
		s.Use(middleware.TimeOutMiddleware(cfg.Server.Timeout))
	}
	// Innermost, so it runs on the goroutine the timeout middleware starts.
	s.Use(middleware.RecoverMiddleware(s.logger))
	return s, nil
}

// Register binds handler to the service described by d and publishes d to
// the server's registry. A service type can be bound once.
func (svr *Server) Register(ctx context.Context, d *service.Descriptor, handler middleware.HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("server: nil handler for %s", d.Name())
	}
	if err := svr.registry.RegisterService(ctx, d); err != nil {
		return err
	}

	svr.mu.Lock()
	defer svr.mu.Unlock()
	if _, dup := svr.serviceMap[d.Name()]; dup {
		return fmt.Errorf("server: %s already has a handler", d.Name())
	}
	svr.serviceMap[d.Name()] = &binding{desc: d, handler: handler}
	svr.logger.Info("service registered", zap.String("service", d.Name()), zap.Stringer("md5", d.Token()))
	return nil
}

// Use registers a middleware. Middlewares are applied in the order they are added.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.middlewares = append(svr.middlewares, mw)
	svr.chain = nil
}

// Services returns the bound service types, sorted.
func (svr *Server) Services() []string {
	svr.mu.RLock()
	defer svr.mu.RUnlock()
	names := make([]string, 0, len(svr.serviceMap))
	for name := range svr.serviceMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptor returns the descriptor bound to serviceType.
func (svr *Server) Descriptor(serviceType string) (*service.Descriptor, bool) {
	svr.mu.RLock()
	defer svr.mu.RUnlock()
	b, ok := svr.serviceMap[serviceType]
	if !ok {
		return nil, false
	}
	return b.desc, true
}

func (svr *Server) lookup(serviceType string) (*binding, middleware.Middleware, error) {
	svr.mu.RLock()
	b, ok := svr.serviceMap[serviceType]
	chain := svr.chain
	svr.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownService, serviceType)
	}
	if chain == nil {
		// Chain wraps middlewares in reverse order to create the onion model:
		//   Chain(A, B, C)(handler) → A(B(C(handler)))
		svr.mu.Lock()
		if svr.chain == nil {
			svr.chain = middleware.Chain(svr.middlewares...)
		}
		chain = svr.chain
		svr.mu.Unlock()
	}
	return b, chain, nil
}

// Invoke serves one call. token is the service token the caller computed;
// a mismatch is a *service.SchemaMismatchError and the request bytes are
// not decoded.
func (svr *Server) Invoke(ctx context.Context, serviceType string, token schema.Token, request []byte) ([]byte, error) {
	// Track this request for graceful shutdown (wg.Wait ensures all in-flight requests complete).
	// The flag check and Add happen under mu so Add never races Shutdown's Wait.
	svr.mu.RLock()
	if svr.closed {
		svr.mu.RUnlock()
		return nil, ErrServerClosed
	}
	svr.wg.Add(1)
	svr.mu.RUnlock()
	defer svr.wg.Done()

	b, chain, err := svr.lookup(serviceType)
	if err != nil {
		return nil, err
	}
	if err := b.desc.Check(token); err != nil {
		svr.logger.Warn("token mismatch", zap.String("service", serviceType), zap.Error(err))
		return nil, err
	}

	req, err := svr.codec.Decode(b.desc.Request(), request)
	if err != nil {
		return nil, fmt.Errorf("server: %s request: %w", serviceType, err)
	}

	resp, err := chain(b.handler)(middleware.WithService(ctx, serviceType), req)
	if err != nil {
		return nil, err
	}
	if err := b.check(resp); err != nil {
		return nil, err
	}

	out, err := svr.codec.Encode(resp)
	if err != nil {
		return nil, fmt.Errorf("server: %s response: %w", serviceType, err)
	}
	return out, nil
}

// Shutdown stops accepting calls and waits for in-flight ones to finish.
func (svr *Server) Shutdown(timeout time.Duration) error {
	svr.mu.Lock()
	svr.closed = true
	svr.mu.Unlock()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil // All requests completed
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}
}
