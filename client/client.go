// Package client calls services through an Invoker.
//
// Call checks that the request belongs to the service's request schema,
// encodes it, hands the bytes and the service token to the Invoker and
// decodes the reply with the response schema:
//
//	req *message.Message → Codec.Encode → Invoker.Invoke(name, token, bytes)
//	  → Codec.Decode(response schema) → *message.Message
//
// The Invoker is where a transport plugs in. *server.Server is one, for
// in-process calls.
package client

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"rosrpc/codec"
	"rosrpc/logging"
	"rosrpc/message"
	"rosrpc/middleware"
	"rosrpc/schema"
	"rosrpc/service"
)

// Invoker delivers one encoded request for serviceType and returns the
// encoded response. token is the caller's service token; the receiving
// side rejects the call if it disagrees.
type Invoker interface {
	Invoke(ctx context.Context, serviceType string, token schema.Token, request []byte) ([]byte, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, serviceType string, token schema.Token, request []byte) ([]byte, error)

func (f InvokerFunc) Invoke(ctx context.Context, serviceType string, token schema.Token, request []byte) ([]byte, error) {
	return f(ctx, serviceType, token, request)
}

// RequestSchemaError reports a request built against a schema other than
// the service's request schema.
type RequestSchemaError struct {
	Service string
	Want    string
	Got     string
}

func (e *RequestSchemaError) Error() string {
	return fmt.Sprintf("client: %s takes %s, got %s", e.Service, e.Want, e.Got)
}

type Client struct {
	invoker     Invoker
	codec       codec.Codec
	mu          sync.Mutex
	middlewares []middleware.Middleware
	logger      *zap.Logger
}

type Option func(*Client)

// WithCodec selects the encoding; it must match the receiving side.
func WithCodec(c codec.Codec) Option {
	return func(cl *Client) { cl.codec = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func NewClient(inv Invoker, opts ...Option) *Client {
	c := &Client{
		invoker: inv,
		codec:   &codec.BinaryCodec{},
		logger:  logging.Logger().Named("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Use wraps every subsequent call's invoke step with mw, e.g.
// middleware.RetryMiddleware for transient transport failures.
func (c *Client) Use(mw middleware.Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, mw)
}

// Call invokes the service described by d with req and returns the
// response instance.
func (c *Client) Call(ctx context.Context, d *service.Descriptor, req *message.Message) (*message.Message, error) {
	if req == nil {
		return nil, fmt.Errorf("client: %s: nil request", d.Name())
	}
	if got := req.Schema(); got.Token() != d.Request().Token() {
		return nil, &RequestSchemaError{Service: d.Name(), Want: d.Request().Name(), Got: got.Name()}
	}

	c.mu.Lock()
	chain := middleware.Chain(c.middlewares...)
	c.mu.Unlock()

	invoke := func(ctx context.Context, req *message.Message) (*message.Message, error) {
		payload, err := c.codec.Encode(req)
		if err != nil {
			return nil, err
		}
		reply, err := c.invoker.Invoke(ctx, d.Name(), d.Token(), payload)
		if err != nil {
			return nil, err
		}
		resp, err := c.codec.Decode(d.Response(), reply)
		if err != nil {
			return nil, fmt.Errorf("client: %s response: %w", d.Name(), err)
		}
		return resp, nil
	}

	resp, err := chain(invoke)(middleware.WithService(ctx, d.Name()), req)
	if err != nil {
		c.logger.Debug("call failed", zap.String("service", d.Name()), zap.Error(err))
		return nil, err
	}
	return resp, nil
}
