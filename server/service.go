package server

import (
	"fmt"

	"rosrpc/message"
	"rosrpc/middleware"
	"rosrpc/schema"
	"rosrpc/service"
)

// binding ties a descriptor to the handler that serves it.
type binding struct {
	desc    *service.Descriptor
	handler middleware.HandlerFunc
}

// ResponseSchemaError reports a handler that answered with an instance of
// the wrong schema, or with nothing.
type ResponseSchemaError struct {
	Service string
	Want    string
	Got     string
	Token   schema.Token
}

func (e *ResponseSchemaError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("server: %s handler returned no response", e.Service)
	}
	return fmt.Sprintf("server: %s handler returned %s[%s], want %s", e.Service, e.Got, e.Token, e.Want)
}

// check verifies that resp is an instance of the bound response schema.
func (b *binding) check(resp *message.Message) error {
	want := b.desc.Response()
	if resp == nil {
		return &ResponseSchemaError{Service: b.desc.Name(), Want: want.Name()}
	}
	got := resp.Schema()
	if got.Token() != want.Token() {
		return &ResponseSchemaError{Service: b.desc.Name(), Want: want.Name(), Got: got.Name(), Token: got.Token()}
	}
	return nil
}
