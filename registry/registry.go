// Package registry maps type names to message schemas and service
// descriptors, so one generic codec can serve every type instead of one
// generated type per message.
//
//	"robot_comms/ImageFilterRequest" -> *schema.Schema
//	"robot_comms/ImageFilter"        -> *service.Descriptor
//
// A name is bound to one layout for the life of the registry: registering
// the same name again with the same token is a no-op, with a different
// token it is a *ConflictError.
package registry

import (
	"context"
	"errors"
	"fmt"

	"rosrpc/schema"
	"rosrpc/service"
)

// ErrNotFound is returned for type names that were never registered.
var ErrNotFound = errors.New("registry: type not found")

// Registry stores message schemas and service descriptors by type name.
type Registry interface {
	RegisterMessage(ctx context.Context, s *schema.Schema) error
	RegisterService(ctx context.Context, d *service.Descriptor) error
	Message(ctx context.Context, typeName string) (*schema.Schema, error)
	Service(ctx context.Context, typeName string) (*service.Descriptor, error)
	Messages(ctx context.Context) ([]string, error)
	Services(ctx context.Context) ([]string, error)
}

// Kind tells message and service records apart.
type Kind string

const (
	KindMessage Kind = "msg"
	KindService Kind = "srv"
)

// ConflictError reports an attempt to rebind a type name to a different
// layout.
type ConflictError struct {
	Kind     Kind
	Type     string
	Existing schema.Token
	Incoming schema.Token
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry: %s %s already registered as %s, refusing %s", e.Kind, e.Type, e.Existing, e.Incoming)
}

func notFound(kind Kind, typeName string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, typeName)
}
