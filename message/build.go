package message

import (
	"rosrpc/schema"
	"rosrpc/wire"
)

// Option supplies field values to New.
type Option func(*builder)

type builder struct {
	positional    []any
	hasPositional bool
	named         map[string]any
	order         []string
	err           error
}

// Values supplies every field positionally, in declared order.
func Values(v ...any) Option {
	return func(b *builder) {
		if b.hasPositional {
			b.fail(&AmbiguousConstructionError{Reason: "positional values supplied twice"})
			return
		}
		b.hasPositional = true
		b.positional = v
	}
}

// Field supplies one field by name.
func Field(name string, v any) Option {
	return func(b *builder) {
		if b.named == nil {
			b.named = make(map[string]any)
		}
		if _, dup := b.named[name]; dup {
			b.fail(&AmbiguousConstructionError{Field: name, Reason: "field supplied twice"})
			return
		}
		b.named[name] = v
		b.order = append(b.order, name)
	}
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// New builds an instance of s. Values may be supplied either positionally
// with Values or by name with Field, never both. Fields not supplied get the
// zero value of their type; a fixed byte sequence defaults to all zero
// bytes.
func New(s *schema.Schema, opts ...Option) (*Message, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}
	if err := b.resolve(s); err != nil {
		return nil, err
	}

	m := &Message{schema: s, values: make([]any, s.NumField())}
	for i := range m.values {
		m.values[i] = wire.Zero(s.Field(i).Primitive())
	}
	if b.hasPositional {
		for i, v := range b.positional {
			m.values[i] = own(v)
		}
		return m, nil
	}
	for _, name := range b.order {
		_, i, _ := s.Lookup(name)
		m.values[i] = own(b.named[name])
	}
	return m, nil
}

func (b *builder) resolve(s *schema.Schema) error {
	if b.err != nil {
		return b.annotate(s, b.err)
	}
	if b.hasPositional && len(b.named) > 0 {
		return &AmbiguousConstructionError{
			Message: s.Name(),
			Field:   b.order[0],
			Reason:  "positional and named values supplied together",
		}
	}
	if b.hasPositional && len(b.positional) != s.NumField() {
		return &PositionalCountError{Message: s.Name(), Want: s.NumField(), Got: len(b.positional)}
	}
	for _, name := range b.order {
		if _, _, ok := s.Lookup(name); !ok {
			return &UnknownFieldError{Message: s.Name(), Field: name}
		}
	}
	return nil
}

func (b *builder) annotate(s *schema.Schema, err error) error {
	if ae, ok := err.(*AmbiguousConstructionError); ok {
		ae.Message = s.Name()
	}
	return err
}

// MustNew is like New but panics on error.
func MustNew(s *schema.Schema, opts ...Option) *Message {
	m, err := New(s, opts...)
	if err != nil {
		panic(err)
	}
	return m
}
