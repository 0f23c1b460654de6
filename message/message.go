// Package message defines message instances: one value per field of a
// schema, and the flat wire form those values serialize to.
//
// A Message is built against a *schema.Schema and owns one slot per field:
//
//	schema robot_comms/ImageFilterRequest     Message
//	+-----------------+                       +--------------------+
//	| int64 filter_id | ------- slot 0 -----> | filter_id = 42     |
//	+-----------------+                       +--------------------+
//
//	Serialize ->  2a 00 00 00 00 00 00 00   (8 bytes, little-endian)
//
// The wire form is the fields' fixed-width encodings concatenated in schema
// order: no framing, no length prefix, no type tag. Which schema a buffer
// belongs to is agreed out of band by comparing identity tokens.
//
// Messages are caller-owned values with no internal locking.
package message

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"rosrpc/schema"
	"rosrpc/wire"
)

// Message is an instance of a schema: a fully resolved value for every
// field, in declared order.
type Message struct {
	schema *schema.Schema
	values []any
}

// Schema returns the schema the message was built against.
func (m *Message) Schema() *schema.Schema {
	return m.schema
}

// Get returns the value of the named field.
func (m *Message) Get(name string) (any, error) {
	_, i, ok := m.schema.Lookup(name)
	if !ok {
		return nil, &UnknownFieldError{Message: m.schema.Name(), Field: name}
	}
	return own(m.values[i]), nil
}

// Set replaces the value of the named field. The value is checked against
// the field type when the message is serialized.
func (m *Message) Set(name string, v any) error {
	_, i, ok := m.schema.Lookup(name)
	if !ok {
		return &UnknownFieldError{Message: m.schema.Name(), Field: name}
	}
	m.values[i] = own(v)
	return nil
}

// Values returns the field values in declared order.
func (m *Message) Values() []any {
	out := make([]any, len(m.values))
	for i, v := range m.values {
		out[i] = own(v)
	}
	return out
}

// own copies byte slices so that a message never shares a buffer with its
// caller.
func own(v any) any {
	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...)
	}
	return v
}

// Int64 reads a signed integer field.
func (m *Message) Int64(name string) (int64, error) {
	v, f, err := m.normalized(name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	}
	return 0, m.categoryError(f, "signed integer")
}

// Uint64 reads an unsigned integer field.
func (m *Message) Uint64(name string) (uint64, error) {
	v, f, err := m.normalized(name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	}
	return 0, m.categoryError(f, "unsigned integer")
}

// Float64 reads a float32 or float64 field.
func (m *Message) Float64(name string) (float64, error) {
	v, f, err := m.normalized(name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	return 0, m.categoryError(f, "float")
}

// Bool reads a bool field.
func (m *Message) Bool(name string) (bool, error) {
	v, f, err := m.normalized(name)
	if err != nil {
		return false, err
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, m.categoryError(f, "bool")
}

// Bytes reads a fixed byte sequence field. The returned slice is a copy.
func (m *Message) Bytes(name string) ([]byte, error) {
	v, f, err := m.normalized(name)
	if err != nil {
		return nil, err
	}
	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...), nil
	}
	return nil, m.categoryError(f, "byte sequence")
}

func (m *Message) normalized(name string) (any, schema.Field, error) {
	f, i, ok := m.schema.Lookup(name)
	if !ok {
		return nil, f, &UnknownFieldError{Message: m.schema.Name(), Field: name}
	}
	v, err := wire.Normalize(f.Primitive(), m.values[i])
	if err != nil {
		return nil, f, annotateEncoding(err, m.schema.Name(), f.Name)
	}
	return v, f, nil
}

func (m *Message) categoryError(f schema.Field, want string) error {
	return fmt.Errorf("message: %s.%s is %s, not a %s: %w", m.schema.Name(), f.Name, f.Type, want, wire.ErrWrongCategory)
}

// Equal reports whether other is an instance of the same schema with equal
// field values. Values are compared in their wire representation, so
// int(42) and int64(42) in an int64 field are equal, and NaNs with the same
// bits are equal.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.schema != other.schema && m.schema.Token() != other.schema.Token() {
		return false
	}
	if len(m.values) != len(other.values) {
		return false
	}
	for i := range m.values {
		t := m.schema.Field(i).Primitive()
		a, errA := wire.Normalize(t, m.values[i])
		b, errB := wire.Normalize(t, other.values[i])
		if errA != nil || errB != nil {
			return false
		}
		if !equalValue(a, b) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case float32:
		y, ok := b.(float32)
		return ok && math.Float32bits(x) == math.Float32bits(y)
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	}
	return a == b
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	c := &Message{schema: m.schema, values: make([]any, len(m.values))}
	for i, v := range m.values {
		c.values[i] = own(v)
	}
	return c
}

// String renders the message one "name: value" line per field.
func (m *Message) String() string {
	var b strings.Builder
	for i, v := range m.values {
		fmt.Fprintf(&b, "%s: %v\n", m.schema.Field(i).Name, v)
	}
	return b.String()
}

func annotateEncoding(err error, msg, field string) error {
	var ee *wire.EncodingError
	if errors.As(err, &ee) {
		ee.Message, ee.Field = msg, field
		return ee
	}
	return err
}
