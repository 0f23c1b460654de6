// Package schema defines message schemas: the ordered, named, typed fields of
// one message type, their canonical text and the identity token derived from
// that text.
//
// The canonical text renders every declaration on its own line, in declared
// order, exactly as authored:
//
//	uint8 ACTIVE=1      <- constants first, "<type> <NAME>=<value>"
//	int64 filter_id     <- then fields, "<type> <name>"
//
// Lines are joined by "\n" with no trailing newline. Comments, blank lines
// and spacing in the authored definition never reach the canonical text, so
// every conforming generator that reads the same definition arrives at the
// same token.
//
// A Schema is immutable once defined and safe for concurrent use.
package schema

import (
	"strings"

	"rosrpc/wire"
)

// Field declares one named slot of a message. Type is the spelling as
// authored ("int64", "char", "uint8[16]"); it is resolved by Define.
type Field struct {
	Name string
	Type string

	prim wire.Type
}

// Primitive returns the resolved wire type. It is only meaningful for
// fields obtained from a Schema.
func (f Field) Primitive() wire.Type {
	return f.prim
}

// Width returns the number of bytes the field occupies on the wire.
func (f Field) Width() int {
	return f.prim.Width()
}

// String renders the field as a canonical text line.
func (f Field) String() string {
	return f.Type + " " + f.Name
}

// Constant is a named value declared alongside the fields. Constants are part
// of the canonical text but occupy no bytes on the wire.
type Constant struct {
	Type  string
	Name  string
	Value string
}

// String renders the constant as a canonical text line.
func (c Constant) String() string {
	return c.Type + " " + c.Name + "=" + c.Value
}

// Schema is the immutable definition of one message type.
type Schema struct {
	name       string
	fields     []Field
	constants  []Constant
	index      map[string]int
	text       string
	definition string
	token      Token
	width      int
}

// Define builds a schema for typeName ("package/Name") from fields in wire
// order.
func Define(typeName string, fields ...Field) (*Schema, error) {
	return define(typeName, nil, fields, "")
}

// DefineWithConstants is Define for a message that also declares constants.
func DefineWithConstants(typeName string, constants []Constant, fields ...Field) (*Schema, error) {
	return define(typeName, constants, fields, "")
}

// MustDefine is like Define but panics on error. It is meant for
// package-level schema variables.
func MustDefine(typeName string, fields ...Field) *Schema {
	s, err := Define(typeName, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func define(typeName string, constants []Constant, fields []Field, definition string) (*Schema, error) {
	if err := validateTypeName(typeName); err != nil {
		return nil, err
	}

	s := &Schema{
		name:      typeName,
		fields:    make([]Field, len(fields)),
		constants: make([]Constant, len(constants)),
		index:     make(map[string]int, len(fields)),
	}
	seen := make(map[string]struct{}, len(fields)+len(constants))

	lines := make([]string, 0, len(constants)+len(fields))
	for i, c := range constants {
		if err := validateConstant(typeName, c); err != nil {
			return nil, err
		}
		if _, dup := seen[c.Name]; dup {
			return nil, &DefinitionError{Type: typeName, Name: c.Name, Reason: "duplicate name"}
		}
		seen[c.Name] = struct{}{}
		s.constants[i] = c
		lines = append(lines, c.String())
	}

	for i, f := range fields {
		if !isIdentifier(f.Name) {
			return nil, &DefinitionError{Type: typeName, Name: f.Name, Reason: "invalid field name"}
		}
		if _, dup := seen[f.Name]; dup {
			return nil, &DefinitionError{Type: typeName, Name: f.Name, Reason: "duplicate name"}
		}
		prim, err := wire.ParseType(f.Type)
		if err != nil {
			return nil, &DefinitionError{Type: typeName, Name: f.Name, Reason: "unsupported field type", Cause: err}
		}
		seen[f.Name] = struct{}{}
		f.prim = prim
		s.fields[i] = f
		s.index[f.Name] = i
		s.width += prim.Width()
		lines = append(lines, f.String())
	}

	s.text = strings.Join(lines, "\n")
	s.token = Digest(s.text)
	s.definition = definition
	if s.definition == "" {
		s.definition = s.text + "\n"
	}
	return s, nil
}

// Name returns the fully qualified type name, e.g. "robot_comms/ImageFilterRequest".
func (s *Schema) Name() string {
	return s.name
}

// Package returns the package part of the type name.
func (s *Schema) Package() string {
	pkg, _, _ := strings.Cut(s.name, "/")
	return pkg
}

// Fields returns a copy of the fields in wire order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// NumField returns the number of fields.
func (s *Schema) NumField() int {
	return len(s.fields)
}

// Field returns the i'th field in wire order.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Lookup finds a field by name and returns it with its position.
func (s *Schema) Lookup(name string) (Field, int, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, -1, false
	}
	return s.fields[i], i, true
}

// Constants returns a copy of the declared constants.
func (s *Schema) Constants() []Constant {
	out := make([]Constant, len(s.constants))
	copy(out, s.constants)
	return out
}

// Text returns the canonical text the token is computed from.
func (s *Schema) Text() string {
	return s.text
}

// Definition returns the definition as authored, comments included. For
// schemas built with Define it is the canonical text.
func (s *Schema) Definition() string {
	return s.definition
}

// Token returns the identity token.
func (s *Schema) Token() Token {
	return s.token
}

// Width returns the total number of bytes of a serialized instance.
func (s *Schema) Width() int {
	return s.width
}

func (s *Schema) String() string {
	return s.name + "[" + s.token.String() + "]"
}
