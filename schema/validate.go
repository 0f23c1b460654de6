package schema

import (
	"fmt"
	"strconv"
	"strings"

	"rosrpc/wire"
)

// DefinitionError reports an invalid type name, field or constant.
type DefinitionError struct {
	Type   string
	Name   string
	Reason string
	Cause  error
}

func (e *DefinitionError) Error() string {
	msg := "schema: " + e.Type
	if e.Name != "" {
		msg += " " + e.Name
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DefinitionError) Unwrap() error {
	return e.Cause
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_'):
		default:
			return false
		}
	}
	return true
}

// ValidateTypeName reports whether typeName has the "package/Name" form,
// both parts being identifiers.
func ValidateTypeName(typeName string) error {
	return validateTypeName(typeName)
}

func validateTypeName(typeName string) error {
	pkg, base, ok := strings.Cut(typeName, "/")
	if !ok || !isIdentifier(pkg) || !isIdentifier(base) {
		return &DefinitionError{Type: typeName, Reason: `type name must be "package/Name"`}
	}
	return nil
}

func validateConstant(typeName string, c Constant) error {
	if !isIdentifier(c.Name) {
		return &DefinitionError{Type: typeName, Name: c.Name, Reason: "invalid constant name"}
	}
	t, err := wire.ParseType(c.Type)
	if err != nil {
		return &DefinitionError{Type: typeName, Name: c.Name, Reason: "unsupported constant type", Cause: err}
	}
	if err := checkConstantValue(t, c.Value); err != nil {
		return &DefinitionError{Type: typeName, Name: c.Name, Reason: "invalid constant value", Cause: err}
	}
	return nil
}

func checkConstantValue(t wire.Type, value string) error {
	var err error
	switch {
	case value == "":
		return fmt.Errorf("empty value")
	case t.Kind == wire.KindBytes:
		return fmt.Errorf("byte sequences cannot be constants")
	case t.Kind == wire.KindBool:
		switch value {
		case "true", "false", "True", "False", "1", "0":
		default:
			err = fmt.Errorf("%q is not a bool", value)
		}
	case t.Kind.IsSigned():
		_, err = strconv.ParseInt(value, 0, t.Width()*8)
	case t.Kind.IsUnsigned():
		_, err = strconv.ParseUint(value, 0, t.Width()*8)
	case t.Kind.IsFloat():
		_, err = strconv.ParseFloat(value, t.Width()*8)
	}
	return err
}
