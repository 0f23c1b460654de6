package message

import "fmt"

// AmbiguousConstructionError is returned by New when values are supplied
// both positionally and by name, or when the same value is supplied twice.
type AmbiguousConstructionError struct {
	Message string
	Field   string
	Reason  string
}

func (e *AmbiguousConstructionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("message: ambiguous construction of %s (field %s): %s", e.Message, e.Field, e.Reason)
	}
	return fmt.Sprintf("message: ambiguous construction of %s: %s", e.Message, e.Reason)
}

// PositionalCountError is returned by New when the number of positional
// values differs from the number of fields.
type PositionalCountError struct {
	Message string
	Want    int
	Got     int
}

func (e *PositionalCountError) Error() string {
	return fmt.Sprintf("message: %s takes %d positional values, got %d", e.Message, e.Want, e.Got)
}

// UnknownFieldError names a field the schema does not declare.
type UnknownFieldError struct {
	Message string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("message: %s has no field %q", e.Message, e.Field)
}

// TrailingBytesError is returned by the exact decoders when the input is
// longer than the schema's width.
type TrailingBytesError struct {
	Message string
	Width   int
	Extra   int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("message: %s is %d bytes wide, input has %d trailing bytes", e.Message, e.Width, e.Extra)
}
