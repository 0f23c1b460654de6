package wire

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTruncated     = errors.New("wire: truncated buffer")
	ErrOutOfRange    = errors.New("wire: value out of range")
	ErrWrongCategory = errors.New("wire: value of wrong category")
	ErrLength        = errors.New("wire: byte sequence length mismatch")
)

// EncodingError reports a value that cannot be represented in its declared
// primitive type. Message and Field are filled in by callers that encode
// whole messages.
type EncodingError struct {
	Message string
	Field   string
	Type    Type
	Value   any
	Cause   error
}

func (e *EncodingError) Error() string {
	var b strings.Builder
	b.WriteString("wire: cannot encode ")
	writeLocation(&b, e.Message, e.Field)
	fmt.Fprintf(&b, "%T(%v) as %s", e.Value, e.Value, e.Type)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// TruncatedBufferError reports a decode that ran out of input before a whole
// field was available.
type TruncatedBufferError struct {
	Message string
	Field   string
	Type    Type
	Need    int
	Have    int
}

func (e *TruncatedBufferError) Error() string {
	var b strings.Builder
	b.WriteString("wire: truncated buffer decoding ")
	writeLocation(&b, e.Message, e.Field)
	fmt.Fprintf(&b, "%s: need %d bytes, have %d (%d short)", e.Type, e.Need, e.Have, e.Short())
	return b.String()
}

// Short returns how many bytes were missing.
func (e *TruncatedBufferError) Short() int {
	return e.Need - e.Have
}

func (e *TruncatedBufferError) Is(target error) bool {
	return target == ErrTruncated
}

// UnsupportedTypeError reports a type spelling outside the fixed-width
// primitive set.
type UnsupportedTypeError struct {
	Spelling string
	Reason   string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("wire: unsupported type %q", e.Spelling)
	}
	return fmt.Sprintf("wire: unsupported type %q: %s", e.Spelling, e.Reason)
}

func writeLocation(b *strings.Builder, message, field string) {
	switch {
	case message != "" && field != "":
		b.WriteString(message)
		b.WriteByte('.')
		b.WriteString(field)
		b.WriteString(" ")
	case field != "":
		b.WriteString(field)
		b.WriteString(" ")
	case message != "":
		b.WriteString(message)
		b.WriteString(" ")
	}
}
