// Package wire encodes and decodes single primitive field values to and from
// fixed-width byte spans.
//
// Every primitive has a width known when the schema is defined. Numbers use
// two's complement / IEEE-754 in one byte order for the whole system
// (little-endian), so a field never carries a length prefix or a tag:
//
//	Type            Width   Go value
//	────────────────────────────────────
//	bool            1       bool
//	int8/uint8      1       int8/uint8
//	int16/uint16    2       int16/uint16
//	int32/uint32    4       int32/uint32
//	float32         4       float32
//	int64/uint64    8       int64/uint64
//	float64         8       float64
//	uint8[N]        N       []byte (len N)
//
// The legacy aliases byte (int8) and char (uint8) are accepted when parsing a
// type spelling; they resolve to the same Kind.
package wire

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// ByteOrder is the byte order of every multi-byte field on the wire.
var ByteOrder = binary.LittleEndian

// Kind is the primitive category of a field.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBytes
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindInt8:    "int8",
	KindUint8:   "uint8",
	KindInt16:   "int16",
	KindUint16:  "uint16",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindBytes:   "uint8[]",
}

var kindWidths = [...]int{
	KindBool:    1,
	KindInt8:    1,
	KindUint8:   1,
	KindInt16:   2,
	KindUint16:  2,
	KindInt32:   4,
	KindUint32:  4,
	KindInt64:   8,
	KindUint64:  8,
	KindFloat32: 4,
	KindFloat64: 8,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	return k == KindInt8 || k == KindInt16 || k == KindInt32 || k == KindInt64
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	return k == KindUint8 || k == KindUint16 || k == KindUint32 || k == KindUint64
}

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// Type is a resolved primitive type. Len is the fixed length of a KindBytes
// sequence and is zero for every other kind.
type Type struct {
	Kind Kind
	Len  int
}

// Primitive types, for callers that build Types directly.
var (
	Bool    = Type{Kind: KindBool}
	Int8    = Type{Kind: KindInt8}
	Uint8   = Type{Kind: KindUint8}
	Int16   = Type{Kind: KindInt16}
	Uint16  = Type{Kind: KindUint16}
	Int32   = Type{Kind: KindInt32}
	Uint32  = Type{Kind: KindUint32}
	Int64   = Type{Kind: KindInt64}
	Uint64  = Type{Kind: KindUint64}
	Float32 = Type{Kind: KindFloat32}
	Float64 = Type{Kind: KindFloat64}
)

// FixedBytes returns the type of a byte sequence of exactly n bytes.
func FixedBytes(n int) Type {
	return Type{Kind: KindBytes, Len: n}
}

// Width returns the number of bytes a value of t occupies on the wire.
func (t Type) Width() int {
	if t.Kind == KindBytes {
		return t.Len
	}
	if int(t.Kind) < len(kindWidths) {
		return kindWidths[t.Kind]
	}
	return 0
}

// String returns the canonical spelling of t.
func (t Type) String() string {
	if t.Kind == KindBytes {
		return "uint8[" + strconv.Itoa(t.Len) + "]"
	}
	return t.Kind.String()
}

var spellings = map[string]Kind{
	"bool":    KindBool,
	"int8":    KindInt8,
	"byte":    KindInt8,
	"uint8":   KindUint8,
	"char":    KindUint8,
	"int16":   KindInt16,
	"uint16":  KindUint16,
	"int32":   KindInt32,
	"uint32":  KindUint32,
	"int64":   KindInt64,
	"uint64":  KindUint64,
	"float32": KindFloat32,
	"float64": KindFloat64,
}

// ParseType resolves a type spelling as it appears in a message definition.
func ParseType(spelling string) (Type, error) {
	if k, ok := spellings[spelling]; ok {
		return Type{Kind: k}, nil
	}

	// Fixed byte sequence: uint8[N], byte[N] or char[N].
	open := strings.IndexByte(spelling, '[')
	if open <= 0 || !strings.HasSuffix(spelling, "]") {
		return Type{}, &UnsupportedTypeError{Spelling: spelling}
	}
	switch spelling[:open] {
	case "uint8", "byte", "char":
	default:
		return Type{}, &UnsupportedTypeError{Spelling: spelling, Reason: "only byte sequences may be arrays"}
	}
	digits := spelling[open+1 : len(spelling)-1]
	if digits == "" {
		return Type{}, &UnsupportedTypeError{Spelling: spelling, Reason: "variable-length arrays are not fixed width"}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 || strconv.Itoa(n) != digits {
		return Type{}, &UnsupportedTypeError{Spelling: spelling, Reason: "invalid array length"}
	}
	return FixedBytes(n), nil
}
