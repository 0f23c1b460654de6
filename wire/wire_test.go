package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		spelling string
		want     Type
		width    int
	}{
		{"bool", Bool, 1},
		{"int8", Int8, 1},
		{"byte", Int8, 1},
		{"uint8", Uint8, 1},
		{"char", Uint8, 1},
		{"int16", Int16, 2},
		{"uint16", Uint16, 2},
		{"int32", Int32, 4},
		{"uint32", Uint32, 4},
		{"float32", Float32, 4},
		{"int64", Int64, 8},
		{"uint64", Uint64, 8},
		{"float64", Float64, 8},
		{"uint8[16]", FixedBytes(16), 16},
		{"char[3]", FixedBytes(3), 3},
	}
	for _, c := range cases {
		got, err := ParseType(c.spelling)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", c.spelling, err)
		}
		if got != c.want {
			t.Fatalf("ParseType(%q) = %v, want %v", c.spelling, got, c.want)
		}
		if got.Width() != c.width {
			t.Fatalf("%q width = %d, want %d", c.spelling, got.Width(), c.width)
		}
	}
}

func TestParseTypeRejectsVariableAndCompound(t *testing.T) {
	for _, s := range []string{"string", "uint8[]", "int32[4]", "time", "geometry_msgs/Point", "uint8[0]", "uint8[04]", "uint8[x]", ""} {
		_, err := ParseType(s)
		var ute *UnsupportedTypeError
		if !errors.As(err, &ute) {
			t.Fatalf("ParseType(%q): expected UnsupportedTypeError, got %v", s, err)
		}
	}
}

func TestRoundTripEveryPrimitive(t *testing.T) {
	cases := []struct {
		typ    Type
		values []any
	}{
		{Bool, []any{false, true}},
		{Int8, []any{int8(math.MinInt8), int8(-1), int8(0), int8(math.MaxInt8)}},
		{Uint8, []any{uint8(0), uint8(7), uint8(math.MaxUint8)}},
		{Int16, []any{int16(math.MinInt16), int16(-300), int16(math.MaxInt16)}},
		{Uint16, []any{uint16(0), uint16(0xBEEF), uint16(math.MaxUint16)}},
		{Int32, []any{int32(math.MinInt32), int32(42), int32(math.MaxInt32)}},
		{Uint32, []any{uint32(0), uint32(0xDEADBEEF), uint32(math.MaxUint32)}},
		{Int64, []any{int64(math.MinInt64), int64(42), int64(math.MaxInt64)}},
		{Uint64, []any{uint64(0), uint64(math.MaxUint64)}},
		{Float32, []any{float32(0), float32(-1.5), float32(math.MaxFloat32), float32(math.SmallestNonzeroFloat32)}},
		{Float64, []any{float64(0), math.Pi, -math.MaxFloat64, math.Inf(1)}},
		{FixedBytes(4), []any{[]byte{0, 1, 2, 3}, []byte{0xFF, 0xFF, 0xFF, 0xFF}}},
	}
	for _, c := range cases {
		for _, v := range c.values {
			buf, err := Encode(nil, c.typ, v)
			if err != nil {
				t.Fatalf("encode %s %v: %v", c.typ, v, err)
			}
			if len(buf) != c.typ.Width() {
				t.Fatalf("encode %s %v: got %d bytes, want %d", c.typ, v, len(buf), c.typ.Width())
			}
			got, err := Decode(buf, c.typ)
			if err != nil {
				t.Fatalf("decode %s: %v", c.typ, err)
			}
			if b, ok := v.([]byte); ok {
				if !bytes.Equal(got.([]byte), b) {
					t.Fatalf("%s round trip: got %v, want %v", c.typ, got, v)
				}
				continue
			}
			if got != v {
				t.Fatalf("%s round trip: got %T(%v), want %T(%v)", c.typ, got, got, v, v)
			}
		}
	}
}

func TestFloatNaNRoundTrip(t *testing.T) {
	buf, err := Encode(nil, Float64, math.NaN())
	if err != nil {
		t.Fatalf("encode NaN: %v", err)
	}
	got, err := Decode(buf, Float64)
	if err != nil {
		t.Fatalf("decode NaN: %v", err)
	}
	if !math.IsNaN(got.(float64)) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestEncodeIsLittleEndian(t *testing.T) {
	buf, err := Encode(nil, Int64, int64(42))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{42, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(buf, want) {
		t.Fatalf("int64 42 = % x, want % x", buf, want)
	}

	buf, err = Encode(nil, Int16, -2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xFE, 0xFF}) {
		t.Fatalf("int16 -2 = % x", buf)
	}
}

func TestEncodeAcceptsAnyFittingInteger(t *testing.T) {
	got, err := Normalize(Int64, 42)
	if err != nil || got != int64(42) {
		t.Fatalf("Normalize(int64, int 42) = %v, %v", got, err)
	}
	got, err = Normalize(Uint8, int64(255))
	if err != nil || got != uint8(255) {
		t.Fatalf("Normalize(uint8, int64 255) = %v, %v", got, err)
	}
	got, err = Normalize(Int32, uint16(65535))
	if err != nil || got != int32(65535) {
		t.Fatalf("Normalize(int32, uint16 65535) = %v, %v", got, err)
	}
}

type (
	sequenceID uint32
	ratio      float32
	enabled    bool
	digest     []byte
)

func TestEncodeAcceptsNamedTypes(t *testing.T) {
	type id int64
	cases := []struct {
		typ  Type
		v    any
		want []byte
	}{
		{Int64, id(3), []byte{3, 0, 0, 0, 0, 0, 0, 0}},
		{Uint16, sequenceID(513), []byte{1, 2}},
		{Float32, ratio(1), []byte{0, 0, 0x80, 0x3f}},
		{Bool, enabled(true), []byte{1}},
		{FixedBytes(2), digest{7, 8}, []byte{7, 8}},
	}
	for _, c := range cases {
		got, err := Encode(nil, c.typ, c.v)
		if err != nil {
			t.Fatalf("encode %s %T(%v): %v", c.typ, c.v, c.v, err)
		}
		if !bytes.Equal(got, c.want) {
			t.Fatalf("encode %s %T(%v) = % x, want % x", c.typ, c.v, c.v, got, c.want)
		}
	}
	if _, err := Encode(nil, Uint8, sequenceID(256)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("named integer skipped the range check: %v", err)
	}
	if _, err := Encode(nil, Int32, ratio(2)); !errors.Is(err, ErrWrongCategory) {
		t.Fatalf("named float accepted into an integer field: %v", err)
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	cases := []struct {
		typ Type
		v   any
	}{
		{Int8, 128},
		{Int8, -129},
		{Uint8, 256},
		{Uint8, -1},
		{Int16, int32(math.MaxInt16 + 1)},
		{Uint32, int64(math.MaxUint32 + 1)},
		{Int64, uint64(math.MaxInt64 + 1)},
		{Uint64, int64(-1)},
		{Float32, math.MaxFloat64},
	}
	for _, c := range cases {
		dst := []byte{0xAA}
		out, err := Encode(dst, c.typ, c.v)
		var ee *EncodingError
		if !errors.As(err, &ee) {
			t.Fatalf("encode %s %T(%v): expected EncodingError, got %v", c.typ, c.v, c.v, err)
		}
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("encode %s %v: expected ErrOutOfRange cause, got %v", c.typ, c.v, ee.Cause)
		}
		if !bytes.Equal(out, dst) {
			t.Fatalf("encode %s %v: dst modified on failure: % x", c.typ, c.v, out)
		}
	}
}

func TestEncodeRejectsCoercion(t *testing.T) {
	cases := []struct {
		typ Type
		v   any
	}{
		{Int64, 1.0},
		{Int32, float32(2)},
		{Float64, 3},
		{Float32, int64(3)},
		{Bool, 1},
		{Int64, true},
		{Int64, "42"},
		{FixedBytes(2), "ab"},
		{Int64, nil},
	}
	for _, c := range cases {
		_, err := Encode(nil, c.typ, c.v)
		if !errors.Is(err, ErrWrongCategory) {
			t.Fatalf("encode %s %T(%v): expected ErrWrongCategory, got %v", c.typ, c.v, c.v, err)
		}
	}
}

func TestEncodeBytesLength(t *testing.T) {
	typ := FixedBytes(3)
	if _, err := Encode(nil, typ, []byte{1, 2}); !errors.Is(err, ErrLength) {
		t.Fatalf("short sequence: expected ErrLength, got %v", err)
	}
	if _, err := Encode(nil, typ, []byte{1, 2, 3, 4}); !errors.Is(err, ErrLength) {
		t.Fatalf("long sequence: expected ErrLength, got %v", err)
	}
	buf, err := Encode(nil, typ, [3]byte{7, 8, 9})
	if err != nil {
		t.Fatalf("array value: %v", err)
	}
	if !bytes.Equal(buf, []byte{7, 8, 9}) {
		t.Fatalf("array value encoded as % x", buf)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(make([]byte, 7), Int64)
	var tbe *TruncatedBufferError
	if !errors.As(err, &tbe) {
		t.Fatalf("expected TruncatedBufferError, got %v", err)
	}
	if tbe.Need != 8 || tbe.Have != 7 || tbe.Short() != 1 {
		t.Fatalf("unexpected truncation detail: %+v", tbe)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected errors.Is(err, ErrTruncated)")
	}

	if _, err := Decode(nil, Bool); !errors.Is(err, ErrTruncated) {
		t.Fatalf("empty bool: expected ErrTruncated, got %v", err)
	}
}

func TestDecodeIgnoresBytesPastWidth(t *testing.T) {
	got, err := Decode([]byte{1, 0, 0, 0, 0xFF, 0xFF}, Uint32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != uint32(1) {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestDecodeBoolNonZeroIsTrue(t *testing.T) {
	got, err := Decode([]byte{2}, Bool)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != true {
		t.Fatalf("byte 2 decoded as %v", got)
	}
}

func TestDecodeBytesCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	got, err := Decode(src, FixedBytes(3))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	src[0] = 9
	if got.([]byte)[0] != 1 {
		t.Fatalf("decoded bytes alias the input buffer")
	}
}

func TestZeroValues(t *testing.T) {
	for _, typ := range []Type{Bool, Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64, Float32, Float64, FixedBytes(5)} {
		z := Zero(typ)
		buf, err := Encode(nil, typ, z)
		if err != nil {
			t.Fatalf("zero %s does not encode: %v", typ, err)
		}
		if !bytes.Equal(buf, make([]byte, typ.Width())) {
			t.Fatalf("zero %s encodes to % x", typ, buf)
		}
	}
}

func TestEncodingErrorMessage(t *testing.T) {
	_, err := Encode(nil, Int64, 1.5)
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	ee.Message = "robot_comms/ImageFilterRequest"
	ee.Field = "filter_id"
	want := "wire: cannot encode robot_comms/ImageFilterRequest.filter_id float64(1.5) as int64: wire: value of wrong category"
	if ee.Error() != want {
		t.Fatalf("error text:\n got %q\nwant %q", ee.Error(), want)
	}
}
