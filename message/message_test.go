package message

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"rosrpc/schema"
	"rosrpc/wire"
)

var imageFilterRequest = schema.MustDefine("robot_comms/ImageFilterRequest",
	schema.Field{Name: "filter_id", Type: "int64"},
)

var mixed = schema.MustDefine("test_msgs/Mixed",
	schema.Field{Name: "flag", Type: "bool"},
	schema.Field{Name: "level", Type: "int8"},
	schema.Field{Name: "count", Type: "uint32"},
	schema.Field{Name: "ratio", Type: "float32"},
	schema.Field{Name: "stamp", Type: "float64"},
	schema.Field{Name: "digest", Type: "uint8[4]"},
)

func TestRoundTripFilterID(t *testing.T) {
	m, err := New(imageFilterRequest, Field("filter_id", 42))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data, err := m.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(data) != 8 {
		t.Fatalf("serialized %d bytes, want 8", len(data))
	}
	if !bytes.Equal(data, []byte{42, 0, 0, 0, 0, 0, 0, 0}) {
		t.Fatalf("bytes = % x", data)
	}

	back, err := Deserialize(imageFilterRequest, data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	id, err := back.Int64("filter_id")
	if err != nil || id != 42 {
		t.Fatalf("filter_id = %d, %v", id, err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip lost data: %v vs %v", back, m)
	}
}

func TestDefaultConstruction(t *testing.T) {
	m, err := New(imageFilterRequest)
	if err != nil {
		t.Fatal(err)
	}
	v, err := m.Get("filter_id")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(0) {
		t.Fatalf("default filter_id = %#v", v)
	}

	d := MustNew(mixed)
	b, _ := d.Bytes("digest")
	if !bytes.Equal(b, make([]byte, 4)) {
		t.Fatalf("default digest = %v", b)
	}
	data, err := d.Serialize()
	if err != nil {
		t.Fatalf("default instance does not serialize: %v", err)
	}
	if len(data) != mixed.Width() {
		t.Fatalf("width %d, got %d bytes", mixed.Width(), len(data))
	}
}

func TestPositionalConstruction(t *testing.T) {
	m, err := New(mixed, Values(true, -3, uint32(7), float32(0.5), 2.25, [4]byte{1, 2, 3, 4}))
	if err != nil {
		t.Fatal(err)
	}
	data, err := m.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Deserialize(mixed, data)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip:\n%s\nvs\n%s", back, m)
	}
	if lvl, _ := back.Int64("level"); lvl != -3 {
		t.Fatalf("level = %d", lvl)
	}
	if c, _ := back.Uint64("count"); c != 7 {
		t.Fatalf("count = %d", c)
	}
	if r, _ := back.Float64("ratio"); r != 0.5 {
		t.Fatalf("ratio = %v", r)
	}
	if f, _ := back.Bool("flag"); !f {
		t.Fatalf("flag = false")
	}
}

func TestAmbiguousConstruction(t *testing.T) {
	cases := map[string][]Option{
		"positional and named": {Values(int64(1)), Field("filter_id", int64(2))},
		"named then positional": {Field("filter_id", int64(2)), Values(int64(1))},
		"field twice":           {Field("filter_id", 1), Field("filter_id", 2)},
		"values twice":          {Values(1), Values(2)},
	}
	for name, opts := range cases {
		_, err := New(imageFilterRequest, opts...)
		var ae *AmbiguousConstructionError
		if !errors.As(err, &ae) {
			t.Fatalf("%s: expected AmbiguousConstructionError, got %v", name, err)
		}
		if ae.Message != imageFilterRequest.Name() {
			t.Fatalf("%s: error names %q", name, ae.Message)
		}
	}
}

func TestUnknownField(t *testing.T) {
	_, err := New(imageFilterRequest, Field("filter", 1))
	var ue *UnknownFieldError
	if !errors.As(err, &ue) || ue.Field != "filter" {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}

	m := MustNew(imageFilterRequest)
	if err := m.Set("nope", 1); !errors.As(err, &ue) {
		t.Fatalf("Set unknown: %v", err)
	}
	if _, err := m.Get("nope"); !errors.As(err, &ue) {
		t.Fatalf("Get unknown: %v", err)
	}
}

func TestPositionalCount(t *testing.T) {
	_, err := New(mixed, Values(true, 1))
	var pe *PositionalCountError
	if !errors.As(err, &pe) || pe.Want != 6 || pe.Got != 2 {
		t.Fatalf("expected PositionalCountError, got %v", err)
	}
}

func TestTruncatedBuffer(t *testing.T) {
	m, err := Deserialize(imageFilterRequest, make([]byte, 7))
	if m != nil {
		t.Fatalf("partial instance returned: %v", m)
	}
	var te *wire.TruncatedBufferError
	if !errors.As(err, &te) {
		t.Fatalf("expected TruncatedBufferError, got %v", err)
	}
	if te.Field != "filter_id" || te.Message != "robot_comms/ImageFilterRequest" || te.Short() != 1 {
		t.Fatalf("error not annotated: %+v", te)
	}
	if !errors.Is(err, wire.ErrTruncated) {
		t.Fatalf("errors.Is(ErrTruncated) = false")
	}
}

func TestTruncatedMidMessage(t *testing.T) {
	data, _ := MustNew(mixed).Serialize()
	// flag, level and count fit; ratio is two bytes short.
	_, err := Deserialize(mixed, data[:1+1+4+2])
	var te *wire.TruncatedBufferError
	if !errors.As(err, &te) || te.Field != "ratio" || te.Short() != 2 {
		t.Fatalf("got %v", err)
	}
}

func TestTrailingBytes(t *testing.T) {
	data := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}
	m, err := Deserialize(imageFilterRequest, data)
	if err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	if id, _ := m.Int64("filter_id"); id != 1 {
		t.Fatalf("filter_id = %d", id)
	}

	_, err = DeserializeExact(imageFilterRequest, data)
	var tb *TrailingBytesError
	if !errors.As(err, &tb) || tb.Extra != 2 {
		t.Fatalf("expected TrailingBytesError, got %v", err)
	}
	if _, err := DeserializeExact(imageFilterRequest, data[:8]); err != nil {
		t.Fatalf("exact decode of exact buffer: %v", err)
	}
}

func TestEncodingErrorAnnotated(t *testing.T) {
	m := MustNew(mixed, Field("level", 200))
	_, err := m.Serialize()
	var ee *wire.EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	if ee.Message != "test_msgs/Mixed" || ee.Field != "level" || !errors.Is(err, wire.ErrOutOfRange) {
		t.Fatalf("error = %+v", ee)
	}
	if !strings.Contains(err.Error(), "test_msgs/Mixed.level") {
		t.Fatalf("message = %q", err)
	}

	m = MustNew(imageFilterRequest, Field("filter_id", "42"))
	if _, err := m.Serialize(); !errors.Is(err, wire.ErrWrongCategory) {
		t.Fatalf("string accepted for int64: %v", err)
	}
}

func TestSerializeToAllOrNothing(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("head")

	bad := MustNew(mixed, Field("digest", []byte{1, 2, 3}))
	if err := bad.SerializeTo(&buf); err == nil {
		t.Fatalf("short digest accepted")
	}
	if buf.String() != "head" {
		t.Fatalf("partial write: %q", buf.Bytes())
	}

	good := MustNew(imageFilterRequest, Field("filter_id", int64(-1)))
	if err := good.SerializeTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4+8 {
		t.Fatalf("buffer length %d", buf.Len())
	}

	dst := []byte{9}
	out, err := bad.AppendTo(dst)
	if err == nil || len(out) != 1 || out[0] != 9 {
		t.Fatalf("AppendTo on error = %v, %v", out, err)
	}
}

func TestSerializeDoesNotMutate(t *testing.T) {
	m := MustNew(imageFilterRequest, Field("filter_id", 42))
	if _, err := m.Serialize(); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Get("filter_id")
	if v != 42 {
		t.Fatalf("stored value changed to %#v", v)
	}
}

func TestDeserializeReader(t *testing.T) {
	var buf bytes.Buffer
	for _, id := range []int64{1, 2} {
		if err := MustNew(imageFilterRequest, Values(id)).SerializeTo(&buf); err != nil {
			t.Fatal(err)
		}
	}
	buf.Write([]byte{3, 0, 0})

	r := bytes.NewReader(buf.Bytes())
	for _, want := range []int64{1, 2} {
		m, err := DeserializeReader(imageFilterRequest, r)
		if err != nil {
			t.Fatal(err)
		}
		if id, _ := m.Int64("filter_id"); id != want {
			t.Fatalf("filter_id = %d, want %d", id, want)
		}
	}
	if _, err := DeserializeReader(imageFilterRequest, r); !errors.Is(err, wire.ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("failed read consumed input: %d left", r.Len())
	}
}

func TestEqualAndClone(t *testing.T) {
	a := MustNew(mixed, Field("stamp", math.NaN()), Field("digest", []byte{1, 2, 3, 4}))
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatalf("clone not equal")
	}
	raw, _ := b.Bytes("digest")
	raw[0] = 0xff
	if !a.Equal(b) {
		t.Fatalf("Bytes returned an alias")
	}
	if err := b.Set("digest", []byte{9, 9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Fatalf("different digests compare equal")
	}

	x := MustNew(imageFilterRequest, Field("filter_id", 42))
	y := MustNew(imageFilterRequest, Field("filter_id", int64(42)))
	if !x.Equal(y) {
		t.Fatalf("int and int64 42 differ")
	}
	other := schema.MustDefine("robot_comms/ImageFilterResponse", schema.Field{Name: "result", Type: "int64"})
	if x.Equal(MustNew(other, Values(42))) {
		t.Fatalf("instances of different schemas compare equal")
	}
}

func TestCallerBuffersNotShared(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	named := MustNew(mixed, Field("digest", buf))
	positional := MustNew(mixed, Values(true, int8(0), uint32(0), float32(0), 0.0, buf))
	buf[0] = 9
	for _, m := range []*Message{named, positional} {
		if d, _ := m.Bytes("digest"); d[0] != 1 {
			t.Fatalf("digest follows caller buffer: % x", d)
		}
	}

	v, _ := named.Get("digest")
	v.([]byte)[1] = 9
	if d, _ := named.Bytes("digest"); d[1] != 2 {
		t.Fatalf("Get returned the stored slice: % x", d)
	}

	set := []byte{5, 6, 7, 8}
	if err := named.Set("digest", set); err != nil {
		t.Fatal(err)
	}
	set[0] = 0
	if d, _ := named.Bytes("digest"); d[0] != 5 {
		t.Fatalf("Set kept the caller slice: % x", d)
	}
}

func TestTypedGetterCategory(t *testing.T) {
	m := MustNew(mixed)
	if _, err := m.Int64("count"); !errors.Is(err, wire.ErrWrongCategory) {
		t.Fatalf("Int64 on uint32: %v", err)
	}
	if _, err := m.Float64("flag"); !errors.Is(err, wire.ErrWrongCategory) {
		t.Fatalf("Float64 on bool: %v", err)
	}
}

func TestString(t *testing.T) {
	m := MustNew(imageFilterRequest, Values(42))
	if m.String() != "filter_id: 42\n" {
		t.Fatalf("String() = %q", m.String())
	}
}

func BenchmarkSerialize(b *testing.B) {
	m := MustNew(mixed, Values(true, int8(-3), uint32(7), float32(0.5), 2.25, []byte{1, 2, 3, 4}))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := m.Serialize(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeserialize(b *testing.B) {
	data, _ := MustNew(mixed).Serialize()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Deserialize(mixed, data); err != nil {
			b.Fatal(err)
		}
	}
}
