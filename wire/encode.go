package wire

import (
	"math"
	"reflect"
)

// Encode appends the wire form of v, declared as t, to dst.
//
// Integer fields accept any Go integer whose value fits the declared width,
// float fields accept float32 or float64, bool fields accept bool and byte
// sequences accept a []byte (or [N]byte) of exactly the declared length.
// Named types over those kinds are accepted too.
// Nothing is coerced across categories. On error dst is returned unchanged.
func Encode(dst []byte, t Type, v any) ([]byte, error) {
	n, err := Normalize(t, v)
	if err != nil {
		return dst, err
	}
	switch x := n.(type) {
	case bool:
		if x {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case int8:
		return append(dst, byte(x)), nil
	case uint8:
		return append(dst, x), nil
	case int16:
		return ByteOrder.AppendUint16(dst, uint16(x)), nil
	case uint16:
		return ByteOrder.AppendUint16(dst, x), nil
	case int32:
		return ByteOrder.AppendUint32(dst, uint32(x)), nil
	case uint32:
		return ByteOrder.AppendUint32(dst, x), nil
	case int64:
		return ByteOrder.AppendUint64(dst, uint64(x)), nil
	case uint64:
		return ByteOrder.AppendUint64(dst, x), nil
	case float32:
		return ByteOrder.AppendUint32(dst, math.Float32bits(x)), nil
	case float64:
		return ByteOrder.AppendUint64(dst, math.Float64bits(x)), nil
	case []byte:
		return append(dst, x...), nil
	}
	return dst, &EncodingError{Type: t, Value: v, Cause: ErrWrongCategory}
}

// Normalize converts v to the canonical Go type for t (the type Decode
// returns), applying the same checks as Encode.
func Normalize(t Type, v any) (any, error) {
	switch {
	case t.Kind == KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
		return nil, &EncodingError{Type: t, Value: v, Cause: ErrWrongCategory}
	case t.Kind.IsSigned(), t.Kind.IsUnsigned():
		return normalizeInt(t, v)
	case t.Kind.IsFloat():
		return normalizeFloat(t, v)
	case t.Kind == KindBytes:
		return normalizeBytes(t, v)
	}
	return nil, &EncodingError{Type: t, Value: v, Cause: ErrWrongCategory}
}

// Zero returns the default value of t: 0, 0.0, false, or Len zero bytes.
func Zero(t Type) any {
	switch t.Kind {
	case KindBool:
		return false
	case KindInt8:
		return int8(0)
	case KindUint8:
		return uint8(0)
	case KindInt16:
		return int16(0)
	case KindUint16:
		return uint16(0)
	case KindInt32:
		return int32(0)
	case KindUint32:
		return uint32(0)
	case KindInt64:
		return int64(0)
	case KindUint64:
		return uint64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindBytes:
		return make([]byte, t.Len)
	}
	return nil
}

// integerOf unpacks any Go integer. signed reports which of i or u holds it.
func integerOf(v any) (i int64, u uint64, signed, ok bool) {
	switch x := v.(type) {
	case int:
		return int64(x), 0, true, true
	case int8:
		return int64(x), 0, true, true
	case int16:
		return int64(x), 0, true, true
	case int32:
		return int64(x), 0, true, true
	case int64:
		return x, 0, true, true
	case uint:
		return 0, uint64(x), false, true
	case uint8:
		return 0, uint64(x), false, true
	case uint16:
		return 0, uint64(x), false, true
	case uint32:
		return 0, uint64(x), false, true
	case uint64:
		return 0, x, false, true
	}
	// Named integer types such as "type ID int64".
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), 0, true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 0, rv.Uint(), false, true
	}
	return 0, 0, false, false
}

func normalizeInt(t Type, v any) (any, error) {
	i, u, signed, ok := integerOf(v)
	if !ok {
		return nil, &EncodingError{Type: t, Value: v, Cause: ErrWrongCategory}
	}
	bits := uint(t.Width() * 8)

	if t.Kind.IsSigned() {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if !signed {
			if u > uint64(hi) {
				return nil, &EncodingError{Type: t, Value: v, Cause: ErrOutOfRange}
			}
			i = int64(u)
		}
		if i < lo || i > hi {
			return nil, &EncodingError{Type: t, Value: v, Cause: ErrOutOfRange}
		}
		switch t.Kind {
		case KindInt8:
			return int8(i), nil
		case KindInt16:
			return int16(i), nil
		case KindInt32:
			return int32(i), nil
		default:
			return i, nil
		}
	}

	hi := uint64(math.MaxUint64) >> (64 - bits)
	if signed {
		if i < 0 {
			return nil, &EncodingError{Type: t, Value: v, Cause: ErrOutOfRange}
		}
		u = uint64(i)
	}
	if u > hi {
		return nil, &EncodingError{Type: t, Value: v, Cause: ErrOutOfRange}
	}
	switch t.Kind {
	case KindUint8:
		return uint8(u), nil
	case KindUint16:
		return uint16(u), nil
	case KindUint32:
		return uint32(u), nil
	default:
		return u, nil
	}
}

func normalizeFloat(t Type, v any) (any, error) {
	var f float64
	switch x := v.(type) {
	case float32:
		if t.Kind == KindFloat32 {
			return x, nil
		}
		return float64(x), nil
	case float64:
		f = x
	default:
		rv := reflect.ValueOf(v)
		if k := rv.Kind(); k != reflect.Float32 && k != reflect.Float64 {
			return nil, &EncodingError{Type: t, Value: v, Cause: ErrWrongCategory}
		}
		f = rv.Float()
	}
	if t.Kind == KindFloat64 {
		return f, nil
	}
	// NaN and the infinities survive the narrowing; finite overflow does not.
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return nil, &EncodingError{Type: t, Value: v, Cause: ErrOutOfRange}
	}
	return float32(f), nil
}

func normalizeBytes(t Type, v any) (any, error) {
	var b []byte
	switch x := v.(type) {
	case []byte:
		b = x
	default:
		rv := reflect.ValueOf(v)
		if k := rv.Kind(); (k != reflect.Array && k != reflect.Slice) || rv.Type().Elem().Kind() != reflect.Uint8 {
			return nil, &EncodingError{Type: t, Value: v, Cause: ErrWrongCategory}
		}
		b = make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
	}
	if len(b) != t.Len {
		return nil, &EncodingError{Type: t, Value: v, Cause: ErrLength}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
