package wire

import "math"

// Decode reads one value of type t from the front of src. It consumes exactly
// t.Width() bytes and never looks past them; a shorter src is a
// *TruncatedBufferError.
func Decode(src []byte, t Type) (any, error) {
	w := t.Width()
	if len(src) < w {
		return nil, &TruncatedBufferError{Type: t, Need: w, Have: len(src)}
	}
	switch t.Kind {
	case KindBool:
		// Any non-zero byte reads as true, matching the C++ and Python readers.
		return src[0] != 0, nil
	case KindInt8:
		return int8(src[0]), nil
	case KindUint8:
		return src[0], nil
	case KindInt16:
		return int16(ByteOrder.Uint16(src)), nil
	case KindUint16:
		return ByteOrder.Uint16(src), nil
	case KindInt32:
		return int32(ByteOrder.Uint32(src)), nil
	case KindUint32:
		return ByteOrder.Uint32(src), nil
	case KindInt64:
		return int64(ByteOrder.Uint64(src)), nil
	case KindUint64:
		return ByteOrder.Uint64(src), nil
	case KindFloat32:
		return math.Float32frombits(ByteOrder.Uint32(src)), nil
	case KindFloat64:
		return math.Float64frombits(ByteOrder.Uint64(src)), nil
	case KindBytes:
		out := make([]byte, w)
		copy(out, src[:w])
		return out, nil
	}
	return nil, &UnsupportedTypeError{Spelling: t.String()}
}
