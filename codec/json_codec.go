package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"rosrpc/message"
	"rosrpc/schema"
	"rosrpc/wire"
)

// JSONCodec renders a message as a JSON object with one member per field,
// in declared order. Byte sequences are base64 strings. Decoding applies
// the same range and category rules as the binary codec, and fields left
// out of the object take their default values.
type JSONCodec struct{}

func (c *JSONCodec) Encode(m *message.Message) ([]byte, error) {
	s := m.Schema()
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range m.Values() {
		f := s.Field(i)
		n, err := wire.Normalize(f.Primitive(), v)
		if err != nil {
			if ee, ok := err.(*wire.EncodingError); ok {
				ee.Message, ee.Field = s.Name(), f.Name
			}
			return nil, err
		}
		val, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("codec: %s.%s: %w", s.Name(), f.Name, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(f.Name)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *JSONCodec) Decode(s *schema.Schema, data []byte) (*message.Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var members map[string]json.RawMessage
	if err := dec.Decode(&members); err != nil {
		return nil, fmt.Errorf("codec: %s: %w", s.Name(), err)
	}
	if members == nil {
		return nil, fmt.Errorf("codec: %s: expected a JSON object, got null", s.Name())
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("codec: %s: unexpected data after the JSON object", s.Name())
	}

	opts := make([]message.Option, 0, len(members))
	for name, raw := range members {
		f, _, ok := s.Lookup(name)
		if !ok {
			return nil, &message.UnknownFieldError{Message: s.Name(), Field: name}
		}
		v, err := decodeJSONValue(f.Primitive(), raw)
		if err != nil {
			if ee, ok := err.(*wire.EncodingError); ok {
				ee.Message, ee.Field = s.Name(), f.Name
				return nil, ee
			}
			return nil, fmt.Errorf("codec: %s.%s: %w", s.Name(), f.Name, err)
		}
		opts = append(opts, message.Field(name, v))
	}
	return message.New(s, opts...)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}

func decodeJSONValue(t wire.Type, raw json.RawMessage) (any, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, &wire.EncodingError{Type: t, Value: nil, Cause: wire.ErrWrongCategory}
	}
	var (
		v   any
		err error
	)
	switch {
	case t.Kind == wire.KindBool:
		var b bool
		err = json.Unmarshal(raw, &b)
		v = b
	case t.Kind == wire.KindBytes:
		var b []byte
		err = json.Unmarshal(raw, &b)
		v = b
	default:
		text := string(bytes.TrimSpace(raw))
		if text == "" || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) {
			return nil, &wire.EncodingError{Type: t, Value: text, Cause: wire.ErrWrongCategory}
		}
		v, err = parseNumber(t, json.Number(text))
	}
	if err != nil {
		return nil, err
	}
	return wire.Normalize(t, v)
}

func parseNumber(t wire.Type, n json.Number) (any, error) {
	switch {
	case t.Kind.IsSigned():
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return nil, &wire.EncodingError{Type: t, Value: n.String(), Cause: numberCause(err)}
		}
		return i, nil
	case t.Kind.IsUnsigned():
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			if _, ierr := strconv.ParseInt(n.String(), 10, 64); ierr == nil {
				return nil, &wire.EncodingError{Type: t, Value: n.String(), Cause: wire.ErrOutOfRange}
			}
			return nil, &wire.EncodingError{Type: t, Value: n.String(), Cause: numberCause(err)}
		}
		return u, nil
	default:
		f, err := n.Float64()
		if err != nil {
			return nil, &wire.EncodingError{Type: t, Value: n.String(), Cause: numberCause(err)}
		}
		return f, nil
	}
}

// numberCause separates numbers too large for 64 bits from non-integers.
func numberCause(err error) error {
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return wire.ErrOutOfRange
	}
	return wire.ErrWrongCategory
}
