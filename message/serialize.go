package message

import (
	"bytes"
	"errors"
	"io"

	"rosrpc/schema"
	"rosrpc/wire"
)

// Serialize returns the wire form of m. A field whose value cannot be
// represented in its declared type fails the whole call with a
// *wire.EncodingError naming the message and field.
func (m *Message) Serialize() ([]byte, error) {
	return m.AppendTo(make([]byte, 0, m.schema.Width()))
}

// AppendTo appends the wire form of m to dst. On error dst is returned
// unchanged.
func (m *Message) AppendTo(dst []byte) ([]byte, error) {
	out := dst
	for i, v := range m.values {
		f := m.schema.Field(i)
		var err error
		out, err = wire.Encode(out, f.Primitive(), v)
		if err != nil {
			return dst, annotateEncoding(err, m.schema.Name(), f.Name)
		}
	}
	return out, nil
}

// SerializeTo writes the wire form of m to buf. Nothing is written on error.
func (m *Message) SerializeTo(buf *bytes.Buffer) error {
	data, err := m.Serialize()
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// Deserialize decodes an instance of s from the front of data. Exactly
// s.Width() bytes are consumed; anything after them belongs to the caller
// and is ignored. A short buffer is a *wire.TruncatedBufferError naming the
// field that did not fit, and no instance is returned.
func Deserialize(s *schema.Schema, data []byte) (*Message, error) {
	m := &Message{schema: s, values: make([]any, s.NumField())}
	off := 0
	for i := range m.values {
		f := s.Field(i)
		v, err := wire.Decode(data[off:], f.Primitive())
		if err != nil {
			var te *wire.TruncatedBufferError
			if errors.As(err, &te) {
				te.Message, te.Field = s.Name(), f.Name
			}
			return nil, err
		}
		m.values[i] = v
		off += f.Width()
	}
	return m, nil
}

// DeserializeExact is Deserialize for standalone buffers: data must be
// exactly s.Width() bytes long.
func DeserializeExact(s *schema.Schema, data []byte) (*Message, error) {
	m, err := Deserialize(s, data)
	if err != nil {
		return nil, err
	}
	if extra := len(data) - s.Width(); extra > 0 {
		return nil, &TrailingBytesError{Message: s.Name(), Width: s.Width(), Extra: extra}
	}
	return m, nil
}

// DeserializeReader decodes an instance of s from r, consuming exactly
// s.Width() bytes. On error r is left where it was.
func DeserializeReader(s *schema.Schema, r *bytes.Reader) (*Message, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, s.Width())
	n, _ := io.ReadFull(r, buf)
	m, err := Deserialize(s, buf[:n])
	if err != nil {
		if _, serr := r.Seek(start, io.SeekStart); serr != nil {
			return nil, serr
		}
		return nil, err
	}
	return m, nil
}
