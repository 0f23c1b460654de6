package codec

import (
	"rosrpc/message"
	"rosrpc/schema"
)

// BinaryCodec writes the flat little-endian wire form. With Exact set,
// Decode rejects input longer than the schema's width instead of ignoring
// the trailing bytes.
type BinaryCodec struct {
	Exact bool
}

func (c *BinaryCodec) Encode(m *message.Message) ([]byte, error) {
	return m.Serialize()
}

func (c *BinaryCodec) Decode(s *schema.Schema, data []byte) (*message.Message, error) {
	if c.Exact {
		return message.DeserializeExact(s, data)
	}
	return message.Deserialize(s, data)
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}
