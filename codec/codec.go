// Package codec converts message instances to and from bytes.
//
// The binary codec is the wire format proper. The JSON codec renders the
// same instance as an object for tools and logs; it is never what two
// endpoints exchange when they compare tokens.
package codec

import (
	"fmt"

	"rosrpc/config"
	"rosrpc/message"
	"rosrpc/schema"
)

type CodecType byte

const (
	CodecTypeJSON   CodecType = 0
	CodecTypeBinary CodecType = 1
)

func (t CodecType) String() string {
	switch t {
	case CodecTypeJSON:
		return config.CodecJSON
	case CodecTypeBinary:
		return config.CodecBinary
	}
	return fmt.Sprintf("codec(%d)", byte(t))
}

type Codec interface {
	Encode(m *message.Message) ([]byte, error)
	Decode(s *schema.Schema, data []byte) (*message.Message, error)
	Type() CodecType // 0=JSON, 1=Binary
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &BinaryCodec{}
}

// FromConfig returns the codec selected by cfg.
func FromConfig(cfg config.Codec) (Codec, error) {
	switch cfg.Type {
	case config.CodecBinary, "":
		return &BinaryCodec{Exact: cfg.Exact}, nil
	case config.CodecJSON:
		return &JSONCodec{}, nil
	}
	return nil, fmt.Errorf("codec: unknown codec %q", cfg.Type)
}
