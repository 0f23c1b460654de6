package schema

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// TokenSize is the size of an identity token in bytes.
const TokenSize = md5.Size

// Token is the content-derived identity of a message or service type: the
// MD5 digest of its canonical text. Two endpoints agree on a type's layout
// exactly when their tokens are equal, so the digest must stay bit-compatible
// with every other generator of the same definitions.
type Token [TokenSize]byte

// Digest returns the token of a canonical text.
func Digest(text string) Token {
	return Token(md5.Sum([]byte(text)))
}

// ParseToken parses the 32 hex character form produced by Token.String.
func ParseToken(s string) (Token, error) {
	var t Token
	if len(s) != hex.EncodedLen(TokenSize) {
		return Token{}, fmt.Errorf("schema: token %q: want %d hex characters", s, hex.EncodedLen(TokenSize))
	}
	if _, err := hex.Decode(t[:], []byte(s)); err != nil {
		return Token{}, fmt.Errorf("schema: token %q: %w", s, err)
	}
	return t, nil
}

// String returns the lowercase hex form, e.g. "df5b073eb2c62b846cf973c597df7ad7".
func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// IsZero reports whether t is the zero token.
func (t Token) IsZero() bool {
	return t == Token{}
}

// Halves returns the token as two big-endian 64-bit words, the form C++
// generated traits expose as static_value1 and static_value2.
func (t Token) Halves() (hi, lo uint64) {
	return binary.BigEndian.Uint64(t[:8]), binary.BigEndian.Uint64(t[8:])
}

// Multihash wraps the digest as an md5 multihash.
func (t Token) Multihash() multihash.Multihash {
	mh, err := multihash.Encode(t[:], multihash.MD5)
	if err != nil {
		// Encode only fails for unknown codes or oversized digests.
		panic(fmt.Sprintf("schema: md5 multihash: %v", err))
	}
	return multihash.Multihash(mh)
}

// CID returns a CIDv1 (raw codec) addressing the canonical text by its md5
// multihash.
func (t Token) CID() cid.Cid {
	return cid.NewCidV1(cid.Raw, t.Multihash())
}

// TokenFromCID extracts the token from a CID produced by Token.CID.
func TokenFromCID(c cid.Cid) (Token, error) {
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return Token{}, fmt.Errorf("schema: cid %s: %w", c, err)
	}
	if dec.Code != multihash.MD5 || len(dec.Digest) != TokenSize {
		return Token{}, fmt.Errorf("schema: cid %s: not an md5 identity token", c)
	}
	var t Token
	copy(t[:], dec.Digest)
	return t, nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Token) UnmarshalText(b []byte) error {
	parsed, err := ParseToken(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
