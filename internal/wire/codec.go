// Package wire encodes the compact two-field stream notification used on
// binary transports. The layout is protobuf-compatible: field 1 is a varint
// int32, field 2 a length-delimited string.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldID   protowire.Number = 1
	fieldName protowire.Number = 2
)

// ErrMalformed is returned for truncated buffers, bad varints and invalid tags.
var ErrMalformed = errors.New("wire: malformed input")

// Message is the decoded form of a notification frame.
type Message struct {
	ID   int32
	Name string
}

// Append appends the encoding of m to dst and returns the extended buffer.
// A nil dst allocates. Zero-valued fields are omitted.
func Append(dst []byte, m Message) []byte {
	if m.ID != 0 {
		dst = protowire.AppendTag(dst, fieldID, protowire.VarintType)
		dst = protowire.AppendVarint(dst, uint64(int64(m.ID)))
	}
	if m.Name != "" {
		dst = protowire.AppendTag(dst, fieldName, protowire.BytesType)
		dst = protowire.AppendString(dst, m.Name)
	}
	return dst
}

// Marshal returns the encoding of m in a freshly allocated buffer.
func Marshal(m Message) []byte {
	return Append(make([]byte, 0, Size(m)), m)
}

// Size returns the encoded length of m.
func Size(m Message) int {
	n := 0
	if m.ID != 0 {
		n += protowire.SizeTag(fieldID) + protowire.SizeVarint(uint64(int64(m.ID)))
	}
	if m.Name != "" {
		n += protowire.SizeTag(fieldName) + protowire.SizeBytes(len(m.Name))
	}
	return n
}

// Unmarshal decodes b. Unknown fields, and known field numbers carrying an
// unexpected wire type, are skipped.
func Unmarshal(b []byte) (Message, error) {
	var m Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Message{}, malformed("tag", n)
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, vn := protowire.ConsumeVarint(b)
			if vn < 0 {
				return Message{}, malformed("id", vn)
			}
			m.ID = int32(v) //nolint:gosec // int32 fields truncate like protobuf
			b = b[vn:]
		case num == fieldName && typ == protowire.BytesType:
			s, sn := protowire.ConsumeString(b)
			if sn < 0 {
				return Message{}, malformed("name", sn)
			}
			m.Name = s
			b = b[sn:]
		default:
			fn := protowire.ConsumeFieldValue(num, typ, b)
			if fn < 0 {
				return Message{}, malformed(fmt.Sprintf("field %d", num), fn)
			}
			b = b[fn:]
		}
	}
	return m, nil
}

func malformed(what string, code int) error {
	return fmt.Errorf("wire.Unmarshal: %s: %w: %w", what, ErrMalformed, protowire.ParseError(code))
}
