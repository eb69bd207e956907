// Package packets is the message catalog for the Castle Clash protocol:
// the identifiers and layouts recovered so far for both directions, and the
// registry construction that makes them resolvable.
package packets

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the length of the frame header shared by every message.
const HeaderSize = 4

// Header precedes every frame on the wire: the total frame length
// (including the header itself) followed by the message identifier, both
// little-endian.
type Header struct {
	Size uint16
	ID   uint16
}

// ParseHeader reads a frame header from the front of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("header needs %d bytes, have %d", HeaderSize, len(data))
	}
	return Header{
		Size: binary.LittleEndian.Uint16(data[0:2]),
		ID:   binary.LittleEndian.Uint16(data[2:4]),
	}, nil
}

// PutHeader prepends a frame header to body. Size is computed from the body
// length.
func PutHeader(id uint16, body []byte) []byte {
	frame := make([]byte, HeaderSize+len(body))
	binary.LittleEndian.PutUint16(frame[0:2], uint16(len(body)+HeaderSize))
	binary.LittleEndian.PutUint16(frame[2:4], id)
	copy(frame[HeaderSize:], body)
	return frame
}
