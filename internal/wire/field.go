// Package wire implements the binary serialization layer for the Castle
// Clash network protocol: field-level encoding, message layouts with
// optional dynamic tails, and the identifier registry.
//
// All multi-byte integers on the wire are little-endian.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies the shape of a field on the wire. The set is closed; the
// protocol only ever uses these shapes and the codec dispatches on them
// explicitly rather than reflecting over Go types.
type Kind int

const (
	// KindUint is an unsigned integer of 1, 2, 4, or 8 bytes.
	KindUint Kind = iota
	// KindInt is a signed (two's complement) integer of 1, 2, 4, or 8 bytes.
	KindInt
	// KindFloat is an IEEE 754 float of 4 or 8 bytes.
	KindFloat
	// KindString is a UTF-8 string occupying a fixed-size region, right-padded
	// with zero bytes.
	KindString
	// KindBytes is a raw byte block occupying a fixed-size region, right-padded
	// with zero bytes.
	KindBytes
	// KindCString is a zero-terminated UTF-8 string inside a fixed-size region.
	// Bytes between the terminator and the end of the region are kept verbatim
	// so that partially understood messages can be re-encoded byte-for-byte.
	KindCString
)

// Field describes a single fixed-width field within a message layout.
type Field struct {
	Name string
	Kind Kind
	// Size is the number of bytes the field occupies on the wire.
	Size int
}

// Value is the decoded logical value of a field. Exactly one of the value
// slots is meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Uint  uint64
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	// Unknown holds the bytes found after a CString's terminator, minus any
	// trailing zero padding. Preserved so encoding reproduces the original
	// region even when the content isn't understood.
	Unknown []byte
}

func U8(name string) Field  { return Field{Name: name, Kind: KindUint, Size: 1} }
func U16(name string) Field { return Field{Name: name, Kind: KindUint, Size: 2} }
func U32(name string) Field { return Field{Name: name, Kind: KindUint, Size: 4} }
func U64(name string) Field { return Field{Name: name, Kind: KindUint, Size: 8} }
func I8(name string) Field  { return Field{Name: name, Kind: KindInt, Size: 1} }
func I16(name string) Field { return Field{Name: name, Kind: KindInt, Size: 2} }
func I32(name string) Field { return Field{Name: name, Kind: KindInt, Size: 4} }
func I64(name string) Field { return Field{Name: name, Kind: KindInt, Size: 8} }
func F32(name string) Field { return Field{Name: name, Kind: KindFloat, Size: 4} }
func F64(name string) Field { return Field{Name: name, Kind: KindFloat, Size: 8} }

// String declares a fixed-size string field of the given region width.
func String(name string, size int) Field {
	return Field{Name: name, Kind: KindString, Size: size}
}

// Bytes declares a fixed-size raw byte field of the given region width.
func Bytes(name string, size int) Field {
	return Field{Name: name, Kind: KindBytes, Size: size}
}

// CStr declares a zero-terminated string field inside a region of the given
// width.
func CStr(name string, size int) Field {
	return Field{Name: name, Kind: KindCString, Size: size}
}

// Decode reads the field's value from the front of data, returning the
// logical value and the number of bytes consumed (always the field's
// declared size). Returns ErrTruncatedInput if data is too short.
func (f Field) Decode(data []byte) (Value, int, error) {
	if len(data) < f.Size {
		return Value{}, 0, fmt.Errorf("%w: %s needs %d bytes, have %d",
			ErrTruncatedInput, f.Name, f.Size, len(data))
	}
	region := data[:f.Size]
	v := Value{Kind: f.Kind}

	switch f.Kind {
	case KindUint:
		v.Uint = readUint(region)
	case KindInt:
		v.Int = readInt(region)
	case KindFloat:
		if f.Size == 4 {
			v.Float = float64(math.Float32frombits(binary.LittleEndian.Uint32(region)))
		} else {
			v.Float = math.Float64frombits(binary.LittleEndian.Uint64(region))
		}
	case KindString:
		v.Str = string(stripPadding(region))
	case KindBytes:
		v.Bytes = append([]byte{}, stripPadding(region)...)
	case KindCString:
		idx := bytes.IndexByte(region, 0)
		if idx < 0 {
			v.Str = string(region)
		} else {
			v.Str = string(region[:idx])
			v.Unknown = append([]byte{}, stripPadding(region[idx+1:])...)
		}
	}
	return v, f.Size, nil
}

// Encode writes the value to a new byte slice of exactly the field's
// declared size, zero-padding as necessary. Returns ErrFieldTooLarge if the
// value does not fit.
func (f Field) Encode(v Value) ([]byte, error) {
	out := make([]byte, f.Size)

	switch f.Kind {
	case KindUint:
		writeUint(out, v.Uint)
	case KindInt:
		writeUint(out, uint64(v.Int))
	case KindFloat:
		if f.Size == 4 {
			binary.LittleEndian.PutUint32(out, math.Float32bits(float32(v.Float)))
		} else {
			binary.LittleEndian.PutUint64(out, math.Float64bits(v.Float))
		}
	case KindString:
		if len(v.Str) > f.Size {
			return nil, fmt.Errorf("%w: %s is %d bytes, max %d",
				ErrFieldTooLarge, f.Name, len(v.Str), f.Size)
		}
		copy(out, v.Str)
	case KindBytes:
		if len(v.Bytes) > f.Size {
			return nil, fmt.Errorf("%w: %s is %d bytes, max %d",
				ErrFieldTooLarge, f.Name, len(v.Bytes), f.Size)
		}
		copy(out, v.Bytes)
	case KindCString:
		// A string filling the whole region has no terminator on the wire;
		// re-encode it without one so such regions survive a round trip.
		if len(v.Str) == f.Size && len(v.Unknown) == 0 {
			copy(out, v.Str)
			return out, nil
		}
		if len(v.Str)+1+len(v.Unknown) > f.Size {
			return nil, fmt.Errorf("%w: %s is %d bytes with terminator and trailing data, max %d",
				ErrFieldTooLarge, f.Name, len(v.Str)+1+len(v.Unknown), f.Size)
		}
		copy(out, v.Str)
		copy(out[len(v.Str)+1:], v.Unknown)
	}
	return out, nil
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func readInt(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	default:
		return int64(binary.LittleEndian.Uint64(b))
	}
}

func writeUint(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// stripPadding returns b without its trailing zero bytes.
func stripPadding(b []byte) []byte {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			return b[:i+1]
		}
	}
	return []byte{}
}
