package wire

import "fmt"

// Layout is the ordered field schema for a message's fixed portion, plus an
// optional rule for the dynamic tail that follows it.
type Layout struct {
	Name   string
	Fields []Field
	Tail   *TailRule
}

// TailRule describes how the bytes remaining after a layout's fixed portion
// map to repeated sub-records. The repetition count is taken from one of the
// already-decoded fixed fields; the dynamic region is never self-describing.
type TailRule struct {
	// CountField names the fixed field whose value gives the number of
	// repetitions.
	CountField string
	// Record is the layout of each repeated record.
	Record *Layout
}

// NewLayout builds a layout from fields in wire order.
func NewLayout(name string, fields ...Field) *Layout {
	return &Layout{Name: name, Fields: fields}
}

// WithTail attaches a repeated-record tail rule and returns the layout.
func (l *Layout) WithTail(countField string, record *Layout) *Layout {
	l.Tail = &TailRule{CountField: countField, Record: record}
	return l
}

// Sizeof returns the byte width of the layout's fixed portion. Unknown
// trailing data attached to decoded CString values is not part of the
// layout and is excluded. Callers use this to slice a fixed-size prefix
// (or record) out of a longer buffer.
func (l *Layout) Sizeof() int {
	size := 0
	for _, f := range l.Fields {
		size += f.Size
	}
	return size
}

// New returns a message with every field set to its zero value.
func (l *Layout) New() *Message {
	m := &Message{Layout: l, Values: make(map[string]Value, len(l.Fields))}
	for _, f := range l.Fields {
		m.Values[f.Name] = Value{Kind: f.Kind}
	}
	return m
}

// Decode parses a message body against the layout. The fixed fields are
// consumed in declared order, then the tail rule (if any) consumes its
// records from the remainder. Bytes left over after the tail are kept in
// Message.Extra for the caller to log; stray trailing bytes are expected
// from a partially reverse-engineered protocol and are not an error.
func Decode(l *Layout, data []byte) (*Message, error) {
	if len(data) < l.Sizeof() {
		return nil, fmt.Errorf("%w: %s needs %d bytes, have %d",
			ErrInsufficientData, l.Name, l.Sizeof(), len(data))
	}

	m := &Message{Layout: l, Values: make(map[string]Value, len(l.Fields))}
	offset := 0
	for _, f := range l.Fields {
		v, n, err := f.Decode(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("decoding %s.%s: %w", l.Name, f.Name, err)
		}
		m.Values[f.Name] = v
		offset += n
	}

	remaining := data[offset:]
	if l.Tail != nil {
		consumed, err := decodeTail(l, m, remaining)
		if err != nil {
			return nil, err
		}
		remaining = remaining[consumed:]
	}
	if len(remaining) > 0 {
		m.Extra = append([]byte{}, remaining...)
	}
	return m, nil
}

func decodeTail(l *Layout, m *Message, remaining []byte) (int, error) {
	count := m.Uint(l.Tail.CountField)
	recordSize := l.Tail.Record.Sizeof()
	consumed := 0

	for i := uint64(0); i < count; i++ {
		if len(remaining) < recordSize {
			return 0, fmt.Errorf("%w: %s record %d needs %d bytes, have %d",
				ErrInsufficientData, l.Name, i, recordSize, len(remaining))
		}
		rec, err := Decode(l.Tail.Record, remaining[:recordSize])
		if err != nil {
			return 0, fmt.Errorf("decoding %s record %d: %w", l.Name, i, err)
		}
		m.Records = append(m.Records, rec)
		remaining = remaining[recordSize:]
		consumed += recordSize
	}
	return consumed, nil
}

// Encode serializes the message: each fixed field at its declared width in
// declared order, followed by the encoded tail records (if any). Extra bytes
// retained from decoding are not re-encoded.
func Encode(m *Message) ([]byte, error) {
	l := m.Layout
	out := make([]byte, 0, l.Sizeof())

	for _, f := range l.Fields {
		b, err := f.Encode(m.Values[f.Name])
		if err != nil {
			return nil, fmt.Errorf("encoding %s.%s: %w", l.Name, f.Name, err)
		}
		out = append(out, b...)
	}

	for i, rec := range m.Records {
		b, err := Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding %s record %d: %w", l.Name, i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}
