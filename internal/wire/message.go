package wire

import "fmt"

// Message is a single protocol message: a layout paired with a value for
// each of its fixed fields and any repeated records decoded from the
// dynamic tail.
type Message struct {
	Layout *Layout
	Values map[string]Value
	// Records holds the decoded tail records, in wire order.
	Records []*Message
	// Extra holds bytes that followed the tail rule's consumption. They are
	// surfaced for debug logging only and dropped on re-encode.
	Extra []byte
}

// Accessors return the zero value for fields that don't exist; setters on
// undeclared fields panic since that's always a programming error in the
// message catalog.

func (m *Message) Uint(name string) uint64    { return m.Values[name].Uint }
func (m *Message) Int(name string) int64      { return m.Values[name].Int }
func (m *Message) Float(name string) float64  { return m.Values[name].Float }
func (m *Message) String(name string) string  { return m.Values[name].Str }
func (m *Message) Bytes(name string) []byte   { return m.Values[name].Bytes }
func (m *Message) Unknown(name string) []byte { return m.Values[name].Unknown }

func (m *Message) SetUint(name string, v uint64) *Message {
	val := m.value(name)
	val.Uint = v
	m.Values[name] = val
	return m
}

func (m *Message) SetInt(name string, v int64) *Message {
	val := m.value(name)
	val.Int = v
	m.Values[name] = val
	return m
}

func (m *Message) SetFloat(name string, v float64) *Message {
	val := m.value(name)
	val.Float = v
	m.Values[name] = val
	return m
}

func (m *Message) SetString(name string, v string) *Message {
	val := m.value(name)
	val.Str = v
	m.Values[name] = val
	return m
}

func (m *Message) SetBytes(name string, v []byte) *Message {
	val := m.value(name)
	val.Bytes = v
	m.Values[name] = val
	return m
}

func (m *Message) value(name string) Value {
	for _, f := range m.Layout.Fields {
		if f.Name == name {
			v := m.Values[name]
			v.Kind = f.Kind
			return v
		}
	}
	panic(fmt.Sprintf("message layout %s has no field %q", m.Layout.Name, name))
}
