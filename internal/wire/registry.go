package wire

import "fmt"

// Direction distinguishes which side of the connection originates a message.
// Identifiers are only unique within a direction.
type Direction int

const (
	// Client marks messages sent from this client to the server.
	Client Direction = iota
	// Server marks messages sent from the server to this client.
	Server
)

func (d Direction) String() string {
	if d == Client {
		return "client"
	}
	return "server"
}

// Entry associates a message identifier with its layout and whether the
// message body is encrypted on the wire.
type Entry struct {
	ID        uint16
	Direction Direction
	Layout    *Layout
	Encrypted bool
}

// Registry is the lookup table mapping message identifiers to layouts, kept
// separately per direction. It is populated once during process start and
// treated as immutable afterwards; it is the only way identifiers are mapped
// to decoders.
type Registry struct {
	byID   map[Direction]map[uint16]*Entry
	byName map[Direction]map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{
		byID: map[Direction]map[uint16]*Entry{
			Client: {},
			Server: {},
		},
		byName: map[Direction]map[string]*Entry{
			Client: {},
			Server: {},
		},
	}
}

// Register adds a layout under (direction, id). Registering an identifier
// twice within a direction returns ErrDuplicateIdentifier; the catalog is
// static, so that's a bug in the caller rather than a runtime condition.
func (r *Registry) Register(d Direction, id uint16, layout *Layout, encrypted bool) error {
	if _, ok := r.byID[d][id]; ok {
		return fmt.Errorf("%w: 0x%04x (%s)", ErrDuplicateIdentifier, id, d)
	}
	entry := &Entry{ID: id, Direction: d, Layout: layout, Encrypted: encrypted}
	r.byID[d][id] = entry
	r.byName[d][layout.Name] = entry
	return nil
}

// Resolve returns the entry for (direction, id), or nil if the identifier
// is not known. Unknown identifiers are not an error; the protocol is only
// partially mapped.
func (r *Registry) Resolve(d Direction, id uint16) *Entry {
	return r.byID[d][id]
}

// ResolveName returns the entry whose layout has the given name, or nil.
// Used on the send path to recover a message's identifier and encryption
// flag from its layout.
func (r *Registry) ResolveName(d Direction, name string) *Entry {
	return r.byName[d][name]
}
