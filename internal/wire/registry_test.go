package wire

import (
	"errors"
	"testing"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	layout := NewLayout("ping", U32("seq_id"))

	if err := r.Register(Client, 0x0100, layout, true); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	// Identifiers are scoped per direction; the same id in the other
	// direction is fine.
	if err := r.Register(Server, 0x0100, NewLayout("pong", U32("seq_id")), false); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	err := r.Register(Client, 0x0100, NewLayout("other", U8("x")), false)
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Errorf("Register() error = %v, want %v", err, ErrDuplicateIdentifier)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	layout := NewLayout("ping", U32("seq_id"))
	if err := r.Register(Client, 0x0100, layout, true); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	entry := r.Resolve(Client, 0x0100)
	if entry == nil {
		t.Fatal("Resolve() = nil, want entry")
	}
	if entry.Layout != layout || !entry.Encrypted {
		t.Errorf("Resolve() = %+v, want layout %q encrypted", entry, layout.Name)
	}

	if got := r.Resolve(Server, 0x0100); got != nil {
		t.Errorf("Resolve() across directions = %+v, want nil", got)
	}
	if got := r.Resolve(Client, 0xffff); got != nil {
		t.Errorf("Resolve() unknown id = %+v, want nil", got)
	}

	byName := r.ResolveName(Client, "ping")
	if byName != entry {
		t.Errorf("ResolveName() = %+v, want %+v", byName, entry)
	}
}
