package wire

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var testRecord = NewLayout("test_record",
	U32("id"),
	CStr("name", 8),
)

var testLayout = NewLayout("test_message",
	U32("kind"),
	U16("count"),
	String("label", 6),
).WithTail("count", testRecord)

func TestLayout_Sizeof(t *testing.T) {
	if got := testLayout.Sizeof(); got != 12 {
		t.Errorf("Sizeof() = %d, want 12", got)
	}
	if got := testRecord.Sizeof(); got != 12 {
		t.Errorf("Sizeof() = %d, want 12", got)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	msg := testLayout.New().
		SetUint("kind", 7).
		SetUint("count", 2).
		SetString("label", "abc")
	msg.Records = append(msg.Records,
		testRecord.New().SetUint("id", 1).SetString("name", "first"),
		testRecord.New().SetUint("id", 2).SetString("name", "second"),
	)

	encoded, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	if len(encoded) != 12+2*12 {
		t.Fatalf("Encode() produced %d bytes, want %d", len(encoded), 12+2*12)
	}

	decoded, err := Decode(testLayout, encoded)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}

	if diff := cmp.Diff(msg.Values, decoded.Values, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("fixed fields mismatch (-want +got):\n%s", diff)
	}
	if len(decoded.Records) != 2 {
		t.Fatalf("Decode() produced %d records, want 2", len(decoded.Records))
	}
	for i := range msg.Records {
		if diff := cmp.Diff(msg.Records[i].Values, decoded.Records[i].Values, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("record %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestDecode_InsufficientData(t *testing.T) {
	_, err := Decode(testLayout, make([]byte, 11))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Decode() error = %v, want %v", err, ErrInsufficientData)
	}
}

func TestDecode_ShortTail(t *testing.T) {
	msg := testLayout.New().SetUint("count", 3)
	encoded, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	// The fixed portion claims three records but the body carries none.
	_, err = Decode(testLayout, encoded)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Decode() error = %v, want %v", err, ErrInsufficientData)
	}
}

func TestDecode_LeftoverBytesTolerated(t *testing.T) {
	msg := testLayout.New().SetUint("count", 0)
	encoded, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	encoded = append(encoded, 0xde, 0xad, 0xbe, 0xef)

	decoded, err := Decode(testLayout, encoded)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]byte{0xde, 0xad, 0xbe, 0xef}, decoded.Extra); diff != "" {
		t.Errorf("Extra mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_LayoutWithoutTailIgnoresRemainder(t *testing.T) {
	plain := NewLayout("plain", U32("a"))
	decoded, err := Decode(plain, []byte{1, 0, 0, 0, 9, 9})
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if decoded.Uint("a") != 1 {
		t.Errorf("Uint(a) = %d, want 1", decoded.Uint("a"))
	}
	if len(decoded.Extra) != 2 {
		t.Errorf("Extra length = %d, want 2", len(decoded.Extra))
	}
}
