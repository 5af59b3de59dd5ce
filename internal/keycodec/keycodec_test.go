package keycodec

import (
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  []byte
	}{
		{DBKey, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
		{UUID, []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
	}

	for _, c := range cases {
		term, err := Encode(c.kind, c.raw)
		if err != nil {
			t.Fatalf("Encode(%v): %v", c.kind, err)
		}
		if len(term) != 2*len(c.raw) {
			t.Errorf("Encode(%v) length = %d, want %d", c.kind, len(term), 2*len(c.raw))
		}
		if term != stringsToLowerHex(term) {
			t.Errorf("Encode(%v) = %q, want lowercase", c.kind, term)
		}

		gotRaw, _, err := Decode(c.kind, term)
		if err != nil {
			t.Fatalf("Decode(%v, %q): %v", c.kind, term, err)
		}
		if string(gotRaw) != string(c.raw) {
			t.Errorf("Decode(Encode(x)) = %v, want %v", gotRaw, c.raw)
		}
	}
}

func TestEncodeDecodeIntRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -987654321} {
		term := EncodeInt(n)
		_, got, err := Decode(IntID, term)
		if err != nil {
			t.Fatalf("Decode(IntID, %q): %v", term, err)
		}
		if got != n {
			t.Errorf("Decode(EncodeInt(%d)) = %d", n, got)
		}
	}
}

func TestDecodeRejectsOddLengthHex(t *testing.T) {
	_, _, err := Decode(UUID, "abc")
	if !ftserr.Is(err, ftserr.MalformedKey) {
		t.Fatalf("expected MalformedKey, got %v", err)
	}
}

func TestDecodeRejectsNonHexDigits(t *testing.T) {
	_, _, err := Decode(DBKey, "zz00000000000000")
	if !ftserr.Is(err, ftserr.MalformedKey) {
		t.Fatalf("expected MalformedKey, got %v", err)
	}
}

func TestDecodeRejectsNonNumericInt(t *testing.T) {
	_, _, err := Decode(IntID, "12a")
	if !ftserr.Is(err, ftserr.MalformedKey) {
		t.Fatalf("expected MalformedKey, got %v", err)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, _, err := Decode(DBKey, "aabb") // only 2 bytes, want 8
	if !ftserr.Is(err, ftserr.MalformedKey) {
		t.Fatalf("expected MalformedKey, got %v", err)
	}
}

func TestDBKeyRowIDRoundTrip(t *testing.T) {
	for _, rowID := range []int64{0, 1, 255, 1 << 40, -1} {
		raw := DBKeyFromRowID(rowID)
		if len(raw) != 8 {
			t.Fatalf("DBKeyFromRowID(%d) length = %d, want 8", rowID, len(raw))
		}
		got, err := RowIDFromDBKey(raw)
		if err != nil {
			t.Fatalf("RowIDFromDBKey: %v", err)
		}
		if got != rowID {
			t.Errorf("round trip of %d = %d", rowID, got)
		}
	}

	if _, err := RowIDFromDBKey([]byte{1, 2, 3}); !ftserr.Is(err, ftserr.MalformedKey) {
		t.Fatalf("short dbkey: expected MalformedKey, got %v", err)
	}
}

func stringsToLowerHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
