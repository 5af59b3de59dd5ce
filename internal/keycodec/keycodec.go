// Package keycodec encodes and decodes the row identity stored in the
// index's key field.
//
// Three key kinds exist, fixed once per index from the key column's type:
// an opaque 8-byte row identifier (dbkey), a 16-byte binary/UUID value, or
// a base-10 integer. All three share the same Encode/Decode contract so
// the extractor, writer, and query executor can stay generic over Kind.
package keycodec

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// Kind identifies which of the three key shapes an index uses.
type Kind int

const (
	// DBKey is an opaque 8-byte row identifier (Firebird's RDB$DB_KEY).
	DBKey Kind = iota
	// UUID is a 16-byte binary value (uuid or char(16)/binary(16) octets).
	UUID
	// IntID is a base-10 integer with scale 0.
	IntID
)

func (k Kind) String() string {
	switch k {
	case DBKey:
		return "dbkey"
	case UUID:
		return "uuid"
	case IntID:
		return "id"
	default:
		return "unknown"
	}
}

// ByteLen returns the expected raw byte length for binary kinds, or 0 for
// IntID which has no fixed width.
func (k Kind) ByteLen() int {
	switch k {
	case DBKey:
		return 8
	case UUID:
		return 16
	default:
		return 0
	}
}

// Encode renders raw bytes (DBKey, UUID) as lowercase hex.
// For IntID, use EncodeInt instead.
func Encode(kind Kind, raw []byte) (string, error) {
	if kind == IntID {
		return "", ftserr.New(ftserr.MalformedKey, "Encode: use EncodeInt for the id key kind")
	}
	if want := kind.ByteLen(); want != 0 && len(raw) != want {
		return "", ftserr.New(ftserr.MalformedKey, "%s key must be %d bytes, got %d", kind, want, len(raw))
	}
	return hex.EncodeToString(raw), nil
}

// EncodeInt renders an integer key as base-10 decimal.
func EncodeInt(value int64) string {
	return strconv.FormatInt(value, 10)
}

// DBKeyFromRowID packs the host's integer row address into the opaque
// 8-byte dbkey form, big-endian so lexical term order follows row order.
func DBKeyFromRowID(rowID int64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(rowID))
	return raw
}

// RowIDFromDBKey unpacks an 8-byte dbkey back into the host's integer row
// address. Fails with *malformed-key* on a wrong-length value.
func RowIDFromDBKey(raw []byte) (int64, error) {
	if len(raw) != 8 {
		return 0, ftserr.New(ftserr.MalformedKey, "dbkey must be 8 bytes, got %d", len(raw))
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

// Decode parses the textual term form stored in the index back into raw
// bytes (DBKey, UUID) or an integer (IntID). It rejects odd-length hex,
// non-hex digits, and non-numeric integer strings with *malformed-key*.
func Decode(kind Kind, term string) ([]byte, int64, error) {
	switch kind {
	case DBKey, UUID:
		raw, err := decodeHex(kind, term)
		return raw, 0, err
	case IntID:
		n, err := decodeInt(term)
		return nil, n, err
	default:
		return nil, 0, ftserr.New(ftserr.MalformedKey, "unknown key kind %v", kind)
	}
}

func decodeHex(kind Kind, term string) ([]byte, error) {
	if len(term)%2 != 0 {
		return nil, ftserr.New(ftserr.MalformedKey, "odd-length hex string %q for %s key", term, kind)
	}
	raw, err := hex.DecodeString(strings.ToLower(term))
	if err != nil {
		return nil, ftserr.Wrap(ftserr.MalformedKey, err, "invalid hex digits in %q for %s key", term, kind)
	}
	if want := kind.ByteLen(); len(raw) != want {
		return nil, ftserr.New(ftserr.MalformedKey, "%s key must decode to %d bytes, got %d", kind, want, len(raw))
	}
	return raw, nil
}

func decodeInt(term string) (int64, error) {
	n, err := strconv.ParseInt(term, 10, 64)
	if err != nil {
		return 0, ftserr.Wrap(ftserr.MalformedKey, err, "invalid integer key %q", term)
	}
	return n, nil
}
