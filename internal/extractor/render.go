package extractor

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ibsurgeon/fts-udr-go/internal/relation"
)

// streamBlobText converts a text BLOB's bytes to UTF-8 segment by
// segment: each segment is at most blobSegmentSize octets, split on a
// rune boundary so multi-byte sequences never straddle a conversion call.
func streamBlobText(charsetName string, raw []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		n := len(raw)
		if n > blobSegmentSize {
			n = blobSegmentSize
			for n > 0 && raw[n]&0xC0 == 0x80 {
				n--
			}
			if n == 0 {
				n = blobSegmentSize
			}
		}
		seg, err := ToUTF8(charsetName, raw[:n])
		if err != nil {
			return "", err
		}
		b.WriteString(seg)
		raw = raw[n:]
	}
	return b.String(), nil
}

// blobSegmentSize bounds how much of a text BLOB is converted per
// iteration.
const blobSegmentSize = 65535

// renderColumn coerces one scanned column value to the textual form the
// index stores: integers to decimal, floats to canonical form,
// dates/times to ISO 8601, binary to lowercase hex. Text delivered as
// bytes is converted segment by segment through streamBlobText; the
// value itself is already fully materialized by the *sql.Rows scan.
func renderColumn(ft relation.ColumnType, charsetName string, value interface{}) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}

	switch ft {
	case relation.TypeInteger:
		return renderInt(value), true, nil
	case relation.TypeFloat:
		return renderFloat(value), true, nil
	case relation.TypeDate:
		return renderTime(value, "2006-01-02")
	case relation.TypeTime:
		return renderTime(value, "15:04:05")
	case relation.TypeTimestamp:
		return renderTime(value, time.RFC3339)
	case relation.TypeBinary, relation.TypeBlob:
		raw, ok := value.([]byte)
		if !ok {
			return "", false, nil
		}
		if len(raw) == 0 {
			return "", false, nil
		}
		return hex.EncodeToString(raw), true, nil
	case relation.TypeText:
		switch v := value.(type) {
		case []byte:
			s, err := streamBlobText(charsetName, v)
			if err != nil {
				return "", false, err
			}
			return s, s != "", nil
		case string:
			return v, v != "", nil
		default:
			return fmt.Sprintf("%v", v), true, nil
		}
	default:
		return fmt.Sprintf("%v", value), true, nil
	}
}

func renderInt(value interface{}) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderFloat(value interface{}) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderTime(value interface{}, layout string) (string, bool, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(layout), true, nil
	case string:
		return v, v != "", nil
	case []byte:
		s := string(v)
		return s, s != "", nil
	default:
		return "", false, nil
	}
}

// scanValue is a sql.Scanner-friendly container used when the extractor
// doesn't know a column's driver-native Go type ahead of time.
type scanValue struct {
	v interface{}
}

func (s *scanValue) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		cp := make([]byte, len(v))
		copy(cp, v)
		s.v = cp
	default:
		s.v = v
	}
	return nil
}

var _ sql.Scanner = (*scanValue)(nil)
