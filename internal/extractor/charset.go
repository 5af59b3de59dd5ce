package extractor

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// charsets maps a host-DB charset name (Firebird-style vocabulary, for
// compatibility with catalogs that record one) to the golang.org/x/text
// decoder that recovers UTF-8 from it.
var charsets = map[string]encoding.Encoding{
	"UTF8":        unicode.UTF8,
	"UNICODE_FSS": unicode.UTF8,
	"NONE":        charmap.Windows1252, // octet stream, best-effort
	"ASCII":       charmap.Windows1252,
	"WIN1250":     charmap.Windows1250,
	"WIN1251":     charmap.Windows1251,
	"WIN1252":     charmap.Windows1252,
	"WIN1253":     charmap.Windows1253,
	"WIN1254":     charmap.Windows1254,
	"ISO8859_1":   charmap.ISO8859_1,
	"ISO8859_2":   charmap.ISO8859_2,
	"KOI8R":       charmap.KOI8R,
	"KOI8U":       charmap.KOI8U,
	"BIG_5":       traditionalchinese.Big5,
	"GB18030":     simplifiedchinese.GB18030,
	"EUCJ_0208":   japanese.EUCJP,
	"SJIS_0208":   japanese.ShiftJIS,
	"KSC_5601":    korean.EUCKR,
}

// ToUTF8 decodes raw bytes stored under charsetName into a UTF-8 string.
// Unrecognised charset names fall back to UTF-8 unchanged, since the host
// DB in this rewrite (SQLite) stores text natively in UTF-8 regardless of
// the column's declared charset metadata.
func ToUTF8(charsetName string, raw []byte) (string, error) {
	enc, ok := charsets[strings.ToUpper(strings.TrimSpace(charsetName))]
	if !ok || enc == unicode.UTF8 {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", ftserr.Wrap(ftserr.IndexLibraryError, err, "decoding charset %q", charsetName)
	}
	return string(out), nil
}
