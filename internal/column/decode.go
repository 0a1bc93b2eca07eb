package column

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	wideDecoding   = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	narrowDecoding = charmap.ISO8859_1
)

// decodeString decodes raw string bytes, UTF-16LE when wide and Latin-1
// otherwise. The result stops at the first NUL.
func decodeString(raw []byte, wide bool) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var (
		out []byte
		err error
	)
	if wide {
		if len(raw)%2 != 0 {
			return "", false
		}
		out, err = wideDecoding.NewDecoder().Bytes(raw)
	} else {
		out, err = narrowDecoding.NewDecoder().Bytes(raw)
	}
	if err != nil {
		return "", false
	}
	s := string(out)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s, true
}
