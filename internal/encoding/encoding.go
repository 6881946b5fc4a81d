// Package encoding detects and decodes the two text encodings Clan Lord
// clients have written over the years. Old Mac and Windows clients wrote
// Windows-1252 with 0xA5 as the bullet sentinel; newer clients write UTF-8.
package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Bullet is the sentinel rune that marks trainer, study and system lines
// after decoding.
const Bullet = '•'

// Decode converts raw log bytes to a UTF-8 string. A 0xA5 byte that is not
// part of a valid UTF-8 sequence means the file is legacy Windows-1252
// (where 0xA5 renders as the bullet); otherwise the bytes are taken as
// UTF-8 with invalid sequences replaced.
func Decode(raw []byte) string {
	if hasStandaloneSentinel(raw) {
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err == nil {
			// Windows-1252 maps 0xA5 to the yen sign; the game used the
			// slot for its bullet, so normalize.
			return strings.ReplaceAll(string(out), "¥", string(Bullet))
		}
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

// Lines splits decoded text into lines, tolerating CRLF and classic Mac CR
// endings. Empty trailing lines are dropped.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// hasStandaloneSentinel reports whether raw contains a 0xA5 byte outside any
// valid UTF-8 multi-byte sequence.
func hasStandaloneSentinel(raw []byte) bool {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			if raw[i] == 0xA5 {
				return true
			}
			i++
			continue
		}
		i += size
	}
	return false
}
