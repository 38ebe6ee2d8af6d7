package digest

import (
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// appendString appends s as a quoted JSON string. Invalid UTF-8 bytes are
// replaced with U+FFFD.
func appendString(b []byte, s string) []byte {
	b = append(b, '"')

	for i := 0; i < len(s); {
		c := s[i]

		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b = append(b, '\\', '"')
			case '\\':
				b = append(b, '\\', '\\')
			case '/':
				b = append(b, '\\', '/')
			case '\b':
				b = append(b, '\\', 'b')
			case '\f':
				b = append(b, '\\', 'f')
			case '\n':
				b = append(b, '\\', 'n')
			case '\r':
				b = append(b, '\\', 'r')
			case '\t':
				b = append(b, '\\', 't')
			default:
				if c < 0x20 {
					b = appendUnicode(b, rune(c))
				} else {
					b = append(b, c)
				}
			}
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			b = appendUnicode(b, r1)
			b = appendUnicode(b, r2)
			continue
		}

		b = appendUnicode(b, r)
	}

	return append(b, '"')
}

// appendUnicode appends the \uXXXX escape for a rune in the BMP.
func appendUnicode(b []byte, r rune) []byte {
	return append(b, '\\', 'u',
		hexDigits[(r>>12)&0xF],
		hexDigits[(r>>8)&0xF],
		hexDigits[(r>>4)&0xF],
		hexDigits[r&0xF],
	)
}
