package helpers

import (
	"strings"
	"unicode/utf8"
)

const hexChars = "0123456789ABCDEF"
const firstASCII = 0x20
const lastASCII = 0x7E

// QuoteSingle renders a JavaScript string literal using single quotes. Only
// characters that cannot appear literally in such a literal are escaped.
func QuoteSingle(text string) string {
	sb := strings.Builder{}
	sb.Grow(len(text) + 2)
	sb.WriteByte('\'')

	for i := 0; i < len(text); {
		c, width := utf8.DecodeRuneInString(text[i:])
		i += width

		switch c {
		case '\b':
			sb.WriteString("\\b")
		case '\f':
			sb.WriteString("\\f")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case '\\':
			sb.WriteString("\\\\")
		case '\'':
			sb.WriteString("\\'")
		case '\u2028', '\u2029':
			writeUnicodeEscape(&sb, c)
		default:
			if c < firstASCII || (c > lastASCII && c < 0xA0) {
				writeUnicodeEscape(&sb, c)
			} else {
				sb.WriteRune(c)
			}
		}
	}

	sb.WriteByte('\'')
	return sb.String()
}

func writeUnicodeEscape(sb *strings.Builder, c rune) {
	sb.WriteString("\\u")
	sb.WriteByte(hexChars[(c>>12)&15])
	sb.WriteByte(hexChars[(c>>8)&15])
	sb.WriteByte(hexChars[(c>>4)&15])
	sb.WriteByte(hexChars[c&15])
}
