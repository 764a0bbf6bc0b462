package msi

import "strings"

// Installer stream names pack two characters per UTF-16 unit using a
// 64-symbol alphabet. Units 0x3800-0x47ff carry two characters (first
// character in the low six bits), units 0x4800-0x483f carry one, and a
// leading 0x4840 marks a database table stream.
const streamAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz._"

const (
	pairBase   = 0x3800
	singleBase = 0x4800
	tableMark  = 0x4840
)

// decodeStreamName translates a raw compound-file entry name into the
// logical installer stream name. Table streams come back with a leading
// "!". Units outside the packed ranges pass through unchanged.
func decodeStreamName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= pairBase && r < singleBase:
			v := int(r - pairBase)
			b.WriteByte(streamAlphabet[v&0x3f])
			b.WriteByte(streamAlphabet[v>>6])
		case r >= singleBase && r < tableMark:
			b.WriteByte(streamAlphabet[int(r-singleBase)])
		case r == tableMark:
			b.WriteByte('!')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// encodeStreamName is the inverse of decodeStreamName. Characters
// outside the installer alphabet pass through unchanged.
func encodeStreamName(name string) string {
	var b strings.Builder

	rest := name
	if strings.HasPrefix(rest, "!") {
		b.WriteRune(tableMark)
		rest = rest[1:]
	}

	for i := 0; i < len(rest); {
		c1 := strings.IndexByte(streamAlphabet, rest[i])
		if c1 < 0 {
			b.WriteByte(rest[i])
			i++
			continue
		}
		if i+1 < len(rest) {
			if c2 := strings.IndexByte(streamAlphabet, rest[i+1]); c2 >= 0 {
				b.WriteRune(rune(pairBase + c1 + c2<<6))
				i += 2
				continue
			}
		}
		b.WriteRune(rune(singleBase + c1))
		i++
	}

	return b.String()
}
