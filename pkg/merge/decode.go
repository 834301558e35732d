package merge

import (
	"strings"
	"unicode/utf8"
)

// Decode converts raw file bytes to a string, repairing invalid UTF-8
// according to policy: DecodeReplace substitutes U+FFFD for each invalid
// byte, DecodeSkip drops invalid bytes. Decode never fails.
func Decode(data []byte, policy DecodePolicy) string {
	if utf8.Valid(data) {
		return string(data)
	}

	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			if policy != DecodeSkip {
				b.WriteRune(utf8.RuneError)
			}
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}
