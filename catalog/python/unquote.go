package python

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// unquote decodes one Python string literal token, prefix and quotes
// included.
func unquote(raw string) (string, error) {
	i := strings.IndexAny(raw, `'"`)
	if i < 0 {
		return "", fmt.Errorf("not a string literal: %s", raw)
	}
	prefix := strings.ToLower(raw[:i])
	if strings.ContainsAny(prefix, "f") {
		return "", fmt.Errorf("f-strings are not literals")
	}
	if strings.ContainsAny(prefix, "b") {
		return "", fmt.Errorf("bytes literals are not supported")
	}
	isRaw := strings.Contains(prefix, "r")

	body := raw[i:]
	quoteLen := 1
	if len(body) >= 6 && (strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`)) {
		quoteLen = 3
	}
	if len(body) < 2*quoteLen {
		return "", fmt.Errorf("unterminated string literal")
	}
	body = body[quoteLen : len(body)-quoteLen]

	if isRaw || !strings.Contains(body, `\`) {
		return body, nil
	}
	return unescape(body)
}

func unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte('\\')
			break
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+width >= len(s) {
				return "", fmt.Errorf(`truncated \%c escape`, e)
			}
			code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf(`invalid \%c escape: %w`, e, err)
			}
			if !utf8.ValidRune(rune(code)) {
				return "", fmt.Errorf(`invalid code point in \%c escape`, e)
			}
			b.WriteRune(rune(code))
			i += width
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			code, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(code))
			i = j - 1
		case 'N':
			return "", fmt.Errorf(`\N{...} escapes are not supported`)
		default:
			// unknown escapes are kept verbatim
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}
