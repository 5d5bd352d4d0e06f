package http

import (
	"errors"
	"strings"
)

// ErrInvalidPercentEncoding is a Protocol error per spec.md §7.
var ErrInvalidPercentEncoding = errors.New("http: invalid percent-encoding")

// percentDecode reverses percentEncode; percentDecode(percentEncode(s))
// is the identity on all ASCII strings, per spec.md §8's round-trip law.
func percentDecode(s string) (string, error) {
	if !strings.ContainsRune(s, '%') {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			if c == '+' {
				b.WriteByte(' ')
			} else {
				b.WriteByte(c)
			}
			continue
		}
		if i+2 >= len(s) {
			return "", ErrInvalidPercentEncoding
		}
		hi, ok1 := hexVal(s[i+1])
		lo, ok2 := hexVal(s[i+2])
		if !ok1 || !ok2 {
			return "", ErrInvalidPercentEncoding
		}
		b.WriteByte(byte(hi<<4 | lo))
		i += 2
	}
	return b.String(), nil
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

const upperhex = "0123456789ABCDEF"

// percentEncode escapes every byte outside the RFC 3986 unreserved set.
func percentEncode(s string) string {
	needed := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			needed++
		}
	}
	if needed == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*needed)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xF])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	case c == '-' || c == '_' || c == '.' || c == '~':
		return false
	default:
		return true
	}
}
