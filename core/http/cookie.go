package http

import (
	"fmt"
	"strings"
	"time"
)

// SameSite is the Set-Cookie SameSite attribute.
type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
	SameSiteNone
)

// Cookie is spec.md §6's RFC 6265 cookie model: Path, Domain, Expires,
// Max-Age, Secure, HttpOnly, SameSite, and an extension slot for anything
// else a handler wants to append verbatim.
type Cookie struct {
	Name  string
	Value string

	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int // emitted only when set through SetMaxAge
	hasMaxAge bool
	Secure   bool
	HttpOnly bool
	SameSite SameSite

	Extension string
}

// NewCookie creates a session cookie (no Expires/Max-Age).
func NewCookie(name, value string) *Cookie {
	return &Cookie{Name: name, Value: value}
}

// SetMaxAge sets Max-Age explicitly, including zero and negative values
// (Max-Age=-1 is how DeleteCookie below expires a cookie immediately).
func (c *Cookie) SetMaxAge(seconds int) *Cookie {
	c.MaxAge = seconds
	c.hasMaxAge = true
	return c
}

// DeleteCookie builds the Set-Cookie response that deletes name client
// side, emitting Max-Age=-1 per spec.md §6.
func DeleteCookie(name string) *Cookie {
	return NewCookie(name, "").SetMaxAge(-1)
}

// String renders the Set-Cookie header value.
func (c *Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)

	if c.Path != "" {
		fmt.Fprintf(&b, "; Path=%s", c.Path)
	}
	if c.Domain != "" {
		fmt.Fprintf(&b, "; Domain=%s", c.Domain)
	}
	if !c.Expires.IsZero() {
		fmt.Fprintf(&b, "; Expires=%s", c.Expires.UTC().Format(time.RFC1123))
	}
	if c.hasMaxAge {
		fmt.Fprintf(&b, "; Max-Age=%d", c.MaxAge)
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	switch c.SameSite {
	case SameSiteLax:
		b.WriteString("; SameSite=Lax")
	case SameSiteStrict:
		b.WriteString("; SameSite=Strict")
	case SameSiteNone:
		b.WriteString("; SameSite=None")
	}
	if c.Extension != "" {
		b.WriteByte(';')
		b.WriteByte(' ')
		b.WriteString(c.Extension)
	}
	return b.String()
}

// parseCookieHeader parses a request's Cookie header, a semicolon-joined
// list of name=value pairs.
func parseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}
