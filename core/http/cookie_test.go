package http

import (
	"strings"
	"testing"
	"time"
)

func TestCookieStringBasic(t *testing.T) {
	c := NewCookie("session", "abc123")
	c.Path = "/"
	c.HttpOnly = true
	c.SameSite = SameSiteLax

	got := c.String()
	if !strings.HasPrefix(got, "session=abc123") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "Path=/") {
		t.Fatalf("missing Path: %q", got)
	}
	if !strings.Contains(got, "HttpOnly") {
		t.Fatalf("missing HttpOnly: %q", got)
	}
	if !strings.Contains(got, "SameSite=Lax") {
		t.Fatalf("missing SameSite: %q", got)
	}
}

func TestDeleteCookieSetsNegativeMaxAge(t *testing.T) {
	c := DeleteCookie("session")
	got := c.String()
	if !strings.Contains(got, "Max-Age=-1") {
		t.Fatalf("expected Max-Age=-1, got %q", got)
	}
}

func TestCookieExpiresFormattedAsRFC1123(t *testing.T) {
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCookie("x", "y")
	c.Expires = when

	got := c.String()
	if !strings.Contains(got, when.Format(time.RFC1123)) {
		t.Fatalf("got %q", got)
	}
}

func TestParseCookieHeaderMultiple(t *testing.T) {
	got := parseCookieHeader("a=1; b=2 ;c=3")
	if got["a"] != "1" || got["b"] != "2" || got["c"] != "3" {
		t.Fatalf("got %v", got)
	}
}

func TestParseCookieHeaderEmpty(t *testing.T) {
	got := parseCookieHeader("")
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}
