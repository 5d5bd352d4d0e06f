package http

import (
	"testing"
	"time"
)

func TestReasonPhraseKnownCodes(t *testing.T) {
	cases := map[int]string{
		200: "OK",
		404: "Not Found",
		414: "URI Too Long",
		500: "Internal Server Error",
	}
	for code, want := range cases {
		if got := ReasonPhrase(code); got != want {
			t.Fatalf("ReasonPhrase(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestReasonPhraseUnknownCode(t *testing.T) {
	if got := ReasonPhrase(499); got != "Unknown" {
		t.Fatalf("got %q", got)
	}
}

func TestTextResponseSetsContentType(t *testing.T) {
	resp := Text(200, "hi")
	ct, ok := resp.Header("Content-Type")
	if !ok || ct != "text/plain; charset=utf-8" {
		t.Fatalf("got %q, ok=%v", ct, ok)
	}
	if string(resp.Body.Bytes) != "hi" {
		t.Fatalf("got %q", resp.Body.Bytes)
	}
}

func TestResponseSetHeaderIsCaseInsensitive(t *testing.T) {
	resp := NewResponse(200)
	resp.SetHeader("content-type", "text/html")
	got, ok := resp.Header("Content-Type")
	if !ok || got != "text/html" {
		t.Fatalf("got %q, ok=%v", got, ok)
	}
}

func TestETagForIsStableForSameInstant(t *testing.T) {
	now, err := time.Parse(time.RFC3339, "2026-01-02T03:04:05Z")
	if err != nil {
		t.Fatal(err)
	}
	a := ETagFor(now)
	b := ETagFor(now)
	if a != b {
		t.Fatalf("expected stable ETag, got %q and %q", a, b)
	}
}
