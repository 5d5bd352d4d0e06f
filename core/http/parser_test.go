package http

import (
	"io"
	"strings"
	"testing"

	"github.com/taskloop/httpd/core/httpio"
)

func parseFrom(t *testing.T, wire string) *Request {
	t.Helper()
	r := httpio.NewReader(strings.NewReader(wire), 4096)
	req, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	return req
}

func TestParseRequestLineAndHeaders(t *testing.T) {
	req := parseFrom(t, "GET /foo/bar?x=1 HTTP/1.1\r\nHost: example.com\r\nX-Custom: val\r\n\r\n")

	if req.Method != "GET" {
		t.Fatalf("method = %q", req.Method)
	}
	if req.Path != "/foo/bar" {
		t.Fatalf("path = %q", req.Path)
	}
	if req.Query["x"] != "1" {
		t.Fatalf("query = %v", req.Query)
	}
	if req.Host != "example.com" {
		t.Fatalf("host = %q", req.Host)
	}
	if v, _ := req.Header("X-Custom"); v != "val" {
		t.Fatalf("X-Custom = %q", v)
	}
}

func TestParseRequestRejectsUnknownMethod(t *testing.T) {
	r := httpio.NewReader(strings.NewReader("PATCH / HTTP/1.1\r\n\r\n"), 4096)
	_, err := ParseRequest(r)
	if err != ErrMethodNotAllowed {
		t.Fatalf("expected ErrMethodNotAllowed, got %v", err)
	}
}

func TestParseRequestRejectsMalformedRequestLine(t *testing.T) {
	r := httpio.NewReader(strings.NewReader("GET\r\n\r\n"), 4096)
	_, err := ParseRequest(r)
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestParseRequestConnectionClose(t *testing.T) {
	req := parseFrom(t, "GET / HTTP/1.1\r\nConnection: close\r\n\r\n")
	if !req.CloseAfterRequest {
		t.Fatalf("expected CloseAfterRequest true")
	}
}

func TestParseRequestIdentityBody(t *testing.T) {
	req := parseFrom(t, "POST /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Fatalf("got %q", body)
	}
}

func TestParseRequestChunkedBodyStripsContentLength(t *testing.T) {
	wire := "POST /x HTTP/1.1\r\nTransfer-Encoding: chunked\r\nContent-Length: 99\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	req := parseFrom(t, wire)
	if _, ok := req.Header("Content-Length"); ok {
		t.Fatalf("expected Content-Length to be stripped from a chunked request")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Fatalf("got %q", body)
	}
}

func TestParseRequestRejectsInvalidPercentEncoding(t *testing.T) {
	r := httpio.NewReader(strings.NewReader("GET /%zz HTTP/1.1\r\n\r\n"), 4096)
	_, err := ParseRequest(r)
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestParseRequestEmptyBody(t *testing.T) {
	req := parseFrom(t, "GET / HTTP/1.1\r\n\r\n")
	n, err := req.Body.Read(make([]byte, 8))
	if n != 0 || err != io.EOF {
		t.Fatalf("expected (0, io.EOF) for an empty body, got (%d, %v)", n, err)
	}
}
