package http

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/taskloop/httpd/core/httpio"
)

// ErrInvalidRequest covers a malformed request line; the caller responds
// 400, per spec.md §4.3.
var ErrInvalidRequest = errors.New("http: invalid request")

// ErrMethodNotAllowed covers a method outside {GET, PUT, POST, HEAD,
// DELETE}; the caller responds 405.
var ErrMethodNotAllowed = errors.New("http: method not allowed")

var allowedMethods = map[string]bool{
	"GET":    true,
	"PUT":    true,
	"POST":   true,
	"HEAD":   true,
	"DELETE": true,
}

const maxLineLen = 8192

// ParseRequest reads one HTTP/1.1 request's request-line and headers from
// r, and arranges Body per spec.md §4.3's framing precedence: chunked
// wins over identity if Transfer-Encoding: chunked is present (and any
// Content-Length is then stripped), else identity framing using
// Content-Length, else an empty body.
func ParseRequest(r *httpio.Reader) (*Request, error) {
	line, err := r.ReadLine(maxLineLen)
	if err != nil {
		return nil, err
	}

	method, path, proto, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}
	if !allowedMethods[method] {
		return nil, ErrMethodNotAllowed
	}

	req := New()
	req.Method = method
	req.Proto = proto
	req.RawPath = path

	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		req.Path = path[:idx]
		req.Query = parseQueryString(path[idx+1:])
	} else {
		req.Path = path
		req.Query = map[string]string{}
	}
	decoded, err := percentDecode(req.Path)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	req.Path = decoded

	for {
		hline, err := r.ReadLine(maxLineLen)
		if err != nil {
			return nil, err
		}
		if hline == "" {
			break
		}
		colon := strings.IndexByte(hline, ':')
		if colon <= 0 {
			return nil, ErrInvalidRequest
		}
		key := strings.TrimSpace(hline[:colon])
		val := strings.TrimSpace(hline[colon+1:])
		if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(val) {
			return nil, ErrInvalidRequest
		}
		req.setHeader(key, val)
	}

	req.Host = req.HeaderValue("Host")
	if req.Host != "" && !httpguts.ValidHostHeader(req.Host) {
		return nil, ErrInvalidRequest
	}
	req.CloseAfterRequest = strings.EqualFold(req.HeaderValue("Connection"), "close")

	te, _ := req.Header("Transfer-Encoding")
	cl, hasCL := req.Header("Content-Length")

	switch {
	case strings.EqualFold(te, "chunked"):
		delete(req.headers, "Content-Length")
		cb := httpio.NewChunkedBodyReader(r)
		req.Body = cb
		req.Trailer = cb.Trailers
	case hasCL:
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, ErrInvalidRequest
		}
		req.Body = httpio.NewLimitedBody(r, n)
	default:
		req.Body = emptyBody{}
	}

	return req, nil
}

func parseRequestLine(line string) (method, path, proto string, err error) {
	sp1 := strings.IndexByte(line, ' ')
	if sp1 <= 0 {
		return "", "", "", ErrInvalidRequest
	}
	rest := line[sp1+1:]
	sp2 := strings.IndexByte(rest, ' ')
	if sp2 <= 0 {
		return "", "", "", ErrInvalidRequest
	}
	method = line[:sp1]
	path = rest[:sp2]
	proto = rest[sp2+1:]
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return "", "", "", ErrInvalidRequest
	}
	if path == "" {
		return "", "", "", ErrInvalidRequest
	}
	return method, path, proto, nil
}

type emptyBody struct{}

func (emptyBody) Read([]byte) (int, error) { return 0, io.EOF }
