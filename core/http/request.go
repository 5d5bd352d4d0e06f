// Package http implements the HTTP/1.1 request parser and response
// writer of spec.md §4.3, plus the router's Route/Filter types (§4.4),
// cookies (§6) and Server-Sent Events (§6).
package http

import (
	"io"
	"net/textproto"
	"strings"
	"time"
)

// Request is spec.md §3's immutable header view plus a streaming body: a
// handler sees method, path, headers, cookies and start-time up front,
// and reads Body (all, part, or none of it) as an ordinary io.Reader.
// Trailer is only populated once Body has been read to completion.
type Request struct {
	Method  string
	Path    string // decoded, query-stripped
	RawPath string // as it appeared on the wire, including any query
	Query   map[string]string
	Proto   string
	Host    string

	headers map[string]string // canonical key -> trimmed value

	Body io.Reader

	Trailer map[string]string

	StartTime time.Time

	// CloseAfterRequest is true when this request carried
	// Connection: close; the response writer may still also set it.
	CloseAfterRequest bool

	// AddressIndex and accepting listener scoping, used by Router.
	AddressIndex int

	// routeParams holds the bound variables a matched Route extracted,
	// in the order Int/String/Rest matchers appeared.
	routeParams []any

	cookies     map[string]string
	cookiesDone bool

	remoteAddr string
}

// New creates a Request with an empty header set; ParseRequest fills it
// in from the wire.
func New() *Request {
	return &Request{
		headers:   make(map[string]string, 16),
		StartTime: time.Now(),
	}
}

// Header looks up a header case-insensitively; values preserve case but
// are trimmed, per spec.md §4.3.
func (r *Request) Header(key string) (string, bool) {
	v, ok := r.headers[canonicalHeader(key)]
	return v, ok
}

// HeaderValue is Header without the ok flag, returning "" when absent.
func (r *Request) HeaderValue(key string) string {
	v, _ := r.Header(key)
	return v
}

func (r *Request) setHeader(key, value string) {
	r.headers[canonicalHeader(key)] = value
}

// Headers exposes the full canonical header set. Callers must not mutate
// the returned map.
func (r *Request) Headers() map[string]string {
	return r.headers
}

func canonicalHeader(key string) string {
	return textproto.CanonicalMIMEHeaderKey(key)
}

// BindRouteParams attaches the bound variables a Router match extracted,
// in matcher order. Called once by core/router's Dispatch before invoking
// the handler.
func (r *Request) BindRouteParams(params []any) {
	r.routeParams = params
}

// RouteParam returns the i-th bound variable extracted by the matched
// Route (Int, String or Rest segments, in left-to-right order). It panics
// on an out-of-range index, the same contract a typed accessor on a
// statically-shaped match would give; handlers are only ever registered
// against a Route whose arity they were built for.
func (r *Request) RouteParam(i int) any {
	return r.routeParams[i]
}

// RemoteAddr is the accepted connection's peer address, in host:port
// form.
func (r *Request) RemoteAddr() string {
	return r.remoteAddr
}

// SetRemoteAddr records the accepted connection's peer address. Called
// by the per-connection request loop on each request it parses.
func (r *Request) SetRemoteAddr(addr string) {
	r.remoteAddr = addr
}

// Cookie looks up a request cookie by name, per RFC 6265. Parsing the
// Cookie header happens lazily and once.
func (r *Request) Cookie(name string) (string, bool) {
	if !r.cookiesDone {
		r.cookies = parseCookieHeader(r.HeaderValue("Cookie"))
		r.cookiesDone = true
	}
	v, ok := r.cookies[name]
	return v, ok
}

// splitOnSlash discards empty segments and the leading/trailing slash, per
// spec.md §8's testable property: "/a//b/" -> ["a","b"].
func splitOnSlash(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseQueryString parses "a=b&c=d" into a map, percent-decoding both
// sides. Order is not preserved, matching spec.md §8's set semantics.
func parseQueryString(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		dk, err1 := percentDecode(k)
		dv, err2 := percentDecode(v)
		if err1 != nil {
			dk = k
		}
		if err2 != nil {
			dv = v
		}
		out[dk] = dv
	}
	return out
}
