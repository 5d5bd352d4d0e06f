package http

import "io"

// BodyKind discriminates Response.Body's variant, per spec.md §3.
type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyBytes
	BodyStream
	BodyFile
	BodyProducer
)

// ClosePolicy controls what WriteResponse does with a File body's
// descriptor once the body has been fully written.
type ClosePolicy int

const (
	// CloseAfterWrite closes the fd once the response finishes writing,
	// used by the filecache's NoCache/SendFile variants (fd opened fresh
	// per request).
	CloseAfterWrite ClosePolicy = iota
	// KeepOpen leaves the fd open, used by SendFileCache's single
	// long-lived shared descriptor.
	KeepOpen
)

// Body is a Response's body variant.
type Body struct {
	Kind BodyKind

	Bytes []byte

	Stream io.Reader

	// Produce drives a BodyProducer body: the writer calls it once, on the
	// request's own task goroutine, passing a write callback that emits one
	// chunk per call. Unlike Stream (pulled via Read from whatever
	// goroutine the writer runs on), Produce's callback goes straight
	// through to the connection's suspending Write, so a generator that
	// blocks between chunks (spec.md §6's SSE) cooperatively suspends the
	// task instead of blocking the Worker.
	Produce func(write func([]byte) error) error

	FileFD     int
	FileOffset int64
	FileSize   int64
	ClosePolicy ClosePolicy
}

// EmptyBody returns a void body.
func EmptyBody() Body { return Body{Kind: BodyEmpty} }

// BytesBody returns a body served from an in-memory byte slice.
func BytesBody(b []byte) Body { return Body{Kind: BodyBytes, Bytes: b} }

// StreamBody returns a chunked-encoded body sourced from r.
func StreamBody(r io.Reader) Body { return Body{Kind: BodyStream, Stream: r} }

// FileBody returns a body served via sendfile from fd, starting at offset
// for size bytes.
func FileBody(fd int, offset, size int64, policy ClosePolicy) Body {
	return Body{Kind: BodyFile, FileFD: fd, FileOffset: offset, FileSize: size, ClosePolicy: policy}
}

// Response is spec.md §3's {code, headers, body, post_hook}.
type Response struct {
	Code    int
	Reason  string
	headers map[string]string
	cookies []*Cookie

	Body Body

	// PostHook runs after the response has been fully flushed, used e.g.
	// to release a filecache build lease or update statistics. Modelled
	// as an explicit field rather than a closure over implicit state, per
	// spec.md §9's guidance on post hooks and filters.
	PostHook func()
}

// NewResponse creates a Response with the given status code and an empty
// header set.
func NewResponse(code int) *Response {
	return &Response{Code: code, Reason: ReasonPhrase(code), headers: make(map[string]string, 8)}
}

// SetHeader sets a response header, overwriting any previous value.
func (resp *Response) SetHeader(key, value string) {
	resp.headers[canonicalHeader(key)] = value
}

// Header returns a response header.
func (resp *Response) Header(key string) (string, bool) {
	v, ok := resp.headers[canonicalHeader(key)]
	return v, ok
}

// Headers exposes the full header set; callers must not mutate it other
// than through SetHeader.
func (resp *Response) Headers() map[string]string {
	return resp.headers
}

// SetCookie appends a Set-Cookie header built from c.
func (resp *Response) SetCookie(c *Cookie) {
	resp.cookies = append(resp.cookies, c)
}

// Text builds a response with status code and a text/plain body, the
// common case used by simple handlers and doc examples.
func Text(code int, body string) *Response {
	resp := NewResponse(code)
	resp.SetHeader("Content-Type", "text/plain; charset=utf-8")
	resp.Body = BytesBody([]byte(body))
	return resp
}

// JSON builds a response whose body is the already-encoded JSON bytes b.
func JSON(code int, b []byte) *Response {
	resp := NewResponse(code)
	resp.SetHeader("Content-Type", "application/json")
	resp.Body = BytesBody(b)
	return resp
}

// Redirect builds a 301/308 redirect response (spec.md §6).
func Redirect(code int, location string) *Response {
	resp := NewResponse(code)
	resp.SetHeader("Location", location)
	resp.Body = EmptyBody()
	return resp
}

// NotModified builds the 304 response the filecache's conditional-GET
// path returns: no body, no Content-Type.
func NotModified() *Response {
	resp := NewResponse(304)
	resp.Body = EmptyBody()
	return resp
}

// ReasonPhrase returns the standard reason phrase for code, or "Unknown"
// if unrecognised.
func ReasonPhrase(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 304:
		return "Not Modified"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Payload Too Large"
	case 414:
		return "URI Too Long"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}
