package http

import (
	"fmt"
	"strconv"
	"syscall"
	"time"

	"github.com/taskloop/httpd/core/httpio"
	"github.com/taskloop/httpd/core/netio"
	"github.com/taskloop/httpd/core/pools"
)

// chunkScratchPool supplies the scratch buffer writeChunkedBody reads each
// chunk into, so a streamed (SSE or handler-driven) response doesn't
// allocate 32KB per write on the hot path.
var chunkScratchPool = pools.NewBytePool()

// WriteResponse serialises resp to conn per spec.md §4.3: status line,
// headers, blank line, then body framed according to resp.Body.Kind.
// head suppresses body bytes (but not body resource release) for a HEAD
// request. Corking is enabled for the duration of the write so header and
// body writes coalesce into fewer packets.
func WriteResponse(conn *netio.Conn, resp *Response, head bool) error {
	conn.Cork()
	defer conn.Uncork()

	applyFraming(resp)

	if err := writeHeadPart(conn, resp); err != nil {
		releaseBody(resp)
		return err
	}

	var err error
	if !head {
		err = writeBody(conn, resp)
	} else {
		releaseBody(resp)
	}

	if resp.PostHook != nil {
		resp.PostHook()
	}
	return err
}

func applyFraming(resp *Response) {
	switch resp.Body.Kind {
	case BodyEmpty:
		if _, hasCT := resp.Header("Content-Type"); !hasCT {
			if _, hasCL := resp.Header("Content-Length"); !hasCL {
				resp.SetHeader("Content-Length", "0")
			}
		}
	case BodyBytes:
		resp.SetHeader("Content-Length", strconv.Itoa(len(resp.Body.Bytes)))
	case BodyFile:
		resp.SetHeader("Content-Length", strconv.FormatInt(resp.Body.FileSize, 10))
	case BodyStream, BodyProducer:
		resp.SetHeader("Transfer-Encoding", "chunked")
	}
}

func writeHeadPart(conn *netio.Conn, resp *Response) error {
	reason := resp.Reason
	if reason == "" {
		reason = ReasonPhrase(resp.Code)
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, "HTTP/1.1 "...)
	buf = append(buf, strconv.Itoa(resp.Code)...)
	buf = append(buf, ' ')
	buf = append(buf, reason...)
	buf = append(buf, '\r', '\n')

	for k, v := range resp.headers {
		buf = append(buf, k...)
		buf = append(buf, ':', ' ')
		buf = append(buf, v...)
		buf = append(buf, '\r', '\n')
	}
	for _, c := range resp.cookies {
		buf = append(buf, "Set-Cookie: "...)
		buf = append(buf, c.String()...)
		buf = append(buf, '\r', '\n')
	}
	buf = append(buf, '\r', '\n')

	_, err := conn.Write(buf)
	return err
}

func writeBody(conn *netio.Conn, resp *Response) error {
	switch resp.Body.Kind {
	case BodyEmpty:
		return nil
	case BodyBytes:
		_, err := conn.Write(resp.Body.Bytes)
		return err
	case BodyFile:
		defer releaseBody(resp)
		return httpio.WriteFile(conn, resp.Body.FileFD, resp.Body.FileOffset, resp.Body.FileSize)
	case BodyStream:
		return writeChunkedBody(conn, resp)
	case BodyProducer:
		return writeProducerBody(conn, resp)
	default:
		return nil
	}
}

func writeChunkedBody(conn *netio.Conn, resp *Response) error {
	cw := httpio.NewChunkedWriter(conn)
	buf := chunkScratchPool.Get(32 * 1024)
	defer chunkScratchPool.Put(buf)
	for {
		n, err := resp.Body.Stream.Read(buf)
		if n > 0 {
			if werr := cw.WriteChunk(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			break
		}
	}
	return cw.Close(nil)
}

// writeProducerBody drives a BodyProducer on the calling goroutine — the
// request's own task — so every chunk it emits goes through conn.Write's
// normal would-block suspension instead of a second, unsuspended goroutine
// racing it over a pipe.
func writeProducerBody(conn *netio.Conn, resp *Response) error {
	cw := httpio.NewChunkedWriter(conn)
	perr := resp.Body.Produce(cw.WriteChunk)
	if cerr := cw.Close(nil); cerr != nil {
		return cerr
	}
	return perr
}

func releaseBody(resp *Response) {
	if resp.Body.Kind == BodyFile && resp.Body.ClosePolicy == CloseAfterWrite {
		syscall.Close(resp.Body.FileFD)
	}
}

// SetDateHeader sets the Date header to now in RFC 1123 GMT form, used by
// the filecache's conditional-GET path alongside an ETag.
func SetDateHeader(resp *Response, now time.Time) {
	resp.SetHeader("Date", now.UTC().Format(time.RFC1123))
}

// ETagFor formats mtime as the fixed-precision float ETag spec.md §4.5
// specifies.
func ETagFor(mtime time.Time) string {
	return fmt.Sprintf("%q", strconv.FormatFloat(float64(mtime.UnixNano())/1e9, 'f', 6, 64))
}
