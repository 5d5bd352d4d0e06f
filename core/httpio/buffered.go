// Package httpio layers buffered request decoding and chunked response
// encoding over core/netio's suspending Conn, per spec.md §4.2/§4.3: body
// framing (identity vs chunked) is decoded here, and sendfile/chunked
// writes are driven from here; core/http's writer writes status lines,
// headers and in-memory bodies to the connection itself.
package httpio

import (
	"bufio"
	"errors"
	"io"
)

// ErrRequestLineTooLong guards against an unbounded line consuming the
// whole per-client buffer budget; the caller turns this into a 414.
var ErrRequestLineTooLong = errors.New("httpio: request line too long")

// Reader is a buffered wrapper over any io.Reader, sized to a client's
// configured buf_size (spec.md §6). Callers hand it a *netio.Conn in
// production, where suspension happens transparently inside Conn.Read
// whenever the buffer needs refilling, so ReadLine and the chunked
// decoder below behave like blocking calls to their callers; tests can
// hand it a plain strings.Reader or io.Pipe end.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r with a buffer of size bufSize.
func NewReader(r io.Reader, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = 8192
	}
	return &Reader{br: bufio.NewReaderSize(r, bufSize)}
}

// ReadLine reads one CRLF- or LF-terminated line, with the terminator
// stripped. maxLen bounds the line length to avoid a pathological client
// exhausting memory one unterminated byte at a time.
func (r *Reader) ReadLine(maxLen int) (string, error) {
	var line []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			if maxLen > 0 && len(line) >= maxLen {
				return "", ErrRequestLineTooLong
			}
			continue
		}
		return "", err
	}
	if maxLen > 0 && len(line) > maxLen {
		return "", ErrRequestLineTooLong
	}
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return string(line[:n]), nil
}

// Read satisfies io.Reader directly from the buffer, used by an identity
// body once headers are consumed.
func (r *Reader) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

// Discard skips n bytes of buffered input.
func (r *Reader) Discard(n int) error {
	for n > 0 {
		d, err := r.br.Discard(n)
		n -= d
		if err != nil {
			return err
		}
	}
	return nil
}

var _ io.Reader = (*Reader)(nil)
