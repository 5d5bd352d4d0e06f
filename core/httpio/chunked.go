package httpio

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/taskloop/httpd/core/netio"
)

// ErrInvalidChunkFraming is a Protocol error per spec.md §7: a malformed
// chunk-size line or missing terminator.
var ErrInvalidChunkFraming = errors.New("httpio: invalid chunk framing")

// ChunkedBodyReader decodes a chunked request body from r into a plain
// byte stream, terminating after the zero-size chunk and its trailer
// block. Trailers are collected so core/http can expose them on Request
// only after the body is fully consumed, per spec.md §3.
type ChunkedBodyReader struct {
	r        *Reader
	maxLine  int
	remain   int
	done     bool
	Trailers map[string]string
}

// NewChunkedBodyReader wraps r to decode chunked framing. Trailers is
// allocated up front (rather than on first trailer line) so a caller that
// captured the map reference before the body is fully read — as
// ParseRequest does for Request.Trailer — observes entries added during
// readTrailers without needing to re-fetch the reference.
func NewChunkedBodyReader(r *Reader) *ChunkedBodyReader {
	return &ChunkedBodyReader{r: r, maxLine: 1024, Trailers: make(map[string]string)}
}

// Read implements io.Reader, yielding exactly the decoded chunk payload
// bytes with all framing removed.
func (c *ChunkedBodyReader) Read(p []byte) (int, error) {
	if c.done {
		return 0, io.EOF
	}

	if c.remain == 0 {
		size, err := c.readChunkSize()
		if err != nil {
			return 0, err
		}
		if size == 0 {
			if err := c.readTrailers(); err != nil {
				return 0, err
			}
			c.done = true
			return 0, io.EOF
		}
		c.remain = size
	}

	if len(p) > c.remain {
		p = p[:c.remain]
	}
	n, err := c.r.Read(p)
	c.remain -= n
	if err != nil {
		return n, err
	}
	if c.remain == 0 {
		// consume the CRLF that terminates every chunk's data.
		if _, err := c.r.ReadLine(2); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *ChunkedBodyReader) readChunkSize() (int, error) {
	line, err := c.r.ReadLine(c.maxLine)
	if err != nil {
		return 0, err
	}
	// chunk extensions, if any, follow a ';' and are ignored.
	if idx := indexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	size, err := strconv.ParseInt(line, 16, 64)
	if err != nil || size < 0 {
		return 0, ErrInvalidChunkFraming
	}
	return int(size), nil
}

func (c *ChunkedBodyReader) readTrailers() error {
	for {
		line, err := c.r.ReadLine(c.maxLine)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
		idx := indexByte(line, ':')
		if idx <= 0 {
			continue
		}
		key := trimSpace(line[:idx])
		val := trimSpace(line[idx+1:])
		c.Trailers[key] = val
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

// ChunkedWriter encodes a response Stream body over conn as
// `hex(len) CRLF data CRLF`, terminated by `0 CRLF CRLF`, per spec.md
// §4.3.
type ChunkedWriter struct {
	conn *netio.Conn
}

// NewChunkedWriter wraps conn for chunked response encoding.
func NewChunkedWriter(conn *netio.Conn) *ChunkedWriter {
	return &ChunkedWriter{conn: conn}
}

// WriteChunk emits one non-empty chunk. Callers must not call WriteChunk
// with an empty slice; use Close to emit the terminating zero chunk.
func (w *ChunkedWriter) WriteChunk(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	header := fmt.Sprintf("%x\r\n", len(data))
	if _, err := w.conn.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := w.conn.Write(data); err != nil {
		return err
	}
	_, err := w.conn.Write(crlf)
	return err
}

// Close writes the terminating zero-length chunk, optionally followed by
// trailers, and the final CRLF.
func (w *ChunkedWriter) Close(trailers map[string]string) error {
	if len(trailers) == 0 {
		_, err := w.conn.Write(zeroChunk)
		return err
	}
	buf := []byte("0\r\n")
	for k, v := range trailers {
		buf = append(buf, k...)
		buf = append(buf, ':', ' ')
		buf = append(buf, v...)
		buf = append(buf, '\r', '\n')
	}
	buf = append(buf, '\r', '\n')
	_, err := w.conn.Write(buf)
	return err
}

var crlf = []byte("\r\n")
var zeroChunk = []byte("0\r\n\r\n")
