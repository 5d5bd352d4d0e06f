package httpio

import (
	"io"

	"github.com/taskloop/httpd/core/netio"
)

// WriteFile streams count bytes of srcFD starting at offset to conn via
// sendfile, per spec.md §4.3's File body framing ("write body via
// sendfile, looping on short writes and suspending on would-block").
func WriteFile(conn *netio.Conn, srcFD int, offset int64, count int64) error {
	_, err := conn.SendFile(srcFD, offset, count)
	return err
}

// LimitedBody bounds an identity-framed request body to its declared
// Content-Length, so a handler's Read never runs past the body into the
// next request's bytes even if it ignores the length itself.
type LimitedBody struct {
	r  *Reader
	n  int64
}

// NewLimitedBody wraps r to stop after n bytes.
func NewLimitedBody(r *Reader, n int64) *LimitedBody {
	return &LimitedBody{r: r, n: n}
}

func (l *LimitedBody) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}

// Remaining reports how many declared bytes are still unread.
func (l *LimitedBody) Remaining() int64 {
	return l.n
}
