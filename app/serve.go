package app

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/taskloop/httpd/core/http"
	"github.com/taskloop/httpd/core/httpio"
	"github.com/taskloop/httpd/core/netio"
	"github.com/taskloop/httpd/core/scheduler"
	"github.com/taskloop/httpd/core/task"
)

var nextTaskID atomic.Uint64

// acceptHandler is the scheduler.AcceptHandler App wires into every
// Acceptor: it builds the Task that drives one client's entire request
// loop, per spec.md §2's "one task per client, for that connection's
// entire lifetime".
func (a *App) acceptHandler(w *scheduler.Worker, c *scheduler.Client) {
	var t *task.Task
	t = task.New(nextTaskID.Add(1), func() { a.serveClient(w, c, t) })
	c.Task = t
	t.Start()
	w.Spawn(t)
}

// serveClient reads, dispatches and writes responses on conn until the
// connection closes or a framing error forces it closed, per spec.md
// §4.3's pipelining contract: request i+1 is never read until response i
// has been fully written.
func (a *App) serveClient(w *scheduler.Worker, c *scheduler.Client, t *task.Task) {
	defer w.CloseClient(c)

	conn := netio.New(w, c, t)
	reader := httpio.NewReader(conn, a.cfg.BufSize)

	for {
		req, err := http.ParseRequest(reader)
		if err != nil {
			writeParseError(conn, err)
			return
		}
		req.AddressIndex = c.AddressIndex
		req.SetRemoteAddr(c.RemoteAddr)

		resp := a.router.Dispatch(req)

		// Drain any body bytes the handler left unread so a kept-alive
		// connection's next ParseRequest starts at the next message
		// boundary, per spec.md §4.3.
		io.Copy(io.Discard, req.Body)

		head := req.Method == "HEAD"
		werr := http.WriteResponse(conn, resp, head)

		closeAfter := req.CloseAfterRequest || resp.Code >= 500
		if respClose, ok := resp.Header("Connection"); ok && strings.EqualFold(respClose, "close") {
			closeAfter = true
		}

		if werr != nil || closeAfter {
			return
		}

		w.Yield(t)
	}
}

// writeParseError maps a Protocol-kind parse failure to the matching 4xx
// response per spec.md §7 ("malformed request line, malformed headers,
// invalid chunk framing, invalid percent-encoding... respond with the
// corresponding 4xx and close the connection"), then closes without
// waiting for a clean pipeline boundary — the request itself may not even
// be framed correctly enough to find one.
func writeParseError(conn *netio.Conn, err error) {
	if errors.Is(err, netio.ErrClosed) || errors.Is(err, io.EOF) {
		return
	}

	code := 400
	if errors.Is(err, http.ErrMethodNotAllowed) {
		code = 405
	} else if errors.Is(err, httpio.ErrRequestLineTooLong) {
		code = 414
	}

	resp := http.Text(code, "")
	resp.SetHeader("Connection", "close")
	http.WriteResponse(conn, resp, false)
}
