package http

import (
	"fmt"
	"strconv"
	"strings"
)

// SSEEvent is one Server-Sent Events message: event:, id:, retry:, and
// data: lines terminated by a blank line, per spec.md §6.
type SSEEvent struct {
	Event string
	ID    string
	Retry int // milliseconds; 0 means omit the retry: line
	Data  string
}

// FormatSSEEvent renders e in the wire format described above. A
// multi-line Data value is split across repeated `data:` lines, per the
// SSE spec's framing rule that each line of the payload gets its own
// `data:` prefix.
func FormatSSEEvent(e SSEEvent) string {
	var b strings.Builder
	if e.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Event)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Retry > 0 {
		fmt.Fprintf(&b, "retry: %s\n", strconv.Itoa(e.Retry))
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteByte('\n')
	return b.String()
}

// SSEGenerator is the callback shape a handler receives to push events,
// per spec.md §6 ("a handler receives a generator it calls to push
// event:, id:, retry:, and data: lines").
type SSEGenerator func(e SSEEvent) error

// SSE builds a streaming Response whose body is produced by calling
// produce with a generator. produce runs on the request's own task, on
// the same goroutine WriteResponse is driving: each push writes its event
// straight through the chunked encoder to Conn.Write, so a push that hits
// a slow client cooperatively suspends the task the same way any other
// handler code blocking on Conn.Write does, and never the Worker's own
// loop goroutine. produce must not be run on a separate goroutine — doing
// so would let it block on its own write outside of any suspension point
// the scheduler knows about.
func SSE(produce func(push SSEGenerator) error) *Response {
	resp := NewResponse(200)
	resp.SetHeader("Content-Type", "text/event-stream")
	resp.SetHeader("Cache-Control", "no-cache")

	resp.Body = Body{
		Kind: BodyProducer,
		Produce: func(write func([]byte) error) error {
			push := func(e SSEEvent) error {
				return write([]byte(FormatSSEEvent(e)))
			}
			return produce(push)
		},
	}
	return resp
}
