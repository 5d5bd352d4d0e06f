package http

import "testing"

func TestFormatSSEEventAllFields(t *testing.T) {
	got := FormatSSEEvent(SSEEvent{Event: "tick", ID: "1", Retry: 2000, Data: "hello"})
	want := "event: tick\nid: 1\nretry: 2000\ndata: hello\n\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatSSEEventSplitsMultilineData(t *testing.T) {
	got := FormatSSEEvent(SSEEvent{Data: "line1\nline2"})
	want := "data: line1\ndata: line2\n\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatSSEEventOmitsEmptyFields(t *testing.T) {
	got := FormatSSEEvent(SSEEvent{Data: "x"})
	want := "data: x\n\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSSEBuildsChunkedProducerBody(t *testing.T) {
	resp := SSE(func(push SSEGenerator) error {
		if err := push(SSEEvent{Event: "hello", Data: "world"}); err != nil {
			return err
		}
		return push(SSEEvent{Data: "bye"})
	})

	if ct, _ := resp.Header("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if resp.Body.Kind != BodyProducer {
		t.Fatalf("expected BodyProducer, got %v", resp.Body.Kind)
	}

	var written [][]byte
	if err := resp.Body.Produce(func(b []byte) error {
		written = append(written, append([]byte(nil), b...))
		return nil
	}); err != nil {
		t.Fatalf("Produce: %v", err)
	}

	if len(written) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(written))
	}
	if string(written[0]) != "event: hello\ndata: world\n\n" {
		t.Fatalf("first write = %q", written[0])
	}
	if string(written[1]) != "data: bye\n\n" {
		t.Fatalf("second write = %q", written[1])
	}
}

func TestSSEPropagatesGeneratorError(t *testing.T) {
	boom := errWriteFailed
	resp := SSE(func(push SSEGenerator) error {
		return boom
	})

	err := resp.Body.Produce(func([]byte) error { return nil })
	if err != boom {
		t.Fatalf("expected generator error to propagate, got %v", err)
	}
}

var errWriteFailed = &sseTestError{"boom"}

type sseTestError struct{ msg string }

func (e *sseTestError) Error() string { return e.msg }
