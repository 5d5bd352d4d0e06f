package router

import (
	"testing"
	"time"

	"github.com/taskloop/httpd/core/http"
)

func TestEmbraceRunsRequestOuterToInnerAndResponseInnerToOuter(t *testing.T) {
	var order []string

	mark := func(name string) Filter {
		return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
			order = append(order, "req:"+name)
			return req, func(resp *http.Response) *http.Response {
				order = append(order, "resp:"+name)
				return resp
			}
		}
	}

	composed := Embrace(mark("a"), mark("b"))
	_, post := composed(http.New())
	post(http.Text(200, ""))

	want := []string{"req:a", "req:b", "resp:b", "resp:a"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRecoverHandlerCatchesPanic(t *testing.T) {
	h := RecoverHandler(func(req *http.Request) *http.Response {
		panic("boom")
	})
	resp := h(http.New())
	if resp.Code != 500 {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestRecoverHandlerPassesThroughOnNoPanic(t *testing.T) {
	h := RecoverHandler(func(req *http.Request) *http.Response {
		return http.Text(201, "created")
	})
	resp := h(http.New())
	if resp.Code != 201 {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestCORSSetsHeaders(t *testing.T) {
	f := CORS("*")
	_, post := f(http.New())
	resp := post(http.Text(200, ""))

	if v, _ := resp.Header("Access-Control-Allow-Origin"); v != "*" {
		t.Fatalf("got %q", v)
	}
}

func TestRequestIDIsMonotonicallyIncreasing(t *testing.T) {
	f := RequestID()

	_, post1 := f(http.New())
	resp1 := post1(http.Text(200, ""))
	id1, _ := resp1.Header("X-Request-Id")

	_, post2 := f(http.New())
	resp2 := post2(http.Text(200, ""))
	id2, _ := resp2.Header("X-Request-Id")

	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("expected distinct request ids, got %q and %q", id1, id2)
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	f := RateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		_, post := f(http.New())
		resp := post(http.Text(200, ""))
		if resp.Code != 200 {
			t.Fatalf("request %d: expected 200, got %d", i, resp.Code)
		}
	}

	_, post := f(http.New())
	resp := post(http.Text(200, ""))
	if resp.Code != 429 {
		t.Fatalf("expected 429 once over the limit, got %d", resp.Code)
	}
}

func TestRateLimiterScopesByRemoteAddr(t *testing.T) {
	f := RateLimiter(1, time.Minute)

	reqA := http.New()
	reqA.SetRemoteAddr("1.1.1.1:1")
	_, postA := f(reqA)
	if resp := postA(http.Text(200, "")); resp.Code != 200 {
		t.Fatalf("expected first caller to be admitted, got %d", resp.Code)
	}

	reqB := http.New()
	reqB.SetRemoteAddr("2.2.2.2:2")
	_, postB := f(reqB)
	if resp := postB(http.Text(200, "")); resp.Code != 200 {
		t.Fatalf("expected a distinct remote addr to get its own bucket, got %d", resp.Code)
	}
}
