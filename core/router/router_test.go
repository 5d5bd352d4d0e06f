package router

import (
	"testing"

	"github.com/taskloop/httpd/core/http"
)

func newGetRequest(path string) *http.Request {
	req := http.New()
	req.Method = "GET"
	req.Path = path
	return req
}

func TestDispatchPrefersExactOverString(t *testing.T) {
	rt := NewRouter()
	rt.Handle("GET", New(Exact("users"), String(), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "string")
	})
	rt.Handle("GET", New(Exact("users"), Exact("me"), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "exact")
	})

	resp := rt.Dispatch(newGetRequest("/users/me"))
	if string(resp.Body.Bytes) != "exact" {
		t.Fatalf("expected the more specific exact route to win, got %q", resp.Body.Bytes)
	}
}

func TestDispatchFallsBackToLessSpecificRoute(t *testing.T) {
	rt := NewRouter()
	rt.Handle("GET", New(Exact("users"), String(), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "string")
	})
	rt.Handle("GET", New(Exact("users"), Exact("me"), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "exact")
	})

	resp := rt.Dispatch(newGetRequest("/users/alice"))
	if string(resp.Body.Bytes) != "string" {
		t.Fatalf("expected the String route to match, got %q", resp.Body.Bytes)
	}
}

func TestDispatchReturns404OnNoMatch(t *testing.T) {
	rt := NewRouter()
	rt.Handle("GET", New(Exact("known"), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "ok")
	})

	resp := rt.Dispatch(newGetRequest("/unknown"))
	if resp.Code != 404 {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDispatchScopesByAddressIndex(t *testing.T) {
	rt := NewRouter()
	rt.Handle("GET", New(Exact("x"), Return()).OnAddress(1), func(req *http.Request) *http.Response {
		return http.Text(200, "scoped")
	})

	req := newGetRequest("/x")
	req.AddressIndex = 0
	if resp := rt.Dispatch(req); resp.Code != 404 {
		t.Fatalf("expected 404 for a non-matching address index, got %d", resp.Code)
	}

	req2 := newGetRequest("/x")
	req2.AddressIndex = 1
	if resp := rt.Dispatch(req2); resp.Code != 200 {
		t.Fatalf("expected 200 for the matching address index, got %d", resp.Code)
	}
}

func TestDispatchScopesByHost(t *testing.T) {
	rt := NewRouter()
	rt.Handle("GET", New(Exact("x"), Return()).OnHost("a.example"), func(req *http.Request) *http.Response {
		return http.Text(200, "vhost")
	})

	req := newGetRequest("/x")
	req.Host = "b.example"
	if resp := rt.Dispatch(req); resp.Code != 404 {
		t.Fatalf("expected 404 for a non-matching host, got %d", resp.Code)
	}

	req2 := newGetRequest("/x")
	req2.Host = "A.Example"
	if resp := rt.Dispatch(req2); resp.Code != 200 {
		t.Fatalf("expected case-insensitive host match to succeed, got %d", resp.Code)
	}
}

func TestDispatchTieBreaksOnRegistrationOrder(t *testing.T) {
	rt := NewRouter()
	rt.Handle("GET", New(Exact("x"), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "first")
	})
	rt.Handle("GET", New(Exact("x"), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "second")
	})

	resp := rt.Dispatch(newGetRequest("/x"))
	if string(resp.Body.Bytes) != "first" {
		t.Fatalf("expected the first-registered route to win a specificity tie, got %q", resp.Body.Bytes)
	}
}

func TestDispatchRunsGlobalFilters(t *testing.T) {
	rt := NewRouter()
	var ran bool
	rt.Use(func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		ran = true
		return req, func(resp *http.Response) *http.Response { return resp }
	})
	rt.Handle("GET", New(Exact("x"), Return()), func(req *http.Request) *http.Response {
		return http.Text(200, "ok")
	})

	rt.Dispatch(newGetRequest("/x"))
	if !ran {
		t.Fatalf("expected global filter to run")
	}
}
