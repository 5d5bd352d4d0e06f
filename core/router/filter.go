package router

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/taskloop/httpd/core/http"
	"github.com/taskloop/httpd/core/observability"
)

// Filter is spec.md §4.4's request/response transformer: it may
// transform or reject the request before the handler runs, and transform
// the response after. The returned function is the post-handler leg.
type Filter func(req *http.Request) (*http.Request, func(resp *http.Response) *http.Response)

// identityPost is the post-handler leg for a filter that only inspects or
// rewrites the request.
func identityPost(resp *http.Response) *http.Response { return resp }

// Embrace composes filters LIFO: for Embrace(f, g), the request runs
// through f then g, and the response runs through g then f — the default
// composition a route's Use(...) applies.
func Embrace(filters ...Filter) Filter {
	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		posts := make([]func(*http.Response) *http.Response, len(filters))
		for i, f := range filters {
			var post func(*http.Response) *http.Response
			req, post = f(req)
			posts[i] = post
		}
		return req, func(resp *http.Response) *http.Response {
			for i := len(posts) - 1; i >= 0; i-- {
				resp = posts[i](resp)
			}
			return resp
		}
	}
}

// Cross composes filters so the response passes through f before g
// (request order is unchanged: g then f), used when one filter must see
// the response before another finalises it — e.g. compression must run
// before a byte-counting filter records the final size.
func Cross(f, g Filter) Filter {
	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		var postF, postG func(*http.Response) *http.Response
		req, postG = g(req)
		req, postF = f(req)
		return req, func(resp *http.Response) *http.Response {
			return postG(postF(resp))
		}
	}
}

// RecoverHandler wraps a Handler (rather than acting as a Filter) because
// only a deferred recover running in the same call frame as the handler
// invocation can catch its panic; Dispatch calls this around the
// innermost handler automatically.
func RecoverHandler(h Handler) Handler {
	return func(req *http.Request) (resp *http.Response) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("router: handler panic: %v", rec)
				resp = http.Text(500, "internal server error\n")
			}
		}()
		return h(req)
	}
}

// CORS sets the standard permissive CORS response headers.
func CORS(allowOrigin string) Filter {
	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		return req, func(resp *http.Response) *http.Response {
			resp.SetHeader("Access-Control-Allow-Origin", allowOrigin)
			resp.SetHeader("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE")
			return resp
		}
	}
}

var requestIDSeq int64
var requestIDMu sync.Mutex

// RequestID stamps every request with an incrementing id, echoed back as
// X-Request-Id.
func RequestID() Filter {
	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		requestIDMu.Lock()
		requestIDSeq++
		id := requestIDSeq
		requestIDMu.Unlock()

		idStr := strconv.FormatInt(id, 10)
		return req, func(resp *http.Response) *http.Response {
			resp.SetHeader("X-Request-Id", idStr)
			return resp
		}
	}
}

// Logger logs method, path and response code after the handler runs.
func Logger() Filter {
	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		start := req.StartTime
		method, path := req.Method, req.Path
		return req, func(resp *http.Response) *http.Response {
			log.Printf("%s %s -> %d (%s)", method, path, resp.Code, time.Since(start))
			return resp
		}
	}
}

// Monitor records every request's handler name, latency and error status
// into pm, the per-handler latency/throughput aggregator spec.md's
// ambient observability concern calls for.
func Monitor(pm *observability.PerformanceMonitor) Filter {
	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		start := time.Now()
		name := req.Method + " " + req.Path
		return req, func(resp *http.Response) *http.Response {
			pm.RecordRequest(name, time.Since(start), resp.Code >= 500)
			return resp
		}
	}
}

// RateLimiter rejects requests once more than limit have been admitted
// within window, per client address. Session-scoped rate limiting (one
// limiter per Session, not this server-wide one) is the guidance spec.md
// §5 gives to avoid a DoS vector; this one is still useful as a blunt
// global backstop.
func RateLimiter(limit int, window time.Duration) Filter {
	type bucket struct {
		count     int
		resetAt   time.Time
	}
	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	return func(req *http.Request) (*http.Request, func(*http.Response) *http.Response) {
		key := req.RemoteAddr()
		now := time.Now()

		mu.Lock()
		b, ok := buckets[key]
		if !ok || now.After(b.resetAt) {
			b = &bucket{resetAt: now.Add(window)}
			buckets[key] = b
		}
		b.count++
		over := b.count > limit
		mu.Unlock()

		if over {
			return req, func(*http.Response) *http.Response {
				return http.Text(429, "too many requests\n")
			}
		}
		return req, identityPost
	}
}
