/*
Package httpd is an HTTP/1.1 server library built around a sharded
cooperative scheduler: N worker threads, each owning a ready queue, a
sleep heap and its own readiness poller, host one task per client
connection for that connection's entire lifetime. Sockets are
non-blocking; request parsing, chunked transfer, sendfile and TLS are
exposed to handlers through a uniform API that looks blocking but
cooperatively suspends on would-block.

Quick Start

	package main

	import (
	    "github.com/taskloop/httpd/app"
	    "github.com/taskloop/httpd/config"
	    "github.com/taskloop/httpd/core/http"
	    "github.com/taskloop/httpd/core/router"
	)

	func main() {
	    cfg := config.New()
	    a := app.New(cfg)

	    a.Router().Handle("GET", router.New(router.Exact("hello"), router.String(), router.Return()),
	        func(req *http.Request) *http.Response {
	            name, _ := req.RouteParam(0).(string)
	            return http.Text(200, "hello "+name+"\n")
	        })

	    a.Run()
	}

Modules

The library is organized into the following packages:

  - app: process lifecycle (signal handling, startup, shutdown)
  - config: listen addresses, worker count, timeouts, per-directory options
  - core/task: the resumable unit of cooperative scheduling, sleep heap, cooperative mutex
  - core/scheduler: per-worker event loop and the connection acceptor
  - core/poller: epoll (Linux) / kqueue (BSD, Darwin) readiness notification
  - core/netio: non-blocking read/write/sendfile/schedule_io over a raw fd, TLS wrapping, corking
  - core/httpio: buffered request decoding (identity/chunked) and chunked/sendfile response encoding
  - core/http: request/response types, the HTTP/1.1 parser and writer, cookies, Server-Sent Events
  - core/router: typed path matchers, virtual-host/address scoping, filter composition
  - core/filecache: static-file serving variants, conditional GET, per-key build coalescing
  - core/pools: connection/byte/generic object pooling and GC tuning
  - core/optimize: CPU-feature-gated path comparison used by the router
  - core/observability: per-handler latency and throughput monitoring

For the full functional specification see SPEC_FULL.md; for the
grounding of every package in the retrieval corpus see DESIGN.md.
*/
package httpd
