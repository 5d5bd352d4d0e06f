// Package app is the process lifecycle entry point: it builds the worker
// pool, the acceptors and the router from a config.Config, and owns
// signal-driven shutdown, the way the teacher's own App did, generalized
// from a single net/http server to the sharded scheduler spec.md
// describes.
package app

import (
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/taskloop/httpd/config"
	"github.com/taskloop/httpd/core/observability"
	"github.com/taskloop/httpd/core/pools"
	"github.com/taskloop/httpd/core/router"
	"github.com/taskloop/httpd/core/scheduler"
)

// App owns every worker, acceptor and the router handlers are registered
// against.
type App struct {
	cfg *config.Config

	router  *router.Router
	monitor *observability.PerformanceMonitor

	workers   []*scheduler.Worker
	acceptors []*scheduler.Acceptor

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New builds N workers (config.NumThreads) and the router they'll
// dispatch through, but does not yet bind any listener — call Run for
// that.
func New(cfg *config.Config) *App {
	if cfg.MaskSigpipe {
		signal.Ignore(syscall.SIGPIPE)
	}

	pools.OptimizeForHighThroughput()

	a := &App{
		cfg:      cfg,
		router:   router.NewRouter(),
		monitor:  observability.NewPerformanceMonitor(),
		shutdown: make(chan struct{}),
	}

	a.router.Use(router.Monitor(a.monitor))

	for _, d := range cfg.Dirs {
		a.RegisterDir(d)
	}

	numThreads := cfg.NumThreads
	if numThreads <= 0 {
		numThreads = 1
	}
	for i := 0; i < numThreads; i++ {
		w, err := scheduler.NewWorker(i, cfg.Timeout)
		if err != nil {
			log.Fatalf("app: create worker %d: %v", i, err)
		}
		a.workers = append(a.workers, w)
	}

	return a
}

// Router returns the Router handlers register against, per doc.go's
// Quick Start example.
func (a *App) Router() *router.Router {
	return a.router
}

// Monitor returns the per-handler latency/throughput aggregator wired
// into every request via router.Monitor.
func (a *App) Monitor() *observability.PerformanceMonitor {
	return a.monitor
}

// Start launches every worker and binds every configured listen address,
// returning once all of them are bound. Run calls this, then blocks for a
// termination signal; callers that need to know the bound address (e.g.
// when a configured port of 0 asks the OS to pick one) or that drive
// their own shutdown call Start and Wait/Stop directly instead of Run.
func (a *App) Start() error {
	for _, w := range a.workers {
		go w.Run()
	}

	for _, addr := range a.cfg.Listens {
		acceptor := scheduler.NewAcceptor(a.workers, a.cfg.MaxConnections, a.acceptHandler)
		schedAddr := scheduler.Address{
			Host:      addr.Host,
			Port:      addr.Port,
			TLSConfig: addr.TLSConfig,
			ReuseAddr: addr.ReuseAddr,
			Index:     addr.Index,
		}
		if err := acceptor.Listen(schedAddr); err != nil {
			return err
		}
		a.acceptors = append(a.acceptors, acceptor)
		log.Printf("listening on %s:%d", addr.Host, addr.Port)
	}
	return nil
}

// Addrs returns the bound address of every listener Start has opened, in
// config.Listens order.
func (a *App) Addrs() []net.Addr {
	var addrs []net.Addr
	for _, acc := range a.acceptors {
		addrs = append(addrs, acc.Addrs()...)
	}
	return addrs
}

// Wait blocks until Stop is called (directly, or via a caught termination
// signal when Run started the signal watcher).
func (a *App) Wait() {
	<-a.shutdown
}

// Run starts every worker, binds every configured listen address, and
// blocks until a termination signal arrives.
func (a *App) Run() {
	if err := a.Start(); err != nil {
		log.Fatalf("app: %v", err)
	}
	go a.awaitSignal()
	a.Wait()
}

// Stop triggers the same graceful shutdown awaitSignal performs, for
// callers embedding App rather than letting it own process signals.
func (a *App) Stop() {
	a.shutdownOnce.Do(func() {
		for _, acc := range a.acceptors {
			acc.Close()
		}
		for _, w := range a.workers {
			w.Shutdown()
		}
		close(a.shutdown)
	})
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("signal received: %v, shutting down", sig)
	a.Stop()
}
