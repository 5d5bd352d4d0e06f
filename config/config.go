// Package config carries the listen addresses, worker count, timeouts and
// per-directory handler options spec.md §6 enumerates, loaded from flags
// the way the teacher's config.New did, generalized from four flags to
// the full option set.
package config

import (
	"crypto/tls"
	"flag"
	"strconv"
	"strings"
	"time"
)

// DirBehavior selects how a directory handler responds to a request whose
// path names a directory, per spec.md §6's per-directory option set.
type DirBehavior int

const (
	Index DirBehavior = iota
	Lists
	IndexOrLists
	Forbidden
)

func ParseDirBehavior(s string) DirBehavior {
	switch strings.ToLower(s) {
	case "lists":
		return Lists
	case "index_or_lists", "index-or-lists":
		return IndexOrLists
	case "forbidden":
		return Forbidden
	default:
		return Index
	}
}

// Address is one listen endpoint (spec.md §3's Address entity). Index is
// assigned by Config.Finalize and used by core/router's address-scoping.
type Address struct {
	Host      string
	Port      int
	TLSConfig *tls.Config
	ReuseAddr bool
	Index     int
}

// DirHandler is the per-directory handler option set spec.md §6 lists:
// `{download, dir_behavior, delete, upload, max_upload_size, cache_policy}`.
type DirHandler struct {
	MountPath      string
	Root           string
	Download       bool
	DirBehavior    DirBehavior
	Delete         bool
	Upload         bool
	MaxUploadSize  int64
	CachePolicyTag string // resolved to a filecache.Policy by app.New
}

// Config is the full set of options spec.md §6 enumerates.
type Config struct {
	Listens        []Address
	MaxConnections int
	NumThreads     int
	Timeout        time.Duration // negative disables idle timeout
	BufSize        int
	MaskSigpipe    bool

	Dirs []DirHandler

	Env string
}

// New loads Config from command-line flags, mirroring the teacher's
// flag-based config.New but carrying every option spec.md §6 names.
// Listens and Dirs are not flag-representable as repeated structures, so
// New seeds a single default listener; callers needing more than one
// address or directory handler build a Config literal directly (app.New
// accepts either).
func New() *Config {
	cfg := &Config{}

	var host string
	var port int
	var reuseAddr bool
	var maxConns int
	var numThreads int
	var timeoutSecs int
	var bufSize int
	var maskSigpipe bool
	var env string

	flag.StringVar(&host, "host", "0.0.0.0", "listen host")
	flag.IntVar(&port, "port", 8080, "listen port")
	flag.BoolVar(&reuseAddr, "reuse-addr", false, "SO_REUSEPORT on the listen socket")
	flag.IntVar(&maxConns, "max-connections", 10000, "hard cap on simultaneous connections")
	flag.IntVar(&numThreads, "num-threads", 4, "worker count")
	flag.IntVar(&timeoutSecs, "timeout", 60, "idle timeout in seconds (negative disables)")
	flag.IntVar(&bufSize, "buf-size", 8192, "per-client read/write buffer size")
	flag.BoolVar(&maskSigpipe, "mask-sigpipe", true, "mask SIGPIPE at startup")
	flag.StringVar(&env, "env", "development", "environment (development/production)")

	flag.Parse()

	cfg.Listens = []Address{{Host: host, Port: port, ReuseAddr: reuseAddr, Index: 0}}
	cfg.MaxConnections = maxConns
	cfg.NumThreads = numThreads
	cfg.Timeout = time.Duration(timeoutSecs) * time.Second
	cfg.BufSize = bufSize
	cfg.MaskSigpipe = maskSigpipe
	cfg.Env = env

	return cfg
}

// Finalize assigns each Listens entry its dense index, per spec.md §3
// ("every Address a dense index"), used by core/router's OnAddress
// scoping. Call once after Listens is fully populated, before passing cfg
// to app.New.
func (c *Config) Finalize() {
	for i := range c.Listens {
		c.Listens[i].Index = i
	}
}

// AddListen appends a listen address and returns its assigned index.
func (c *Config) AddListen(addr Address) int {
	addr.Index = len(c.Listens)
	c.Listens = append(c.Listens, addr)
	return addr.Index
}

// AddDir registers a per-directory handler configuration.
func (c *Config) AddDir(d DirHandler) {
	c.Dirs = append(c.Dirs, d)
}

// parseMaxUploadSize accepts plain byte counts or a trailing k/m/g suffix,
// e.g. "10m" -> 10*1<<20, the convention the teacher's flag values use for
// buffer sizes.
func parseMaxUploadSize(s string) int64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'k':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g':
		mult = 1 << 30
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n * mult
}
