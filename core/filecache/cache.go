// Package filecache implements spec.md §4.5's static-file cache: given a
// path and a request's conditional/accept-encoding headers, it returns a
// ready-to-serve Response body variant without repeating work across
// requests.
package filecache

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/taskloop/httpd/core/http"
)

// ErrForbiddenPath is returned when the requested path contains "..";
// the caller must respond 403 before any cache lookup, per spec.md §4.5.
var ErrForbiddenPath = errors.New("filecache: forbidden path")

// Variant selects how an entry's bytes are served.
type Variant int

const (
	NoCache Variant = iota
	MemCache
	CompressCache
	SendFileCache
	SendFile
)

// Policy chooses a Variant for a given file, parameterised on size, MIME
// type and an Accept-Encoding value. The Cache calls it once per entry,
// when the entry is built, and always passes an empty Accept-Encoding;
// the requesting client's Accept-Encoding does not reach the policy.
type Policy func(size int64, mime string, acceptEncoding string) Variant

// DefaultPolicy shares a long-lived fd for files over 8 MiB,
// compress-caches text/* and application/json files when acceptEncoding
// contains gzip, mem-caches any other file up to 256 KiB, and opens fresh
// per-request otherwise. Because the Cache passes an empty
// Accept-Encoding, DefaultPolicy never picks CompressCache there; only
// PolicyFromTag("compresscache") produces compressed entries.
func DefaultPolicy(size int64, mime, acceptEncoding string) Variant {
	switch {
	case size > 8<<20:
		return SendFileCache
	case (strings.HasPrefix(mime, "text/") || mime == "application/json") && strings.Contains(acceptEncoding, "gzip"):
		return CompressCache
	case size <= 256<<10:
		return MemCache
	default:
		return SendFile
	}
}

// PolicyFromTag resolves the `cache_policy` string spec.md §6's
// per-directory handler option names into a Policy: "nocache",
// "memcache", "compresscache", "sendfilecache" and "sendfile" force the
// matching Variant for every file under the directory; any other value
// (including "") falls back to DefaultPolicy's size/MIME-based choice.
func PolicyFromTag(tag string) Policy {
	var forced Variant
	switch strings.ToLower(tag) {
	case "nocache":
		forced = NoCache
	case "memcache":
		forced = MemCache
	case "compresscache":
		forced = CompressCache
	case "sendfilecache":
		forced = SendFileCache
	case "sendfile":
		forced = SendFile
	default:
		return DefaultPolicy
	}
	return func(size int64, mime, acceptEncoding string) Variant { return forced }
}

type entry struct {
	mtime   time.Time
	variant Variant
	mime    string

	bytes []byte // InMemory

	compressedEncoding string // CompressCache
	compressedBytes    []byte

	sharedFD   int      // SendFileCache
	sharedFile *os.File // keeps sharedFD from being closed by the finalizer
	size       int64

	buildOnce sync.Mutex // per-key coalescing: at most one concurrent build
	building  bool
	buildDone chan struct{}
}

// Cache answers static-file requests, guarding its table with a
// short-held mutex and coalescing concurrent rebuilds of the same key
// behind entry.buildOnce, per spec.md §4.5 and §5.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	root    string
	policy  Policy
}

// New creates a Cache rooted at root (the directory handlers serve from).
func New(root string, policy Policy) *Cache {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Cache{entries: make(map[string]*entry), root: root, policy: policy}
}

// Serve resolves relPath against the cache and returns a Response ready
// to hand to http.WriteResponse, honouring conditional GET. It rejects
// path traversal with 403 before any lookup, per spec.md §4.5.
func (c *Cache) Serve(req *http.Request, relPath string) (*http.Response, error) {
	if strings.Contains(relPath, "..") {
		return nil, ErrForbiddenPath
	}

	fullPath := filepath.Join(c.root, relPath)

	info, err := os.Stat(fullPath)
	if err != nil {
		return http.Text(404, "not found\n"), nil
	}

	e, err := c.getOrBuild(fullPath, relPath, info)
	if err != nil {
		return nil, err
	}

	if resp := conditionalNotModified(req, e.mtime); resp != nil {
		return resp, nil
	}

	return e.toResponse(req, fullPath)
}

func (c *Cache) getOrBuild(fullPath, key string, info os.FileInfo) (*entry, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.mtime.Equal(info.ModTime()) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		e = &entry{buildDone: make(chan struct{})}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.buildOnce.Lock()
	if e.building || !e.mtime.IsZero() {
		already := !e.mtime.IsZero()
		e.buildOnce.Unlock()
		if already {
			return e, nil
		}
		<-e.buildDone
		return e, nil
	}
	e.building = true
	e.buildOnce.Unlock()

	if err := c.build(e, fullPath, info); err != nil {
		close(e.buildDone)
		return nil, err
	}
	close(e.buildDone)
	return e, nil
}

func (c *Cache) build(e *entry, fullPath string, info os.FileInfo) error {
	mime := mimeType(fullPath)
	variant := c.policy(info.Size(), mime, "")

	e.mime = mime
	e.size = info.Size()
	e.variant = variant

	switch variant {
	case MemCache, CompressCache:
		data, err := os.ReadFile(fullPath)
		if err != nil {
			return err
		}
		e.bytes = data
		if variant == CompressCache {
			compressed, err := gzipBytes(data)
			if err == nil {
				e.compressedEncoding = "gzip"
				e.compressedBytes = compressed
			}
		}
	case SendFileCache:
		fd, err := os.Open(fullPath)
		if err != nil {
			return err
		}
		e.sharedFile = fd
		e.sharedFD = int(fd.Fd())
	case NoCache, SendFile:
		// Nothing to precompute; fd opened fresh per request in
		// toResponse.
	}

	e.mtime = info.ModTime()
	return nil
}

func (e *entry) toResponse(req *http.Request, fullPath string) (*http.Response, error) {
	resp := http.NewResponse(200)
	resp.SetHeader("Content-Type", e.mime)
	resp.SetHeader("ETag", http.ETagFor(e.mtime))
	http.SetDateHeader(resp, time.Now())

	switch e.variant {
	case MemCache:
		resp.Body = http.BytesBody(e.bytes)
	case CompressCache:
		accepts := strings.Contains(req.HeaderValue("Accept-Encoding"), "gzip")
		if accepts && e.compressedBytes != nil {
			resp.SetHeader("Content-Encoding", e.compressedEncoding)
			resp.Body = http.BytesBody(e.compressedBytes)
		} else {
			resp.Body = http.BytesBody(e.bytes)
		}
	case SendFileCache:
		resp.Body = http.FileBody(e.sharedFD, 0, e.size, http.KeepOpen)
	case SendFile, NoCache:
		fd, err := os.Open(fullPath)
		if err != nil {
			return nil, err
		}
		resp.Body = http.FileBody(int(fd.Fd()), 0, e.size, http.CloseAfterWrite)
	}

	return resp, nil
}

// conditionalNotModified implements spec.md §4.5's conditional-GET rule:
// a matching If-None-Match or an If-Modified-Since >= mtime yields 304
// with no body and no resource acquisition.
func conditionalNotModified(req *http.Request, mtime time.Time) *http.Response {
	etag := http.ETagFor(mtime)
	if inm := req.HeaderValue("If-None-Match"); inm != "" && inm == etag {
		return http.NotModified()
	}
	if ims := req.HeaderValue("If-Modified-Since"); ims != "" {
		if t, err := time.Parse(time.RFC1123, ims); err == nil {
			if !mtime.After(t) {
				return http.NotModified()
			}
		}
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf strings.Builder
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func mimeType(path string) string {
	ext := filepath.Ext(path)
	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".wasm":
		return "application/wasm"
	default:
		return "application/octet-stream"
	}
}
