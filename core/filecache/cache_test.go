package filecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/taskloop/httpd/core/http"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return full
}

func TestServeMemCachesSmallTextFile(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "hello.txt", "hello world")

	c := New(dir, DefaultPolicy)
	req := http.New()

	resp, err := c.Serve(req, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.Kind != http.BodyBytes {
		t.Fatalf("expected a mem-cached bytes body, got kind %v", resp.Body.Kind)
	}
	if string(resp.Body.Bytes) != "hello world" {
		t.Fatalf("got %q", resp.Body.Bytes)
	}
}

func TestServeRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, DefaultPolicy)

	_, err := c.Serve(http.New(), "../etc/passwd")
	if err != ErrForbiddenPath {
		t.Fatalf("expected ErrForbiddenPath, got %v", err)
	}
}

func TestServeReturns404ForMissingFile(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, DefaultPolicy)

	resp, err := c.Serve(http.New(), "nope.txt")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Code != 404 {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestServeHonoursIfNoneMatch(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", "content")
	c := New(dir, DefaultPolicy)

	resp, err := c.Serve(http.New(), "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	etag, _ := resp.Header("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag header")
	}

	// Simulate a conditional GET by sending the ETag back as If-None-Match.
	req2 := http.New()
	resp2, err := c.Serve(reqWithHeader(req2, "If-None-Match", etag), "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if resp2.Code != 304 {
		t.Fatalf("expected 304, got %d", resp2.Code)
	}
}

func TestPolicyFromTagForcesVariant(t *testing.T) {
	p := PolicyFromTag("nocache")
	if v := p(10, "text/plain", "gzip"); v != NoCache {
		t.Fatalf("expected NoCache, got %v", v)
	}

	p = PolicyFromTag("memcache")
	if v := p(10<<20, "text/plain", ""); v != MemCache {
		t.Fatalf("expected MemCache regardless of size, got %v", v)
	}
}

func TestPolicyFromTagUnknownFallsBackToDefault(t *testing.T) {
	p := PolicyFromTag("")
	if v := p(1<<30, "text/plain", ""); v != SendFileCache {
		t.Fatalf("expected DefaultPolicy's large-file SendFileCache choice, got %v", v)
	}
}

func TestDefaultPolicyCompressesGzipAcceptingText(t *testing.T) {
	if v := DefaultPolicy(1024, "text/plain", "gzip, deflate"); v != CompressCache {
		t.Fatalf("expected CompressCache, got %v", v)
	}
}

// reqWithHeader is a small test helper; core/http.Request has no public
// setter for an arbitrary request header (ParseRequest fills them from the
// wire), so tests that need one reach into the exported Headers() map
// directly.
func reqWithHeader(req *http.Request, key, value string) *http.Request {
	req.Headers()[key] = value
	return req
}
