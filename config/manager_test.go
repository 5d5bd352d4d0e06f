package config

import "testing"

func TestManagerGetSetRoundTrip(t *testing.T) {
	m := NewManager()
	m.Set("workers", 4)

	if got := m.GetInt("workers"); got != 4 {
		t.Fatalf("got %d", got)
	}
	if got := m.GetInt("missing", 7); got != 7 {
		t.Fatalf("expected default value, got %d", got)
	}
}

func TestManagerGetBoolAcceptsStringTruthy(t *testing.T) {
	m := NewManager()
	m.Set("enabled", "yes")
	if !m.GetBool("enabled") {
		t.Fatalf("expected true")
	}
}

func TestDirHandlerFromKeysReadsEveryOption(t *testing.T) {
	m := NewManager()
	m.Set("dirs.static.download", true)
	m.Set("dirs.static.dir_behavior", "lists")
	m.Set("dirs.static.delete", true)
	m.Set("dirs.static.upload", true)
	m.Set("dirs.static.max_upload_size", "10m")
	m.Set("dirs.static.cache_policy", "memcache")

	d := m.DirHandlerFromKeys("dirs.static", "static", "/srv/static")

	if d.MountPath != "static" || d.Root != "/srv/static" {
		t.Fatalf("got %+v", d)
	}
	if !d.Download || !d.Delete || !d.Upload {
		t.Fatalf("got %+v", d)
	}
	if d.DirBehavior != Lists {
		t.Fatalf("got dir behavior %v", d.DirBehavior)
	}
	if d.MaxUploadSize != 10<<20 {
		t.Fatalf("got max upload size %d", d.MaxUploadSize)
	}
	if d.CachePolicyTag != "memcache" {
		t.Fatalf("got cache policy tag %q", d.CachePolicyTag)
	}
}

func TestDirHandlerFromKeysDefaultsOnMissingOptions(t *testing.T) {
	m := NewManager()
	d := m.DirHandlerFromKeys("dirs.empty", "empty", "/srv/empty")

	if d.Download || d.Delete || d.Upload {
		t.Fatalf("expected every bool option to default false, got %+v", d)
	}
	if d.DirBehavior != Index {
		t.Fatalf("expected default DirBehavior Index, got %v", d.DirBehavior)
	}
	if d.MaxUploadSize != 0 {
		t.Fatalf("expected unlimited max upload size, got %d", d.MaxUploadSize)
	}
}
