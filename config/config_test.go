package config

import "testing"

func TestParseDirBehavior(t *testing.T) {
	cases := map[string]DirBehavior{
		"":               Index,
		"lists":          Lists,
		"LISTS":          Lists,
		"index_or_lists": IndexOrLists,
		"index-or-lists": IndexOrLists,
		"forbidden":      Forbidden,
		"garbage":        Index,
	}
	for in, want := range cases {
		if got := ParseDirBehavior(in); got != want {
			t.Fatalf("ParseDirBehavior(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseMaxUploadSizeSuffixes(t *testing.T) {
	cases := map[string]int64{
		"":     0,
		"100":  100,
		"10k":  10 << 10,
		"10K":  10 << 10,
		"5m":   5 << 20,
		"1g":   1 << 30,
		"nope": 0,
	}
	for in, want := range cases {
		if got := parseMaxUploadSize(in); got != want {
			t.Fatalf("parseMaxUploadSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFinalizeAssignsDenseIndexes(t *testing.T) {
	cfg := &Config{Listens: []Address{{Host: "a"}, {Host: "b"}, {Host: "c"}}}
	cfg.Finalize()

	for i, addr := range cfg.Listens {
		if addr.Index != i {
			t.Fatalf("Listens[%d].Index = %d, want %d", i, addr.Index, i)
		}
	}
}

func TestAddListenAssignsNextIndex(t *testing.T) {
	cfg := &Config{}
	i0 := cfg.AddListen(Address{Host: "a"})
	i1 := cfg.AddListen(Address{Host: "b"})

	if i0 != 0 || i1 != 1 {
		t.Fatalf("got indexes %d, %d", i0, i1)
	}
	if len(cfg.Listens) != 2 {
		t.Fatalf("expected 2 listens, got %d", len(cfg.Listens))
	}
}

func TestAddDirAppends(t *testing.T) {
	cfg := &Config{}
	cfg.AddDir(DirHandler{MountPath: "static"})
	cfg.AddDir(DirHandler{MountPath: "uploads"})

	if len(cfg.Dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(cfg.Dirs))
	}
	if cfg.Dirs[0].MountPath != "static" || cfg.Dirs[1].MountPath != "uploads" {
		t.Fatalf("got %v", cfg.Dirs)
	}
}
