package router

import "testing"

func TestExactMatcher(t *testing.T) {
	m := Exact("foo")
	n, v, ok := m.match([]string{"foo", "bar"})
	if !ok || n != 1 || v != nil {
		t.Fatalf("got n=%d v=%v ok=%v", n, v, ok)
	}
	if _, _, ok := m.match([]string{"nope"}); ok {
		t.Fatalf("expected mismatch")
	}
	if _, _, ok := m.match(nil); ok {
		t.Fatalf("expected mismatch on empty segs")
	}
}

func TestIntMatcher(t *testing.T) {
	m := Int()
	n, v, ok := m.match([]string{"42", "x"})
	if !ok || n != 1 || v.(int) != 42 {
		t.Fatalf("got n=%d v=%v ok=%v", n, v, ok)
	}
	if _, _, ok := m.match([]string{"notanumber"}); ok {
		t.Fatalf("expected mismatch on non-numeric segment")
	}
}

func TestStringMatcher(t *testing.T) {
	m := String()
	n, v, ok := m.match([]string{"anything"})
	if !ok || n != 1 || v.(string) != "anything" {
		t.Fatalf("got n=%d v=%v ok=%v", n, v, ok)
	}
}

func TestRestMatcherConsumesEverything(t *testing.T) {
	m := Rest()
	n, v, ok := m.match([]string{"a", "b", "c"})
	if !ok || n != 3 {
		t.Fatalf("got n=%d ok=%v", n, ok)
	}
	segs := v.([]string)
	if len(segs) != 3 || segs[0] != "a" || segs[2] != "c" {
		t.Fatalf("got %v", segs)
	}
}

func TestRestMatcherMatchesEmptyRemainder(t *testing.T) {
	m := Rest()
	n, v, ok := m.match(nil)
	if !ok || n != 0 {
		t.Fatalf("got n=%d ok=%v", n, ok)
	}
	if len(v.([]string)) != 0 {
		t.Fatalf("expected empty slice, got %v", v)
	}
}

func TestReturnMatcherOnlyMatchesEmptyRemainder(t *testing.T) {
	m := Return()
	if _, _, ok := m.match(nil); !ok {
		t.Fatalf("expected match on empty segs")
	}
	if _, _, ok := m.match([]string{"x"}); ok {
		t.Fatalf("expected mismatch on non-empty segs")
	}
}

func TestKindOrderingBySpecificity(t *testing.T) {
	if !(KindReturn < KindExact && KindExact < KindInt && KindInt < KindString && KindString < KindRest) {
		t.Fatalf("matcher Kind values are not in spec.md's specificity order")
	}
}
