// Package router implements spec.md §4.4's typed path matcher and filter
// composition. A Route is built by chaining Matcher values left to right
// via New(); each bound variable a matcher extracts is appended to the
// request's route params in that order, so a Handler registered against a
// given chain can assume its arity matches exactly.
package router

import (
	"strconv"

	"github.com/taskloop/httpd/core/optimize"
)

// Kind orders matchers by specificity for dispatch, per spec.md §4.4:
// Return (empty path) > Exact > Int > String > Rest.
type Kind int

const (
	KindReturn Kind = iota
	KindExact
	KindInt
	KindString
	KindRest
)

// Matcher consumes zero or more path segments starting at segs[0:] and
// reports how many it consumed, the bound value (if any) to append to the
// route params, and whether it matched at all.
type Matcher interface {
	Kind() Kind
	// match attempts to consume from segs. ok is false on mismatch; n is
	// the number of segments consumed on success; value is nil for
	// matchers that bind nothing (Exact, Return).
	match(segs []string) (n int, value any, ok bool)
}

// Return matches only the empty remaining path: a route built from just
// Return() only matches its exact registered path with nothing left over.
// It is the most specific matcher in the dispatch order.
func Return() Matcher { return returnMatcher{} }

type returnMatcher struct{}

func (returnMatcher) Kind() Kind { return KindReturn }
func (returnMatcher) match(segs []string) (int, any, bool) {
	if len(segs) == 0 {
		return 0, nil, true
	}
	return 0, nil, false
}

// Exact matches one literal path segment. Segments of 16 bytes or more
// are compared via optimize.ComparePathSIMD, the same SIMD-gated
// comparison the source uses for hot-path string equality; shorter
// segments fall back to plain comparison there already.
func Exact(segment string) Matcher { return exactMatcher{segment} }

type exactMatcher struct{ segment string }

func (exactMatcher) Kind() Kind { return KindExact }
func (e exactMatcher) match(segs []string) (int, any, bool) {
	if len(segs) == 0 {
		return 0, nil, false
	}
	if !optimize.ComparePathSIMD(segs[0], e.segment) {
		return 0, nil, false
	}
	return 1, nil, true
}

// Int consumes one segment and binds it as an int.
func Int() Matcher { return intMatcher{} }

type intMatcher struct{}

func (intMatcher) Kind() Kind { return KindInt }
func (intMatcher) match(segs []string) (int, any, bool) {
	if len(segs) == 0 {
		return 0, nil, false
	}
	n, err := strconv.Atoi(segs[0])
	if err != nil {
		return 0, nil, false
	}
	return 1, n, true
}

// String consumes one non-slash segment and binds it as a string.
func String() Matcher { return stringMatcher{} }

type stringMatcher struct{}

func (stringMatcher) Kind() Kind { return KindString }
func (stringMatcher) match(segs []string) (int, any, bool) {
	if len(segs) == 0 {
		return 0, nil, false
	}
	return 1, segs[0], true
}

// Rest consumes every remaining segment and binds them as a []string.
// Because it always succeeds (even on zero remaining segments) it is the
// least specific matcher and must sort last among competing routes.
func Rest() Matcher { return restMatcher{} }

type restMatcher struct{}

func (restMatcher) Kind() Kind { return KindRest }
func (restMatcher) match(segs []string) (int, any, bool) {
	rest := make([]string, len(segs))
	copy(rest, segs)
	return len(segs), rest, true
}
