package router

import (
	"strings"

	"github.com/taskloop/httpd/core/http"
)

// Handler answers one matched request.
type Handler func(req *http.Request) *http.Response

// Route is a registered matcher chain plus the handler and scoping it was
// registered with. Built with New, then attached to a method via
// Router.Handle.
type Route struct {
	matchers []Matcher
	method   string
	handler  Handler
	filters  []Filter

	// addresses/hosts scope this route; empty means "every listener" /
	// "every Host header", per spec.md §4.4's virtual-host support.
	addresses []int
	hosts     []string

	seq int // registration order, used as the dispatch tiebreak
}

// New builds a Route from a left-to-right chain of matchers. Call Handle
// to register it against a method and handler.
func New(matchers ...Matcher) *Route {
	return &Route{matchers: matchers}
}

// OnAddress scopes r to the given listen-address indexes (spec.md §3's
// Address.index).
func (r *Route) OnAddress(indexes ...int) *Route {
	r.addresses = indexes
	return r
}

// OnHost scopes r to the given Host header values (virtual hosts).
func (r *Route) OnHost(hosts ...string) *Route {
	r.hosts = hosts
	return r
}

// Use appends filters to run around this route's handler, applied with
// Embrace composition by default (see Embrace/Cross in filter.go).
func (r *Route) Use(filters ...Filter) *Route {
	r.filters = append(r.filters, filters...)
	return r
}

// specificity returns a sortable key: lower is more specific. It is the
// concatenation of each matcher's Kind in order, compared lexicographically
// so a route whose first matcher is more specific always outranks one
// whose first matcher is less specific, regardless of what follows — the
// same tie-break a radix tree gets from walking longest-prefix-first.
func (r *Route) specificity() []Kind {
	ks := make([]Kind, len(r.matchers))
	for i, m := range r.matchers {
		ks[i] = m.Kind()
	}
	return ks
}

func lessSpecific(a, b []Kind) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return len(a) > len(b)
}

// Router holds every registered Route and dispatches a parsed Request to
// the best match, per spec.md §4.4.
type Router struct {
	routes  []*Route
	nextSeq int

	// globalFilters wrap every route, applied outermost (Embrace order).
	globalFilters []Filter
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{}
}

// Use registers filters that apply to every route on this Router.
func (rt *Router) Use(filters ...Filter) {
	rt.globalFilters = append(rt.globalFilters, filters...)
}

// Handle attaches handler to route for method and registers it.
func (rt *Router) Handle(method string, route *Route, handler Handler) {
	route.method = method
	route.handler = handler
	route.seq = rt.nextSeq
	rt.nextSeq++
	rt.routes = append(rt.routes, route)
}

// Dispatch finds the best-matching route for req and runs its handler
// through the composed filter chain. A mismatch on scope or path yields a
// 404, per spec.md §4.4 ("Mismatch yields 404"); a path match with no
// method match yields 404 as well (the core does not distinguish 404 from
// 405-for-wrong-method at the routing layer — method restriction is a
// matcher-chain concern, not a scoping one).
func (rt *Router) Dispatch(req *http.Request) *http.Response {
	route, params := rt.match(req)
	if route == nil {
		return http.Text(404, "not found\n")
	}

	req.BindRouteParams(params)

	handler := RecoverHandler(route.handler)
	chain := append(append([]Filter{}, rt.globalFilters...), route.filters...)
	for i := len(chain) - 1; i >= 0; i-- {
		handler = wrapHandler(chain[i], handler)
	}
	return handler(req)
}

func wrapHandler(f Filter, next Handler) Handler {
	return func(req *http.Request) *http.Response {
		nreq, postFn := f(req)
		resp := next(nreq)
		return postFn(resp)
	}
}

func (rt *Router) match(req *http.Request) (*Route, []any) {
	segs := splitPathForMatch(req.Path)

	var best *Route
	var bestParams []any

	for _, route := range rt.routes {
		if route.method != req.Method {
			continue
		}
		if !scopeMatches(route, req) {
			continue
		}
		params, ok := matchSegments(route.matchers, segs)
		if !ok {
			continue
		}
		if best == nil || better(route, best) {
			best = route
			bestParams = params
		}
	}

	return best, bestParams
}

func better(a, b *Route) bool {
	as, bs := a.specificity(), b.specificity()
	if lessSpecific(as, bs) {
		return false
	}
	if lessSpecific(bs, as) {
		return true
	}
	// Equal specificity: earlier registration wins.
	return a.seq < b.seq
}

func matchSegments(matchers []Matcher, segs []string) ([]any, bool) {
	var params []any
	rest := segs
	for _, m := range matchers {
		n, value, ok := m.match(rest)
		if !ok {
			return nil, false
		}
		if value != nil {
			params = append(params, value)
		}
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, false
	}
	return params, true
}

func scopeMatches(route *Route, req *http.Request) bool {
	if len(route.addresses) > 0 {
		found := false
		for _, idx := range route.addresses {
			if idx == req.AddressIndex {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(route.hosts) > 0 {
		found := false
		for _, h := range route.hosts {
			if strings.EqualFold(h, req.Host) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitPathForMatch(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
