package trellis

import (
	"iter"
	"regexp"
	"strings"
)

var sinatraParam = regexp.MustCompile(`^:(\w+)`)

// RootPattern matches any request path and leaves no residual. Middleware
// registered under it runs unconditionally.
var RootPattern = regexp.MustCompile(`/.*`)

// Router layers HTTP semantics on a Chain: per-verb registration,
// sinatra-style path compilation, and sub-router mounting.
//
// Routers can be linked in a tree so parts of a site live in their own
// namespace:
//
//	blog := trellis.NewRouter()
//	blog.Get("/list", listPosts)
//	root.Mount("/blog", blog)
type Router struct {
	Chain
}

func NewRouter() *Router { return &Router{} }

// Get registers h for GET requests matching path.
func (r *Router) Get(path string, h Handler) *Router { return r.route(GET, path, h) }

// Post registers h for POST requests matching path.
func (r *Router) Post(path string, h Handler) *Router { return r.route(POST, path, h) }

// Put registers h for PUT requests matching path.
func (r *Router) Put(path string, h Handler) *Router { return r.route(PUT, path, h) }

// Delete registers h for DELETE requests matching path.
func (r *Router) Delete(path string, h Handler) *Router { return r.route(DELETE, path, h) }

// All registers h for every method matching path.
func (r *Router) All(path string, h Handler) *Router { return r.route(ALL, path, h) }

func (r *Router) route(mask Verb, path string, h Handler) *Router {
	r.Register(mask, Compile(path), h)
	return r
}

// Use registers h as unconditional middleware: it matches every method and
// every path.
func (r *Router) Use(h Handler) *Router {
	r.Register(ALL, RootPattern, h)
	return r
}

// Mount registers sub under path with prefix semantics: a request matching
// the prefix is handed to sub along with the unmatched remainder of the
// path.
func (r *Router) Mount(path string, sub *Router) *Router {
	r.Register(ALL, Compile(path), sub)
	return r
}

// Dispatch resolves req against the registered handlers. It is the sole
// path by which inbound requests are matched.
func (r *Router) Dispatch(req *Request) iter.Seq[Match] {
	return r.Match(req.Method, req.Path)
}

// Subrouters returns, in registration order, every entry whose handler is
// itself a chain. Used by diagnostics, not by matching.
func (r *Router) Subrouters() []*Entry {
	var subs []*Entry
	for _, e := range r.entries {
		if e.IsSubchain() {
			subs = append(subs, e)
		}
	}
	return subs
}

// Routes returns a snapshot of all registrations in order.
func (r *Router) Routes() []*Entry { return r.Entries() }

// Compile converts a sinatra-style path into an anchored pattern. A segment
// beginning with ':' becomes a named capture group matching one or more
// word characters; every other segment is taken as written. Already
// compiled patterns never pass through here; register them directly with
// Register and they are used verbatim.
func Compile(path string) *regexp.Regexp {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if m := sinatraParam.FindStringSubmatch(segment); m != nil {
			segments[i] = `(?P<` + m[1] + `>\w+)`
		}
	}
	return regexp.MustCompile("^" + strings.Join(segments, "/"))
}

// Literal returns a pattern matching path exactly as written, with no
// metacharacters interpreted.
func Literal(path string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(path))
}
