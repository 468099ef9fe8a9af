// Package trellis is a small web server library built around an ordered
// middleware chain: requests are matched against registered entries in
// registration order, and sub-routers may be mounted under path prefixes,
// consuming only the prefix and forwarding the remainder.
package trellis

import (
	"iter"
	"regexp"
	"strings"
)

// Handler is the target of a chain entry: either a leaf HandlerFunc or a
// chain-backed sub-router. Which one it is gets recorded on the entry at
// registration time, so matching never needs to inspect types.
type Handler interface {
	attach(e *Entry)
}

// HandlerFunc is a leaf handler.
type HandlerFunc func(req *Request, res *Response)

func (f HandlerFunc) attach(e *Entry) { e.fn = f }

func (c *Chain) attach(e *Entry) { e.sub = c }

// Entry is one (method mask, pattern, handler) registration.
type Entry struct {
	Mask    Verb
	Pattern *regexp.Regexp

	fn  HandlerFunc
	sub *Chain
}

// IsSubchain reports whether the entry's handler is a nested chain.
func (e *Entry) IsSubchain() bool { return e.sub != nil }

// Subchain returns the nested chain, or nil for a leaf entry.
func (e *Entry) Subchain() *Chain { return e.sub }

// Func returns the leaf handler, or nil for a subchain entry.
func (e *Entry) Func() HandlerFunc { return e.fn }

// splitPath matches the entry's pattern against the start of path,
// returning named captures and the unmatched remainder. The split must fall
// on a segment boundary, and a remainder of a bare "/" folds into the match.
func (e *Entry) splitPath(path string) (map[string]string, string, bool) {
	idx := e.Pattern.FindStringSubmatchIndex(path)
	if idx == nil || idx[0] != 0 {
		return nil, "", false
	}
	matched := path[:idx[1]]
	rest := path[idx[1]:]
	if rest != "" && !strings.HasSuffix(matched, "/") && !strings.HasPrefix(rest, "/") {
		return nil, "", false
	}
	if rest == "/" {
		rest = ""
	}

	var params map[string]string
	for i, name := range e.Pattern.SubexpNames() {
		if i == 0 || name == "" || idx[2*i] < 0 {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[name] = path[idx[2*i]:idx[2*i+1]]
	}
	return params, rest, true
}

// Match is one result of walking a chain: the entry that matched, the path
// parameters its pattern captured, and the residual path left for a
// subchain to consume.
type Match struct {
	Entry    *Entry
	Params   map[string]string
	Residual string
}

// Chain is an ordered, append-only collection of entries. Registration
// order is the only precedence rule. A chain must reach a stable state
// before concurrent matching begins; matching itself is read-only.
type Chain struct {
	entries []*Entry
}

// Register appends an entry. Existing entries are never mutated or
// reordered.
func (c *Chain) Register(mask Verb, pattern *regexp.Regexp, h Handler) {
	e := &Entry{Mask: mask, Pattern: pattern}
	h.attach(e)
	c.entries = append(c.entries, e)
}

// Len returns the number of entries in this chain, not counting subchains.
func (c *Chain) Len() int { return len(c.entries) }

// Entries returns a snapshot of the chain in registration order.
func (c *Chain) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Match yields, in registration order, every entry whose mask includes
// method and whose pattern matches a prefix of path. An entry with leftover
// path is skipped unless its handler is a subchain, which receives the
// residual for further matching. The sequence is lazy and restartable.
func (c *Chain) Match(method Verb, path string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for _, e := range c.entries {
			if e.Mask&method == 0 {
				continue
			}
			params, residual, ok := e.splitPath(path)
			if !ok {
				continue
			}
			if residual != "" && !e.IsSubchain() {
				continue
			}
			if !yield(Match{Entry: e, Params: params, Residual: residual}) {
				return
			}
		}
	}
}
