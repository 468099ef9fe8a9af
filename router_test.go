package trellis

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCapturesNamedParams(t *testing.T) {
	r := NewRouter()
	r.Get("/users/:id", HandlerFunc(noopHandler))

	got := collect(&r.Chain, GET, "/users/42")
	require.Len(t, got, 1)
	assert.Equal(t, "42", got[0].Params["id"])
	assert.Equal(t, "", got[0].Residual)
}

func TestCompileLeavesLiteralSegmentsAlone(t *testing.T) {
	r := NewRouter()
	r.Get("/users/profile", HandlerFunc(noopHandler))

	assert.Len(t, collect(&r.Chain, GET, "/users/profile"), 1)
	assert.Empty(t, collect(&r.Chain, GET, "/users/42"))
}

func TestCompileMultipleParams(t *testing.T) {
	r := NewRouter()
	r.Get("/repos/:owner/:name", HandlerFunc(noopHandler))

	got := collect(&r.Chain, GET, "/repos/alice/trellis")
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Params["owner"])
	assert.Equal(t, "trellis", got[0].Params["name"])
}

func TestRouterVerbRegistration(t *testing.T) {
	r := NewRouter()
	r.Get("/thing", HandlerFunc(noopHandler))
	r.Post("/thing", HandlerFunc(noopHandler))
	r.Put("/thing", HandlerFunc(noopHandler))
	r.Delete("/thing", HandlerFunc(noopHandler))

	for i, v := range []Verb{GET, POST, PUT, DELETE} {
		got := collect(&r.Chain, v, "/thing")
		require.Len(t, got, 1, "verb %s", v)
		assert.Same(t, r.entries[i], got[0].Entry)
	}
}

func TestRouterUseMatchesEverything(t *testing.T) {
	r := NewRouter()
	r.Use(HandlerFunc(noopHandler))

	for _, path := range []string{"/", "/deep/nested/path", "/users/42"} {
		got := collect(&r.Chain, POST, path)
		require.Len(t, got, 1, "path %s", path)
		assert.Equal(t, "", got[0].Residual)
	}
}

func TestRouterMountForwardsResidual(t *testing.T) {
	blog := NewRouter()
	blog.Get("/list", HandlerFunc(noopHandler))

	root := NewRouter()
	root.Mount("/blog", blog)

	got := collect(&root.Chain, GET, "/blog/list")
	require.Len(t, got, 1)
	assert.Equal(t, "/list", got[0].Residual)
	require.True(t, got[0].Entry.IsSubchain())

	inner := collect(got[0].Entry.Subchain(), GET, got[0].Residual)
	require.Len(t, inner, 1)
	assert.Equal(t, "", inner[0].Residual)
}

func TestRouterMountRespectsSegmentBoundary(t *testing.T) {
	root := NewRouter()
	root.Mount("/blog", NewRouter())

	assert.Empty(t, collect(&root.Chain, GET, "/blogger"))
}

func TestRouterVerbatimPattern(t *testing.T) {
	r := NewRouter()
	re := regexp.MustCompile(`^/v(?P<ver>\d+)$`)
	r.Register(GET, re, HandlerFunc(noopHandler))

	got := collect(&r.Chain, GET, "/v2")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Params["ver"])
	assert.Same(t, re, got[0].Entry.Pattern, "pre-compiled patterns are used verbatim")
}

func TestRouterSubrouters(t *testing.T) {
	root := NewRouter()
	root.Get("/", HandlerFunc(noopHandler))
	a := NewRouter()
	b := NewRouter()
	root.Mount("/a", a)
	root.Use(HandlerFunc(noopHandler))
	root.Mount("/b", b)

	subs := root.Subrouters()
	require.Len(t, subs, 2)
	assert.Same(t, &a.Chain, subs[0].Subchain())
	assert.Same(t, &b.Chain, subs[1].Subchain())
}

func TestRouterDispatchMatchesRequest(t *testing.T) {
	r := NewRouter()
	r.Get("/users/:id", HandlerFunc(noopHandler))

	req := &Request{Method: GET, Path: "/users/7", Params: map[string]string{}}
	var got []Match
	for m := range r.Dispatch(req) {
		got = append(got, m)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0].Params["id"])
}
