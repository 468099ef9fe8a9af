package trellis

import (
	"context"
	"net/http"
	"net/url"
)

// Request carries everything a handler can learn about one client request.
// Route parameters are filled in by the server as patterns match.
type Request struct {
	Method     Verb
	Path       string
	RawQuery   string
	Version    string
	Headers    http.Header
	Params     map[string]string
	RemoteAddr string

	// Session is populated by the Sessions middleware, nil otherwise.
	Session *Session

	body *BodyReader
}

// RequestFactory builds the request half of the pair handed to the
// application. Injected so responders never construct requests directly.
type RequestFactory func(r *HTTPResponder) *Request

// NewRequest is the default RequestFactory.
func NewRequest(r *HTTPResponder) *Request {
	return &Request{
		Method:     r.Method(),
		Path:       r.Path(),
		RawQuery:   r.RawQuery(),
		Version:    r.Version(),
		Headers:    r.Headers(),
		Params:     make(map[string]string),
		RemoteAddr: r.RemoteAddr(),
	}
}

// Param returns the captured route parameter, or "" when absent.
func (req *Request) Param(name string) string { return req.Params[name] }

// Query parses the request's query string.
func (req *Request) Query() url.Values {
	q, _ := url.ParseQuery(req.RawQuery)
	return q
}

// Body blocks until the request body has been fully received, or ctx is
// cancelled. Requests without a body return nil immediately.
func (req *Request) Body(ctx context.Context) ([]byte, error) {
	if req.body == nil {
		return nil, nil
	}
	return req.body.Read(ctx)
}

func (req *Request) setBodyReader(r *BodyReader) { req.body = r }
