package trellis

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// Responder consumes raw connection bytes. The dispatcher forwards every
// read to the responder on top of its stack; errors returned here are
// translated into wire-level error responses by the dispatcher.
type Responder interface {
	OnData(data []byte) error
}

// ResponderFactory builds the responder installed when a connection is
// established, and again for each pipelined request.
type ResponderFactory func(d *Dispatcher) Responder

// HTTPResponder is the default responder. It feeds the parser until the
// request head completes, builds the request/response pair, hands the pair
// to the application, then accumulates body data until Content-Length is
// satisfied and delivers it through the body handoff.
type HTTPResponder struct {
	d        *Dispatcher
	parser   *Parser
	buildReq RequestFactory
	buildRes ResponseFactory

	method        Verb
	req           *Request
	res           *Response
	bodyWriter    *BodyWriter
	body          []byte
	contentLength int
	started       bool
}

// NewHTTPResponder is the default ResponderFactory.
func NewHTTPResponder(d *Dispatcher) Responder {
	return &HTTPResponder{
		d:        d,
		parser:   NewParser(),
		buildReq: NewRequest,
		buildRes: NewResponse,
	}
}

// HTTPResponderFactory returns a ResponderFactory wiring in custom request
// and response factories.
func HTTPResponderFactory(buildReq RequestFactory, buildRes ResponseFactory) ResponderFactory {
	return func(d *Dispatcher) Responder {
		r := NewHTTPResponder(d).(*HTTPResponder)
		if buildReq != nil {
			r.buildReq = buildReq
		}
		if buildRes != nil {
			r.buildRes = buildRes
		}
		return r
	}
}

func (r *HTTPResponder) OnData(data []byte) error {
	if !r.started {
		rest, err := r.parser.Consume(data)
		if err != nil {
			return err
		}
		if !r.parser.Done() {
			return nil
		}
		if err := r.begin(); err != nil {
			return err
		}
		if r.bodyWriter == nil {
			// No body expected; leftover bytes open the next pipelined
			// request.
			r.d.advanceResponder(r)
			if len(rest) > 0 {
				return r.d.current().OnData(rest)
			}
			return nil
		}
		data = rest
	}
	if len(data) == 0 {
		return nil
	}
	if r.bodyWriter == nil {
		return errors.Wrap(ErrBadRequest, "unexpected body data")
	}
	return r.storeBody(data)
}

// begin validates the parsed head, builds the req/res pair, and starts the
// application.
func (r *HTTPResponder) begin() error {
	r.started = true

	method, err := ParseVerb(r.parser.Method)
	if err != nil {
		return errors.Wrap(ErrNotImplemented, r.parser.Method)
	}
	r.method = method

	contentLength := r.parser.Headers.Get("Content-Length")
	expectsBody := method == POST || method == PUT
	if expectsBody {
		if contentLength == "" {
			return errors.Wrapf(ErrBadRequest, "%s requires a Content-Length header", method)
		}
		n, err := strconv.Atoi(contentLength)
		if err != nil || n < 0 {
			return errors.Wrap(ErrBadRequest, "invalid Content-Length header")
		}
		if n > r.d.maxBody {
			return errors.Wrapf(ErrRequestTooLarge, "declared body of %d bytes exceeds limit", n)
		}
		r.contentLength = n
	} else if contentLength != "" {
		return errors.Wrapf(ErrBadRequest, "%s may not carry a Content-Length header", method)
	}

	r.req = r.buildReq(r)
	r.res = r.buildRes(r.d)
	r.res.acceptEncoding = r.req.Headers.Get("Accept-Encoding")

	if expectsBody && r.contentLength > 0 {
		reader, writer := NewBodySync()
		writer.Prime()
		r.bodyWriter = writer
		r.req.setBodyReader(reader)
	}

	r.d.BeginApplication(r.req, r.res)
	return nil
}

// storeBody accumulates body data, compares it against the declared
// Content-Length, and on completion resolves the body handoff and retires
// this responder in favor of a fresh one for the next pipelined request.
func (r *HTTPResponder) storeBody(data []byte) error {
	r.body = append(r.body, data...)
	if len(r.body) > r.contentLength {
		return errors.Wrapf(ErrBadRequest,
			"content length exceeds expected value (%d > %d)", len(r.body), r.contentLength)
	}
	if len(r.body) == r.contentLength {
		r.bodyWriter.Deliver(r.body)
		r.d.advanceResponder(r)
	}
	return nil
}

// Accessors used by request factories.

func (r *HTTPResponder) Method() Verb         { return r.method }
func (r *HTTPResponder) Path() string         { return r.parser.Path }
func (r *HTTPResponder) RawQuery() string     { return r.parser.RawQuery }
func (r *HTTPResponder) Version() string      { return r.parser.Version }
func (r *HTTPResponder) Headers() http.Header { return r.parser.Headers }
func (r *HTTPResponder) RemoteAddr() string   { return r.d.RemoteAddr() }
