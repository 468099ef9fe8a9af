package trellis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Response buffers the status and headers for one reply and writes the
// whole thing to the connection on Send. A response can be sent once.
type Response struct {
	d              *Dispatcher
	status         int
	headers        http.Header
	acceptEncoding string
	ended          bool
}

// ResponseFactory builds the response half of the pair handed to the
// application.
type ResponseFactory func(d *Dispatcher) *Response

// NewResponse is the default ResponseFactory.
func NewResponse(d *Dispatcher) *Response {
	return &Response{d: d, status: http.StatusOK, headers: make(http.Header)}
}

// Status sets the response status code.
func (res *Response) Status(code int) *Response {
	res.status = code
	return res
}

// Header exposes the buffered response headers.
func (res *Response) Header() http.Header { return res.headers }

// Set sets a response header.
func (res *Response) Set(key, value string) *Response {
	res.headers.Set(key, value)
	return res
}

// Ended reports whether the response has been written out.
func (res *Response) Ended() bool { return res.ended }

// Send writes the status line, headers, and body to the connection. The
// body is compressed when the client's Accept-Encoding allows it.
func (res *Response) Send(body []byte) error {
	if res.ended {
		return errors.New("response already sent")
	}
	res.ended = true

	body, token, err := encodeBody(body, res.acceptEncoding)
	if err != nil {
		return errors.Wrap(err, "encoding response body")
	}
	if token != "" {
		res.headers.Set("Content-Encoding", token)
	}
	if res.headers.Get("Content-Type") == "" {
		res.headers.Set("Content-Type", "text/plain; charset=UTF-8")
	}
	res.headers.Set("Content-Length", strconv.Itoa(len(body)))
	res.headers.Set("Date", httpDate())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", res.status, http.StatusText(res.status))
	res.headers.Write(&buf)
	buf.WriteString("\r\n")
	buf.Write(body)
	return res.d.write(buf.Bytes())
}

// Text sends s as plain text.
func (res *Response) Text(s string) error {
	res.headers.Set("Content-Type", "text/plain; charset=UTF-8")
	return res.Send([]byte(s))
}

// HTML sends s as an HTML document.
func (res *Response) HTML(s string) error {
	res.headers.Set("Content-Type", "text/html; charset=UTF-8")
	return res.Send([]byte(s))
}

// JSON marshals v and sends it.
func (res *Response) JSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling response body")
	}
	res.headers.Set("Content-Type", "application/json; charset=UTF-8")
	return res.Send(b)
}

func httpDate() string {
	return time.Now().UTC().Format(http.TimeFormat)
}
