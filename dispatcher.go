package trellis

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConnState tracks the lifecycle of one dispatcher. Connected may be
// entered exactly once; Closed is terminal.
type ConnState int

const (
	Unconnected ConnState = iota
	Connected
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Dispatcher is the per-connection protocol object. It owns the transport,
// the ordered stack of responders turning bytes into request/response
// pairs, and the translation of failures into wire-level error responses.
// A dispatcher belongs to exactly one connection and must never be touched
// from another connection's context. Within a connection, handler
// goroutines and the read loop share the state and responder stack, so
// both sit behind the mutex.
type Dispatcher struct {
	mu            sync.Mutex
	state         ConnState
	conn          net.Conn
	responders    []Responder
	makeResponder ResponderFactory
	handle        HandlerFunc
	maxBody       int
	remoteHost    string
	remotePort    string
	eof           bool
	log           *logrus.Entry
}

// NewDispatcher creates a dispatcher for a not-yet-established connection.
// handle is the application entry point invoked once per parsed request;
// a nil factory installs the default HTTP responder.
func NewDispatcher(handle HandlerFunc, factory ResponderFactory) *Dispatcher {
	if factory == nil {
		factory = NewHTTPResponder
	}
	return &Dispatcher{
		handle:        handle,
		makeResponder: factory,
		maxBody:       MaxPostLength,
		log:           log.WithField("component", "dispatcher"),
	}
}

// OnConnect binds the dispatcher to its transport, captures the remote
// endpoint, and installs the first responder. Connecting an already
// connected or closed dispatcher is a programming error.
func (d *Dispatcher) OnConnect(conn net.Conn) {
	first := d.makeResponder(d)
	d.mu.Lock()
	if d.state != Unconnected {
		state := d.state
		d.mu.Unlock()
		panic(fmt.Sprintf("trellis: dispatcher connected while %s", state))
	}
	d.state = Connected
	d.conn = conn
	d.responders = []Responder{first}
	d.mu.Unlock()

	if addr := conn.RemoteAddr(); addr != nil {
		d.remoteHost, d.remotePort, _ = net.SplitHostPort(addr.String())
	}
	d.log = d.log.WithFields(logrus.Fields{
		"remote_host": d.remoteHost,
		"remote_port": d.remotePort,
	})
	d.log.Debug("connection established")
}

func (d *Dispatcher) State() ConnState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) RemoteHost() string { return d.remoteHost }
func (d *Dispatcher) RemotePort() string { return d.remotePort }

// Conn exposes the transport, e.g. for protocol upgrades.
func (d *Dispatcher) Conn() net.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn
}

// RemoteAddr returns the remote endpoint as host:port.
func (d *Dispatcher) RemoteAddr() string {
	conn := d.Conn()
	if conn == nil {
		return ""
	}
	return conn.RemoteAddr().String()
}

// OnData forwards bytes to the responder on top of the stack. Responder
// failures are converted to a wire error here and never propagate back to
// the transport's read loop. Valid only while Connected.
func (d *Dispatcher) OnData(data []byte) {
	d.mu.Lock()
	if d.state != Connected {
		state := d.state
		d.mu.Unlock()
		panic(fmt.Sprintf("trellis: data received while %s", state))
	}
	r := d.responders[len(d.responders)-1]
	d.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			d.OnError(errors.Errorf("responder panic: %v", p))
		}
	}()
	if err := r.OnData(data); err != nil {
		d.OnError(err)
	}
}

func (d *Dispatcher) current() Responder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.responders[len(d.responders)-1]
}

// PushResponder installs r as the receiver of subsequent reads, e.g. for a
// protocol upgrade.
func (d *Dispatcher) PushResponder(r Responder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responders = append(d.responders, r)
}

// advanceResponder retires the spent responder, installing a fresh one in
// its slot for the next pipelined request. Replacing instead of stacking
// keeps a keep-alive connection from accumulating finished responders and
// their buffers. The slot is located by identity: a handler may already
// have pushed an upgrade responder on top, and that must not be clobbered.
func (d *Dispatcher) advanceResponder(spent Responder) {
	r := d.makeResponder(d)
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.responders) - 1; i >= 0; i-- {
		if d.responders[i] == spent {
			d.responders[i] = r
			return
		}
	}
}

// BeginApplication hands a parsed request/response pair to the application
// as its own unit of concurrency. The dispatcher does not wait on it, so
// bytes for pipelined requests keep flowing. The spawned task is not
// cancelled on connection close.
func (d *Dispatcher) BeginApplication(req *Request, res *Response) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				d.log.WithField("panic", p).Error("handler panicked")
				if !res.Ended() {
					d.OnError(errors.Errorf("handler panic: %v", p))
				}
			}
		}()
		d.handle(req, res)
	}()
}

// OnError writes a minimal, self-contained error response straight to the
// transport, bypassing the response pipeline. Classified errors keep their
// code and message with no body detail; anything else becomes a 500 with
// the error text as detail and a logged trace. This path never panics.
func (d *Dispatcher) OnError(err error) {
	defer func() {
		if p := recover(); p != nil {
			d.log.WithField("panic", p).Error("error path panicked")
		}
	}()

	code, msg, detail := http.StatusInternalServerError, "Server Error", ""
	var se StatusError
	if errors.As(err, &se) {
		code, msg = se.StatusCode(), se.StatusMessage()
	} else {
		detail = err.Error()
		d.log.WithError(err).Errorf("unexpected server error: %+v", err)
	}

	body := fmt.Sprintf(
		"<html><head></head><body><h1>HTTP Error : %d %s</h1><p>%s</p></body></html>\n",
		code, msg, detail,
	)
	response := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: text/html; charset=UTF-8\r\nContent-Length: %d\r\nDate: %s\r\n\r\n%s",
		code, msg, len(body), httpDate(), body,
	)
	if conn := d.Conn(); conn != nil {
		if _, werr := conn.Write([]byte(response)); werr != nil {
			d.log.WithError(werr).Debug("writing error response")
		}
	}
}

// OnEOF records that the client is done transmitting.
func (d *Dispatcher) OnEOF() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eof = true
}

// OnClose releases the transport. Safe to call more than once; no further
// events are valid afterwards.
func (d *Dispatcher) OnClose() {
	d.mu.Lock()
	if d.state == Closed {
		d.mu.Unlock()
		return
	}
	d.state = Closed
	conn := d.conn
	d.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	d.log.Debug("connection closed")
}

// write sends a fully serialized response over the transport.
func (d *Dispatcher) write(b []byte) error {
	d.mu.Lock()
	if d.state != Connected {
		d.mu.Unlock()
		return errors.New("write on closed connection")
	}
	conn := d.conn
	d.mu.Unlock()

	_, err := conn.Write(b)
	return errors.Wrap(err, "writing response")
}
