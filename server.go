package trellis

import (
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Server ties a listener to a root router: every accepted connection gets
// its own dispatcher, fed from a dedicated read loop.
type Server struct {
	Config Config
	Router *Router

	// SecureConfig, when set, wraps the listener in TLS.
	SecureConfig *tls.Config

	makeResponder ResponderFactory

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// New builds a server configured from the environment.
func New() *Server {
	cfg, err := LoadConfig()
	if err != nil {
		log.WithError(err).Warn("falling back to default configuration")
		cfg = DefaultConfig()
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds a server with an explicit configuration.
func NewWithConfig(cfg Config) *Server {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxPostLength
	}
	SetLogLevel(cfg.LogLevel)
	return &Server{Config: cfg, Router: NewRouter()}
}

// Root router conveniences.

func (s *Server) Get(path string, h Handler) *Server    { s.Router.Get(path, h); return s }
func (s *Server) Post(path string, h Handler) *Server   { s.Router.Post(path, h); return s }
func (s *Server) Put(path string, h Handler) *Server    { s.Router.Put(path, h); return s }
func (s *Server) Delete(path string, h Handler) *Server { s.Router.Delete(path, h); return s }
func (s *Server) All(path string, h Handler) *Server    { s.Router.All(path, h); return s }
func (s *Server) Use(h Handler) *Server                 { s.Router.Use(h); return s }
func (s *Server) Mount(path string, sub *Router) *Server {
	s.Router.Mount(path, sub)
	return s
}

// SetResponderFactory overrides the responder installed on new connections.
func (s *Server) SetResponderFactory(f ResponderFactory) { s.makeResponder = f }

// Start listens on addr and serves until Close. It returns the bound host
// and port, useful when addr requests an ephemeral port.
func (s *Server) Start(addr string) (string, uint, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return "", 0, errors.Wrap(err, "listening")
	}
	if s.SecureConfig != nil {
		l = tls.NewListener(l, s.SecureConfig)
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	go s.acceptLoop(l)

	host, portStr, _ := net.SplitHostPort(l.Addr().String())
	port, _ := strconv.ParseUint(portStr, 10, 16)
	return host, uint(port), nil
}

// Close stops the listener. In-flight connections run to completion.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) acceptLoop(l net.Listener) {
	defer l.Close()
	for {
		conn, err := l.Accept()
		if err != nil {
			if !s.isClosed() {
				log.WithError(err).Error("accept failed")
			}
			return
		}
		go s.serveConn(conn)
	}
}

// serveConn pumps the connection's bytes into a dedicated dispatcher. All
// responder and handler failures surface as wire errors inside OnData; read
// failures end the connection.
func (s *Server) serveConn(conn net.Conn) {
	d := NewDispatcher(s.HandleRequest, s.makeResponder)
	d.maxBody = s.Config.MaxBodyBytes
	d.OnConnect(conn)
	defer d.OnClose()

	buf := make([]byte, s.Config.ReadBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			d.OnData(data)
		}
		if err != nil {
			if err == io.EOF {
				d.OnEOF()
			} else if !s.isClosed() {
				log.WithError(err).Debug("connection read failed")
			}
			return
		}
	}
}

// HandleRequest resolves a request against the root router, running every
// matching handler in registration order until one ends the response.
// Unhandled requests get a 404.
func (s *Server) HandleRequest(req *Request, res *Response) {
	dispatchChain(&s.Router.Chain, req, res, req.Path)
	if !res.Ended() {
		res.Status(404).HTML("<html><head></head><body><h1>404 Not Found</h1></body></html>\n")
	}
}

// dispatchChain walks matches depth-first: subchain entries recurse with
// the residual path, leaf entries run with their captures merged into the
// request.
func dispatchChain(c *Chain, req *Request, res *Response, path string) {
	for m := range c.Match(req.Method, path) {
		if res.Ended() {
			return
		}
		for k, v := range m.Params {
			req.Params[k] = v
		}
		if sub := m.Entry.Subchain(); sub != nil {
			subpath := m.Residual
			if !strings.HasPrefix(subpath, "/") {
				subpath = "/" + subpath
			}
			dispatchChain(sub, req, res, subpath)
		} else {
			m.Entry.Func()(req, res)
		}
	}
}
