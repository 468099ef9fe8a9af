package trellis

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Byte budgets enforced while reading a request.
const (
	MaxRequestLength = 4 << 10 // request line + headers
	MaxPostLength    = 2 << 20 // declared body size
)

// Parser incrementally consumes the request line and headers of one
// HTTP/1.1 request. Consume returns nil until the head is complete; the
// call that completes it returns any body bytes that followed.
type Parser struct {
	buf  []byte
	done bool

	Method   string
	Path     string
	RawQuery string
	Version  string
	Headers  http.Header
}

func NewParser() *Parser {
	return &Parser{Headers: make(http.Header)}
}

// Done reports whether the head has been fully parsed.
func (p *Parser) Done() bool { return p.done }

// Consume feeds the parser more bytes from the connection.
func (p *Parser) Consume(data []byte) ([]byte, error) {
	if p.done {
		return data, nil
	}
	p.buf = append(p.buf, data...)

	end := bytes.Index(p.buf, []byte("\r\n\r\n"))
	sep := 4
	if end < 0 {
		end = bytes.Index(p.buf, []byte("\n\n"))
		sep = 2
	}
	if end < 0 {
		if len(p.buf) > MaxRequestLength {
			return nil, errors.Wrap(ErrRequestTooLarge, "request head exceeds limit")
		}
		return nil, nil
	}
	if end > MaxRequestLength {
		return nil, errors.Wrap(ErrRequestTooLarge, "request head exceeds limit")
	}

	head := string(p.buf[:end])
	rest := p.buf[end+sep:]
	p.buf = nil
	p.done = true
	if err := p.parseHead(head); err != nil {
		return nil, err
	}
	return rest, nil
}

func (p *Parser) parseHead(head string) error {
	lines := strings.Split(strings.ReplaceAll(head, "\r\n", "\n"), "\n")

	parts := strings.Split(lines[0], " ")
	if len(parts) != 3 {
		return errors.Wrap(ErrBadRequest, "malformed request line")
	}
	p.Method = parts[0]
	target := parts[1]
	if i := strings.IndexByte(target, '?'); i >= 0 {
		p.Path, p.RawQuery = target[:i], target[i+1:]
	} else {
		p.Path = target
	}
	if !strings.HasPrefix(p.Path, "/") {
		return errors.Wrap(ErrBadRequest, "request target must be absolute")
	}
	p.Version = parts[2]
	if p.Version != "HTTP/1.1" && p.Version != "HTTP/1.0" {
		return errors.Wrap(ErrVersionNotSupported, p.Version)
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			return errors.Wrap(ErrBadRequest, "malformed header line")
		}
		p.Headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return nil
}
