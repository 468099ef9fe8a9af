package trellis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/pkg/errors"
)

// WebsocketHandler consumes inbound text frames and returns a channel of
// outbound messages. Closing the returned channel ends the conversation.
type WebsocketHandler func(req *Request, in <-chan []byte) <-chan []byte

// websocketResponder feeds post-upgrade connection bytes into the pipe the
// websocket reader drains.
type websocketResponder struct {
	w *io.PipeWriter
}

func (r *websocketResponder) OnData(data []byte) error {
	_, err := r.w.Write(data)
	return errors.Wrap(err, "forwarding websocket data")
}

// Upgrade switches the request's connection to the websocket protocol and
// runs handler over it until the outbound channel closes. The dispatcher's
// read loop keeps ownership of the socket; frames reach the handler through
// an in-process pipe.
func Upgrade(req *Request, res *Response, handler WebsocketHandler) error {
	if req.Headers.Get("Upgrade") != "websocket" {
		return errors.Wrap(ErrBadRequest, "not a websocket upgrade request")
	}

	d := res.d
	pr, pw := io.Pipe()
	d.PushResponder(&websocketResponder{w: pw})

	// Replay the already-parsed head so the handshake can read it.
	go pw.Write(rebuildHead(req))

	rw := readWriter{Reader: pr, Writer: d.Conn()}
	upgrader := ws.Upgrader{}
	if _, err := upgrader.Upgrade(rw); err != nil {
		return errors.Wrap(err, "websocket handshake")
	}
	res.ended = true

	in := make(chan []byte)
	out := handler(req, in)

	go func() {
		defer close(in)
		closedErr := &wsutil.ClosedError{}
		for {
			payload, err := wsutil.ReadClientText(rw)
			if err != nil {
				if !errors.As(err, closedErr) && err != io.EOF {
					log.WithError(err).Error("reading websocket payload")
				}
				return
			}
			in <- payload
		}
	}()

	for msg := range out {
		if err := wsutil.WriteServerMessage(rw, ws.OpText, msg); err != nil {
			return errors.Wrap(err, "writing websocket message")
		}
	}
	return nil
}

type readWriter struct {
	io.Reader
	io.Writer
}

func rebuildHead(req *Request) []byte {
	target := req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GET %s %s\r\n", target, req.Version)
	req.Headers.Write(&buf)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
