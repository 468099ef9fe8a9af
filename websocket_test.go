package trellis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketEcho(t *testing.T) {
	s := NewWithConfig(DefaultConfig())
	s.Get("/echo", HandlerFunc(func(req *Request, res *Response) {
		Upgrade(req, res, func(req *Request, in <-chan []byte) <-chan []byte {
			out := make(chan []byte)
			go func() {
				defer close(out)
				for msg := range in {
					out <- []byte(strings.ToUpper(string(msg)))
				}
			}()
			return out
		})
	}))
	host, port, err := s.Start("localhost:0")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	conn, _, _, err := ws.Dial(context.Background(), fmt.Sprintf("ws://%s:%d/echo", host, port))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wsutil.WriteClientText(conn, []byte("hello")))
	msg, err := wsutil.ReadServerText(conn)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(msg))

	require.NoError(t, wsutil.WriteClientText(conn, []byte("again")))
	msg, err = wsutil.ReadServerText(conn)
	require.NoError(t, err)
	assert.Equal(t, "AGAIN", string(msg))
}

func TestUpgradeRejectsPlainRequest(t *testing.T) {
	_, res := newTestResponse(t)
	req := newTestRequest(GET, "/echo")

	err := Upgrade(req, res, nil)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.False(t, res.Ended())
}
