package trellis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseSend(t *testing.T) {
	conn, res := newTestResponse(t)
	require.NoError(t, res.Send([]byte("payload")))
	require.True(t, res.Ended())

	got := conn.written()
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "HTTP/1.1 200 OK\r\n"), got[0])
	assert.Contains(t, got[0], "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.Contains(t, got[0], "Content-Length: 7\r\n")
	assert.Contains(t, got[0], "Date: ")
	assert.True(t, strings.HasSuffix(got[0], "\r\n\r\npayload"), got[0])
}

func TestResponseSendTwiceFails(t *testing.T) {
	_, res := newTestResponse(t)
	require.NoError(t, res.Send(nil))
	assert.Error(t, res.Send(nil))
}

func TestResponseStatusAndHeaders(t *testing.T) {
	conn, res := newTestResponse(t)
	require.NoError(t, res.Status(201).Set("X-Custom", "yes").Send(nil))

	got := conn.written()
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "HTTP/1.1 201 Created\r\n"), got[0])
	assert.Contains(t, got[0], "X-Custom: yes\r\n")
}

func TestResponseJSON(t *testing.T) {
	conn, res := newTestResponse(t)
	require.NoError(t, res.JSON(map[string]int{"n": 7}))

	got := conn.written()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Content-Type: application/json; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(got[0], `{"n":7}`), got[0])
}

func TestResponseHTML(t *testing.T) {
	conn, res := newTestResponse(t)
	require.NoError(t, res.HTML("<p>hi</p>"))

	got := conn.written()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Content-Type: text/html; charset=UTF-8\r\n")
}

func TestResponseEncodesWhenAccepted(t *testing.T) {
	conn, res := newTestResponse(t)
	res.acceptEncoding = "gzip"
	require.NoError(t, res.Send([]byte("compress this body")))

	got := conn.written()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Content-Encoding: gzip\r\n")
	assert.NotContains(t, got[0], "compress this body")
}

func TestResponseSendAfterCloseFails(t *testing.T) {
	conn, res := newTestResponse(t)
	res.d.OnClose()
	assert.Error(t, res.Send([]byte("too late")))
	assert.Empty(t, conn.written())
}
