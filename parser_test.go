package trellis

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserConsumeIncremental(t *testing.T) {
	p := NewParser()

	rest, err := p.Consume([]byte("GET /index.html?q=1 HT"))
	require.NoError(t, err)
	assert.Nil(t, rest)
	assert.False(t, p.Done())

	rest, err = p.Consume([]byte("TP/1.1\r\nHost: example.com\r\nAccept: */*\r\n"))
	require.NoError(t, err)
	assert.Nil(t, rest)
	assert.False(t, p.Done())

	rest, err = p.Consume([]byte("\r\nleftover"))
	require.NoError(t, err)
	require.True(t, p.Done())
	assert.Equal(t, []byte("leftover"), rest)

	assert.Equal(t, "GET", p.Method)
	assert.Equal(t, "/index.html", p.Path)
	assert.Equal(t, "q=1", p.RawQuery)
	assert.Equal(t, "HTTP/1.1", p.Version)
	assert.Equal(t, "example.com", p.Headers.Get("Host"))
	assert.Equal(t, "*/*", p.Headers.Get("Accept"))
}

func TestParserConsumeAfterDonePassesThrough(t *testing.T) {
	p := NewParser()
	_, err := p.Consume([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, p.Done())

	rest, err := p.Consume([]byte("more bytes"))
	require.NoError(t, err)
	assert.Equal(t, []byte("more bytes"), rest)
}

func TestParserBareNewlineSeparator(t *testing.T) {
	p := NewParser()
	rest, err := p.Consume([]byte("GET /simple HTTP/1.0\nHost: a\n\n"))
	require.NoError(t, err)
	assert.True(t, p.Done())
	assert.Empty(t, rest)
	assert.Equal(t, "/simple", p.Path)
	assert.Equal(t, "HTTP/1.0", p.Version)
}

func TestParserMalformedRequestLine(t *testing.T) {
	for _, head := range []string{
		"GET /\r\n\r\n",
		"GET / HTTP/1.1 extra\r\n\r\n",
		"GET relative HTTP/1.1\r\n\r\n",
	} {
		p := NewParser()
		_, err := p.Consume([]byte(head))
		assert.True(t, errors.Is(err, ErrBadRequest), "head %q: got %v", head, err)
	}
}

func TestParserUnsupportedVersion(t *testing.T) {
	p := NewParser()
	_, err := p.Consume([]byte("GET / HTTP/2.0\r\n\r\n"))
	assert.True(t, errors.Is(err, ErrVersionNotSupported))
}

func TestParserMalformedHeader(t *testing.T) {
	p := NewParser()
	_, err := p.Consume([]byte("GET / HTTP/1.1\r\nno colon here\r\n\r\n"))
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestParserRejectsOversizedHead(t *testing.T) {
	p := NewParser()
	huge := "GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", MaxRequestLength) + "\r\n\r\n"
	_, err := p.Consume([]byte(huge))
	assert.True(t, errors.Is(err, ErrRequestTooLarge))

	// The same verdict applies while the head is still incomplete.
	p2 := NewParser()
	_, err = p2.Consume([]byte("GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", MaxRequestLength)))
	assert.True(t, errors.Is(err, ErrRequestTooLarge))
}
