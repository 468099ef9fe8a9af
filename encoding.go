package trellis

import (
	"bytes"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// encodeBody compresses content according to the first supported token in
// the Accept-Encoding header. Returns the (possibly re-encoded) body and
// the token to advertise in Content-Encoding, "" for identity.
func encodeBody(content []byte, acceptEncoding string) ([]byte, string, error) {
	if len(content) == 0 || acceptEncoding == "" {
		return content, "", nil
	}

	for _, encoding := range strings.Split(acceptEncoding, ",") {
		token, _, _ := strings.Cut(strings.TrimSpace(encoding), ";")
		var buf bytes.Buffer
		switch token {
		case "gzip":
			w := gzip.NewWriter(&buf)
			if _, err := w.Write(content); err != nil {
				return nil, "", err
			}
			if err := w.Close(); err != nil {
				return nil, "", err
			}
			return buf.Bytes(), "gzip", nil
		case "deflate":
			w, err := flate.NewWriter(&buf, flate.DefaultCompression)
			if err != nil {
				return nil, "", err
			}
			if _, err := w.Write(content); err != nil {
				return nil, "", err
			}
			if err := w.Close(); err != nil {
				return nil, "", err
			}
			return buf.Bytes(), "deflate", nil
		case "br":
			w := brotli.NewWriter(&buf)
			if _, err := w.Write(content); err != nil {
				return nil, "", err
			}
			if err := w.Close(); err != nil {
				return nil, "", err
			}
			return buf.Bytes(), "br", nil
		case "zstd":
			w, err := zstd.NewWriter(&buf)
			if err != nil {
				return nil, "", err
			}
			if _, err := w.Write(content); err != nil {
				return nil, "", err
			}
			if err := w.Close(); err != nil {
				return nil, "", err
			}
			return buf.Bytes(), "zstd", nil
		case "identity":
			return content, "", nil
		}
	}
	return content, "", nil
}
