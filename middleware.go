package trellis

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Static serves files beneath dir for request paths under urlPrefix.
// Responses carry an ETag; a matching If-None-Match gets a 304 with no
// body. Missing files fall through to the rest of the chain.
func Static(urlPrefix, dir string) HandlerFunc {
	var (
		mu    sync.RWMutex
		etags = map[string]string{}
	)

	return func(req *Request, res *Response) {
		if req.Method != GET || !strings.HasPrefix(req.Path, urlPrefix) {
			return
		}
		rel := path.Clean("/" + strings.TrimPrefix(req.Path, urlPrefix))
		name := filepath.Join(dir, filepath.FromSlash(rel))

		check := req.Headers.Get("If-None-Match")
		if check != "" {
			mu.RLock()
			known := etags[rel]
			mu.RUnlock()
			if known == check {
				res.Status(http.StatusNotModified).Send(nil)
				return
			}
		}

		b, err := os.ReadFile(name)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			log.WithError(err).WithField("file", name).Error("reading static file")
			res.Status(http.StatusInternalServerError).Text("unable to read file")
			return
		}

		etag := fmt.Sprintf("%x", md5.Sum(b))
		mu.Lock()
		etags[rel] = etag
		mu.Unlock()

		// Check again in case the map simply hadn't been primed yet.
		if check == etag {
			res.Status(http.StatusNotModified).Send(nil)
			return
		}
		if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
			res.Set("Content-Type", ct)
		}
		res.Set("ETag", etag)
		res.Send(b)
	}
}

// BasicAuth rejects requests that fail check with a 401 challenge. Passing
// requests continue down the chain.
func BasicAuth(realm string, check func(user, pass string) bool) HandlerFunc {
	return func(req *Request, res *Response) {
		user, pass, ok := parseBasicAuth(req.Headers.Get("Authorization"))
		if ok && check(user, pass) {
			return
		}
		res.Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
		res.Status(http.StatusUnauthorized).
			HTML("<html><head></head><body><h1>401 Unauthorized</h1></body></html>\n")
	}
}

func parseBasicAuth(header string) (string, string, bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	return user, pass, ok
}

// RequestLogger logs one line per dispatched request.
func RequestLogger() HandlerFunc {
	return func(req *Request, res *Response) {
		log.WithFields(logrus.Fields{
			"method": req.Method.String(),
			"path":   req.Path,
			"remote": req.RemoteAddr,
		}).Info("request")
	}
}
