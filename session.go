package trellis

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
)

const sessionCookie = "session_token"

// SessionStore persists per-client session values between requests.
// Sessions could live in cookies, a database, or memory.
type SessionStore interface {
	Get(token string) (map[string]any, error)
	Save(token string, values map[string]any) error
	Delete(token string) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]any
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]map[string]any)}
}

func (s *MemorySessionStore) Get(token string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[token], nil
}

func (s *MemorySessionStore) Save(token string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = values
	return nil
}

func (s *MemorySessionStore) Delete(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Session is the per-request view of a client's stored values. Mutations
// persist when the handler calls Save.
type Session struct {
	Token  string
	Values map[string]any
	store  SessionStore
}

func (s *Session) Get(key string) any    { return s.Values[key] }
func (s *Session) Set(key string, v any) { s.Values[key] = v }
func (s *Session) Save() error           { return s.store.Save(s.Token, s.Values) }

// Delete drops the stored session and empties the in-request values.
func (s *Session) Delete() error {
	s.Values = make(map[string]any)
	return s.store.Delete(s.Token)
}

// Sessions loads (or creates) the client's session and attaches it to the
// request, setting the token cookie for fresh sessions.
func Sessions(store SessionStore) HandlerFunc {
	return func(req *Request, res *Response) {
		token := parseSessionToken(req.Headers)
		fresh := token == ""
		if fresh {
			token = newSessionToken()
		}
		values, err := store.Get(token)
		if err != nil {
			log.WithError(err).Error("loading session")
			values = nil
		}
		if values == nil {
			values = make(map[string]any)
		}
		req.Session = &Session{Token: token, Values: values, store: store}
		if fresh {
			cookie := http.Cookie{Name: sessionCookie, Value: token, MaxAge: 24 * 60 * 60}
			res.Header().Add("Set-Cookie", cookie.String())
		}
	}
}

func parseSessionToken(headers http.Header) string {
	r := http.Request{Header: headers}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func newSessionToken() string {
	buf := make([]byte, 12)
	rand.Read(buf)
	return base64.StdEncoding.EncodeToString(buf)
}
