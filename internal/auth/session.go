package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionKeyUserID = "user_id"

type SessionConfig struct {
	Name   string
	Secret string
	MaxAge int
	Secure bool
}

// SessionManager keeps the authenticated user id in a signed cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionManager hashes the secret to derive a 32-byte signing key, so any passphrase works.
// The secret must be stable across restarts and replicas or every session is invalidated.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	key := sha256.Sum256([]byte(cfg.Secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, name: cfg.Name}
}

func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	session, _ := m.store.Get(r, m.name)
	session.Values[sessionKeyUserID] = userID
	return session.Save(r, w)
}

func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, m.name)
	delete(session.Values, sessionKeyUserID)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UserID returns the user id stored in the request's session cookie.
// A missing, expired or tampered cookie yields ok=false.
func (m *SessionManager) UserID(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[sessionKeyUserID].(string)
	return id, ok && id != ""
}
