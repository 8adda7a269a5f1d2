// Package web wires HTTP routing, handlers, and server-rendered views.
// The session transport lives here too: it moves session tokens between
// the signed cookie and the session manager.
package web

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gamelog/core/cookie"
	"github.com/dmitrymomot/gamelog/core/session"
)

// Data is the session-scoped application state. Sort preference and the
// OAuth state live per session, never in process-wide variables, so one
// user's choices cannot leak into another's requests.
type Data struct {
	SortBy     string `json:"sort_by,omitempty"`
	OAuthState string `json:"oauth_state,omitempty"`
}

// Session is the application session type.
type Session = session.Session[Data]

// Transport carries session tokens in a signed cookie.
type Transport struct {
	sessions *session.Manager[Data]
	cookies  *cookie.Manager
	name     string
}

// NewTransport creates the cookie-based session transport.
func NewTransport(sessions *session.Manager[Data], cookies *cookie.Manager, name string) *Transport {
	return &Transport{sessions: sessions, cookies: cookies, name: name}
}

// Load resolves the request's session. Any failure (no cookie, bad
// signature, unknown token, expired session) falls open to a fresh
// anonymous session; the client is never shown an error for a stale
// cookie.
func (t *Transport) Load(ctx context.Context, r *http.Request) (Session, error) {
	if token, err := t.cookies.GetSigned(r, t.name); err == nil {
		if sess, err := t.sessions.GetByToken(ctx, token); err == nil {
			return sess, nil
		}
	}
	return t.sessions.New(ctx)
}

// Save persists the session and refreshes the cookie.
func (t *Transport) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if err := t.sessions.Save(ctx, sess); err != nil {
		return err
	}
	t.writeCookie(w, *sess)
	return nil
}

// Authenticate binds the session to userID and issues the rotated token
// to the client.
func (t *Transport) Authenticate(ctx context.Context, w http.ResponseWriter, sess Session, userID uuid.UUID) (Session, error) {
	authed, err := t.sessions.Authenticate(ctx, sess, userID)
	if err != nil {
		return Session{}, err
	}
	t.writeCookie(w, authed)
	return authed, nil
}

// Logout terminates the session and hands the client a fresh anonymous
// one. Safe to call with an already-terminated session.
func (t *Transport) Logout(ctx context.Context, w http.ResponseWriter, sess Session) (Session, error) {
	anon, err := t.sessions.Logout(ctx, sess)
	if err != nil {
		return Session{}, err
	}
	t.writeCookie(w, anon)
	return anon, nil
}

func (t *Transport) writeCookie(w http.ResponseWriter, sess Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		t.cookies.Delete(w, t.name)
		return
	}
	t.cookies.SetSigned(w, t.name, sess.Token, cookie.WithMaxAge(maxAge))
}

// newOAuthState returns a random value binding the OAuth round trip to
// this session.
func newOAuthState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
