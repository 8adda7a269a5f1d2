package web

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/dmitrymomot/gamelog/auth"
	"github.com/dmitrymomot/gamelog/core/logger"
	"github.com/dmitrymomot/gamelog/user"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	page := authPage{
		basePage: s.page(r, "Log in"),
		Failed:   r.URL.Query().Get("failed") != "",
	}
	if err := s.views.render(w, "login", page); err != nil {
		s.log.ErrorContext(r.Context(), "rendering login form",
			logger.Component("web"), logger.Error(err))
	}
}

// handleLogin verifies local credentials. A failed attempt redirects
// back with a generic flag; the page never says which factor was wrong.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := user.NormalizeEmail(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	u, err := s.local.Login(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		http.Redirect(w, r, "/login?failed=1", http.StatusFound)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "local login", logger.Component("web"), logger.Error(err))
		s.renderError(w, r)
		return
	}

	s.establish(w, r, u)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	page := authPage{
		basePage:   s.page(r, "Register"),
		EmailTaken: r.URL.Query().Get("taken") != "",
	}
	if err := s.views.render(w, "register", page); err != nil {
		s.log.ErrorContext(r.Context(), "rendering register form",
			logger.Component("web"), logger.Error(err))
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := user.NormalizeEmail(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	u, err := s.local.Register(ctx, email, password)
	if errors.Is(err, user.ErrEmailTaken) {
		http.Redirect(w, r, "/register?taken=1", http.StatusFound)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "registering user", logger.Component("web"), logger.Error(err))
		s.renderError(w, r)
		return
	}

	s.establish(w, r, u)
}

// handleLogout terminates the session. Logging out twice lands on the
// same redirect.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	if _, err := s.transport.Logout(ctx, w, sess); err != nil {
		s.log.ErrorContext(ctx, "logging out",
			logger.Component("web"), logger.SessionID(sess.ID), logger.Error(err))
		s.renderError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleGoogleStart saves a fresh state value on the session and sends
// the client to the provider's consent page.
func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	state, err := newOAuthState()
	if err != nil {
		s.log.ErrorContext(ctx, "generating oauth state",
			logger.Component("web"), logger.Error(err))
		s.renderError(w, r)
		return
	}

	data := sess.Data
	data.OAuthState = state
	sess.SetData(data)
	if err := s.transport.Save(ctx, w, &sess); err != nil {
		s.log.ErrorContext(ctx, "saving oauth state",
			logger.Component("web"), logger.SessionID(sess.ID), logger.Error(err))
		s.renderError(w, r)
		return
	}

	http.Redirect(w, r, s.google.AuthURL(state), http.StatusFound)
}

// handleGoogleCallback finishes the authorization-code flow. The state
// must match the one stored on this session, and it is single use: the
// session copy is cleared before the code exchange.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	got := r.URL.Query().Get("state")
	want := sess.Data.OAuthState
	if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		http.Redirect(w, r, "/login?failed=1", http.StatusFound)
		return
	}

	data := sess.Data
	data.OAuthState = ""
	sess.SetData(data)
	if err := s.transport.Save(ctx, w, &sess); err != nil {
		s.log.ErrorContext(ctx, "clearing oauth state",
			logger.Component("web"), logger.SessionID(sess.ID), logger.Error(err))
		s.renderError(w, r)
		return
	}

	u, err := s.google.Login(ctx, r.URL.Query().Get("code"))
	if errors.Is(err, auth.ErrFederation) {
		s.log.WarnContext(ctx, "federated login failed",
			logger.Component("web"), logger.Error(err))
		http.Redirect(w, r, "/login?failed=1", http.StatusFound)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "federated login", logger.Component("web"), logger.Error(err))
		s.renderError(w, r)
		return
	}

	s.establishSession(w, r, sess, u)
}

// establish binds the request's session to the user and redirects home.
func (s *Server) establish(w http.ResponseWriter, r *http.Request, u user.User) {
	s.establishSession(w, r, sessionFromContext(r.Context()), u)
}

func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, sess Session, u user.User) {
	ctx := r.Context()
	authed, err := s.transport.Authenticate(ctx, w, sess, u.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "establishing session",
			logger.Component("web"), logger.UserID(u.ID), logger.Error(err))
		s.renderError(w, r)
		return
	}

	s.log.InfoContext(ctx, "user logged in",
		logger.Component("web"), logger.UserID(u.ID), logger.SessionID(authed.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}
