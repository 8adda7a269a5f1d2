package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/gamelog/core/logger"
	"github.com/dmitrymomot/gamelog/user"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeyUser
)

// sessionFromContext returns the request's session. The session middleware
// always installs one, so the zero value only appears on misuse.
func sessionFromContext(ctx context.Context) Session {
	sess, _ := ctx.Value(ctxKeySession).(Session)
	return sess
}

// userFromContext returns the authenticated user, if any.
func userFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(user.User)
	return u, ok
}

// withSession loads the session for every request and resolves its user.
// Resolution fails open: a bad cookie or a session pointing at a deleted
// account degrades to anonymous instead of erroring the page.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := s.transport.Load(ctx, r)
		if err != nil {
			s.log.ErrorContext(ctx, "creating session",
				logger.Component("web"), logger.Error(err))
			s.renderError(w, r)
			return
		}

		ctx = context.WithValue(ctx, ctxKeySession, sess)

		if sess.IsAuthenticated() {
			u, err := s.users.ByID(ctx, sess.UserID)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, ctxKeyUser, u)
			case errors.Is(err, user.ErrNotFound):
				// The account is gone; the session is a dangling
				// reference. Drop it and continue anonymously.
				anon, lerr := s.transport.Logout(ctx, w, sess)
				if lerr != nil {
					s.log.ErrorContext(ctx, "dropping dangling session",
						logger.Component("web"), logger.Error(lerr))
					s.renderError(w, r)
					return
				}
				sess = anon
				ctx = context.WithValue(ctx, ctxKeySession, sess)
			default:
				s.log.ErrorContext(ctx, "resolving session user",
					logger.Component("web"), logger.SessionID(sess.ID), logger.Error(err))
				s.renderError(w, r)
				return
			}
		}

		// Sliding expiration. Save is throttled internally, so most
		// requests skip the store write; the cookie follows ExpiresAt.
		if err := s.transport.Save(ctx, w, &sess); err != nil {
			s.log.ErrorContext(ctx, "touching session",
				logger.Component("web"), logger.SessionID(sess.ID), logger.Error(err))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth redirects unauthenticated requests to the login page.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.InfoContext(r.Context(), "request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.StatusCode(rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
