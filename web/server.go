package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gamelog/auth"
	"github.com/dmitrymomot/gamelog/catalog"
	"github.com/dmitrymomot/gamelog/review"
	"github.com/dmitrymomot/gamelog/user"
)

// Server holds the handler dependencies and builds the HTTP routing tree.
type Server struct {
	log       *slog.Logger
	users     user.Store
	reviews   review.Store
	catalog   catalog.Source
	local     *auth.Local
	google    *auth.Google
	transport *Transport
	views     *views
}

// NewServer wires the web layer. It fails only when the embedded
// templates do not parse, which a test catches before deploy.
func NewServer(
	log *slog.Logger,
	users user.Store,
	reviews review.Store,
	catalogSrc catalog.Source,
	local *auth.Local,
	google *auth.Google,
	transport *Transport,
) (*Server, error) {
	v, err := newViews()
	if err != nil {
		return nil, err
	}
	return &Server{
		log:       log,
		users:     users,
		reviews:   reviews,
		catalog:   catalogSrc,
		local:     local,
		google:    google,
		transport: transport,
		views:     v,
	}, nil
}

// Handler builds the routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(s.withSession)

	r.Get("/", s.handleIndex)
	r.Post("/sort", s.handleSort)

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Get("/register", s.handleRegisterForm)
	r.Post("/register", s.handleRegister)
	r.Get("/logout", s.handleLogout)
	r.Get("/auth/google", s.handleGoogleStart)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/add", s.handleAddForm)
		r.Post("/add-game", s.handleAddGame)
		r.Post("/edit", s.handleEdit)
		r.Post("/edit-game", s.handleEditGame)
		r.Post("/delete", s.handleDelete)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	return r
}

// page fills the fields shared by every view.
func (s *Server) page(r *http.Request, title string) basePage {
	p := basePage{Title: title}
	if u, ok := userFromContext(r.Context()); ok {
		p.LoggedIn = true
		p.UserEmail = u.Email
	}
	return p
}

// renderError serves the generic failure page. Details stay in the log.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusInternalServerError)
	if err := s.views.render(w, "error", basePage{Title: "Error"}); err != nil {
		s.log.ErrorContext(r.Context(), "rendering error page", slog.Any("error", err))
	}
}
