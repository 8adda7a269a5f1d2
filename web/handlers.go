package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/gamelog/core/logger"
	"github.com/dmitrymomot/gamelog/review"
)

// handleIndex renders the review list with catalog artwork. A catalog
// outage degrades the page instead of failing it: reviews render from
// stored data without covers.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)
	sortBy := review.NormalizeSort(sess.Data.SortBy)

	reviews, err := s.reviews.List(ctx, sortBy)
	if err != nil {
		s.log.ErrorContext(ctx, "listing reviews", logger.Component("web"), logger.Error(err))
		s.renderError(w, r)
		return
	}

	page := indexPage{
		basePage: s.page(r, "Your reviews"),
		SortBy:   sortBy,
	}

	if len(reviews) > 0 {
		ids := make([]int64, 0, len(reviews))
		for _, rv := range reviews {
			ids = append(ids, rv.GameID)
		}
		games, err := s.catalog.GamesByID(ctx, ids...)
		if err != nil {
			s.log.WarnContext(ctx, "fetching catalog metadata",
				logger.Component("web"), logger.Error(err))
			page.CatalogDown = true
		}
		page.Reviews = joinCatalog(reviews, games)
	}

	if err := s.views.render(w, "index", page); err != nil {
		s.log.ErrorContext(ctx, "rendering index", logger.Component("web"), logger.Error(err))
	}
}

// handleSort stores the sort preference on the session, so each visitor
// keeps their own ordering.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	data := sess.Data
	data.SortBy = review.NormalizeSort(r.PostFormValue("sort"))
	sess.SetData(data)

	if err := s.transport.Save(ctx, w, &sess); err != nil {
		s.log.ErrorContext(ctx, "saving sort preference",
			logger.Component("web"), logger.SessionID(sess.ID), logger.Error(err))
		s.renderError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	page := addPage{basePage: s.page(r, "Add a review")}
	if err := s.views.render(w, "add", page); err != nil {
		s.log.ErrorContext(r.Context(), "rendering add form",
			logger.Component("web"), logger.Error(err))
	}
}

// handleAddGame looks the game up in the catalog and stores the review
// with the catalog's title and release date.
func (s *Server) handleAddGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	gameID, err := strconv.ParseInt(r.PostFormValue("game_id"), 10, 64)
	if err != nil || gameID <= 0 {
		http.Redirect(w, r, "/add", http.StatusFound)
		return
	}

	games, err := s.catalog.GamesByID(ctx, gameID)
	if err != nil {
		s.log.ErrorContext(ctx, "fetching game from catalog",
			logger.Component("web"), logger.GameID(gameID), logger.Error(err))
		s.renderError(w, r)
		return
	}
	if len(games) == 0 {
		http.Redirect(w, r, "/add", http.StatusFound)
		return
	}
	game := games[0]
	released, _ := game.ReleaseDate()

	rv := review.Review{
		GameID:     gameID,
		Title:      game.Title,
		Completed:  r.PostFormValue("completed") == "true",
		Rating:     clampRating(r.PostFormValue("rating")),
		Notes:      r.PostFormValue("review"),
		ReleasedAt: released,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		s.log.ErrorContext(ctx, "creating review",
			logger.Component("web"), logger.GameID(gameID), logger.Error(err))
		s.renderError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleEdit shows the edit form for one review. The target travels in
// the form submission, never in shared server state.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	gameID, err := strconv.ParseInt(r.PostFormValue("edit"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rv, err := s.reviews.ByID(ctx, gameID)
	if errors.Is(err, review.ErrNotFound) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "loading review",
			logger.Component("web"), logger.GameID(gameID), logger.Error(err))
		s.renderError(w, r)
		return
	}

	page := editPage{basePage: s.page(r, "Edit review"), Review: rv}
	if err := s.views.render(w, "edit", page); err != nil {
		s.log.ErrorContext(ctx, "rendering edit form",
			logger.Component("web"), logger.Error(err))
	}
}

// handleEditGame applies the edit form. The game ID comes from a hidden
// field in the submitted form itself.
func (s *Server) handleEditGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	gameID, err := strconv.ParseInt(r.PostFormValue("game_id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rv := review.Review{
		GameID:    gameID,
		Completed: r.PostFormValue("completed") == "true",
		Rating:    clampRating(r.PostFormValue("rating")),
		Notes:     r.PostFormValue("review"),
	}
	err = s.reviews.Update(ctx, rv)
	if err != nil && !errors.Is(err, review.ErrNotFound) {
		s.log.ErrorContext(ctx, "updating review",
			logger.Component("web"), logger.GameID(gameID), logger.Error(err))
		s.renderError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	gameID, err := strconv.ParseInt(r.PostFormValue("delete"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Deleting an already-deleted review redirects like a success.
	err = s.reviews.Delete(ctx, gameID)
	if err != nil && !errors.Is(err, review.ErrNotFound) {
		s.log.ErrorContext(ctx, "deleting review",
			logger.Component("web"), logger.GameID(gameID), logger.Error(err))
		s.renderError(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// clampRating parses a 0..10 rating, defaulting to 0 on bad input.
func clampRating(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
