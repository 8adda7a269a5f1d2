package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dmitrymomot/gamelog/catalog"
	"github.com/dmitrymomot/gamelog/review"
)

//go:embed templates/*.html
var templateFS embed.FS

// views holds one parsed template set per page, each sharing the layout.
type views struct {
	pages map[string]*template.Template
}

func newViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template)}
	for _, page := range []string{"index", "add", "edit", "login", "register", "error"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", page, err)
		}
		v.pages[page] = t
	}
	return v, nil
}

func (v *views) render(w io.Writer, page string, data any) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// basePage carries the fields every view needs.
type basePage struct {
	Title     string
	UserEmail string
	LoggedIn  bool
}

// reviewItem is one review joined with its catalog metadata for display.
type reviewItem struct {
	review.Review
	CoverURL string
	MobyURL  string
}

type indexPage struct {
	basePage
	Reviews []reviewItem
	SortBy  string
	// CatalogDown is set when metadata could not be fetched; reviews
	// still render from stored data.
	CatalogDown bool
}

type addPage struct {
	basePage
}

type editPage struct {
	basePage
	Review review.Review
}

type authPage struct {
	basePage
	// Failed flags a rejected attempt without saying which factor failed.
	Failed bool
	// EmailTaken flags a registration collision.
	EmailTaken bool
}

// joinCatalog pairs stored reviews with catalog metadata by game ID.
// Games missing from the catalog response render without cover or link.
func joinCatalog(reviews []review.Review, games []catalog.Game) []reviewItem {
	byID := make(map[int64]catalog.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}

	items := make([]reviewItem, 0, len(reviews))
	for _, r := range reviews {
		item := reviewItem{Review: r}
		if g, ok := byID[r.GameID]; ok {
			item.CoverURL = g.Cover.Image
			item.MobyURL = g.MobyURL
		}
		items = append(items, item)
	}
	return items
}
