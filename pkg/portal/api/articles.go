package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/portal-content/pkg/portal"
)

// ArticleRoutes returns the routes for articles
func (h *Handler) ArticleRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListArticles)
	r.Post("/", h.CreateArticle)

	// Convenience queries
	r.Get("/featured", h.GetFeaturedArticles)
	r.Get("/breaking", h.GetBreakingArticles)
	r.Get("/trending", h.GetTrendingArticles)
	r.Get("/search", h.SearchArticles)
	r.Get("/category/{slug}", h.GetArticlesByCategory)
	r.Get("/slug/{slug}", h.GetArticleBySlug)

	r.Get("/{id}", h.GetArticle)
	r.Patch("/{id}", h.UpdateArticle)
	r.Delete("/{id}", h.DeleteArticle)

	return r
}

// ListArticles lists articles matching the query string filters
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	params, err := queryParams(r)
	if err != nil {
		h.fail(w, r, "list articles", err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	page, err := p.ListArticles(r.Context(), params)
	if err != nil {
		h.fail(w, r, "list articles", err)
		return
	}
	render.JSON(w, r, page)
}

// GetArticle retrieves an article by ID
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	article, err := p.GetArticle(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get article", err)
		return
	}
	if article == nil {
		h.notFound(w, r, "article", id)
		return
	}
	render.JSON(w, r, article)
}

// GetArticleBySlug retrieves an article by slug
func (h *Handler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	article, err := p.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		h.fail(w, r, "get article by slug", err)
		return
	}
	if article == nil {
		h.notFound(w, r, "article", slug)
		return
	}
	render.JSON(w, r, article)
}

// CreateArticle creates an article; the backend assigns the ID
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req portal.Article
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	article, err := p.CreateArticle(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create article", err)
		return
	}
	h.logger.Info("Article created", "provider", p.Name(), "article_id", article.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, article)
}

// UpdateArticle applies a partial update
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch portal.ArticlePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	article, err := p.UpdateArticle(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "update article", err)
		return
	}
	render.JSON(w, r, article)
}

// DeleteArticle deletes an article by ID
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	if err := p.DeleteArticle(r.Context(), id); err != nil {
		h.fail(w, r, "delete article", err)
		return
	}
	h.logger.Info("Article deleted", "provider", p.Name(), "article_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetFeaturedArticles returns published featured articles, ?limit=
func (h *Handler) GetFeaturedArticles(w http.ResponseWriter, r *http.Request) {
	h.shortList(w, r, "featured articles", portal.Provider.GetFeaturedArticles)
}

// GetBreakingArticles returns published breaking articles, ?limit=
func (h *Handler) GetBreakingArticles(w http.ResponseWriter, r *http.Request) {
	h.shortList(w, r, "breaking articles", portal.Provider.GetBreakingArticles)
}

// GetTrendingArticles returns published articles by views, ?limit=
func (h *Handler) GetTrendingArticles(w http.ResponseWriter, r *http.Request) {
	h.shortList(w, r, "trending articles", portal.Provider.GetTrendingArticles)
}

// shortList serves the limit-only convenience queries
func (h *Handler) shortList(w http.ResponseWriter, r *http.Request, op string, query func(portal.Provider, context.Context, int) ([]portal.Article, error)) {
	limit, err := intParam(r.URL.Query(), "limit", portal.DefaultLimit)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	articles, err := query(p, r.Context(), limit)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if articles == nil {
		articles = []portal.Article{}
	}
	render.JSON(w, r, articles)
}

// GetArticlesByCategory lists articles in a category, with the list filters
func (h *Handler) GetArticlesByCategory(w http.ResponseWriter, r *http.Request) {
	params, err := queryParams(r)
	if err != nil {
		h.fail(w, r, "articles by category", err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	page, err := p.GetArticlesByCategory(r.Context(), chi.URLParam(r, "slug"), params)
	if err != nil {
		h.fail(w, r, "articles by category", err)
		return
	}
	render.JSON(w, r, page)
}

// SearchArticles lists articles matching ?q=
func (h *Handler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	params, err := queryParams(r)
	if err != nil {
		h.fail(w, r, "search articles", err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	page, err := p.SearchArticles(r.Context(), r.URL.Query().Get("q"), params)
	if err != nil {
		h.fail(w, r, "search articles", err)
		return
	}
	render.JSON(w, r, page)
}
