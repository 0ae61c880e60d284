package reference

import (
	"context"

	"github.com/tendant/portal-content/pkg/portal"
)

func (p *Provider) articles(ctx context.Context) ([]portal.Article, error) {
	return loadList(ctx, p, KeyArticles, func(s *Seed) []portal.Article { return s.Articles })
}

// ListArticles filters, sorts and windows the stored articles
func (p *Provider) ListArticles(ctx context.Context, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.articles(ctx)
	if err != nil {
		return nil, p.fail("list articles", err)
	}
	return portal.QueryArticles(all, params), nil
}

func (p *Provider) GetArticle(ctx context.Context, id string) (*portal.Article, error) {
	return p.findArticle(ctx, "get article", func(a portal.Article) bool { return a.ID == id })
}

func (p *Provider) GetArticleBySlug(ctx context.Context, slug string) (*portal.Article, error) {
	return p.findArticle(ctx, "get article by slug", func(a portal.Article) bool { return a.Slug == slug })
}

func (p *Provider) findArticle(ctx context.Context, op string, match func(portal.Article) bool) (*portal.Article, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.articles(ctx)
	if err != nil {
		return nil, p.fail(op, err)
	}
	for _, a := range all {
		if match(a) {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

// CreateArticle validates the article, assigns an id and stores it first so
// listings stay most-recent-first.
func (p *Provider) CreateArticle(ctx context.Context, article portal.Article) (*portal.Article, error) {
	if err := portal.PrepareArticle(&article); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.articles(ctx)
	if err != nil {
		return nil, p.fail("create article", err)
	}
	for _, existing := range all {
		if existing.Slug == article.Slug {
			return nil, conflict("create article", article.Slug)
		}
	}

	now := p.now()
	article.ID = p.newID()
	article.UpdatedAt = now
	if article.PublishedAt.IsZero() {
		article.PublishedAt = now
	}
	article.PublishedAt = article.PublishedAt.UTC()
	article.Tags = append([]string{}, article.Tags...)

	all = append([]portal.Article{article}, all...)
	if err := saveList(ctx, p, KeyArticles, all); err != nil {
		return nil, p.fail("create article", err)
	}
	return &article, nil
}

// UpdateArticle merges patch into the stored article
func (p *Provider) UpdateArticle(ctx context.Context, id string, patch portal.ArticlePatch) (*portal.Article, error) {
	if err := portal.ValidateArticlePatch(patch); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.articles(ctx)
	if err != nil {
		return nil, p.fail("update article", err)
	}
	idx := -1
	for i, a := range all {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, portal.NotFound(Name, "update article", id)
	}
	if patch.Slug != nil && *patch.Slug != all[idx].Slug {
		for _, other := range all {
			if other.ID != id && other.Slug == *patch.Slug {
				return nil, conflict("update article", *patch.Slug)
			}
		}
	}

	updated := all[idx]
	patch.Apply(&updated)
	updated.PublishedAt = updated.PublishedAt.UTC()
	updated.UpdatedAt = p.now()
	all[idx] = updated

	if err := saveList(ctx, p, KeyArticles, all); err != nil {
		return nil, p.fail("update article", err)
	}
	return &updated, nil
}

// DeleteArticle removes the article; a missing id is a no-op
func (p *Provider) DeleteArticle(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.articles(ctx)
	if err != nil {
		return p.fail("delete article", err)
	}
	kept := all[:0]
	for _, a := range all {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if err := saveList(ctx, p, KeyArticles, kept); err != nil {
		return p.fail("delete article", err)
	}
	return nil
}

func (p *Provider) GetFeaturedArticles(ctx context.Context, limit int) ([]portal.Article, error) {
	return portal.FeaturedArticles(ctx, p, limit)
}

func (p *Provider) GetBreakingArticles(ctx context.Context, limit int) ([]portal.Article, error) {
	return portal.BreakingArticles(ctx, p, limit)
}

func (p *Provider) GetTrendingArticles(ctx context.Context, limit int) ([]portal.Article, error) {
	return portal.TrendingArticles(ctx, p, limit)
}

func (p *Provider) GetArticlesByCategory(ctx context.Context, categorySlug string, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	return portal.ArticlesByCategory(ctx, p, categorySlug, params)
}

func (p *Provider) SearchArticles(ctx context.Context, query string, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	return portal.SearchArticles(ctx, p, query, params)
}
