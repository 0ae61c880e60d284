package strapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
)

const articlesPath = "/api/articles"

// ListArticles translates params into filters/pagination/sort and takes
// the total from meta.pagination
func (p *Provider) ListArticles(ctx context.Context, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	q := params.Normalized()
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	out, err := list[articleAttrs](ctx, p, "list articles", articlesPath, articleQuery(q))
	if err != nil {
		return nil, err
	}
	items := make([]portal.Article, 0, len(out.Data))
	for _, e := range out.Data {
		items = append(items, p.toArticle(e))
	}
	return portal.NewPage(items, out.Meta.Pagination.Total, q.Limit, q.Offset), nil
}

func previewQuery() url.Values {
	return url.Values{"populate": {"*"}, "publicationState": {"preview"}}
}

func (p *Provider) GetArticle(ctx context.Context, id string) (*portal.Article, error) {
	e, err := getOne[articleAttrs](ctx, p, "get article", articlesPath, id, previewQuery())
	if err != nil || e == nil {
		return nil, err
	}
	a := p.toArticle(*e)
	return &a, nil
}

func (p *Provider) GetArticleBySlug(ctx context.Context, slug string) (*portal.Article, error) {
	q := previewQuery()
	SetFilter(q, slug, "slug", "$eq")
	q.Set("pagination[pageSize]", "1")
	out, err := list[articleAttrs](ctx, p, "get article by slug", articlesPath, q)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	a := p.toArticle(out.Data[0])
	return &a, nil
}

// CreateArticle writes the entry. The slug is a unique uid field, so a
// duplicate comes back as ErrSlugConflict.
func (p *Provider) CreateArticle(ctx context.Context, article portal.Article) (*portal.Article, error) {
	if err := portal.PrepareArticle(&article); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"title":          article.Title,
		"slug":           article.Slug,
		"summary":        article.Summary,
		"body":           article.Body,
		"articleStatus":  string(article.Status),
		"isFeatured":     article.IsFeatured,
		"isBreaking":     article.IsBreaking,
		"views":          article.Views,
		"seoTitle":       article.SEOTitle,
		"seoDescription": article.SEODescription,
		"videoUrl":       article.VideoURL,
	}
	if !article.PublishedAt.IsZero() {
		data["publishDate"] = article.PublishedAt.UTC()
	}
	setPublication(data, article.Status, article.PublishedAt)
	if err := p.setRelations(ctx, "create article", data, &article.Category, &article.AuthorID, &article.ImageID, article.Tags); err != nil {
		return nil, err
	}

	e, err := write[articleAttrs](ctx, p, "create article", http.MethodPost, articlesPath, previewQuery(), data)
	if err != nil {
		return nil, err
	}
	created := p.toArticle(*e)
	return &created, nil
}

func (p *Provider) UpdateArticle(ctx context.Context, id string, patch portal.ArticlePatch) (*portal.Article, error) {
	if err := portal.ValidateArticlePatch(patch); err != nil {
		return nil, err
	}
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update article", id)
	}

	data := map[string]interface{}{}
	setIf(data, "title", patch.Title)
	setIf(data, "slug", patch.Slug)
	setIf(data, "summary", patch.Summary)
	setIf(data, "body", patch.Body)
	setIf(data, "seoTitle", patch.SEOTitle)
	setIf(data, "seoDescription", patch.SEODescription)
	setIf(data, "videoUrl", patch.VideoURL)
	if patch.PublishedAt != nil {
		data["publishDate"] = patch.PublishedAt.UTC()
	}
	if patch.Status != nil {
		data["articleStatus"] = string(*patch.Status)
		var when time.Time
		if patch.PublishedAt != nil {
			when = *patch.PublishedAt
		}
		setPublication(data, *patch.Status, when)
	}
	if patch.IsFeatured != nil {
		data["isFeatured"] = *patch.IsFeatured
	}
	if patch.IsBreaking != nil {
		data["isBreaking"] = *patch.IsBreaking
	}
	if patch.Views != nil {
		data["views"] = *patch.Views
	}
	if err := p.setRelations(ctx, "update article", data, patch.Category, patch.AuthorID, patch.ImageID, patch.Tags); err != nil {
		return nil, err
	}

	e, err := write[articleAttrs](ctx, p, "update article", http.MethodPut, articlesPath+"/"+id, previewQuery(), data)
	if err != nil {
		return nil, err
	}
	updated := p.toArticle(*e)
	return &updated, nil
}

// DeleteArticle removes the entry; a second delete is ErrNotFound
func (p *Provider) DeleteArticle(ctx context.Context, id string) error {
	return p.remove(ctx, "delete article", articlesPath, id)
}

// setRelations resolves canonical references into Strapi relation ids. nil
// pointers leave the relation untouched; empty strings clear it.
func (p *Provider) setRelations(ctx context.Context, op string, data map[string]interface{}, category, authorID, imageID *string, tags []string) error {
	if category != nil {
		if *category == "" {
			data["category"] = nil
		} else {
			id, ok, err := p.lookupID(ctx, op, categoriesPath, "slug", *category)
			if err != nil {
				return err
			}
			if !ok {
				return &portal.ValidationError{Field: "category", Reason: "unknown category " + *category}
			}
			data["category"] = id
		}
	}
	if authorID != nil {
		id, err := relationID("authorId", *authorID)
		if err != nil {
			return err
		}
		data["author"] = id
	}
	if imageID != nil {
		id, err := relationID("imageId", *imageID)
		if err != nil {
			return err
		}
		data["image"] = id
	}
	if tags != nil {
		ids, err := p.tagIDs(ctx, op, tags)
		if err != nil {
			return err
		}
		data["tags"] = ids
	}
	return nil
}

// tagIDs resolves tag names to ids, creating missing tags
func (p *Provider) tagIDs(ctx context.Context, op string, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		slug := portal.Slugify(name)
		if slug == "" {
			continue
		}
		id, ok, err := p.lookupID(ctx, op, "/api/tags", "slug", slug)
		if err != nil {
			return nil, err
		}
		if !ok {
			e, err := write[tagAttrs](ctx, p, op, http.MethodPost, "/api/tags", nil, map[string]interface{}{"name": name, "slug": slug})
			if err != nil {
				return nil, err
			}
			id = e.ID
		}
		ids = append(ids, id)
	}
	return ids, nil
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

// setPublication drives Strapi's draft/publish state from the canonical
// status. Only published articles are live.
func setPublication(data map[string]interface{}, status portal.ArticleStatus, at time.Time) {
	if status != portal.ArticleStatusPublished {
		data["publishedAt"] = nil
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	data["publishedAt"] = at.UTC()
}

func setIf(data map[string]interface{}, key string, v *string) {
	if v != nil {
		data[key] = *v
	}
}
