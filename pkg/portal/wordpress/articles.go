package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tendant/portal-content/pkg/portal"
)

// anyStatus lists every status an authenticated caller may read
const anyStatus = "publish,future,draft"

// ListArticles translates params into the posts query-string grammar.
// Sorting by views degrades to date and the breaking filter is ignored;
// WordPress has no native ordering or query var for either.
func (p *Provider) ListArticles(ctx context.Context, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	return p.listPosts(ctx, "list articles", params, "")
}

func (p *Provider) listPosts(ctx context.Context, op string, params portal.QueryParams, orderBy string) (*portal.Page[portal.Article], error) {
	q := params.Normalized()
	limit := perPage(q.Limit)
	empty := portal.NewPage([]portal.Article{}, 0, limit, q.Offset)

	query := p.baseQuery()
	query.Set("per_page", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(portal.PageNumber(limit, q.Offset)))
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	switch {
	case q.Status != "":
		query.Set("status", fromStatus(q.Status))
	case p.editContext:
		query.Set("status", anyStatus)
	}
	if q.Author != "" {
		if _, ok := parseID(q.Author); !ok {
			return empty, nil
		}
		query.Set("author", q.Author)
	}
	if q.Featured != nil {
		query.Set("sticky", strconv.FormatBool(*q.Featured))
	}
	if q.Breaking != nil {
		p.logger.Debug("breaking filter not supported, ignoring", "provider", Name, "op", op)
	}

	if orderBy == "" {
		switch q.SortBy {
		case portal.SortByTitle:
			orderBy = "title"
		case portal.SortByViews:
			p.logger.Debug("views ordering not supported, using date", "provider", Name, "op", op)
			orderBy = "date"
		default:
			orderBy = "date"
		}
	}
	query.Set("orderby", orderBy)
	query.Set("order", string(q.SortOrder))

	if q.Category != "" {
		id, ok, err := p.categoryID(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		if !ok {
			return empty, nil
		}
		query.Set("categories", strconv.Itoa(id))
	}

	var posts []wpPost
	header, err := p.client.Get(ctx, op, APIPrefix+"/posts", query, &posts)
	if IsErrorCode(err, CodeInvalidPage) {
		// past the last page: report the real total with no items
		total, err := p.countPosts(ctx, op, query)
		if err != nil {
			return nil, err
		}
		return portal.NewPage([]portal.Article{}, total, limit, q.Offset), nil
	}
	if err != nil {
		return nil, err
	}

	items := make([]portal.Article, 0, len(posts))
	for _, post := range posts {
		items = append(items, toArticle(post))
	}
	return portal.NewPage(items, totalFromHeader(header, len(items)), limit, q.Offset), nil
}

func (p *Provider) countPosts(ctx context.Context, op string, query url.Values) (int, error) {
	probe := url.Values{}
	for k, v := range query {
		probe[k] = v
	}
	probe.Set("per_page", "1")
	probe.Set("page", "1")
	probe.Del("_embed")

	var posts []wpPost
	header, err := p.client.Get(ctx, op, APIPrefix+"/posts", probe, &posts)
	if err != nil {
		return 0, err
	}
	return totalFromHeader(header, len(posts)), nil
}

func (p *Provider) GetArticle(ctx context.Context, id string) (*portal.Article, error) {
	var post wpPost
	found, err := p.getOne(ctx, "get article", "posts", id, &post)
	if err != nil || !found {
		return nil, err
	}
	a := toArticle(post)
	return &a, nil
}

func (p *Provider) GetArticleBySlug(ctx context.Context, slug string) (*portal.Article, error) {
	query := p.baseQuery()
	query.Set("slug", slug)
	if p.editContext {
		query.Set("status", anyStatus)
	}
	var posts []wpPost
	if _, err := p.client.Get(ctx, "get article by slug", APIPrefix+"/posts", query, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	a := toArticle(posts[0])
	return &a, nil
}

// CreateArticle posts a new article. WordPress suffixes duplicate slugs
// itself, so a conflicting slug comes back altered rather than rejected.
func (p *Provider) CreateArticle(ctx context.Context, article portal.Article) (*portal.Article, error) {
	if err := portal.PrepareArticle(&article); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"title":   article.Title,
		"slug":    article.Slug,
		"excerpt": article.Summary,
		"content": article.Body,
		"status":  fromStatus(article.Status),
		"sticky":  article.IsFeatured,
		"meta": map[string]interface{}{
			metaViews:          article.Views,
			metaIsBreaking:     article.IsBreaking,
			metaVideoURL:       article.VideoURL,
			metaSEOTitle:       article.SEOTitle,
			metaSEODescription: article.SEODescription,
		},
	}
	if !article.PublishedAt.IsZero() {
		body["date_gmt"] = FormatDate(article.PublishedAt)
	}
	if err := p.setRelations(ctx, "create article", body, &article.Category, &article.AuthorID, &article.ImageID, article.Tags); err != nil {
		return nil, err
	}

	var post wpPost
	if err := p.write(ctx, "create article", http.MethodPost, APIPrefix+"/posts", p.baseQuery(), body, &post); err != nil {
		return nil, err
	}
	created := toArticle(post)
	return &created, nil
}

func (p *Provider) UpdateArticle(ctx context.Context, id string, patch portal.ArticlePatch) (*portal.Article, error) {
	if err := portal.ValidateArticlePatch(patch); err != nil {
		return nil, err
	}
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update article", id)
	}

	body := map[string]interface{}{}
	setIf(body, "title", patch.Title)
	setIf(body, "slug", patch.Slug)
	setIf(body, "excerpt", patch.Summary)
	setIf(body, "content", patch.Body)
	if patch.Status != nil {
		body["status"] = fromStatus(*patch.Status)
	}
	if patch.PublishedAt != nil {
		body["date_gmt"] = FormatDate(*patch.PublishedAt)
	}
	if patch.IsFeatured != nil {
		body["sticky"] = *patch.IsFeatured
	}

	meta := map[string]interface{}{}
	if patch.Views != nil {
		meta[metaViews] = *patch.Views
	}
	if patch.IsBreaking != nil {
		meta[metaIsBreaking] = *patch.IsBreaking
	}
	setIf(meta, metaVideoURL, patch.VideoURL)
	setIf(meta, metaSEOTitle, patch.SEOTitle)
	setIf(meta, metaSEODescription, patch.SEODescription)
	if len(meta) > 0 {
		body["meta"] = meta
	}

	if err := p.setRelations(ctx, "update article", body, patch.Category, patch.AuthorID, patch.ImageID, patch.Tags); err != nil {
		return nil, err
	}

	var post wpPost
	if err := p.write(ctx, "update article", http.MethodPut, APIPrefix+"/posts/"+id, p.baseQuery(), body, &post); err != nil {
		return nil, err
	}
	updated := toArticle(post)
	return &updated, nil
}

// DeleteArticle force-deletes the post; deleting it again is ErrNotFound
func (p *Provider) DeleteArticle(ctx context.Context, id string) error {
	return p.remove(ctx, "delete article", "posts", id, nil)
}

// setRelations resolves canonical references into WordPress ids. nil
// pointers leave the relation untouched.
func (p *Provider) setRelations(ctx context.Context, op string, body map[string]interface{}, category, authorID, imageID *string, tags []string) error {
	if category != nil {
		if *category == "" {
			body["categories"] = []int{}
		} else {
			id, ok, err := p.categoryID(ctx, *category)
			if err != nil {
				return err
			}
			if !ok {
				return &portal.ValidationError{Field: "category", Reason: "unknown category " + *category}
			}
			body["categories"] = []int{id}
		}
	}
	if authorID != nil && *authorID != "" {
		id, ok := parseID(*authorID)
		if !ok {
			return &portal.ValidationError{Field: "authorId", Reason: "must be a WordPress user id"}
		}
		body["author"] = id
	}
	if imageID != nil {
		if *imageID == "" {
			body["featured_media"] = 0
		} else {
			id, ok := parseID(*imageID)
			if !ok {
				return &portal.ValidationError{Field: "imageId", Reason: "must be a WordPress media id"}
			}
			body["featured_media"] = id
		}
	}
	if tags != nil {
		ids, err := p.tagIDs(ctx, op, tags)
		if err != nil {
			return err
		}
		body["tags"] = ids
	}
	return nil
}

// tagIDs resolves tag names to term ids, creating missing tags
func (p *Provider) tagIDs(ctx context.Context, op string, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		slug := portal.Slugify(name)
		if slug == "" {
			continue
		}
		var found []wpTerm
		if _, err := p.client.Get(ctx, op, APIPrefix+"/tags", url.Values{"slug": {slug}}, &found); err != nil {
			return nil, err
		}
		if len(found) > 0 {
			ids = append(ids, found[0].ID)
			continue
		}
		var created wpTerm
		body := map[string]interface{}{"name": name, "slug": slug}
		if err := p.write(ctx, op, http.MethodPost, APIPrefix+"/tags", nil, body, &created); err != nil {
			return nil, err
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func (p *Provider) GetFeaturedArticles(ctx context.Context, limit int) ([]portal.Article, error) {
	return portal.FeaturedArticles(ctx, p, limit)
}

// GetBreakingArticles returns the most recent published articles
func (p *Provider) GetBreakingArticles(ctx context.Context, limit int) ([]portal.Article, error) {
	page, err := p.ListArticles(ctx, portal.QueryParams{
		Status:    portal.ArticleStatusPublished,
		Limit:     limit,
		SortBy:    portal.SortByPublishedAt,
		SortOrder: portal.SortDesc,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetTrendingArticles orders by the configured trending field, or date
func (p *Provider) GetTrendingArticles(ctx context.Context, limit int) ([]portal.Article, error) {
	params := portal.QueryParams{
		Status:    portal.ArticleStatusPublished,
		Limit:     limit,
		SortOrder: portal.SortDesc,
	}
	page, err := p.listPosts(ctx, "trending articles", params, p.trendingOrderBy)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (p *Provider) GetArticlesByCategory(ctx context.Context, categorySlug string, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	return portal.ArticlesByCategory(ctx, p, categorySlug, params)
}

func (p *Provider) SearchArticles(ctx context.Context, query string, params portal.QueryParams) (*portal.Page[portal.Article], error) {
	return portal.SearchArticles(ctx, p, query, params)
}

func setIf(body map[string]interface{}, key string, v *string) {
	if v != nil {
		body[key] = *v
	}
}
