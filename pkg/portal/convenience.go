package portal

import (
	"context"
	"strings"
)

// FeaturedArticles returns up to limit published articles flagged as featured,
// newest first.
func FeaturedArticles(ctx context.Context, l ArticleLister, limit int) ([]Article, error) {
	page, err := l.ListArticles(ctx, QueryParams{
		Status:    ArticleStatusPublished,
		Featured:  Bool(true),
		Limit:     limit,
		SortBy:    SortByPublishedAt,
		SortOrder: SortDesc,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// BreakingArticles returns up to limit published articles flagged as breaking,
// newest first.
func BreakingArticles(ctx context.Context, l ArticleLister, limit int) ([]Article, error) {
	page, err := l.ListArticles(ctx, QueryParams{
		Status:    ArticleStatusPublished,
		Breaking:  Bool(true),
		Limit:     limit,
		SortBy:    SortByPublishedAt,
		SortOrder: SortDesc,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TrendingArticles returns up to limit published articles ordered by views
func TrendingArticles(ctx context.Context, l ArticleLister, limit int) ([]Article, error) {
	page, err := l.ListArticles(ctx, QueryParams{
		Status:    ArticleStatusPublished,
		Limit:     limit,
		SortBy:    SortByViews,
		SortOrder: SortDesc,
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ArticlesByCategory lists articles in the category identified by slug
func ArticlesByCategory(ctx context.Context, l ArticleLister, categorySlug string, params QueryParams) (*Page[Article], error) {
	params.Category = categorySlug
	return l.ListArticles(ctx, params)
}

// SearchArticles lists articles whose title or summary contains query
func SearchArticles(ctx context.Context, l ArticleLister, query string, params QueryParams) (*Page[Article], error) {
	params.Search = strings.TrimSpace(query)
	return l.ListArticles(ctx, params)
}
