package portal

import (
	"sort"
	"strings"
)

// MatchArticle reports whether a satisfies every filter set on q
func MatchArticle(a Article, q QueryParams) bool {
	if q.Category != "" && !strings.EqualFold(a.Category, q.Category) {
		return false
	}
	if q.Status != "" && a.Status != q.Status {
		return false
	}
	if q.Featured != nil && a.IsFeatured != *q.Featured {
		return false
	}
	if q.Breaking != nil && a.IsBreaking != *q.Breaking {
		return false
	}
	if q.Author != "" && a.AuthorID != q.Author {
		return false
	}
	if q.Search != "" && !ContainsFold(a.Title, q.Search) && !ContainsFold(a.Summary, q.Search) {
		return false
	}
	return true
}

// SortArticles orders articles in place. Equal keys keep their original order.
func SortArticles(articles []Article, field SortField, order SortOrder) {
	less := func(i, j int) bool {
		switch field {
		case SortByViews:
			return articles[i].Views < articles[j].Views
		case SortByTitle:
			return articles[i].Title < articles[j].Title
		default:
			return articles[i].PublishedAt.Before(articles[j].PublishedAt)
		}
	}
	if order == SortDesc {
		sort.SliceStable(articles, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(articles, less)
}

// QueryArticles applies filters, ordering and the offset/limit window of q to
// an in-memory article set.
func QueryArticles(all []Article, q QueryParams) *Page[Article] {
	q = q.Normalized()
	matched := make([]Article, 0, len(all))
	for _, a := range all {
		if MatchArticle(a, q) {
			matched = append(matched, a)
		}
	}
	SortArticles(matched, q.SortBy, q.SortOrder)
	return Paginate(matched, q.Limit, q.Offset)
}
