package strapi

import (
	"net/url"
	"strconv"

	"github.com/tendant/portal-content/pkg/portal"
)

// SetFilter adds filters[path...][op]=value. The last element of path is
// the operator, e.g. SetFilter(q, "sports", "category", "slug", "$eqi").
func SetFilter(q url.Values, value string, path ...string) {
	key := "filters"
	for _, part := range path {
		key += "[" + part + "]"
	}
	q.Set(key, value)
}

// articleQuery translates canonical params into Strapi's filter grammar
func articleQuery(params portal.QueryParams) url.Values {
	q := url.Values{"populate": {"*"}}

	if params.Category != "" {
		SetFilter(q, params.Category, "category", "slug", "$eqi")
	}
	if params.Status != "" {
		SetFilter(q, string(params.Status), "articleStatus", "$eq")
	}
	if params.Status != portal.ArticleStatusPublished {
		// drafts and scheduled entries are unpublished in Strapi
		q.Set("publicationState", "preview")
	}
	if params.Featured != nil {
		SetFilter(q, strconv.FormatBool(*params.Featured), "isFeatured", "$eq")
	}
	if params.Breaking != nil {
		SetFilter(q, strconv.FormatBool(*params.Breaking), "isBreaking", "$eq")
	}
	if params.Author != "" {
		SetFilter(q, params.Author, "author", "id", "$eq")
	}
	if params.Search != "" {
		SetFilter(q, params.Search, "$or", "0", "title", "$containsi")
		SetFilter(q, params.Search, "$or", "1", "summary", "$containsi")
	}

	q.Set("pagination[page]", strconv.Itoa(portal.PageNumber(params.Limit, params.Offset)))
	q.Set("pagination[pageSize]", strconv.Itoa(params.Limit))
	q.Set("sort", sortField(params.SortBy)+":"+string(params.SortOrder))
	return q
}

func sortField(f portal.SortField) string {
	switch f {
	case portal.SortByViews:
		return "views"
	case portal.SortByTitle:
		return "title"
	default:
		return "publishDate"
	}
}
