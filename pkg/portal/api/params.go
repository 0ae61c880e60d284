package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
)

// maxJSONBody caps decoded request bodies
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func intParam(q url.Values, key string, defaultValue int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &portal.ValidationError{Field: key, Reason: "must be a non-negative integer"}
	}
	return n, nil
}

func boolParam(q url.Values, key string) (*bool, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &portal.ValidationError{Field: key, Reason: "must be true or false"}
	}
	return &b, nil
}

// queryParams reads the article list parameters:
//
//	?category=&status=&featured=&breaking=&search=&author=&limit=&offset=&sortBy=&sortOrder=
func queryParams(r *http.Request) (portal.QueryParams, error) {
	q := r.URL.Query()
	params := portal.QueryParams{
		Category:  q.Get("category"),
		Status:    portal.ArticleStatus(q.Get("status")),
		Search:    q.Get("search"),
		Author:    q.Get("author"),
		SortBy:    portal.SortField(q.Get("sortBy")),
		SortOrder: portal.SortOrder(q.Get("sortOrder")),
	}
	if params.Status != "" && !params.Status.IsValid() {
		return params, &portal.ValidationError{Field: "status", Reason: "must be draft, published or scheduled"}
	}

	var err error
	if params.Featured, err = boolParam(q, "featured"); err != nil {
		return params, err
	}
	if params.Breaking, err = boolParam(q, "breaking"); err != nil {
		return params, err
	}
	if params.Limit, err = intParam(q, "limit", 0); err != nil {
		return params, err
	}
	if params.Offset, err = intParam(q, "offset", 0); err != nil {
		return params, err
	}
	return params, nil
}

// listingQuery reads ?category=&featured=&search=&limit=&offset=
func listingQuery(r *http.Request) (listings.Query, error) {
	q := r.URL.Query()
	query := listings.Query{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	var err error
	if query.Featured, err = boolParam(q, "featured"); err != nil {
		return query, err
	}
	if query.Limit, err = intParam(q, "limit", 0); err != nil {
		return query, err
	}
	if query.Offset, err = intParam(q, "offset", 0); err != nil {
		return query, err
	}
	return query, nil
}
