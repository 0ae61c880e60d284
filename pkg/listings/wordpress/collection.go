package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/restclient"
	"github.com/tendant/portal-content/pkg/portal/wordpress"
)

// ACF keys that hold the non-English halves of the shared fields
const (
	acfTitleHi       = "titleHi"
	acfDescriptionHi = "descriptionHi"
)

// dateKeys are ACF date fields. ACF returns date pickers as Ymd.
var dateKeys = map[string]bool{
	"startDate":       true,
	"endDate":         true,
	"resultDate":      true,
	"date":            true,
	"lastDateToApply": true,
}

// baseKeys are carried by core post fields rather than ACF
var baseKeys = map[string]bool{
	"id":          true,
	"slug":        true,
	"title":       true,
	"description": true,
	"createdAt":   true,
	"updatedAt":   true,
}

type renderedField struct {
	Raw      string `json:"raw,omitempty"`
	Rendered string `json:"rendered"`
}

func (r renderedField) plain() string {
	if r.Raw != "" {
		return r.Raw
	}
	return strings.TrimSpace(html.UnescapeString(wordpress.StripTags(r.Rendered)))
}

// acfFields tolerates the empty array or false ACF sends for posts without fields
type acfFields map[string]interface{}

func (a *acfFields) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		*a = acfFields{}
		return nil
	}
	*a = m
	return nil
}

type wpListing struct {
	ID          int           `json:"id"`
	Slug        string        `json:"slug"`
	Status      string        `json:"status"`
	DateGMT     string        `json:"date_gmt"`
	ModifiedGMT string        `json:"modified_gmt"`
	Title       renderedField `json:"title"`
	Content     renderedField `json:"content"`
	ACF         acfFields     `json:"acf"`
	Embedded    struct {
		FeaturedMedia []struct {
			SourceURL string `json:"source_url"`
		} `json:"wp:featuredmedia"`
	} `json:"_embedded"`
}

// collection serves one custom post type
type collection[T any, PT listings.Record[T]] struct {
	p        *Provider
	kind     listings.Kind
	postType string
}

var _ listings.Collection[listings.Exam] = (*collection[listings.Exam, *listings.Exam])(nil)

func newCollection[T any, PT listings.Record[T]](p *Provider, kind listings.Kind, postType string) *collection[T, PT] {
	return &collection[T, PT]{p: p, kind: kind, postType: postType}
}

func (c *collection[T, PT]) op(verb string) string {
	return verb + " " + string(c.kind)
}

func (c *collection[T, PT]) path() string {
	return wordpress.APIPrefix + "/" + c.postType
}

func (c *collection[T, PT]) baseQuery() url.Values {
	q := url.Values{"_embed": {"1"}}
	if c.p.editContext {
		q.Set("context", "edit")
		q.Set("status", "publish,draft,future")
	}
	return q
}

// List pages server side when only a search is set. Category and featured
// live in ACF, which core REST cannot filter on, so those queries read the
// whole type and paginate locally.
func (c *collection[T, PT]) List(ctx context.Context, q listings.Query) (*portal.Page[T], error) {
	q = q.Normalized()
	op := c.op("list")

	if q.Category != "" || q.Featured != nil {
		all, err := c.fetchAll(ctx, op, q.Search)
		if err != nil {
			return nil, err
		}
		matched := make([]T, 0, len(all))
		for i := range all {
			if q.Match(PT(&all[i]).Common()) {
				matched = append(matched, all[i])
			}
		}
		return portal.Paginate(matched, q.Limit, q.Offset), nil
	}

	limit := q.Limit
	if limit > wordpress.MaxPerPage {
		limit = wordpress.MaxPerPage
	}
	query := c.baseQuery()
	query.Set("per_page", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(portal.PageNumber(limit, q.Offset)))
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	var posts []wpListing
	h, err := c.p.client.Get(ctx, op, c.path(), query, &posts)
	if wordpress.IsErrorCode(err, wordpress.CodeInvalidPage) {
		total, countErr := c.count(ctx, op, q.Search)
		if countErr != nil {
			return nil, countErr
		}
		return portal.NewPage([]T{}, total, limit, q.Offset), nil
	}
	if err != nil {
		return nil, err
	}

	items, err := c.toItems(posts)
	if err != nil {
		return nil, err
	}
	return portal.NewPage(items, totalFromHeader(h, len(items)), limit, q.Offset), nil
}

func (c *collection[T, PT]) count(ctx context.Context, op, search string) (int, error) {
	query := c.baseQuery()
	query.Set("per_page", "1")
	if search != "" {
		query.Set("search", search)
	}
	var posts []wpListing
	h, err := c.p.client.Get(ctx, op, c.path(), query, &posts)
	if err != nil {
		return 0, err
	}
	return totalFromHeader(h, len(posts)), nil
}

func (c *collection[T, PT]) fetchAll(ctx context.Context, op, search string) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		query := c.baseQuery()
		query.Set("per_page", strconv.Itoa(wordpress.MaxPerPage))
		query.Set("page", strconv.Itoa(page))
		if search != "" {
			query.Set("search", search)
		}
		var posts []wpListing
		h, err := c.p.client.Get(ctx, op, c.path(), query, &posts)
		if err != nil {
			return nil, err
		}
		items, err := c.toItems(posts)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)

		pages, _ := strconv.Atoi(h.Get("X-WP-TotalPages"))
		if len(posts) < wordpress.MaxPerPage || (pages > 0 && page >= pages) {
			return out, nil
		}
	}
}

func (c *collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	if n, err := strconv.Atoi(id); err != nil || n <= 0 {
		return nil, nil
	}
	var post wpListing
	_, err := c.p.client.Get(ctx, c.op("get"), c.path()+"/"+id, c.baseQuery(), &post)
	if portal.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.toItem(post)
}

func (c *collection[T, PT]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	query := c.baseQuery()
	query.Set("slug", slug)
	var posts []wpListing
	if _, err := c.p.client.Get(ctx, c.op("get by slug"), c.path(), query, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return c.toItem(posts[0])
}

// Create publishes a new post. WordPress suffixes duplicate slugs itself.
func (c *collection[T, PT]) Create(ctx context.Context, item T) (*T, error) {
	if err := listings.Prepare(PT(&item).Common()); err != nil {
		return nil, err
	}
	body, err := toBody(item)
	if err != nil {
		return nil, err
	}
	body["status"] = "publish"

	var post wpListing
	if err := c.write(ctx, c.op("create"), http.MethodPost, c.path(), body, &post); err != nil {
		return nil, err
	}
	return c.toItem(post)
}

// Update reads the post, applies fn and writes every field back
func (c *collection[T, PT]) Update(ctx context.Context, id string, fn func(*T)) (*T, error) {
	op := c.op("update")
	current, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, portal.NotFound(Name, op, id)
	}
	fn(current)
	base := PT(current).Common()
	base.ID = id
	if base.Title.EN == "" && base.Title.HI == "" {
		return nil, &portal.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := listings.CheckSlug(base.Slug); err != nil {
		return nil, err
	}

	body, err := toBody(*current)
	if err != nil {
		return nil, err
	}
	var post wpListing
	if err := c.write(ctx, op, http.MethodPut, c.path()+"/"+id, body, &post); err != nil {
		return nil, err
	}
	return c.toItem(post)
}

// Delete force-deletes the post. A second delete answers 404 and surfaces
// portal.ErrNotFound.
func (c *collection[T, PT]) Delete(ctx context.Context, id string) error {
	op := c.op("delete")
	if n, err := strconv.Atoi(id); err != nil || n <= 0 {
		return portal.NotFound(Name, op, id)
	}
	query := url.Values{"force": {"true"}}
	req := restclient.Request{Method: http.MethodPost, Path: c.path() + "/" + id, Query: query}
	req.Header = http.Header{"X-HTTP-Method-Override": {http.MethodDelete}}
	_, err := c.p.client.Do(ctx, op, req, nil)
	return err
}

func (c *collection[T, PT]) write(ctx context.Context, op, method, path string, body map[string]interface{}, out interface{}) error {
	req := restclient.Request{Method: http.MethodPost, Path: path, Body: body}
	if method != http.MethodPost {
		req.Header = http.Header{"X-HTTP-Method-Override": {method}}
	}
	_, err := c.p.client.Do(ctx, op, req, out)
	return err
}

func (c *collection[T, PT]) toItems(posts []wpListing) ([]T, error) {
	items := make([]T, 0, len(posts))
	for _, post := range posts {
		item, err := c.toItem(post)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// toItem folds the core post fields into the ACF map and decodes the result
// as T, so each kind's own fields need no per-kind mapping code.
func (c *collection[T, PT]) toItem(post wpListing) (*T, error) {
	fields := make(map[string]interface{}, len(post.ACF)+8)
	for k, v := range post.ACF {
		if dateKeys[k] {
			fields[k] = normalizeDate(v)
			continue
		}
		fields[k] = v
	}

	images := stringList(post.ACF["images"])
	if len(post.Embedded.FeaturedMedia) > 0 && post.Embedded.FeaturedMedia[0].SourceURL != "" {
		cover := c.p.client.ResolveURL(post.Embedded.FeaturedMedia[0].SourceURL)
		if !contains(images, cover) {
			images = append([]string{cover}, images...)
		}
	}

	fields["id"] = strconv.Itoa(post.ID)
	fields["slug"] = wordpress.DecodeSlug(post.Slug)
	fields["title"] = portal.LocalizedText{EN: post.Title.plain(), HI: stringValue(post.ACF[acfTitleHi])}
	fields["description"] = portal.LocalizedText{EN: post.Content.plain(), HI: stringValue(post.ACF[acfDescriptionHi])}
	fields["category"] = stringValue(post.ACF["category"])
	fields["images"] = images
	fields["featured"] = boolValue(post.ACF["featured"])
	fields["createdAt"] = wordpress.ParseDate(post.DateGMT)
	fields["updatedAt"] = wordpress.ParseDate(post.ModifiedGMT)
	delete(fields, acfTitleHi)
	delete(fields, acfDescriptionHi)

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s %d: %w", c.kind, post.ID, err)
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &portal.ProviderError{
			Provider: Name,
			Op:       c.op("decode"),
			Err:      fmt.Errorf("%w: %s %d: %v", portal.ErrTransport, c.kind, post.ID, err),
		}
	}
	return &item, nil
}

// toBody splits item into core post fields and ACF fields
func toBody[T any](item T) (map[string]interface{}, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	var base listings.Base
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	acf := map[string]interface{}{}
	for k, v := range fields {
		if baseKeys[k] {
			continue
		}
		if dateKeys[k] {
			acf[k] = acfDate(v)
			continue
		}
		acf[k] = v
	}
	acf[acfTitleHi] = base.Title.HI
	acf[acfDescriptionHi] = base.Description.HI

	return map[string]interface{}{
		"title":   base.Title.EN,
		"content": base.Description.EN,
		"slug":    base.Slug,
		"acf":     acf,
	}, nil
}

// normalizeDate turns an ACF date value into RFC 3339, or nil when empty
func normalizeDate(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{"20060102", "2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return nil
}

// acfDate formats an RFC 3339 value the way ACF date pickers store it
func acfDate(v interface{}) string {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("20060102")
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func stringList(v interface{}) []string {
	out := []string{}
	list, ok := v.([]interface{})
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// boolValue reads ACF true/false fields, which arrive as bools, "1"/"0" or numbers
func boolValue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	case float64:
		return b != 0
	}
	return false
}

func totalFromHeader(h http.Header, fallback int) int {
	if h == nil {
		return fallback
	}
	n, err := strconv.Atoi(h.Get("X-WP-Total"))
	if err != nil {
		return fallback
	}
	return n
}
