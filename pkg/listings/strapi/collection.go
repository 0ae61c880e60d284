package strapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/restclient"
	"github.com/tendant/portal-content/pkg/portal/strapi"
)

// dateKeys are Strapi date attributes, sent and received as YYYY-MM-DD
var dateKeys = map[string]bool{
	"startDate":       true,
	"endDate":         true,
	"resultDate":      true,
	"date":            true,
	"lastDateToApply": true,
}

type record struct {
	ID         int                    `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}

type singleRecord struct {
	Data *record `json:"data"`
}

type recordPage struct {
	Data []record `json:"data"`
	Meta struct {
		Pagination struct {
			Page      int `json:"page"`
			PageSize  int `json:"pageSize"`
			PageCount int `json:"pageCount"`
			Total     int `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

// collection serves one collection type
type collection[T any, PT listings.Record[T]] struct {
	p    *Provider
	kind listings.Kind
	path string
}

var _ listings.Collection[listings.Exam] = (*collection[listings.Exam, *listings.Exam])(nil)

func newCollection[T any, PT listings.Record[T]](p *Provider, kind listings.Kind, path string) *collection[T, PT] {
	return &collection[T, PT]{p: p, kind: kind, path: path}
}

func (c *collection[T, PT]) op(verb string) string {
	return verb + " " + string(c.kind)
}

// listQuery translates q into Strapi's filter grammar, newest first
func listQuery(q listings.Query) url.Values {
	v := url.Values{"populate": {"*"}, "sort": {"createdAt:desc"}}
	if q.Category != "" {
		strapi.SetFilter(v, q.Category, "category", "$eqi")
	}
	if q.Featured != nil {
		strapi.SetFilter(v, strconv.FormatBool(*q.Featured), "featured", "$eq")
	}
	if q.Search != "" {
		strapi.SetFilter(v, q.Search, "$or", "0", "title", "$containsi")
		strapi.SetFilter(v, q.Search, "$or", "1", "titleHi", "$containsi")
		strapi.SetFilter(v, q.Search, "$or", "2", "description", "$containsi")
	}
	return v
}

func (c *collection[T, PT]) List(ctx context.Context, q listings.Query) (*portal.Page[T], error) {
	q = q.Normalized()
	limit := q.Limit
	if limit > strapi.MaxPageSize {
		limit = strapi.MaxPageSize
	}
	query := listQuery(q)
	query.Set("pagination[page]", strconv.Itoa(portal.PageNumber(limit, q.Offset)))
	query.Set("pagination[pageSize]", strconv.Itoa(limit))

	var out recordPage
	if _, err := c.p.client.Get(ctx, c.op("list"), c.path, query, &out); err != nil {
		return nil, err
	}
	items := make([]T, 0, len(out.Data))
	for _, r := range out.Data {
		item, err := c.toItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return portal.NewPage(items, out.Meta.Pagination.Total, limit, q.Offset), nil
}

func (c *collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	if n, err := strconv.Atoi(id); err != nil || n <= 0 {
		return nil, nil
	}
	var out singleRecord
	_, err := c.p.client.Get(ctx, c.op("get"), c.path+"/"+id, url.Values{"populate": {"*"}}, &out)
	if portal.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, nil
	}
	return c.toItem(*out.Data)
}

func (c *collection[T, PT]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	query := url.Values{"populate": {"*"}, "pagination[pageSize]": {"1"}}
	strapi.SetFilter(query, slug, "slug", "$eq")
	var out recordPage
	if _, err := c.p.client.Get(ctx, c.op("get by slug"), c.path, query, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return c.toItem(out.Data[0])
}

// Create publishes a new entry. A taken slug surfaces portal.ErrSlugConflict.
func (c *collection[T, PT]) Create(ctx context.Context, item T) (*T, error) {
	if err := listings.Prepare(PT(&item).Common()); err != nil {
		return nil, err
	}
	attrs, err := toAttributes(item)
	if err != nil {
		return nil, err
	}
	attrs["publishedAt"] = c.p.now().Format(time.RFC3339)
	return c.write(ctx, c.op("create"), http.MethodPost, c.path, attrs)
}

// Update reads the entry, applies fn and writes every attribute back
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
	attrs, err := toAttributes(*current)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, op, http.MethodPut, c.path+"/"+id, attrs)
}

// Delete removes the entry; Strapi answers 404 for an id already gone
func (c *collection[T, PT]) Delete(ctx context.Context, id string) error {
	op := c.op("delete")
	if n, err := strconv.Atoi(id); err != nil || n <= 0 {
		return portal.NotFound(Name, op, id)
	}
	_, err := c.p.client.Do(ctx, op, restclient.Request{Method: http.MethodDelete, Path: c.path + "/" + id}, nil)
	return err
}

func (c *collection[T, PT]) write(ctx context.Context, op, method, path string, attrs map[string]interface{}) (*T, error) {
	var out singleRecord
	_, err := c.p.client.Do(ctx, op, restclient.Request{
		Method: method,
		Path:   path,
		Body:   map[string]interface{}{"data": attrs},
	}, &out)
	if err != nil {
		if strapi.IsUniqueViolation(err) {
			return nil, &portal.ProviderError{
				Provider: Name,
				Op:       op,
				Status:   http.StatusBadRequest,
				Err:      fmt.Errorf("%w: %v", portal.ErrSlugConflict, err),
			}
		}
		return nil, err
	}
	if out.Data == nil {
		return nil, &portal.ProviderError{Provider: Name, Op: op, Err: fmt.Errorf("%w: empty response", portal.ErrTransport)}
	}
	return c.toItem(*out.Data)
}

// toItem reshapes the attributes into the listing's JSON form and decodes it
func (c *collection[T, PT]) toItem(r record) (*T, error) {
	attrs := r.Attributes
	fields := make(map[string]interface{}, len(attrs)+4)
	for k, v := range attrs {
		if dateKeys[k] {
			fields[k] = normalizeDate(v)
			continue
		}
		fields[k] = v
	}
	delete(fields, "titleHi")
	delete(fields, "descriptionHi")
	delete(fields, "publishedAt")

	fields["id"] = strconv.Itoa(r.ID)
	fields["title"] = portal.LocalizedText{EN: stringValue(attrs["title"]), HI: stringValue(attrs["titleHi"])}
	fields["description"] = portal.LocalizedText{EN: stringValue(attrs["description"]), HI: stringValue(attrs["descriptionHi"])}
	fields["images"] = c.images(attrs["images"])
	fields["featured"] = attrs["featured"] == true

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s %d: %w", c.kind, r.ID, err)
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &portal.ProviderError{
			Provider: Name,
			Op:       c.op("decode"),
			Err:      fmt.Errorf("%w: %s %d: %v", portal.ErrTransport, c.kind, r.ID, err),
		}
	}
	return &item, nil
}

// images accepts a JSON list of URLs or a populated media relation
func (c *collection[T, PT]) images(v interface{}) []string {
	out := []string{}
	switch val := v.(type) {
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, c.p.client.ResolveURL(s))
			}
		}
	case map[string]interface{}:
		files, _ := val["data"].([]interface{})
		for _, f := range files {
			file, _ := f.(map[string]interface{})
			fileAttrs, _ := file["attributes"].(map[string]interface{})
			if u := stringValue(fileAttrs["url"]); u != "" {
				out = append(out, c.p.client.ResolveURL(u))
			}
		}
	}
	return out
}

// toAttributes flattens item into Strapi attributes
func toAttributes[T any](item T) (map[string]interface{}, error) {
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

	attrs := map[string]interface{}{}
	for k, v := range fields {
		switch {
		case k == "id" || k == "createdAt" || k == "updatedAt":
		case dateKeys[k]:
			attrs[k] = strapiDate(v)
		default:
			attrs[k] = v
		}
	}
	attrs["title"] = base.Title.EN
	attrs["titleHi"] = base.Title.HI
	attrs["description"] = base.Description.EN
	attrs["descriptionHi"] = base.Description.HI
	return attrs, nil
}

func normalizeDate(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return nil
}

// strapiDate formats an RFC 3339 value as a Strapi date; zero clears it
func strapiDate(v interface{}) interface{} {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
