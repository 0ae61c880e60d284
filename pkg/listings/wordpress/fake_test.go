package wordpress_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSite serves custom post types with ACF fields under wp/v2
type fakeSite struct {
	mu         sync.Mutex
	nextID     int
	posts      map[string][]*fakeListing
	rejectAuth bool
	queries    []string
}

type fakeListing struct {
	ID       int
	Slug     string
	Title    string
	Content  string
	Date     time.Time
	Modified time.Time
	ACF      map[string]interface{}
}

func newFakeSite(t *testing.T) (*fakeSite, *httptest.Server) {
	t.Helper()
	f := &fakeSite{nextID: 500, posts: map[string][]*fakeListing{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSite) add(postType string, l *fakeListing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	l.ID = f.nextID
	f.posts[postType] = append([]*fakeListing{l}, f.posts[postType]...)
}

func (f *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rejectAuth || r.Header.Get("Authorization") != "Bearer token" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"code": "rest_not_logged_in"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/wp-json/wp/v2/")
	postType, id, _ := strings.Cut(rest, "/")
	method := r.Method
	if override := r.Header.Get("X-HTTP-Method-Override"); override != "" {
		method = override
	}
	f.queries = append(f.queries, r.URL.RawQuery)

	switch {
	case id == "" && method == http.MethodGet:
		f.list(w, r, postType)
	case id == "" && method == http.MethodPost:
		f.create(w, r, postType)
	case method == http.MethodGet:
		if l := f.find(postType, id); l != nil {
			writeJSON(w, http.StatusOK, l.wire())
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"code": "rest_post_invalid_id"})
	case method == http.MethodPut:
		f.update(w, r, postType, id)
	case method == http.MethodDelete:
		f.remove(w, postType, id)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (f *fakeSite) list(w http.ResponseWriter, r *http.Request, postType string) {
	q := r.URL.Query()
	var matched []*fakeListing
	for _, l := range f.posts[postType] {
		if slug := q.Get("slug"); slug != "" && l.Slug != encodeSlug(slug) {
			continue
		}
		if s := q.Get("search"); s != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(s)) {
			continue
		}
		matched = append(matched, l)
	}

	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 {
		perPage = 10
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	totalPages := (len(matched) + perPage - 1) / perPage
	if page > 1 && page > totalPages {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"code": "rest_post_invalid_page_number"})
		return
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	out := []map[string]interface{}{}
	for _, l := range matched[start:end] {
		out = append(out, l.wire())
	}
	w.Header().Set("X-WP-Total", strconv.Itoa(len(matched)))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
	writeJSON(w, http.StatusOK, out)
}

type writeBody struct {
	Title   *string                `json:"title"`
	Content *string                `json:"content"`
	Slug    *string                `json:"slug"`
	ACF     map[string]interface{} `json:"acf"`
}

func (f *fakeSite) create(w http.ResponseWriter, r *http.Request, postType string) {
	var body writeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	l := &fakeListing{Date: now, Modified: now, ACF: body.ACF}
	l.apply(body)
	l.Slug = f.uniqueSlug(postType, l.Slug)
	f.nextID++
	l.ID = f.nextID
	f.posts[postType] = append([]*fakeListing{l}, f.posts[postType]...)
	writeJSON(w, http.StatusCreated, l.wire())
}

func (f *fakeSite) update(w http.ResponseWriter, r *http.Request, postType, id string) {
	l := f.find(postType, id)
	if l == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"code": "rest_post_invalid_id"})
		return
	}
	var body writeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	l.apply(body)
	for k, v := range body.ACF {
		if l.ACF == nil {
			l.ACF = map[string]interface{}{}
		}
		l.ACF[k] = v
	}
	l.Modified = l.Modified.Add(time.Hour)
	writeJSON(w, http.StatusOK, l.wire())
}

func (f *fakeSite) remove(w http.ResponseWriter, postType, id string) {
	list := f.posts[postType]
	for i, l := range list {
		if strconv.Itoa(l.ID) == id {
			f.posts[postType] = append(list[:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "previous": l.wire()})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"code": "rest_post_invalid_id"})
}

func (f *fakeSite) find(postType, id string) *fakeListing {
	for _, l := range f.posts[postType] {
		if strconv.Itoa(l.ID) == id {
			return l
		}
	}
	return nil
}

func (f *fakeSite) uniqueSlug(postType, slug string) string {
	candidate := slug
	for n := 2; ; n++ {
		taken := false
		for _, l := range f.posts[postType] {
			if l.Slug == candidate {
				taken = true
			}
		}
		if !taken {
			return candidate
		}
		candidate = slug + "-" + strconv.Itoa(n)
	}
}

func (l *fakeListing) apply(body writeBody) {
	if body.Title != nil {
		l.Title = *body.Title
	}
	if body.Content != nil {
		l.Content = *body.Content
	}
	if body.Slug != nil {
		l.Slug = encodeSlug(*body.Slug)
	}
}

func (l *fakeListing) wire() map[string]interface{} {
	var acf interface{} = []interface{}{}
	if len(l.ACF) > 0 {
		acf = l.ACF
	}
	return map[string]interface{}{
		"id":           l.ID,
		"slug":         l.Slug,
		"status":       "publish",
		"date_gmt":     l.Date.Format("2006-01-02T15:04:05"),
		"modified_gmt": l.Modified.Format("2006-01-02T15:04:05"),
		"title":        map[string]interface{}{"rendered": l.Title},
		"content":      map[string]interface{}{"rendered": "<p>" + l.Content + "</p>\n"},
		"acf":          acf,
	}
}

// encodeSlug mirrors WordPress storing non-ASCII slugs percent-encoded
func encodeSlug(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] < 0x80 {
			b.WriteByte(s[i])
			continue
		}
		fmt.Fprintf(&b, "%%%02x", s[i])
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
