package wordpress_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeWordPress is a small in-memory stand-in for the wp/v2 routes the
// adapter uses
type fakeWordPress struct {
	mu sync.Mutex

	nextID     int
	posts      []*fakePost
	terms      []*fakeTerm
	media      []*fakeMedia
	settings   map[string]interface{}
	omitTotals bool
	rejectAuth bool

	categorySlugLookups int
	lastPostsQuery      map[string][]string
	uploads             []string
}

type fakePost struct {
	ID            int
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	Status        string
	DateGMT       string
	Author        int
	FeaturedMedia int
	Sticky        bool
	Categories    []int
	Tags          []int
	Meta          map[string]interface{}
}

type fakeTerm struct {
	ID       int
	Name     string
	Slug     string
	Taxonomy string
	Parent   int
	Meta     map[string]interface{}
}

type fakeMedia struct {
	ID       int
	Title    string
	AltText  string
	MimeType string
	URL      string
	Size     int
}

func newFakeWordPress(t *testing.T) (*fakeWordPress, *httptest.Server) {
	t.Helper()
	f := &fakeWordPress{
		nextID: 100,
		settings: map[string]interface{}{
			"title":       "Rampur News",
			"description": "Local news",
			"email":       "desk@example.com",
			"portal_site_settings": map[string]interface{}{
				"site_name_hi": "रामपुर न्यूज़",
				"social_links": map[string]interface{}{"twitter": "https://twitter.com/rampur"},
			},
		},
	}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeWordPress) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeWordPress) addTerm(taxonomy, name, slug string) *fakeTerm {
	f.mu.Lock()
	defer f.mu.Unlock()
	term := &fakeTerm{ID: f.id(), Name: name, Slug: encodeSlug(slug), Taxonomy: taxonomy, Meta: map[string]interface{}{}}
	f.terms = append(f.terms, term)
	return term
}

func (f *fakeWordPress) addPost(post *fakePost) *fakePost {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = f.id()
	post.Slug = encodeSlug(post.Slug)
	if post.Meta == nil {
		post.Meta = map[string]interface{}{}
	}
	f.posts = append(f.posts, post)
	return post
}

func (f *fakeWordPress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rejectAuth {
		writeError(w, http.StatusUnauthorized, "rest_not_logged_in")
		return
	}

	method := r.Method
	if override := r.Header.Get("X-HTTP-Method-Override"); override != "" && method == http.MethodPost {
		method = override
	}
	path := strings.TrimPrefix(r.URL.Path, "/wp-json/wp/v2")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	resource := parts[0]
	id := 0
	if len(parts) > 1 {
		id, _ = strconv.Atoi(parts[1])
	}

	switch {
	case resource == "posts" && len(parts) == 1 && method == http.MethodGet:
		f.listPosts(w, r)
	case resource == "posts" && len(parts) == 1 && method == http.MethodPost:
		post := &fakePost{ID: f.id(), Meta: map[string]interface{}{}, Status: "draft"}
		f.applyPost(post, decodeBody(r))
		if post.DateGMT == "" {
			post.DateGMT = "2024-06-01T09:00:00"
		}
		f.posts = append(f.posts, post)
		writeJSON(w, http.StatusCreated, f.renderPost(post))
	case resource == "posts" && len(parts) == 2:
		idx := -1
		for i, p := range f.posts {
			if p.ID == id {
				idx = i
			}
		}
		if idx < 0 {
			writeError(w, http.StatusNotFound, "rest_post_invalid_id")
			return
		}
		switch method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, f.renderPost(f.posts[idx]))
		case http.MethodPut:
			f.applyPost(f.posts[idx], decodeBody(r))
			writeJSON(w, http.StatusOK, f.renderPost(f.posts[idx]))
		case http.MethodDelete:
			f.posts = append(f.posts[:idx], f.posts[idx+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
		}
	case resource == "categories" || resource == "tags":
		f.serveTerms(w, r, method, resource, id, len(parts) == 2)
	case resource == "users" && len(parts) == 2 && parts[1] == "me":
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 1, "name": "admin"})
	case resource == "media" && len(parts) == 1 && method == http.MethodPost:
		data, _ := io.ReadAll(r.Body)
		f.uploads = append(f.uploads, r.Header.Get("Content-Disposition"))
		m := &fakeMedia{
			ID:       f.id(),
			Title:    r.URL.Query().Get("title"),
			AltText:  r.URL.Query().Get("alt_text"),
			MimeType: r.Header.Get("Content-Type"),
			Size:     len(data),
		}
		m.URL = fmt.Sprintf("https://wp.example/uploads/%d", m.ID)
		f.media = append(f.media, m)
		writeJSON(w, http.StatusCreated, renderMedia(m))
	case resource == "media" && len(parts) == 2 && method == http.MethodGet:
		for _, m := range f.media {
			if m.ID == id {
				writeJSON(w, http.StatusOK, renderMedia(m))
				return
			}
		}
		writeError(w, http.StatusNotFound, "rest_post_invalid_id")
	case resource == "settings" && method == http.MethodGet:
		writeJSON(w, http.StatusOK, f.settings)
	case resource == "settings" && method == http.MethodPost:
		for k, v := range decodeBody(r) {
			f.settings[k] = v
		}
		writeJSON(w, http.StatusOK, f.settings)
	default:
		writeError(w, http.StatusNotFound, "rest_no_route")
	}
}

func (f *fakeWordPress) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.lastPostsQuery = q

	statuses := map[string]bool{"publish": true}
	if s := q.Get("status"); s != "" {
		statuses = map[string]bool{}
		for _, v := range strings.Split(s, ",") {
			statuses[v] = true
		}
	}

	var matched []*fakePost
	for _, p := range f.posts {
		if !statuses[p.Status] {
			continue
		}
		if s := q.Get("slug"); s != "" && p.Slug != encodeSlug(s) {
			continue
		}
		if c := q.Get("categories"); c != "" {
			want, _ := strconv.Atoi(c)
			if !containsInt(p.Categories, want) {
				continue
			}
		}
		if s := q.Get("sticky"); s != "" && strconv.FormatBool(p.Sticky) != s {
			continue
		}
		if s := q.Get("search"); s != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(s)) {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		less := matched[i].DateGMT < matched[j].DateGMT
		if q.Get("orderby") == "title" {
			less = matched[i].Title < matched[j].Title
		}
		if q.Get("order") == "desc" {
			if q.Get("orderby") == "title" {
				return matched[i].Title > matched[j].Title
			}
			return matched[i].DateGMT > matched[j].DateGMT
		}
		return less
	})

	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage == 0 {
		perPage = 10
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page == 0 {
		page = 1
	}
	start := (page - 1) * perPage
	if page > 1 && start >= len(matched) {
		writeError(w, http.StatusBadRequest, "rest_post_invalid_page_number")
		return
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}

	out := []map[string]interface{}{}
	for _, p := range matched[start:end] {
		out = append(out, f.renderPost(p))
	}
	if !f.omitTotals {
		w.Header().Set("X-WP-Total", strconv.Itoa(len(matched)))
		w.Header().Set("X-WP-TotalPages", strconv.Itoa((len(matched)+perPage-1)/perPage))
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeWordPress) serveTerms(w http.ResponseWriter, r *http.Request, method, taxonomy string, id int, single bool) {
	if taxonomy == "categories" {
		taxonomy = "category"
	} else {
		taxonomy = "post_tag"
	}
	if !single && method == http.MethodGet {
		slug := r.URL.Query().Get("slug")
		if slug != "" && taxonomy == "category" {
			f.categorySlugLookups++
		}
		out := []map[string]interface{}{}
		for _, t := range f.terms {
			if t.Taxonomy == taxonomy && (slug == "" || t.Slug == encodeSlug(slug)) {
				out = append(out, renderTerm(t))
			}
		}
		w.Header().Set("X-WP-TotalPages", "1")
		writeJSON(w, http.StatusOK, out)
		return
	}
	if !single && method == http.MethodPost {
		body := decodeBody(r)
		slug, _ := body["slug"].(string)
		for _, t := range f.terms {
			if t.Taxonomy == taxonomy && t.Slug == encodeSlug(slug) {
				writeError(w, http.StatusBadRequest, "term_exists")
				return
			}
		}
		term := &fakeTerm{ID: f.id(), Taxonomy: taxonomy, Meta: map[string]interface{}{}}
		applyTerm(term, body)
		f.terms = append(f.terms, term)
		writeJSON(w, http.StatusCreated, renderTerm(term))
		return
	}

	idx := -1
	for i, t := range f.terms {
		if t.ID == id && t.Taxonomy == taxonomy {
			idx = i
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "rest_term_invalid")
		return
	}
	switch method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, renderTerm(f.terms[idx]))
	case http.MethodPut:
		applyTerm(f.terms[idx], decodeBody(r))
		writeJSON(w, http.StatusOK, renderTerm(f.terms[idx]))
	case http.MethodDelete:
		f.terms = append(f.terms[:idx], f.terms[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
	}
}

func (f *fakeWordPress) applyPost(p *fakePost, body map[string]interface{}) {
	for k, v := range body {
		switch k {
		case "title":
			p.Title = v.(string)
		case "slug":
			p.Slug = encodeSlug(v.(string))
		case "excerpt":
			p.Excerpt = v.(string)
		case "content":
			p.Content = v.(string)
		case "status":
			p.Status = v.(string)
		case "date_gmt":
			p.DateGMT = v.(string)
		case "author":
			p.Author = toInt(v)
		case "featured_media":
			p.FeaturedMedia = toInt(v)
		case "sticky":
			p.Sticky = v.(bool)
		case "categories":
			p.Categories = toInts(v)
		case "tags":
			p.Tags = toInts(v)
		case "meta":
			for mk, mv := range v.(map[string]interface{}) {
				p.Meta[mk] = mv
			}
		}
	}
}

func applyTerm(t *fakeTerm, body map[string]interface{}) {
	for k, v := range body {
		switch k {
		case "name":
			t.Name = v.(string)
		case "slug":
			t.Slug = encodeSlug(v.(string))
		case "parent":
			t.Parent = toInt(v)
		case "meta":
			for mk, mv := range v.(map[string]interface{}) {
				t.Meta[mk] = mv
			}
		}
	}
	if t.Slug == "" {
		t.Slug = strings.ToLower(strings.ReplaceAll(t.Name, " ", "-"))
	}
}

func (f *fakeWordPress) renderPost(p *fakePost) map[string]interface{} {
	var cats, tags []map[string]interface{}
	for _, t := range f.terms {
		if t.Taxonomy == "category" && containsInt(p.Categories, t.ID) {
			cats = append(cats, renderTerm(t))
		}
		if t.Taxonomy == "post_tag" && containsInt(p.Tags, t.ID) {
			tags = append(tags, renderTerm(t))
		}
	}
	embedded := map[string]interface{}{
		"wp:term": []interface{}{cats, tags},
	}
	for _, m := range f.media {
		if m.ID == p.FeaturedMedia {
			embedded["wp:featuredmedia"] = []interface{}{renderMedia(m)}
		}
	}
	var meta interface{} = p.Meta
	if len(p.Meta) == 0 {
		// WordPress renders empty meta as a list
		meta = []interface{}{}
	}
	return map[string]interface{}{
		"id":             p.ID,
		"date_gmt":       p.DateGMT,
		"modified_gmt":   p.DateGMT,
		"slug":           p.Slug,
		"status":         p.Status,
		"title":          map[string]interface{}{"rendered": p.Title},
		"excerpt":        map[string]interface{}{"rendered": "<p>" + p.Excerpt + "</p>\n"},
		"content":        map[string]interface{}{"rendered": p.Content},
		"author":         p.Author,
		"featured_media": p.FeaturedMedia,
		"sticky":         p.Sticky,
		"categories":     p.Categories,
		"tags":           p.Tags,
		"meta":           meta,
		"_embedded":      embedded,
	}
}

func renderTerm(t *fakeTerm) map[string]interface{} {
	return map[string]interface{}{
		"id":       t.ID,
		"name":     t.Name,
		"slug":     t.Slug,
		"taxonomy": t.Taxonomy,
		"parent":   t.Parent,
		"meta":     t.Meta,
	}
}

func renderMedia(m *fakeMedia) map[string]interface{} {
	return map[string]interface{}{
		"id":         m.ID,
		"date_gmt":   "2024-06-01T09:00:00",
		"title":      map[string]interface{}{"rendered": m.Title},
		"alt_text":   m.AltText,
		"mime_type":  m.MimeType,
		"source_url": m.URL,
		"author":     1,
		"media_details": map[string]interface{}{
			"filesize": m.Size,
		},
	}
}

// encodeSlug stores non-ASCII slugs the way WordPress does, as lowercase
// percent-encoded UTF-8
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

func decodeBody(r *http.Request) map[string]interface{} {
	body := map[string]interface{}{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]interface{}{"code": code, "message": code, "data": map[string]int{"status": status}})
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toInts(v interface{}) []int {
	list, _ := v.([]interface{})
	out := make([]int, 0, len(list))
	for _, item := range list {
		out = append(out, toInt(item))
	}
	return out
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
