package strapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeStrapi serves the subset of the Strapi v4 REST API the adapter uses
type fakeStrapi struct {
	mu sync.Mutex

	nextID     int
	articles   []*fakeRecord
	categories []*fakeRecord
	tags       []*fakeRecord
	files      []map[string]interface{}
	setting    map[string]interface{}
	rejectAuth bool

	lastQuery map[string][]string
}

// fakeRecord holds scalar attributes plus relation ids
type fakeRecord struct {
	ID        int
	Attrs     map[string]interface{}
	Category  int
	Author    int
	Image     int
	Tags      []int
	Parent    int
	Published bool
}

func newFakeStrapi(t *testing.T) (*fakeStrapi, *httptest.Server) {
	t.Helper()
	f := &fakeStrapi{nextID: 0}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeStrapi) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeStrapi) addCategory(name, slug string) *fakeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := &fakeRecord{ID: f.id(), Attrs: map[string]interface{}{"name": name, "slug": slug, "order": 0}}
	f.categories = append(f.categories, rec)
	return rec
}

func (f *fakeStrapi) addFile(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.files = append(f.files, map[string]interface{}{
		"id": id, "name": "photo.jpg", "mime": "image/jpeg", "size": 2.5, "url": url,
		"width": 800, "height": 600, "createdAt": "2024-05-01T06:30:00.000Z",
	})
	return id
}

func (f *fakeStrapi) addArticle(attrs map[string]interface{}, category int, published bool) *fakeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := &fakeRecord{ID: f.id(), Attrs: attrs, Category: category, Published: published}
	f.articles = append(f.articles, rec)
	return rec
}

func (f *fakeStrapi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rejectAuth || r.Header.Get("Authorization") != "Bearer token" {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"data": nil, "error": map[string]interface{}{"status": 403, "name": "ForbiddenError"}})
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/"), "/")
	switch parts[0] {
	case "articles":
		f.serveCollection(w, r, parts, &f.articles, f.renderArticle)
	case "categories":
		f.serveCollection(w, r, parts, &f.categories, f.renderCategory)
	case "tags":
		f.serveCollection(w, r, parts, &f.tags, renderPlain)
	case "upload":
		f.serveUpload(w, r, parts)
	case "setting":
		if r.Method == http.MethodPut {
			var body struct {
				Data map[string]interface{} `json:"data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.setting = body.Data
		}
		if f.setting == nil {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"id": 1, "attributes": f.setting}})
	default:
		notFound(w)
	}
}

func (f *fakeStrapi) serveCollection(w http.ResponseWriter, r *http.Request, parts []string, records *[]*fakeRecord, render func(*fakeRecord) map[string]interface{}) {
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			f.list(w, r, *records, render)
		case http.MethodPost:
			rec := &fakeRecord{ID: f.id(), Attrs: map[string]interface{}{}}
			data := decodeData(r)
			if slug, ok := data["slug"]; ok {
				for _, existing := range *records {
					if existing.Attrs["slug"] == slug {
						writeJSON(w, http.StatusBadRequest, map[string]interface{}{"data": nil, "error": map[string]interface{}{"status": 400, "name": "ValidationError", "message": "This attribute must be unique"}})
						return
					}
				}
			}
			applyData(rec, data)
			*records = append(*records, rec)
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": render(rec), "meta": map[string]interface{}{}})
		}
		return
	}

	id, _ := strconv.Atoi(parts[1])
	idx := -1
	for i, rec := range *records {
		if rec.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		notFound(w)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": render((*records)[idx]), "meta": map[string]interface{}{}})
	case http.MethodPut:
		applyData((*records)[idx], decodeData(r))
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": render((*records)[idx]), "meta": map[string]interface{}{}})
	case http.MethodDelete:
		rec := (*records)[idx]
		*records = append((*records)[:idx], (*records)[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": render(rec), "meta": map[string]interface{}{}})
	}
}

func (f *fakeStrapi) list(w http.ResponseWriter, r *http.Request, records []*fakeRecord, render func(*fakeRecord) map[string]interface{}) {
	q := r.URL.Query()
	f.lastQuery = q
	preview := q.Get("publicationState") == "preview"

	var matched []*fakeRecord
	for _, rec := range records {
		if !preview && rec.Attrs["articleStatus"] != nil && !rec.Published {
			continue
		}
		if !f.matches(rec, q) {
			continue
		}
		matched = append(matched, rec)
	}

	if s := q.Get("sort"); s != "" {
		field, dir, _ := strings.Cut(s, ":")
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i].Attrs[field], matched[j].Attrs[field]
			if dir == "desc" {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	page, _ := strconv.Atoi(q.Get("pagination[page]"))
	if page == 0 {
		page = 1
	}
	size, _ := strconv.Atoi(q.Get("pagination[pageSize]"))
	if size == 0 {
		size = 25
	}
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	data := []map[string]interface{}{}
	for _, rec := range matched[start:end] {
		data = append(data, render(rec))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{"pagination": map[string]interface{}{
			"page": page, "pageSize": size, "pageCount": (len(matched) + size - 1) / size, "total": len(matched),
		}},
	})
}

func (f *fakeStrapi) matches(rec *fakeRecord, q map[string][]string) bool {
	for key, values := range q {
		if !strings.HasPrefix(key, "filters[") {
			continue
		}
		want := values[0]
		switch key {
		case "filters[category][slug][$eqi]":
			cat := f.find(f.categories, rec.Category)
			if cat == nil {
				return false
			}
			if slug, _ := cat.Attrs["slug"].(string); !strings.EqualFold(slug, want) {
				return false
			}
		case "filters[author][id][$eq]":
			if strconv.Itoa(rec.Author) != want {
				return false
			}
		case "filters[$or][0][title][$containsi]":
			title, _ := rec.Attrs["title"].(string)
			summary, _ := rec.Attrs["summary"].(string)
			if !strings.Contains(strings.ToLower(title+" "+summary), strings.ToLower(want)) {
				return false
			}
		case "filters[$or][1][summary][$containsi]":
		default:
			field := strings.TrimSuffix(strings.TrimPrefix(key, "filters["), "][$eq]")
			if sortKey(rec.Attrs[field]) != want {
				return false
			}
		}
	}
	return true
}

func (f *fakeStrapi) find(records []*fakeRecord, id int) *fakeRecord {
	for _, rec := range records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (f *fakeStrapi) serveUpload(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && r.Method == http.MethodPost:
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
			return
		}
		var info map[string]interface{}
		_ = json.Unmarshal([]byte(r.FormValue("fileInfo")), &info)
		if id := r.URL.Query().Get("id"); id != "" {
			n, _ := strconv.Atoi(id)
			for _, file := range f.files {
				if file["id"] == n {
					file["alternativeText"] = info["alternativeText"]
					file["caption"] = info["caption"]
					writeJSON(w, http.StatusOK, file)
					return
				}
			}
			notFound(w)
			return
		}
		fh := r.MultipartForm.File["files"][0]
		src, _ := fh.Open()
		data, _ := io.ReadAll(src)
		id := f.id()
		file := map[string]interface{}{
			"id": id, "name": fh.Filename, "mime": fh.Header.Get("Content-Type"),
			"size": float64(len(data)) / 1024, "url": "/uploads/" + fh.Filename,
			"alternativeText": info["alternativeText"], "caption": info["caption"],
			"createdAt": "2024-06-01T09:00:00.000Z",
		}
		f.files = append(f.files, file)
		writeJSON(w, http.StatusCreated, []interface{}{file})
	case len(parts) == 2 && parts[1] == "files":
		writeJSON(w, http.StatusOK, f.files)
	case len(parts) == 3:
		n, _ := strconv.Atoi(parts[2])
		for i, file := range f.files {
			if file["id"] == n {
				if r.Method == http.MethodDelete {
					f.files = append(f.files[:i], f.files[i+1:]...)
				}
				writeJSON(w, http.StatusOK, file)
				return
			}
		}
		notFound(w)
	default:
		notFound(w)
	}
}

func (f *fakeStrapi) fileEntry(id int) interface{} {
	for _, file := range f.files {
		if file["id"] == id {
			attrs := map[string]interface{}{}
			for k, v := range file {
				if k != "id" {
					attrs[k] = v
				}
			}
			return map[string]interface{}{"data": map[string]interface{}{"id": id, "attributes": attrs}}
		}
	}
	return map[string]interface{}{"data": nil}
}

func (f *fakeStrapi) renderArticle(rec *fakeRecord) map[string]interface{} {
	attrs := copyAttrs(rec.Attrs)
	attrs["publishedAt"] = nil
	if rec.Published {
		attrs["publishedAt"] = "2024-05-01T00:00:00.000Z"
	}
	attrs["updatedAt"] = "2024-06-01T09:00:00.000Z"
	attrs["category"] = map[string]interface{}{"data": nil}
	if cat := f.find(f.categories, rec.Category); cat != nil {
		attrs["category"] = map[string]interface{}{"data": renderPlain(cat)}
	}
	attrs["author"] = map[string]interface{}{"data": nil}
	if rec.Author != 0 {
		attrs["author"] = map[string]interface{}{"data": map[string]interface{}{"id": rec.Author, "attributes": map[string]interface{}{"name": "Reporter"}}}
	}
	attrs["image"] = f.fileEntry(rec.Image)
	tags := []interface{}{}
	for _, id := range rec.Tags {
		if tag := f.find(f.tags, id); tag != nil {
			tags = append(tags, renderPlain(tag))
		}
	}
	attrs["tags"] = map[string]interface{}{"data": tags}
	return map[string]interface{}{"id": rec.ID, "attributes": attrs}
}

func (f *fakeStrapi) renderCategory(rec *fakeRecord) map[string]interface{} {
	attrs := copyAttrs(rec.Attrs)
	attrs["parent"] = map[string]interface{}{"data": nil}
	if parent := f.find(f.categories, rec.Parent); parent != nil {
		attrs["parent"] = map[string]interface{}{"data": renderPlain(parent)}
	}
	return map[string]interface{}{"id": rec.ID, "attributes": attrs}
}

func renderPlain(rec *fakeRecord) map[string]interface{} {
	return map[string]interface{}{"id": rec.ID, "attributes": copyAttrs(rec.Attrs)}
}

func applyData(rec *fakeRecord, data map[string]interface{}) {
	for k, v := range data {
		switch k {
		case "category":
			rec.Category = toInt(v)
		case "author":
			rec.Author = toInt(v)
		case "image":
			rec.Image = toInt(v)
		case "parent":
			rec.Parent = toInt(v)
		case "tags":
			rec.Tags = nil
			list, _ := v.([]interface{})
			for _, item := range list {
				rec.Tags = append(rec.Tags, toInt(item))
			}
		case "publishedAt":
			rec.Published = v != nil
		default:
			rec.Attrs[k] = v
		}
	}
}

func copyAttrs(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func less(a, b interface{}) bool {
	x, xok := a.(float64)
	y, yok := b.(float64)
	if xok && yok {
		return x < y
	}
	return sortKey(a) < sortKey(b)
}

func sortKey(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

func toInt(v interface{}) int {
	if n, ok := v.(float64); ok {
		return int(n)
	}
	return 0
}

func decodeData(r *http.Request) map[string]interface{} {
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Data == nil {
		body.Data = map[string]interface{}{}
	}
	return body.Data
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"data": nil, "error": map[string]interface{}{"status": 404, "name": "NotFoundError", "message": "Not Found"}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
