package strapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStrapi serves collection types in the v4 {data, meta} envelope
type fakeStrapi struct {
	mu      sync.Mutex
	nextID  int
	clock   time.Time
	entries map[string][]*fakeEntry
	queries []string
	writes  []map[string]interface{}
}

type fakeEntry struct {
	ID    int
	Attrs map[string]interface{}
}

func newFakeStrapi(t *testing.T) (*fakeStrapi, *httptest.Server) {
	t.Helper()
	f := &fakeStrapi{
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		entries: map[string][]*fakeEntry{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeStrapi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer token" {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/")
	collection, id, _ := strings.Cut(rest, "/")
	f.queries = append(f.queries, r.URL.RawQuery)

	switch {
	case id == "" && r.Method == http.MethodGet:
		f.list(w, r, collection)
	case id == "" && r.Method == http.MethodPost:
		f.create(w, r, collection)
	case r.Method == http.MethodGet:
		if e := f.find(collection, id); e != nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": e.wire()})
			return
		}
		writeError(w, http.StatusNotFound, "Not Found")
	case r.Method == http.MethodPut:
		f.update(w, r, collection, id)
	case r.Method == http.MethodDelete:
		f.remove(w, collection, id)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (f *fakeStrapi) list(w http.ResponseWriter, r *http.Request, collection string) {
	q := r.URL.Query()
	var matched []*fakeEntry
	for _, e := range f.entries[collection] {
		if v := q.Get("filters[slug][$eq]"); v != "" && e.Attrs["slug"] != v {
			continue
		}
		if v := q.Get("filters[category][$eqi]"); v != "" && !strings.EqualFold(asString(e.Attrs["category"]), v) {
			continue
		}
		if v := q.Get("filters[featured][$eq]"); v != "" && strconv.FormatBool(e.Attrs["featured"] == true) != v {
			continue
		}
		if v := q.Get("filters[$or][0][title][$containsi]"); v != "" {
			hit := false
			for _, field := range []string{"title", "titleHi", "description"} {
				if strings.Contains(strings.ToLower(asString(e.Attrs[field])), strings.ToLower(v)) {
					hit = true
				}
			}
			if !hit {
				continue
			}
		}
		matched = append(matched, e)
	}

	page, _ := strconv.Atoi(q.Get("pagination[page]"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(q.Get("pagination[pageSize]"))
	if size <= 0 {
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
	data := []interface{}{}
	for _, e := range matched[start:end] {
		data = append(data, e.wire())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{
			"pagination": map[string]interface{}{
				"page":      page,
				"pageSize":  size,
				"pageCount": (len(matched) + size - 1) / size,
				"total":     len(matched),
			},
		},
	})
}

func (f *fakeStrapi) decode(r *http.Request) (map[string]interface{}, error) {
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	f.writes = append(f.writes, body.Data)
	return body.Data, nil
}

func (f *fakeStrapi) slugTaken(collection string, exceptID int, slug interface{}) bool {
	for _, e := range f.entries[collection] {
		if e.ID != exceptID && e.Attrs["slug"] == slug {
			return true
		}
	}
	return false
}

func (f *fakeStrapi) create(w http.ResponseWriter, r *http.Request, collection string) {
	attrs, err := f.decode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.slugTaken(collection, 0, attrs["slug"]) {
		writeError(w, http.StatusBadRequest, "This attribute must be unique")
		return
	}
	f.clock = f.clock.Add(time.Minute)
	attrs["createdAt"] = f.clock.Format("2006-01-02T15:04:05.000Z")
	attrs["updatedAt"] = attrs["createdAt"]
	f.nextID++
	e := &fakeEntry{ID: f.nextID, Attrs: attrs}
	// newest first, matching sort=createdAt:desc
	f.entries[collection] = append([]*fakeEntry{e}, f.entries[collection]...)
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": e.wire()})
}

func (f *fakeStrapi) update(w http.ResponseWriter, r *http.Request, collection, id string) {
	e := f.find(collection, id)
	if e == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	attrs, err := f.decode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.slugTaken(collection, e.ID, attrs["slug"]) {
		writeError(w, http.StatusBadRequest, "This attribute must be unique")
		return
	}
	for k, v := range attrs {
		e.Attrs[k] = v
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": e.wire()})
}

func (f *fakeStrapi) remove(w http.ResponseWriter, collection, id string) {
	list := f.entries[collection]
	for i, e := range list {
		if strconv.Itoa(e.ID) == id {
			f.entries[collection] = append(list[:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": e.wire()})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Not Found")
}

func (f *fakeStrapi) find(collection, id string) *fakeEntry {
	for _, e := range f.entries[collection] {
		if strconv.Itoa(e.ID) == id {
			return e
		}
	}
	return nil
}

func (e *fakeEntry) wire() map[string]interface{} {
	return map[string]interface{}{"id": e.ID, "attributes": e.Attrs}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"data":  nil,
		"error": map[string]interface{}{"status": status, "name": "ApplicationError", "message": message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
