package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/config"
	"github.com/tendant/portal-content/pkg/portal/registry"
)

// setupHandlerTest wires both registries to seeded in-memory reference providers
func setupHandlerTest(t *testing.T) (chi.Router, *registry.Registry[portal.Provider]) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reference := portal.ProviderConfig{Kind: config.KindReference}

	content := registry.New(reference, config.PortalFactories(logger), registry.WithLogger(logger))
	listingReg := registry.New(reference, config.ListingFactories(logger), registry.WithLogger(logger))
	t.Cleanup(func() {
		_ = content.Close()
		_ = listingReg.Close()
	})

	handler := NewHandler(content, listingReg, WithLogger(logger))
	router := chi.NewRouter()
	router.Mount("/api/v1", handler.Routes())
	return router, content
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestListArticles(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodGet, "/api/v1/articles?status=published&sortBy=title&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[portal.Page[portal.Article]](t, w)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	for i := 1; i < len(page.Items); i++ {
		assert.LessOrEqual(t, page.Items[i-1].Title, page.Items[i].Title)
	}

	w = do(t, router, http.MethodGet, "/api/v1/articles/featured?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	featured := decode[[]portal.Article](t, w)
	require.Len(t, featured, 1)
	assert.True(t, featured[0].IsFeatured)

	w = do(t, router, http.MethodGet, "/api/v1/articles/category/sports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[portal.Page[portal.Article]](t, w)
	for _, a := range page.Items {
		assert.Equal(t, "sports", a.Category)
	}
}

func TestInvalidQuery(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodGet, "/api/v1/articles?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, CodeValidation, resp.Code)
	assert.Equal(t, "limit", resp.Field)

	w = do(t, router, http.MethodGet, "/api/v1/articles?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/calendar?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArticleLifecycle(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodPost, "/api/v1/articles", map[string]interface{}{
		"title":    "Rampur News Story",
		"body":     "<p>Story body</p>",
		"category": "rampur",
		"status":   "published",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[portal.Article](t, w)
	assert.Equal(t, "rampur-news-story", created.Slug)
	assert.NotEmpty(t, created.ID)

	w = do(t, router, http.MethodGet, "/api/v1/articles/slug/rampur-news-story", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[portal.Article](t, w).ID)

	w = do(t, router, http.MethodPost, "/api/v1/articles", map[string]interface{}{"title": "Rampur News Story"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeSlugConflict, decode[ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodPatch, "/api/v1/articles/"+created.ID, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decode[ErrorResponse](t, w).Field)

	w = do(t, router, http.MethodPatch, "/api/v1/articles/"+created.ID, map[string]interface{}{"views": 12})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, decode[portal.Article](t, w).Views)

	w = do(t, router, http.MethodPatch, "/api/v1/articles/missing", map[string]interface{}{"views": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/articles/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/articles/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, w).Code)
}

func TestUnknownFieldsRejected(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodPost, "/api/v1/categories", map[string]interface{}{
		"name":   map[string]string{"en": "Weather"},
		"colour": "blue",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "body", decode[ErrorResponse](t, w).Field)
}

func TestSettingsPatch(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodPatch, "/api/v1/settings", map[string]interface{}{
		"tagline":     "Voice of Rampur",
		"socialLinks": map[string]string{"youtube": "https://youtube.example/rampur"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[portal.SiteSettings](t, w)
	assert.Equal(t, "Voice of Rampur", settings.Tagline)
	assert.Equal(t, "https://youtube.example/rampur", settings.SocialLinks["youtube"])
}

func TestMediaMultipartUpload(t *testing.T) {
	router, _ := setupHandlerTest(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Masthead"))
	require.NoError(t, mw.WriteField("altText", "Portal logo"))
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[portal.MediaItem](t, w)
	assert.Equal(t, "Masthead", item.Title)
	assert.Equal(t, "Portal logo", item.AltText)
	assert.Equal(t, "image/png", item.MimeType)
	assert.Equal(t, int64(len(png)), item.Size)
	assert.True(t, strings.HasPrefix(item.URL, "data:image/png;base64,"))

	w = do(t, router, http.MethodPost, "/api/v1/media", map[string]interface{}{"title": "no source"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "url", decode[ErrorResponse](t, w).Field)
}

func TestHugeLimitQuery(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodGet, "/api/v1/articles?limit=9223372036854775807&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[portal.Page[portal.Article]](t, w)
	assert.Equal(t, page.Total-1, len(page.Items))
	assert.Equal(t, 1, page.TotalPages)

	w = do(t, router, http.MethodGet, "/api/v1/listings/exams?limit=9223372036854775807&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	exams := decode[portal.Page[listings.Exam]](t, w)
	assert.Len(t, exams.Items, 1)
	assert.Equal(t, 1, exams.TotalPages)
}

func TestListingRoutes(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodGet, "/api/v1/listings/exams", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[portal.Page[listings.Exam]](t, w).Total)

	w = do(t, router, http.MethodPost, "/api/v1/listings/restaurants", map[string]interface{}{
		"title":   map[string]string{"en": "Kebab Corner Rampur"},
		"cuisine": []string{"Rampuri"},
		"rating":  4.4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[listings.Restaurant](t, w)
	assert.Equal(t, "kebab-corner-rampur", created.Slug)

	w = do(t, router, http.MethodPatch, "/api/v1/listings/restaurants/"+created.ID, map[string]interface{}{
		"title":  map[string]string{"hi": "कबाब कॉर्नर रामपुर"},
		"rating": 4.7,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[listings.Restaurant](t, w)
	assert.Equal(t, "Kebab Corner Rampur", updated.Title.EN)
	assert.Equal(t, "कबाब कॉर्नर रामपुर", updated.Title.HI)
	assert.Equal(t, 4.7, updated.Rating)
	assert.Equal(t, []string{"Rampuri"}, updated.Cuisine)

	w = do(t, router, http.MethodPatch, "/api/v1/listings/restaurants/"+created.ID, map[string]interface{}{"stars": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/listings/restaurants/slug/kebab-corner-rampur", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/listings/restaurants", map[string]interface{}{
		"title": map[string]string{"en": "Kebab Corner Rampur"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// seeded slug
	w = do(t, router, http.MethodPost, "/api/v1/listings/restaurants", map[string]interface{}{
		"title": map[string]string{"en": "Nawabi Dastarkhwan"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/listings/restaurants/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, router, http.MethodGet, "/api/v1/listings/restaurants/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalendarRoute(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := do(t, router, http.MethodGet, "/api/v1/calendar?year=2024&month=6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]listings.CalendarEvent](t, w)
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"event:event-1", "exam:exam-1", "holiday:holiday-1", "result:result-2", "event:event-2"}, ids)

	w = do(t, router, http.MethodGet, "/api/v1/calendar?year=1999&month=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestAdminProviderSwitch(t *testing.T) {
	router, content := setupHandlerTest(t)

	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"data":null,"error":{"status":401,"name":"UnauthorizedError","message":"Missing or invalid credentials"}}`))
	}))
	defer cms.Close()

	w := do(t, router, http.MethodPut, "/api/v1/admin/provider", portal.ProviderConfig{Kind: "strapi", BaseURL: cms.URL, APIKey: "stale"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "***", decode[portal.ProviderConfig](t, w).APIKey)
	assert.Equal(t, "stale", content.Current().APIKey)

	w = do(t, router, http.MethodGet, "/api/v1/articles", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeProviderAuth, decode[ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodPost, "/api/v1/admin/provider/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[ConnectionStatus](t, w)
	assert.False(t, status.OK)
	assert.Equal(t, "strapi", status.Kind)
	assert.Equal(t, CodeProviderAuth, status.Code)

	// resubmitting the redacted config keeps the stored key
	w = do(t, router, http.MethodPut, "/api/v1/admin/provider", portal.ProviderConfig{Kind: "strapi", BaseURL: cms.URL, APIKey: "***"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stale", content.Current().APIKey)

	w = do(t, router, http.MethodPut, "/api/v1/admin/provider", portal.ProviderConfig{Kind: "ghost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeUnknownProvider, decode[ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodPut, "/api/v1/admin/provider", portal.ProviderConfig{Kind: "wordpress"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "strapi", content.Current().Kind)

	w = do(t, router, http.MethodPut, "/api/v1/admin/provider", portal.ProviderConfig{Kind: "reference"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPost, "/api/v1/admin/provider/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ConnectionStatus](t, w).OK)

	w = do(t, router, http.MethodGet, "/api/v1/admin/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reference", decode[portal.ProviderConfig](t, w).Kind)
}
