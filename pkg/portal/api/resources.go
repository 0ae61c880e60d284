package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/portal-content/pkg/portal"
)

// CategoryRoutes returns the routes for the category tree
func (h *Handler) CategoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCategories)
	r.Post("/", h.CreateCategory)
	r.Get("/slug/{slug}", h.GetCategoryBySlug)
	r.Get("/{id}", h.GetCategory)
	r.Patch("/{id}", h.UpdateCategory)
	r.Delete("/{id}", h.DeleteCategory)
	return r
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	categories, err := p.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, "list categories", err)
		return
	}
	if categories == nil {
		categories = []portal.Category{}
	}
	render.JSON(w, r, categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	category, err := p.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get category", err)
		return
	}
	if category == nil {
		h.notFound(w, r, "category", id)
		return
	}
	render.JSON(w, r, category)
}

func (h *Handler) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	category, err := p.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		h.fail(w, r, "get category by slug", err)
		return
	}
	if category == nil {
		h.notFound(w, r, "category", slug)
		return
	}
	render.JSON(w, r, category)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req portal.Category
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	category, err := p.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create category", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, category)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch portal.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	category, err := p.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "update category", err)
		return
	}
	render.JSON(w, r, category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	if err := p.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuthorRoutes returns the routes for authors
func (h *Handler) AuthorRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListAuthors)
	r.Post("/", h.CreateAuthor)
	r.Get("/{id}", h.GetAuthor)
	r.Patch("/{id}", h.UpdateAuthor)
	r.Delete("/{id}", h.DeleteAuthor)
	return r
}

func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	authors, err := p.ListAuthors(r.Context())
	if err != nil {
		h.fail(w, r, "list authors", err)
		return
	}
	if authors == nil {
		authors = []portal.Author{}
	}
	render.JSON(w, r, authors)
}

func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	author, err := p.GetAuthor(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get author", err)
		return
	}
	if author == nil {
		h.notFound(w, r, "author", id)
		return
	}
	render.JSON(w, r, author)
}

func (h *Handler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req portal.Author
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	author, err := p.CreateAuthor(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create author", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, author)
}

func (h *Handler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch portal.AuthorPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	author, err := p.UpdateAuthor(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "update author", err)
		return
	}
	render.JSON(w, r, author)
}

func (h *Handler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	if err := p.DeleteAuthor(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete author", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MediaRoutes returns the routes for the media library
func (h *Handler) MediaRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListMedia)
	r.Post("/", h.CreateMedia)
	r.Get("/{id}", h.GetMedia)
	r.Patch("/{id}", h.UpdateMedia)
	r.Delete("/{id}", h.DeleteMedia)
	return r
}

// ListMedia lists media items, ?limit=&offset=
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit", 0)
	if err != nil {
		h.fail(w, r, "list media", err)
		return
	}
	offset, err := intParam(q, "offset", 0)
	if err != nil {
		h.fail(w, r, "list media", err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	page, err := p.ListMedia(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, "list media", err)
		return
	}
	render.JSON(w, r, page)
}

func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	item, err := p.GetMedia(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get media", err)
		return
	}
	if item == nil {
		h.notFound(w, r, "media", id)
		return
	}
	render.JSON(w, r, item)
}

// CreateMedia accepts either a JSON body referencing a URL or a multipart
// form with a "file" part plus optional title and altText fields.
func (h *Handler) CreateMedia(w http.ResponseWriter, r *http.Request) {
	var upload portal.MediaUpload
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var err error
		if upload, err = h.readUpload(w, r); err != nil {
			h.badRequest(w, r, err)
			return
		}
	} else if err := decodeJSON(w, r, &upload); err != nil {
		h.badRequest(w, r, err)
		return
	}

	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	item, err := p.CreateMedia(r.Context(), upload)
	if err != nil {
		h.fail(w, r, "create media", err)
		return
	}
	h.logger.Info("Media created", "provider", p.Name(), "media_id", item.ID, "size", item.Size)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (portal.MediaUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return portal.MediaUpload{}, fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return portal.MediaUpload{}, fmt.Errorf("file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return portal.MediaUpload{}, fmt.Errorf("read file part: %w", err)
	}
	upload := portal.MediaUpload{FileName: header.Filename, Data: data}
	upload.Title = r.FormValue("title")
	upload.AltText = r.FormValue("altText")
	upload.UploadedBy = r.FormValue("uploadedBy")
	upload.MimeType = header.Header.Get("Content-Type")
	if upload.MimeType == "" || upload.MimeType == "application/octet-stream" {
		upload.MimeType = http.DetectContentType(data)
	}
	upload.Size = int64(len(data))
	return upload, nil
}

func (h *Handler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch portal.MediaPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	item, err := p.UpdateMedia(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "update media", err)
		return
	}
	render.JSON(w, r, item)
}

func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	if err := p.DeleteMedia(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete media", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings returns the site settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	settings, err := p.GetSettings(r.Context())
	if err != nil {
		h.fail(w, r, "get settings", err)
		return
	}
	render.JSON(w, r, settings)
}

// UpdateSettings merges a partial update into the site settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch portal.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.badRequest(w, r, err)
		return
	}
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	settings, err := p.UpdateSettings(r.Context(), patch)
	if err != nil {
		h.fail(w, r, "update settings", err)
		return
	}
	render.JSON(w, r, settings)
}
