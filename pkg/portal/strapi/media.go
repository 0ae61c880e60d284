package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/restclient"
)

const (
	filesPath    = "/api/upload/files"
	uploadPath   = "/api/upload"
	settingsPath = "/api/setting"
)

// ListMedia reads the upload library. The upload plugin returns a bare
// array without pagination metadata, so the window is cut locally.
func (p *Provider) ListMedia(ctx context.Context, limit, offset int) (*portal.Page[portal.MediaItem], error) {
	var files []file
	q := url.Values{"sort": {"createdAt:desc"}}
	if _, err := p.client.Get(ctx, "list media", filesPath, q, &files); err != nil {
		return nil, err
	}
	items := make([]portal.MediaItem, 0, len(files))
	for _, f := range files {
		items = append(items, p.toMedia(f))
	}
	return portal.Paginate(items, limit, offset), nil
}

func (p *Provider) GetMedia(ctx context.Context, id string) (*portal.MediaItem, error) {
	if _, ok := parseID(id); !ok {
		return nil, nil
	}
	var f file
	_, err := p.client.Get(ctx, "get media", filesPath+"/"+id, nil, &f)
	if portal.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item := p.toMedia(f)
	return &item, nil
}

type fileInfo struct {
	Name            string `json:"name,omitempty"`
	AlternativeText string `json:"alternativeText,omitempty"`
	Caption         string `json:"caption,omitempty"`
}

// CreateMedia uploads the file as multipart form data
func (p *Provider) CreateMedia(ctx context.Context, upload portal.MediaUpload) (*portal.MediaItem, error) {
	if err := portal.PrepareMedia(&upload); err != nil {
		return nil, err
	}
	if len(upload.Data) == 0 {
		return nil, &portal.ValidationError{Field: "data", Reason: "file data is required for strapi uploads"}
	}
	fileName := portal.SanitizeFileName(upload.FileName)

	info := fileInfo{Name: fileName, AlternativeText: upload.AltText, Caption: upload.Title}
	body, contentType, err := multipartBody(info, fileName, upload.MimeType, upload.Data)
	if err != nil {
		return nil, err
	}
	var files []file
	if _, err := p.client.Do(ctx, "create media", restclient.Request{
		Method:      http.MethodPost,
		Path:        uploadPath,
		RawBody:     body,
		ContentType: contentType,
	}, &files); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &portal.ProviderError{Provider: Name, Op: "create media", Err: fmt.Errorf("%w: empty upload response", portal.ErrTransport)}
	}
	item := p.toMedia(files[0])
	return &item, nil
}

// UpdateMedia changes file info through POST /api/upload?id=
func (p *Provider) UpdateMedia(ctx context.Context, id string, patch portal.MediaPatch) (*portal.MediaItem, error) {
	current, err := p.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, portal.NotFound(Name, "update media", id)
	}
	patch.Apply(current)

	info := fileInfo{AlternativeText: current.AltText, Caption: current.Title}
	body, contentType, err := multipartBody(info, "", "", nil)
	if err != nil {
		return nil, err
	}
	var f file
	if _, err := p.client.Do(ctx, "update media", restclient.Request{
		Method:      http.MethodPost,
		Path:        uploadPath,
		Query:       url.Values{"id": {id}},
		RawBody:     body,
		ContentType: contentType,
	}, &f); err != nil {
		return nil, err
	}
	item := p.toMedia(f)
	return &item, nil
}

func (p *Provider) DeleteMedia(ctx context.Context, id string) error {
	return p.remove(ctx, "delete media", filesPath, id)
}

// multipartBody builds the upload form. data may be nil for info-only updates.
func multipartBody(info fileInfo, fileName, mimeType string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	infoJSON, err := json.Marshal(info)
	if err != nil {
		return nil, "", fmt.Errorf("encode file info: %w", err)
	}
	if err := w.WriteField("fileInfo", string(infoJSON)); err != nil {
		return nil, "", err
	}
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, fileName))
		h.Set("Content-Type", mimeType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (p *Provider) GetSettings(ctx context.Context) (*portal.SiteSettings, error) {
	var out single[settingsAttrs]
	_, err := p.client.Get(ctx, "get settings", settingsPath, nil, &out)
	if portal.IsNotFound(err) {
		// the single type has not been saved yet
		empty := portal.SiteSettings{SocialLinks: map[string]string{}}
		return &empty, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Data == nil {
		empty := portal.SiteSettings{SocialLinks: map[string]string{}}
		return &empty, nil
	}
	s := p.toSettings(out.Data.Attributes)
	return &s, nil
}

// UpdateSettings merges patch into the stored settings and writes the whole
// single type back
func (p *Provider) UpdateSettings(ctx context.Context, patch portal.SettingsPatch) (*portal.SiteSettings, error) {
	current, err := p.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(current)
	data := map[string]interface{}{
		"siteName":     current.SiteName.EN,
		"siteNameHi":   current.SiteName.HI,
		"tagline":      current.Tagline,
		"logoUrl":      current.LogoURL,
		"faviconUrl":   current.FaviconURL,
		"socialLinks":  current.SocialLinks,
		"contactEmail": current.ContactEmail,
		"contactPhone": current.ContactPhone,
		"address":      current.Address,
	}
	e, err := write[settingsAttrs](ctx, p, "update settings", http.MethodPut, settingsPath, nil, data)
	if err != nil {
		return nil, err
	}
	s := p.toSettings(e.Attributes)
	return &s, nil
}
