package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/restclient"
)

func (p *Provider) ListMedia(ctx context.Context, limit, offset int) (*portal.Page[portal.MediaItem], error) {
	limit = perPage(limit)
	if offset < 0 {
		offset = 0
	}
	query := url.Values{
		"per_page": {strconv.Itoa(limit)},
		"page":     {strconv.Itoa(portal.PageNumber(limit, offset))},
	}
	var media []wpMedia
	header, err := p.client.Get(ctx, "list media", APIPrefix+"/media", query, &media)
	if IsErrorCode(err, CodeInvalidPage) {
		return portal.NewPage([]portal.MediaItem{}, 0, limit, offset), nil
	}
	if err != nil {
		return nil, err
	}
	items := make([]portal.MediaItem, 0, len(media))
	for _, m := range media {
		items = append(items, toMedia(m))
	}
	return portal.NewPage(items, totalFromHeader(header, len(items)), limit, offset), nil
}

func (p *Provider) GetMedia(ctx context.Context, id string) (*portal.MediaItem, error) {
	var m wpMedia
	found, err := p.getOne(ctx, "get media", "media", id, &m)
	if err != nil || !found {
		return nil, err
	}
	item := toMedia(m)
	return &item, nil
}

// CreateMedia uploads the file body. WordPress cannot sideload a remote URL
// through the REST API, so the upload must carry data.
func (p *Provider) CreateMedia(ctx context.Context, upload portal.MediaUpload) (*portal.MediaItem, error) {
	if err := portal.PrepareMedia(&upload); err != nil {
		return nil, err
	}
	if len(upload.Data) == 0 {
		return nil, &portal.ValidationError{Field: "data", Reason: "file data is required for wordpress uploads"}
	}
	fileName := portal.SanitizeFileName(upload.FileName)

	query := url.Values{}
	if upload.Title != "" {
		query.Set("title", upload.Title)
	}
	if upload.AltText != "" {
		query.Set("alt_text", upload.AltText)
	}

	var m wpMedia
	_, err := p.client.Do(ctx, "create media", restclient.Request{
		Method:      http.MethodPost,
		Path:        APIPrefix + "/media",
		Query:       query,
		RawBody:     bytes.NewReader(upload.Data),
		ContentType: upload.MimeType,
		Header: http.Header{
			"Content-Disposition": {fmt.Sprintf("attachment; filename=%q", fileName)},
		},
	}, &m)
	if err != nil {
		return nil, err
	}
	item := toMedia(m)
	return &item, nil
}

func (p *Provider) UpdateMedia(ctx context.Context, id string, patch portal.MediaPatch) (*portal.MediaItem, error) {
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update media", id)
	}
	body := map[string]interface{}{}
	setIf(body, "title", patch.Title)
	setIf(body, "alt_text", patch.AltText)

	var m wpMedia
	if err := p.write(ctx, "update media", http.MethodPut, APIPrefix+"/media/"+id, nil, body, &m); err != nil {
		return nil, err
	}
	item := toMedia(m)
	return &item, nil
}

func (p *Provider) DeleteMedia(ctx context.Context, id string) error {
	return p.remove(ctx, "delete media", "media", id, nil)
}

// GetSettings reads /settings, which requires manage_options
func (p *Provider) GetSettings(ctx context.Context) (*portal.SiteSettings, error) {
	var s wpSettings
	if _, err := p.client.Get(ctx, "get settings", APIPrefix+"/settings", nil, &s); err != nil {
		return nil, err
	}
	out := toSettings(s)
	return &out, nil
}

// UpdateSettings merges patch into the current settings and writes them back
func (p *Provider) UpdateSettings(ctx context.Context, patch portal.SettingsPatch) (*portal.SiteSettings, error) {
	current, err := p.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(current)

	var s wpSettings
	if err := p.write(ctx, "update settings", http.MethodPost, APIPrefix+"/settings", nil, fromSettings(*current), &s); err != nil {
		return nil, err
	}
	out := toSettings(s)
	return &out, nil
}
