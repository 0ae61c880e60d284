package reference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tendant/portal-content/pkg/portal"
)

func (p *Provider) media(ctx context.Context) ([]portal.MediaItem, error) {
	return loadList(ctx, p, KeyMedia, func(s *Seed) []portal.MediaItem { return s.Media })
}

func (p *Provider) ListMedia(ctx context.Context, limit, offset int) (*portal.Page[portal.MediaItem], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.media(ctx)
	if err != nil {
		return nil, p.fail("list media", err)
	}
	return portal.Paginate(all, limit, offset), nil
}

func (p *Provider) GetMedia(ctx context.Context, id string) (*portal.MediaItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.media(ctx)
	if err != nil {
		return nil, p.fail("get media", err)
	}
	for _, m := range all {
		if m.ID == id {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

// CreateMedia records the media item. Uploaded bytes without a URL are kept
// inline as a data URL since the reference store has no blob storage.
func (p *Provider) CreateMedia(ctx context.Context, upload portal.MediaUpload) (*portal.MediaItem, error) {
	if err := portal.PrepareMedia(&upload); err != nil {
		return nil, err
	}

	item := upload.MediaItem
	if item.URL == "" {
		item.URL = fmt.Sprintf("data:%s;base64,%s", item.MimeType, base64.StdEncoding.EncodeToString(upload.Data))
	}
	if item.Title == "" {
		item.Title = upload.FileName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.media(ctx)
	if err != nil {
		return nil, p.fail("create media", err)
	}
	item.ID = p.newID()
	if item.UploadedAt.IsZero() {
		item.UploadedAt = p.now()
	}
	item.UploadedAt = item.UploadedAt.UTC()
	all = append(all, item)
	if err := saveList(ctx, p, KeyMedia, all); err != nil {
		return nil, p.fail("create media", err)
	}
	return &item, nil
}

func (p *Provider) UpdateMedia(ctx context.Context, id string, patch portal.MediaPatch) (*portal.MediaItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.media(ctx)
	if err != nil {
		return nil, p.fail("update media", err)
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		patch.Apply(&all[i])
		updated := all[i]
		if err := saveList(ctx, p, KeyMedia, all); err != nil {
			return nil, p.fail("update media", err)
		}
		return &updated, nil
	}
	return nil, portal.NotFound(Name, "update media", id)
}

// DeleteMedia removes the media item; a missing id is a no-op
func (p *Provider) DeleteMedia(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.media(ctx)
	if err != nil {
		return p.fail("delete media", err)
	}
	kept := all[:0]
	for _, m := range all {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if err := saveList(ctx, p, KeyMedia, kept); err != nil {
		return p.fail("delete media", err)
	}
	return nil
}

func (p *Provider) settings(ctx context.Context) (portal.SiteSettings, error) {
	data, err := p.store.Get(ctx, KeySettings)
	if err != nil {
		return portal.SiteSettings{}, err
	}
	if data == nil {
		var initial portal.SiteSettings
		if p.seed != nil {
			initial = p.seed.Settings
		}
		if err := p.saveSettings(ctx, initial); err != nil {
			return portal.SiteSettings{}, err
		}
		return initial, nil
	}
	var s portal.SiteSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return portal.SiteSettings{}, fmt.Errorf("corrupt %s document: %w", KeySettings, err)
	}
	return s, nil
}

func (p *Provider) saveSettings(ctx context.Context, s portal.SiteSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeySettings, err)
	}
	return p.store.Put(ctx, KeySettings, data)
}

func (p *Provider) GetSettings(ctx context.Context) (*portal.SiteSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.settings(ctx)
	if err != nil {
		return nil, p.fail("get settings", err)
	}
	return &s, nil
}

func (p *Provider) UpdateSettings(ctx context.Context, patch portal.SettingsPatch) (*portal.SiteSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.settings(ctx)
	if err != nil {
		return nil, p.fail("update settings", err)
	}
	patch.Apply(&s)
	if err := p.saveSettings(ctx, s); err != nil {
		return nil, p.fail("update settings", err)
	}
	return &s, nil
}
