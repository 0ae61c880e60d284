package strapi

import (
	"math"
	"strconv"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
)

type articleAttrs struct {
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Summary        string     `json:"summary"`
	Body           string     `json:"body"`
	ArticleStatus  string     `json:"articleStatus"`
	PublishDate    *time.Time `json:"publishDate"`
	PublishedAt    *time.Time `json:"publishedAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	IsFeatured     bool       `json:"isFeatured"`
	IsBreaking     bool       `json:"isBreaking"`
	Views          int        `json:"views"`
	SEOTitle       string     `json:"seoTitle"`
	SEODescription string     `json:"seoDescription"`
	VideoURL       string     `json:"videoUrl"`

	Image    relation[fileAttrs]     `json:"image"`
	Category relation[categoryAttrs] `json:"category"`
	Author   relation[authorAttrs]   `json:"author"`
	Tags     relations[tagAttrs]     `json:"tags"`
}

type categoryAttrs struct {
	Name        string                  `json:"name"`
	NameHI      string                  `json:"nameHi"`
	Slug        string                  `json:"slug"`
	Description string                  `json:"description"`
	Order       int                     `json:"order"`
	Parent      relation[categoryAttrs] `json:"parent"`
}

type authorAttrs struct {
	Name   string              `json:"name"`
	NameHI string              `json:"nameHi"`
	Email  string              `json:"email"`
	Role   string              `json:"role"`
	Bio    string              `json:"bio"`
	Avatar relation[fileAttrs] `json:"avatar"`
}

type tagAttrs struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// fileAttrs is an upload plugin file. Size is in kilobytes.
type fileAttrs struct {
	Name            string    `json:"name"`
	AlternativeText string    `json:"alternativeText"`
	Caption         string    `json:"caption"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Mime            string    `json:"mime"`
	Size            float64   `json:"size"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"createdAt"`
	CreatedBy       *struct {
		ID int `json:"id"`
	} `json:"createdBy,omitempty"`
}

// file is an upload plugin record, which is never wrapped in an envelope
type file struct {
	ID int `json:"id"`
	fileAttrs
}

type settingsAttrs struct {
	SiteName     string            `json:"siteName"`
	SiteNameHI   string            `json:"siteNameHi"`
	Tagline      string            `json:"tagline"`
	LogoURL      string            `json:"logoUrl"`
	FaviconURL   string            `json:"faviconUrl"`
	SocialLinks  map[string]string `json:"socialLinks"`
	ContactEmail string            `json:"contactEmail"`
	ContactPhone string            `json:"contactPhone"`
	Address      string            `json:"address"`
}

func (p *Provider) toArticle(e entry[articleAttrs]) portal.Article {
	attrs := e.Attributes
	a := portal.Article{
		ID:             strconv.Itoa(e.ID),
		Title:          attrs.Title,
		Slug:           attrs.Slug,
		Summary:        attrs.Summary,
		Body:           attrs.Body,
		ImageID:        attrs.Image.id(),
		AuthorID:       attrs.Author.id(),
		UpdatedAt:      attrs.UpdatedAt.UTC(),
		Status:         portal.ArticleStatus(attrs.ArticleStatus),
		IsFeatured:     attrs.IsFeatured,
		IsBreaking:     attrs.IsBreaking,
		Views:          attrs.Views,
		Tags:           make([]string, 0, len(attrs.Tags.Data)),
		SEOTitle:       attrs.SEOTitle,
		SEODescription: attrs.SEODescription,
		VideoURL:       attrs.VideoURL,
	}
	if !a.Status.IsValid() {
		if attrs.PublishedAt != nil {
			a.Status = portal.ArticleStatusPublished
		} else {
			a.Status = portal.ArticleStatusDraft
		}
	}
	switch {
	case attrs.PublishDate != nil:
		a.PublishedAt = attrs.PublishDate.UTC()
	case attrs.PublishedAt != nil:
		a.PublishedAt = attrs.PublishedAt.UTC()
	}
	if attrs.Image.Data != nil {
		a.ImageURL = p.client.ResolveURL(attrs.Image.Data.Attributes.URL)
	}
	if attrs.Category.Data != nil {
		a.Category = attrs.Category.Data.Attributes.Slug
	}
	for _, tag := range attrs.Tags.Data {
		a.Tags = append(a.Tags, tag.Attributes.Name)
	}
	return a
}

func toCategory(e entry[categoryAttrs]) portal.Category {
	return portal.Category{
		ID:          strconv.Itoa(e.ID),
		Slug:        e.Attributes.Slug,
		Name:        portal.LocalizedText{EN: e.Attributes.Name, HI: e.Attributes.NameHI},
		Description: e.Attributes.Description,
		ParentID:    e.Attributes.Parent.id(),
		Order:       e.Attributes.Order,
	}
}

func (p *Provider) toAuthor(e entry[authorAttrs]) portal.Author {
	role := portal.AuthorRole(e.Attributes.Role)
	if !role.IsValid() {
		role = portal.AuthorRoleReporter
	}
	a := portal.Author{
		ID:    strconv.Itoa(e.ID),
		Name:  portal.LocalizedText{EN: e.Attributes.Name, HI: e.Attributes.NameHI},
		Email: e.Attributes.Email,
		Role:  role,
		Bio:   e.Attributes.Bio,
	}
	if e.Attributes.Avatar.Data != nil {
		a.AvatarURL = p.client.ResolveURL(e.Attributes.Avatar.Data.Attributes.URL)
	}
	return a
}

func (p *Provider) toMedia(f file) portal.MediaItem {
	item := portal.MediaItem{
		ID:         strconv.Itoa(f.ID),
		URL:        p.client.ResolveURL(f.URL),
		Title:      f.Caption,
		AltText:    f.AlternativeText,
		MimeType:   f.Mime,
		Size:       int64(math.Round(f.Size * 1024)),
		Width:      f.Width,
		Height:     f.Height,
		UploadedAt: f.CreatedAt.UTC(),
	}
	if item.Title == "" {
		item.Title = f.Name
	}
	if f.CreatedBy != nil {
		item.UploadedBy = strconv.Itoa(f.CreatedBy.ID)
	}
	return item
}

func (p *Provider) toSettings(s settingsAttrs) portal.SiteSettings {
	links := make(map[string]string, len(s.SocialLinks))
	for k, v := range s.SocialLinks {
		links[k] = v
	}
	return portal.SiteSettings{
		SiteName:     portal.LocalizedText{EN: s.SiteName, HI: s.SiteNameHI},
		Tagline:      s.Tagline,
		LogoURL:      p.client.ResolveURL(s.LogoURL),
		FaviconURL:   p.client.ResolveURL(s.FaviconURL),
		SocialLinks:  links,
		ContactEmail: s.ContactEmail,
		ContactPhone: s.ContactPhone,
		Address:      s.Address,
	}
}
