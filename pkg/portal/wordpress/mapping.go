package wordpress

import (
	"sort"

	"github.com/tendant/portal-content/pkg/portal"
)

// Meta keys registered on posts, terms and users
const (
	metaViews          = "views"
	metaIsBreaking     = "is_breaking"
	metaVideoURL       = "video_url"
	metaSEOTitle       = "seo_title"
	metaSEODescription = "seo_description"
	metaNameHI         = "name_hi"
	metaOrder          = "order"
)

func toStatus(wp string) portal.ArticleStatus {
	switch wp {
	case "publish":
		return portal.ArticleStatusPublished
	case "future":
		return portal.ArticleStatusScheduled
	default:
		// pending, private and draft all read as not yet live
		return portal.ArticleStatusDraft
	}
}

func fromStatus(s portal.ArticleStatus) string {
	switch s {
	case portal.ArticleStatusPublished:
		return "publish"
	case portal.ArticleStatusScheduled:
		return "future"
	default:
		return "draft"
	}
}

func toRole(roles []string) portal.AuthorRole {
	for _, r := range roles {
		switch r {
		case "administrator":
			return portal.AuthorRoleAdmin
		case "editor":
			return portal.AuthorRoleEditor
		case "author":
			return portal.AuthorRoleReporter
		case "contributor":
			return portal.AuthorRoleContributor
		}
	}
	return portal.AuthorRoleReporter
}

func fromRole(r portal.AuthorRole) string {
	switch r {
	case portal.AuthorRoleAdmin:
		return "administrator"
	case portal.AuthorRoleEditor:
		return "editor"
	case portal.AuthorRoleContributor:
		return "contributor"
	default:
		return "author"
	}
}

func toArticle(post wpPost) portal.Article {
	a := portal.Article{
		ID:             formatID(post.ID),
		Title:          post.Title.text(),
		Slug:           DecodeSlug(post.Slug),
		Summary:        post.Excerpt.plain(),
		Body:           post.Content.markup(),
		ImageID:        formatID(post.FeaturedMedia),
		AuthorID:       formatID(post.Author),
		PublishedAt:    ParseDate(post.DateGMT),
		UpdatedAt:      ParseDate(post.ModifiedGMT),
		Status:         toStatus(post.Status),
		IsFeatured:     post.Sticky,
		IsBreaking:     post.Meta.Bool(metaIsBreaking),
		Views:          post.Meta.Int(metaViews),
		Tags:           []string{},
		SEOTitle:       post.Meta.String(metaSEOTitle),
		SEODescription: post.Meta.String(metaSEODescription),
		VideoURL:       post.Meta.String(metaVideoURL),
	}
	if post.Embedded == nil {
		return a
	}
	if len(post.Embedded.FeaturedMedia) > 0 {
		a.ImageURL = post.Embedded.FeaturedMedia[0].SourceURL
	}
	for _, group := range post.Embedded.Terms {
		for _, term := range group {
			switch term.Taxonomy {
			case "category":
				if a.Category == "" {
					a.Category = DecodeSlug(term.Slug)
				}
			case "post_tag":
				a.Tags = append(a.Tags, term.Name)
			}
		}
	}
	return a
}

func toCategory(term wpTerm) portal.Category {
	return portal.Category{
		ID:          formatID(term.ID),
		Slug:        DecodeSlug(term.Slug),
		Name:        portal.LocalizedText{EN: term.Name, HI: term.Meta.String(metaNameHI)},
		Description: term.Description,
		ParentID:    formatID(term.Parent),
		Order:       term.Meta.Int(metaOrder),
	}
}

func toAuthor(u wpUser) portal.Author {
	return portal.Author{
		ID:        formatID(u.ID),
		Name:      portal.LocalizedText{EN: u.Name, HI: u.Meta.String(metaNameHI)},
		Email:     u.Email,
		Role:      toRole(u.Roles),
		AvatarURL: largestAvatar(u.AvatarURLs),
		Bio:       u.Description,
	}
}

// largestAvatar picks the biggest size from avatar_urls, keyed by pixel size
func largestAvatar(urls map[string]string) string {
	if len(urls) == 0 {
		return ""
	}
	sizes := make([]string, 0, len(urls))
	for size := range urls {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		if len(sizes[i]) != len(sizes[j]) {
			return len(sizes[i]) < len(sizes[j])
		}
		return sizes[i] < sizes[j]
	})
	return urls[sizes[len(sizes)-1]]
}

func toMedia(m wpMedia) portal.MediaItem {
	return portal.MediaItem{
		ID:         formatID(m.ID),
		URL:        m.SourceURL,
		Title:      m.Title.text(),
		AltText:    m.AltText,
		MimeType:   m.MimeType,
		Size:       m.MediaDetails.FileSize,
		Width:      m.MediaDetails.Width,
		Height:     m.MediaDetails.Height,
		UploadedAt: ParseDate(m.DateGMT),
		UploadedBy: formatID(m.Author),
	}
}

func toSettings(s wpSettings) portal.SiteSettings {
	links := make(map[string]string, len(s.Portal.SocialLinks))
	for k, v := range s.Portal.SocialLinks {
		links[k] = v
	}
	return portal.SiteSettings{
		SiteName:     portal.LocalizedText{EN: s.Title, HI: s.Portal.SiteNameHI},
		Tagline:      s.Description,
		LogoURL:      s.Portal.LogoURL,
		FaviconURL:   s.Portal.FaviconURL,
		SocialLinks:  links,
		ContactEmail: s.Email,
		ContactPhone: s.Portal.ContactPhone,
		Address:      s.Portal.Address,
	}
}

func fromSettings(s portal.SiteSettings) wpSettings {
	return wpSettings{
		Title:       s.SiteName.EN,
		Description: s.Tagline,
		Email:       s.ContactEmail,
		Portal: portalExtras{
			SiteNameHI:   s.SiteName.HI,
			LogoURL:      s.LogoURL,
			FaviconURL:   s.FaviconURL,
			SocialLinks:  s.SocialLinks,
			ContactPhone: s.ContactPhone,
			Address:      s.Address,
		},
	}
}
