package portal

import "time"

// ArticlePatch is a partial article update; nil fields are left untouched
type ArticlePatch struct {
	Title          *string        `json:"title,omitempty"`
	Slug           *string        `json:"slug,omitempty"`
	Summary        *string        `json:"summary,omitempty"`
	Body           *string        `json:"body,omitempty"`
	ImageURL       *string        `json:"imageUrl,omitempty"`
	ImageID        *string        `json:"imageId,omitempty"`
	Category       *string        `json:"category,omitempty"`
	AuthorID       *string        `json:"authorId,omitempty"`
	PublishedAt    *time.Time     `json:"publishedAt,omitempty"`
	Status         *ArticleStatus `json:"status,omitempty"`
	IsFeatured     *bool          `json:"isFeatured,omitempty"`
	IsBreaking     *bool          `json:"isBreaking,omitempty"`
	Views          *int           `json:"views,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	SEOTitle       *string        `json:"seoTitle,omitempty"`
	SEODescription *string        `json:"seoDescription,omitempty"`
	VideoURL       *string        `json:"videoUrl,omitempty"`
}

// Apply merges the patch into a
func (p ArticlePatch) Apply(a *Article) {
	setString(&a.Title, p.Title)
	setString(&a.Slug, p.Slug)
	setString(&a.Summary, p.Summary)
	setString(&a.Body, p.Body)
	setString(&a.ImageURL, p.ImageURL)
	setString(&a.ImageID, p.ImageID)
	setString(&a.Category, p.Category)
	setString(&a.AuthorID, p.AuthorID)
	if p.PublishedAt != nil {
		a.PublishedAt = *p.PublishedAt
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.IsFeatured != nil {
		a.IsFeatured = *p.IsFeatured
	}
	if p.IsBreaking != nil {
		a.IsBreaking = *p.IsBreaking
	}
	if p.Views != nil {
		a.Views = *p.Views
	}
	if p.Tags != nil {
		a.Tags = append([]string(nil), p.Tags...)
	}
	setString(&a.SEOTitle, p.SEOTitle)
	setString(&a.SEODescription, p.SEODescription)
	setString(&a.VideoURL, p.VideoURL)
}

// CategoryPatch is a partial category update
type CategoryPatch struct {
	Slug        *string        `json:"slug,omitempty"`
	Name        *LocalizedText `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	ParentID    *string        `json:"parentId,omitempty"`
	Order       *int           `json:"order,omitempty"`
}

// Apply merges the patch into c
func (p CategoryPatch) Apply(c *Category) {
	setString(&c.Slug, p.Slug)
	if p.Name != nil {
		c.Name = *p.Name
	}
	setString(&c.Description, p.Description)
	setString(&c.ParentID, p.ParentID)
	if p.Order != nil {
		c.Order = *p.Order
	}
}

// AuthorPatch is a partial author update
type AuthorPatch struct {
	Name      *LocalizedText `json:"name,omitempty"`
	Email     *string        `json:"email,omitempty"`
	Role      *AuthorRole    `json:"role,omitempty"`
	AvatarURL *string        `json:"avatarUrl,omitempty"`
	Bio       *string        `json:"bio,omitempty"`
}

// Apply merges the patch into a
func (p AuthorPatch) Apply(a *Author) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	setString(&a.Email, p.Email)
	if p.Role != nil {
		a.Role = *p.Role
	}
	setString(&a.AvatarURL, p.AvatarURL)
	setString(&a.Bio, p.Bio)
}

// MediaUpload is the create request for a media item. Data carries the file
// body for backends that store the bytes themselves.
type MediaUpload struct {
	MediaItem
	FileName string `json:"fileName,omitempty"`
	Data     []byte `json:"-"`
}

// MediaPatch is a partial media metadata update
type MediaPatch struct {
	Title   *string `json:"title,omitempty"`
	AltText *string `json:"altText,omitempty"`
}

// Apply merges the patch into m
func (p MediaPatch) Apply(m *MediaItem) {
	setString(&m.Title, p.Title)
	setString(&m.AltText, p.AltText)
}

// SettingsPatch is a partial settings update
type SettingsPatch struct {
	SiteName     *LocalizedText    `json:"siteName,omitempty"`
	Tagline      *string           `json:"tagline,omitempty"`
	LogoURL      *string           `json:"logoUrl,omitempty"`
	FaviconURL   *string           `json:"faviconUrl,omitempty"`
	SocialLinks  map[string]string `json:"socialLinks,omitempty"`
	ContactEmail *string           `json:"contactEmail,omitempty"`
	ContactPhone *string           `json:"contactPhone,omitempty"`
	Address      *string           `json:"address,omitempty"`
}

// Apply merges the patch into s. Social links are merged key by key; an
// empty URL removes the platform.
func (p SettingsPatch) Apply(s *SiteSettings) {
	if p.SiteName != nil {
		s.SiteName = *p.SiteName
	}
	setString(&s.Tagline, p.Tagline)
	setString(&s.LogoURL, p.LogoURL)
	setString(&s.FaviconURL, p.FaviconURL)
	if len(p.SocialLinks) > 0 {
		if s.SocialLinks == nil {
			s.SocialLinks = make(map[string]string, len(p.SocialLinks))
		}
		for platform, url := range p.SocialLinks {
			if url == "" {
				delete(s.SocialLinks, platform)
				continue
			}
			s.SocialLinks[platform] = url
		}
	}
	setString(&s.ContactEmail, p.ContactEmail)
	setString(&s.ContactPhone, p.ContactPhone)
	setString(&s.Address, p.Address)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
