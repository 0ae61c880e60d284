package portal

import (
	"time"
)

// ArticleStatus represents the lifecycle state of an article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusScheduled ArticleStatus = "scheduled"
)

// IsValid reports whether s is one of the known article statuses
func (s ArticleStatus) IsValid() bool {
	switch s {
	case ArticleStatusDraft, ArticleStatusPublished, ArticleStatusScheduled:
		return true
	}
	return false
}

// AuthorRole is the editorial role of an author
type AuthorRole string

const (
	AuthorRoleAdmin       AuthorRole = "admin"
	AuthorRoleEditor      AuthorRole = "editor"
	AuthorRoleReporter    AuthorRole = "reporter"
	AuthorRoleContributor AuthorRole = "contributor"
)

// IsValid reports whether r is one of the known author roles
func (r AuthorRole) IsValid() bool {
	switch r {
	case AuthorRoleAdmin, AuthorRoleEditor, AuthorRoleReporter, AuthorRoleContributor:
		return true
	}
	return false
}

// LocalizedText holds a display string in both site locales
type LocalizedText struct {
	EN string `json:"en"`
	HI string `json:"hi"`
}

// String returns the English value, falling back to Hindi.
func (t LocalizedText) String() string {
	if t.EN != "" {
		return t.EN
	}
	return t.HI
}

// Article is the canonical content item
type Article struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	Summary        string        `json:"summary"`
	Body           string        `json:"body"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	ImageID        string        `json:"imageId,omitempty"`
	Category       string        `json:"category"`
	AuthorID       string        `json:"authorId"`
	PublishedAt    time.Time     `json:"publishedAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Status         ArticleStatus `json:"status"`
	IsFeatured     bool          `json:"isFeatured"`
	IsBreaking     bool          `json:"isBreaking"`
	Views          int           `json:"views"`
	Tags           []string      `json:"tags"`
	SEOTitle       string        `json:"seoTitle,omitempty"`
	SEODescription string        `json:"seoDescription,omitempty"`
	VideoURL       string        `json:"videoUrl,omitempty"`
}

// Category is a node in the category tree
type Category struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Name        LocalizedText `json:"name"`
	Description string        `json:"description,omitempty"`
	ParentID    string        `json:"parentId,omitempty"`
	Order       int           `json:"order"`
}

// Author is a person credited on articles
type Author struct {
	ID        string        `json:"id"`
	Name      LocalizedText `json:"name"`
	Email     string        `json:"email"`
	Role      AuthorRole    `json:"role"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
	Bio       string        `json:"bio,omitempty"`
}

// MediaItem describes an uploaded asset
type MediaItem struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	AltText    string    `json:"altText"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy"`
}

// SiteSettings is the singleton site configuration record
type SiteSettings struct {
	SiteName     LocalizedText     `json:"siteName"`
	Tagline      string            `json:"tagline"`
	LogoURL      string            `json:"logoUrl,omitempty"`
	FaviconURL   string            `json:"faviconUrl,omitempty"`
	SocialLinks  map[string]string `json:"socialLinks"`
	ContactEmail string            `json:"contactEmail"`
	ContactPhone string            `json:"contactPhone"`
	Address      string            `json:"address"`
}

// SortField names an article ordering
type SortField string

const (
	SortByPublishedAt SortField = "publishedAt"
	SortByViews       SortField = "views"
	SortByTitle       SortField = "title"
)

// SortOrder is the direction of an ordering
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultLimit is the page size used when QueryParams.Limit is unset
const DefaultLimit = 10

// QueryParams is the canonical list request understood by every provider
type QueryParams struct {
	Category  string        `json:"category,omitempty"`
	Status    ArticleStatus `json:"status,omitempty"`
	Featured  *bool         `json:"featured,omitempty"`
	Breaking  *bool         `json:"breaking,omitempty"`
	Search    string        `json:"search,omitempty"`
	Author    string        `json:"author,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
	SortBy    SortField     `json:"sortBy,omitempty"`
	SortOrder SortOrder     `json:"sortOrder,omitempty"`
}

// Normalized returns a copy of q with defaults applied
func (q QueryParams) Normalized() QueryParams {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	switch q.SortBy {
	case SortByPublishedAt, SortByViews, SortByTitle:
	default:
		q.SortBy = SortByPublishedAt
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	return q
}

// Bool returns a pointer to b, for optional QueryParams flags
func Bool(b bool) *bool {
	return &b
}

// Page is the paginated response envelope shared by all providers
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}
