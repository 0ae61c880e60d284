package portal

import (
	"context"
)

// Store is the persistence engine behind the reference provider. Values are
// whole JSON documents; every call reads or writes one key wholesale.
type Store interface {
	// Get returns the value stored under key, or nil with no error if absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

// ArticleProvider covers article access.
//
// Get* methods return (nil, nil) when nothing matches; an error always means
// the backend could not answer.
type ArticleProvider interface {
	ListArticles(ctx context.Context, params QueryParams) (*Page[Article], error)
	GetArticle(ctx context.Context, id string) (*Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*Article, error)
	CreateArticle(ctx context.Context, article Article) (*Article, error)
	UpdateArticle(ctx context.Context, id string, patch ArticlePatch) (*Article, error)
	DeleteArticle(ctx context.Context, id string) error

	GetFeaturedArticles(ctx context.Context, limit int) ([]Article, error)
	GetBreakingArticles(ctx context.Context, limit int) ([]Article, error)
	GetTrendingArticles(ctx context.Context, limit int) ([]Article, error)
	GetArticlesByCategory(ctx context.Context, categorySlug string, params QueryParams) (*Page[Article], error)
	SearchArticles(ctx context.Context, query string, params QueryParams) (*Page[Article], error)
}

// CategoryProvider covers the category tree
type CategoryProvider interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	CreateCategory(ctx context.Context, category Category) (*Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// AuthorProvider covers authors
type AuthorProvider interface {
	ListAuthors(ctx context.Context) ([]Author, error)
	GetAuthor(ctx context.Context, id string) (*Author, error)
	CreateAuthor(ctx context.Context, author Author) (*Author, error)
	UpdateAuthor(ctx context.Context, id string, patch AuthorPatch) (*Author, error)
	DeleteAuthor(ctx context.Context, id string) error
}

// MediaProvider covers the media library
type MediaProvider interface {
	ListMedia(ctx context.Context, limit, offset int) (*Page[MediaItem], error)
	GetMedia(ctx context.Context, id string) (*MediaItem, error)
	CreateMedia(ctx context.Context, upload MediaUpload) (*MediaItem, error)
	UpdateMedia(ctx context.Context, id string, patch MediaPatch) (*MediaItem, error)
	DeleteMedia(ctx context.Context, id string) error
}

// SettingsProvider covers the singleton site settings
type SettingsProvider interface {
	GetSettings(ctx context.Context) (*SiteSettings, error)
	UpdateSettings(ctx context.Context, patch SettingsPatch) (*SiteSettings, error)
}

// Provider is the contract every content backend implements
type Provider interface {
	ArticleProvider
	CategoryProvider
	AuthorProvider
	MediaProvider
	SettingsProvider

	// Name returns the provider kind, e.g. "reference"
	Name() string

	// TestConnection verifies the backend is reachable with the current credentials
	TestConnection(ctx context.Context) error
}

// ArticleLister is the single primitive the convenience queries build on
type ArticleLister interface {
	ListArticles(ctx context.Context, params QueryParams) (*Page[Article], error)
}
