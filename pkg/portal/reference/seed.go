package reference

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/tendant/portal-content/pkg/portal"
)

//go:embed seed/*.json
var seedFiles embed.FS

// Seed is the sample content written into an empty store
type Seed struct {
	Articles   []portal.Article
	Categories []portal.Category
	Authors    []portal.Author
	Media      []portal.MediaItem
	Settings   portal.SiteSettings
}

// DefaultSeed decodes the bundled sample content
func DefaultSeed() (*Seed, error) {
	var s Seed
	files := []struct {
		name string
		dst  interface{}
	}{
		{"seed/articles.json", &s.Articles},
		{"seed/categories.json", &s.Categories},
		{"seed/authors.json", &s.Authors},
		{"seed/media.json", &s.Media},
		{"seed/settings.json", &s.Settings},
	}
	for _, f := range files {
		data, err := seedFiles.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	return &s, nil
}
