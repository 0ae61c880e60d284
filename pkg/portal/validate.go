package portal

import (
	"strings"
)

// PrepareArticle validates a new article and fills derivable defaults: the
// slug from the title and the draft status.
func PrepareArticle(a *Article) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	if err := checkSlug(a.Slug); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = ArticleStatusDraft
	}
	if !a.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: "must be draft, published or scheduled"}
	}
	if a.Views < 0 {
		return &ValidationError{Field: "views", Reason: "must not be negative"}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return nil
}

// ValidateArticlePatch rejects patches that would leave an article invalid
func ValidateArticlePatch(p ArticlePatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Slug != nil {
		if err := checkSlug(*p.Slug); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: "must be draft, published or scheduled"}
	}
	if p.Views != nil && *p.Views < 0 {
		return &ValidationError{Field: "views", Reason: "must not be negative"}
	}
	return nil
}

// PrepareCategory validates a new category, deriving the slug from the name
func PrepareCategory(c *Category) error {
	if c.Name.EN == "" && c.Name.HI == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name.String())
	}
	if err := checkSlug(c.Slug); err != nil {
		return err
	}
	if c.ID != "" && c.ParentID == c.ID {
		return &ValidationError{Field: "parentId", Reason: "category cannot be its own parent"}
	}
	return nil
}

// ValidateCategoryPatch rejects patches that would leave a category invalid
func ValidateCategoryPatch(id string, p CategoryPatch) error {
	if p.Slug != nil {
		if err := checkSlug(*p.Slug); err != nil {
			return err
		}
	}
	if p.Name != nil && p.Name.EN == "" && p.Name.HI == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.ParentID != nil && *p.ParentID == id {
		return &ValidationError{Field: "parentId", Reason: "category cannot be its own parent"}
	}
	return nil
}

// CreatesCycle reports whether making parentID the parent of id would close a
// loop in the category tree.
func CreatesCycle(categories []Category, id, parentID string) bool {
	parents := make(map[string]string, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}
	seen := map[string]bool{}
	for cur := parentID; cur != ""; cur = parents[cur] {
		if cur == id || seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

// PrepareAuthor validates a new author and defaults the role to reporter
func PrepareAuthor(a *Author) error {
	if a.Name.EN == "" && a.Name.HI == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if err := checkEmail(a.Email); err != nil {
		return err
	}
	if a.Role == "" {
		a.Role = AuthorRoleReporter
	}
	if !a.Role.IsValid() {
		return &ValidationError{Field: "role", Reason: "must be admin, editor, reporter or contributor"}
	}
	return nil
}

// ValidateAuthorPatch rejects patches that would leave an author invalid
func ValidateAuthorPatch(p AuthorPatch) error {
	if p.Name != nil && p.Name.EN == "" && p.Name.HI == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Email != nil {
		if err := checkEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.Role != nil && !p.Role.IsValid() {
		return &ValidationError{Field: "role", Reason: "must be admin, editor, reporter or contributor"}
	}
	return nil
}

// PrepareMedia validates a media upload
func PrepareMedia(m *MediaUpload) error {
	if m.URL == "" && len(m.Data) == 0 {
		return &ValidationError{Field: "url", Reason: "either a url or file data is required"}
	}
	if m.Size < 0 {
		return &ValidationError{Field: "size", Reason: "must not be negative"}
	}
	if m.Size == 0 && len(m.Data) > 0 {
		m.Size = int64(len(m.Data))
	}
	if m.MimeType == "" {
		m.MimeType = "application/octet-stream"
	}
	return nil
}

func checkSlug(slug string) error {
	if slug == "" {
		return &ValidationError{Field: "slug", Reason: "is required"}
	}
	if slug != Slugify(slug) {
		return &ValidationError{Field: "slug", Reason: "must be lowercase words joined by hyphens"}
	}
	return nil
}

func checkEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return &ValidationError{Field: "email", Reason: "must be a valid address"}
	}
	return nil
}
