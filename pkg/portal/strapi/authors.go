package strapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tendant/portal-content/pkg/portal"
)

const authorsPath = "/api/authors"

func authorQuery() url.Values {
	return url.Values{"populate": {"avatar"}}
}

func (p *Provider) ListAuthors(ctx context.Context) ([]portal.Author, error) {
	entries, err := listAll[authorAttrs](ctx, p, "list authors", authorsPath, authorQuery())
	if err != nil {
		return nil, err
	}
	out := make([]portal.Author, 0, len(entries))
	for _, e := range entries {
		out = append(out, p.toAuthor(e))
	}
	return out, nil
}

func (p *Provider) GetAuthor(ctx context.Context, id string) (*portal.Author, error) {
	e, err := getOne[authorAttrs](ctx, p, "get author", authorsPath, id, authorQuery())
	if err != nil || e == nil {
		return nil, err
	}
	a := p.toAuthor(*e)
	return &a, nil
}

// CreateAuthor writes the author entry. Avatars are media relations, so
// AvatarURL is not written.
func (p *Provider) CreateAuthor(ctx context.Context, author portal.Author) (*portal.Author, error) {
	if err := portal.PrepareAuthor(&author); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"name":   author.Name.String(),
		"nameHi": author.Name.HI,
		"email":  author.Email,
		"role":   string(author.Role),
		"bio":    author.Bio,
	}
	e, err := write[authorAttrs](ctx, p, "create author", http.MethodPost, authorsPath, authorQuery(), data)
	if err != nil {
		return nil, err
	}
	created := p.toAuthor(*e)
	return &created, nil
}

func (p *Provider) UpdateAuthor(ctx context.Context, id string, patch portal.AuthorPatch) (*portal.Author, error) {
	if err := portal.ValidateAuthorPatch(patch); err != nil {
		return nil, err
	}
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update author", id)
	}
	data := map[string]interface{}{}
	if patch.Name != nil {
		data["name"] = patch.Name.String()
		data["nameHi"] = patch.Name.HI
	}
	setIf(data, "email", patch.Email)
	setIf(data, "bio", patch.Bio)
	if patch.Role != nil {
		data["role"] = string(*patch.Role)
	}
	e, err := write[authorAttrs](ctx, p, "update author", http.MethodPut, authorsPath+"/"+id, authorQuery(), data)
	if err != nil {
		return nil, err
	}
	updated := p.toAuthor(*e)
	return &updated, nil
}

func (p *Provider) DeleteAuthor(ctx context.Context, id string) error {
	return p.remove(ctx, "delete author", authorsPath, id)
}
