package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/tendant/portal-content/pkg/portal"
)

func (p *Provider) ListAuthors(ctx context.Context) ([]portal.Author, error) {
	all := []portal.Author{}
	for page := 1; ; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(MaxPerPage)},
			"page":     {strconv.Itoa(page)},
		}
		if p.editContext {
			query.Set("context", "edit")
		}
		var users []wpUser
		header, err := p.client.Get(ctx, "list authors", APIPrefix+"/users", query, &users)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			all = append(all, toAuthor(u))
		}
		if len(users) < MaxPerPage || page >= totalPagesFromHeader(header) {
			break
		}
	}
	return all, nil
}

func (p *Provider) GetAuthor(ctx context.Context, id string) (*portal.Author, error) {
	var u wpUser
	found, err := p.getOne(ctx, "get author", "users", id, &u)
	if err != nil || !found {
		return nil, err
	}
	a := toAuthor(u)
	return &a, nil
}

// CreateAuthor registers a WordPress user. The login name derives from the
// display name and the password is random; authors sign in through
// WordPress's own reset flow.
func (p *Provider) CreateAuthor(ctx context.Context, author portal.Author) (*portal.Author, error) {
	if err := portal.PrepareAuthor(&author); err != nil {
		return nil, err
	}
	username := portal.Slugify(author.Name.String())
	if username == "" {
		username = "author-" + uuid.NewString()[:8]
	}
	body := map[string]interface{}{
		"username":    username,
		"name":        author.Name.String(),
		"email":       author.Email,
		"password":    uuid.NewString(),
		"description": author.Bio,
		"roles":       []string{fromRole(author.Role)},
		"meta":        map[string]interface{}{metaNameHI: author.Name.HI},
	}

	var u wpUser
	if err := p.write(ctx, "create author", http.MethodPost, APIPrefix+"/users", url.Values{"context": {"edit"}}, body, &u); err != nil {
		return nil, err
	}
	created := toAuthor(u)
	return &created, nil
}

func (p *Provider) UpdateAuthor(ctx context.Context, id string, patch portal.AuthorPatch) (*portal.Author, error) {
	if err := portal.ValidateAuthorPatch(patch); err != nil {
		return nil, err
	}
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update author", id)
	}

	body := map[string]interface{}{}
	if patch.Name != nil {
		body["name"] = patch.Name.String()
		body["meta"] = map[string]interface{}{metaNameHI: patch.Name.HI}
	}
	setIf(body, "email", patch.Email)
	setIf(body, "description", patch.Bio)
	if patch.Role != nil {
		body["roles"] = []string{fromRole(*patch.Role)}
	}
	if patch.AvatarURL != nil {
		p.logger.Debug("avatar is managed by gravatar, ignoring", "provider", Name, "op", "update author")
	}

	var u wpUser
	if err := p.write(ctx, "update author", http.MethodPut, APIPrefix+"/users/"+id, url.Values{"context": {"edit"}}, body, &u); err != nil {
		return nil, err
	}
	updated := toAuthor(u)
	return &updated, nil
}

// DeleteAuthor removes the user without reassigning their posts
func (p *Provider) DeleteAuthor(ctx context.Context, id string) error {
	return p.remove(ctx, "delete author", "users", id, url.Values{"reassign": {"false"}})
}
