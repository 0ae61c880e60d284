package reference

import (
	"context"

	"github.com/tendant/portal-content/pkg/portal"
)

func (p *Provider) authors(ctx context.Context) ([]portal.Author, error) {
	return loadList(ctx, p, KeyAuthors, func(s *Seed) []portal.Author { return s.Authors })
}

func (p *Provider) ListAuthors(ctx context.Context) ([]portal.Author, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.authors(ctx)
	if err != nil {
		return nil, p.fail("list authors", err)
	}
	return all, nil
}

func (p *Provider) GetAuthor(ctx context.Context, id string) (*portal.Author, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.authors(ctx)
	if err != nil {
		return nil, p.fail("get author", err)
	}
	for _, a := range all {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (p *Provider) CreateAuthor(ctx context.Context, author portal.Author) (*portal.Author, error) {
	if err := portal.PrepareAuthor(&author); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.authors(ctx)
	if err != nil {
		return nil, p.fail("create author", err)
	}
	author.ID = p.newID()
	all = append(all, author)
	if err := saveList(ctx, p, KeyAuthors, all); err != nil {
		return nil, p.fail("create author", err)
	}
	return &author, nil
}

func (p *Provider) UpdateAuthor(ctx context.Context, id string, patch portal.AuthorPatch) (*portal.Author, error) {
	if err := portal.ValidateAuthorPatch(patch); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.authors(ctx)
	if err != nil {
		return nil, p.fail("update author", err)
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		patch.Apply(&all[i])
		updated := all[i]
		if err := saveList(ctx, p, KeyAuthors, all); err != nil {
			return nil, p.fail("update author", err)
		}
		return &updated, nil
	}
	return nil, portal.NotFound(Name, "update author", id)
}

// DeleteAuthor removes the author; a missing id is a no-op
func (p *Provider) DeleteAuthor(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.authors(ctx)
	if err != nil {
		return p.fail("delete author", err)
	}
	kept := all[:0]
	for _, a := range all {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if err := saveList(ctx, p, KeyAuthors, kept); err != nil {
		return p.fail("delete author", err)
	}
	return nil
}
