package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/tendant/portal-content/pkg/portal"
)

// categoryID resolves a category slug to its term id. Hits are cached until
// the next category write.
func (p *Provider) categoryID(ctx context.Context, slug string) (int, bool, error) {
	p.catMu.Lock()
	defer p.catMu.Unlock()

	if id, ok := p.catIDs[slug]; ok {
		return id, true, nil
	}
	var terms []wpTerm
	if _, err := p.client.Get(ctx, "resolve category", APIPrefix+"/categories", url.Values{"slug": {slug}}, &terms); err != nil {
		return 0, false, err
	}
	if len(terms) == 0 {
		return 0, false, nil
	}
	p.catIDs[slug] = terms[0].ID
	return terms[0].ID, true, nil
}

// mutateCategories runs a category write with the slug cache locked and
// clears the cache before releasing it.
func (p *Provider) mutateCategories(fn func() error) error {
	p.catMu.Lock()
	defer p.catMu.Unlock()

	err := fn()
	p.catIDs = make(map[string]int)
	return err
}

// ListCategories pages through every category, ordered by the order meta
func (p *Provider) ListCategories(ctx context.Context) ([]portal.Category, error) {
	var all []portal.Category
	for page := 1; ; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(MaxPerPage)},
			"page":     {strconv.Itoa(page)},
		}
		var terms []wpTerm
		header, err := p.client.Get(ctx, "list categories", APIPrefix+"/categories", query, &terms)
		if err != nil {
			return nil, err
		}
		for _, term := range terms {
			all = append(all, toCategory(term))
		}
		if len(terms) < MaxPerPage || page >= totalPagesFromHeader(header) {
			break
		}
	}
	if all == nil {
		all = []portal.Category{}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Order < all[j].Order })
	return all, nil
}

func (p *Provider) GetCategory(ctx context.Context, id string) (*portal.Category, error) {
	var term wpTerm
	found, err := p.getOne(ctx, "get category", "categories", id, &term)
	if err != nil || !found {
		return nil, err
	}
	c := toCategory(term)
	return &c, nil
}

func (p *Provider) GetCategoryBySlug(ctx context.Context, slug string) (*portal.Category, error) {
	var terms []wpTerm
	if _, err := p.client.Get(ctx, "get category by slug", APIPrefix+"/categories", url.Values{"slug": {slug}}, &terms); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}
	c := toCategory(terms[0])
	return &c, nil
}

func (p *Provider) CreateCategory(ctx context.Context, category portal.Category) (*portal.Category, error) {
	if err := portal.PrepareCategory(&category); err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"name":        category.Name.String(),
		"slug":        category.Slug,
		"description": category.Description,
		"meta": map[string]interface{}{
			metaNameHI: category.Name.HI,
			metaOrder:  category.Order,
		},
	}
	if category.ParentID != "" {
		parent, ok := parseID(category.ParentID)
		if !ok {
			return nil, &portal.ValidationError{Field: "parentId", Reason: "must be a WordPress term id"}
		}
		body["parent"] = parent
	}

	var term wpTerm
	err := p.mutateCategories(func() error {
		return p.write(ctx, "create category", http.MethodPost, APIPrefix+"/categories", nil, body, &term)
	})
	if IsErrorCode(err, CodeTermExists) {
		return nil, conflict("create category", category.Slug, err)
	}
	if err != nil {
		return nil, err
	}
	created := toCategory(term)
	return &created, nil
}

func (p *Provider) UpdateCategory(ctx context.Context, id string, patch portal.CategoryPatch) (*portal.Category, error) {
	if err := portal.ValidateCategoryPatch(id, patch); err != nil {
		return nil, err
	}
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update category", id)
	}

	body := map[string]interface{}{}
	setIf(body, "slug", patch.Slug)
	setIf(body, "description", patch.Description)
	meta := map[string]interface{}{}
	if patch.Name != nil {
		body["name"] = patch.Name.String()
		meta[metaNameHI] = patch.Name.HI
	}
	if patch.Order != nil {
		meta[metaOrder] = *patch.Order
	}
	if len(meta) > 0 {
		body["meta"] = meta
	}
	if patch.ParentID != nil {
		parent := 0
		if *patch.ParentID != "" {
			n, ok := parseID(*patch.ParentID)
			if !ok {
				return nil, &portal.ValidationError{Field: "parentId", Reason: "must be a WordPress term id"}
			}
			parent = n
		}
		body["parent"] = parent
	}

	var term wpTerm
	err := p.mutateCategories(func() error {
		return p.write(ctx, "update category", http.MethodPut, APIPrefix+"/categories/"+id, nil, body, &term)
	})
	if IsErrorCode(err, CodeTermExists) && patch.Slug != nil {
		return nil, conflict("update category", *patch.Slug, err)
	}
	if err != nil {
		return nil, err
	}
	updated := toCategory(term)
	return &updated, nil
}

// DeleteCategory removes the term. WordPress moves its children up a level.
func (p *Provider) DeleteCategory(ctx context.Context, id string) error {
	return p.mutateCategories(func() error {
		return p.remove(ctx, "delete category", "categories", id, nil)
	})
}
