package strapi

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/tendant/portal-content/pkg/portal"
)

const categoriesPath = "/api/categories"

func categoryQuery() url.Values {
	return url.Values{"populate": {"parent"}}
}

func (p *Provider) ListCategories(ctx context.Context) ([]portal.Category, error) {
	q := categoryQuery()
	q.Set("sort", "order:asc")
	entries, err := listAll[categoryAttrs](ctx, p, "list categories", categoriesPath, q)
	if err != nil {
		return nil, err
	}
	out := make([]portal.Category, 0, len(entries))
	for _, e := range entries {
		out = append(out, toCategory(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (p *Provider) GetCategory(ctx context.Context, id string) (*portal.Category, error) {
	e, err := getOne[categoryAttrs](ctx, p, "get category", categoriesPath, id, categoryQuery())
	if err != nil || e == nil {
		return nil, err
	}
	c := toCategory(*e)
	return &c, nil
}

func (p *Provider) GetCategoryBySlug(ctx context.Context, slug string) (*portal.Category, error) {
	q := categoryQuery()
	SetFilter(q, slug, "slug", "$eq")
	out, err := list[categoryAttrs](ctx, p, "get category by slug", categoriesPath, q)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	c := toCategory(out.Data[0])
	return &c, nil
}

func (p *Provider) CreateCategory(ctx context.Context, category portal.Category) (*portal.Category, error) {
	if err := portal.PrepareCategory(&category); err != nil {
		return nil, err
	}
	parent, err := relationID("parentId", category.ParentID)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"name":        category.Name.String(),
		"nameHi":      category.Name.HI,
		"slug":        category.Slug,
		"description": category.Description,
		"order":       category.Order,
		"parent":      parent,
	}
	e, err := write[categoryAttrs](ctx, p, "create category", http.MethodPost, categoriesPath, categoryQuery(), data)
	if err != nil {
		return nil, err
	}
	created := toCategory(*e)
	return &created, nil
}

func (p *Provider) UpdateCategory(ctx context.Context, id string, patch portal.CategoryPatch) (*portal.Category, error) {
	if err := portal.ValidateCategoryPatch(id, patch); err != nil {
		return nil, err
	}
	if _, ok := parseID(id); !ok {
		return nil, portal.NotFound(Name, "update category", id)
	}
	data := map[string]interface{}{}
	setIf(data, "slug", patch.Slug)
	setIf(data, "description", patch.Description)
	if patch.Name != nil {
		data["name"] = patch.Name.String()
		data["nameHi"] = patch.Name.HI
	}
	if patch.Order != nil {
		data["order"] = *patch.Order
	}
	if patch.ParentID != nil {
		parent, err := relationID("parentId", *patch.ParentID)
		if err != nil {
			return nil, err
		}
		data["parent"] = parent
	}
	e, err := write[categoryAttrs](ctx, p, "update category", http.MethodPut, categoriesPath+"/"+id, categoryQuery(), data)
	if err != nil {
		return nil, err
	}
	updated := toCategory(*e)
	return &updated, nil
}

func (p *Provider) DeleteCategory(ctx context.Context, id string) error {
	return p.remove(ctx, "delete category", categoriesPath, id)
}
