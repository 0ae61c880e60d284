package reference

import (
	"context"
	"sort"

	"github.com/tendant/portal-content/pkg/portal"
)

func (p *Provider) categories(ctx context.Context) ([]portal.Category, error) {
	return loadList(ctx, p, KeyCategories, func(s *Seed) []portal.Category { return s.Categories })
}

// ListCategories returns categories ordered by their ordering hint
func (p *Provider) ListCategories(ctx context.Context) ([]portal.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.categories(ctx)
	if err != nil {
		return nil, p.fail("list categories", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Order < all[j].Order })
	return all, nil
}

func (p *Provider) GetCategory(ctx context.Context, id string) (*portal.Category, error) {
	return p.findCategory(ctx, "get category", func(c portal.Category) bool { return c.ID == id })
}

func (p *Provider) GetCategoryBySlug(ctx context.Context, slug string) (*portal.Category, error) {
	return p.findCategory(ctx, "get category by slug", func(c portal.Category) bool { return c.Slug == slug })
}

func (p *Provider) findCategory(ctx context.Context, op string, match func(portal.Category) bool) (*portal.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.categories(ctx)
	if err != nil {
		return nil, p.fail(op, err)
	}
	for _, c := range all {
		if match(c) {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (p *Provider) CreateCategory(ctx context.Context, category portal.Category) (*portal.Category, error) {
	if err := portal.PrepareCategory(&category); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.categories(ctx)
	if err != nil {
		return nil, p.fail("create category", err)
	}
	if err := checkParent(all, "", category.ParentID); err != nil {
		return nil, err
	}
	for _, existing := range all {
		if existing.Slug == category.Slug {
			return nil, conflict("create category", category.Slug)
		}
	}

	category.ID = p.newID()
	all = append(all, category)
	if err := saveList(ctx, p, KeyCategories, all); err != nil {
		return nil, p.fail("create category", err)
	}
	return &category, nil
}

func (p *Provider) UpdateCategory(ctx context.Context, id string, patch portal.CategoryPatch) (*portal.Category, error) {
	if err := portal.ValidateCategoryPatch(id, patch); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.categories(ctx)
	if err != nil {
		return nil, p.fail("update category", err)
	}
	idx := -1
	for i, c := range all {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, portal.NotFound(Name, "update category", id)
	}
	if patch.ParentID != nil {
		if err := checkParent(all, id, *patch.ParentID); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		for _, other := range all {
			if other.ID != id && other.Slug == *patch.Slug {
				return nil, conflict("update category", *patch.Slug)
			}
		}
	}

	updated := all[idx]
	patch.Apply(&updated)
	all[idx] = updated
	if err := saveList(ctx, p, KeyCategories, all); err != nil {
		return nil, p.fail("update category", err)
	}
	return &updated, nil
}

// DeleteCategory removes the category and moves its children up one level.
// A missing id is a no-op.
func (p *Provider) DeleteCategory(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	all, err := p.categories(ctx)
	if err != nil {
		return p.fail("delete category", err)
	}
	parentOfDeleted := ""
	for _, c := range all {
		if c.ID == id {
			parentOfDeleted = c.ParentID
		}
	}
	kept := all[:0]
	for _, c := range all {
		if c.ID == id {
			continue
		}
		if c.ParentID == id {
			c.ParentID = parentOfDeleted
		}
		kept = append(kept, c)
	}
	if err := saveList(ctx, p, KeyCategories, kept); err != nil {
		return p.fail("delete category", err)
	}
	return nil
}

func checkParent(all []portal.Category, id, parentID string) error {
	if parentID == "" {
		return nil
	}
	found := false
	for _, c := range all {
		if c.ID == parentID {
			found = true
			break
		}
	}
	if !found {
		return &portal.ValidationError{Field: "parentId", Reason: "parent category does not exist"}
	}
	if id != "" && portal.CreatesCycle(all, id, parentID) {
		return &portal.ValidationError{Field: "parentId", Reason: "would create a cycle"}
	}
	return nil
}
