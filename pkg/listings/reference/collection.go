package reference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
)

// collection stores one listing kind as a JSON array under key
type collection[T any, PT listings.Record[T]] struct {
	p    *Provider
	kind listings.Kind
	key  string
	seed func(*Seed) []T
}

var _ listings.Collection[listings.Exam] = (*collection[listings.Exam, *listings.Exam])(nil)

func newCollection[T any, PT listings.Record[T]](p *Provider, kind listings.Kind, key string, seed func(*Seed) []T) *collection[T, PT] {
	return &collection[T, PT]{p: p, kind: kind, key: key, seed: seed}
}

func (c *collection[T, PT]) op(verb string) string {
	return verb + " " + string(c.kind)
}

// load reads the collection, seeding it when the key is absent. Callers hold p.mu.
func (c *collection[T, PT]) load(ctx context.Context) ([]T, error) {
	data, err := c.p.store.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		initial := []T{}
		if c.p.seed != nil {
			initial = append(initial, c.seed(c.p.seed)...)
		}
		if err := c.save(ctx, initial); err != nil {
			return nil, err
		}
		return initial, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("corrupt %s collection: %w", c.key, err)
	}
	return items, nil
}

func (c *collection[T, PT]) save(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.p.store.Put(ctx, c.key, data)
}

// List returns the items matching q in stored order, newest first
func (c *collection[T, PT]) List(ctx context.Context, q listings.Query) (*portal.Page[T], error) {
	q = q.Normalized()

	c.p.mu.Lock()
	all, err := c.load(ctx)
	c.p.mu.Unlock()
	if err != nil {
		return nil, c.p.fail(c.op("list"), err)
	}

	matched := make([]T, 0, len(all))
	for i := range all {
		if q.Match(PT(&all[i]).Common()) {
			matched = append(matched, all[i])
		}
	}
	return portal.Paginate(matched, q.Limit, q.Offset), nil
}

func (c *collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	return c.find(ctx, c.op("get"), func(b *listings.Base) bool { return b.ID == id })
}

func (c *collection[T, PT]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	return c.find(ctx, c.op("get by slug"), func(b *listings.Base) bool { return b.Slug == slug })
}

func (c *collection[T, PT]) find(ctx context.Context, op string, match func(*listings.Base) bool) (*T, error) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return nil, c.p.fail(op, err)
	}
	for i := range all {
		if match(PT(&all[i]).Common()) {
			found := all[i]
			return &found, nil
		}
	}
	return nil, nil
}

// Create assigns an id and timestamps and inserts item at the front
func (c *collection[T, PT]) Create(ctx context.Context, item T) (*T, error) {
	op := c.op("create")
	base := PT(&item).Common()
	if err := listings.Prepare(base); err != nil {
		return nil, err
	}

	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return nil, c.p.fail(op, err)
	}
	if c.slugTaken(all, "", base.Slug) {
		return nil, conflict(op, base.Slug)
	}

	now := c.p.now()
	base.ID = c.p.newID()
	base.CreatedAt = now
	base.UpdatedAt = now
	if base.Images == nil {
		base.Images = []string{}
	}

	all = append([]T{item}, all...)
	if err := c.save(ctx, all); err != nil {
		return nil, c.p.fail(op, err)
	}
	return &item, nil
}

// Update applies fn to the stored item and refreshes UpdatedAt
func (c *collection[T, PT]) Update(ctx context.Context, id string, fn func(*T)) (*T, error) {
	op := c.op("update")

	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return nil, c.p.fail(op, err)
	}
	idx := -1
	for i := range all {
		if PT(&all[i]).Common().ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, portal.NotFound(Name, op, id)
	}

	updated := all[idx]
	fn(&updated)
	base := PT(&updated).Common()
	base.ID = id
	base.CreatedAt = PT(&all[idx]).Common().CreatedAt
	if base.Title.EN == "" && base.Title.HI == "" {
		return nil, &portal.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := listings.CheckSlug(base.Slug); err != nil {
		return nil, err
	}
	if c.slugTaken(all, id, base.Slug) {
		return nil, conflict(op, base.Slug)
	}
	base.UpdatedAt = c.p.now()

	all[idx] = updated
	if err := c.save(ctx, all); err != nil {
		return nil, c.p.fail(op, err)
	}
	return &updated, nil
}

// Delete removes the item; a missing id is not an error
func (c *collection[T, PT]) Delete(ctx context.Context, id string) error {
	op := c.op("delete")

	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	all, err := c.load(ctx)
	if err != nil {
		return c.p.fail(op, err)
	}
	kept := all[:0]
	removed := false
	for i := range all {
		if PT(&all[i]).Common().ID == id {
			removed = true
			continue
		}
		kept = append(kept, all[i])
	}
	if !removed {
		return nil
	}
	if err := c.save(ctx, kept); err != nil {
		return c.p.fail(op, err)
	}
	return nil
}

func (c *collection[T, PT]) slugTaken(all []T, exceptID, slug string) bool {
	for i := range all {
		b := PT(&all[i]).Common()
		if b.ID != exceptID && b.Slug == slug {
			return true
		}
	}
	return false
}

func conflict(op, slug string) error {
	return &portal.ProviderError{
		Provider: Name,
		Op:       op,
		Err:      fmt.Errorf("%w: %s", portal.ErrSlugConflict, slug),
	}
}
