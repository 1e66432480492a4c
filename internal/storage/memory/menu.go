// Package memory provides catalog storage held entirely in process memory.
package memory

import (
	"context"
	"slices"

	"github.com/xenking/bistro-kart/internal/domain/menu"
)

var _ menu.Catalog = (*MenuRepository)(nil)

// MenuRepository serves an immutable catalog snapshot. Reads return copies,
// so callers can never mutate the shared data.
type MenuRepository struct {
	categories []menu.Category
	byID       map[string]menu.Entry
}

// NewMenuRepository validates the categories and indexes their entries.
func NewMenuRepository(categories []menu.Category) (*MenuRepository, error) {
	if err := menu.Validate(categories); err != nil {
		return nil, err
	}
	r := &MenuRepository{
		categories: cloneCategories(categories),
		byID:       make(map[string]menu.Entry),
	}
	for _, c := range r.categories {
		for _, e := range c.Entries {
			r.byID[e.ID] = e
		}
	}
	return r, nil
}

// NewMenuRepositoryFromJSON decodes a catalog document (see menu.Decode).
func NewMenuRepositoryFromJSON(data []byte) (*MenuRepository, error) {
	categories, err := menu.Decode(data)
	if err != nil {
		return nil, err
	}
	return NewMenuRepository(categories)
}

// Categories returns the catalog in source order.
func (r *MenuRepository) Categories(_ context.Context) ([]menu.Category, error) {
	return cloneCategories(r.categories), nil
}

// Entry returns the entry with the given ID or menu.ErrNotFound.
func (r *MenuRepository) Entry(_ context.Context, id string) (*menu.Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	e.Extras = slices.Clone(e.Extras)
	return &e, nil
}

// Len returns the number of entries in the catalog.
func (r *MenuRepository) Len() int {
	return len(r.byID)
}

func cloneCategories(in []menu.Category) []menu.Category {
	out := make([]menu.Category, len(in))
	for i, c := range in {
		entries := make([]menu.Entry, len(c.Entries))
		for j, e := range c.Entries {
			e.Extras = slices.Clone(e.Extras)
			entries[j] = e
		}
		c.Entries = entries
		out[i] = c
	}
	return out
}
