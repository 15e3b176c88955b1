// Package catalog holds the static, read-only set of recommendable items.
package catalog

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/scout/internal/domain"
)

// Item is a single recommendable travel experience.
type Item struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Location    string   `json:"location,omitempty" yaml:"location"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Price       float64  `json:"price" yaml:"price"`
	Tags        []string `json:"tags" yaml:"tags"`
}

// Index is the authoritative item list plus everything derived from it.
// Built once, never mutated; safe for concurrent reads.
type Index struct {
	items []Item
	ids   map[int64]struct{}
	vocab Vocabulary
}

// New validates items and derives the id set and tag vocabulary.
func New(items []Item) (*Index, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", domain.ErrInvalidCatalog)
	}

	owned := make([]Item, len(items))
	ids := make(map[int64]struct{}, len(items))
	tags := make(map[string]struct{})

	for i, it := range items {
		if _, dup := ids[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrInvalidCatalog, it.ID)
		}
		if math.IsNaN(it.Price) || math.IsInf(it.Price, 0) || it.Price < 0 {
			return nil, fmt.Errorf("%w: item %d has invalid price %v", domain.ErrInvalidCatalog, it.ID, it.Price)
		}

		itemTags, err := normalizeTags(it.ID, it.Tags)
		if err != nil {
			return nil, err
		}
		for _, t := range itemTags {
			tags[t] = struct{}{}
		}

		it.Tags = itemTags
		owned[i] = it
		ids[it.ID] = struct{}{}
	}

	return &Index{items: owned, ids: ids, vocab: newVocabulary(tags)}, nil
}

// normalizeTags drops duplicate tags while keeping first-seen order.
func normalizeTags(id int64, in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		if t == "" {
			return nil, fmt.Errorf("%w: item %d has an empty tag", domain.ErrInvalidCatalog, id)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Items returns a copy of the catalog in load order.
func (x *Index) Items() []Item {
	out := make([]Item, len(x.items))
	for i, it := range x.items {
		it.Tags = append([]string(nil), it.Tags...)
		out[i] = it
	}
	return out
}

// Len returns the number of items.
func (x *Index) Len() int { return len(x.items) }

// First returns the first item in load order.
func (x *Index) First() Item { return x.items[0] }

// Contains reports whether id belongs to a catalog item.
func (x *Index) Contains(id int64) bool {
	_, ok := x.ids[id]
	return ok
}

// Vocabulary returns the allowed tag vocabulary.
func (x *Index) Vocabulary() Vocabulary { return x.vocab }

// Vocabulary is the set of every tag used by at least one item.
type Vocabulary struct {
	sorted []string
	set    map[string]struct{}
}

func newVocabulary(tags map[string]struct{}) Vocabulary {
	sorted := make([]string, 0, len(tags))
	for t := range tags {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	return Vocabulary{sorted: sorted, set: tags}
}

// NewVocabulary builds a vocabulary from an explicit tag list.
func NewVocabulary(tags ...string) Vocabulary {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return newVocabulary(set)
}

// Has reports whether tag is allowed.
func (v Vocabulary) Has(tag string) bool {
	_, ok := v.set[tag]
	return ok
}

// Tags returns the vocabulary sorted alphabetically.
func (v Vocabulary) Tags() []string {
	return append([]string(nil), v.sorted...)
}

// Len returns the number of distinct tags.
func (v Vocabulary) Len() int { return len(v.sorted) }
