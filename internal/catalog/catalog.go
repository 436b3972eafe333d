// Package catalog holds the exercise catalog data model, the form
// validation/normalization pass and the merge engine that produces the
// next document state for a submission.
package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Document is the persisted catalog: an ordered sequence of groups,
// sorted by group name. This exact JSON shape is the contract the
// downstream app reads, do not change field names.
type Document []Group

type Group struct {
	Group string     `json:"group"`
	Items []Exercise `json:"items"`
}

type Exercise struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Variations []Variation `json:"variations,omitempty"`
}

type Variation struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	IsUnilateral  bool           `json:"isUnilateral"`
	SubVariations []SubVariation `json:"subVariations,omitempty"`
}

type SubVariation struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	IsUnilateral   bool            `json:"isUnilateral"`
	ExecutionTypes []ExecutionType `json:"executionTypes,omitempty"`
}

// ExecutionType is the fourth and deepest level of the tree.
type ExecutionType struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"imageUrl,omitempty"`
	IsUnilateral bool   `json:"isUnilateral"`
}

// NewCollator returns the collator used for all name ordering and
// case-insensitive group matching. Collators carry internal buffers,
// so callers create one per operation instead of sharing.
func NewCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag, collate.IgnoreCase)
}

// ParseLocale maps a configured locale string to a language tag,
// falling back to English when it is empty or malformed.
func ParseLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Sort puts the document in canonical order: groups by name, then each
// group's items by exercise name, both case-insensitive.
func (d Document) Sort(c *collate.Collator) {
	for i := range d {
		items := d[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			return c.CompareString(items[a].Name, items[b].Name) < 0
		})
	}
	sort.SliceStable(d, func(a, b int) bool {
		return c.CompareString(d[a].Group, d[b].Group) < 0
	})
}

// CollectIDs adds every identifier in the document, at all four
// levels, to the given set.
func (d Document) CollectIDs(into map[string]struct{}) {
	for _, g := range d {
		for _, e := range g.Items {
			e.CollectIDs(into)
		}
	}
}

// CollectIDs adds the exercise id and every nested id to the set.
func (e Exercise) CollectIDs(into map[string]struct{}) {
	into[e.ID] = struct{}{}
	for _, v := range e.Variations {
		into[v.ID] = struct{}{}
		for _, sv := range v.SubVariations {
			into[sv.ID] = struct{}{}
			for _, et := range sv.ExecutionTypes {
				into[et.ID] = struct{}{}
			}
		}
	}
}

// FindExercise locates a top-level exercise by id across all groups,
// returning group and item indexes, or ok=false when absent.
func (d Document) FindExercise(id string) (gi, ii int, ok bool) {
	for gi, g := range d {
		for ii, e := range g.Items {
			if e.ID == id {
				return gi, ii, true
			}
		}
	}
	return 0, 0, false
}
