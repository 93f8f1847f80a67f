// internal/catalog/catalog.go
package catalog

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/viewlens/api/schemas"
)

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortNone       SortKey = ""
	SortName       SortKey = "name"
	SortType       SortKey = "type"
	SortImportance SortKey = "importance"
	SortPosition   SortKey = "position"
)

// ParseSortKey accepts the user facing names of the sort keys. "none" and the
// empty string both mean document order.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortName, SortType, SortImportance, SortPosition:
		return k, true
	case "none":
		return SortNone, true
	default:
		return SortNone, false
	}
}

// Query describes one filtered, sorted and paginated view of the catalog.
type Query struct {
	Search        string
	Category      schemas.Category
	OnlyClickable bool
	// FullyHidden removes hidden elements outright instead of keeping them
	// de-emphasized.
	FullyHidden bool
	SortBy      SortKey
	Descending  bool
	Offset      int
	// Limit of zero or less means no limit.
	Limit int
}

// HiddenSet reports whether an element id is currently hidden. A nil set
// hides nothing.
type HiddenSet func(id string) bool

// Page is one slice of the filtered view.
type Page struct {
	Items []schemas.Element `json:"items"`
	// Total counts every match before pagination.
	Total int `json:"total"`
}

// Catalog is the immutable element set of one parse pass.
type Catalog struct {
	elements []schemas.Element
	byID     map[string]int
}

// New builds a catalog from the elements of one parse pass. The slice is
// copied.
func New(elements []schemas.Element) *Catalog {
	c := &Catalog{
		elements: make([]schemas.Element, len(elements)),
		byID:     make(map[string]int, len(elements)),
	}
	copy(c.elements, elements)
	for i, el := range c.elements {
		c.byID[el.ID] = i
	}
	return c
}

// Len returns the number of elements.
func (c *Catalog) Len() int { return len(c.elements) }

// Elements returns a copy of every element in document order.
func (c *Catalog) Elements() []schemas.Element {
	out := make([]schemas.Element, len(c.elements))
	copy(out, c.elements)
	return out
}

// Get looks an element up by id.
func (c *Catalog) Get(id string) (schemas.Element, bool) {
	i, ok := c.byID[id]
	if !ok {
		return schemas.Element{}, false
	}
	return c.elements[i], true
}

// Has reports whether id belongs to this parse pass.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Filter applies q. Every predicate must hold for an element to match.
func (c *Catalog) Filter(q Query, hidden HiddenSet) Page {
	if hidden == nil {
		hidden = func(string) bool { return false }
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	category := q.Category
	if category == "all" {
		category = ""
	}

	matches := make([]schemas.Element, 0, len(c.elements))
	for _, el := range c.elements {
		if q.FullyHidden && hidden(el.ID) {
			continue
		}
		if category != "" && el.Category != category {
			continue
		}
		if q.OnlyClickable && !el.Clickable {
			continue
		}
		if term != "" && !matchesSearch(el, term) {
			continue
		}
		matches = append(matches, el)
	}

	sortElements(matches, q.SortBy, q.Descending)

	return Page{Items: paginate(matches, q.Offset, q.Limit), Total: len(matches)}
}

func matchesSearch(el schemas.Element, term string) bool {
	for _, field := range []string{el.DisplayName, el.Description, el.Text, el.TypeTag} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// sortElements orders in place. Ties keep document order.
func sortElements(els []schemas.Element, key SortKey, desc bool) {
	var less func(a, b schemas.Element) bool
	switch key {
	case SortName:
		less = func(a, b schemas.Element) bool { return a.DisplayName < b.DisplayName }
	case SortType:
		less = func(a, b schemas.Element) bool { return a.TypeTag < b.TypeTag }
	case SortImportance:
		// high first in ascending order.
		less = func(a, b schemas.Element) bool { return a.Importance.Rank() > b.Importance.Rank() }
	case SortPosition:
		less = func(a, b schemas.Element) bool {
			if a.Bounds.Y != b.Bounds.Y {
				return a.Bounds.Y < b.Bounds.Y
			}
			return a.Bounds.X < b.Bounds.X
		}
	default:
		if desc {
			for i, j := 0, len(els)-1; i < j; i, j = i+1, j-1 {
				els[i], els[j] = els[j], els[i]
			}
		}
		return
	}
	if desc {
		asc := less
		less = func(a, b schemas.Element) bool { return asc(b, a) }
	}
	sort.SliceStable(els, func(i, j int) bool { return less(els[i], els[j]) })
}

func paginate(els []schemas.Element, offset, limit int) []schemas.Element {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(els) {
		return []schemas.Element{}
	}
	end := len(els)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return els[offset:end]
}

// Categories returns the per-category counts in display order. Categories
// with no elements are kept with a zero count so callers can decide whether
// to show them.
func (c *Catalog) Categories() []schemas.CategoryCount {
	counts := make(map[schemas.Category]int, len(schemas.AllCategories))
	for _, el := range c.elements {
		counts[el.Category]++
	}
	out := make([]schemas.CategoryCount, 0, len(schemas.AllCategories))
	for _, cat := range schemas.AllCategories {
		style := schemas.StyleOf(cat)
		out = append(out, schemas.CategoryCount{
			Category: cat,
			Label:    style.Label,
			Color:    style.Color,
			Count:    counts[cat],
		})
	}
	return out
}

// Statistics summarizes the catalog against the current hidden set.
func (c *Catalog) Statistics(hidden HiddenSet) schemas.Statistics {
	stats := schemas.Statistics{Total: len(c.elements)}
	types := make(map[string]struct{})
	for _, el := range c.elements {
		if hidden != nil && hidden(el.ID) {
			stats.Hidden++
		}
		if el.Clickable {
			stats.Clickable++
		}
		if el.Importance == schemas.ImportanceHigh {
			stats.HighImportance++
		}
		types[el.TypeTag] = struct{}{}
	}
	stats.Visible = stats.Total - stats.Hidden
	stats.DistinctTypes = len(types)
	return stats
}
