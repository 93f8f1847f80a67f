// internal/classifier/classifier.go
package classifier

import (
	"sync/atomic"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/hierarchy"
)

// Classification is the verdict for one node.
type Classification struct {
	Category    schemas.Category
	DisplayName string
	Importance  schemas.Importance
}

// Classifier applies the ordered rule list with a swappable keyword table.
// It is safe for concurrent use.
type Classifier struct {
	keywords atomic.Pointer[KeywordTable]
	rules    []Rule
}

// New creates a classifier. A nil table selects DefaultKeywordTable.
func New(kw *KeywordTable) *Classifier {
	c := &Classifier{rules: CategoryRules}
	c.SetKeywords(kw)
	return c
}

// SetKeywords swaps the keyword table used by subsequent calls.
func (c *Classifier) SetKeywords(kw *KeywordTable) {
	if kw == nil {
		kw = DefaultKeywordTable()
	}
	c.keywords.Store(kw)
}

// Keywords returns the active keyword table.
func (c *Classifier) Keywords() *KeywordTable {
	return c.keywords.Load()
}

// Classify never fails: anything unrecognized is "other" with low importance.
func (c *Classifier) Classify(in Input) Classification {
	kw := c.keywords.Load()
	return Classification{
		Category:    Categorize(c.rules, in, kw),
		DisplayName: DisplayName(in),
		Importance:  Importance(in, kw),
	}
}

// InputFromNode extracts the rule inputs from a parsed node.
func InputFromNode(n hierarchy.RawNode) Input {
	return Input{
		Text:        n.Text,
		Description: n.Description,
		Class:       n.Class,
		ResourceID:  n.ResourceID,
		Clickable:   n.Clickable,
	}
}

// Element builds the immutable element for a surviving node.
func (c *Classifier) Element(n hierarchy.RawNode) schemas.Element {
	verdict := c.Classify(InputFromNode(n))

	description := n.Description
	if description == "" {
		description = verdict.DisplayName
		if n.Clickable {
			description += " (clickable)"
		}
	}

	return schemas.Element{
		ID:          n.ID(),
		Index:       n.Index,
		Text:        n.Text,
		Description: description,
		TypeTag:     n.TypeTag(),
		ResourceID:  n.ResourceID,
		Category:    verdict.Category,
		Importance:  verdict.Importance,
		DisplayName: verdict.DisplayName,
		Bounds:      n.Rect,
		Clickable:   n.Clickable,
		Scrollable:  n.Scrollable,
		Enabled:     n.Enabled,
		Selected:    n.Selected,
	}
}

// Elements classifies every node, preserving order.
func (c *Classifier) Elements(nodes []hierarchy.RawNode) []schemas.Element {
	out := make([]schemas.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, c.Element(n))
	}
	return out
}
