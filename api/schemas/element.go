package schemas

import "strings"

// -- Geometry --

// Rect is an axis-aligned rectangle. Element bounds are in device pixels;
// projected rectangles are in canvas pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether the point lies inside the rectangle. The right and
// bottom edges are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Point is a position in either device or canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// -- Classification --

// Category is the semantic role assigned to an element. The set is closed.
type Category string

const (
	CategoryNavigation Category = "navigation"
	CategoryTabs       Category = "tabs"
	CategorySearch     Category = "search"
	CategoryContent    Category = "content"
	CategoryButtons    Category = "buttons"
	CategoryText       Category = "text"
	CategoryImages     Category = "images"
	CategoryOther      Category = "other"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryNavigation,
	CategoryTabs,
	CategorySearch,
	CategoryContent,
	CategoryButtons,
	CategoryText,
	CategoryImages,
	CategoryOther,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory normalizes user input into a Category. The empty string and
// "all" return ("", true), meaning no category constraint. "others" is
// accepted as an alias of "other".
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all":
		return "", true
	case "others":
		return CategoryOther, true
	}
	c := Category(s)
	return c, c.Valid()
}

// Importance ranks how central an element is to the screen.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Rank orders importance levels, high first.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

func (i Importance) String() string { return string(i) }

// -- Elements --

// Element is a classified, bounded unit of interest extracted from one
// snapshot. ID is positional and only meaningful within the parse pass that
// produced it.
type Element struct {
	ID          string     `json:"id"`
	Index       int        `json:"index"`
	Text        string     `json:"text"`
	Description string     `json:"description"`
	TypeTag     string     `json:"type"`
	ResourceID  string     `json:"resourceId,omitempty"`
	Category    Category   `json:"category"`
	Importance  Importance `json:"importance"`
	DisplayName string     `json:"displayName"`
	Bounds      Rect       `json:"bounds"`
	Clickable   bool       `json:"clickable"`
	Scrollable  bool       `json:"scrollable"`
	Enabled     bool       `json:"enabled"`
	Selected    bool       `json:"selected"`
}

// Confirmed converts the element into the event handed to callers once a
// selection is confirmed.
func (e Element) Confirmed() ConfirmedElement {
	return ConfirmedElement{
		ID:          e.ID,
		Text:        e.Text,
		Description: e.Description,
		TypeTag:     e.TypeTag,
		Bounds:      e.Bounds,
		Clickable:   e.Clickable,
	}
}

// ConfirmedElement carries enough of an element for a downstream tool to
// synthesize a "tap at these bounds" instruction.
type ConfirmedElement struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Description string `json:"description"`
	TypeTag     string `json:"type"`
	Bounds      Rect   `json:"bounds"`
	Clickable   bool   `json:"clickable"`
}

// TapPoint is the device-pixel center of the confirmed element.
func (c ConfirmedElement) TapPoint() Point { return c.Bounds.Center() }

// -- Aggregates --

// CategoryCount pairs a category with the number of elements in it.
type CategoryCount struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Color    string   `json:"color"`
	Count    int      `json:"count"`
}

// Statistics summarizes one catalog together with the current hidden set.
type Statistics struct {
	Total          int `json:"total"`
	Visible        int `json:"visible"`
	Hidden         int `json:"hidden"`
	Clickable      int `json:"clickable"`
	HighImportance int `json:"highImportance"`
	DistinctTypes  int `json:"distinctTypes"`
}

// SnapshotStats are raw node counts over a snapshot, before any filtering.
type SnapshotStats struct {
	TotalNodes     int `json:"totalNodes"`
	ClickableNodes int `json:"clickableNodes"`
	TextNodes      int `json:"textNodes"`
	ImageNodes     int `json:"imageNodes"`
}

// AppPageInfo is the advisory caption for a snapshot. It is cosmetic only.
type AppPageInfo struct {
	AppName         string   `json:"appName"`
	PageName        string   `json:"pageName"`
	PackageName     string   `json:"packageName,omitempty"`
	NavigationTexts []string `json:"navigationTexts,omitempty"`
	SelectedTabs    []string `json:"selectedTabs,omitempty"`
}

// Caption renders the caption pair for display.
func (a AppPageInfo) Caption() string {
	return a.AppName + " / " + a.PageName
}

// CategoryStyle is the presentation metadata of a category.
type CategoryStyle struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// CategoryStyles holds the label and fill color used for each category.
var CategoryStyles = map[Category]CategoryStyle{
	CategoryNavigation: {Label: "Navigation", Color: "#1890ff", Description: "Primary navigation buttons"},
	CategoryTabs:       {Label: "Tabs", Color: "#722ed1", Description: "Page switching tabs"},
	CategorySearch:     {Label: "Search", Color: "#13c2c2", Description: "Search related controls"},
	CategoryContent:    {Label: "Content", Color: "#52c41a", Description: "Main content cards"},
	CategoryButtons:    {Label: "Buttons", Color: "#fa8c16", Description: "Clickable buttons"},
	CategoryText:       {Label: "Text", Color: "#eb2f96", Description: "Text display"},
	CategoryImages:     {Label: "Images", Color: "#f5222d", Description: "Images and icons"},
	CategoryOther:      {Label: "Other", Color: "#8c8c8c", Description: "Other UI elements"},
}

// StyleOf returns the presentation metadata for c, falling back to "other".
func StyleOf(c Category) CategoryStyle {
	if s, ok := CategoryStyles[c]; ok {
		return s
	}
	return CategoryStyles[CategoryOther]
}

// DisplayState is the interaction state of one element as seen by the canvas.
type DisplayState struct {
	Hidden  bool `json:"hidden"`
	Hovered bool `json:"hovered"`
	Pending bool `json:"pending"`
}

// Visible reports whether the element is not hidden.
func (d DisplayState) Visible() bool { return !d.Hidden }
