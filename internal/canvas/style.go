// internal/canvas/style.go
package canvas

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xkilldash9x/viewlens/api/schemas"
)

// Cursor values understood by the preview surface.
const (
	CursorPointer = "pointer"
	CursorDefault = "default"
)

const (
	pendingBorderColor = "#52c41a"
	hoveredBorderColor = "#faad14"
	emphasisBorder     = 2.0

	opacityHidden       = 0.1
	opacityPending      = 1.0
	opacityClickable    = 0.7
	opacityNonClickable = 0.4

	scalePending = 1.1
	scaleHovered = 1.05

	zPending      = 50
	zHovered      = 30
	zClickable    = 10
	zNonClickable = 5

	// label thresholds, in canvas pixels.
	labelMinWidth  = 40.0
	labelMinHeight = 20.0
	labelFontMin   = 8.0
	labelFontMax   = 12.0

	// gridMinWidth is the canvas width above which guide lines are drawn.
	gridMinWidth = 200.0
)

// Style is the visual treatment of one placed element.
type Style struct {
	Fill        string  `json:"fill"`
	Opacity     float64 `json:"opacity"`
	BorderWidth float64 `json:"borderWidth"`
	BorderColor string  `json:"borderColor"`
	Scale       float64 `json:"scale"`
	ZIndex      int     `json:"zIndex"`
	Grayscale   bool    `json:"grayscale"`
	Cursor      string  `json:"cursor"`
	Interactive bool    `json:"interactive"`
}

// StyleFor maps an element and its display state to a Style. Precedence is
// hidden, then pending, then hovered, then the clickable default.
func StyleFor(el schemas.Element, st schemas.DisplayState) Style {
	s := Style{
		Fill:        schemas.StyleOf(el.Category).Color,
		BorderWidth: 1,
		BorderColor: schemas.StyleOf(el.Category).Color,
		Scale:       1,
		Cursor:      CursorDefault,
	}

	switch {
	case st.Hidden:
		s.Opacity = opacityHidden
		s.Grayscale = true
		s.ZIndex = zNonClickable
		return s
	case st.Pending:
		s.Opacity = opacityPending
		s.BorderWidth = emphasisBorder
		s.BorderColor = pendingBorderColor
		s.Scale = scalePending
		s.ZIndex = zPending
	case st.Hovered:
		s.BorderWidth = emphasisBorder
		s.BorderColor = hoveredBorderColor
		s.Scale = scaleHovered
		s.ZIndex = zHovered
		s.Opacity = baseOpacity(el)
	default:
		s.Opacity = baseOpacity(el)
		s.ZIndex = zNonClickable
		if el.Clickable {
			s.ZIndex = zClickable
		}
	}

	if el.Clickable {
		s.Cursor = CursorPointer
		s.Interactive = true
	}
	return s
}

func baseOpacity(el schemas.Element) float64 {
	if el.Clickable {
		return opacityClickable
	}
	return opacityNonClickable
}

// Placement is a projected element ready to draw.
type Placement struct {
	ElementID string       `json:"elementId"`
	Index     int          `json:"index"`
	Rect      schemas.Rect `json:"rect"`
	Style     Style        `json:"style"`
	Label     string       `json:"label,omitempty"`
	FontSize  float64      `json:"fontSize,omitempty"`
	Tooltip   string       `json:"tooltip"`
	Hidden    bool         `json:"hidden"`
}

// StateFunc reports the display state of an element id.
type StateFunc func(id string) schemas.DisplayState

// Render styles a projection. Elements hidden while fullyHidden is set are
// left out entirely; otherwise they stay in place, de-emphasized. Placements
// come back in drawing order: ascending z, then document order.
func Render(p Projection, elements []schemas.Element, state StateFunc, fullyHidden bool) []Placement {
	if state == nil {
		state = func(string) schemas.DisplayState { return schemas.DisplayState{} }
	}
	byID := make(map[string]schemas.Element, len(elements))
	for _, el := range elements {
		byID[el.ID] = el
	}

	out := make([]Placement, 0, len(p.Items))
	for _, it := range p.Items {
		el, ok := byID[it.ElementID]
		if !ok {
			continue
		}
		st := state(el.ID)
		if st.Hidden && fullyHidden {
			continue
		}
		pl := Placement{
			ElementID: el.ID,
			Index:     it.Index,
			Rect:      it.Rect,
			Style:     StyleFor(el, st),
			Tooltip:   Tooltip(el),
			Hidden:    st.Hidden,
		}
		name := el.DisplayName
		if ShowLabel(it.Rect.Width, it.Rect.Height, name) {
			pl.Label = name
			pl.FontSize = LabelFontSize(it.Rect.Height)
		}
		out = append(out, pl)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Style.ZIndex != out[j].Style.ZIndex {
			return out[i].Style.ZIndex < out[j].Style.ZIndex
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// HitTest returns the topmost interactive placement containing (x, y).
// Placements must be in drawing order, as Render returns them. Hidden and
// non-clickable placements are never hit, so taps fall through them.
func HitTest(placements []Placement, x, y float64) (string, bool) {
	for i := len(placements) - 1; i >= 0; i-- {
		pl := placements[i]
		if pl.Hidden || !pl.Style.Interactive {
			continue
		}
		if pl.Rect.Contains(x, y) {
			return pl.ElementID, true
		}
	}
	return "", false
}

// ShowLabel reports whether a rectangle is large enough to carry its name.
func ShowLabel(w, h float64, text string) bool {
	return w >= labelMinWidth && h >= labelMinHeight && strings.TrimSpace(text) != ""
}

// LabelFontSize scales the label font with the rectangle height.
func LabelFontSize(h float64) float64 {
	return math.Max(labelFontMin, math.Min(labelFontMax, h/3))
}

// Tooltip is the hover text of an element.
func Tooltip(el schemas.Element) string {
	var b strings.Builder
	b.WriteString(el.DisplayName)
	fmt.Fprintf(&b, "\nType: %s", el.TypeTag)
	fmt.Fprintf(&b, "\nCategory: %s", schemas.StyleOf(el.Category).Label)
	if el.Text != "" && el.Text != el.DisplayName {
		fmt.Fprintf(&b, "\nText: %s", el.Text)
	}
	fmt.Fprintf(&b, "\nBounds: %.0f,%.0f %.0fx%.0f", el.Bounds.X, el.Bounds.Y, el.Bounds.Width, el.Bounds.Height)
	if el.Clickable {
		b.WriteString("\nClick to select")
	}
	return b.String()
}

// GridLine is one guide line on the canvas.
type GridLine struct {
	Vertical bool    `json:"vertical"`
	Offset   float64 `json:"offset"`
}

// GridLines returns guides at 25, 50 and 75 percent of each axis. Narrow
// canvases get none.
func GridLines(p Projection) []GridLine {
	if p.CanvasWidth <= gridMinWidth {
		return nil
	}
	var lines []GridLine
	for _, frac := range []float64{0.25, 0.5, 0.75} {
		lines = append(lines,
			GridLine{Vertical: true, Offset: p.CanvasWidth * frac},
			GridLine{Vertical: false, Offset: p.CanvasHeight * frac},
		)
	}
	return lines
}
