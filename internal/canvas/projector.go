// internal/canvas/projector.go
package canvas

import (
	"math"

	"github.com/xkilldash9x/viewlens/api/schemas"
)

// -- Constants and Configuration --

const (
	// MinScale keeps oversized device canvases legible.
	MinScale = 0.2
	// MaxScale stops small-resolution devices from rendering oversized.
	MaxScale = 2.0
	// MinProjectedSize keeps every element a usable interaction target.
	MinProjectedSize = 1.0

	DefaultViewportWidth  = 380.0
	DefaultViewportHeight = 550.0
)

// Viewport is the space budget of the preview canvas. Height is optional:
// nil constrains the scale by width only.
type Viewport struct {
	Width  float64
	Height *float64
}

// WidthOnly returns a viewport constrained by width alone.
func WidthOnly(w float64) Viewport { return Viewport{Width: w} }

// WithHeight returns a viewport constrained by width and height.
func WithHeight(w, h float64) Viewport { return Viewport{Width: w, Height: &h} }

// DefaultViewport is the 380x550 budget of the standard preview panel.
func DefaultViewport() Viewport { return WithHeight(DefaultViewportWidth, DefaultViewportHeight) }

// ProjectedElement is one element's rectangle on the canvas.
type ProjectedElement struct {
	ElementID string       `json:"elementId"`
	Index     int          `json:"index"`
	Rect      schemas.Rect `json:"rect"`
}

// Projection is the scaled placement of a device-pixel element set.
type Projection struct {
	DeviceWidth  float64            `json:"deviceWidth"`
	DeviceHeight float64            `json:"deviceHeight"`
	Scale        float64            `json:"scale"`
	CanvasWidth  float64            `json:"canvasWidth"`
	CanvasHeight float64            `json:"canvasHeight"`
	Items        []ProjectedElement `json:"items"`
}

// Lookup returns the projected rectangle of an element id.
func (p Projection) Lookup(id string) (ProjectedElement, bool) {
	for _, it := range p.Items {
		if it.ElementID == id {
			return it, true
		}
	}
	return ProjectedElement{}, false
}

// Projector computes projections with configurable scale bounds.
type Projector struct {
	minScale float64
	maxScale float64
}

// NewProjector returns a projector clamping to [minScale, maxScale]. Invalid
// bounds fall back to the package defaults.
func NewProjector(minScale, maxScale float64) *Projector {
	if minScale <= 0 || maxScale <= 0 || minScale > maxScale {
		minScale, maxScale = MinScale, MaxScale
	}
	return &Projector{minScale: minScale, maxScale: maxScale}
}

// Project uses the default scale bounds.
func Project(elements []schemas.Element, vp Viewport) Projection {
	return NewProjector(MinScale, MaxScale).Project(elements, vp)
}

// Project derives the device extent from the elements, picks the scale that
// fits the viewport and projects every element. The width-only and
// width-and-height call shapes share this one path.
func (p *Projector) Project(elements []schemas.Element, vp Viewport) Projection {
	dw, dh := DeviceExtent(elements, vp)
	return p.ProjectWithExtent(elements, dw, dh, vp)
}

// ProjectWithExtent projects elements against a device extent computed
// elsewhere. Projecting a filtered subset against the extent of the full set
// keeps the scale steady while filters change.
func (p *Projector) ProjectWithExtent(elements []schemas.Element, dw, dh float64, vp Viewport) Projection {
	candidate := math.Inf(1)
	if vp.Width > 0 && dw > 0 {
		candidate = vp.Width / dw
	}
	if vp.Height != nil && *vp.Height > 0 && dh > 0 {
		candidate = math.Min(candidate, *vp.Height/dh)
	}
	if math.IsInf(candidate, 1) || math.IsNaN(candidate) {
		candidate = 1
	}
	scale := clamp(candidate, p.minScale, p.maxScale)

	proj := Projection{
		DeviceWidth:  dw,
		DeviceHeight: dh,
		Scale:        scale,
		CanvasWidth:  dw * scale,
		CanvasHeight: dh * scale,
		Items:        make([]ProjectedElement, 0, len(elements)),
	}
	for _, el := range elements {
		proj.Items = append(proj.Items, ProjectedElement{
			ElementID: el.ID,
			Index:     el.Index,
			Rect:      ScaleRect(el.Bounds, scale),
		})
	}
	return proj
}

// DeviceExtent is the furthest right and bottom edge over all elements. With
// no elements the viewport size stands in.
func DeviceExtent(elements []schemas.Element, vp Viewport) (float64, float64) {
	if len(elements) == 0 {
		h := vp.Width
		if vp.Height != nil {
			h = *vp.Height
		}
		return vp.Width, h
	}
	var dw, dh float64
	for _, el := range elements {
		dw = math.Max(dw, el.Bounds.Right())
		dh = math.Max(dh, el.Bounds.Bottom())
	}
	return dw, dh
}

// ScaleRect maps a device rectangle onto the canvas with a one pixel floor on
// width and height.
func ScaleRect(r schemas.Rect, scale float64) schemas.Rect {
	return schemas.Rect{
		X:      r.X * scale,
		Y:      r.Y * scale,
		Width:  math.Max(r.Width*scale, MinProjectedSize),
		Height: math.Max(r.Height*scale, MinProjectedSize),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
