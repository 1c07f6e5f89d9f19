// Package workspace holds the per-session state of the specimen
// workspace: the zoomable, pannable view, the cell selection with its open
// editor, and the hub that keeps sessions alive between requests.
package workspace

import (
	"math"

	"github.com/eringen/foundry/canvas"
	"github.com/eringen/foundry/layout"
)

// Zoom bounds.
const (
	MinScale     = 0.05
	MaxScale     = 2.0
	DefaultScale = 0.25
	ScaleStep    = 0.05
)

// Selection addresses the selected cell.
type Selection = canvas.Selection

// Mode is the pointer state of a View.
type Mode int

const (
	Idle Mode = iota
	Panning
)

func (m Mode) String() string {
	if m == Panning {
		return "panning"
	}
	return "idle"
}

// Size is a viewport size in screen pixels.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Locator reports where a page sits in world coordinates.
type Locator interface {
	PageRect(pageID string) (canvas.Rect, bool)
}

// View is the transform applied to the page strip: a uniform scale
// followed by a translation in screen pixels.
type View struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`

	mode           Mode
	startX, startY float64
	originX        float64
	originY        float64
}

// NewView returns an idle view at the default scale.
func NewView() View {
	return View{Scale: DefaultScale}
}

// Mode returns the pointer state.
func (v *View) Mode() Mode { return v.mode }

// PointerDown starts a pan at (x, y) when the pan modifier is held. It
// reports whether a pan started.
func (v *View) PointerDown(x, y float64, modifier bool) bool {
	if !modifier {
		return false
	}
	v.mode = Panning
	v.startX, v.startY = x, y
	v.originX, v.originY = v.X, v.Y
	return true
}

// PointerMove moves the view by the distance from the pan start. Moves
// outside a pan are ignored.
func (v *View) PointerMove(x, y float64) bool {
	if v.mode != Panning {
		return false
	}
	v.X = v.originX + (x - v.startX)
	v.Y = v.originY + (y - v.startY)
	return true
}

// PointerUp ends a pan.
func (v *View) PointerUp() {
	v.mode = Idle
}

// Wheel zooms one step in (deltaY < 0) or out (deltaY > 0). Without the
// zoom modifier the event is left to the page and Wheel returns false.
func (v *View) Wheel(deltaY float64, modifier bool) bool {
	if !modifier {
		return false
	}
	switch {
	case deltaY < 0:
		v.Scale = clampScale(v.Scale + ScaleStep)
	case deltaY > 0:
		v.Scale = clampScale(v.Scale - ScaleStep)
	}
	return true
}

// SetScale sets the zoom, clamped to the allowed range.
func (v *View) SetScale(s float64) {
	v.Scale = clampScale(s)
}

// CenterOn translates the view so that the page is centred in a viewport
// of the given size. Unknown pages are ignored.
func (v *View) CenterOn(pageID string, loc Locator, viewport Size) bool {
	if loc == nil {
		return false
	}
	r, ok := loc.PageRect(pageID)
	if !ok {
		return false
	}
	cx, cy := r.Center()
	v.X += viewport.W/2 - (v.X + cx*v.Scale)
	v.Y += viewport.H/2 - (v.Y + cy*v.Scale)
	return true
}

// Transform renders the view as a CSS transform.
func (v *View) Transform() string {
	return layout.Declarations{
		{Property: "transform", Value: "translate(" + num(v.X) + "px, " + num(v.Y) + "px) scale(" + num(v.Scale) + ")"},
		{Property: "transform-origin", Value: "0 0"},
	}.String()
}

// clampScale keeps s in range and rounds away float drift from repeated
// steps.
func clampScale(s float64) float64 {
	s = math.Round(s*100) / 100
	return math.Min(math.Max(s, MinScale), MaxScale)
}

// Gesture is a pointer or wheel event posted by the browser.
type Gesture struct {
	Kind     string  `json:"kind"` // down, move, up, wheel, center, zoom
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	DeltaY   float64 `json:"deltaY"`
	Modifier bool    `json:"modifier"`
	PageID   string  `json:"pageId"`
	Viewport Size    `json:"viewport"`
	Scale    float64 `json:"scale"`
}

// Handle applies g to the view and reports whether it was consumed.
func (v *View) Handle(g Gesture, loc Locator) bool {
	switch g.Kind {
	case "down":
		return v.PointerDown(g.X, g.Y, g.Modifier)
	case "move":
		return v.PointerMove(g.X, g.Y)
	case "up":
		handled := v.mode == Panning
		v.PointerUp()
		return handled
	case "wheel":
		return v.Wheel(g.DeltaY, g.Modifier)
	case "center":
		return v.CenterOn(g.PageID, loc, g.Viewport)
	case "zoom":
		v.SetScale(g.Scale)
		return true
	}
	return false
}

// Strip places the pages of a specimen side by side in world space.
type Strip struct {
	rects map[string]canvas.Rect
	order []string
	size  Size
}

// StripGap is the horizontal space between pages in world pixels.
const StripGap = 48.0

// NewStrip lays out pages left to right at the specimen's paper size.
func NewStrip(s layout.Specimen, pages []layout.Page) *Strip {
	s = layout.NormalizeSpecimen(s)
	paper := canvas.PaperSize(s.Format, s.Orientation)
	st := &Strip{rects: make(map[string]canvas.Rect, len(pages))}
	x := 0.0
	for i, p := range pages {
		if i > 0 {
			x += StripGap
		}
		st.rects[p.ID] = canvas.Rect{X: x, Y: 0, W: paper.Width, H: paper.Height}
		st.order = append(st.order, p.ID)
		x += paper.Width
	}
	st.size = Size{W: x, H: paper.Height}
	return st
}

// PageRect implements Locator.
func (st *Strip) PageRect(pageID string) (canvas.Rect, bool) {
	r, ok := st.rects[pageID]
	return r, ok
}

// Size is the extent of the whole strip.
func (st *Strip) Size() Size { return st.size }

// Pages returns the page ids in strip order.
func (st *Strip) Pages() []string {
	return append([]string(nil), st.order...)
}

func num(v float64) string {
	return layout.FormatNumber(v)
}
