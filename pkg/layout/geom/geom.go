// Package geom holds the geometry read back from the layout engine.
//
// Values are kept exactly as the engine reported them: engine units
// (points), the engine's axis orientation, and the document transform that
// places shapes on the canvas. Conversion to diagram space is left to the
// mapper package.
package geom

import (
	"math"

	"github.com/matzehuels/autolayout/pkg/layout/graph"
)

// Rect is an axis-aligned rectangle. X and Y are the minimum corner in the
// coordinate system of the shape's document.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Bounds returns the smallest rectangle containing all points, given as
// consecutive x, y pairs. It returns false for fewer than one point.
func Bounds(xy []float64) (Rect, bool) {
	if len(xy) < 2 {
		return Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(xy); i += 2 {
		minX = math.Min(minX, xy[i])
		maxX = math.Max(maxX, xy[i])
		minY = math.Min(minY, xy[i+1])
		maxY = math.Max(maxY, xy[i+1])
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Transform places document coordinates on the canvas:
// canvas = scale * (p + translate).
type Transform struct {
	ScaleX     float64 `json:"scale_x"`
	ScaleY     float64 `json:"scale_y"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{ScaleX: 1, ScaleY: 1}

// Apply maps a document rectangle to canvas coordinates.
func (t Transform) Apply(r Rect) Rect {
	x0 := t.ScaleX * (r.X + t.TranslateX)
	y0 := t.ScaleY * (r.Y + t.TranslateY)
	x1 := t.ScaleX * (r.X + r.Width + t.TranslateX)
	y1 := t.ScaleY * (r.Y + r.Height + t.TranslateY)
	return Rect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Geometry is the parsed layout result.
type Geometry struct {
	// Width and Height are the canvas size in engine units.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Transform maps shape coordinates onto the canvas.
	Transform Transform `json:"transform"`

	// YUp is true when canvas y grows upward.
	YUp bool `json:"y_up"`

	Nodes    map[graph.NumericID]Rect `json:"nodes"`
	Clusters map[string]Rect          `json:"clusters,omitempty"`
}

// New returns an empty geometry with an identity transform.
func New() *Geometry {
	return &Geometry{
		Transform: Identity,
		Nodes:     make(map[graph.NumericID]Rect),
		Clusters:  make(map[string]Rect),
	}
}

// Missing returns the ids in want that have no node rectangle, in the order given.
func (g *Geometry) Missing(want []graph.NumericID) []graph.NumericID {
	var out []graph.NumericID
	for _, id := range want {
		if _, ok := g.Nodes[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
