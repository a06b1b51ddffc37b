// Package mapper converts engine geometry into diagram coordinates and
// writes the result back onto a view.
//
// Mapping is split in two steps. [Map] is a pure function of the geometry,
// the graph that produced it and a [Config]; it returns a [Placement] and
// touches nothing. [Apply] writes a complete placement onto a [Target].
// A failed or canceled run therefore never leaves a view half positioned.
package mapper

import (
	"math"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout/geom"
	"github.com/matzehuels/autolayout/pkg/layout/graph"
)

// PointsPerInch is the unit of Graphviz output geometry.
const PointsPerInch = 72.0

// Defaults.
const (
	// DefaultScale converts Graphviz points to diagram units.
	DefaultScale = graph.UnitsPerInch / PointsPerInch

	// DefaultMargin is added around the laid out diagram, in diagram units.
	DefaultMargin = 400
)

// Config controls the conversion from engine space to diagram space.
type Config struct {
	// Scale multiplies engine units into diagram units. Zero means DefaultScale.
	Scale float64

	// Margin is a uniform offset added to every coordinate, in diagram units.
	Margin int

	// ChangePaperSize reports the canvas size, plus margins, as the view's
	// new dimensions.
	ChangePaperSize bool
}

// DefaultConfig returns the configuration used by the pipeline when nothing
// is set.
func DefaultConfig() Config {
	return Config{Scale: DefaultScale, Margin: DefaultMargin, ChangePaperSize: true}
}

// Validate checks cfg for values that cannot produce a placement.
func (c Config) Validate() error {
	if c.Scale < 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be a positive number, got %v", c.Scale)
	}
	if c.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin must not be negative, got %d", c.Margin)
	}
	return nil
}

func (c Config) scale() float64 {
	if c.Scale == 0 {
		return DefaultScale
	}
	return c.Scale
}

// Position is the diagram-space top-left corner of a rendered element.
type Position struct {
	ID        graph.NumericID `json:"id"`
	ElementID string          `json:"element_id"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
}

// Box is a diagram-space rectangle.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ClusterBox is the diagram-space outline of a cluster.
type ClusterBox struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	Box
}

// Placement is the complete result of mapping one view.
type Placement struct {
	ViewKey string `json:"view"`

	// Elements are in id order, one per rendered element.
	Elements []Position `json:"elements"`

	// Clusters are in depth-first order. Clusters the engine did not draw
	// are omitted.
	Clusters []ClusterBox `json:"clusters,omitempty"`

	// Width and Height are set when the configuration changes the paper size.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	ChangePaperSize bool `json:"change_paper_size"`
}

// Map converts geo into diagram space for every node of g.
//
// Every node must have a rectangle in geo; a missing one is a
// MISSING_GEOMETRY error rather than a silent (0, 0).
func Map(geo *geom.Geometry, g *graph.Graph, cfg Config) (*Placement, error) {
	if geo == nil || g == nil {
		return nil, errors.New(errors.ErrCodeInternal, "map: nil geometry or graph")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if missing := geo.Missing(g.NodeIDs()); len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeMissingGeometry,
			"view %q: no geometry for element id %s", g.ViewKey, missing[0])
	}

	m := mapping{geo: geo, scale: cfg.scale(), margin: cfg.Margin}
	p := &Placement{
		ViewKey:         g.ViewKey,
		Elements:        make([]Position, 0, len(g.Nodes)),
		ChangePaperSize: cfg.ChangePaperSize,
	}
	for _, n := range g.Nodes {
		b := m.box(geo.Nodes[n.ID])
		p.Elements = append(p.Elements, Position{ID: n.ID, ElementID: n.Element.ID, X: b.X, Y: b.Y})
	}

	g.Walk(func(c *graph.Cluster) bool {
		if r, ok := geo.Clusters[c.Key]; ok {
			p.Clusters = append(p.Clusters, ClusterBox{Key: c.Key, Kind: c.Kind.String(), Name: c.Name, Box: m.box(r)})
		}
		return true
	})

	if cfg.ChangePaperSize {
		p.Width = round(geo.Width*m.scale) + 2*cfg.Margin
		p.Height = round(geo.Height*m.scale) + 2*cfg.Margin
	}
	return p, nil
}

type mapping struct {
	geo    *geom.Geometry
	scale  float64
	margin int
}

// box maps a document rectangle onto the canvas, flips it when the engine
// reports y growing upward, then scales and offsets it.
func (m mapping) box(r geom.Rect) Box {
	c := m.geo.Transform.Apply(r)
	if m.geo.YUp {
		c.Y = m.geo.Height - (c.Y + c.Height)
	}
	return Box{
		X:      round(c.X*m.scale) + m.margin,
		Y:      round(c.Y*m.scale) + m.margin,
		Width:  round(c.Width * m.scale),
		Height: round(c.Height * m.scale),
	}
}

func round(v float64) int { return int(math.Round(v)) }

// Target receives the placement of one view.
type Target interface {
	SetElementPosition(id string, x, y int) error
	SetDimensions(width, height int)
}

// Apply writes p onto t.
func Apply(t Target, p *Placement) error {
	if p == nil {
		return errors.New(errors.ErrCodeInternal, "apply: nil placement")
	}
	for _, pos := range p.Elements {
		if err := t.SetElementPosition(pos.ElementID, pos.X, pos.Y); err != nil {
			return err
		}
	}
	if p.ChangePaperSize {
		t.SetDimensions(p.Width, p.Height)
	}
	return nil
}
