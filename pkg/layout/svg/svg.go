// Package svg reads element geometry from Graphviz SVG output.
//
// Graphviz writes one <g class="node"> per node and one <g class="cluster">
// per cluster inside a <g class="graph"> whose transform moves the
// (negative y) drawing onto the canvas. Every group has a <title>: the node
// name for nodes, the subgraph name for clusters. Edge groups are skipped.
//
// The parser records raw coordinates; it does not convert units or flip
// axes.
package svg

import (
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout/geom"
	"github.com/matzehuels/autolayout/pkg/layout/graph"
)

type document struct {
	XMLName xml.Name `xml:"svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	ViewBox string   `xml:"viewBox,attr"`
	Groups  []group  `xml:"g"`
}

type group struct {
	ID        string    `xml:"id,attr"`
	Class     string    `xml:"class,attr"`
	Transform string    `xml:"transform,attr"`
	Title     string    `xml:"title"`
	Polygons  []polygon `xml:"polygon"`
	Ellipses  []ellipse `xml:"ellipse"`
	Paths     []path    `xml:"path"`
	Texts     []string  `xml:"text"`
	Groups    []group   `xml:"g"`

	// Anchors wrap shapes when a node or cluster has a URL or tooltip.
	Anchors []group `xml:"a"`
}

// shapes are the drawing primitives of one node or cluster.
type shapes struct {
	polygons []polygon
	ellipses []ellipse
	paths    []path
	texts    []string
}

// collect gathers the primitives of gr, descending into anchors and into
// unclassed wrapper groups but not into other classed groups.
func collect(gr *group) shapes {
	s := shapes{
		polygons: append([]polygon(nil), gr.Polygons...),
		ellipses: append([]ellipse(nil), gr.Ellipses...),
		paths:    append([]path(nil), gr.Paths...),
		texts:    append([]string(nil), gr.Texts...),
	}
	merge := func(inner *group) {
		c := collect(inner)
		s.polygons = append(s.polygons, c.polygons...)
		s.ellipses = append(s.ellipses, c.ellipses...)
		s.paths = append(s.paths, c.paths...)
		s.texts = append(s.texts, c.texts...)
	}
	for i := range gr.Anchors {
		merge(&gr.Anchors[i])
	}
	for i := range gr.Groups {
		if gr.Groups[i].Class == "" {
			merge(&gr.Groups[i])
		}
	}
	return s
}

type polygon struct {
	Points string `xml:"points,attr"`
}

type ellipse struct {
	CX string `xml:"cx,attr"`
	CY string `xml:"cy,attr"`
	RX string `xml:"rx,attr"`
	RY string `xml:"ry,attr"`
}

type path struct {
	D string `xml:"d,attr"`
}

var (
	numberRe    = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
	translateRe = regexp.MustCompile(`translate\(\s*([^\s,)]+)[\s,]+([^\s,)]+)\s*\)`)
	scaleRe     = regexp.MustCompile(`scale\(\s*([^\s,)]+)(?:[\s,]+([^\s,)]+))?\s*\)`)
	labelIDRe   = regexp.MustCompile(`^\s*(\d+):`)
)

// Parse reads a Graphviz SVG document.
//
// Only nodes whose id appears in want are recorded; other shapes are
// engine decoration and ignored. If want is nil every node with a numeric
// id is recorded. Parse fails with MISSING_GEOMETRY when an id in want has
// no shape in the document.
func Parse(r io.Reader, want []graph.NumericID) (*geom.Geometry, error) {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "decode svg")
	}

	g := geom.New()
	if err := parseCanvas(&doc, g); err != nil {
		return nil, err
	}

	var wanted map[graph.NumericID]bool
	if want != nil {
		wanted = make(map[graph.NumericID]bool, len(want))
		for _, id := range want {
			wanted[id] = true
		}
	}

	p := &parser{geo: g, wanted: wanted}
	for i := range doc.Groups {
		if err := p.visit(&doc.Groups[i]); err != nil {
			return nil, err
		}
	}

	if missing := g.Missing(want); len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, id := range missing {
			ids[i] = id.String()
		}
		return nil, errors.New(errors.ErrCodeMissingGeometry,
			"layout result has no geometry for %d of %d elements (ids %s)",
			len(missing), len(want), strings.Join(ids, ", "))
	}
	return g, nil
}

func parseCanvas(doc *document, g *geom.Geometry) error {
	w, wok := parseLength(doc.Width)
	h, hok := parseLength(doc.Height)
	if wok && hok {
		g.Width, g.Height = w, h
		return nil
	}
	nums := numberRe.FindAllString(doc.ViewBox, -1)
	if len(nums) == 4 {
		vw, err1 := strconv.ParseFloat(nums[2], 64)
		vh, err2 := strconv.ParseFloat(nums[3], 64)
		if err1 == nil && err2 == nil {
			g.Width, g.Height = vw, vh
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidGeometry, "svg has no canvas size (width=%q height=%q viewBox=%q)",
		doc.Width, doc.Height, doc.ViewBox)
}

// parseLength parses an SVG length such as "188pt" or "188".
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "pt"), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

type parser struct {
	geo    *geom.Geometry
	wanted map[graph.NumericID]bool
}

func (p *parser) keep(id graph.NumericID) bool {
	return p.wanted == nil || p.wanted[id]
}

func (p *parser) visit(gr *group) error {
	switch gr.Class {
	case "graph":
		t, err := parseTransform(gr.Transform)
		if err != nil {
			return err
		}
		p.geo.Transform = t
	case "node":
		id, ok := nodeID(gr)
		if !ok || !p.keep(id) {
			break
		}
		if _, seen := p.geo.Nodes[id]; seen {
			break
		}
		r, ok, err := shapeBounds(gr)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGeometry, err, "node %s", id)
		}
		if ok {
			p.geo.Nodes[id] = r
		}
	case "cluster":
		key := strings.TrimSpace(gr.Title)
		if key == "" {
			break
		}
		r, ok, err := shapeBounds(gr)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGeometry, err, "cluster %s", key)
		}
		if ok {
			p.geo.Clusters[key] = r
		}
	}
	for i := range gr.Groups {
		if err := p.visit(&gr.Groups[i]); err != nil {
			return err
		}
	}
	for i := range gr.Anchors {
		if err := p.visit(&gr.Anchors[i]); err != nil {
			return err
		}
	}
	return nil
}

// nodeID recovers a node's numeric id from its title, then its id
// attribute, then the "N: name" prefix of its label.
func nodeID(gr *group) (graph.NumericID, bool) {
	if id, ok := graph.ParseNumericID(gr.Title); ok {
		return id, true
	}
	if id, ok := graph.ParseNumericID(gr.ID); ok {
		return id, true
	}
	for _, t := range collect(gr).texts {
		if m := labelIDRe.FindStringSubmatch(t); m != nil {
			return graph.ParseNumericID(m[1])
		}
	}
	return 0, false
}

// shapeBounds returns the bounds of a group's outline: its first polygon,
// ellipse or path, in that order, that has an area. Degenerate shapes such
// as zero-width separator lines are passed over.
func shapeBounds(gr *group) (geom.Rect, bool, error) {
	s := collect(gr)

	for _, pg := range s.polygons {
		xy, err := parseNumbers(pg.Points)
		if err != nil {
			return geom.Rect{}, false, err
		}
		if r, ok := geom.Bounds(xy); ok && !r.Empty() {
			return r, true, nil
		}
	}
	for _, e := range s.ellipses {
		xy, err := parseNumbers(e.CX + " " + e.CY + " " + e.RX + " " + e.RY)
		if err != nil {
			return geom.Rect{}, false, err
		}
		if len(xy) != 4 {
			continue
		}
		if r := (geom.Rect{X: xy[0] - xy[2], Y: xy[1] - xy[3], Width: 2 * xy[2], Height: 2 * xy[3]}); !r.Empty() {
			return r, true, nil
		}
	}
	for _, pt := range s.paths {
		xy, err := parseNumbers(pt.D)
		if err != nil {
			return geom.Rect{}, false, err
		}
		if r, ok := geom.Bounds(xy); ok && !r.Empty() {
			return r, true, nil
		}
	}
	return geom.Rect{}, false, nil
}

func parseNumbers(s string) ([]float64, error) {
	matches := numberRe.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseTransform(s string) (geom.Transform, error) {
	t := geom.Identity
	if m := scaleRe.FindStringSubmatch(s); m != nil {
		sx, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return t, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "graph transform %q", s)
		}
		sy := sx
		if m[2] != "" {
			if sy, err = strconv.ParseFloat(m[2], 64); err != nil {
				return t, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "graph transform %q", s)
			}
		}
		t.ScaleX, t.ScaleY = sx, sy
	}
	if m := translateRe.FindStringSubmatch(s); m != nil {
		tx, err1 := strconv.ParseFloat(m[1], 64)
		ty, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return t, errors.New(errors.ErrCodeInvalidGeometry, "graph transform %q", s)
		}
		t.TranslateX, t.TranslateY = tx, ty
	}
	return t, nil
}
