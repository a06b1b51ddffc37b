package graph

import (
	"strconv"
	"strings"

	"github.com/matzehuels/autolayout/pkg/model"
)

// UnitsPerInch is the number of diagram units in one inch. Node sizes and
// separations are given in diagram units and converted to inches for the
// layout engine.
const UnitsPerInch = 300.0

// =============================================================================
// Numeric Identifiers
// =============================================================================

// NumericID identifies a rendered element or relationship within one layout
// run. Ids start at 1 and are never reused within a run.
type NumericID int

// String returns the decimal form used in the description and result documents.
func (id NumericID) String() string { return strconv.Itoa(int(id)) }

// ParseNumericID parses the decimal form of an id. It rejects zero,
// negative values, and anything that is not a plain decimal integer.
func ParseNumericID(s string) (NumericID, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return NumericID(n), true
}

// =============================================================================
// Rank Direction
// =============================================================================

// RankDirection is the direction in which ranks are laid out.
type RankDirection string

// Rank directions, using the engine's own spelling.
const (
	TopBottom RankDirection = "TB"
	BottomTop RankDirection = "BT"
	LeftRight RankDirection = "LR"
	RightLeft RankDirection = "RL"
)

// rankDirections maps the engine spelling and the workspace spelling
// ("TopBottom") of each direction, lower-cased.
var rankDirections = map[string]RankDirection{
	"tb": TopBottom, "topbottom": TopBottom,
	"bt": BottomTop, "bottomtop": BottomTop,
	"lr": LeftRight, "leftright": LeftRight,
	"rl": RightLeft, "rightleft": RightLeft,
}

// ParseRankDirection accepts "TB" or "TopBottom" and the equivalent forms
// of the other directions, case-insensitively.
func ParseRankDirection(s string) (RankDirection, bool) {
	d, ok := rankDirections[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// =============================================================================
// Parameters
// =============================================================================

// Params are the graph-level layout parameters. Sizes and separations are
// in diagram units.
type Params struct {
	RankDirection  RankDirection `json:"rank_direction" toml:"rank_direction"`
	RankSeparation float64       `json:"rank_separation" toml:"rank_separation"`
	NodeSeparation float64       `json:"node_separation" toml:"node_separation"`
	NodeWidth      float64       `json:"node_width" toml:"node_width"`
	NodeHeight     float64       `json:"node_height" toml:"node_height"`
	ClusterMargin  int           `json:"cluster_margin" toml:"cluster_margin"`
	FontSize       int           `json:"font_size" toml:"font_size"`
}

// Default parameter values.
const (
	DefaultRankSeparation = 300.0
	DefaultNodeSeparation = 300.0
	DefaultNodeWidth      = 450.0
	DefaultNodeHeight     = 300.0
	DefaultClusterMargin  = 25
	DefaultFontSize       = 5
)

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		RankDirection:  TopBottom,
		RankSeparation: DefaultRankSeparation,
		NodeSeparation: DefaultNodeSeparation,
		NodeWidth:      DefaultNodeWidth,
		NodeHeight:     DefaultNodeHeight,
		ClusterMargin:  DefaultClusterMargin,
		FontSize:       DefaultFontSize,
	}
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.RankDirection == "" {
		p.RankDirection = d.RankDirection
	}
	if p.RankSeparation <= 0 {
		p.RankSeparation = d.RankSeparation
	}
	if p.NodeSeparation <= 0 {
		p.NodeSeparation = d.NodeSeparation
	}
	if p.NodeWidth <= 0 {
		p.NodeWidth = d.NodeWidth
	}
	if p.NodeHeight <= 0 {
		p.NodeHeight = d.NodeHeight
	}
	if p.ClusterMargin <= 0 {
		p.ClusterMargin = d.ClusterMargin
	}
	if p.FontSize <= 0 {
		p.FontSize = d.FontSize
	}
	return p
}

// =============================================================================
// Graph
// =============================================================================

// Node binds a numeric id to a rendered element.
type Node struct {
	ID      NumericID
	Element *model.Element
	Cluster *Cluster // nil when the node sits at the root
}

// Label returns the human-readable label carrying the id, "id: name".
func (n *Node) Label() string {
	return n.ID.String() + ": " + n.Element.Name
}

// Edge binds a numeric id to a rendered relationship.
type Edge struct {
	ID           NumericID
	Relationship *model.Relationship
	From         NumericID
	To           NumericID
}

// ClusterKind identifies what a cluster groups.
type ClusterKind int

// Cluster kinds.
const (
	ClusterEnterprise ClusterKind = iota
	ClusterScope
	ClusterDeployment
	ClusterGroup
)

func (k ClusterKind) String() string {
	switch k {
	case ClusterEnterprise:
		return "enterprise"
	case ClusterScope:
		return "scope"
	case ClusterDeployment:
		return "deployment"
	case ClusterGroup:
		return "group"
	}
	return "unknown"
}

// Cluster is a synthetic grouping rendered as a nested sub-block.
// Clusters form a strict tree through Parent and Children.
type Cluster struct {
	Key  string // unique identifier in the description document
	Kind ClusterKind

	// Name is the group segment, or the name of the bounding element.
	Name string

	// Path is the full group prefix for group clusters.
	Path string

	// Element is the bounding element for scope and deployment clusters.
	Element *model.Element

	Parent   *Cluster
	Children []*Cluster
	Nodes    []*Node
}

// Graph is the intermediate representation shared by the serializer and
// the coordinate mapper.
type Graph struct {
	ViewKey string
	Params  Params

	// Nodes and Edges are in id order.
	Nodes []*Node
	Edges []*Edge

	// Clusters are the top-level clusters in creation order; RootNodes are
	// the nodes outside every cluster, in id order.
	Clusters  []*Cluster
	RootNodes []*Node

	clusterCount int
}

// NodeIDs returns the ids of all rendered elements in id order.
func (g *Graph) NodeIDs() []NumericID {
	ids := make([]NumericID, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// NodeCount returns the number of rendered elements.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of rendered relationships.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// ClusterCount returns the number of clusters at every depth.
func (g *Graph) ClusterCount() int { return g.clusterCount }

// Walk visits every cluster depth first, parents before children, siblings
// in creation order. Returning false from fn skips the cluster's subtree.
func (g *Graph) Walk(fn func(c *Cluster) bool) {
	var visit func(cs []*Cluster)
	visit = func(cs []*Cluster) {
		for _, c := range cs {
			if fn(c) {
				visit(c.Children)
			}
		}
	}
	visit(g.Clusters)
}
