package graph

import (
	"strconv"
	"strings"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/model"
)

// Cluster keys for the fixed boundaries.
const (
	KeyEnterprise = "cluster_enterprise"
	KeyScope      = "cluster_scope"
)

const (
	groupKeyPrefix      = "cluster_group_"
	deploymentKeyPrefix = "cluster_deployment_"
)

// Source is the read side of a diagram view.
type Source interface {
	Key() string
	Type() model.ViewType

	// Elements and Relationships are returned in presentation order.
	Elements() []*model.Element
	Relationships() []*model.Relationship

	// Scope is the element drawn as the outer boundary of container and
	// component views, or nil.
	Scope() *model.Element

	EnterpriseBoundaryVisible() bool
	GroupSeparator() string
}

// groupKey identifies a group cluster: one per path prefix within a parent.
type groupKey struct {
	parent *Cluster
	path   string
}

// builder holds the state of a single Build call. The id counter lives
// here so that concurrent builds never share it.
type builder struct {
	src Source
	g   *Graph
	sep string

	next          NumericID
	groupSeq      int
	deploymentSeq int

	groups      map[groupKey]*Cluster
	deployments map[string]*Cluster // deployment node id -> cluster
	byElement   map[string]*Node
	onView      map[string]*model.Element
	boundaries  map[string]bool

	enterprise *Cluster
	scope      *Cluster
}

// Build walks a view and produces its intermediate graph.
//
// Elements receive ids 1..n in presentation order, relationships continue
// from n+1 in their own presentation order. Building the same view twice
// yields identical ids, cluster keys and nesting.
//
// A view with no elements produces an empty graph, not an error.
func Build(src Source, params Params) (*Graph, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidView, "nil view")
	}
	sep := src.GroupSeparator()
	if err := errors.ValidateGroupSeparator(sep); err != nil {
		return nil, err
	}

	b := &builder{
		src: src,
		g: &Graph{
			ViewKey: src.Key(),
			Params:  params.withDefaults(),
		},
		sep:         sep,
		next:        1,
		groups:      make(map[groupKey]*Cluster),
		deployments: make(map[string]*Cluster),
		byElement:   make(map[string]*Node),
	}

	elements := src.Elements()
	b.onView = make(map[string]*model.Element, len(elements))
	for _, e := range elements {
		b.onView[e.ID] = e
	}
	b.boundaries = b.deploymentBoundaries(elements)

	b.addFixedClusters(elements)

	for _, e := range elements {
		switch {
		case b.boundaries[e.ID]:
			b.ensureDeployment(e)
		case b.scope != nil && e.ID == b.scope.Element.ID:
			// drawn as the scope boundary
		default:
			b.addNode(e)
		}
	}
	for _, r := range src.Relationships() {
		b.addEdge(r)
	}
	return b.g, nil
}

// deploymentBoundaries returns the deployment nodes of a deployment view that
// have at least one child on the view. Those render as clusters, not nodes.
func (b *builder) deploymentBoundaries(elements []*model.Element) map[string]bool {
	out := make(map[string]bool)
	if b.src.Type() != model.ViewDeployment {
		return out
	}
	for _, e := range elements {
		if p, ok := b.onView[e.Parent]; ok && p.Kind == model.KindDeploymentNode {
			out[p.ID] = true
		}
	}
	return out
}

// addFixedClusters creates the enterprise and scope boundaries, which always
// precede group clusters at the top level.
func (b *builder) addFixedClusters(elements []*model.Element) {
	if b.src.EnterpriseBoundaryVisible() {
		for _, e := range elements {
			if e.IsInternal() && !b.boundaries[e.ID] {
				b.enterprise = b.newCluster(nil, ClusterEnterprise, KeyEnterprise, "Enterprise")
				break
			}
		}
	}
	if scope := b.src.Scope(); scope != nil && b.src.Type().HasScopeBoundary() {
		b.scope = b.newCluster(nil, ClusterScope, KeyScope, scope.Name)
		b.scope.Element = scope
	}
}

func (b *builder) newCluster(parent *Cluster, kind ClusterKind, key, name string) *Cluster {
	c := &Cluster{Key: key, Kind: kind, Name: name, Parent: parent}
	if parent == nil {
		b.g.Clusters = append(b.g.Clusters, c)
	} else {
		parent.Children = append(parent.Children, c)
	}
	b.g.clusterCount++
	return c
}

// base returns the cluster an element belongs to before grouping applies.
func (b *builder) base(e *model.Element) *Cluster {
	if b.boundaries[e.Parent] {
		return b.ensureDeployment(b.onView[e.Parent])
	}
	if b.scope != nil && e.Parent == b.scope.Element.ID {
		return b.scope
	}
	if b.enterprise != nil && e.IsInternal() {
		return b.enterprise
	}
	return nil
}

// ensureDeployment returns the cluster of a deployment node, creating it and
// its enclosing deployment clusters on first encounter.
func (b *builder) ensureDeployment(e *model.Element) *Cluster {
	if c, ok := b.deployments[e.ID]; ok {
		return c
	}
	var parent *Cluster
	if b.boundaries[e.Parent] {
		parent = b.ensureDeployment(b.onView[e.Parent])
	}
	b.deploymentSeq++
	c := b.newCluster(parent, ClusterDeployment, deploymentKeyPrefix+strconv.Itoa(b.deploymentSeq), e.Name)
	c.Element = e
	b.deployments[e.ID] = c
	return c
}

// ensureGroups walks the group path segments left to right, creating or
// reusing one cluster per prefix under parent. It returns the deepest one,
// or parent when the element has no group.
func (b *builder) ensureGroups(parent *Cluster, group string) *Cluster {
	segments := SplitGroup(group, b.sep)
	cur := parent
	for i, seg := range segments {
		path := strings.Join(segments[:i+1], b.sep)
		key := groupKey{parent: parent, path: path}
		c, ok := b.groups[key]
		if !ok {
			b.groupSeq++
			c = b.newCluster(cur, ClusterGroup, groupKeyPrefix+strconv.Itoa(b.groupSeq), seg)
			c.Path = path
			b.groups[key] = c
		}
		cur = c
	}
	return cur
}

func (b *builder) addNode(e *model.Element) {
	if _, dup := b.byElement[e.ID]; dup {
		return
	}
	c := b.ensureGroups(b.base(e), e.Group)

	n := &Node{ID: b.next, Element: e, Cluster: c}
	b.next++
	b.g.Nodes = append(b.g.Nodes, n)
	b.byElement[e.ID] = n
	if c == nil {
		b.g.RootNodes = append(b.g.RootNodes, n)
	} else {
		c.Nodes = append(c.Nodes, n)
	}
}

// addEdge renders a relationship whose endpoints are both nodes. Edges to
// elements that are not rendered as nodes are dropped.
func (b *builder) addEdge(r *model.Relationship) {
	from, ok := b.byElement[r.Source]
	if !ok {
		return
	}
	to, ok := b.byElement[r.Destination]
	if !ok {
		return
	}
	e := &Edge{ID: b.next, Relationship: r, From: from.ID, To: to.ID}
	b.next++
	b.g.Edges = append(b.g.Edges, e)
}

// SplitGroup splits a group path into trimmed, non-empty segments.
// An empty separator keeps the whole path as one segment. A blank path has
// no segments.
func SplitGroup(group, sep string) []string {
	if strings.TrimSpace(group) == "" {
		return nil
	}
	if sep == "" {
		return []string{strings.TrimSpace(group)}
	}
	var out []string
	for _, s := range strings.Split(group, sep) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
