package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/model"
)

// newView returns a context for a single view listing every element and
// relationship of the model in the order given.
func newView(t *testing.T, typ model.ViewType, scope, sep string, elems []model.Element, rels ...model.Relationship) *model.ViewContext {
	t.Helper()
	v := model.View{Key: "view", Type: typ, Scope: scope}
	for _, e := range elems {
		v.Elements = append(v.Elements, model.ElementView{ID: e.ID})
	}
	for _, r := range rels {
		v.Relationships = append(v.Relationships, model.RelationshipView{ID: r.ID})
	}
	ws := &model.Workspace{
		Name:  "test",
		Model: model.Model{Elements: elems, Relationships: rels, GroupSeparator: sep},
		Views: []model.View{v},
	}
	vc, err := model.NewViewContext(ws, "view")
	if err != nil {
		t.Fatalf("NewViewContext() error = %v", err)
	}
	return vc
}

func box(id, name string) model.Element {
	return model.Element{ID: id, Name: name, Kind: model.KindCustom}
}

func grouped(id, name, group string) model.Element {
	return model.Element{ID: id, Name: name, Kind: model.KindCustom, Group: group}
}

func rel(id, src, dst string) model.Relationship {
	return model.Relationship{ID: id, Source: src, Destination: dst}
}

// clusterTree is a comparable summary of a cluster subtree.
type clusterTree struct {
	Key      string
	Name     string
	Nodes    []NumericID
	Children []clusterTree
}

func summarize(cs []*Cluster) []clusterTree {
	var out []clusterTree
	for _, c := range cs {
		ct := clusterTree{Key: c.Key, Name: c.Name, Children: summarize(c.Children)}
		for _, n := range c.Nodes {
			ct.Nodes = append(ct.Nodes, n.ID)
		}
		out = append(out, ct)
	}
	return out
}

func mustBuild(t *testing.T, src Source) *Graph {
	t.Helper()
	g, err := Build(src, DefaultParams())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

// lookupCluster finds a cluster by key at any depth.
func lookupCluster(g *Graph, key string) (*Cluster, bool) {
	var found *Cluster
	g.Walk(func(c *Cluster) bool {
		if c.Key == key {
			found = c
		}
		return found == nil
	})
	return found, found != nil
}

func findCluster(t *testing.T, g *Graph, key string) *Cluster {
	t.Helper()
	c, ok := lookupCluster(g, key)
	if !ok {
		t.Fatalf("cluster %s not found", key)
	}
	return c
}

func TestBuildTwoElementsOneRelationship(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "",
		[]model.Element{box("a", "Box 1"), box("b", "Box 2")},
		rel("r", "a", "b"))
	g := mustBuild(t, vc)

	if got := g.NodeIDs(); !cmp.Equal(got, []NumericID{1, 2}) {
		t.Errorf("NodeIDs() = %v, want [1 2]", got)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	e := g.Edges[0]
	if e.ID != 3 || e.From != 1 || e.To != 2 {
		t.Errorf("edge = %d: %d -> %d, want 3: 1 -> 2", e.ID, e.From, e.To)
	}
	if g.ClusterCount() != 0 {
		t.Errorf("ClusterCount() = %d, want 0", g.ClusterCount())
	}
	if len(g.RootNodes) != 2 {
		t.Errorf("len(RootNodes) = %d, want 2", len(g.RootNodes))
	}
	if n := g.Nodes[0]; n.ID != 1 || n.Element.ID != "a" {
		t.Errorf("Nodes[0] = %d %q, want 1 a", n.ID, n.Element.ID)
	}
}

func TestBuildSiblingGroups(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "",
		[]model.Element{grouped("a", "Box 1", "External"), grouped("b", "Box 2", "Internal")})
	g := mustBuild(t, vc)

	want := []clusterTree{
		{Key: "cluster_group_1", Name: "External", Nodes: []NumericID{1}},
		{Key: "cluster_group_2", Name: "Internal", Nodes: []NumericID{2}},
	}
	if diff := cmp.Diff(want, summarize(g.Clusters)); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}
	if len(g.RootNodes) != 0 {
		t.Errorf("len(RootNodes) = %d, want 0", len(g.RootNodes))
	}
}

func TestBuildNestedGroups(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "/",
		[]model.Element{
			grouped("a", "Box 1", "Enterprise 1/Department 1/Team 1"),
			grouped("b", "Box 2", "Enterprise 1/Department 1/Team 2"),
			grouped("c", "Box 3", "Enterprise 1/Department 2"),
			grouped("d", "Box 4", "Enterprise 2"),
		})
	g := mustBuild(t, vc)

	want := []clusterTree{
		{
			Key: "cluster_group_1", Name: "Enterprise 1",
			Children: []clusterTree{
				{
					Key: "cluster_group_2", Name: "Department 1",
					Children: []clusterTree{
						{Key: "cluster_group_3", Name: "Team 1", Nodes: []NumericID{1}},
						{Key: "cluster_group_4", Name: "Team 2", Nodes: []NumericID{2}},
					},
				},
				{Key: "cluster_group_5", Name: "Department 2", Nodes: []NumericID{3}},
			},
		},
		{Key: "cluster_group_6", Name: "Enterprise 2", Nodes: []NumericID{4}},
	}
	if diff := cmp.Diff(want, summarize(g.Clusters)); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}

	c := findCluster(t, g, "cluster_group_3")
	if c.Path != "Enterprise 1/Department 1/Team 1" {
		t.Errorf("Path = %q", c.Path)
	}
	if c.Parent == nil || c.Parent.Parent == nil || c.Parent.Parent.Parent != nil {
		t.Errorf("cluster_group_3 should sit two levels below a top-level cluster")
	}
}

func TestBuildSharesPrefixes(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "/",
		[]model.Element{grouped("x", "X", "A/B/C"), grouped("y", "Y", "A/B/D")})
	g := mustBuild(t, vc)

	if g.ClusterCount() != 4 {
		t.Fatalf("ClusterCount() = %d, want 4 (A, A/B, A/B/C, A/B/D)", g.ClusterCount())
	}
	var paths []string
	g.Walk(func(c *Cluster) bool {
		paths = append(paths, c.Path)
		return true
	})
	want := []string{"A", "A/B", "A/B/C", "A/B/D"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("Walk() paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGroupSegmentsAreTrimmed(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "/",
		[]model.Element{grouped("x", "X", " A / B "), grouped("y", "Y", "A//B"), grouped("z", "Z", "   ")})
	g := mustBuild(t, vc)

	if g.ClusterCount() != 2 {
		t.Errorf("ClusterCount() = %d, want 2", g.ClusterCount())
	}
	c := findCluster(t, g, "cluster_group_2")
	if len(c.Nodes) != 2 {
		t.Errorf("len(cluster_group_2.Nodes) = %d, want 2", len(c.Nodes))
	}
	if len(g.RootNodes) != 1 || g.RootNodes[0].Element.ID != "z" {
		t.Errorf("blank group should attach to the root")
	}
}

func TestBuildIsStable(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "/",
		[]model.Element{
			grouped("a", "A", "G1/G2"),
			box("b", "B"),
			grouped("c", "C", "G1"),
			grouped("d", "D", "G3"),
		},
		rel("r1", "a", "b"), rel("r2", "c", "d"), rel("r3", "b", "d"))

	type snapshot struct {
		Nodes    map[NumericID]string
		Edges    map[NumericID]string
		Clusters []clusterTree
	}
	snap := func(g *Graph) snapshot {
		s := snapshot{Nodes: map[NumericID]string{}, Edges: map[NumericID]string{}, Clusters: summarize(g.Clusters)}
		for _, n := range g.Nodes {
			s.Nodes[n.ID] = n.Element.ID
		}
		for _, e := range g.Edges {
			s.Edges[e.ID] = e.Relationship.ID
		}
		return s
	}

	first := snap(mustBuild(t, vc))
	second := snap(mustBuild(t, vc))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second build differs (-first +second):\n%s", diff)
	}
	if first.Edges[5] != "r1" || first.Edges[7] != "r3" {
		t.Errorf("edge ids = %v, want relationships numbered from 5", first.Edges)
	}
}

func TestBuildEmptyView(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "", nil)
	g := mustBuild(t, vc)
	if g.NodeCount() != 0 || g.EdgeCount() != 0 || g.ClusterCount() != 0 {
		t.Errorf("empty view built %d nodes, %d edges, %d clusters", g.NodeCount(), g.EdgeCount(), g.ClusterCount())
	}
}

func TestBuildEnterpriseBoundary(t *testing.T) {
	internal := func(id string) model.Element {
		return model.Element{ID: id, Name: id, Kind: model.KindSoftwareSystem, Location: model.LocationInternal}
	}
	external := func(id string) model.Element {
		return model.Element{ID: id, Name: id, Kind: model.KindPerson, Location: model.LocationExternal}
	}
	hidden := false

	tests := []struct {
		name       string
		typ        model.ViewType
		visible    *bool
		elems      []model.Element
		wantRoot   []NumericID
		wantInside []NumericID
	}{
		{
			name:       "landscape",
			typ:        model.ViewSystemLandscape,
			elems:      []model.Element{external("p"), internal("s1"), internal("s2")},
			wantRoot:   []NumericID{1},
			wantInside: []NumericID{2, 3},
		},
		{
			name:     "hidden",
			typ:      model.ViewSystemContext,
			visible:  &hidden,
			elems:    []model.Element{external("p"), internal("s1")},
			wantRoot: []NumericID{1, 2},
		},
		{
			name:     "no internal elements",
			typ:      model.ViewSystemLandscape,
			elems:    []model.Element{external("p"), external("q")},
			wantRoot: []NumericID{1, 2},
		},
		{
			name:     "custom view",
			typ:      model.ViewCustom,
			elems:    []model.Element{internal("s1")},
			wantRoot: []NumericID{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := newView(t, tt.typ, "", "", tt.elems)
			vc.View().EnterpriseBoundaryVisible = tt.visible
			g := mustBuild(t, vc)

			var root []NumericID
			for _, n := range g.RootNodes {
				root = append(root, n.ID)
			}
			if diff := cmp.Diff(tt.wantRoot, root); diff != "" {
				t.Errorf("root nodes mismatch (-want +got):\n%s", diff)
			}

			ent, ok := lookupCluster(g, KeyEnterprise)
			if ok != (tt.wantInside != nil) {
				t.Fatalf("enterprise cluster present = %v, want %v", ok, tt.wantInside != nil)
			}
			if !ok {
				return
			}
			var inside []NumericID
			for _, n := range ent.Nodes {
				inside = append(inside, n.ID)
			}
			if diff := cmp.Diff(tt.wantInside, inside); diff != "" {
				t.Errorf("enterprise nodes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildGroupsInsideEnterprise(t *testing.T) {
	elems := []model.Element{
		{ID: "a", Name: "A", Kind: model.KindSoftwareSystem, Location: model.LocationInternal, Group: "Shared"},
		{ID: "b", Name: "B", Kind: model.KindSoftwareSystem, Location: model.LocationExternal, Group: "Shared"},
	}
	g := mustBuild(t, newView(t, model.ViewSystemLandscape, "", "", elems))

	want := []clusterTree{
		{
			Key: KeyEnterprise, Name: "Enterprise",
			Children: []clusterTree{{Key: "cluster_group_1", Name: "Shared", Nodes: []NumericID{1}}},
		},
		{Key: "cluster_group_2", Name: "Shared", Nodes: []NumericID{2}},
	}
	if diff := cmp.Diff(want, summarize(g.Clusters)); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildContainerScope(t *testing.T) {
	elems := []model.Element{
		{ID: "user", Name: "User", Kind: model.KindPerson},
		{ID: "sys", Name: "Internet Banking", Kind: model.KindSoftwareSystem},
		{ID: "web", Name: "Web App", Kind: model.KindContainer, Parent: "sys"},
		{ID: "db", Name: "Database", Kind: model.KindContainer, Parent: "sys", Group: "Storage"},
	}
	rels := []model.Relationship{
		rel("r1", "user", "web"),
		rel("r2", "web", "db"),
		rel("r3", "user", "sys"),
	}
	g := mustBuild(t, newView(t, model.ViewContainer, "sys", "", elems, rels...))

	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3 (scope element is a boundary)", g.NodeCount())
	}
	want := []clusterTree{
		{
			Key: KeyScope, Name: "Internet Banking",
			Nodes:    []NumericID{2},
			Children: []clusterTree{{Key: "cluster_group_1", Name: "Storage", Nodes: []NumericID{3}}},
		},
	}
	if diff := cmp.Diff(want, summarize(g.Clusters)); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}

	// r3 targets the scope boundary and is not rendered.
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if g.Edges[0].ID != 4 || g.Edges[1].ID != 5 {
		t.Errorf("edge ids = %d, %d, want 4, 5", g.Edges[0].ID, g.Edges[1].ID)
	}
}

func TestBuildDeploymentNodes(t *testing.T) {
	elems := []model.Element{
		{ID: "aws", Name: "AWS", Kind: model.KindDeploymentNode},
		{ID: "k8s", Name: "Kubernetes", Kind: model.KindDeploymentNode, Parent: "aws"},
		{ID: "api", Name: "API", Kind: model.KindContainer, Parent: "k8s"},
		{ID: "cdn", Name: "CDN", Kind: model.KindDeploymentNode},
	}
	g := mustBuild(t, newView(t, model.ViewDeployment, "", "", elems))

	want := []clusterTree{
		{
			Key: "cluster_deployment_1", Name: "AWS",
			Children: []clusterTree{{Key: "cluster_deployment_2", Name: "Kubernetes", Nodes: []NumericID{1}}},
		},
	}
	if diff := cmp.Diff(want, summarize(g.Clusters)); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}
	// A deployment node with nothing inside it is an ordinary box.
	if len(g.RootNodes) != 1 || g.RootNodes[0].Element.ID != "cdn" || g.RootNodes[0].ID != 2 {
		t.Errorf("RootNodes = %v, want [cdn as 2]", g.RootNodes)
	}
}

func TestBuildRejectsBadSeparator(t *testing.T) {
	vc := newView(t, model.ViewCustom, "", "::", []model.Element{box("a", "A")})
	_, err := Build(vc, DefaultParams())
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Build() error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestBuildFillsDefaultParams(t *testing.T) {
	g, err := Build(newView(t, model.ViewCustom, "", "", nil), Params{RankDirection: LeftRight, RankSeparation: 600})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := DefaultParams()
	want.RankDirection = LeftRight
	want.RankSeparation = 600
	if diff := cmp.Diff(want, g.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGroup(t *testing.T) {
	tests := []struct {
		group string
		sep   string
		want  []string
	}{
		{"", "/", nil},
		{"   ", "/", nil},
		{"Team", "", []string{"Team"}},
		{"A/B", "", []string{"A/B"}},
		{"A/B/C", "/", []string{"A", "B", "C"}},
		{" A | B ", "|", []string{"A", "B"}},
		{"/A//B/", "/", []string{"A", "B"}},
	}
	for _, tt := range tests {
		if got := SplitGroup(tt.group, tt.sep); !cmp.Equal(got, tt.want) {
			t.Errorf("SplitGroup(%q, %q) = %q, want %q", tt.group, tt.sep, got, tt.want)
		}
	}
}
