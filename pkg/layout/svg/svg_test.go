package svg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout/geom"
	"github.com/matzehuels/autolayout/pkg/layout/graph"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestParse(t *testing.T) {
	geo, err := Parse(openFixture(t, "two_boxes.svg"), []graph.NumericID{1, 2})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if geo.Width != 170 || geo.Height != 260 {
		t.Errorf("canvas = %vx%v, want 170x260", geo.Width, geo.Height)
	}
	wantT := geom.Transform{ScaleX: 1, ScaleY: 1, TranslateX: 4, TranslateY: 256}
	if geo.Transform != wantT {
		t.Errorf("Transform = %+v, want %+v", geo.Transform, wantT)
	}
	if geo.YUp {
		t.Error("YUp = true, want false for svg")
	}

	wantNodes := map[graph.NumericID]geom.Rect{
		1: {X: 27, Y: -224, Width: 108, Height: 72},
		2: {X: 27, Y: -72, Width: 108, Height: 72},
	}
	if diff := cmp.Diff(wantNodes, geo.Nodes, approx); diff != "" {
		t.Errorf("Nodes mismatch (-want +got):\n%s", diff)
	}

	wantClusters := map[string]geom.Rect{
		"cluster_group_1": {X: 8, Y: -244, Width: 146, Height: 100},
	}
	if diff := cmp.Diff(wantClusters, geo.Clusters, approx); diff != "" {
		t.Errorf("Clusters mismatch (-want +got):\n%s", diff)
	}

}

func TestParseIgnoresDecoration(t *testing.T) {
	geo, err := Parse(openFixture(t, "decorated.svg"), []graph.NumericID{5})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[graph.NumericID]geom.Rect{
		5: {X: 0, Y: -180, Width: 108, Height: 72},
	}
	if diff := cmp.Diff(want, geo.Nodes, approx); diff != "" {
		t.Errorf("Nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAllWhenWantIsNil(t *testing.T) {
	geo, err := Parse(openFixture(t, "decorated.svg"), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(geo.Nodes) != 2 {
		t.Errorf("len(Nodes) = %d, want 2 (ids 5 and 99)", len(geo.Nodes))
	}
}

func TestParseSkipsDegenerateOutline(t *testing.T) {
	tests := []struct {
		name  string
		shape string
		want  geom.Rect
	}{
		{
			name:  "line before box",
			shape: `<polygon points="0,-18 54,-18"/><polygon points="0,-36 54,-36 54,0 0,0"/>`,
			want:  geom.Rect{X: 0, Y: -36, Width: 54, Height: 36},
		},
		{
			name:  "flat ellipse before path",
			shape: `<ellipse cx="5" cy="5" rx="3" ry="0"/><path d="M0,-36 L54,-36 L54,0 L0,0 Z"/>`,
			want:  geom.Rect{X: 0, Y: -36, Width: 54, Height: 36},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<svg width="62pt" height="44pt"><g class="graph" transform="translate(4 40)">` +
				`<g class="node"><title>1</title>` + tt.shape + `</g></g></svg>`
			geo, err := Parse(strings.NewReader(doc), []graph.NumericID{1})
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, geo.Nodes[1], approx); diff != "" {
				t.Errorf("node bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseOnlyDegenerateOutlineIsMissing(t *testing.T) {
	doc := `<svg width="62pt" height="44pt"><g class="graph">` +
		`<g class="node"><title>1</title><polygon points="0,-18 54,-18"/></g></g></svg>`
	_, err := Parse(strings.NewReader(doc), []graph.NumericID{1})
	if !errors.Is(err, errors.ErrCodeMissingGeometry) {
		t.Errorf("Parse() error = %v, want %s", err, errors.ErrCodeMissingGeometry)
	}
}

func TestParseMissingID(t *testing.T) {
	_, err := Parse(openFixture(t, "two_boxes.svg"), []graph.NumericID{1, 2, 7})
	if !errors.Is(err, errors.ErrCodeMissingGeometry) {
		t.Fatalf("Parse() error = %v, want %s", err, errors.ErrCodeMissingGeometry)
	}
	if !strings.Contains(err.Error(), "7") {
		t.Errorf("error %q does not name the missing id", err)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "dot: syntax error in line 1"},
		{"truncated", `<svg width="10pt" height="10pt"><g class="graph">`},
		{"no canvas", `<svg><g class="graph"></g></svg>`},
		{"bad transform", `<svg width="10pt" height="10pt"><g class="graph" transform="scale(x)"></g></svg>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc), nil)
			if !errors.Is(err, errors.ErrCodeInvalidGeometry) {
				t.Errorf("Parse() error = %v, want %s", err, errors.ErrCodeInvalidGeometry)
			}
		})
	}
}

func TestParseViewBoxFallback(t *testing.T) {
	doc := `<svg viewBox="0 0 62 44"><g class="graph" transform="translate(4 40)">` +
		`<g class="node"><title>1</title><polygon points="0,-36 54,-36 54,0 0,0"/></g>` +
		`</g></svg>`
	geo, err := Parse(strings.NewReader(doc), []graph.NumericID{1})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if geo.Width != 62 || geo.Height != 44 {
		t.Errorf("canvas = %vx%v, want 62x44", geo.Width, geo.Height)
	}
	if geo.Transform.ScaleX != 1 || geo.Transform.TranslateY != 40 {
		t.Errorf("Transform = %+v", geo.Transform)
	}
}

func TestParseEmptyGraph(t *testing.T) {
	doc := `<svg width="8pt" height="8pt" viewBox="0.00 0.00 8.00 8.00">` +
		`<g id="graph0" class="graph" transform="scale(1 1) rotate(0) translate(4 4)"><title>%3</title></g></svg>`
	geo, err := Parse(strings.NewReader(doc), []graph.NumericID{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(geo.Nodes) != 0 {
		t.Errorf("len(Nodes) = %d, want 0", len(geo.Nodes))
	}
}

func TestParseTransform(t *testing.T) {
	tests := []struct {
		in   string
		want geom.Transform
	}{
		{"", geom.Identity},
		{"translate(4 256)", geom.Transform{ScaleX: 1, ScaleY: 1, TranslateX: 4, TranslateY: 256}},
		{"scale(0.5) rotate(0) translate(4,8)", geom.Transform{ScaleX: 0.5, ScaleY: 0.5, TranslateX: 4, TranslateY: 8}},
		{"scale(2 3) translate(-1.5 2e1)", geom.Transform{ScaleX: 2, ScaleY: 3, TranslateX: -1.5, TranslateY: 20}},
	}
	for _, tt := range tests {
		got, err := parseTransform(tt.in)
		if err != nil {
			t.Errorf("parseTransform(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseTransform(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
