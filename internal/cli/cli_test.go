package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/model"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/workspaceio"
)

func testWorkspace() *model.Workspace {
	return &model.Workspace{
		Name: "test",
		Model: model.Model{
			Elements: []model.Element{
				{ID: "ext", Name: "Box 1", Kind: model.KindCustom, Group: "External"},
				{ID: "int", Name: "Box 2", Kind: model.KindCustom, Group: "Internal"},
			},
		},
		Views: []model.View{
			{Key: "groups", Type: model.ViewCustom, Elements: []model.ElementView{{ID: "ext"}, {ID: "int"}}},
			{Key: "empty", Type: model.ViewCustom},
		},
	}
}

func writeWorkspace(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := workspaceio.Export(testWorkspace(), path); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	return path
}

// fakeDot writes a shell script standing in for dot. It is called as
// script -Tsvg -o <out> <in>.
func fakeDot(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engines need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-dot")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

func copyFixture(t *testing.T) string {
	t.Helper()
	fixture, err := filepath.Abs("testdata/groups.svg")
	if err != nil {
		t.Fatal(err)
	}
	return fakeDot(t, `cp "`+fixture+`" "$3"`)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input   string
		output  string
		inPlace bool
		want    string
	}{
		{"ws.json", "", false, "ws.layout.json"},
		{"dir/ws.yaml", "", false, "dir/ws.layout.yaml"},
		{"ws", "", false, "ws.layout"},
		{"ws.json", "out.json", false, "out.json"},
		{"ws.json", "", true, "ws.json"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := outputPath(tt.input, tt.output, tt.inPlace); got != tt.want {
				t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.input, tt.output, tt.inPlace, got, tt.want)
			}
		})
	}
}

func parseOptionFlags(t *testing.T, args []string, configPath string) (pipeline.Options, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := &optionFlags{}
	f.registerGraph(cmd)
	f.registerRun(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	return f.resolve(cmd, configPath)
}

func TestResolveFlags(t *testing.T) {
	opts, err := parseOptionFlags(t, []string{"--rank-direction", "LR", "--margin", "0", "--view", "a,b"}, "")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if opts.RankDirection != "LR" {
		t.Errorf("RankDirection = %q, want LR", opts.RankDirection)
	}
	if opts.Margin == nil || *opts.Margin != 0 {
		t.Errorf("Margin = %v, want 0", opts.Margin)
	}
	if opts.Concurrency != pipeline.DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", opts.Concurrency, pipeline.DefaultConcurrency)
	}
	if diff := cmp.Diff([]string{"a", "b"}, opts.Views); diff != "" {
		t.Errorf("Views mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "autolayout.toml")
	data := "rank_direction = \"BT\"\nmargin = 100\nconcurrency = 8\n"
	if err := os.WriteFile(config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := parseOptionFlags(t, []string{"--margin", "50"}, config)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if opts.RankDirection != "BT" {
		t.Errorf("RankDirection = %q, want BT from the file", opts.RankDirection)
	}
	if opts.Margin == nil || *opts.Margin != 50 {
		t.Errorf("Margin = %v, want 50 from the flag", opts.Margin)
	}
	if opts.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8 from the file", opts.Concurrency)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		config string
		want   errors.Code
	}{
		{"engine", []string{"--engine", "bogus"}, "", errors.ErrCodeInvalidInput},
		{"direction", []string{"--rank-direction", "sideways"}, "", errors.ErrCodeInvalidInput},
		{"negative margin", []string{"--margin=-1"}, "", errors.ErrCodeInvalidInput},
		{"missing config", nil, "/nonexistent/autolayout.toml", errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptionFlags(t, tt.args, tt.config)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("resolve() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestSelectViews(t *testing.T) {
	ws := testWorkspace()
	tests := []struct {
		name string
		want []string
		keys []string
	}{
		{"all", nil, []string{"groups", "empty"}},
		{"workspace order", []string{"empty", "groups"}, []string{"groups", "empty"}},
		{"one", []string{"empty"}, []string{"empty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectViews(ws, tt.want)
			if err != nil {
				t.Fatalf("selectViews() error = %v", err)
			}
			if diff := cmp.Diff(tt.keys, got); diff != "" {
				t.Errorf("selectViews() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := selectViews(ws, []string{"nope"}); !errors.Is(err, errors.ErrCodeViewNotFound) {
		t.Errorf("selectViews(nope) error = %v, want %s", err, errors.ErrCodeViewNotFound)
	}
}

func TestRunDot(t *testing.T) {
	input := writeWorkspace(t, "ws.json")
	out := filepath.Join(t.TempDir(), "dot")

	c := New(&bytes.Buffer{}, LogInfo)
	if err := c.runDot(input, pipeline.Options{Views: []string{"groups"}}, out); err != nil {
		t.Fatalf("runDot() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "groups.dot"))
	if err != nil {
		t.Fatalf("read description: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph {") {
		t.Errorf("description does not start with digraph:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(out, "empty.dot")); !os.IsNotExist(err) {
		t.Errorf("unselected view was written")
	}
}

func TestRunDotStdoutNeedsOneView(t *testing.T) {
	input := writeWorkspace(t, "ws.json")
	c := New(&bytes.Buffer{}, LogInfo)
	err := c.runDot(input, pipeline.Options{}, "-")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("runDot(-) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestRunLayout(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	input := writeWorkspace(t, "ws.yaml")
	output := outputPath(input, "", false)

	c := New(&bytes.Buffer{}, LogInfo)
	opts := pipeline.Options{Command: copyFixture(t)}
	if err := c.runLayout(context.Background(), input, opts, output, false); err != nil {
		t.Fatalf("runLayout() error = %v", err)
	}

	ws, err := workspaceio.Import(output)
	if err != nil {
		t.Fatalf("Import(%s) error = %v", output, err)
	}
	v, _ := ws.View("groups")
	want := []model.ElementView{{ID: "ext", X: 483, Y: 450}, {ID: "int", X: 1033, Y: 450}}
	if diff := cmp.Diff(want, v.Elements); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}

	orig, err := workspaceio.Import(input)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := orig.View("groups"); v.Elements[0].X != 0 {
		t.Errorf("input was modified: %+v", v.Elements)
	}
}

func TestRunLayoutFailedView(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	input := writeWorkspace(t, "ws.json")
	output := filepath.Join(t.TempDir(), "out.json")

	c := New(&bytes.Buffer{}, LogInfo)
	opts := pipeline.Options{Command: fakeDot(t, "echo 'syntax error' >&2; exit 1")}
	err := c.runLayout(context.Background(), input, opts, output, true)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 views failed") {
		t.Fatalf("runLayout() error = %v, want one failed view", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
}
