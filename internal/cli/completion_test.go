package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func TestCompleteViews(t *testing.T) {
	input := writeWorkspace(t, "ws.json")

	tests := []struct {
		name       string
		args       []string
		flags      []string
		toComplete string
		want       []string
	}{
		{"all views", []string{input}, nil, "", []string{"groups", "empty"}},
		{"prefix", []string{input}, nil, "gr", []string{"groups"}},
		{"skips chosen", []string{input}, []string{"--view", "groups"}, "", []string{"empty"}},
		{"no workspace", nil, nil, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			(&optionFlags{}).registerGraph(cmd)
			if err := cmd.ParseFlags(tt.flags); err != nil {
				t.Fatal(err)
			}

			got, directive := completeViews(cmd, tt.args, tt.toComplete)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("completeViews() mismatch (-want +got):\n%s", diff)
			}
			if directive&cobra.ShellCompDirectiveNoFileComp == 0 {
				t.Errorf("completeViews() directive = %v, want NoFileComp", directive)
			}
		})
	}
}

func TestCompleteViewsUnreadableWorkspace(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	(&optionFlags{}).registerGraph(cmd)

	got, directive := completeViews(cmd, []string{"/nonexistent/ws.json"}, "")
	if got != nil {
		t.Errorf("completeViews() = %v, want nil", got)
	}
	if directive&cobra.ShellCompDirectiveError == 0 {
		t.Errorf("completeViews() directive = %v, want Error", directive)
	}
}

func TestLayoutViewCompletion(t *testing.T) {
	input := writeWorkspace(t, "ws.yaml")

	var out bytes.Buffer
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{cobra.ShellCompRequestCmd, "layout", input, "--view", ""})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion request error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("completion output = %q, want keys and a directive", out.String())
	}
	if diff := cmp.Diff([]string{"groups", "empty"}, lines[:2]); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := New(&bytes.Buffer{}, LogInfo).RootCommand()
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s error = %v", shell, err)
			}
			if !strings.Contains(out.String(), appName) {
				t.Errorf("completion %s output does not mention %s", shell, appName)
			}
		})
	}
}
