package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/workspaceio"
)

// completionCommand creates the command that prints shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for autolayout.

Besides commands and flags, the scripts complete the values of --engine and
--rank-direction, and the view keys of the workspace named on the command
line:

  $ autolayout layout bigbank.json --view <TAB>
  SystemContext  Containers  Components

To load completions:

Bash:
  $ source <(autolayout completion bash)

  # To load completions for each session, execute once:
  $ autolayout completion bash > /etc/bash_completion.d/autolayout

Zsh:
  $ autolayout completion zsh > "${fpath[1]}/_autolayout"

Fish:
  $ autolayout completion fish > ~/.config/fish/completions/autolayout.fish

PowerShell:
  PS> autolayout completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeViews completes --view with the keys of the workspace given as
// the first argument, leaving out keys already on the command line.
func completeViews(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ws, err := workspaceio.Import(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveError
	}

	chosen := map[string]bool{}
	if views, err := cmd.Flags().GetStringSlice("view"); err == nil {
		for _, key := range views {
			chosen[key] = true
		}
	}
	var keys []string
	for _, v := range ws.Views {
		if !chosen[v.Key] && strings.HasPrefix(v.Key, toComplete) {
			keys = append(keys, v.Key)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}

func completeRankDirections(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"TB", "BT", "LR", "RL"}, cobra.ShellCompDirectiveNoFileComp
}

func completeEngines(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{pipeline.EngineExec, pipeline.EngineEmbedded}, cobra.ShellCompDirectiveNoFileComp
}
