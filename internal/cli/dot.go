package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/model"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/workspaceio"
)

// dotCommand creates the dot command that writes the description handed to
// the layout engine for each view.
func (c *CLI) dotCommand() *cobra.Command {
	var output string
	flags := &optionFlags{}

	cmd := &cobra.Command{
		Use:   "dot [workspace]",
		Short: "Write the DOT description of each view",
		Long: `Write the DOT description of each view.

The dot command writes <view key>.dot for every selected view into the output
directory, exactly as it would be handed to the layout engine. Use "-o -" to
print a single view to standard output.

The workspace is not modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd, c.configPath)
			if err != nil {
				return err
			}
			return c.runDot(args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", `output directory, or "-" for standard output`)
	flags.registerGraph(cmd)

	return cmd
}

// runDot writes the descriptions of the selected views.
func (c *CLI) runDot(input string, opts pipeline.Options, output string) error {
	ws, err := workspaceio.Import(input)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", input, err)
	}
	if err := ws.Validate(); err != nil {
		return err
	}

	keys, err := selectViews(ws, opts.Views)
	if err != nil {
		return err
	}
	if output == "-" && len(keys) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "standard output takes exactly one view, %d selected (use --view)", len(keys))
	}

	runner := pipeline.NewRunner(nil, nil, nil, c.Logger)
	for _, key := range keys {
		vc, err := model.NewViewContext(ws, key)
		if err != nil {
			return err
		}
		g, desc, err := runner.Describe(vc, opts)
		if err != nil {
			return fmt.Errorf("view %s: %w", key, err)
		}

		if output == "-" {
			_, err := os.Stdout.Write(desc)
			return err
		}
		path := filepath.Join(output, model.FileBase(key)+".dot")
		if err := os.MkdirAll(output, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		if err := os.WriteFile(path, desc, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("%s", key)
		printDetail("%d elements · %d edges · %d clusters", g.NodeCount(), g.EdgeCount(), g.ClusterCount())
		printFile(path)
	}
	return nil
}

// selectViews returns the keys of the views to process, in workspace order.
func selectViews(ws *model.Workspace, want []string) ([]string, error) {
	for _, key := range want {
		if _, ok := ws.View(key); !ok {
			return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", key)
		}
	}
	selected := make(map[string]bool, len(want))
	for _, key := range want {
		selected[key] = true
	}
	var keys []string
	for _, v := range ws.Views {
		if len(want) == 0 || selected[v.Key] {
			keys = append(keys, v.Key)
		}
	}
	return keys, nil
}
