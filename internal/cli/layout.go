package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/workspaceio"
)

// layoutCommand creates the layout command for positioning the elements of
// a workspace's views.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		inPlace bool
		noCache bool
	)
	flags := &optionFlags{}

	cmd := &cobra.Command{
		Use:   "layout [workspace]",
		Short: "Lay out the views of a workspace",
		Long: `Lay out the views of a workspace.

The layout command reads a workspace (.json, .yaml or .yml), lays out every
view with Graphviz, and writes the workspace with the computed element
positions and view dimensions to <input>.layout.<ext>, or back to the input
with --in-place.

Views are laid out concurrently. A view that fails keeps its previous
positions and does not stop the others; the command exits with an error if
any view failed.

Engine results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd, c.configPath)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, outputPath(args[0], output, inPlace), noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.<ext>)")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "write the result back to the input file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.registerGraph(cmd)
	flags.registerRun(cmd)
	cmd.MarkFlagsMutuallyExclusive("output", "in-place")

	return cmd
}

// outputPath returns where the laid out workspace is written.
func outputPath(input, output string, inPlace bool) string {
	switch {
	case inPlace:
		return input
	case output != "":
		return output
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".layout" + ext
}

// runLayout loads the workspace, lays out its views, and writes the result.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	ws, err := workspaceio.Import(input)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", input, err)
	}

	runner, err := c.newRunner(opts, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newLayoutSpinner(ctx, ws.Name)
	opts.Progress = spinner.viewDone
	spinner.Start()

	results, err := runner.ApplyWorkspace(ctx, ws, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Laid out %d views", len(results)))

	for _, r := range results {
		printResult(r)
	}

	if err := workspaceio.Export(ws, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printNewline()
	printFile(output)

	if failed := pipeline.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d views failed", len(failed), len(results))
	}
	printNewline()
	printNextStep("Inspect a view", appName+" dot "+input+" --view <key>")
	return nil
}
