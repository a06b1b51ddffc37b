package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/model"
)

// DefaultCommand is the Graphviz executable looked up on PATH.
const DefaultCommand = "dot"

// waitDelay bounds how long a canceled engine may keep its output open.
const waitDelay = 2 * time.Second

// Exec runs a Graphviz-compatible executable as
//
//	<command> -Tsvg -o <run>/<name>.svg <run>/<name>.dot
//
// where <run> is a directory created for that run alone, so concurrent runs
// never share files even when their names collapse to the same base name.
type Exec struct {
	// Command is the executable name or path. Empty means DefaultCommand.
	Command string

	// Dir holds the run directories. Empty means the system temporary
	// directory.
	Dir string

	// KeepFiles leaves the files in place after the run.
	KeepFiles bool
}

// Name implements Engine.
func (e *Exec) Name() string { return "exec:" + e.command() }

func (e *Exec) command() string {
	if e.Command == "" {
		return DefaultCommand
	}
	return e.Command
}

// Layout implements Engine.
func (e *Exec) Layout(ctx context.Context, name string, dot []byte) ([]byte, error) {
	bin, err := exec.LookPath(e.command())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineNotFound, err, "layout engine %q not found", e.command())
	}

	dir, cleanup, err := e.runDir(name)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	base := filepath.Join(dir, model.FileBase(name))
	in, out := base+".dot", base+".svg"
	if err := os.WriteFile(in, dot, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write description")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-Tsvg", "-o", out, in)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			cause := &errors.ExitError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
			return nil, errors.Wrap(errors.ErrCodeEngineFailed, cause, "layout engine failed for %q", name)
		}
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, runErr, "run layout engine for %q", name)
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineOutput, err, "read layout result for %q", name)
	}
	if len(bytes.TrimSpace(svg)) == 0 {
		return nil, errors.New(errors.ErrCodeEngineOutput, "layout engine wrote an empty result for %q", name)
	}
	return svg, nil
}

// runDir creates the directory of one run and returns a function that
// removes it unless files are kept.
func (e *Exec) runDir(name string) (string, func(), error) {
	parent := e.Dir
	if parent == "" {
		parent = os.TempDir()
	} else if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create work directory")
	}

	dir := filepath.Join(parent, "autolayout-"+model.FileBase(name)+"-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "create run directory")
	}
	if e.KeepFiles {
		return dir, func() {}, nil
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
