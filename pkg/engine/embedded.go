package engine

import (
	"bytes"
	"context"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// Embedded runs Graphviz in-process.
type Embedded struct{}

// Name implements Engine.
func (Embedded) Name() string { return "embedded" }

// Layout implements Engine.
func (Embedded) Layout(ctx context.Context, name string, dot []byte) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineNotFound, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "parse description for %q", name)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "render %q", name)
	}
	if buf.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEngineOutput, "graphviz rendered nothing for %q", name)
	}
	return buf.Bytes(), nil
}
