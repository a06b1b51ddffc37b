// Package engine runs the external layout engine.
//
// An [Engine] takes DOT source and returns the engine's SVG rendering of
// it. The call blocks until the engine has finished; a result is only
// returned once the process has exited successfully and its output has
// been read in full.
//
// Two engines are provided:
//
//   - [Exec] runs the Graphviz dot executable through file exchange:
//     the description is written to <run>/<name>.dot and the result read
//     back from <run>/<name>.svg, <run> being a fresh directory per call.
//   - [Embedded] runs Graphviz in-process through go-graphviz and needs no
//     installation.
//
// Failures are reported as *errors.Error with the ENGINE_NOT_FOUND,
// ENGINE_FAILED or ENGINE_OUTPUT codes so callers can tell them apart from
// parse failures. Context cancellation is returned as the context's error.
package engine

import "context"

// Engine lays out a DOT graph.
type Engine interface {
	// Name identifies the engine in cache keys and logs.
	Name() string

	// Layout returns the SVG rendering of dot. name labels the run; Exec
	// uses it as the base name of its files.
	Layout(ctx context.Context, name string, dot []byte) ([]byte, error)
}
